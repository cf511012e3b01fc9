package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	_ "github.com/joho/godotenv/autoload"

	"github.com/echoworks/lead-intake/internal/app"
	"github.com/echoworks/lead-intake/internal/config"
	"github.com/echoworks/lead-intake/internal/logger"
	"github.com/echoworks/lead-intake/internal/serverless"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", false, os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	// Nothing scrapes a Lambda function, so /metrics is not exposed.
	cfg.MetricsEnabled = false

	log := logger.New(cfg.LogLevel, false, os.Stdout)
	svc := app.New(cfg, log)

	adapter := serverless.New(svc.Echo,
		serverless.WithWaiter(svc.Recorder, cfg.Sink.Timeout),
		serverless.WithLogger(log),
	)
	lambda.Start(adapter.Handle)
}
