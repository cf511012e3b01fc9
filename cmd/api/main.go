package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/echoworks/lead-intake/internal/app"
	"github.com/echoworks/lead-intake/internal/config"
	"github.com/echoworks/lead-intake/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", false, os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg.LogLevel, cfg.IsDevelopment(), os.Stdout)
	svc := app.New(cfg, log, app.WithRuntimeMetrics())

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("lead intake listening")
		serverErr <- svc.Echo.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second+cfg.Sink.Timeout)
	defer shutdownCancel()

	if err := svc.Echo.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := svc.Recorder.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("pending lead records were not flushed")
	}
}
