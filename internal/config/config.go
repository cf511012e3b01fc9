package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/bytes"
)

// NotifyConfig holds the optional email notification settings.
type NotifyConfig struct {
	ResendAPIKey string
	From         string   `validate:"omitempty,email"`
	To           []string `validate:"omitempty,dive,email"`
}

// Enabled reports whether notification emails should be sent.
func (n NotifyConfig) Enabled() bool {
	return n.ResendAPIKey != "" && len(n.To) > 0
}

// SinkConfig tunes the background recording of leads.
type SinkConfig struct {
	Timeout     time.Duration `validate:"gt=0"`
	ErrorBuffer int           `validate:"min=1"`
}

// Config aggregates application-wide configuration values.
type Config struct {
	Env                string   `validate:"required"`
	Port               string   `validate:"required,numeric"`
	LogLevel           string   `validate:"required,oneof=trace debug info warn error fatal panic disabled"`
	CORSAllowedOrigins []string `validate:"min=1"`
	MaxBodySize        string   `validate:"required"`
	MetricsEnabled     bool
	Sink               SinkConfig
	Notify             NotifyConfig
}

// IsDevelopment reports whether the service runs locally.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Env:                strings.ToLower(getEnv("APP_ENV", "production")),
		Port:               getEnv("PORT", "8080"),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		MaxBodySize:        strings.ToUpper(getEnv("LEAD_MAX_BODY", "64K")),
		Notify: NotifyConfig{
			ResendAPIKey: os.Getenv("RESEND_API_KEY"),
			From:         getEnv("LEAD_NOTIFY_FROM", "leads@echoworks.ai"),
			To:           splitList(os.Getenv("LEAD_NOTIFY_TO")),
		},
	}

	var err error
	if cfg.MetricsEnabled, err = parseBool(getEnv("METRICS_ENABLED", "true")); err != nil {
		return nil, fmt.Errorf("invalid METRICS_ENABLED value: %w", err)
	}
	if cfg.Sink.Timeout, err = time.ParseDuration(getEnv("SINK_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("invalid SINK_TIMEOUT value: %w", err)
	}
	if cfg.Sink.ErrorBuffer, err = strconv.Atoi(getEnv("SINK_BUFFER", "16")); err != nil {
		return nil, fmt.Errorf("invalid SINK_BUFFER value: %w", err)
	}
	if _, err := bytes.Parse(cfg.MaxBodySize); err != nil {
		return nil, fmt.Errorf("invalid LEAD_MAX_BODY value: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true, nil
	case "0", "f", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("expected a boolean, got %q", value)
	}
}
