// Package app assembles the lead intake service from configuration.
package app

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/echoworks/lead-intake/internal/config"
	"github.com/echoworks/lead-intake/internal/handler"
	"github.com/echoworks/lead-intake/internal/metrics"
	"github.com/echoworks/lead-intake/internal/router"
	"github.com/echoworks/lead-intake/internal/service"
	"github.com/echoworks/lead-intake/internal/sink"
)

// App is the wired service.
type App struct {
	Echo     *echo.Echo
	Recorder *sink.BestEffort
	Registry *prometheus.Registry
	Metrics  *metrics.LeadMetrics
}

// Option adjusts how the App is assembled.
type Option func(*options)

type options struct {
	recorders      []sink.Recorder
	runtimeMetrics bool
}

// WithRecorders adds destinations next to the log recorder.
func WithRecorders(recorders ...sink.Recorder) Option {
	return func(o *options) {
		o.recorders = append(o.recorders, recorders...)
	}
}

// WithRuntimeMetrics registers Go runtime and process collectors.
func WithRuntimeMetrics() Option {
	return func(o *options) {
		o.runtimeMetrics = true
	}
}

// New wires config, sinks, metrics, service, handlers and router.
// Callers own the returned Recorder and must Close it on shutdown.
func New(cfg *config.Config, log zerolog.Logger, opts ...Option) *App {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	reg := prometheus.NewRegistry()
	if o.runtimeMetrics {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	leadMetrics := metrics.NewLeadMetrics(reg)

	recorders := sink.Multi{sink.NewLogRecorder(log)}
	if cfg.Notify.Enabled() {
		recorders = append(recorders, sink.NewResendRecorder(cfg.Notify.ResendAPIKey, cfg.Notify.From, cfg.Notify.To))
		log.Info().Strs("to", cfg.Notify.To).Msg("lead email notifications enabled")
	}
	recorders = append(recorders, o.recorders...)

	recorder := sink.NewBestEffort(recorders,
		sink.WithRecordTimeout(cfg.Sink.Timeout),
		sink.WithErrorBuffer(cfg.Sink.ErrorBuffer),
		sink.WithMetrics(leadMetrics),
	)
	go sink.LogErrors(context.Background(), recorder.Errors(), log)

	leadService := service.NewLeadService(recorder, service.WithLeadMetrics(leadMetrics))
	e := router.New(cfg, router.Options{
		Logger:   log,
		Metrics:  leadMetrics,
		Gatherer: reg,
	}, router.Handlers{
		Leads: handler.NewLeadHandler(leadService),
	})

	return &App{
		Echo:     e,
		Recorder: recorder,
		Registry: reg,
		Metrics:  leadMetrics,
	}
}
