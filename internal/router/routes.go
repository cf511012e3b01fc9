package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/echoworks/lead-intake/internal/config"
	"github.com/echoworks/lead-intake/internal/handler"
	"github.com/echoworks/lead-intake/internal/metrics"
	middlewarepkg "github.com/echoworks/lead-intake/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Leads *handler.LeadHandler
}

// Options carries the cross-cutting collaborators shared by every route.
type Options struct {
	Logger   zerolog.Logger
	Metrics  *metrics.LeadMetrics
	Gatherer prometheus.Gatherer
}

// New builds the echo instance with the middleware chain and all routes.
func New(cfg *config.Config, opts Options, handlers Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(opts.Logger))
	if cfg.MetricsEnabled {
		// Outside Recover so panics are observed as 500s.
		e.Use(middlewarepkg.Metrics(opts.Metrics))
	}
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderXRequestID},
	}))

	Register(e, cfg, opts, handlers)
	return e
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, opts Options, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy")
	})

	if cfg.MetricsEnabled && opts.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	e.POST("/api/lead", handlers.Leads.Submit, echoMiddleware.BodyLimit(cfg.MaxBodySize))
	e.GET("/api/lead", handlers.Leads.Status)
}
