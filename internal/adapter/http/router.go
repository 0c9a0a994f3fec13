package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/pointledger/internal/adapter/http/handler"
	"github.com/iho/pointledger/internal/adapter/http/middleware"
	"github.com/iho/pointledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	PointHandler  *handler.PointHandler
	HealthHandler *handler.HealthHandler

	// IdempotencyStore enables Idempotency-Key handling on /point mutations when set.
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	ReplayCounter    prometheus.Counter

	RateLimiter *middleware.RateLimiter

	// MetricsHandler serves /metrics; nil means promhttp.Handler().
	MetricsHandler http.Handler

	Logger zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Metrics)

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	// Operational endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/point", func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			idempotency := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			if cfg.ReplayCounter != nil {
				idempotency.WithReplayCounter(cfg.ReplayCounter)
			}
			r.Use(idempotency.Wrap)
		}

		r.Get("/{id}", cfg.PointHandler.Get)
		r.Get("/{id}/histories", cfg.PointHandler.Histories)
		r.Patch("/{id}/charge", cfg.PointHandler.Charge)
		r.Patch("/{id}/use", cfg.PointHandler.Use)
	})

	return r
}
