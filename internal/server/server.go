package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldserve/jobtrack-backend/internal/api"
	"github.com/fieldserve/jobtrack-backend/internal/core"
	"github.com/fieldserve/jobtrack-backend/internal/metrics"
)

// NewRouter creates and configures the HTTP router with all routes.
func NewRouter(svc core.Service, logger *slog.Logger, cfg Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)
	r.Use(api.RequestID)
	r.Use(api.RequestLogger(logger))
	r.Use(api.ValidateContentType)

	// Optional API key authentication
	if cfg.APIKey != "" {
		r.Use(api.KeyAuth(cfg.APIKey, "/metrics", "/v1/healthz"))
	}
	r.Use(api.ResolveActor(svc, "/metrics", "/v1/healthz"))

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Create handlers
	jobHandler := api.NewJobHandler(svc)
	userHandler := api.NewUserHandler(svc)
	systemHandler := api.NewSystemHandler(svc)

	// System endpoints
	r.Get("/v1/healthz", systemHandler.Health)
	r.Get("/v1/state-machine", systemHandler.StateMachine)

	// Job endpoints
	r.Post("/v1/jobs", jobHandler.Create)
	r.Get("/v1/jobs", jobHandler.List)
	r.Get("/v1/jobs/{id}", jobHandler.Get)
	r.Patch("/v1/jobs/{id}", jobHandler.Update)
	r.Post("/v1/jobs/{id}/transitions", jobHandler.Transition)
	r.Post("/v1/jobs/{id}/assignee", jobHandler.Assign)
	r.Put("/v1/jobs/{id}/assignee", jobHandler.Reassign)
	r.Get("/v1/jobs/{id}/history", jobHandler.History)

	// User endpoints
	r.Post("/v1/users", userHandler.Create)
	r.Get("/v1/users/{id}", userHandler.Get)

	return r
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		duration := time.Since(start).Seconds()
		path := metricRoutePattern(r)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, fmt.Sprintf("%d", ww.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path, fmt.Sprintf("%d", ww.Status())).Observe(duration)
	})
}

func metricRoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
