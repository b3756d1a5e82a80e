package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"dashboard-service/internal/dashboard/handler"
	"dashboard-service/internal/platform/config"
	platformmetrics "dashboard-service/internal/platform/metrics"
	"dashboard-service/internal/platform/middleware"
	dErrors "dashboard-service/pkg/domain-errors"
	"dashboard-service/pkg/platform/httputil"
)

// newRouter wires all public endpoints. Handlers delegate to the dashboard
// service without embedding business logic.
func newRouter(log *slog.Logger, dashboard handler.Service, ready func(context.Context) error, reg *prometheus.Registry, cfg config.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestContext)
	r.Use(middleware.Logger(log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteSuccess(w, http.StatusOK, "ok", nil)
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if err := ready(req.Context()); err != nil {
			log.WarnContext(req.Context(), "readiness check failed", "error", err)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeStorage, "backend unavailable"))
			return
		}
		httputil.WriteSuccess(w, http.StatusOK, "ready", nil)
	})
	r.Handle("/metrics", platformmetrics.Handler(reg))

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
		handler.New(dashboard, log).Register(r)
	})
	return r
}
