package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/JeanGrijp/seo-report/internal/adapters/http/middleware"
	"github.com/JeanGrijp/seo-report/internal/core/ports"
)

// RouterDeps reúne o que o roteador precisa; Metrics e MetricsHandler são opcionais.
type RouterDeps struct {
	Builder        ports.ReportBuilder
	Limiter        ports.RateLimiter
	Tracker        ports.UsageTracker
	Renderer       Renderer
	Metrics        ports.Metrics
	HTTPObserver   middleware.HTTPObserver
	MetricsHandler http.Handler
	Log            *zap.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(log, deps.HTTPObserver))
	r.MethodNotAllowed(MethodNotAllowed)
	r.NotFound(NotFound)

	reports := NewReportHandler(deps.Builder, deps.Tracker, deps.Renderer, log)

	r.Get("/", FormHandler(deps.Renderer, log))
	r.Get("/healthz", Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewRateLimiterMiddleware(deps.Limiter, deps.Metrics, log))
			r.Post("/report", reports.JSON)
			r.Post("/report/html", reports.HTML)
		})
		r.Method(http.MethodPost, "/track", NewTrackHandler(deps.Tracker, log))
	})

	return r
}
