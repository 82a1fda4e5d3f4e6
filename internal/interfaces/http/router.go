// Package http assembles the quiz REST API: chi routes, middleware and the
// server lifecycle.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/BodyMap-Insight/internal/interfaces/http/handlers"
	"github.com/turtacn/BodyMap-Insight/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree. Nil handlers leave their routes unregistered.
type RouterConfig struct {
	// Handlers
	QuizHandler   *handlers.QuizHandler
	HealthHandler *handlers.HealthHandler

	// Middleware
	CORS    *middleware.CORSConfig
	Logging middleware.LoggingConfig

	// Infrastructure
	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string
}

// NewRouter constructs the complete HTTP route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// --- Global middleware (applied to every request) ---
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Logging))
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestMetrics(cfg.Metrics))
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}

	// --- Probes ---
	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/healthz/detail", cfg.HealthHandler.Detailed)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}

	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsCollector.Handler())
	}

	// --- API v1 ---
	r.Route("/api/v1", func(api chi.Router) {
		registerLayoutRoutes(api, cfg.QuizHandler)
		registerSessionRoutes(api, cfg.QuizHandler)
	})

	return r
}

// registerLayoutRoutes mounts the stateless layout and vocabulary endpoints.
func registerLayoutRoutes(r chi.Router, h *handlers.QuizHandler) {
	if h == nil {
		return
	}
	r.Get("/layouts", h.ListLayouts)
	r.Get("/layouts/{layoutID}/classify", h.Classify)
	r.Get("/vocabulary", h.Vocabulary)
}

// registerSessionRoutes mounts session endpoints under /sessions.
func registerSessionRoutes(r chi.Router, h *handlers.QuizHandler) {
	if h == nil {
		return
	}
	r.Route("/sessions", func(sr chi.Router) {
		sr.Post("/", h.CreateSession)

		sr.Route("/{sessionID}", func(item chi.Router) {
			item.Get("/", h.GetSession)
			item.Delete("/", h.DeleteSession)

			// Markers
			item.Post("/markers", h.PlaceMarker)
			item.Delete("/markers", h.ClearMarkers)
			item.Delete("/markers/{markerID}", h.RemoveMarker)
			item.Put("/markers/{markerID}/region", h.OverrideRegion)
			item.Post("/markers/{markerID}/options/{optionID}/toggle", h.ToggleOption)
			item.Put("/active", h.SetActive)
			item.Get("/themes", h.Themes)

			// Single form
			item.Put("/form", h.UpdateForm)
			item.Post("/form/analyze", h.AnalyzeForm)

			// Results
			item.Post("/analyze", h.Analyze)
			item.Get("/snapshot", h.Snapshot)
			item.Get("/continue", h.Continue)
			item.Get("/insight.html", h.InsightHTML)
			item.Get("/diagram.svg", h.Diagram)
		})
	})
}
