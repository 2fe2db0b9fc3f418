package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gstroy/search-service/pkg/health"
	"github.com/gstroy/search-service/pkg/middleware"
)

// suggestCacheSeconds is how long edge caches may hold suggest responses.
const suggestCacheSeconds = 60

// NewRouter creates a chi router with all search service routes registered.
func NewRouter(
	products *ProductHandler,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("search"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.List)
			r.Get("/filters", products.Filters)
			r.Get("/{id}", products.Get)
		})

		r.Route("/search", func(r chi.Router) {
			r.With(middleware.CacheControl(suggestCacheSeconds)).Get("/suggest", products.Suggest)
			r.Post("/reindex", products.Reindex)
		})
	})

	return r
}
