package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/studyplan/internal/metrics"
)

// RouterConfig holds the middleware settings.
type RouterConfig struct {
	APIKeys    []string
	RateLimit  *RateLimiter // nil = unlimited
	TrustProxy bool         // take the client IP from X-Forwarded-For / X-Real-IP
}

// NewRouter mounts the handlers behind the middleware chain.
func NewRouter(s *Server, cfg RouterConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	if cfg.TrustProxy {
		r.Use(chiMiddleware.RealIP)
	}
	r.Use(wideEventMiddleware(logger))
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	r.Use(metrics.Middleware())

	r.Get("/", s.Index)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Group(func(r chi.Router) {
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit.Middleware())
		}
		r.Post("/api/chat", s.Chat)
		r.Delete("/api/sessions/{id}", s.ResetSession)
		r.Get("/api/usage", s.GetUsage)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}
