package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/keybind/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts h's endpoints. metrics may be nil.
func NewRouter(h *Handler, metrics http.Handler, log logging.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/authenticate", h.Authenticate)
		r.Post("/generate_license", h.GenerateLicense)
		r.Post("/revoke_license", h.RevokeLicense)
		r.Post("/unbind_license", h.UnbindLicense)
		r.Post("/admin/login", h.AdminLogin)
		r.Get("/license", h.CheckLicense)
		r.Get("/attempts", h.ListAttempts)
	})

	r.Post("/", h.Dispatch)
	r.Get("/", h.CheckLicense)

	return r
}

func requestLogger(log logging.Logger) func(http.Handler) http.Handler {
	log = log.With("module", "http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.Debug(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
