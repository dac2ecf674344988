// Package httptransport assembles the service's HTTP surface from the
// per-feature handlers.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registrar is a feature handler able to mount its routes.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter mounts every feature handler plus the operational endpoints.
func NewRouter(handlers ...Registrar) http.Handler {
	router := chi.NewRouter()

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(router)
	}
	return router
}
