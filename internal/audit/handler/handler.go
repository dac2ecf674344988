// Package handler exposes the recent activity trail to officers.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"stokri/internal/audit"
	"stokri/internal/platform/metrics"
	"stokri/internal/platform/middleware"
	"stokri/internal/transport/http/shared"
	dErrors "stokri/pkg/domain-errors"
	"stokri/pkg/requestcontext"
)

const defaultLimit = 100

// Handler handles audit trail endpoints.
type Handler struct {
	logger       *slog.Logger
	store        audit.Store
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates an audit Handler.
func New(store audit.Store, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		store:        store,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the audit routes onto the parent router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(10 * time.Second))
	router.Use(middleware.LatencyMiddleware(h.metrics))
	router.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	router.Get("/", h.handleList)

	r.Mount("/audit", router)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role := requestcontext.Role(ctx)
	if !role.ActsAsStock() {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "only an officer may read the audit trail"))
		return
	}

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	events, err := h.store.ListRecent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list audit events failed",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, events)
}
