// Package handler exposes the per-user notification feed.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"stokri/internal/notify"
	"stokri/internal/platform/metrics"
	"stokri/internal/platform/middleware"
	"stokri/internal/transport/http/shared"
	"stokri/pkg/domain"
	dErrors "stokri/pkg/domain-errors"
	"stokri/pkg/platform/sentinel"
	"stokri/pkg/requestcontext"
)

// Handler handles notification endpoints.
type Handler struct {
	logger       *slog.Logger
	store        notify.Store
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a notification Handler.
func New(store notify.Store, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		store:        store,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the notification routes onto the parent router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(10 * time.Second))
	router.Use(middleware.LatencyMiddleware(h.metrics))
	router.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	router.Get("/", h.handleList)
	router.Post("/{notificationID}/read", h.handleMarkRead)

	r.Mount("/notifications", router)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.ActorID(ctx)
	if actor.IsZero() {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "no authenticated actor"))
		return
	}
	notifications, err := h.store.ListByRecipient(ctx, actor)
	if err != nil {
		h.logger.ErrorContext(ctx, "list notifications failed",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, notifications)
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.ActorID(ctx)
	if actor.IsZero() {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "no authenticated actor"))
		return
	}
	raw, err := uuid.Parse(chi.URLParam(r, "notificationID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid notification id"))
		return
	}
	if err := h.store.MarkRead(ctx, domain.NotificationID(raw), actor); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "notification not found"))
			return
		}
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark notification read"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
