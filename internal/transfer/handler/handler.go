// Package handler is the HTTP surface of the transfer workflow.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"stokri/internal/approval"
	"stokri/internal/platform/metrics"
	"stokri/internal/platform/middleware"
	"stokri/internal/transfer/models"
	"stokri/internal/transport/http/shared"
	"stokri/pkg/domain"
	dErrors "stokri/pkg/domain-errors"
)

// Service defines the transfer operations the handler exposes.
type Service interface {
	Create(ctx context.Context, assetID domain.AssetID, to domain.UserID, quantity int, reason string, toStock bool) (*models.Transfer, error)
	Approve(ctx context.Context, transferID domain.TransferID, comments string) (*models.Transfer, error)
	Reject(ctx context.Context, transferID domain.TransferID, comments string) (*models.Transfer, error)
	Delete(ctx context.Context, transferID domain.TransferID) error
	Get(ctx context.Context, transferID domain.TransferID) (*models.Transfer, error)
	List(ctx context.Context) ([]*models.Transfer, error)
	ListApprovals(ctx context.Context, transferID domain.TransferID) ([]*approval.Approval, error)
}

// Handler handles transfer workflow endpoints.
type Handler struct {
	logger       *slog.Logger
	transfers    Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a transfer Handler.
func New(transfers Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		transfers:    transfers,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the transfer routes onto the parent router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.LatencyMiddleware(h.metrics))
	router.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	router.Post("/", h.handleCreate)
	router.Get("/", h.handleList)
	router.Get("/{transferID}", h.handleGet)
	router.Get("/{transferID}/approvals", h.handleListApprovals)
	router.Delete("/{transferID}", h.handleDelete)
	router.Post("/{transferID}/approve", h.handleApprove)
	router.Post("/{transferID}/reject", h.handleReject)

	r.Mount("/transfers", router)
}

type createRequest struct {
	AssetID  string `json:"asset_id"`
	ToHolder string `json:"to_holder"`
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
	ToStock  bool   `json:"to_stock"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	assetID, err := domain.ParseAssetID(req.AssetID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	to, err := domain.ParseUserID(req.ToHolder)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	created, err := h.transfers.Create(ctx, assetID, to, req.Quantity, req.Reason, req.ToStock)
	if err != nil {
		h.logError(ctx, "create transfer failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	transfers, err := h.transfers.List(r.Context())
	if err != nil {
		h.logError(r.Context(), "list transfers failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, transfers)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	transferID, err := transferIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	transfer, err := h.transfers.Get(r.Context(), transferID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, transfer)
}

func (h *Handler) handleListApprovals(w http.ResponseWriter, r *http.Request) {
	transferID, err := transferIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	records, err := h.transfers.ListApprovals(r.Context(), transferID)
	if err != nil {
		h.logError(r.Context(), "list transfer approvals failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	transferID, err := transferIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.transfers.Delete(r.Context(), transferID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type decisionRequest struct {
	Comments string `json:"comments"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	transferID, err := transferIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	approved, err := h.transfers.Approve(r.Context(), transferID, req.Comments)
	if err != nil {
		h.logError(r.Context(), "approve transfer failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, approved)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	transferID, err := transferIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	rejected, err := h.transfers.Reject(r.Context(), transferID, req.Comments)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, rejected)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		return
	}
	h.logger.WarnContext(ctx, msg,
		"error", err.Error(),
		"request_id", middleware.GetRequestID(ctx),
	)
}

func transferIDFromURL(r *http.Request) (domain.TransferID, error) {
	return domain.ParseTransferID(chi.URLParam(r, "transferID"))
}
