// Package handler is the HTTP surface of the request workflow. It delegates
// to the service without embedding business logic.
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
	"stokri/internal/request/models"
	"stokri/internal/transport/http/shared"
	"stokri/pkg/domain"
	dErrors "stokri/pkg/domain-errors"
)

// Service defines the request operations the handler exposes.
type Service interface {
	Create(ctx context.Context, assetID domain.AssetID, quantity int, purpose string) (*models.Request, error)
	Approve(ctx context.Context, requestID domain.RequestID, issueCondition, issueNotes, comments string) (*models.Request, error)
	Reject(ctx context.Context, requestID domain.RequestID, comments string) (*models.Request, error)
	Return(ctx context.Context, requestID domain.RequestID, condition models.Condition, notes string) (*models.Request, error)
	Verify(ctx context.Context, requestID domain.RequestID, condition models.Condition, notes string) (*models.Request, error)
	Update(ctx context.Context, requestID domain.RequestID, quantity int, purpose string) (*models.Request, error)
	Delete(ctx context.Context, requestID domain.RequestID) error
	Get(ctx context.Context, requestID domain.RequestID) (*models.Request, error)
	List(ctx context.Context) ([]*models.Request, error)
	ListApprovals(ctx context.Context, requestID domain.RequestID) ([]*approval.Approval, error)
}

// Handler handles request workflow endpoints.
type Handler struct {
	logger       *slog.Logger
	requests     Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a request Handler.
func New(requests Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		requests:     requests,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the request routes onto the parent router.
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
	router.Get("/{requestID}", h.handleGet)
	router.Get("/{requestID}/approvals", h.handleListApprovals)
	router.Put("/{requestID}", h.handleUpdate)
	router.Delete("/{requestID}", h.handleDelete)
	router.Post("/{requestID}/approve", h.handleApprove)
	router.Post("/{requestID}/reject", h.handleReject)
	router.Post("/{requestID}/return", h.handleReturn)
	router.Post("/{requestID}/verify", h.handleVerify)

	r.Mount("/requests", router)
}

type createRequest struct {
	AssetID  string `json:"asset_id"`
	Quantity int    `json:"quantity"`
	Purpose  string `json:"purpose"`
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

	created, err := h.requests.Create(ctx, assetID, req.Quantity, req.Purpose)
	if err != nil {
		h.logError(ctx, "create request failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requests, err := h.requests.List(r.Context())
	if err != nil {
		h.logError(r.Context(), "list requests failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, requests)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	request, err := h.requests.Get(r.Context(), requestID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) handleListApprovals(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	records, err := h.requests.ListApprovals(r.Context(), requestID)
	if err != nil {
		h.logError(r.Context(), "list request approvals failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, records)
}

type updateRequest struct {
	Quantity int    `json:"quantity"`
	Purpose  string `json:"purpose"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	updated, err := h.requests.Update(r.Context(), requestID, req.Quantity, req.Purpose)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.requests.Delete(r.Context(), requestID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type decisionRequest struct {
	IssueCondition string `json:"issue_condition"`
	IssueNotes     string `json:"issue_notes"`
	Comments       string `json:"comments"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	approved, err := h.requests.Approve(r.Context(), requestID, req.IssueCondition, req.IssueNotes, req.Comments)
	if err != nil {
		h.logError(r.Context(), "approve request failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, approved)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	rejected, err := h.requests.Reject(r.Context(), requestID, req.Comments)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, rejected)
}

type conditionRequest struct {
	Condition string `json:"condition"`
	Notes     string `json:"notes"`
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req conditionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	returned, err := h.requests.Return(r.Context(), requestID, models.Condition(req.Condition), req.Notes)
	if err != nil {
		h.logError(r.Context(), "return request failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, returned)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req conditionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	verified, err := h.requests.Verify(r.Context(), requestID, models.Condition(req.Condition), req.Notes)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, verified)
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

func requestIDFromURL(r *http.Request) (domain.RequestID, error) {
	return domain.ParseRequestID(chi.URLParam(r, "requestID"))
}
