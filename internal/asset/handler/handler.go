// Package handler is the HTTP surface of the asset catalog.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"stokri/internal/asset/models"
	"stokri/internal/platform/metrics"
	"stokri/internal/platform/middleware"
	"stokri/internal/transport/http/shared"
	"stokri/pkg/domain"
	dErrors "stokri/pkg/domain-errors"
)

// Service defines the catalog operations the handler exposes.
type Service interface {
	Create(ctx context.Context, name string, category models.Category, kind models.Kind, total int) (*models.Asset, error)
	UpdateCapacity(ctx context.Context, assetID domain.AssetID, total int) (*models.Asset, error)
	SetMaintenance(ctx context.Context, assetID domain.AssetID) (*models.Asset, error)
	Retire(ctx context.Context, assetID domain.AssetID) (*models.Asset, error)
	Reinstate(ctx context.Context, assetID domain.AssetID) (*models.Asset, error)
	Get(ctx context.Context, assetID domain.AssetID) (*models.Asset, error)
	List(ctx context.Context) ([]*models.Asset, error)
}

// Handler handles asset catalog endpoints.
type Handler struct {
	logger       *slog.Logger
	assets       Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates an asset Handler.
func New(assets Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		assets:       assets,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the asset routes onto the parent router.
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
	router.Get("/{assetID}", h.handleGet)
	router.Put("/{assetID}/capacity", h.handleUpdateCapacity)
	router.Post("/{assetID}/maintenance", h.handleSetMaintenance)
	router.Post("/{assetID}/retire", h.handleRetire)
	router.Post("/{assetID}/reinstate", h.handleReinstate)

	r.Mount("/assets", router)
}

type createRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Kind     string `json:"kind"`
	Total    int    `json:"total"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.assets.Create(ctx, req.Name, models.Category(req.Category), models.Kind(req.Kind), req.Total)
	if err != nil {
		h.logError(ctx, "create asset failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	assets, err := h.assets.List(r.Context())
	if err != nil {
		h.logError(r.Context(), "list assets failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, assets)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	assetID, err := assetIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	asset, err := h.assets.Get(r.Context(), assetID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, asset)
}

type capacityRequest struct {
	Total int `json:"total"`
}

func (h *Handler) handleUpdateCapacity(w http.ResponseWriter, r *http.Request) {
	assetID, err := assetIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req capacityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	updated, err := h.assets.UpdateCapacity(r.Context(), assetID, req.Total)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleSetMaintenance(w http.ResponseWriter, r *http.Request) {
	h.override(w, r, h.assets.SetMaintenance)
}

func (h *Handler) handleRetire(w http.ResponseWriter, r *http.Request) {
	h.override(w, r, h.assets.Retire)
}

func (h *Handler) handleReinstate(w http.ResponseWriter, r *http.Request) {
	h.override(w, r, h.assets.Reinstate)
}

func (h *Handler) override(w http.ResponseWriter, r *http.Request, op func(context.Context, domain.AssetID) (*models.Asset, error)) {
	assetID, err := assetIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	asset, err := op(r.Context(), assetID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, asset)
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

func assetIDFromURL(r *http.Request) (domain.AssetID, error) {
	return domain.ParseAssetID(chi.URLParam(r, "assetID"))
}
