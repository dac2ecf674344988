// Package service manages the asset catalog: creation, capacity edits and
// lifecycle overrides. Mutations run inside the allocation transaction so
// overrides never race a reservation on the same asset.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stokri/internal/allocation"
	"stokri/internal/asset/models"
	"stokri/internal/audit"
	"stokri/pkg/domain"
	dErrors "stokri/pkg/domain-errors"
	"stokri/pkg/platform/sentinel"
	"stokri/pkg/requestcontext"
)

// Reader is the non-transactional read surface for the catalog.
type Reader interface {
	Get(ctx context.Context, assetID domain.AssetID) (*models.Asset, error)
	List(ctx context.Context) ([]*models.Asset, error)
}

// AuditPublisher records catalog activity after a successful commit.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service manages catalog entries and lifecycle overrides.
type Service struct {
	tx      allocation.StoreTx
	reader  Reader
	auditor AuditPublisher
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(a AuditPublisher) Option {
	return func(s *Service) { s.auditor = a }
}

// New constructs an asset Service.
func New(tx allocation.StoreTx, reader Reader, opts ...Option) *Service {
	s := &Service{tx: tx, reader: reader, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) emit(ctx context.Context, action audit.Action, actor domain.UserID, subject string) {
	if s.auditor == nil {
		return
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:    action,
		Actor:     actor,
		Subject:   subject,
		RequestID: requestcontext.RequestID(ctx),
	})
}

// Create adds a catalog entry. Officer only.
func (s *Service) Create(ctx context.Context, name string, category models.Category, kind models.Kind, total int) (*models.Asset, error) {
	actor, role, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !role.ActsAsStock() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only an officer may manage assets")
	}

	assetID := domain.AssetID(uuid.New())
	var asset *models.Asset
	err = s.tx.RunInTx(ctx, assetID, func(stores allocation.Stores) error {
		a, err := models.NewAsset(assetID, name, category, kind, total, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		if err := stores.Assets().Save(ctx, a); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save asset")
		}
		asset = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.ActionAssetCreated, actor, asset.ID.String())
	return asset, nil
}

// UpdateCapacity changes the total quantity of a quantified asset. The new
// total can never undercut what is already allocated.
func (s *Service) UpdateCapacity(ctx context.Context, assetID domain.AssetID, total int) (*models.Asset, error) {
	_, role, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !role.ActsAsStock() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only an officer may manage assets")
	}

	var asset *models.Asset
	err = s.tx.RunInTx(ctx, assetID, func(stores allocation.Stores) error {
		a, err := stores.Assets().Get(ctx, assetID)
		if err != nil {
			return assetErr(err)
		}
		if a.Kind != models.KindQuantified {
			return dErrors.New(dErrors.CodeInvalidState, "unit assets have a fixed capacity of 1")
		}
		if total < a.AllocatedQuantity {
			return dErrors.Newf(dErrors.CodeValidation,
				"total %d undercuts allocated quantity %d", total, a.AllocatedQuantity)
		}
		if total < 1 {
			return dErrors.New(dErrors.CodeValidation, "quantified asset needs a total of at least 1")
		}

		now := requestcontext.Now(ctx)
		a.TotalQuantity = total
		if !a.Status.Overridden() {
			a.Status = a.DerivedStatus()
		}
		a.UpdatedAt = now

		if err := stores.Assets().Update(ctx, a); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update asset")
		}
		asset = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// SetMaintenance places a maintenance override on the asset.
func (s *Service) SetMaintenance(ctx context.Context, assetID domain.AssetID) (*models.Asset, error) {
	return s.override(ctx, assetID, audit.ActionAssetMaintenance,
		(*models.Asset).CanSetMaintenance, (*models.Asset).ApplyMaintenance)
}

// Retire places a retirement override on the asset.
func (s *Service) Retire(ctx context.Context, assetID domain.AssetID) (*models.Asset, error) {
	return s.override(ctx, assetID, audit.ActionAssetRetired,
		(*models.Asset).CanRetire, (*models.Asset).ApplyRetirement)
}

// Reinstate lifts a maintenance or retirement override, restoring the
// ledger-derived status.
func (s *Service) Reinstate(ctx context.Context, assetID domain.AssetID) (*models.Asset, error) {
	return s.override(ctx, assetID, "",
		(*models.Asset).CanReinstate, (*models.Asset).ApplyReinstatement)
}

func (s *Service) override(ctx context.Context, assetID domain.AssetID, action audit.Action, check func(*models.Asset) error, apply func(*models.Asset, time.Time)) (*models.Asset, error) {
	actor, role, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !role.ActsAsStock() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only an officer may manage assets")
	}

	var asset *models.Asset
	err = s.tx.RunInTx(ctx, assetID, func(stores allocation.Stores) error {
		a, err := stores.Assets().Get(ctx, assetID)
		if err != nil {
			return assetErr(err)
		}
		if err := check(a); err != nil {
			return err
		}
		apply(a, requestcontext.Now(ctx))
		if err := stores.Assets().Update(ctx, a); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update asset")
		}
		asset = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	if action != "" {
		s.emit(ctx, action, actor, asset.ID.String())
	}
	return asset, nil
}

// Get returns one catalog entry. Visible to every authenticated role.
func (s *Service) Get(ctx context.Context, assetID domain.AssetID) (*models.Asset, error) {
	if _, _, err := actorFromContext(ctx); err != nil {
		return nil, err
	}
	asset, err := s.reader.Get(ctx, assetID)
	if err != nil {
		return nil, assetErr(err)
	}
	return asset, nil
}

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) ([]*models.Asset, error) {
	if _, _, err := actorFromContext(ctx); err != nil {
		return nil, err
	}
	return s.reader.List(ctx)
}

func actorFromContext(ctx context.Context) (domain.UserID, domain.Role, error) {
	actor := requestcontext.ActorID(ctx)
	if actor.IsZero() {
		return domain.UserID{}, "", dErrors.New(dErrors.CodeUnauthorized, "no authenticated actor")
	}
	role := requestcontext.Role(ctx)
	if !role.Valid() {
		return domain.UserID{}, "", dErrors.New(dErrors.CodeUnauthorized, "no valid role")
	}
	return actor, role, nil
}

func assetErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "asset not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "asset was modified concurrently")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "asset lookup failed")
	}
}
