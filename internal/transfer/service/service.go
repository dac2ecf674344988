// Package service orchestrates the transfer workflow: moving already
// allocated quantity between holders or back to shared stock. Like requests,
// every ledger-touching transition runs inside one allocation transaction.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"stokri/internal/allocation"
	"stokri/internal/approval"
	assetmodel "stokri/internal/asset/models"
	"stokri/internal/audit"
	"stokri/internal/notify"
	"stokri/internal/platform/metrics"
	"stokri/internal/transfer/models"
	"stokri/pkg/domain"
	dErrors "stokri/pkg/domain-errors"
	"stokri/pkg/platform/sentinel"
	"stokri/pkg/requestcontext"
)

// Reader is the non-transactional read surface for transfers.
type Reader interface {
	Get(ctx context.Context, transferID domain.TransferID) (*models.Transfer, error)
	List(ctx context.Context) ([]*models.Transfer, error)
	ListByParty(ctx context.Context, userID domain.UserID) ([]*models.Transfer, error)
}

// ApprovalReader lists the decision trail recorded for a transfer.
type ApprovalReader interface {
	ListByTransfer(ctx context.Context, transferID domain.TransferID) ([]*approval.Approval, error)
}

// Dispatcher receives side-effect messages after a successful commit.
type Dispatcher interface {
	Dispatch(ctx context.Context, msgs []notify.Message)
}

// AuditPublisher records workflow activity after a successful commit.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service coordinates transfer transitions against the allocation ledger.
type Service struct {
	tx        allocation.StoreTx
	reader    Reader
	approvals ApprovalReader
	dispatch  Dispatcher
	auditor   AuditPublisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	lowStock  int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithDispatcher(d Dispatcher) Option {
	return func(s *Service) { s.dispatch = d }
}

func WithAuditPublisher(a AuditPublisher) Option {
	return func(s *Service) { s.auditor = a }
}

func WithApprovalReader(r ApprovalReader) Option {
	return func(s *Service) { s.approvals = r }
}

func WithLowStockThreshold(threshold int) Option {
	return func(s *Service) { s.lowStock = threshold }
}

// New constructs a transfer Service.
func New(tx allocation.StoreTx, reader Reader, opts ...Option) *Service {
	s := &Service{tx: tx, reader: reader, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type sideEffects struct {
	msgs   []notify.Message
	events []audit.Event
}

func (s *Service) flush(ctx context.Context, fx *sideEffects) {
	if s.dispatch != nil && len(fx.msgs) > 0 {
		s.dispatch.Dispatch(ctx, fx.msgs)
	}
	if s.auditor != nil {
		for _, event := range fx.events {
			s.auditor.Emit(ctx, event)
		}
	}
}

// Create opens a transfer on an allocated asset and parks the asset as
// TRANSFER_PENDING until an admin decides. Only the current holder of record
// or someone acting as stock may initiate; no quantity moves yet. toStock
// marks the destination as shared inventory rather than an individual.
func (s *Service) Create(ctx context.Context, assetID domain.AssetID, to domain.UserID, quantity int, reason string, toStock bool) (*models.Transfer, error) {
	actor, role, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var transfer *models.Transfer
	fx := &sideEffects{}
	err = s.tx.RunInTx(ctx, assetID, func(stores allocation.Stores) error {
		asset, err := stores.Assets().Get(ctx, assetID)
		if err != nil {
			return assetErr(err)
		}
		if err := asset.CanStartTransfer(); err != nil {
			return err
		}
		if !asset.HeldBy(actor) && !role.ActsAsStock() {
			return dErrors.New(dErrors.CodeForbidden, "only the current holder or an officer may initiate a transfer")
		}
		if quantity > asset.AllocatedQuantity {
			return dErrors.Newf(dErrors.CodeInsufficientQuantity,
				"insufficient allocated quantity: allocated %d, requested %d", asset.AllocatedQuantity, quantity)
		}

		now := requestcontext.Now(ctx)
		t, err := models.NewTransfer(domain.TransferID(uuid.New()), assetID, asset.CurrentHolder, to, quantity, reason, toStock, actor, now)
		if err != nil {
			return err
		}
		asset.ApplyTransferPending(now)

		if err := stores.Transfers().Save(ctx, t); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save transfer")
		}
		if err := stores.Assets().Update(ctx, asset); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update asset")
		}

		transfer = t
		transferID := t.ID
		fx.msgs = append(fx.msgs, notify.Message{
			Recipient:  to,
			Kind:       notify.KindTransferRequested,
			Title:      "Transfer requested",
			Body:       "A transfer of " + asset.Name + " to you awaits approval.",
			AssetID:    &assetID,
			TransferID: &transferID,
		})
		fx.events = append(fx.events, audit.Event{
			Action:    audit.ActionTransferRequested,
			Actor:     actor,
			Subject:   t.ID.String(),
			RequestID: requestcontext.RequestID(ctx),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.flush(ctx, fx)
	return transfer, nil
}

// Approve executes a pending transfer in one commit: stamps the receipt,
// moves the holder of record or releases quantity back to stock, lifts the
// TRANSFER_PENDING override and appends the approval record.
func (s *Service) Approve(ctx context.Context, transferID domain.TransferID, comments string) (*models.Transfer, error) {
	actor, role, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	assetID, err := s.assetOf(ctx, transferID)
	if err != nil {
		return nil, err
	}

	var transfer *models.Transfer
	fx := &sideEffects{}
	err = s.tx.RunInTx(ctx, assetID, func(stores allocation.Stores) error {
		t, err := stores.Transfers().Get(ctx, transferID)
		if err != nil {
			return transferErr(err)
		}
		if err := t.CanApprove(actor, role); err != nil {
			return err
		}
		asset, err := stores.Assets().Get(ctx, t.AssetID)
		if err != nil {
			return assetErr(err)
		}

		now := requestcontext.Now(ctx)
		t.ApplyCompletion(now)

		if t.ToStock {
			res := allocation.Release(asset, t.TransferQuantity, s.lowStock)
			asset.AllocatedQuantity = res.Allocated
			asset.ApplyTransferResolution(now)
			if asset.AllocatedQuantity == 0 {
				asset.SetHolder(nil, now)
			}
			s.appendStockAlert(fx, asset, actor, res)
		} else {
			asset.ApplyTransferResolution(now)
			asset.SetHolder(&t.ToHolder, now)
		}

		record, err := approval.ForTransfer(domain.ApprovalID(uuid.New()), t.ID, approval.DecisionApproved, actor, comments, now)
		if err != nil {
			return err
		}
		if err := stores.Transfers().Update(ctx, t); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update transfer")
		}
		if err := stores.Assets().Update(ctx, asset); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update asset")
		}
		if err := stores.Approvals().Append(ctx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record approval")
		}

		transfer = t
		tID := t.ID
		fx.msgs = append(fx.msgs, notify.Message{
			Recipient:  t.ToHolder,
			Kind:       notify.KindTransferCompleted,
			Title:      "Transfer completed",
			Body:       "Transfer of " + asset.Name + " completed, receipt " + t.ReceiptNumber + ".",
			AssetID:    &asset.ID,
			TransferID: &tID,
		})
		fx.msgs = append(fx.msgs, notify.Message{
			Recipient:  t.InitiatedBy,
			Kind:       notify.KindTransferCompleted,
			Title:      "Transfer completed",
			Body:       "Your transfer of " + asset.Name + " completed, receipt " + t.ReceiptNumber + ".",
			AssetID:    &asset.ID,
			TransferID: &tID,
		})
		fx.events = append(fx.events, audit.Event{
			Action:    audit.ActionTransferCompleted,
			Actor:     actor,
			Subject:   t.ID.String(),
			Decision:  string(approval.DecisionApproved),
			RequestID: requestcontext.RequestID(ctx),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransfersCompleted()
	s.flush(ctx, fx)
	return transfer, nil
}

// Reject terminates a pending transfer and lifts the asset's
// TRANSFER_PENDING override. No quantity ever moved.
func (s *Service) Reject(ctx context.Context, transferID domain.TransferID, comments string) (*models.Transfer, error) {
	actor, role, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	assetID, err := s.assetOf(ctx, transferID)
	if err != nil {
		return nil, err
	}

	var transfer *models.Transfer
	fx := &sideEffects{}
	err = s.tx.RunInTx(ctx, assetID, func(stores allocation.Stores) error {
		t, err := stores.Transfers().Get(ctx, transferID)
		if err != nil {
			return transferErr(err)
		}
		if err := t.CanReject(actor, role); err != nil {
			return err
		}
		asset, err := stores.Assets().Get(ctx, t.AssetID)
		if err != nil {
			return assetErr(err)
		}

		now := requestcontext.Now(ctx)
		t.ApplyRejection(now)
		asset.ApplyTransferResolution(now)

		record, err := approval.ForTransfer(domain.ApprovalID(uuid.New()), t.ID, approval.DecisionRejected, actor, comments, now)
		if err != nil {
			return err
		}
		if err := stores.Transfers().Update(ctx, t); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update transfer")
		}
		if err := stores.Assets().Update(ctx, asset); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update asset")
		}
		if err := stores.Approvals().Append(ctx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record approval")
		}

		transfer = t
		tID := t.ID
		fx.msgs = append(fx.msgs, notify.Message{
			Recipient:  t.InitiatedBy,
			Kind:       notify.KindTransferRejected,
			Title:      "Transfer rejected",
			Body:       comments,
			TransferID: &tID,
		})
		fx.events = append(fx.events, audit.Event{
			Action:    audit.ActionTransferRejected,
			Actor:     actor,
			Subject:   t.ID.String(),
			Decision:  string(approval.DecisionRejected),
			Reason:    comments,
			RequestID: requestcontext.RequestID(ctx),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransfersRejected()
	s.flush(ctx, fx)
	return transfer, nil
}

// Delete withdraws a still-pending transfer and lifts the asset override.
func (s *Service) Delete(ctx context.Context, transferID domain.TransferID) error {
	actor, role, err := actorFromContext(ctx)
	if err != nil {
		return err
	}

	assetID, err := s.assetOf(ctx, transferID)
	if err != nil {
		return err
	}

	fx := &sideEffects{}
	err = s.tx.RunInTx(ctx, assetID, func(stores allocation.Stores) error {
		t, err := stores.Transfers().Get(ctx, transferID)
		if err != nil {
			return transferErr(err)
		}
		if err := t.CanDelete(actor, role); err != nil {
			return err
		}
		asset, err := stores.Assets().Get(ctx, t.AssetID)
		if err != nil {
			return assetErr(err)
		}

		now := requestcontext.Now(ctx)
		asset.ApplyTransferResolution(now)

		if err := stores.Transfers().Delete(ctx, transferID); err != nil {
			return transferErr(err)
		}
		if err := stores.Assets().Update(ctx, asset); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update asset")
		}

		fx.events = append(fx.events, audit.Event{
			Action:    audit.ActionTransferDeleted,
			Actor:     actor,
			Subject:   transferID.String(),
			RequestID: requestcontext.RequestID(ctx),
		})
		return nil
	})
	if err != nil {
		return err
	}

	s.flush(ctx, fx)
	return nil
}

// Get returns one transfer. Members only see transfers they are party to.
func (s *Service) Get(ctx context.Context, transferID domain.TransferID) (*models.Transfer, error) {
	actor, role, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	t, err := s.reader.Get(ctx, transferID)
	if err != nil {
		return nil, transferErr(err)
	}
	if !role.ActsAsStock() && !isParty(t, actor) {
		return nil, dErrors.New(dErrors.CodeForbidden, "not your transfer")
	}
	return t, nil
}

// List returns the transfers visible to the actor: all of them for officers
// and admins, their own for members.
func (s *Service) List(ctx context.Context) ([]*models.Transfer, error) {
	actor, role, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if role.ActsAsStock() {
		return s.reader.List(ctx)
	}
	return s.reader.ListByParty(ctx, actor)
}

// ListApprovals returns the decision trail for a transfer. Visibility follows
// Get: parties, officers and admins see it, strangers do not.
func (s *Service) ListApprovals(ctx context.Context, transferID domain.TransferID) ([]*approval.Approval, error) {
	if _, err := s.Get(ctx, transferID); err != nil {
		return nil, err
	}
	if s.approvals == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "approval reader not configured")
	}
	records, err := s.approvals.ListByTransfer(ctx, transferID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "approval lookup failed")
	}
	return records, nil
}

func isParty(t *models.Transfer, userID domain.UserID) bool {
	if t.InitiatedBy == userID || t.ToHolder == userID {
		return true
	}
	return t.FromHolder != nil && *t.FromHolder == userID
}

// assetOf resolves the contention unit for a transfer before entering its
// allocation transaction.
func (s *Service) assetOf(ctx context.Context, transferID domain.TransferID) (domain.AssetID, error) {
	t, err := s.reader.Get(ctx, transferID)
	if err != nil {
		return domain.AssetID{}, transferErr(err)
	}
	return t.AssetID, nil
}

func (s *Service) appendStockAlert(fx *sideEffects, asset *assetmodel.Asset, officer domain.UserID, res allocation.LedgerResult) {
	if !res.LowStock {
		return
	}
	s.metrics.IncStockAlerts()
	assetID := asset.ID
	body := "Stock of " + asset.Name + " is running low."
	if res.Exhausted {
		body = "Stock of " + asset.Name + " is exhausted."
	}
	fx.msgs = append(fx.msgs, notify.Message{
		Recipient: officer,
		Kind:      notify.KindStockLow,
		Title:     "Low stock",
		Body:      body,
		AssetID:   &assetID,
	})
	fx.events = append(fx.events, audit.Event{
		Action:  audit.ActionStockLow,
		Subject: asset.ID.String(),
	})
}

// actorFromContext pulls the authenticated identity off the request context.
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

func transferErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "transfer not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "transfer was modified concurrently")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "transfer lookup failed")
	}
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
