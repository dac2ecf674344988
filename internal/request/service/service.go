// Package service orchestrates the borrow-request workflow. Every transition
// that touches the quantity ledger runs inside one allocation transaction;
// notifications and audit events are collected during the transaction and
// dispatched only after it commits.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stokri/internal/allocation"
	"stokri/internal/approval"
	assetmodel "stokri/internal/asset/models"
	"stokri/internal/audit"
	"stokri/internal/notify"
	"stokri/internal/platform/metrics"
	"stokri/internal/request/models"
	"stokri/pkg/domain"
	dErrors "stokri/pkg/domain-errors"
	"stokri/pkg/platform/sentinel"
	"stokri/pkg/requestcontext"
)

// Reader is the non-transactional read surface for requests.
type Reader interface {
	Get(ctx context.Context, requestID domain.RequestID) (*models.Request, error)
	List(ctx context.Context) ([]*models.Request, error)
	ListByRequester(ctx context.Context, requester domain.UserID) ([]*models.Request, error)
}

// ApprovalReader lists the decision trail recorded for a request.
type ApprovalReader interface {
	ListByRequest(ctx context.Context, requestID domain.RequestID) ([]*approval.Approval, error)
}

// Dispatcher receives side-effect messages after a successful commit.
type Dispatcher interface {
	Dispatch(ctx context.Context, msgs []notify.Message)
}

// AuditPublisher records workflow activity after a successful commit.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service coordinates request transitions against the allocation ledger.
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

// WithLowStockThreshold sets the availability level at or below which a stock
// alert is emitted on ledger changes.
func WithLowStockThreshold(threshold int) Option {
	return func(s *Service) { s.lowStock = threshold }
}

// New constructs a request Service.
func New(tx allocation.StoreTx, reader Reader, opts ...Option) *Service {
	s := &Service{tx: tx, reader: reader, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// sideEffects accumulates post-commit work inside a transaction closure.
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

// Create submits a request. Availability is checked here only as an advisory
// courtesy; the authoritative check happens at approval time inside the
// reserving transaction.
func (s *Service) Create(ctx context.Context, assetID domain.AssetID, quantity int, purpose string) (*models.Request, error) {
	actor, _, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var request *models.Request
	fx := &sideEffects{}
	err = s.tx.RunInTx(ctx, assetID, func(stores allocation.Stores) error {
		asset, err := stores.Assets().Get(ctx, assetID)
		if err != nil {
			return assetErr(err)
		}
		if err := asset.CanAllocate(); err != nil {
			return err
		}
		if available := asset.Available(); available < quantity {
			return dErrors.Newf(dErrors.CodeInsufficientQuantity,
				"insufficient quantity: available %d, requested %d", available, quantity)
		}

		now := requestcontext.Now(ctx)
		r, err := models.NewRequest(domain.RequestID(uuid.New()), assetID, actor, quantity, purpose, now)
		if err != nil {
			return err
		}
		if err := stores.Requests().Save(ctx, r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save request")
		}

		request = r
		fx.events = append(fx.events, audit.Event{
			Action:    audit.ActionRequestSubmitted,
			Actor:     actor,
			Subject:   r.ID.String(),
			RequestID: requestcontext.RequestID(ctx),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.flush(ctx, fx)
	return request, nil
}

// Approve fulfils a pending request: the quantity reservation, the status
// flip and the approval record commit atomically. Two racing approvals on
// the same asset serialize here; the loser sees the winner's reservation and
// fails with the available-versus-requested numbers.
func (s *Service) Approve(ctx context.Context, requestID domain.RequestID, issueCondition, issueNotes, comments string) (*models.Request, error) {
	actor, role, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !role.CanApproveRequests() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only an officer may approve requests")
	}

	assetID, err := s.assetOf(ctx, requestID)
	if err != nil {
		return nil, err
	}

	var request *models.Request
	fx := &sideEffects{}
	err = s.tx.RunInTx(ctx, assetID, func(stores allocation.Stores) error {
		r, err := stores.Requests().Get(ctx, requestID)
		if err != nil {
			return requestErr(err)
		}
		if err := r.CanApprove(); err != nil {
			return err
		}
		asset, err := stores.Assets().Get(ctx, r.AssetID)
		if err != nil {
			return assetErr(err)
		}
		if err := asset.CanAllocate(); err != nil {
			return err
		}
		res, err := allocation.Reserve(asset, r.RequestedQuantity, s.lowStock)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeInsufficientQuantity) {
				s.metrics.IncInsufficientQuantity()
			}
			return err
		}

		now := requestcontext.Now(ctx)
		r.ApplyApproval(issueCondition, issueNotes, now)
		res.Apply(asset, now)
		asset.SetHolder(&r.Requester, now)

		record, err := approval.ForRequest(domain.ApprovalID(uuid.New()), r.ID, approval.DecisionApproved, actor, comments, now)
		if err != nil {
			return err
		}
		if err := stores.Requests().Update(ctx, r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update request")
		}
		if err := stores.Assets().Update(ctx, asset); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update asset")
		}
		if err := stores.Approvals().Append(ctx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record approval")
		}

		request = r
		requestID := r.ID
		fx.msgs = append(fx.msgs, notify.Message{
			Recipient: r.Requester,
			Kind:      notify.KindRequestApproved,
			Title:     "Request approved",
			Body:      "Your request for " + asset.Name + " was approved and issued.",
			AssetID:   &asset.ID,
			RequestID: &requestID,
		})
		fx.events = append(fx.events, audit.Event{
			Action:    audit.ActionRequestApproved,
			Actor:     actor,
			Subject:   r.ID.String(),
			Decision:  string(approval.DecisionApproved),
			RequestID: requestcontext.RequestID(ctx),
		})
		s.appendStockAlert(fx, asset, actor, res)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncRequestsApproved()
	s.flush(ctx, fx)
	return request, nil
}

// Reject terminates a pending request. No ledger change.
func (s *Service) Reject(ctx context.Context, requestID domain.RequestID, comments string) (*models.Request, error) {
	actor, role, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !role.CanApproveRequests() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only an officer may reject requests")
	}

	assetID, err := s.assetOf(ctx, requestID)
	if err != nil {
		return nil, err
	}

	var request *models.Request
	fx := &sideEffects{}
	err = s.tx.RunInTx(ctx, assetID, func(stores allocation.Stores) error {
		r, err := stores.Requests().Get(ctx, requestID)
		if err != nil {
			return requestErr(err)
		}
		if err := r.CanReject(); err != nil {
			return err
		}

		now := requestcontext.Now(ctx)
		r.ApplyRejection(now)

		record, err := approval.ForRequest(domain.ApprovalID(uuid.New()), r.ID, approval.DecisionRejected, actor, comments, now)
		if err != nil {
			return err
		}
		if err := stores.Requests().Update(ctx, r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update request")
		}
		if err := stores.Approvals().Append(ctx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record approval")
		}

		request = r
		requestID := r.ID
		fx.msgs = append(fx.msgs, notify.Message{
			Recipient: r.Requester,
			Kind:      notify.KindRequestRejected,
			Title:     "Request rejected",
			Body:      comments,
			RequestID: &requestID,
		})
		fx.events = append(fx.events, audit.Event{
			Action:    audit.ActionRequestRejected,
			Actor:     actor,
			Subject:   r.ID.String(),
			Decision:  string(approval.DecisionRejected),
			Reason:    comments,
			RequestID: requestcontext.RequestID(ctx),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncRequestsRejected()
	s.flush(ctx, fx)
	return request, nil
}

// Return hands the issued quantity back. The release is unconditional (the
// units leave the requester's hands either way) and the self-reported
// condition sets a tentative asset disposition that verification may later
// overwrite.
func (s *Service) Return(ctx context.Context, requestID domain.RequestID, condition models.Condition, notes string) (*models.Request, error) {
	actor, _, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !condition.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown return condition")
	}

	assetID, err := s.assetOf(ctx, requestID)
	if err != nil {
		return nil, err
	}

	var request *models.Request
	fx := &sideEffects{}
	err = s.tx.RunInTx(ctx, assetID, func(stores allocation.Stores) error {
		r, err := stores.Requests().Get(ctx, requestID)
		if err != nil {
			return requestErr(err)
		}
		if err := r.CanReturn(actor); err != nil {
			return err
		}
		asset, err := stores.Assets().Get(ctx, r.AssetID)
		if err != nil {
			return assetErr(err)
		}
		if !asset.Category.Returnable() {
			return dErrors.Newf(dErrors.CodeNotReturnable,
				"%s assets are not returnable", asset.Category)
		}

		now := requestcontext.Now(ctx)
		res := allocation.Release(asset, r.RequestedQuantity, s.lowStock)
		r.ApplyReturn(condition, notes, now)
		res.Apply(asset, now)
		applyDisposition(asset, condition, now)
		if asset.AllocatedQuantity == 0 {
			asset.SetHolder(nil, now)
		}

		if err := stores.Requests().Update(ctx, r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update request")
		}
		if err := stores.Assets().Update(ctx, asset); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update asset")
		}

		request = r
		fx.events = append(fx.events, audit.Event{
			Action:    audit.ActionRequestReturned,
			Actor:     actor,
			Subject:   r.ID.String(),
			Reason:    string(condition),
			RequestID: requestcontext.RequestID(ctx),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncRequestsReturned()
	s.flush(ctx, fx)
	return request, nil
}

// Verify is the officer's confirmation of a returned asset's condition. The
// verified condition re-asserts the asset disposition, overwriting the
// tentative one; divergence from the self-report is allowed.
func (s *Service) Verify(ctx context.Context, requestID domain.RequestID, condition models.Condition, notes string) (*models.Request, error) {
	actor, role, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !role.CanApproveRequests() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only an officer may verify returns")
	}
	if !condition.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown return condition")
	}

	assetID, err := s.assetOf(ctx, requestID)
	if err != nil {
		return nil, err
	}

	var request *models.Request
	fx := &sideEffects{}
	err = s.tx.RunInTx(ctx, assetID, func(stores allocation.Stores) error {
		r, err := stores.Requests().Get(ctx, requestID)
		if err != nil {
			return requestErr(err)
		}
		if err := r.CanVerify(); err != nil {
			return err
		}
		asset, err := stores.Assets().Get(ctx, r.AssetID)
		if err != nil {
			return assetErr(err)
		}

		now := requestcontext.Now(ctx)
		r.ApplyVerification(actor, condition, notes, now)
		applyDisposition(asset, condition, now)

		if err := stores.Requests().Update(ctx, r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update request")
		}
		if err := stores.Assets().Update(ctx, asset); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update asset")
		}

		request = r
		requestID := r.ID
		fx.msgs = append(fx.msgs, notify.Message{
			Recipient: r.Requester,
			Kind:      notify.KindReturnVerified,
			Title:     "Return verified",
			Body:      "Your return was verified as " + string(condition) + ".",
			RequestID: &requestID,
		})
		fx.events = append(fx.events, audit.Event{
			Action:    audit.ActionReturnVerified,
			Actor:     actor,
			Subject:   r.ID.String(),
			Reason:    string(condition),
			RequestID: requestcontext.RequestID(ctx),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.flush(ctx, fx)
	return request, nil
}

// Update edits a still-pending request's quantity and purpose.
func (s *Service) Update(ctx context.Context, requestID domain.RequestID, quantity int, purpose string) (*models.Request, error) {
	actor, _, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	assetID, err := s.assetOf(ctx, requestID)
	if err != nil {
		return nil, err
	}

	var request *models.Request
	err = s.tx.RunInTx(ctx, assetID, func(stores allocation.Stores) error {
		r, err := stores.Requests().Get(ctx, requestID)
		if err != nil {
			return requestErr(err)
		}
		if err := r.CanEdit(actor); err != nil {
			return err
		}
		if err := r.ApplyEdit(quantity, purpose, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := stores.Requests().Update(ctx, r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update request")
		}
		request = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// Delete removes a still-pending request. Nothing was reserved, so there is
// no ledger compensation; the empty approval trail goes with it.
func (s *Service) Delete(ctx context.Context, requestID domain.RequestID) error {
	actor, _, err := actorFromContext(ctx)
	if err != nil {
		return err
	}

	assetID, err := s.assetOf(ctx, requestID)
	if err != nil {
		return err
	}

	fx := &sideEffects{}
	err = s.tx.RunInTx(ctx, assetID, func(stores allocation.Stores) error {
		r, err := stores.Requests().Get(ctx, requestID)
		if err != nil {
			return requestErr(err)
		}
		if err := r.CanDelete(actor); err != nil {
			return err
		}
		if err := stores.Requests().Delete(ctx, requestID); err != nil {
			return requestErr(err)
		}
		fx.events = append(fx.events, audit.Event{
			Action:    audit.ActionRequestDeleted,
			Actor:     actor,
			Subject:   requestID.String(),
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

// Get returns one request. Members only see their own.
func (s *Service) Get(ctx context.Context, requestID domain.RequestID) (*models.Request, error) {
	actor, role, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	request, err := s.reader.Get(ctx, requestID)
	if err != nil {
		return nil, requestErr(err)
	}
	if !role.CanApproveRequests() && request.Requester != actor {
		return nil, dErrors.New(dErrors.CodeForbidden, "not your request")
	}
	return request, nil
}

// List returns the requests visible to the actor: all of them for officers,
// their own for members.
func (s *Service) List(ctx context.Context) ([]*models.Request, error) {
	actor, role, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if role.CanApproveRequests() {
		return s.reader.List(ctx)
	}
	return s.reader.ListByRequester(ctx, actor)
}

// ListApprovals returns the decision trail for a request. Visibility follows
// Get: the requester and approvers see it, strangers do not.
func (s *Service) ListApprovals(ctx context.Context, requestID domain.RequestID) ([]*approval.Approval, error) {
	if _, err := s.Get(ctx, requestID); err != nil {
		return nil, err
	}
	if s.approvals == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "approval reader not configured")
	}
	records, err := s.approvals.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "approval lookup failed")
	}
	return records, nil
}

// assetOf resolves the contention unit for a request before entering its
// allocation transaction. The request is re-read inside the transaction; this
// lookup only names the lock.
func (s *Service) assetOf(ctx context.Context, requestID domain.RequestID) (domain.AssetID, error) {
	request, err := s.reader.Get(ctx, requestID)
	if err != nil {
		return domain.AssetID{}, requestErr(err)
	}
	return request.AssetID, nil
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

// applyDisposition maps a return condition onto the asset status. Damaged
// goods head to maintenance, lost ones retire, anything else rejoins the
// pool at its ledger-derived status. A transfer in flight keeps its override.
func applyDisposition(asset *assetmodel.Asset, condition models.Condition, now time.Time) {
	if asset.Status == assetmodel.StatusTransferPending {
		return
	}
	switch condition {
	case models.ConditionDamaged, models.ConditionNeedsRepair:
		asset.ApplyMaintenance(now)
	case models.ConditionLost:
		asset.ApplyRetirement(now)
	default:
		asset.Status = asset.DerivedStatus()
		asset.UpdatedAt = now
	}
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

// requestErr translates store sentinels into domain errors.
func requestErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "request not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "request was modified concurrently")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "request lookup failed")
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
