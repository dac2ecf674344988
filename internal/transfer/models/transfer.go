// Package models defines the transfer aggregate and its state machine.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"stokri/pkg/domain"
	dErrors "stokri/pkg/domain-errors"
)

// Status is the transfer lifecycle state. Like requests, approval collapses
// into completion: an approved transfer executes in the same commit.
//
//	PENDING -> COMPLETED
//	PENDING -> REJECTED
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED" // decision value on approval records only
	StatusRejected  Status = "REJECTED"
	StatusCompleted Status = "COMPLETED"
)

// Transfer moves already-allocated quantity from one holder to another, or
// back to shared stock.
//
// Invariants:
//   - TransferQuantity >= 1
//   - FromHolder == nil means the origin is shared stock
//   - ReceiptNumber is empty until the transfer completes, then immutable
//   - terminal states (REJECTED, COMPLETED) are never left
type Transfer struct {
	ID         domain.TransferID `json:"id"`
	AssetID    domain.AssetID    `json:"asset_id"`
	FromHolder *domain.UserID    `json:"from_holder,omitempty"`
	ToHolder   domain.UserID     `json:"to_holder"`

	TransferQuantity int    `json:"transfer_quantity"`
	Reason           string `json:"reason,omitempty"`
	Status           Status `json:"status"`
	// ToStock marks a transfer whose destination acts as shared inventory
	// rather than an individual holder. Fixed at creation from the
	// destination's role.
	ToStock bool `json:"to_stock"`

	ReceiptNumber string `json:"receipt_number,omitempty"`

	InitiatedBy domain.UserID `json:"initiated_by"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	RejectedAt  *time.Time    `json:"rejected_at,omitempty"`
}

// NewTransfer validates and constructs a pending transfer.
func NewTransfer(transferID domain.TransferID, assetID domain.AssetID, from *domain.UserID, to domain.UserID, quantity int, reason string, toStock bool, initiatedBy domain.UserID, now time.Time) (*Transfer, error) {
	if assetID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "transfer needs an asset")
	}
	if to.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "transfer needs a destination holder")
	}
	if quantity < 1 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "transfer quantity must be at least 1")
	}
	if from != nil && *from == to {
		return nil, dErrors.New(dErrors.CodeValidation, "transfer source and destination must differ")
	}
	return &Transfer{
		ID:               transferID,
		AssetID:          assetID,
		FromHolder:       from,
		ToHolder:         to,
		TransferQuantity: quantity,
		Reason:           reason,
		Status:           StatusPending,
		ToStock:          toStock,
		InitiatedBy:      initiatedBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Terminal reports whether the transfer can never transition again.
func (t *Transfer) Terminal() bool {
	return t.Status == StatusRejected || t.Status == StatusCompleted
}

// CanApprove checks the PENDING -> COMPLETED transition for the given actor.
// Transfer approval is locked to the admin role and the approver must be
// neither side of the movement, even when they hold approval rights otherwise.
func (t *Transfer) CanApprove(actor domain.UserID, role domain.Role) error {
	if t.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeInvalidState, "cannot approve a %s transfer", t.Status)
	}
	if !role.CanApproveTransfers() {
		return dErrors.New(dErrors.CodeForbidden, "only an admin may approve transfers")
	}
	if t.ToHolder == actor || (t.FromHolder != nil && *t.FromHolder == actor) {
		return dErrors.New(dErrors.CodeForbidden, "transfer approver cannot be a party to the transfer")
	}
	return nil
}

// ApplyCompletion flips the transfer to COMPLETED and stamps the receipt.
// Happens exactly once, inside the same transaction as the asset mutation; a
// pending transfer never carries a receipt number.
func (t *Transfer) ApplyCompletion(now time.Time) {
	t.Status = StatusCompleted
	t.ReceiptNumber = newReceiptNumber(now)
	t.CompletedAt = &now
	t.UpdatedAt = now
}

// CanReject checks the PENDING -> REJECTED transition for the given actor.
func (t *Transfer) CanReject(actor domain.UserID, role domain.Role) error {
	if t.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeInvalidState, "cannot reject a %s transfer", t.Status)
	}
	if !role.CanApproveTransfers() {
		return dErrors.New(dErrors.CodeForbidden, "only an admin may reject transfers")
	}
	return nil
}

// ApplyRejection terminates the transfer. The asset reverts to its committed
// status in the coordinator; no quantity ever moved.
func (t *Transfer) ApplyRejection(now time.Time) {
	t.Status = StatusRejected
	t.RejectedAt = &now
	t.UpdatedAt = now
}

// CanDelete checks initiator deletion of a still-pending transfer.
func (t *Transfer) CanDelete(actor domain.UserID, role domain.Role) error {
	if t.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeInvalidState, "cannot delete a %s transfer", t.Status)
	}
	if t.InitiatedBy != actor && !role.CanApproveTransfers() {
		return dErrors.New(dErrors.CodeForbidden, "only the initiator may delete their transfer")
	}
	return nil
}

// newReceiptNumber builds the immutable receipt identifier stamped at
// completion. Date prefix for the filing cabinet, uuid fragment for
// uniqueness.
func newReceiptNumber(now time.Time) string {
	return fmt.Sprintf("TR-%s-%s", now.Format("20060102"), uuid.NewString()[:8])
}
