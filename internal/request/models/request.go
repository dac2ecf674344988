// Package models defines the borrow-request aggregate and its state machine.
package models

import (
	"time"

	"stokri/pkg/domain"
	dErrors "stokri/pkg/domain-errors"
)

// Status is the request lifecycle state. Transitions only move forward:
//
//	PENDING -> FULFILLED -> RETURNED (verification keeps RETURNED, sets VerifiedAt)
//	PENDING -> REJECTED
//
// Approval and fulfillment are one transition: approving a request reserves
// quantity and stamps issuance metadata in the same commit. There is no idle
// APPROVED state that sits un-reserved.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED" // decision value on approval records, never a resting request state
	StatusRejected  Status = "REJECTED"
	StatusFulfilled Status = "FULFILLED"
	StatusReturned  Status = "RETURNED"
)

// Condition is the closed set of states an asset can come back in. The
// requester self-reports one on return; the verifying officer asserts their
// own, which wins.
type Condition string

const (
	ConditionFunctional  Condition = "FUNCTIONAL"
	ConditionGood        Condition = "GOOD"
	ConditionFair        Condition = "FAIR"
	ConditionDamaged     Condition = "DAMAGED"
	ConditionNeedsRepair Condition = "NEEDS_REPAIR"
	ConditionLost        Condition = "LOST"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionFunctional, ConditionGood, ConditionFair, ConditionDamaged, ConditionNeedsRepair, ConditionLost:
		return true
	}
	return false
}

// Request is the aggregate for borrowing a quantity of an asset.
//
// Invariants:
//   - RequestedQuantity >= 1
//   - terminal states (REJECTED, verified RETURNED) are never left
//   - edit and delete are only legal while PENDING
//   - quantity is reserved exactly when status flips to FULFILLED and released
//     exactly when it flips to RETURNED
type Request struct {
	ID        domain.RequestID `json:"id"`
	AssetID   domain.AssetID   `json:"asset_id"`
	Requester domain.UserID    `json:"requester"`

	RequestedQuantity int    `json:"requested_quantity"`
	Purpose           string `json:"purpose,omitempty"`
	Status            Status `json:"status"`

	IssueCondition string     `json:"issue_condition,omitempty"`
	IssueNotes     string     `json:"issue_notes,omitempty"`
	ReturnedWith   *Condition `json:"returned_with,omitempty"`
	ReturnNotes    string     `json:"return_notes,omitempty"`
	VerifiedWith   *Condition `json:"verified_with,omitempty"`
	VerifyNotes    string     `json:"verify_notes,omitempty"`

	Verifier *domain.UserID `json:"verifier,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	FulfilledAt *time.Time `json:"fulfilled_at,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	ReturnedAt  *time.Time `json:"returned_at,omitempty"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
}

// NewRequest validates and constructs a pending request.
func NewRequest(requestID domain.RequestID, assetID domain.AssetID, requester domain.UserID, quantity int, purpose string, now time.Time) (*Request, error) {
	if assetID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "request needs an asset")
	}
	if requester.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "request needs a requester")
	}
	if quantity < 1 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "requested quantity must be at least 1")
	}
	return &Request{
		ID:                requestID,
		AssetID:           assetID,
		Requester:         requester,
		RequestedQuantity: quantity,
		Purpose:           purpose,
		Status:            StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Terminal reports whether the request can never transition again.
func (r *Request) Terminal() bool {
	return r.Status == StatusRejected || (r.Status == StatusReturned && r.VerifiedAt != nil)
}

// CanApprove checks the PENDING -> FULFILLED transition. Ledger capacity is
// checked separately, inside the same transaction that reserves.
func (r *Request) CanApprove() error {
	if r.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeInvalidState, "cannot approve a %s request", r.Status)
	}
	return nil
}

// ApplyApproval fulfils the request, stamping issuance metadata.
func (r *Request) ApplyApproval(issueCondition, issueNotes string, now time.Time) {
	r.Status = StatusFulfilled
	r.IssueCondition = issueCondition
	r.IssueNotes = issueNotes
	r.FulfilledAt = &now
	r.UpdatedAt = now
}

// CanReject checks the PENDING -> REJECTED transition.
func (r *Request) CanReject() error {
	if r.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeInvalidState, "cannot reject a %s request", r.Status)
	}
	return nil
}

// ApplyRejection terminates the request with no ledger change.
func (r *Request) ApplyRejection(now time.Time) {
	r.Status = StatusRejected
	r.RejectedAt = &now
	r.UpdatedAt = now
}

// CanReturn checks the FULFILLED -> RETURNED transition for the given actor.
func (r *Request) CanReturn(actor domain.UserID) error {
	if r.Status != StatusFulfilled {
		return dErrors.Newf(dErrors.CodeInvalidState, "cannot return a %s request", r.Status)
	}
	if r.Requester != actor {
		return dErrors.New(dErrors.CodeForbidden, "only the requester may return an issued asset")
	}
	return nil
}

// ApplyReturn records the self-reported condition. The released quantity and
// the tentative asset disposition are handled by the coordinator in the same
// transaction.
func (r *Request) ApplyReturn(condition Condition, notes string, now time.Time) {
	r.Status = StatusReturned
	r.ReturnedWith = &condition
	r.ReturnNotes = notes
	r.ReturnedAt = &now
	r.UpdatedAt = now
}

// CanVerify checks the verification step on a returned request.
func (r *Request) CanVerify() error {
	if r.Status != StatusReturned {
		return dErrors.Newf(dErrors.CodeInvalidState, "cannot verify a %s request", r.Status)
	}
	if r.VerifiedAt != nil {
		return dErrors.New(dErrors.CodeInvalidState, "return is already verified")
	}
	return nil
}

// ApplyVerification records the officer's assessment. Divergence from the
// self-reported condition is allowed; the verified one drives the final asset
// disposition.
func (r *Request) ApplyVerification(verifier domain.UserID, condition Condition, notes string, now time.Time) {
	r.VerifiedWith = &condition
	r.VerifyNotes = notes
	r.Verifier = &verifier
	r.VerifiedAt = &now
	r.UpdatedAt = now
}

// CanEdit checks requester edits, legal only while PENDING and only on own
// requests.
func (r *Request) CanEdit(actor domain.UserID) error {
	if r.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeInvalidState, "cannot edit a %s request", r.Status)
	}
	if r.Requester != actor {
		return dErrors.New(dErrors.CodeForbidden, "only the requester may edit their request")
	}
	return nil
}

// ApplyEdit updates the mutable fields of a pending request.
func (r *Request) ApplyEdit(quantity int, purpose string, now time.Time) error {
	if quantity < 1 {
		return dErrors.New(dErrors.CodeValidation, "requested quantity must be at least 1")
	}
	r.RequestedQuantity = quantity
	r.Purpose = purpose
	r.UpdatedAt = now
	return nil
}

// CanDelete checks requester deletion. Only a PENDING request may go away;
// nothing has been reserved yet so no compensation is needed.
func (r *Request) CanDelete(actor domain.UserID) error {
	if r.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeInvalidState, "cannot delete a %s request", r.Status)
	}
	if r.Requester != actor {
		return dErrors.New(dErrors.CodeForbidden, "only the requester may delete their request")
	}
	return nil
}
