// Package approval holds the append-only decision records that form the audit
// trail for both workflows. Records are never mutated after creation.
package approval

import (
	"time"

	"stokri/pkg/domain"
	dErrors "stokri/pkg/domain-errors"
)

// Decision is the recorded outcome of an approval action.
type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

// Approval links a decision to exactly one of a request or a transfer.
type Approval struct {
	ID         domain.ApprovalID  `json:"id"`
	RequestID  *domain.RequestID  `json:"request_id,omitempty"`
	TransferID *domain.TransferID `json:"transfer_id,omitempty"`
	Decision   Decision           `json:"decision"`
	Approver   domain.UserID      `json:"approver"`
	Comments   string             `json:"comments,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// ForRequest builds an approval record for a request decision.
func ForRequest(id domain.ApprovalID, requestID domain.RequestID, decision Decision, approver domain.UserID, comments string, now time.Time) (*Approval, error) {
	if approver.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "approval needs an approver")
	}
	return &Approval{
		ID:        id,
		RequestID: &requestID,
		Decision:  decision,
		Approver:  approver,
		Comments:  comments,
		CreatedAt: now,
	}, nil
}

// ForTransfer builds an approval record for a transfer decision.
func ForTransfer(id domain.ApprovalID, transferID domain.TransferID, decision Decision, approver domain.UserID, comments string, now time.Time) (*Approval, error) {
	if approver.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "approval needs an approver")
	}
	return &Approval{
		ID:         id,
		TransferID: &transferID,
		Decision:   decision,
		Approver:   approver,
		Comments:   comments,
		CreatedAt:  now,
	}, nil
}
