// Package notify is the side-effect dispatcher. Workflow services hand it a
// batch of messages after their transaction commits; delivery is fire-and-
// forget and never feeds an error back into the committed transition.
package notify

import (
	"time"

	"stokri/pkg/domain"
)

// Kind classifies a notification for routing and display.
type Kind string

const (
	KindRequestApproved   Kind = "request_approved"
	KindRequestRejected   Kind = "request_rejected"
	KindReturnVerified    Kind = "return_verified"
	KindTransferRequested Kind = "transfer_requested"
	KindTransferCompleted Kind = "transfer_completed"
	KindTransferRejected  Kind = "transfer_rejected"
	KindStockLow          Kind = "stock_low"
)

// Message is a side-effect instruction collected inside an allocation
// transaction and dispatched after commit.
type Message struct {
	Recipient domain.UserID
	Kind      Kind
	Title     string
	Body      string

	AssetID    *domain.AssetID
	RequestID  *domain.RequestID
	TransferID *domain.TransferID
}

// Notification is the persisted, user-facing record of a dispatched message.
type Notification struct {
	ID        domain.NotificationID `json:"id"`
	Recipient domain.UserID         `json:"recipient"`
	Kind      Kind                  `json:"kind"`
	Title     string                `json:"title"`
	Body      string                `json:"body"`
	Read      bool                  `json:"read"`
	CreatedAt time.Time             `json:"created_at"`

	AssetID    *domain.AssetID    `json:"asset_id,omitempty"`
	RequestID  *domain.RequestID  `json:"request_id,omitempty"`
	TransferID *domain.TransferID `json:"transfer_id,omitempty"`
}
