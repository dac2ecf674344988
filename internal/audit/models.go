// Package audit captures the workflow's activity trail. Events are emitted
// from services after their transaction commits and drained by a background
// worker; a lost event never affects a committed transition.
package audit

import (
	"context"
	"time"

	"stokri/pkg/domain"
)

// Action names the workflow transition an event records.
type Action string

const (
	ActionRequestSubmitted Action = "request_submitted"
	ActionRequestApproved  Action = "request_approved"
	ActionRequestRejected  Action = "request_rejected"
	ActionRequestReturned  Action = "request_returned"
	ActionReturnVerified   Action = "return_verified"
	ActionRequestDeleted   Action = "request_deleted"

	ActionTransferRequested Action = "transfer_requested"
	ActionTransferCompleted Action = "transfer_completed"
	ActionTransferRejected  Action = "transfer_rejected"
	ActionTransferDeleted   Action = "transfer_deleted"

	ActionAssetCreated     Action = "asset_created"
	ActionAssetMaintenance Action = "asset_maintenance"
	ActionAssetRetired     Action = "asset_retired"
	ActionStockLow         Action = "stock_low"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time     `json:"timestamp"`
	Action    Action        `json:"action"`
	Actor     domain.UserID `json:"actor"`
	// Subject names the entity acted on (asset, request or transfer ID).
	Subject   string `json:"subject,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Store is the append-only sink events drain into.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
