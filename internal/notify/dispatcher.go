package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stokri/pkg/domain"
)

// Store persists notifications for later listing by their recipient.
type Store interface {
	Append(ctx context.Context, n *Notification) error
	ListByRecipient(ctx context.Context, recipient domain.UserID) ([]*Notification, error)
	MarkRead(ctx context.Context, id domain.NotificationID, recipient domain.UserID) error
}

// Dispatcher queues side-effect messages for background delivery. Dispatch is
// lossy: a full queue or a crashed worker drops messages, the core transition
// already committed and must not care.
type Dispatcher struct {
	logger *slog.Logger
	inbox  chan Message
}

// NewDispatcher builds a dispatcher with the given queue depth.
func NewDispatcher(logger *slog.Logger, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Dispatcher{logger: logger, inbox: make(chan Message, buffer)}
}

// Dispatch enqueues messages without blocking. Failures are logged, never
// returned; callers invoke this only after their transaction committed.
func (d *Dispatcher) Dispatch(ctx context.Context, msgs []Message) {
	for _, msg := range msgs {
		select {
		case d.inbox <- msg:
		default:
			d.logger.WarnContext(ctx, "notification queue full, dropping message",
				"kind", msg.Kind,
				"recipient", msg.Recipient.String(),
			)
		}
	}
}

// Run drains the queue into the store until ctx is cancelled. Store errors
// are logged and the message dropped; delivery is at most once.
func (d *Dispatcher) Run(ctx context.Context, store Store) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-d.inbox:
			n := &Notification{
				ID:         domain.NotificationID(uuid.New()),
				Recipient:  msg.Recipient,
				Kind:       msg.Kind,
				Title:      msg.Title,
				Body:       msg.Body,
				CreatedAt:  time.Now(),
				AssetID:    msg.AssetID,
				RequestID:  msg.RequestID,
				TransferID: msg.TransferID,
			}
			if err := store.Append(ctx, n); err != nil {
				d.logger.ErrorContext(ctx, "failed to persist notification",
					"kind", msg.Kind,
					"recipient", msg.Recipient.String(),
					"error", err,
				)
			}
		}
	}
}
