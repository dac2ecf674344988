package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher queues audit events for background persistence. Emit never blocks
// and never fails the caller; a full queue drops the event with a warning.
type Publisher struct {
	logger *slog.Logger
	inbox  chan Event
}

func NewPublisher(logger *slog.Logger, buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{logger: logger, inbox: make(chan Event, buffer)}
}

// Emit enqueues an event, stamping the time when unset.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit queue full, dropping event",
			"action", string(event.Action),
			"subject", event.Subject,
		)
	}
}

// Inbox exposes the drain side for the worker.
func (p *Publisher) Inbox() <-chan Event { return p.inbox }
