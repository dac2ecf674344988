package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"stokri/pkg/domain"
)

type AuditSuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestAuditSuite(t *testing.T) {
	suite.Run(t, new(AuditSuite))
}

func (s *AuditSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *AuditSuite) TestEmitStampsTime() {
	publisher := NewPublisher(s.logger, 4)
	publisher.Emit(context.Background(), Event{Action: ActionRequestSubmitted})

	select {
	case event := <-publisher.Inbox():
		s.False(event.Timestamp.IsZero())
		s.Equal(ActionRequestSubmitted, event.Action)
	case <-time.After(time.Second):
		s.Fail("event never reached the inbox")
	}
}

func (s *AuditSuite) TestEmitNeverBlocks() {
	publisher := NewPublisher(s.logger, 1)
	for i := 0; i < 5; i++ {
		publisher.Emit(context.Background(), Event{Action: ActionStockLow})
	}
}

func (s *AuditSuite) TestWorkerDrainsToStore() {
	publisher := NewPublisher(s.logger, 8)
	store := NewInMemoryStore()
	worker := NewWorker(s.logger, store, publisher.Inbox())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	actor := domain.UserID(uuid.New())
	publisher.Emit(ctx, Event{Action: ActionRequestApproved, Actor: actor, Subject: "r1"})
	publisher.Emit(ctx, Event{Action: ActionRequestReturned, Actor: actor, Subject: "r1"})

	s.Eventually(func() bool {
		events, err := store.ListRecent(context.Background(), 10)
		return err == nil && len(events) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func (s *AuditSuite) TestListRecentHonorsLimit() {
	store := NewInMemoryStore()
	for i := 0; i < 5; i++ {
		s.Require().NoError(store.Append(context.Background(), Event{
			Timestamp: time.Now().Add(time.Duration(i) * time.Second),
			Action:    ActionStockLow,
		}))
	}
	events, err := store.ListRecent(context.Background(), 3)
	s.Require().NoError(err)
	s.Len(events, 3)
}
