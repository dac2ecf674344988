package notify

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

type DispatcherSuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *DispatcherSuite) TestDeliversToStore() {
	dispatcher := NewDispatcher(s.logger, 8)
	store := NewInMemoryStore()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = dispatcher.Run(ctx, store)
	}()

	recipient := domain.UserID(uuid.New())
	dispatcher.Dispatch(ctx, []Message{{
		Recipient: recipient,
		Kind:      KindRequestApproved,
		Title:     "Request approved",
	}})

	s.Eventually(func() bool {
		notifications, err := store.ListByRecipient(context.Background(), recipient)
		return err == nil && len(notifications) == 1
	}, time.Second, 10*time.Millisecond)

	notifications, err := store.ListByRecipient(context.Background(), recipient)
	s.Require().NoError(err)
	s.Equal(KindRequestApproved, notifications[0].Kind)
	s.False(notifications[0].Read)
	s.False(notifications[0].ID.IsZero())

	cancel()
	<-done
}

func (s *DispatcherSuite) TestFullQueueDropsWithoutBlocking() {
	dispatcher := NewDispatcher(s.logger, 1)

	msgs := []Message{
		{Recipient: domain.UserID(uuid.New()), Kind: KindStockLow},
		{Recipient: domain.UserID(uuid.New()), Kind: KindStockLow},
		{Recipient: domain.UserID(uuid.New()), Kind: KindStockLow},
	}

	finished := make(chan struct{})
	go func() {
		dispatcher.Dispatch(context.Background(), msgs)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		s.Fail("dispatch blocked on a full queue")
	}
}

func (s *DispatcherSuite) TestMarkRead() {
	store := NewInMemoryStore()
	recipient := domain.UserID(uuid.New())
	n := &Notification{
		ID:        domain.NotificationID(uuid.New()),
		Recipient: recipient,
		Kind:      KindRequestApproved,
		CreatedAt: time.Now(),
	}
	s.Require().NoError(store.Append(context.Background(), n))

	s.Run("recipient marks their notification read", func() {
		s.NoError(store.MarkRead(context.Background(), n.ID, recipient))
		notifications, err := store.ListByRecipient(context.Background(), recipient)
		s.Require().NoError(err)
		s.True(notifications[0].Read)
	})

	s.Run("someone else cannot", func() {
		s.Error(store.MarkRead(context.Background(), n.ID, domain.UserID(uuid.New())))
	})
}
