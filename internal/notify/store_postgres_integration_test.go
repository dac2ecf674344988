//go:build integration

package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"stokri/internal/notify"
	"stokri/pkg/domain"
	"stokri/pkg/platform/sentinel"
	"stokri/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *notify.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = notify.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "notifications")
	s.Require().NoError(err)
}

func newNotification(recipient domain.UserID, kind notify.Kind, at time.Time) *notify.Notification {
	assetID := domain.AssetID(uuid.New())
	return &notify.Notification{
		ID:        domain.NotificationID(uuid.New()),
		Recipient: recipient,
		Kind:      kind,
		Title:     "request approved",
		Body:      "your request for 2x microscope was approved",
		AssetID:   &assetID,
		CreatedAt: at,
	}
}

func (s *PostgresStoreSuite) TestAppendAndList() {
	ctx := context.Background()
	recipient := domain.UserID(uuid.New())
	base := time.Now().UTC().Truncate(time.Microsecond)

	older := newNotification(recipient, notify.KindRequestApproved, base)
	newer := newNotification(recipient, notify.KindStockLow, base.Add(time.Minute))
	s.Require().NoError(s.store.Append(ctx, older))
	s.Require().NoError(s.store.Append(ctx, newer))
	s.Require().NoError(s.store.Append(ctx, newNotification(domain.UserID(uuid.New()), notify.KindRequestApproved, base)))

	got, err := s.store.ListByRecipient(ctx, recipient)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(newer.ID, got[0].ID)
	s.Equal(older.ID, got[1].ID)
	s.Require().NotNil(got[0].AssetID)
	s.False(got[0].Read)
}

func (s *PostgresStoreSuite) TestMarkRead() {
	ctx := context.Background()
	recipient := domain.UserID(uuid.New())
	n := newNotification(recipient, notify.KindTransferCompleted, time.Now().UTC())
	s.Require().NoError(s.store.Append(ctx, n))

	s.Require().NoError(s.store.MarkRead(ctx, n.ID, recipient))

	got, err := s.store.ListByRecipient(ctx, recipient)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.True(got[0].Read)
}

func (s *PostgresStoreSuite) TestMarkReadWrongRecipient() {
	ctx := context.Background()
	recipient := domain.UserID(uuid.New())
	n := newNotification(recipient, notify.KindTransferCompleted, time.Now().UTC())
	s.Require().NoError(s.store.Append(ctx, n))

	err := s.store.MarkRead(ctx, n.ID, domain.UserID(uuid.New()))
	s.True(errors.Is(err, sentinel.ErrNotFound))
}
