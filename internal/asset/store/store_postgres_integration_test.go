//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"stokri/internal/asset/models"
	"stokri/internal/asset/store"
	"stokri/pkg/domain"
	"stokri/pkg/platform/sentinel"
	"stokri/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
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
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "assets")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newAsset(kind models.Kind, total int) *models.Asset {
	asset, err := models.NewAsset(domain.AssetID(uuid.New()), "microscope", models.CategoryEquipment, kind, total, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return asset
}

func (s *PostgresStoreSuite) TestSaveAndGet() {
	ctx := context.Background()
	asset := s.newAsset(models.KindQuantified, 5)
	s.Require().NoError(s.store.Save(ctx, asset))

	got, err := s.store.Get(ctx, asset.ID)
	s.Require().NoError(err)
	s.Equal(asset.ID, got.ID)
	s.Equal("microscope", got.Name)
	s.Equal(models.CategoryEquipment, got.Category)
	s.Equal(models.KindQuantified, got.Kind)
	s.Equal(5, got.TotalQuantity)
	s.Equal(0, got.AllocatedQuantity)
	s.Equal(models.StatusAvailable, got.Status)
	s.Nil(got.CurrentHolder)
}

func (s *PostgresStoreSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), domain.AssetID(uuid.New()))
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresStoreSuite) TestUpdatePersistsLedgerAndHolder() {
	ctx := context.Background()
	asset := s.newAsset(models.KindQuantified, 5)
	s.Require().NoError(s.store.Save(ctx, asset))

	holder := domain.UserID(uuid.New())
	asset.AllocatedQuantity = 5
	asset.Status = asset.DerivedStatus()
	asset.SetHolder(&holder, time.Now().UTC())
	s.Require().NoError(s.store.Update(ctx, asset))

	got, err := s.store.Get(ctx, asset.ID)
	s.Require().NoError(err)
	s.Equal(5, got.AllocatedQuantity)
	s.Equal(models.StatusAllocated, got.Status)
	s.Require().NotNil(got.CurrentHolder)
	s.Equal(holder, *got.CurrentHolder)

	asset.AllocatedQuantity = 0
	asset.Status = asset.DerivedStatus()
	asset.SetHolder(nil, time.Now().UTC())
	s.Require().NoError(s.store.Update(ctx, asset))

	got, err = s.store.Get(ctx, asset.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusAvailable, got.Status)
	s.Nil(got.CurrentHolder)
}

func (s *PostgresStoreSuite) TestUpdateMissing() {
	asset := s.newAsset(models.KindUnit, 1)
	err := s.store.Update(context.Background(), asset)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresStoreSuite) TestList() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.store.Save(ctx, s.newAsset(models.KindUnit, 1)))
	}

	assets, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Len(assets, 3)
}
