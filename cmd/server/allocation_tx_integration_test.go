//go:build integration

package main

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"stokri/internal/allocation"
	"stokri/internal/asset/models"
	assetstore "stokri/internal/asset/store"
	"stokri/pkg/domain"
	dErrors "stokri/pkg/domain-errors"
	"stokri/pkg/testutil/containers"
)

type AllocationTxSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	tx       *allocationPostgresTx
}

func TestAllocationTxSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AllocationTxSuite))
}

func (s *AllocationTxSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.tx = newAllocationPostgresTx(s.postgres.DB)
}

func (s *AllocationTxSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "assets")
	s.Require().NoError(err)
}

func (s *AllocationTxSuite) seedAsset(total int) domain.AssetID {
	asset, err := models.NewAsset(domain.AssetID(uuid.New()), "soldering iron", models.CategoryEquipment, models.KindQuantified, total, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(assetstore.NewPostgres(s.postgres.DB).Save(context.Background(), asset))
	return asset.ID
}

// Ten racing reservations against a capacity of five must admit exactly five.
// The row lock taken by the tx-scoped asset store serializes them.
func (s *AllocationTxSuite) TestConcurrentReservations() {
	ctx := context.Background()
	assetID := s.seedAsset(5)

	const goroutines = 10
	var wg sync.WaitGroup
	var reserved, refused atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.tx.RunInTx(ctx, assetID, func(stores allocation.Stores) error {
				asset, err := stores.Assets().Get(ctx, assetID)
				if err != nil {
					return err
				}
				res, err := allocation.Reserve(asset, 1, 0)
				if err != nil {
					return err
				}
				res.Apply(asset, time.Now().UTC())
				return stores.Assets().Update(ctx, asset)
			})
			switch {
			case err == nil:
				reserved.Add(1)
			case dErrors.HasCode(err, dErrors.CodeInsufficientQuantity):
				refused.Add(1)
			default:
				s.T().Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(5), reserved.Load())
	s.Equal(int32(5), refused.Load())

	asset, err := assetstore.NewPostgres(s.postgres.DB).Get(ctx, assetID)
	s.Require().NoError(err)
	s.Equal(5, asset.AllocatedQuantity)
	s.Equal(models.StatusAllocated, asset.Status)
}

func (s *AllocationTxSuite) TestCallbackErrorRollsBack() {
	ctx := context.Background()
	assetID := s.seedAsset(3)

	wantErr := dErrors.New(dErrors.CodeInvalidState, "nope")
	err := s.tx.RunInTx(ctx, assetID, func(stores allocation.Stores) error {
		asset, err := stores.Assets().Get(ctx, assetID)
		if err != nil {
			return err
		}
		res, err := allocation.Reserve(asset, 2, 0)
		if err != nil {
			return err
		}
		res.Apply(asset, time.Now().UTC())
		if err := stores.Assets().Update(ctx, asset); err != nil {
			return err
		}
		return wantErr
	})
	s.Require().ErrorIs(err, wantErr)

	asset, err := assetstore.NewPostgres(s.postgres.DB).Get(ctx, assetID)
	s.Require().NoError(err)
	s.Equal(0, asset.AllocatedQuantity)
}
