package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"stokri/pkg/domain"
	dErrors "stokri/pkg/domain-errors"
)

type AssetSuite struct {
	suite.Suite
	now time.Time
}

func TestAssetSuite(t *testing.T) {
	suite.Run(t, new(AssetSuite))
}

func (s *AssetSuite) SetupTest() {
	s.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
}

func (s *AssetSuite) TestNewAsset() {
	s.Run("unit asset forces total of one", func() {
		asset, err := NewAsset(domain.AssetID(uuid.New()), "lectern", CategoryFurniture, KindUnit, 50, s.now)
		s.NoError(err)
		s.Equal(1, asset.TotalQuantity)
		s.Equal(1, asset.Capacity())
		s.Equal(StatusAvailable, asset.Status)
	})

	s.Run("quantified asset keeps its total", func() {
		asset, err := NewAsset(domain.AssetID(uuid.New()), "whiteboard markers", CategoryConsumable, KindQuantified, 200, s.now)
		s.NoError(err)
		s.Equal(200, asset.Capacity())
	})

	s.Run("quantified asset rejects zero total", func() {
		_, err := NewAsset(domain.AssetID(uuid.New()), "markers", CategoryConsumable, KindQuantified, 0, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("empty name rejected", func() {
		_, err := NewAsset(domain.AssetID(uuid.New()), "", CategoryEquipment, KindUnit, 1, s.now)
		s.Error(err)
	})

	s.Run("unknown category rejected", func() {
		_, err := NewAsset(domain.AssetID(uuid.New()), "thing", Category("vehicle"), KindUnit, 1, s.now)
		s.Error(err)
	})
}

func (s *AssetSuite) TestDerivedStatus() {
	asset, err := NewAsset(domain.AssetID(uuid.New()), "projector", CategoryEquipment, KindQuantified, 3, s.now)
	s.Require().NoError(err)

	s.Equal(StatusAvailable, asset.DerivedStatus())
	asset.AllocatedQuantity = 3
	s.Equal(StatusAllocated, asset.DerivedStatus())
}

func (s *AssetSuite) TestCanAllocate() {
	asset, err := NewAsset(domain.AssetID(uuid.New()), "projector", CategoryEquipment, KindUnit, 1, s.now)
	s.Require().NoError(err)

	s.NoError(asset.CanAllocate())

	asset.ApplyMaintenance(s.now)
	s.True(dErrors.HasCode(asset.CanAllocate(), dErrors.CodeInvalidState))

	asset.ApplyReinstatement(s.now)
	s.NoError(asset.CanAllocate())

	asset.ApplyRetirement(s.now)
	s.True(dErrors.HasCode(asset.CanAllocate(), dErrors.CodeInvalidState))
}

func (s *AssetSuite) TestCanStartTransfer() {
	asset, err := NewAsset(domain.AssetID(uuid.New()), "projector", CategoryEquipment, KindUnit, 1, s.now)
	s.Require().NoError(err)

	s.Run("available asset cannot start a transfer", func() {
		err := asset.CanStartTransfer()
		s.True(dErrors.HasCode(err, dErrors.CodeAssetNotAllocated))
	})

	s.Run("allocated asset can", func() {
		asset.AllocatedQuantity = 1
		asset.Status = asset.DerivedStatus()
		s.NoError(asset.CanStartTransfer())
	})

	s.Run("competing transfer blocks a second one", func() {
		asset.ApplyTransferPending(s.now)
		s.True(dErrors.HasCode(asset.CanStartTransfer(), dErrors.CodeInvalidState))
	})

	s.Run("resolution restores the ledger-derived status", func() {
		asset.ApplyTransferResolution(s.now)
		s.Equal(StatusAllocated, asset.Status)
	})
}

func (s *AssetSuite) TestOverrides() {
	asset, err := NewAsset(domain.AssetID(uuid.New()), "projector", CategoryEquipment, KindUnit, 1, s.now)
	s.Require().NoError(err)

	s.Run("retired asset cannot retire again", func() {
		asset.ApplyRetirement(s.now)
		s.Error(asset.CanRetire())
	})

	s.Run("retired asset cannot enter maintenance", func() {
		s.Error(asset.CanSetMaintenance())
	})

	s.Run("reinstate lifts the override", func() {
		s.NoError(asset.CanReinstate())
		asset.ApplyReinstatement(s.now)
		s.Equal(StatusAvailable, asset.Status)
	})

	s.Run("nothing to reinstate on a derived status", func() {
		s.Error(asset.CanReinstate())
	})
}

func (s *AssetSuite) TestHolder() {
	asset, err := NewAsset(domain.AssetID(uuid.New()), "projector", CategoryEquipment, KindUnit, 1, s.now)
	s.Require().NoError(err)

	holder := domain.UserID(uuid.New())
	s.False(asset.HeldBy(holder))

	asset.SetHolder(&holder, s.now)
	s.True(asset.HeldBy(holder))
	s.False(asset.HeldBy(domain.UserID(uuid.New())))

	asset.SetHolder(nil, s.now)
	s.False(asset.HeldBy(holder))
}
