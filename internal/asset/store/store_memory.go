// Package store provides the asset persistence implementations. The memory
// variant doubles as the unit-test fake; the postgres variant backs
// production and locks the asset row inside allocation transactions.
package store

import (
	"context"
	"sync"

	"stokri/internal/asset/models"
	"stokri/pkg/domain"
	"stokri/pkg/platform/sentinel"
)

// InMemory keeps assets in a map and hands out clones so callers mutate
// copies, not shared state. Serialization is the allocation transaction's
// job, not the store's.
type InMemory struct {
	mu     sync.RWMutex
	assets map[domain.AssetID]*models.Asset
}

func NewInMemory() *InMemory {
	return &InMemory{assets: make(map[domain.AssetID]*models.Asset)}
}

func (s *InMemory) Get(_ context.Context, assetID domain.AssetID) (*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	asset, ok := s.assets[assetID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneAsset(asset), nil
}

func (s *InMemory) Save(_ context.Context, asset *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.assets[asset.ID]; exists {
		return sentinel.ErrConflict
	}
	s.assets[asset.ID] = cloneAsset(asset)
	return nil
}

func (s *InMemory) Update(_ context.Context, asset *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.assets[asset.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.assets[asset.ID] = cloneAsset(asset)
	return nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Asset, 0, len(s.assets))
	for _, asset := range s.assets {
		out = append(out, cloneAsset(asset))
	}
	return out, nil
}

func cloneAsset(a *models.Asset) *models.Asset {
	clone := *a
	if a.CurrentHolder != nil {
		holder := *a.CurrentHolder
		clone.CurrentHolder = &holder
	}
	return &clone
}
