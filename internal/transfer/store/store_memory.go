// Package store provides transfer persistence.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"stokri/internal/transfer/models"
	"stokri/pkg/domain"
	"stokri/pkg/platform/sentinel"
)

// InMemory keeps transfers in a map, handing out clones.
type InMemory struct {
	mu        sync.RWMutex
	transfers map[domain.TransferID]*models.Transfer
}

func NewInMemory() *InMemory {
	return &InMemory{transfers: make(map[domain.TransferID]*models.Transfer)}
}

func (s *InMemory) Get(_ context.Context, transferID domain.TransferID) (*models.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	transfer, ok := s.transfers[transferID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneTransfer(transfer), nil
}

func (s *InMemory) Save(_ context.Context, transfer *models.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transfers[transfer.ID]; exists {
		return sentinel.ErrConflict
	}
	s.transfers[transfer.ID] = cloneTransfer(transfer)
	return nil
}

func (s *InMemory) Update(_ context.Context, transfer *models.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transfers[transfer.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.transfers[transfer.ID] = cloneTransfer(transfer)
	return nil
}

func (s *InMemory) Delete(_ context.Context, transferID domain.TransferID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transfers[transferID]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.transfers, transferID)
	return nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Transfer, 0, len(s.transfers))
	for _, transfer := range s.transfers {
		out = append(out, cloneTransfer(transfer))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) ListByParty(_ context.Context, userID domain.UserID) ([]*models.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Transfer, 0)
	for _, transfer := range s.transfers {
		if transfer.InitiatedBy == userID || transfer.ToHolder == userID ||
			(transfer.FromHolder != nil && *transfer.FromHolder == userID) {
			out = append(out, cloneTransfer(transfer))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func cloneTransfer(t *models.Transfer) *models.Transfer {
	clone := *t
	if t.FromHolder != nil {
		from := *t.FromHolder
		clone.FromHolder = &from
	}
	clone.CompletedAt = cloneTime(t.CompletedAt)
	clone.RejectedAt = cloneTime(t.RejectedAt)
	return &clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	tt := *t
	return &tt
}
