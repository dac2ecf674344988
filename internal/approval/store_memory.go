package approval

import (
	"context"
	"sync"

	"stokri/pkg/domain"
)

// InMemoryStore keeps approval records in append order.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []*Approval
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, record *Approval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *record
	s.records = append(s.records, &clone)
	return nil
}

func (s *InMemoryStore) ListByRequest(_ context.Context, requestID domain.RequestID) ([]*Approval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Approval
	for _, record := range s.records {
		if record.RequestID != nil && *record.RequestID == requestID {
			clone := *record
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListByTransfer(_ context.Context, transferID domain.TransferID) ([]*Approval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Approval
	for _, record := range s.records {
		if record.TransferID != nil && *record.TransferID == transferID {
			clone := *record
			out = append(out, &clone)
		}
	}
	return out, nil
}
