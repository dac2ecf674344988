package notify

import (
	"context"
	"sync"

	"stokri/pkg/domain"
	"stokri/pkg/platform/sentinel"
)

// InMemoryStore keeps notifications per recipient. Test double and dev-mode
// backend.
type InMemoryStore struct {
	mu            sync.RWMutex
	notifications map[domain.UserID][]*Notification
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{notifications: make(map[domain.UserID][]*Notification)}
}

func (s *InMemoryStore) Append(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *n
	s.notifications[n.Recipient] = append(s.notifications[n.Recipient], &clone)
	return nil
}

func (s *InMemoryStore) ListByRecipient(_ context.Context, recipient domain.UserID) ([]*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Notification, 0, len(s.notifications[recipient]))
	for _, n := range s.notifications[recipient] {
		clone := *n
		out = append(out, &clone)
	}
	return out, nil
}

func (s *InMemoryStore) MarkRead(_ context.Context, id domain.NotificationID, recipient domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications[recipient] {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return sentinel.ErrNotFound
}
