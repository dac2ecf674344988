// Package store provides request persistence.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"stokri/internal/request/models"
	"stokri/pkg/domain"
	"stokri/pkg/platform/sentinel"
)

// InMemory keeps requests in a map, handing out clones.
type InMemory struct {
	mu       sync.RWMutex
	requests map[domain.RequestID]*models.Request
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[domain.RequestID]*models.Request)}
}

func (s *InMemory) Get(_ context.Context, requestID domain.RequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	request, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRequest(request), nil
}

func (s *InMemory) Save(_ context.Context, request *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[request.ID]; exists {
		return sentinel.ErrConflict
	}
	s.requests[request.ID] = cloneRequest(request)
	return nil
}

func (s *InMemory) Update(_ context.Context, request *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[request.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.requests[request.ID] = cloneRequest(request)
	return nil
}

func (s *InMemory) Delete(_ context.Context, requestID domain.RequestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[requestID]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.requests, requestID)
	return nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Request, 0, len(s.requests))
	for _, request := range s.requests {
		out = append(out, cloneRequest(request))
	}
	sortRequests(out)
	return out, nil
}

func (s *InMemory) ListByRequester(_ context.Context, requester domain.UserID) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Request
	for _, request := range s.requests {
		if request.Requester == requester {
			out = append(out, cloneRequest(request))
		}
	}
	sortRequests(out)
	return out, nil
}

func sortRequests(requests []*models.Request) {
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.Before(requests[j].CreatedAt)
	})
}

func cloneRequest(r *models.Request) *models.Request {
	clone := *r
	clone.ReturnedWith = cloneCondition(r.ReturnedWith)
	clone.VerifiedWith = cloneCondition(r.VerifiedWith)
	if r.Verifier != nil {
		verifier := *r.Verifier
		clone.Verifier = &verifier
	}
	clone.FulfilledAt = cloneTime(r.FulfilledAt)
	clone.RejectedAt = cloneTime(r.RejectedAt)
	clone.ReturnedAt = cloneTime(r.ReturnedAt)
	clone.VerifiedAt = cloneTime(r.VerifiedAt)
	return &clone
}

func cloneCondition(c *models.Condition) *models.Condition {
	if c == nil {
		return nil
	}
	cc := *c
	return &cc
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	tt := *t
	return &tt
}
