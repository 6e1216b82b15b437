package store

import (
	"context"
	"slices"
	"sync"

	"hearth/internal/membership/models"
	"hearth/pkg/domain"
	"hearth/pkg/platform/sentinel"
)

// MemoryStore keeps membership requests in a mutex-guarded map. The guarded
// transition checks status under the same lock that writes it, matching the
// SQL store's conditional-update semantics.
type MemoryStore struct {
	mu       sync.RWMutex
	requests map[domain.RequestID]*models.Request
}

func NewMemory() *MemoryStore {
	return &MemoryStore{requests: make(map[domain.RequestID]*models.Request)}
}

func (s *MemoryStore) Create(_ context.Context, request *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *request
	s.requests[request.ID] = &copied
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id domain.RequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if request, ok := s.requests[id]; ok {
		copied := *request
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) UpdateStatusIfPending(_ context.Context, id domain.RequestID, status models.RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if request.Status != models.StatusPending {
		return sentinel.ErrInvalidState
	}
	request.Status = status
	return nil
}

func (s *MemoryStore) SetStatus(_ context.Context, id domain.RequestID, status models.RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	request.Status = status
	return nil
}

func (s *MemoryStore) List(_ context.Context, filter Filter) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []*models.Request
	for _, request := range s.requests {
		if !matchesFilter(request, filter) {
			continue
		}
		copied := *request
		matches = append(matches, &copied)
	}
	slices.SortFunc(matches, func(a, b *models.Request) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return matches, nil
}

func (s *MemoryStore) DeleteByHousehold(_ context.Context, householdID domain.HouseholdID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, request := range s.requests {
		if request.HouseholdID == householdID {
			delete(s.requests, id)
		}
	}
	return nil
}

func matchesFilter(request *models.Request, filter Filter) bool {
	if !filter.ReceiverID.IsZero() && request.ReceiverID != filter.ReceiverID {
		return false
	}
	if !filter.HouseholdID.IsZero() && request.HouseholdID != filter.HouseholdID {
		return false
	}
	if filter.Type != "" && request.Type != filter.Type {
		return false
	}
	if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, request.Status) {
		return false
	}
	return true
}
