package store

import (
	"context"
	"sync"

	"hearth/internal/user/models"
	"hearth/pkg/domain"
	"hearth/pkg/platform/sentinel"
)

// MemoryStore keeps users in a mutex-guarded map. It favors clarity over
// performance and doubles as the test store.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[domain.UserID]*models.User
}

func NewMemory() *MemoryStore {
	return &MemoryStore{users: make(map[domain.UserID]*models.User)}
}

func (s *MemoryStore) Save(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id domain.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) ListByHousehold(_ context.Context, householdID domain.HouseholdID) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var members []*models.User
	for _, user := range s.users {
		if user.InHousehold(householdID) {
			copied := *user
			members = append(members, &copied)
		}
	}
	return members, nil
}

func (s *MemoryStore) ListWithPosition(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var positioned []*models.User
	for _, user := range s.users {
		if user.Latitude != "" && user.Longitude != "" {
			copied := *user
			positioned = append(positioned, &copied)
		}
	}
	return positioned, nil
}

func (s *MemoryStore) SetHousehold(_ context.Context, id domain.UserID, householdID *domain.HouseholdID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if householdID == nil {
		user.HouseholdID = nil
		return nil
	}
	copied := *householdID
	user.HouseholdID = &copied
	return nil
}

func (s *MemoryStore) ClearHousehold(_ context.Context, householdID domain.HouseholdID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.InHousehold(householdID) {
			user.HouseholdID = nil
		}
	}
	return nil
}
