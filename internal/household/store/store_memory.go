package store

import (
	"context"
	"sync"

	"hearth/internal/household/models"
	"hearth/pkg/domain"
	"hearth/pkg/platform/sentinel"
)

// MemoryStore keeps households in mutex-guarded maps. The counter adjustment
// mirrors the conditional semantics of the SQL store: the check and the
// write happen under one lock.
type MemoryStore struct {
	mu           sync.RWMutex
	households   map[domain.HouseholdID]*models.Household
	unregistered map[domain.MemberID]*models.UnregisteredMember
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		households:   make(map[domain.HouseholdID]*models.Household),
		unregistered: make(map[domain.MemberID]*models.UnregisteredMember),
	}
}

func (s *MemoryStore) Create(_ context.Context, household *models.Household) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.households[household.ID]; ok {
		return sentinel.ErrConflict
	}
	copied := *household
	s.households[household.ID] = &copied
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id domain.HouseholdID) (*models.Household, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if household, ok := s.households[id]; ok {
		copied := *household
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) UpdateOwner(_ context.Context, id domain.HouseholdID, ownerID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	household, ok := s.households[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	household.OwnerID = ownerID
	return nil
}

func (s *MemoryStore) AdjustMemberCount(_ context.Context, id domain.HouseholdID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	household, ok := s.households[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if household.MemberCount+delta < 1 {
		return sentinel.ErrInvalidState
	}
	household.MemberCount += delta
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id domain.HouseholdID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.households[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.households, id)
	return nil
}

func (s *MemoryStore) AddUnregistered(_ context.Context, member *models.UnregisteredMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.households[member.HouseholdID]; !ok {
		return sentinel.ErrNotFound
	}
	copied := *member
	s.unregistered[member.ID] = &copied
	return nil
}

func (s *MemoryStore) FindUnregistered(_ context.Context, id domain.MemberID) (*models.UnregisteredMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if member, ok := s.unregistered[id]; ok {
		copied := *member
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) UpdateUnregistered(_ context.Context, id domain.MemberID, fullName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	member, ok := s.unregistered[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	member.FullName = fullName
	return nil
}

func (s *MemoryStore) DeleteUnregistered(_ context.Context, id domain.MemberID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.unregistered[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.unregistered, id)
	return nil
}

func (s *MemoryStore) ListUnregistered(_ context.Context, householdID domain.HouseholdID) ([]*models.UnregisteredMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var members []*models.UnregisteredMember
	for _, member := range s.unregistered {
		if member.HouseholdID == householdID {
			copied := *member
			members = append(members, &copied)
		}
	}
	return members, nil
}

func (s *MemoryStore) DeleteUnregisteredByHousehold(_ context.Context, householdID domain.HouseholdID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, member := range s.unregistered {
		if member.HouseholdID == householdID {
			delete(s.unregistered, id)
		}
	}
	return nil
}
