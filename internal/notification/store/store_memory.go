package store

import (
	"context"
	"slices"
	"sync"

	"hearth/internal/notification/models"
	"hearth/pkg/domain"
	"hearth/pkg/platform/sentinel"
)

// MemoryStore keeps notifications in a mutex-guarded map.
type MemoryStore struct {
	mu            sync.RWMutex
	notifications map[domain.NotificationID]*models.Notification
}

func NewMemory() *MemoryStore {
	return &MemoryStore{notifications: make(map[domain.NotificationID]*models.Notification)}
}

func (s *MemoryStore) Create(_ context.Context, notification *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *notification
	s.notifications[notification.ID] = &copied
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id domain.NotificationID) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if notification, ok := s.notifications[id]; ok {
		copied := *notification
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) MarkRead(_ context.Context, id domain.NotificationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	notification, ok := s.notifications[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	notification.Read = true
	return nil
}

func (s *MemoryStore) ListByRecipient(_ context.Context, recipientID domain.UserID) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []*models.Notification
	for _, notification := range s.notifications {
		if notification.RecipientID == recipientID {
			copied := *notification
			matches = append(matches, &copied)
		}
	}
	slices.SortFunc(matches, func(a, b *models.Notification) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return matches, nil
}
