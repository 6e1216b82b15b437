package store

import (
	"context"

	"hearth/internal/notification/models"
	"hearth/pkg/domain"
)

// Store is the persistence boundary for notifications.
type Store interface {
	Create(ctx context.Context, notification *models.Notification) error
	FindByID(ctx context.Context, id domain.NotificationID) (*models.Notification, error)
	// MarkRead flips the read flag to true. Idempotent: marking an already
	// read notification succeeds.
	MarkRead(ctx context.Context, id domain.NotificationID) error
	// ListByRecipient returns the user's notifications, newest first.
	ListByRecipient(ctx context.Context, recipientID domain.UserID) ([]*models.Notification, error)
}
