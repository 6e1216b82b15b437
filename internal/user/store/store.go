package store

import (
	"context"

	"hearth/internal/user/models"
	"hearth/pkg/domain"
)

// Store is the persistence boundary for the user slice. Stores return
// sentinel errors; services translate them into domain errors.
type Store interface {
	Save(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id domain.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ListByHousehold(ctx context.Context, householdID domain.HouseholdID) ([]*models.User, error)
	// ListWithPosition returns users that have reported a last known position.
	ListWithPosition(ctx context.Context) ([]*models.User, error)
	// SetHousehold atomically repoints the user's household reference.
	// A nil householdID clears it.
	SetHousehold(ctx context.Context, id domain.UserID, householdID *domain.HouseholdID) error
	// ClearHousehold detaches every member of the household. Used by the
	// cascade delete inside its transaction.
	ClearHousehold(ctx context.Context, householdID domain.HouseholdID) error
}
