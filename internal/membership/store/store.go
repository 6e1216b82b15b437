package store

import (
	"context"

	"hearth/internal/membership/models"
	"hearth/pkg/domain"
)

// Filter narrows request listings. Zero values mean "any".
type Filter struct {
	ReceiverID  domain.UserID
	HouseholdID domain.HouseholdID
	Type        models.RequestType
	Statuses    []models.RequestStatus
}

// Store is the persistence boundary for membership requests.
type Store interface {
	Create(ctx context.Context, request *models.Request) error
	FindByID(ctx context.Context, id domain.RequestID) (*models.Request, error)
	// UpdateStatusIfPending performs the guarded transition: it succeeds only
	// when the stored status is still PENDING, otherwise it returns
	// sentinel.ErrInvalidState (or ErrNotFound for unknown ids). Two
	// concurrent accepts on the same request cannot both succeed.
	UpdateStatusIfPending(ctx context.Context, id domain.RequestID, status models.RequestStatus) error
	// SetStatus writes the status unconditionally. Decline and cancel use
	// this on purpose; see models.RequestStatus.
	SetStatus(ctx context.Context, id domain.RequestID, status models.RequestStatus) error
	List(ctx context.Context, filter Filter) ([]*models.Request, error)
	DeleteByHousehold(ctx context.Context, householdID domain.HouseholdID) error
}
