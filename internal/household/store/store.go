package store

import (
	"context"

	"hearth/internal/household/models"
	"hearth/pkg/domain"
)

// Store is the persistence boundary for households and their unregistered
// members.
type Store interface {
	Create(ctx context.Context, household *models.Household) error
	FindByID(ctx context.Context, id domain.HouseholdID) (*models.Household, error)
	UpdateOwner(ctx context.Context, id domain.HouseholdID, ownerID domain.UserID) error
	// AdjustMemberCount applies delta atomically. It fails with
	// sentinel.ErrInvalidState when the result would drop below one (the
	// owner is always counted), and sentinel.ErrNotFound for unknown ids.
	AdjustMemberCount(ctx context.Context, id domain.HouseholdID, delta int) error
	Delete(ctx context.Context, id domain.HouseholdID) error

	AddUnregistered(ctx context.Context, member *models.UnregisteredMember) error
	FindUnregistered(ctx context.Context, id domain.MemberID) (*models.UnregisteredMember, error)
	UpdateUnregistered(ctx context.Context, id domain.MemberID, fullName string) error
	DeleteUnregistered(ctx context.Context, id domain.MemberID) error
	ListUnregistered(ctx context.Context, householdID domain.HouseholdID) ([]*models.UnregisteredMember, error)
	DeleteUnregisteredByHousehold(ctx context.Context, householdID domain.HouseholdID) error
}
