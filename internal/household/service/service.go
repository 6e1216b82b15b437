// Package service implements the membership directory: household lifecycle,
// member moves, ownership transfer, and unregistered members. It owns the
// member-counter invariant (counter == registered + unregistered members,
// owner always counted) and leans on the store's atomic counter update to
// keep it under concurrency.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	hhmodels "hearth/internal/household/models"
	hhstore "hearth/internal/household/store"
	notifmodels "hearth/internal/notification/models"
	"hearth/internal/platform/metrics"
	usermodels "hearth/internal/user/models"
	userstore "hearth/internal/user/store"
	"hearth/pkg/domain"
	dErrors "hearth/pkg/domain-errors"
	"hearth/pkg/platform/sentinel"
	"hearth/pkg/platform/tx"
)

// Notifier is the slice of the notification service the directory uses.
// Failures past persistence never fail a directory mutation.
type Notifier interface {
	NotifyUser(ctx context.Context, recipientID domain.UserID, notifType notifmodels.Type, message string) error
	NotifyHousehold(ctx context.Context, householdID domain.HouseholdID, notifType notifmodels.Type, message string) error
}

// householdCodeAttempts bounds how often creation redraws a colliding code.
const householdCodeAttempts = 5

type Service struct {
	households hhstore.Store
	users      userstore.Store
	requests   RequestJanitor
	notifier   Notifier
	runner     tx.Runner
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// RequestJanitor removes a deleted household's membership requests inside
// the cascade transaction.
type RequestJanitor interface {
	DeleteByHousehold(ctx context.Context, householdID domain.HouseholdID) error
}

func New(
	households hhstore.Store,
	users userstore.Store,
	requests RequestJanitor,
	notifier Notifier,
	runner tx.Runner,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		households: households,
		users:      users,
		requests:   requests,
		notifier:   notifier,
		runner:     runner,
		metrics:    m,
		logger:     logger,
	}
}

// CreateHousehold creates a household owned by the caller and moves the
// caller into it. Callers already in a household must leave first.
func (s *Service) CreateHousehold(ctx context.Context, callerID domain.UserID, name, address string) (*hhmodels.Household, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "household name is required")
	}

	caller, err := s.findUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.HouseholdID != nil {
		return nil, dErrors.New(dErrors.CodeConflict, "user already belongs to a household")
	}

	household := &hhmodels.Household{
		Name:        name,
		Address:     address,
		OwnerID:     callerID,
		MemberCount: 1,
	}

	// Codes are short enough to collide; take a fresh one and try again.
	for attempt := 0; attempt < householdCodeAttempts; attempt++ {
		household.ID = domain.NewHouseholdID()
		err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.households.Create(ctx, household); err != nil {
				return fmt.Errorf("create household: %w", err)
			}
			if err := s.users.SetHousehold(ctx, callerID, &household.ID); err != nil {
				return fmt.Errorf("assign owner to household: %w", err)
			}
			return nil
		})
		if err == nil || !errors.Is(err, sentinel.ErrConflict) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	s.metrics.HouseholdsCreated.Inc()
	return household, nil
}

// GetHousehold returns the caller's current household.
func (s *Service) GetHousehold(ctx context.Context, callerID domain.UserID) (*hhmodels.Household, error) {
	caller, err := s.findUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.HouseholdID == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "user has no household")
	}
	household, err := s.households.FindByID(ctx, *caller.HouseholdID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "household not found")
		}
		return nil, fmt.Errorf("find household: %w", err)
	}
	return household, nil
}

// AddUser moves a user into the household. A user already elsewhere is moved:
// the old household's counter is decremented, the new one incremented, and
// the membership pointer repointed, all in one transaction.
func (s *Service) AddUser(ctx context.Context, userID domain.UserID, householdID domain.HouseholdID) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.InHousehold(householdID) {
		return dErrors.New(dErrors.CodeConflict, "user is already a member of this household")
	}
	if _, err := s.households.FindByID(ctx, householdID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "household not found")
		}
		return fmt.Errorf("find household: %w", err)
	}

	previous := user.HouseholdID
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if previous != nil {
			if err := s.adjustCount(ctx, *previous, -1); err != nil {
				return err
			}
		}
		if err := s.adjustCount(ctx, householdID, +1); err != nil {
			return err
		}
		if err := s.users.SetHousehold(ctx, userID, &householdID); err != nil {
			return fmt.Errorf("set user household: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.MembershipJoins.Inc()
	s.notifyHousehold(ctx, householdID, notifmodels.TypeHousehold,
		fmt.Sprintf("%s has joined the household.", user.FullName))
	s.notifyUser(ctx, userID, notifmodels.TypeHousehold, "You have joined a household.")
	return nil
}

// AddMember adds a user to the caller's own household. Owner only; the
// member-request workflow calls AddUser directly instead.
func (s *Service) AddMember(ctx context.Context, callerID, userID domain.UserID) error {
	household, err := s.ownedHousehold(ctx, callerID)
	if err != nil {
		return err
	}
	return s.AddUser(ctx, userID, household.ID)
}

// RemoveUser detaches a member from the caller's household. Any fellow
// member may remove; the owner only leaves via ownership transfer or
// household deletion.
func (s *Service) RemoveUser(ctx context.Context, callerID, userID domain.UserID) error {
	caller, err := s.findUser(ctx, callerID)
	if err != nil {
		return err
	}
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.HouseholdID == nil {
		return dErrors.New(dErrors.CodeNotFound, "user has no household")
	}
	if caller.HouseholdID == nil || *caller.HouseholdID != *user.HouseholdID {
		return dErrors.New(dErrors.CodeConflict, "user belongs to a different household")
	}

	household, err := s.households.FindByID(ctx, *user.HouseholdID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "household not found")
		}
		return fmt.Errorf("find household: %w", err)
	}
	if household.OwnerID == userID {
		return dErrors.New(dErrors.CodeInvalidState, "owner cannot be removed from the household")
	}

	if err := s.detach(ctx, user, household.ID); err != nil {
		return err
	}

	s.notifyHousehold(ctx, household.ID, notifmodels.TypeHousehold,
		fmt.Sprintf("%s has left the household.", user.FullName))
	s.notifyUser(ctx, userID, notifmodels.TypeHousehold, "You have been removed from the household.")
	return nil
}

// Leave detaches the caller from their household. The owner cannot leave;
// they must transfer ownership or delete the household.
func (s *Service) Leave(ctx context.Context, callerID domain.UserID) error {
	caller, err := s.findUser(ctx, callerID)
	if err != nil {
		return err
	}
	if caller.HouseholdID == nil {
		return dErrors.New(dErrors.CodeNotFound, "user has no household")
	}

	household, err := s.households.FindByID(ctx, *caller.HouseholdID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "household not found")
		}
		return fmt.Errorf("find household: %w", err)
	}
	if household.OwnerID == callerID {
		return dErrors.New(dErrors.CodeInvalidState, "owner cannot leave the household")
	}

	if err := s.detach(ctx, caller, household.ID); err != nil {
		return err
	}

	s.notifyHousehold(ctx, household.ID, notifmodels.TypeHousehold,
		fmt.Sprintf("%s has left the household.", caller.FullName))
	return nil
}

// ChangeOwner transfers ownership of the caller's household to another
// current member.
func (s *Service) ChangeOwner(ctx context.Context, callerID, newOwnerID domain.UserID) error {
	household, err := s.ownedHousehold(ctx, callerID)
	if err != nil {
		return err
	}
	if newOwnerID == callerID {
		return dErrors.New(dErrors.CodeConflict, "user is already the owner")
	}

	newOwner, err := s.findUser(ctx, newOwnerID)
	if err != nil {
		return err
	}
	if !newOwner.InHousehold(household.ID) {
		return dErrors.New(dErrors.CodeConflict, "new owner must be a member of the household")
	}

	if err := s.households.UpdateOwner(ctx, household.ID, newOwnerID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "household not found")
		}
		return fmt.Errorf("update owner: %w", err)
	}

	s.notifyUser(ctx, newOwnerID, notifmodels.TypeHousehold,
		fmt.Sprintf("You are now the owner of %s.", household.Name))
	return nil
}

// DeleteHousehold removes the caller's household entirely: membership
// requests, unregistered members, member pointers, and the household row, in
// one transaction. Owner only.
func (s *Service) DeleteHousehold(ctx context.Context, callerID domain.UserID) error {
	household, err := s.ownedHousehold(ctx, callerID)
	if err != nil {
		return err
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.requests.DeleteByHousehold(ctx, household.ID); err != nil {
			return fmt.Errorf("delete household requests: %w", err)
		}
		if err := s.households.DeleteUnregisteredByHousehold(ctx, household.ID); err != nil {
			return fmt.Errorf("delete unregistered members: %w", err)
		}
		if err := s.users.ClearHousehold(ctx, household.ID); err != nil {
			return fmt.Errorf("clear member households: %w", err)
		}
		if err := s.households.Delete(ctx, household.ID); err != nil {
			return fmt.Errorf("delete household: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "household deleted",
		"household_id", household.ID.String(), "owner_id", callerID.String())
	return nil
}

// AddUnregisteredMember records a member without an account in the caller's
// household and counts them.
func (s *Service) AddUnregisteredMember(ctx context.Context, callerID domain.UserID, fullName string) (*hhmodels.UnregisteredMember, error) {
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "full name is required")
	}
	caller, err := s.findUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.HouseholdID == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "user is not in a household")
	}

	member := &hhmodels.UnregisteredMember{
		ID:          domain.NewMemberID(),
		FullName:    fullName,
		HouseholdID: *caller.HouseholdID,
	}
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.households.AddUnregistered(ctx, member); err != nil {
			return fmt.Errorf("add unregistered member: %w", err)
		}
		return s.adjustCount(ctx, member.HouseholdID, +1)
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// EditUnregisteredMember renames an unregistered member of the caller's
// household.
func (s *Service) EditUnregisteredMember(ctx context.Context, callerID domain.UserID, memberID domain.MemberID, fullName string) error {
	if fullName == "" {
		return dErrors.New(dErrors.CodeBadRequest, "full name is required")
	}
	if _, err := s.scopedUnregistered(ctx, callerID, memberID); err != nil {
		return err
	}
	if err := s.households.UpdateUnregistered(ctx, memberID, fullName); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		return fmt.Errorf("update unregistered member: %w", err)
	}
	return nil
}

// RemoveUnregisteredMember deletes an unregistered member of the caller's
// household and uncounts them.
func (s *Service) RemoveUnregisteredMember(ctx context.Context, callerID domain.UserID, memberID domain.MemberID) error {
	member, err := s.scopedUnregistered(ctx, callerID, memberID)
	if err != nil {
		return err
	}
	return s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.households.DeleteUnregistered(ctx, memberID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "member not found")
			}
			return fmt.Errorf("delete unregistered member: %w", err)
		}
		return s.adjustCount(ctx, member.HouseholdID, -1)
	})
}

// ListUnregisteredMembers returns the unregistered members of the caller's
// household.
func (s *Service) ListUnregisteredMembers(ctx context.Context, callerID domain.UserID) ([]*hhmodels.UnregisteredMember, error) {
	caller, err := s.findUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.HouseholdID == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "user is not in a household")
	}
	members, err := s.households.ListUnregistered(ctx, *caller.HouseholdID)
	if err != nil {
		return nil, fmt.Errorf("list unregistered members: %w", err)
	}
	return members, nil
}

func (s *Service) detach(ctx context.Context, user *usermodels.User, householdID domain.HouseholdID) error {
	return s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.adjustCount(ctx, householdID, -1); err != nil {
			return err
		}
		if err := s.users.SetHousehold(ctx, user.ID, nil); err != nil {
			return fmt.Errorf("clear user household: %w", err)
		}
		return nil
	})
}

func (s *Service) adjustCount(ctx context.Context, householdID domain.HouseholdID, delta int) error {
	err := s.households.AdjustMemberCount(ctx, householdID, delta)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "household not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeInvalidState, "household member count cannot drop below one")
	default:
		return fmt.Errorf("adjust member count: %w", err)
	}
}

// ownedHousehold loads the caller's household and verifies ownership.
func (s *Service) ownedHousehold(ctx context.Context, callerID domain.UserID) (*hhmodels.Household, error) {
	caller, err := s.findUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.HouseholdID == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "user is not in a household")
	}
	household, err := s.households.FindByID(ctx, *caller.HouseholdID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "household not found")
		}
		return nil, fmt.Errorf("find household: %w", err)
	}
	if household.OwnerID != callerID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the household owner may do this")
	}
	return household, nil
}

// scopedUnregistered loads an unregistered member and verifies it belongs to
// the caller's household.
func (s *Service) scopedUnregistered(ctx context.Context, callerID domain.UserID, memberID domain.MemberID) (*hhmodels.UnregisteredMember, error) {
	caller, err := s.findUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.HouseholdID == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "user is not in a household")
	}
	member, err := s.households.FindUnregistered(ctx, memberID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		return nil, fmt.Errorf("find unregistered member: %w", err)
	}
	if member.HouseholdID != *caller.HouseholdID {
		return nil, dErrors.New(dErrors.CodeForbidden, "member belongs to another household")
	}
	return member, nil
}

func (s *Service) findUser(ctx context.Context, id domain.UserID) (*usermodels.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *Service) notifyUser(ctx context.Context, userID domain.UserID, notifType notifmodels.Type, message string) {
	if err := s.notifier.NotifyUser(ctx, userID, notifType, message); err != nil {
		s.logger.WarnContext(ctx, "member notification failed",
			"user_id", userID.String(), "error", err)
	}
}

func (s *Service) notifyHousehold(ctx context.Context, householdID domain.HouseholdID, notifType notifmodels.Type, message string) {
	if err := s.notifier.NotifyHousehold(ctx, householdID, notifType, message); err != nil {
		s.logger.WarnContext(ctx, "household notification failed",
			"household_id", householdID.String(), "error", err)
	}
}
