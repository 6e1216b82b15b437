// Package service implements the membership-request workflow: invitations
// from owners, join requests from users, and the guarded accept /
// unguarded decline-cancel transitions.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	hhmodels "hearth/internal/household/models"
	hhstore "hearth/internal/household/store"
	"hearth/internal/membership/models"
	"hearth/internal/membership/store"
	notifmodels "hearth/internal/notification/models"
	usermodels "hearth/internal/user/models"
	userstore "hearth/internal/user/store"
	"hearth/pkg/domain"
	dErrors "hearth/pkg/domain-errors"
	"hearth/pkg/email"
	"hearth/pkg/platform/sentinel"
)

// Directory is the membership-directory slice the workflow delegates to when
// an accepted request actually moves a user.
type Directory interface {
	AddUser(ctx context.Context, userID domain.UserID, householdID domain.HouseholdID) error
}

// Notifier persists and pushes notifications for workflow events.
type Notifier interface {
	NotifyUser(ctx context.Context, recipientID domain.UserID, notifType notifmodels.Type, message string) error
	NotifyAll(ctx context.Context, notifType notifmodels.Type, message string)
}

type Service struct {
	requests   store.Store
	users      userstore.Store
	households hhstore.Store
	directory  Directory
	notifier   Notifier
	mailer     email.Sender
	logger     *slog.Logger
}

func New(
	requests store.Store,
	users userstore.Store,
	households hhstore.Store,
	directory Directory,
	notifier Notifier,
	mailer email.Sender,
	logger *slog.Logger,
) *Service {
	return &Service{
		requests:   requests,
		users:      users,
		households: households,
		directory:  directory,
		notifier:   notifier,
		mailer:     mailer,
		logger:     logger,
	}
}

// SendInvitation invites a user by email into the caller's household. Only
// the owner may invite; a second PENDING invitation to the same user for the
// same household is a conflict.
func (s *Service) SendInvitation(ctx context.Context, callerID domain.UserID, receiverEmail string) (*models.Request, error) {
	caller, household, err := s.callerHousehold(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if household.OwnerID != callerID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the household owner may send invitations")
	}

	receiver, err := s.users.FindByEmail(ctx, receiverEmail)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no user with that email")
		}
		return nil, fmt.Errorf("find receiver: %w", err)
	}
	if receiver.InHousehold(household.ID) {
		return nil, dErrors.New(dErrors.CodeConflict, "user is already a member of this household")
	}

	pending, err := s.requests.List(ctx, store.Filter{
		ReceiverID:  receiver.ID,
		HouseholdID: household.ID,
		Type:        models.TypeInvitation,
		Statuses:    []models.RequestStatus{models.StatusPending},
	})
	if err != nil {
		return nil, fmt.Errorf("check pending invitations: %w", err)
	}
	if len(pending) > 0 {
		return nil, dErrors.New(dErrors.CodeConflict, "an invitation for this user is already pending")
	}

	request := &models.Request{
		ID:          domain.NewRequestID(),
		HouseholdID: household.ID,
		SenderID:    callerID,
		ReceiverID:  receiver.ID,
		Type:        models.TypeInvitation,
		Status:      models.StatusPending,
		CreatedAt:   time.Now(),
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	s.notify(ctx, receiver.ID, notifmodels.TypeInvitation,
		fmt.Sprintf("%s invited you to join %s.", caller.FullName, household.Name))
	s.sendInvitationEmail(ctx, receiver, caller, household)
	return request, nil
}

// SendJoinRequest asks the owner of a household to admit the caller. The
// resulting notification is a global broadcast, matching long-standing
// observable behavior.
func (s *Service) SendJoinRequest(ctx context.Context, callerID domain.UserID, householdID domain.HouseholdID) (*models.Request, error) {
	caller, err := s.findUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.InHousehold(householdID) {
		return nil, dErrors.New(dErrors.CodeConflict, "user is already a member of this household")
	}

	household, err := s.households.FindByID(ctx, householdID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "household not found")
		}
		return nil, fmt.Errorf("find household: %w", err)
	}

	request := &models.Request{
		ID:          domain.NewRequestID(),
		HouseholdID: household.ID,
		SenderID:    callerID,
		ReceiverID:  household.OwnerID,
		Type:        models.TypeJoinRequest,
		Status:      models.StatusPending,
		CreatedAt:   time.Now(),
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("create join request: %w", err)
	}

	s.notifier.NotifyAll(ctx, notifmodels.TypeMembershipRequest,
		fmt.Sprintf("%s wants to join %s.", caller.FullName, household.Name))
	return request, nil
}

// AcceptJoinRequest lets the household owner admit the requester. The
// transition succeeds only while the request is still PENDING; the losing
// side of a race gets an invalid-state error.
func (s *Service) AcceptJoinRequest(ctx context.Context, callerID domain.UserID, requestID domain.RequestID) error {
	request, err := s.findRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.Type != models.TypeJoinRequest {
		return dErrors.New(dErrors.CodeBadRequest, "request is not a join request")
	}
	if request.ReceiverID != callerID {
		return dErrors.New(dErrors.CodeForbidden, "only the household owner may accept this request")
	}
	return s.accept(ctx, request)
}

// AcceptInvitation lets the invitee join the inviting household. Same
// PENDING-only guard as AcceptJoinRequest.
func (s *Service) AcceptInvitation(ctx context.Context, callerID domain.UserID, requestID domain.RequestID) error {
	request, err := s.findRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.Type != models.TypeInvitation {
		return dErrors.New(dErrors.CodeBadRequest, "request is not an invitation")
	}
	if request.ReceiverID != callerID {
		return dErrors.New(dErrors.CodeForbidden, "only the invited user may accept this invitation")
	}
	return s.accept(ctx, request)
}

// DeclineRequest marks the request REJECTED. The write is unconditional:
// declining an already terminal request overwrites its status. Callers rely
// on this, so don't add a PENDING guard here.
func (s *Service) DeclineRequest(ctx context.Context, callerID domain.UserID, requestID domain.RequestID) error {
	request, err := s.findRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.ReceiverID != callerID {
		return dErrors.New(dErrors.CodeForbidden, "only the receiver may decline this request")
	}
	if err := s.requests.SetStatus(ctx, requestID, models.StatusRejected); err != nil {
		return fmt.Errorf("decline request: %w", err)
	}
	return nil
}

// CancelRequest marks the request CANCELED. Unconditional like decline.
func (s *Service) CancelRequest(ctx context.Context, callerID domain.UserID, requestID domain.RequestID) error {
	request, err := s.findRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.SenderID != callerID {
		return dErrors.New(dErrors.CodeForbidden, "only the sender may cancel this request")
	}
	if err := s.requests.SetStatus(ctx, requestID, models.StatusCanceled); err != nil {
		return fmt.Errorf("cancel request: %w", err)
	}
	return nil
}

// ReceivedInvitations lists PENDING invitations addressed to the caller.
func (s *Service) ReceivedInvitations(ctx context.Context, callerID domain.UserID) ([]*models.Request, error) {
	return s.list(ctx, store.Filter{
		ReceiverID: callerID,
		Type:       models.TypeInvitation,
		Statuses:   []models.RequestStatus{models.StatusPending},
	})
}

// ReceivedJoinRequests lists PENDING join requests for the caller's
// household. Only meaningful for owners; others see an empty list.
func (s *Service) ReceivedJoinRequests(ctx context.Context, callerID domain.UserID) ([]*models.Request, error) {
	return s.list(ctx, store.Filter{
		ReceiverID: callerID,
		Type:       models.TypeJoinRequest,
		Statuses:   []models.RequestStatus{models.StatusPending},
	})
}

// AcceptedJoinRequests lists the caller's join requests that were accepted.
func (s *Service) AcceptedJoinRequests(ctx context.Context, callerID domain.UserID) ([]*models.Request, error) {
	requests, err := s.list(ctx, store.Filter{
		Type:     models.TypeJoinRequest,
		Statuses: []models.RequestStatus{models.StatusAccepted},
	})
	if err != nil {
		return nil, err
	}
	var sent []*models.Request
	for _, request := range requests {
		if request.SenderID == callerID {
			sent = append(sent, request)
		}
	}
	return sent, nil
}

// SentInvitations lists PENDING invitations the caller has sent.
func (s *Service) SentInvitations(ctx context.Context, callerID domain.UserID) ([]*models.Request, error) {
	caller, err := s.findUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.HouseholdID == nil {
		return []*models.Request{}, nil
	}
	requests, err := s.list(ctx, store.Filter{
		HouseholdID: *caller.HouseholdID,
		Type:        models.TypeInvitation,
		Statuses:    []models.RequestStatus{models.StatusPending},
	})
	if err != nil {
		return nil, err
	}
	var sent []*models.Request
	for _, request := range requests {
		if request.SenderID == callerID {
			sent = append(sent, request)
		}
	}
	return sent, nil
}

func (s *Service) accept(ctx context.Context, request *models.Request) error {
	err := s.requests.UpdateStatusIfPending(ctx, request.ID, models.StatusAccepted)
	switch {
	case err == nil:
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeInvalidState, "request is no longer pending")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "request not found")
	default:
		return fmt.Errorf("accept request: %w", err)
	}

	if err := s.directory.AddUser(ctx, request.JoiningUserID(), request.HouseholdID); err != nil {
		return err
	}

	s.notify(ctx, request.SenderID, notifmodels.TypeMembershipRequest, "Your request was accepted.")
	return nil
}

func (s *Service) list(ctx context.Context, filter store.Filter) ([]*models.Request, error) {
	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return requests, nil
}

func (s *Service) findRequest(ctx context.Context, id domain.RequestID) (*models.Request, error) {
	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "request not found")
		}
		return nil, fmt.Errorf("find request: %w", err)
	}
	return request, nil
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

func (s *Service) callerHousehold(ctx context.Context, callerID domain.UserID) (*usermodels.User, *hhmodels.Household, error) {
	caller, err := s.findUser(ctx, callerID)
	if err != nil {
		return nil, nil, err
	}
	if caller.HouseholdID == nil {
		return nil, nil, dErrors.New(dErrors.CodeConflict, "user is not in a household")
	}
	household, err := s.households.FindByID(ctx, *caller.HouseholdID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "household not found")
		}
		return nil, nil, fmt.Errorf("find household: %w", err)
	}
	return caller, household, nil
}

func (s *Service) notify(ctx context.Context, userID domain.UserID, notifType notifmodels.Type, message string) {
	if err := s.notifier.NotifyUser(ctx, userID, notifType, message); err != nil {
		s.logger.WarnContext(ctx, "workflow notification failed",
			"user_id", userID.String(), "error", err)
	}
}

func (s *Service) sendInvitationEmail(ctx context.Context, receiver, sender *usermodels.User, household *hhmodels.Household) {
	firstName, _ := email.DeriveNameFromEmail(receiver.Email)
	subject := fmt.Sprintf("Invitation to join %s", household.Name)
	body := fmt.Sprintf("Hi %s,\n\n%s invited you to join the household %q. Open the app to accept or decline.\n",
		firstName, sender.FullName, household.Name)
	if err := s.mailer.Send(ctx, receiver.Email, subject, body); err != nil {
		s.logger.WarnContext(ctx, "invitation email failed",
			"receiver", receiver.Email, "error", err)
	}
}
