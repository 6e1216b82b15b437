// Package service owns the durable notification records and the
// persist-then-push flow: every notified event is written to the store
// first, then pushed to live connections best-effort.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hearth/internal/cache"
	"hearth/internal/geo"
	"hearth/internal/notification/dispatch"
	"hearth/internal/notification/models"
	"hearth/internal/notification/store"
	"hearth/internal/platform/metrics"
	usermodels "hearth/internal/user/models"
	"hearth/pkg/domain"
	dErrors "hearth/pkg/domain-errors"
	"hearth/pkg/platform/sentinel"
)

// UserDirectory resolves recipients. Household fan-out and geo targeting
// both need the registered-member views.
type UserDirectory interface {
	FindByID(ctx context.Context, id domain.UserID) (*usermodels.User, error)
	ListByHousehold(ctx context.Context, householdID domain.HouseholdID) ([]*usermodels.User, error)
}

// IncidentResolver selects users inside an incident's alert radius.
type IncidentResolver interface {
	UsersWithinIncidentRadius(ctx context.Context, incident geo.Incident) ([]*usermodels.User, error)
}

// alertDedupeTTL suppresses repeat incident alerts to the same user when
// overlapping incidents are reported in quick succession.
const alertDedupeTTL = 15 * time.Minute

type Service struct {
	notifications store.Store
	users         UserDirectory
	resolver      IncidentResolver
	dispatcher    *dispatch.Dispatcher
	recent        cache.Store
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

func New(
	notifications store.Store,
	users UserDirectory,
	resolver IncidentResolver,
	dispatcher *dispatch.Dispatcher,
	recent cache.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		notifications: notifications,
		users:         users,
		resolver:      resolver,
		dispatcher:    dispatcher,
		recent:        recent,
		metrics:       m,
		logger:        logger,
	}
}

// Save persists one notification for one recipient. The recipient must
// resolve to a known user.
func (s *Service) Save(ctx context.Context, recipientID domain.UserID, notifType models.Type, message string) (*models.Notification, error) {
	if _, err := s.users.FindByID(ctx, recipientID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "recipient not found")
		}
		return nil, fmt.Errorf("resolve recipient: %w", err)
	}
	return s.persist(ctx, recipientID, notifType, message)
}

// SaveForHousehold persists one notification per current registered member.
func (s *Service) SaveForHousehold(ctx context.Context, householdID domain.HouseholdID, notifType models.Type, message string) ([]*models.Notification, error) {
	members, err := s.users.ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("list household members: %w", err)
	}

	saved := make([]*models.Notification, 0, len(members))
	for _, member := range members {
		notification, err := s.persist(ctx, member.ID, notifType, message)
		if err != nil {
			return nil, err
		}
		saved = append(saved, notification)
	}
	return saved, nil
}

// MarkRead flips the read flag. Only the recipient may mark their own
// notification; marking an already read one succeeds.
func (s *Service) MarkRead(ctx context.Context, callerID domain.UserID, id domain.NotificationID) error {
	notification, err := s.notifications.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return fmt.Errorf("find notification: %w", err)
	}
	if notification.RecipientID != callerID {
		return dErrors.New(dErrors.CodeForbidden, "notification belongs to another user")
	}
	if notification.Read {
		return nil
	}
	if err := s.notifications.MarkRead(ctx, id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// List returns the caller's notifications, newest first.
func (s *Service) List(ctx context.Context, callerID domain.UserID) ([]*models.Notification, error) {
	notifications, err := s.notifications.ListByRecipient(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// NotifyUser persists a notification and pushes it to the recipient's live
// connections. The push can fail silently; the record cannot.
func (s *Service) NotifyUser(ctx context.Context, recipientID domain.UserID, notifType models.Type, message string) error {
	if _, err := s.Save(ctx, recipientID, notifType, message); err != nil {
		return err
	}
	s.dispatcher.Private(ctx, recipientID, string(notifType), message)
	return nil
}

// NotifyHousehold persists per-member records then fans out to every member.
func (s *Service) NotifyHousehold(ctx context.Context, householdID domain.HouseholdID, notifType models.Type, message string) error {
	if _, err := s.SaveForHousehold(ctx, householdID, notifType, message); err != nil {
		return err
	}
	s.dispatcher.Household(ctx, householdID, string(notifType), message)
	return nil
}

// NotifyAll pushes a broadcast to every connected client. Broadcasts are
// push-only: no durable record is written because there is no fixed
// recipient set.
func (s *Service) NotifyAll(ctx context.Context, notifType models.Type, message string) {
	s.dispatcher.Global(ctx, string(notifType), message)
}

// IncidentAlert resolves users inside the incident's alert radius and sends
// each a persisted INCIDENT notification. Users that no longer resolve are
// logged and skipped. Returns how many users were alerted.
func (s *Service) IncidentAlert(ctx context.Context, incident geo.Incident) (int, error) {
	targets, err := s.resolver.UsersWithinIncidentRadius(ctx, incident)
	if err != nil {
		return 0, fmt.Errorf("resolve incident targets: %w", err)
	}

	message := incidentMessage(incident)
	alerted := 0
	for _, target := range targets {
		key := "incident-alert:" + target.ID.String()
		if _, hit, err := s.recent.GetIfValid(ctx, key); err == nil && hit {
			continue
		}
		if err := s.NotifyUser(ctx, target.ID, models.TypeIncident, message); err != nil {
			s.logger.WarnContext(ctx, "skipping unresolvable incident target",
				"user_id", target.ID.String(), "error", err)
			continue
		}
		if err := s.recent.Put(ctx, key, "1", alertDedupeTTL); err != nil {
			s.logger.WarnContext(ctx, "alert dedupe write failed",
				"user_id", target.ID.String(), "error", err)
		}
		alerted++
	}
	s.metrics.IncidentAlertsSent.Add(float64(alerted))
	return alerted, nil
}

func (s *Service) persist(ctx context.Context, recipientID domain.UserID, notifType models.Type, message string) (*models.Notification, error) {
	notification := &models.Notification{
		ID:          domain.NewNotificationID(),
		RecipientID: recipientID,
		Type:        notifType,
		Message:     message,
		Timestamp:   time.Now(),
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	s.metrics.NotificationsPersisted.Inc()
	return notification, nil
}

func incidentMessage(incident geo.Incident) string {
	return fmt.Sprintf("Incident reported near your location (severity %s). Stay alert and follow local guidance.", incident.Severity)
}
