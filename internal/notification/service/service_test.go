package service_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hearth/internal/cache"
	"hearth/internal/geo"
	"hearth/internal/notification/dispatch"
	"hearth/internal/notification/models"
	"hearth/internal/notification/service"
	notifstore "hearth/internal/notification/store"
	"hearth/internal/platform/metrics"
	"hearth/internal/realtime"
	usermodels "hearth/internal/user/models"
	userstore "hearth/internal/user/store"
	"hearth/pkg/domain"
	dErrors "hearth/pkg/domain-errors"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages []realtime.Message
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, msg realtime.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingPublisher) sent() []realtime.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]realtime.Message(nil), p.messages...)
}

type fixture struct {
	users         *userstore.MemoryStore
	notifications *notifstore.MemoryStore
	publisher     *recordingPublisher
	service       *service.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := userstore.NewMemory()
	notifications := notifstore.NewMemory()
	publisher := &recordingPublisher{}
	m := metrics.New(prometheus.NewRegistry())
	dispatcher := dispatch.New(publisher, users, nil, m, log)
	resolver := geo.NewResolver(users, log)
	return &fixture{
		users:         users,
		notifications: notifications,
		publisher:     publisher,
		service:       service.New(notifications, users, resolver, dispatcher, cache.NewMemory(), m, log),
	}
}

func (f *fixture) addUser(t *testing.T, user *usermodels.User) *usermodels.User {
	t.Helper()
	if user.ID.IsZero() {
		user.ID = domain.NewUserID()
	}
	require.NoError(t, f.users.Save(context.Background(), user))
	return user
}

func TestSave(t *testing.T) {
	ctx := context.Background()

	t.Run("persists for a known recipient", func(t *testing.T) {
		f := newFixture(t)
		recipient := f.addUser(t, &usermodels.User{Email: "anna@example.com"})

		notification, err := f.service.Save(ctx, recipient.ID, models.TypeInfo, "welcome")
		require.NoError(t, err)

		stored, err := f.notifications.FindByID(ctx, notification.ID)
		require.NoError(t, err)
		assert.Equal(t, recipient.ID, stored.RecipientID)
		assert.False(t, stored.Read)
	})

	t.Run("unknown recipient", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Save(ctx, domain.NewUserID(), models.TypeInfo, "welcome")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestSaveForHousehold(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	householdID := domain.NewHouseholdID()
	f.addUser(t, &usermodels.User{Email: "a@example.com", HouseholdID: &householdID})
	f.addUser(t, &usermodels.User{Email: "b@example.com", HouseholdID: &householdID})
	f.addUser(t, &usermodels.User{Email: "outsider@example.com"})

	saved, err := f.service.SaveForHousehold(ctx, householdID, models.TypeHousehold, "fire drill")
	require.NoError(t, err)
	assert.Len(t, saved, 2, "one record per current member")
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()

	t.Run("recipient marks their notification", func(t *testing.T) {
		f := newFixture(t)
		recipient := f.addUser(t, &usermodels.User{Email: "anna@example.com"})
		notification, err := f.service.Save(ctx, recipient.ID, models.TypeInfo, "ping")
		require.NoError(t, err)

		require.NoError(t, f.service.MarkRead(ctx, recipient.ID, notification.ID))

		// Second call is a no-op, not an error.
		require.NoError(t, f.service.MarkRead(ctx, recipient.ID, notification.ID))

		stored, err := f.notifications.FindByID(ctx, notification.ID)
		require.NoError(t, err)
		assert.True(t, stored.Read)
	})

	t.Run("someone else's notification", func(t *testing.T) {
		f := newFixture(t)
		recipient := f.addUser(t, &usermodels.User{Email: "anna@example.com"})
		stranger := f.addUser(t, &usermodels.User{Email: "sam@example.com"})
		notification, err := f.service.Save(ctx, recipient.ID, models.TypeInfo, "ping")
		require.NoError(t, err)

		err = f.service.MarkRead(ctx, stranger.ID, notification.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("unknown notification", func(t *testing.T) {
		f := newFixture(t)
		caller := f.addUser(t, &usermodels.User{Email: "anna@example.com"})
		err := f.service.MarkRead(ctx, caller.ID, domain.NewNotificationID())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestNotifyUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	recipient := f.addUser(t, &usermodels.User{Email: "anna@example.com"})

	require.NoError(t, f.service.NotifyUser(ctx, recipient.ID, models.TypeInvitation, "you are invited"))

	notifications, err := f.service.List(ctx, recipient.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)

	sent := f.publisher.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, realtime.ChannelPrivate, sent[0].Channel)
	assert.Equal(t, recipient.ID.String(), sent[0].UserID)
}

func TestNotifyUser_PushFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.publisher.err = assert.AnError
	recipient := f.addUser(t, &usermodels.User{Email: "anna@example.com"})

	require.NoError(t, f.service.NotifyUser(ctx, recipient.ID, models.TypeInfo, "ping"))

	notifications, err := f.service.List(ctx, recipient.ID)
	require.NoError(t, err)
	assert.Len(t, notifications, 1, "record persists even when the push fails")
}

// latDegrees places a point the given distance due north of the origin.
func latDegrees(km float64) string {
	return fmt.Sprintf("%f", km/(6371.0*math.Pi/180))
}

func TestIncidentAlert(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	inside := f.addUser(t, &usermodels.User{
		Email: "near@example.com", Latitude: latDegrees(6.0), Longitude: "0",
	})
	f.addUser(t, &usermodels.User{
		Email: "far@example.com", Latitude: latDegrees(8.0), Longitude: "0",
	})

	alerted, err := f.service.IncidentAlert(ctx, geo.Incident{
		Latitude: 0, Longitude: 0, ImpactRadius: 5.0, Severity: "HIGH",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, alerted)

	notifications, err := f.service.List(ctx, inside.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.TypeIncident, notifications[0].Type)
}

func TestIncidentAlert_DedupesRepeatAlerts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inside := f.addUser(t, &usermodels.User{
		Email: "near@example.com", Latitude: latDegrees(2.0), Longitude: "0",
	})

	incident := geo.Incident{Latitude: 0, Longitude: 0, ImpactRadius: 5.0, Severity: "HIGH"}

	alerted, err := f.service.IncidentAlert(ctx, incident)
	require.NoError(t, err)
	require.Equal(t, 1, alerted)

	// A second overlapping incident inside the dedupe window stays silent.
	alerted, err = f.service.IncidentAlert(ctx, incident)
	require.NoError(t, err)
	assert.Zero(t, alerted)

	notifications, err := f.service.List(ctx, inside.ID)
	require.NoError(t, err)
	assert.Len(t, notifications, 1)
}
