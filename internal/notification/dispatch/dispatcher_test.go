package dispatch_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hearth/internal/events"
	"hearth/internal/notification/dispatch"
	"hearth/internal/platform/metrics"
	"hearth/internal/realtime"
	usermodels "hearth/internal/user/models"
	userstore "hearth/internal/user/store"
	"hearth/pkg/domain"
)

type capturePublisher struct {
	mu       sync.Mutex
	messages []realtime.Message
	err      error
}

func (p *capturePublisher) Publish(_ context.Context, msg realtime.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

type captureSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *captureSink) Publish(_ context.Context, event events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func newDispatcher(t *testing.T, publisher dispatch.Publisher, users *userstore.MemoryStore, sink events.Sink) *dispatch.Dispatcher {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return dispatch.New(publisher, users, sink, metrics.New(prometheus.NewRegistry()), log)
}

func TestPrivate(t *testing.T) {
	ctx := context.Background()
	publisher := &capturePublisher{}
	sink := &captureSink{}
	d := newDispatcher(t, publisher, userstore.NewMemory(), sink)

	userID := domain.NewUserID()
	d.Private(ctx, userID, "INFO", "hello")

	require.Len(t, publisher.messages, 1)
	assert.Equal(t, realtime.ChannelPrivate, publisher.messages[0].Channel)
	assert.Equal(t, userID.String(), publisher.messages[0].UserID)

	require.Len(t, sink.events, 1)
	assert.Equal(t, "private", sink.events[0].Channel)
}

func TestPrivate_FailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	publisher := &capturePublisher{err: assert.AnError}
	sink := &captureSink{}
	d := newDispatcher(t, publisher, userstore.NewMemory(), sink)

	d.Private(ctx, domain.NewUserID(), "INFO", "hello")

	assert.Empty(t, publisher.messages)
	assert.Empty(t, sink.events, "failed dispatches are not mirrored")
}

func TestHousehold(t *testing.T) {
	ctx := context.Background()
	publisher := &capturePublisher{}
	users := userstore.NewMemory()
	d := newDispatcher(t, publisher, users, nil)

	householdID := domain.NewHouseholdID()
	for range 3 {
		require.NoError(t, users.Save(ctx, &usermodels.User{
			ID:          domain.NewUserID(),
			HouseholdID: &householdID,
		}))
	}

	d.Household(ctx, householdID, "HOUSEHOLD", "dinner")

	assert.Len(t, publisher.messages, 3, "each member gets a private push")
	for _, msg := range publisher.messages {
		assert.Equal(t, realtime.ChannelPrivate, msg.Channel)
	}
}

func TestGlobal(t *testing.T) {
	ctx := context.Background()
	publisher := &capturePublisher{}
	d := newDispatcher(t, publisher, userstore.NewMemory(), nil)

	d.Global(ctx, "MEMBERSHIP_REQUEST", "someone wants to join")

	require.Len(t, publisher.messages, 1)
	assert.Equal(t, realtime.ChannelBroadcast, publisher.messages[0].Channel)
	assert.Empty(t, publisher.messages[0].UserID)
}
