// Package dispatch pushes best-effort real-time copies of notifications to
// connected clients. The durable record is written by the notification
// service first; everything here may fail without failing the request.
package dispatch

import (
	"context"
	"log/slog"
	"time"

	"hearth/internal/events"
	"hearth/internal/platform/metrics"
	"hearth/internal/realtime"
	usermodels "hearth/internal/user/models"
	"hearth/pkg/domain"
)

const (
	channelPrivate   = "private"
	channelHousehold = "household"
	channelGlobal    = "global"
)

// Publisher delivers a real-time message. The local hub implements it
// directly; multi-instance deployments use the Redis bridge instead.
type Publisher interface {
	Publish(ctx context.Context, msg realtime.Message) error
}

// MemberLister resolves a household to its registered members so household
// dispatches can fan out to private channels.
type MemberLister interface {
	ListByHousehold(ctx context.Context, householdID domain.HouseholdID) ([]*usermodels.User, error)
}

// Dispatcher fans notifications out over the real-time layer and mirrors
// them to the event sink. None of its methods return errors: delivery is
// best-effort and failures are logged and counted, never propagated.
type Dispatcher struct {
	publisher Publisher
	members   MemberLister
	sink      events.Sink
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func New(publisher Publisher, members MemberLister, sink events.Sink, m *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		members:   members,
		sink:      sink,
		metrics:   m,
		logger:    logger,
	}
}

// Private pushes to one user's live connections.
func (d *Dispatcher) Private(ctx context.Context, userID domain.UserID, msgType, body string) {
	if err := d.publisher.Publish(ctx, realtime.NewPrivate(userID, msgType, body)); err != nil {
		d.metrics.DispatchFailures.WithLabelValues(channelPrivate).Inc()
		d.logger.WarnContext(ctx, "private dispatch failed",
			"user_id", userID.String(), "error", err)
		return
	}
	d.metrics.DispatchesSent.WithLabelValues(channelPrivate).Inc()
	d.mirror(ctx, events.Event{
		Channel:     channelPrivate,
		RecipientID: userID.String(),
		Type:        msgType,
		Message:     body,
		SentAt:      time.Now(),
	})
}

// Household pushes to every registered member of the household. Each member
// receives the message on their private channel; one failed member doesn't
// stop the rest.
func (d *Dispatcher) Household(ctx context.Context, householdID domain.HouseholdID, msgType, body string) {
	members, err := d.members.ListByHousehold(ctx, householdID)
	if err != nil {
		d.metrics.DispatchFailures.WithLabelValues(channelHousehold).Inc()
		d.logger.WarnContext(ctx, "household dispatch failed to list members",
			"household_id", householdID.String(), "error", err)
		return
	}
	for _, member := range members {
		if err := d.publisher.Publish(ctx, realtime.NewPrivate(member.ID, msgType, body)); err != nil {
			d.metrics.DispatchFailures.WithLabelValues(channelHousehold).Inc()
			d.logger.WarnContext(ctx, "household dispatch failed for member",
				"household_id", householdID.String(), "user_id", member.ID.String(), "error", err)
			continue
		}
		d.metrics.DispatchesSent.WithLabelValues(channelHousehold).Inc()
	}
	d.mirror(ctx, events.Event{
		Channel:     channelHousehold,
		HouseholdID: householdID.String(),
		Type:        msgType,
		Message:     body,
		SentAt:      time.Now(),
	})
}

// Global pushes to every connected client.
func (d *Dispatcher) Global(ctx context.Context, msgType, body string) {
	if err := d.publisher.Publish(ctx, realtime.NewBroadcast(msgType, body)); err != nil {
		d.metrics.DispatchFailures.WithLabelValues(channelGlobal).Inc()
		d.logger.WarnContext(ctx, "global dispatch failed", "error", err)
		return
	}
	d.metrics.DispatchesSent.WithLabelValues(channelGlobal).Inc()
	d.mirror(ctx, events.Event{
		Channel: channelGlobal,
		Type:    msgType,
		Message: body,
		SentAt:  time.Now(),
	})
}

func (d *Dispatcher) mirror(ctx context.Context, event events.Event) {
	if d.sink == nil {
		return
	}
	d.sink.Publish(ctx, event)
}
