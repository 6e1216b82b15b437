// Package events mirrors dispatched notifications onto a Kafka topic so
// downstream consumers (audit, analytics, mobile push workers) can replay
// them. Publishing is strictly best-effort: the durable record of truth is
// the notification store, and a broker outage must never slow a mutation.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"hearth/pkg/platform/circuit"
)

// Event describes one dispatched notification.
type Event struct {
	Channel     string    `json:"channel"`
	RecipientID string    `json:"recipientId,omitempty"`
	HouseholdID string    `json:"householdId,omitempty"`
	Type        string    `json:"type"`
	Message     string    `json:"message"`
	SentAt      time.Time `json:"sentAt"`
}

// Sink receives dispatched-notification events. The dispatcher treats a nil
// Sink as "mirroring disabled".
type Sink interface {
	Publish(ctx context.Context, event Event)
}

// KafkaPublisher produces events asynchronously. A circuit breaker stops
// produce attempts while the broker is known to be down.
type KafkaPublisher struct {
	client  *kgo.Client
	topic   string
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{
		client:  client,
		topic:   topic,
		breaker: circuit.New("kafka-events", circuit.WithFailureThreshold(5)),
		logger:  logger,
	}, nil
}

// Publish produces the event without blocking the caller on broker acks.
// Failures feed the breaker and are logged, never returned.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) {
	if p.breaker.IsOpen() {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "marshal event", "error", err)
		return
	}

	record := &kgo.Record{Topic: p.topic, Value: payload}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			if _, change := p.breaker.RecordFailure(); change.Opened {
				p.logger.Error("event mirror circuit opened", "topic", p.topic, "error", err)
			}
			return
		}
		if _, change := p.breaker.RecordSuccess(); change.Closed {
			p.logger.Info("event mirror circuit closed", "topic", p.topic)
		}
	})
}

// Close flushes pending records and releases the client.
func (p *KafkaPublisher) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}
