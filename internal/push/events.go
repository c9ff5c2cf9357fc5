package push

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Event mirrors a notification lifecycle change onto the event stream.
type Event struct {
	Kind      string    `json:"kind"` // shown, dismissed, group_dismissed, queued
	UserID    string    `json:"user_id"`
	ID        string    `json:"id,omitempty"`
	Group     string    `json:"group,omitempty"`
	Title     string    `json:"title,omitempty"`
	Type      string    `json:"type,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher writes notification events to Kafka. Publishing is
// strictly fire-and-forget: consumers are best-effort collaborators and
// a failed write never affects the notification lifecycle. A nil writer
// disables publishing entirely.
type EventPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(writer *kafka.Writer, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{
		writer: writer,
		logger: logger,
	}
}

// Publish emits an event without blocking the caller on delivery.
func (p *EventPublisher) Publish(event Event) {
	if p == nil || p.writer == nil {
		return
	}
	event.Timestamp = time.Now()

	go func() {
		value, err := json.Marshal(event)
		if err != nil {
			p.logger.Warn("Failed to marshal notification event", zap.Error(err))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err = p.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(event.UserID),
			Value: value,
		})
		if err != nil {
			p.logger.Warn("Failed to publish notification event",
				zap.Error(err),
				zap.String("kind", event.Kind))
		}
	}()
}
