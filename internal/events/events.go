// Package events publishes operational booking events to external listeners.
// Delivery is best-effort: a failed publish is reported to the caller and
// never retried here.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	BookingCreated   = "booking.created"
	BookingCancelled = "booking.cancelled"
)

type Event struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	BookingID    int       `json:"booking_id"`
	Reference    string    `json:"booking_reference"`
	UserID       int       `json:"user_id"`
	TrekID       int       `json:"trek_id"`
	BatchID      int       `json:"batch_id"`
	Participants int       `json:"participants"`
	CustomerName string    `json:"customer_name"`
	TrekName     string    `json:"trek_name"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// New stamps a fresh event id and the occurrence time on e.
func New(eventType string, e Event, at time.Time) Event {
	e.ID = uuid.NewString()
	e.Type = eventType
	e.OccurredAt = at.UTC()
	return e
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

func encode(e Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	return data, nil
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
