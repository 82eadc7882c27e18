package events

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	TypeBookingCreated       = "booking.created"
	TypeBookingStatusChanged = "booking.status_changed"
	TypeCommissionOpened     = "commission.opened"
	TypeCommissionSettled    = "commission.settled"
)

// Event is the envelope published for booking lifecycle changes.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	BookingID  string         `json:"booking_id,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

// Publisher delivers lifecycle events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// NewEvent stamps a fresh ULID and the occurrence time.
func NewEvent(eventType, bookingID string, at time.Time, data map[string]any) Event {
	return Event{
		ID:         ulid.MustNew(ulid.Timestamp(at), rand.Reader).String(),
		Type:       eventType,
		OccurredAt: at.UTC(),
		BookingID:  bookingID,
		Data:       data,
	}
}

type noopPublisher struct{}

func NewNoop() Publisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, Event) error { return nil }
