package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventStampsULID(t *testing.T) {
	at := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	evt := NewEvent(TypeBookingStatusChanged, "123", at, map[string]any{"status": "completed"})

	id, err := ulid.ParseStrict(evt.ID)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(at), id.Time())
	assert.Equal(t, at, evt.OccurredAt)
	assert.Equal(t, "123", evt.BookingID)
}

func TestBuildPublishing(t *testing.T) {
	at := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	evt := NewEvent(TypeCommissionOpened, "55", at, map[string]any{"amount": 100})

	msg, err := buildPublishing(evt)
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, evt.ID, msg.MessageId)
	assert.Equal(t, TypeCommissionOpened, msg.Type)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "commission.opened", decoded["type"])
	assert.Equal(t, "55", decoded["booking_id"])
	assert.Equal(t, float64(100), decoded["data"].(map[string]any)["amount"])
}

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NewNoop().Publish(context.Background(), Event{Type: TypeBookingCreated}))
}
