package kafka

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	ItemCount int `json:"item_count"`
}

func TestNewEvent(t *testing.T) {
	event, err := NewEvent("cart.updated", "cart", "cart", "cart-service", testPayload{ItemCount: 3})

	require.NoError(t, err)
	assert.Equal(t, "cart.updated", event.EventType)
	assert.Equal(t, "cart", event.AggregateID)
	assert.Equal(t, "cart", event.AggregateType)
	assert.Equal(t, "cart-service", event.Source)
	assert.Equal(t, 1, event.Version)
	assert.False(t, event.Timestamp.IsZero())

	_, err = uuid.Parse(event.EventID)
	assert.NoError(t, err, "event ID should be a valid UUID")
}

func TestNewEvent_UnmarshalableData(t *testing.T) {
	event, err := NewEvent("cart.updated", "cart", "cart", "cart-service", make(chan int))

	assert.Nil(t, event)
	assert.Error(t, err)
}

func TestEvent_MarshalRoundTrip(t *testing.T) {
	event, err := NewEvent("cart.updated", "cart", "cart", "cart-service", testPayload{ItemCount: 3})
	require.NoError(t, err)
	event.WithCorrelationID("corr-123")

	data, err := event.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"correlation_id":"corr-123"`)

	var payload testPayload
	require.NoError(t, event.UnmarshalData(&payload))
	assert.Equal(t, 3, payload.ItemCount)
}
