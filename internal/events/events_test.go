package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusPublishJSON(t *testing.T) {
	bus := NewEventBus()

	var received []*Event
	bus.Subscribe(EventRentalSubmitted, func(event *Event) error {
		received = append(received, event)
		return nil
	})

	payload := RentalEventPayload{RentalID: 7, GameName: "Wingspan"}
	require.NoError(t, bus.PublishJSON(EventRentalSubmitted, payload))

	require.Len(t, received, 1)
	assert.Equal(t, EventRentalSubmitted, received[0].Type)

	var decoded RentalEventPayload
	require.NoError(t, json.Unmarshal(received[0].Payload, &decoded))
	assert.Equal(t, int64(7), decoded.RentalID)
	assert.Equal(t, "Wingspan", decoded.GameName)
}

func TestEventBusIgnoresOtherTypes(t *testing.T) {
	bus := NewEventBus()

	calls := 0
	bus.Subscribe(EventRentalApproved, func(event *Event) error {
		calls++
		return nil
	})

	require.NoError(t, bus.PublishJSON(EventRentalRejected, RentalEventPayload{RentalID: 1}))
	assert.Zero(t, calls)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()

	first, second := 0, 0
	bus.Subscribe(EventRentalReturned, func(event *Event) error { first++; return nil })
	bus.Subscribe(EventRentalReturned, func(event *Event) error { second++; return nil })

	require.NoError(t, bus.PublishJSON(EventRentalReturned, RentalEventPayload{RentalID: 2}))
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestNilBusPublishJSON(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventRentalSubmitted, nil))
}
