package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"id":     "5b0c6c52-1d0e-4d53-9d53-0a4f0a0f3b11",
		"kind":   "sale",
		"amount": "1000.00",
	}

	before := time.Now()
	evt := NewEvent(EventTypeCreated, EntityTypeEntry, payload)
	after := time.Now()

	assert.Equal(t, "entry.created", evt.Type)
	assert.Equal(t, EntityTypeEntry, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEvent_JSON_Serialization(t *testing.T) {
	fixedTime := time.Date(2026, 10, 14, 21, 0, 0, 0, time.UTC)
	evt := Event{
		Type:      "business_day.closed",
		Entity:    EntityTypeBusinessDay,
		Payload:   map[string]interface{}{"date": "2026-10-14", "closedBy": "auth0|manager"},
		Timestamp: fixedTime,
	}

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, evt.Type, decoded.Type)
	assert.Equal(t, evt.Entity, decoded.Entity)
	assert.Equal(t, fixedTime, decoded.Timestamp.UTC())

	decodedPayload, ok := decoded.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2026-10-14", decodedPayload["date"])
	assert.Equal(t, "auth0|manager", decodedPayload["closedBy"])
}

func TestEvent_ToJSON(t *testing.T) {
	evt := EntryUpdated(map[string]interface{}{"status": "void"})

	data, err := evt.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "entry.updated", decoded["type"])
	assert.Equal(t, "entry", decoded["entity"])
	assert.NotNil(t, decoded["payload"])
	assert.NotNil(t, decoded["timestamp"])
}

func TestEvent_Helpers(t *testing.T) {
	payload := map[string]interface{}{"id": "x"}

	tests := []struct {
		name     string
		evt      Event
		wantType string
		entity   EntityType
	}{
		{"EntryCreated", EntryCreated(payload), "entry.created", EntityTypeEntry},
		{"EntryUpdated", EntryUpdated(payload), "entry.updated", EntityTypeEntry},
		{"BusinessDayClosed", BusinessDayClosed(payload), "business_day.closed", EntityTypeBusinessDay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.evt.Type)
			assert.Equal(t, tt.entity, tt.evt.Entity)
			assert.Equal(t, payload, tt.evt.Payload)
		})
	}
}
