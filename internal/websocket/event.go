package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to the entity
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeClosed  EventType = "closed"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeEntry       EntityType = "entry"
	EntityTypeBusinessDay EntityType = "business_day"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "business_day.closed"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "business_day"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EntryCreated creates an entry.created event
func EntryCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeEntry, payload)
}

// EntryUpdated creates an entry.updated event
func EntryUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeEntry, payload)
}

// BusinessDayClosed creates a business_day.closed event. Source modules
// listen for it to stop offering edits on the closed date.
func BusinessDayClosed(payload interface{}) Event {
	return NewEvent(EventTypeClosed, EntityTypeBusinessDay, payload)
}
