package pubsub

import (
	"context"
	"encoding/json"
	"time"
)

// Event is a message published to the event bus.
type Event struct {
	Type      string          `json:"type"`
	RoomCode  string          `json:"room_code"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent creates a new event stamped with the current time.
func NewEvent(eventType, roomCode string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		RoomCode:  roomCode,
		Payload:   data,
		Timestamp: time.Now(),
	}, nil
}

// UnmarshalPayload unmarshals the event payload into v.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Publisher publishes events to the event bus.
type Publisher interface {
	Publish(ctx context.Context, channel string, event *Event) error
}

// Bus is a Publisher holding a connection that must be released.
type Bus interface {
	Publisher
	Close() error
}
