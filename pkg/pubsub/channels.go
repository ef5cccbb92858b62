package pubsub

import (
	"fmt"
	"strings"
)

// ChannelRoomEvents carries the lifecycle events of one room.
const ChannelRoomEvents = "relay:room:%s:events"

// Room lifecycle event types.
const (
	EventRoomOpened   = "room_opened"
	EventRoomClosed   = "room_closed"
	EventViewerJoined = "viewer_joined"
	EventViewerLeft   = "viewer_left"
)

// RoomEventsChannel returns the channel name for a room's lifecycle events.
func RoomEventsChannel(roomCode string) string {
	return fmt.Sprintf(ChannelRoomEvents, roomCode)
}

// RoomEventPayload is the payload of every room lifecycle event.
type RoomEventPayload struct {
	RoomCode     string `json:"room_code"`
	ConnectionID string `json:"connection_id"`
	Viewers      int    `json:"viewers"`
}

// channelToTopicAndKey maps a Redis-style channel to a Kafka topic and key.
//
//	"relay:room:AB12CD:events" → topic: "relay-events", key: "AB12CD"
func channelToTopicAndKey(channel string) (topic, key string, err error) {
	parts := strings.Split(channel, ":")
	if len(parts) != 4 || parts[1] != "room" || parts[2] == "" {
		return "", "", fmt.Errorf("invalid channel format: %s", channel)
	}
	topic = parts[0] + "-" + strings.ReplaceAll(parts[3], "_", "-")
	return topic, parts[2], nil
}
