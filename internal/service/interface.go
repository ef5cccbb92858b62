package service

import (
	"context"
	"encoding/json"

	"github.com/weiawesome/wes-io-live/relay-service/internal/domain"
)

// RelayService holds the room state machine and relays handshake messages.
//
// Implementations are not safe for concurrent use. Every call must come
// from the single goroutine that owns the registries (the hub loop).
type RelayService interface {
	// Connect registers a new channel and tells it its connection id.
	Connect(ch domain.Channel) string

	// CreateRoom makes the connection admin of a new room.
	CreateRoom(ctx context.Context, connID string) error

	// JoinRoom attaches the connection to an existing room as viewer.
	JoinRoom(ctx context.Context, connID, roomCode string) error

	// SendOffer forwards an admin's offer to a viewer of its room.
	SendOffer(ctx context.Context, connID, viewerID string, offer json.RawMessage) error

	// SendAnswer forwards a viewer's answer to adminID without any membership check.
	SendAnswer(ctx context.Context, connID, adminID string, answer json.RawMessage) error

	// ICECandidate forwards a candidate to target without any membership check.
	ICECandidate(ctx context.Context, connID, target string, candidate json.RawMessage) error

	// Disconnect tears down the connection's room state and unregisters it.
	Disconnect(ctx context.Context, connID string)

	// Stats returns registry counters.
	Stats() Stats

	// Room returns a snapshot of one room.
	Room(code string) (RoomInfo, bool)
}

// CodeGenerator draws room codes.
type CodeGenerator interface {
	Generate() (string, error)
}

// Stats is a snapshot of registry sizes.
type Stats struct {
	Connections int `json:"connections"`
	Rooms       int `json:"rooms"`
	Viewers     int `json:"viewers"`
}

// RoomInfo is a snapshot of one room.
type RoomInfo struct {
	RoomCode string `json:"room_code"`
	Viewers  int    `json:"viewers"`
}
