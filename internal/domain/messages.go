package domain

import "encoding/json"

// Message types from client.
const (
	MsgTypeCreateRoom   = "create_room"
	MsgTypeJoinRoom     = "join_room"
	MsgTypeSendOffer    = "send_offer"
	MsgTypeSendAnswer   = "send_answer"
	MsgTypeICECandidate = "ice_candidate"
)

// Message types to client. ice_candidate is shared by both directions.
const (
	MsgTypeSocketID      = "socket_id"
	MsgTypeRoomCreated   = "room_created"
	MsgTypeRoomJoined    = "room_joined"
	MsgTypeRoomError     = "room_error"
	MsgTypeViewerJoined  = "viewer_joined"
	MsgTypeReceiveOffer  = "receive_offer"
	MsgTypeReceiveAnswer = "receive_answer"
	MsgTypeRoomClosed    = "room_closed"
)

// BaseMessage is the envelope every message shares.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

// JoinRoomMessage asks to attach the sender to a room as viewer.
type JoinRoomMessage struct {
	Type     string `json:"type"`
	RoomCode string `json:"roomCode"`
}

// SendOfferMessage is sent by an admin to offer a connection to one viewer.
type SendOfferMessage struct {
	Type     string          `json:"type"`
	ViewerID string          `json:"viewerId"`
	Offer    json.RawMessage `json:"offer"`
}

// SendAnswerMessage is sent by a viewer in reply to an offer.
type SendAnswerMessage struct {
	Type    string          `json:"type"`
	AdminID string          `json:"adminId"`
	Answer  json.RawMessage `json:"answer"`
}

// ICECandidateMessage carries a network-path candidate to target.
type ICECandidateMessage struct {
	Type      string          `json:"type"`
	Target    string          `json:"target"`
	Candidate json.RawMessage `json:"candidate"`
}

// Server -> Client messages

// SocketIDMessage tells a fresh connection its id.
type SocketIDMessage struct {
	Type     string `json:"type"`
	SocketID string `json:"socketId"`
}

// RoomCreatedMessage confirms room creation to the new admin.
type RoomCreatedMessage struct {
	Type     string `json:"type"`
	RoomCode string `json:"roomCode"`
}

// RoomJoinedMessage confirms a successful join to the viewer.
type RoomJoinedMessage struct {
	Type     string `json:"type"`
	RoomCode string `json:"roomCode"`
}

// RoomErrorMessage reports a failed join.
type RoomErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ViewerJoinedMessage notifies the admin of a new viewer.
type ViewerJoinedMessage struct {
	Type     string `json:"type"`
	ViewerID string `json:"viewerId"`
}

// ReceiveOfferMessage delivers an admin's offer to a viewer.
type ReceiveOfferMessage struct {
	Type    string          `json:"type"`
	Offer   json.RawMessage `json:"offer,omitempty"`
	AdminID string          `json:"adminId"`
}

// ReceiveAnswerMessage delivers a viewer's answer to the admin.
type ReceiveAnswerMessage struct {
	Type     string          `json:"type"`
	ViewerID string          `json:"viewerId"`
	Answer   json.RawMessage `json:"answer,omitempty"`
}

// RelayedCandidateMessage delivers a candidate to either side.
type RelayedCandidateMessage struct {
	Type      string          `json:"type"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	From      string          `json:"from"`
}

// RoomClosedMessage tells viewers their admin left.
type RoomClosedMessage struct {
	Type string `json:"type"`
}

// Room error texts.
const (
	RoomErrorCodeRequired = "Room code is required"
	RoomErrorNotFound     = "Room not found"
)

// NewRoomError creates a room_error message.
func NewRoomError(message string) *RoomErrorMessage {
	return &RoomErrorMessage{
		Type:    MsgTypeRoomError,
		Message: message,
	}
}
