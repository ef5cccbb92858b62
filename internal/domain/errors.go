package domain

import "errors"

var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomExists         = errors.New("room already exists")
	ErrEmptyRoomCode      = errors.New("empty room code")
	ErrNotAdmin           = errors.New("sender is not a room admin")
	ErrNotParticipant     = errors.New("target is not a participant of the room")
	ErrRoomCodeExhausted  = errors.New("could not generate an unused room code")
)
