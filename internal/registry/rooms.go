package registry

import (
	"github.com/weiawesome/wes-io-live/relay-service/internal/domain"
)

// Rooms maps room codes to rooms. Connections refer to rooms by code
// only, so removing a room never touches connection entries.
//
// It is not safe for concurrent use; the hub loop owns it.
type Rooms struct {
	rooms map[string]*domain.Room
}

// NewRooms creates an empty room registry.
func NewRooms() *Rooms {
	return &Rooms{
		rooms: make(map[string]*domain.Room),
	}
}

// Create adds a room owned by adminID with no participants.
func (r *Rooms) Create(code, adminID string) (*domain.Room, error) {
	if _, exists := r.rooms[code]; exists {
		return nil, domain.ErrRoomExists
	}
	room := domain.NewRoom(code, adminID)
	r.rooms[code] = room
	return room, nil
}

// Get returns the room with the given code.
func (r *Rooms) Get(code string) (*domain.Room, bool) {
	room, ok := r.rooms[code]
	return room, ok
}

// Exists reports whether a room with the given code exists.
func (r *Rooms) Exists(code string) bool {
	_, ok := r.rooms[code]
	return ok
}

// Delete removes the room.
func (r *Rooms) Delete(code string) {
	delete(r.rooms, code)
}

// OwnedBy returns every room whose admin slot belongs to adminID.
func (r *Rooms) OwnedBy(adminID string) []*domain.Room {
	var owned []*domain.Room
	for _, room := range r.rooms {
		if room.AdminID == adminID {
			owned = append(owned, room)
		}
	}
	return owned
}

// Len returns the number of rooms.
func (r *Rooms) Len() int {
	return len(r.rooms)
}

// Viewers returns the total number of participants across all rooms.
func (r *Rooms) Viewers() int {
	n := 0
	for _, room := range r.rooms {
		n += room.ParticipantCount()
	}
	return n
}
