package domain

import "sort"

// Room is one broadcast session: one admin, any number of viewers.
type Room struct {
	Code         string
	AdminID      string
	participants map[string]struct{}
}

// NewRoom creates a room with an empty participant set.
func NewRoom(code, adminID string) *Room {
	return &Room{
		Code:         code,
		AdminID:      adminID,
		participants: make(map[string]struct{}),
	}
}

func (r *Room) AddParticipant(id string) {
	r.participants[id] = struct{}{}
}

func (r *Room) RemoveParticipant(id string) {
	delete(r.participants, id)
}

func (r *Room) HasParticipant(id string) bool {
	_, ok := r.participants[id]
	return ok
}

func (r *Room) ParticipantCount() int {
	return len(r.participants)
}

// ParticipantIDs returns the participant ids in sorted order.
func (r *Room) ParticipantIDs() []string {
	ids := make([]string, 0, len(r.participants))
	for id := range r.participants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
