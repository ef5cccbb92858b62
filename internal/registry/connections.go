package registry

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/weiawesome/wes-io-live/relay-service/internal/domain"
	pkglog "github.com/weiawesome/wes-io-live/relay-service/pkg/log"
)

// Connections tracks every live channel by connection id.
//
// It is not safe for concurrent use; the hub loop owns it.
type Connections struct {
	entries map[string]*domain.Connection
	newID   func() string
}

// NewConnections creates an empty registry. newID defaults to random UUIDs.
func NewConnections(newID func() string) *Connections {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Connections{
		entries: make(map[string]*domain.Connection),
		newID:   newID,
	}
}

// Register stores ch under a fresh id in the unassigned state.
func (r *Connections) Register(ch domain.Channel) string {
	id := r.newID()
	for r.entries[id] != nil {
		id = r.newID()
	}
	r.entries[id] = &domain.Connection{
		ID:      id,
		Channel: ch,
		Role:    domain.RoleUnassigned,
	}
	return id
}

// Lookup returns the connection registered under id.
func (r *Connections) Lookup(id string) (*domain.Connection, bool) {
	c, ok := r.entries[id]
	return c, ok
}

// Unregister removes the entry. Room cleanup is the caller's job.
func (r *Connections) Unregister(id string) {
	delete(r.entries, id)
}

// Len returns the number of live connections.
func (r *Connections) Len() int {
	return len(r.entries)
}

// Send encodes msg and writes it to the channel of id. Unknown ids and
// closed channels are ignored; encode and write failures are logged only.
// It reports whether the message was handed to the channel.
func (r *Connections) Send(id string, msg interface{}) bool {
	c, ok := r.entries[id]
	if !ok || c.Channel == nil || !c.Channel.Open() {
		return false
	}

	data, err := json.Marshal(msg)
	if err != nil {
		l := pkglog.L()
		l.Error().Err(err).Str(pkglog.FieldConnectionID, id).Msg("failed to encode message")
		return false
	}

	if err := c.Channel.Write(data); err != nil {
		l := pkglog.L()
		l.Warn().Err(err).Str(pkglog.FieldConnectionID, id).Msg("failed to send message")
		return false
	}
	return true
}
