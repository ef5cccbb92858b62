package domain

// Role is what a connection currently is with respect to rooms.
type Role string

const (
	RoleUnassigned Role = "unassigned"
	RoleAdmin      Role = "admin"
	RoleViewer     Role = "viewer"
)

// Channel is the outbound half of a live bidirectional message channel.
type Channel interface {
	// Write queues one encoded message for delivery.
	Write(data []byte) error
	// Open reports whether the channel still accepts writes.
	Open() bool
}

// Connection is one live channel and its place in the room state machine.
// Room holds a room code, never a pointer into the room registry.
type Connection struct {
	ID      string
	Channel Channel
	Role    Role
	Room    string
}

// Detach returns the connection to the unassigned state.
func (c *Connection) Detach() {
	c.Role = RoleUnassigned
	c.Room = ""
}

// AdminOf reports whether the connection is admin of the given room.
func (c *Connection) AdminOf(code string) bool {
	return c.Role == RoleAdmin && c.Room == code
}

// ViewerOf reports whether the connection is a viewer of the given room.
func (c *Connection) ViewerOf(code string) bool {
	return c.Role == RoleViewer && c.Room == code
}
