package hub

import (
	"errors"
	"time"

	"github.com/gorilla/websocket"
	pkglog "github.com/weiawesome/wes-io-live/relay-service/pkg/log"
)

var (
	ErrClientClosed   = errors.New("client closed")
	ErrSendBufferFull = errors.New("client send buffer full")
)

const defaultSendBuffer = 256

// Client represents a connected WebSocket client.
//
// ID and the open flag are owned by the hub loop; the pumps only touch Conn
// and Send.
type Client struct {
	ID         string
	Hub        *Hub
	Conn       *websocket.Conn
	Send       chan []byte
	RemoteAddr string
	open       bool
}

// NewClient wraps conn for use with h. conn may be nil in tests that never
// start the pumps.
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	size := h.config.SendBuffer
	if size <= 0 {
		size = defaultSendBuffer
	}

	c := &Client{
		Hub:  h,
		Conn: conn,
		Send: make(chan []byte, size),
		open: true,
	}
	if conn != nil {
		c.RemoteAddr = conn.RemoteAddr().String()
	}
	return c
}

// Write queues a frame for the write pump. A full buffer drops the client.
func (c *Client) Write(data []byte) error {
	if !c.open {
		return ErrClientClosed
	}

	select {
	case c.Send <- data:
		return nil
	default:
		c.open = false
		go c.Hub.Unregister(c)
		return ErrSendBufferFull
	}
}

// Open reports whether frames can still be queued for this client.
func (c *Client) Open() bool {
	return c.open
}

func (c *Client) close() {
	c.open = false
	close(c.Send)
}

// ReadPump pumps frames from the WebSocket connection to the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Hub.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.PongWait))
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				l := pkglog.L()
				l.Warn().Err(err).Str(pkglog.FieldRemoteAddr, c.RemoteAddr).Msg("websocket error")
			}
			break
		}

		if messageType != websocket.TextMessage {
			continue
		}
		c.Hub.Dispatch(c, message)
	}
}

// WritePump pumps frames from the hub to the WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.Hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.config.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
