package hub

import (
	"errors"
	"sync"

	"github.com/weiawesome/wes-io-live/relay-service/internal/config"
	pkglog "github.com/weiawesome/wes-io-live/relay-service/pkg/log"
)

// ErrHubStopped is returned by Do once the hub loop has exited.
var ErrHubStopped = errors.New("hub stopped")

// EventHandler receives connection events. All callbacks run on the hub
// loop, one at a time, so implementations need no locking.
type EventHandler interface {
	OnConnect(*Client)
	OnMessage(*Client, []byte)
	OnDisconnect(*Client)
}

type inboundMessage struct {
	client *Client
	data   []byte
}

// Hub serializes every connection event onto a single goroutine.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage
	calls      chan func()
	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	handler    EventHandler
	config     config.WebSocketConfig
}

// NewHub creates a new Hub.
func NewHub(cfg config.WebSocketConfig, handler EventHandler) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundMessage),
		calls:      make(chan func()),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		handler:    handler,
		config:     cfg,
	}
}

// Run starts the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	defer close(h.done)

	l := pkglog.L()
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.handler.OnConnect(client)
			l.Debug().Str(pkglog.FieldConnectionID, client.ID).Str(pkglog.FieldRemoteAddr, client.RemoteAddr).Msg("client registered")

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.inbound:
			// Frames still queued from a client that already left are dropped.
			if _, ok := h.clients[msg.client]; ok {
				h.handler.OnMessage(msg.client, msg.data)
			}

		case fn := <-h.calls:
			fn()

		case <-h.stop:
			for client := range h.clients {
				h.remove(client)
			}
			l.Info().Msg("hub stopped")
			return
		}
	}
}

// Register adds a client to the hub. It reports false if the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub. Cleanup runs at most once per
// client no matter how often this is called.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Dispatch queues an inbound frame for the handler.
func (h *Hub) Dispatch(client *Client, data []byte) {
	select {
	case h.inbound <- inboundMessage{client: client, data: data}:
	case <-h.done:
	}
}

// Do runs fn on the hub loop and waits for it to finish.
func (h *Hub) Do(fn func()) error {
	finished := make(chan struct{})
	call := func() {
		defer close(finished)
		fn()
	}

	select {
	case h.calls <- call:
	case <-h.done:
		return ErrHubStopped
	}
	<-finished
	return nil
}

// Stop disconnects every client and waits for the loop to exit.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
	<-h.done
}

func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	h.handler.OnDisconnect(client)
	client.close()

	l := pkglog.L()
	l.Debug().Str(pkglog.FieldConnectionID, client.ID).Msg("client unregistered")
}
