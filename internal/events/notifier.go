package events

import (
	"context"
	"time"

	pkglog "github.com/weiawesome/wes-io-live/relay-service/pkg/log"
	"github.com/weiawesome/wes-io-live/relay-service/pkg/pubsub"
)

const publishTimeout = 3 * time.Second

// Emitter receives room lifecycle events from the relay.
// Emit must not block the caller.
type Emitter interface {
	Emit(eventType string, payload pubsub.RoomEventPayload)
}

// Discard drops every event. Used when no event bus is configured.
type Discard struct{}

func (Discard) Emit(string, pubsub.RoomEventPayload) {}

// Notifier queues events and publishes them from its own goroutine, so
// a slow bus never stalls the hub loop. When the queue is full the event
// is dropped.
type Notifier struct {
	publisher pubsub.Publisher
	queue     chan *pubsub.Event
	done      chan struct{}
}

// NewNotifier creates a notifier with room for buffer pending events.
func NewNotifier(publisher pubsub.Publisher, buffer int) *Notifier {
	if buffer <= 0 {
		buffer = 256
	}
	return &Notifier{
		publisher: publisher,
		queue:     make(chan *pubsub.Event, buffer),
		done:      make(chan struct{}),
	}
}

func (n *Notifier) Emit(eventType string, payload pubsub.RoomEventPayload) {
	l := pkglog.L()

	event, err := pubsub.NewEvent(eventType, payload.RoomCode, &payload)
	if err != nil {
		l.Error().Err(err).Str("event", eventType).Msg("failed to build room event")
		return
	}

	select {
	case n.queue <- event:
	default:
		l.Warn().Str("event", eventType).Str(pkglog.FieldRoomCode, payload.RoomCode).Msg("event queue full, dropping room event")
	}
}

// Run publishes queued events until ctx is cancelled. Events still queued
// at that point are flushed before Run returns.
func (n *Notifier) Run(ctx context.Context) {
	defer close(n.done)

	for {
		select {
		case <-ctx.Done():
			n.flush()
			return
		case event := <-n.queue:
			n.publish(ctx, event)
		}
	}
}

func (n *Notifier) flush() {
	for {
		select {
		case event := <-n.queue:
			n.publish(context.Background(), event)
		default:
			return
		}
	}
}

func (n *Notifier) publish(ctx context.Context, event *pubsub.Event) {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := n.publisher.Publish(pubCtx, pubsub.RoomEventsChannel(event.RoomCode), event); err != nil {
		l := pkglog.L()
		l.Warn().Err(err).Str("event", event.Type).Str(pkglog.FieldRoomCode, event.RoomCode).Msg("failed to publish room event")
	}
}

// Done is closed once Run has returned.
func (n *Notifier) Done() <-chan struct{} {
	return n.done
}
