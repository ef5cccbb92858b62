package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/weiawesome/wes-io-live/relay-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relay-service/internal/events"
	"github.com/weiawesome/wes-io-live/relay-service/internal/registry"
	pkglog "github.com/weiawesome/wes-io-live/relay-service/pkg/log"
	"github.com/weiawesome/wes-io-live/relay-service/pkg/pubsub"
)

// maxCodeAttempts bounds redraws when a generated room code is taken.
const maxCodeAttempts = 16

type relayService struct {
	connections *registry.Connections
	rooms       *registry.Rooms
	codes       CodeGenerator
	events      events.Emitter
}

// NewRelayService creates a RelayService over the given registries.
// A nil emitter discards room lifecycle events.
func NewRelayService(
	connections *registry.Connections,
	rooms *registry.Rooms,
	codes CodeGenerator,
	emitter events.Emitter,
) RelayService {
	if emitter == nil {
		emitter = events.Discard{}
	}
	return &relayService{
		connections: connections,
		rooms:       rooms,
		codes:       codes,
		events:      emitter,
	}
}

func (s *relayService) Connect(ch domain.Channel) string {
	id := s.connections.Register(ch)
	s.connections.Send(id, &domain.SocketIDMessage{
		Type:     domain.MsgTypeSocketID,
		SocketID: id,
	})
	return id
}

func (s *relayService) CreateRoom(ctx context.Context, connID string) error {
	c, ok := s.connections.Lookup(connID)
	if !ok {
		return domain.ErrConnectionNotFound
	}

	code, err := s.newRoomCode()
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}

	// A room this connection already administers is left in place; it is
	// closed when the connection goes away.
	s.leaveViewedRoom(ctx, c)

	if _, err := s.rooms.Create(code, connID); err != nil {
		return fmt.Errorf("create room %s: %w", code, err)
	}
	c.Role = domain.RoleAdmin
	c.Room = code

	s.connections.Send(connID, &domain.RoomCreatedMessage{
		Type:     domain.MsgTypeRoomCreated,
		RoomCode: code,
	})
	s.events.Emit(pubsub.EventRoomOpened, pubsub.RoomEventPayload{
		RoomCode:     code,
		ConnectionID: connID,
	})

	l := pkglog.Ctx(ctx)
	l.Info().Str(pkglog.FieldRoomCode, code).Msg("room created")
	return nil
}

func (s *relayService) JoinRoom(ctx context.Context, connID, roomCode string) error {
	c, ok := s.connections.Lookup(connID)
	if !ok {
		return domain.ErrConnectionNotFound
	}

	code := normalizeRoomCode(roomCode)
	if code == "" {
		s.connections.Send(connID, domain.NewRoomError(domain.RoomErrorCodeRequired))
		return domain.ErrEmptyRoomCode
	}

	room, ok := s.rooms.Get(code)
	if !ok {
		s.connections.Send(connID, domain.NewRoomError(domain.RoomErrorNotFound))
		return fmt.Errorf("join %s: %w", code, domain.ErrRoomNotFound)
	}

	if c.Room != code {
		s.leaveViewedRoom(ctx, c)
	}
	room.AddParticipant(connID)
	c.Role = domain.RoleViewer
	c.Room = code

	s.connections.Send(connID, &domain.RoomJoinedMessage{
		Type:     domain.MsgTypeRoomJoined,
		RoomCode: code,
	})
	s.connections.Send(room.AdminID, &domain.ViewerJoinedMessage{
		Type:     domain.MsgTypeViewerJoined,
		ViewerID: connID,
	})
	s.events.Emit(pubsub.EventViewerJoined, pubsub.RoomEventPayload{
		RoomCode:     code,
		ConnectionID: connID,
		Viewers:      room.ParticipantCount(),
	})

	l := pkglog.Ctx(ctx)
	l.Info().Str(pkglog.FieldRoomCode, code).Int("viewers", room.ParticipantCount()).Msg("viewer joined room")
	return nil
}

func (s *relayService) SendOffer(ctx context.Context, connID, viewerID string, offer json.RawMessage) error {
	c, ok := s.connections.Lookup(connID)
	if !ok {
		return domain.ErrConnectionNotFound
	}
	if c.Role != domain.RoleAdmin {
		return domain.ErrNotAdmin
	}

	room, ok := s.rooms.Get(c.Room)
	if !ok {
		return fmt.Errorf("offer from %s: %w", connID, domain.ErrRoomNotFound)
	}
	if !room.HasParticipant(viewerID) {
		return fmt.Errorf("offer to %s: %w", viewerID, domain.ErrNotParticipant)
	}

	s.connections.Send(viewerID, &domain.ReceiveOfferMessage{
		Type:    domain.MsgTypeReceiveOffer,
		Offer:   offer,
		AdminID: connID,
	})

	l := pkglog.Ctx(ctx)
	l.Debug().Str(pkglog.FieldTarget, viewerID).Msg("offer relayed")
	return nil
}

func (s *relayService) SendAnswer(ctx context.Context, connID, adminID string, answer json.RawMessage) error {
	s.connections.Send(adminID, &domain.ReceiveAnswerMessage{
		Type:     domain.MsgTypeReceiveAnswer,
		ViewerID: connID,
		Answer:   answer,
	})

	l := pkglog.Ctx(ctx)
	l.Debug().Str(pkglog.FieldTarget, adminID).Msg("answer relayed")
	return nil
}

func (s *relayService) ICECandidate(ctx context.Context, connID, target string, candidate json.RawMessage) error {
	s.connections.Send(target, &domain.RelayedCandidateMessage{
		Type:      domain.MsgTypeICECandidate,
		Candidate: candidate,
		From:      connID,
	})

	l := pkglog.Ctx(ctx)
	l.Debug().Str(pkglog.FieldTarget, target).Msg("candidate relayed")
	return nil
}

func (s *relayService) Disconnect(ctx context.Context, connID string) {
	c, ok := s.connections.Lookup(connID)
	if !ok {
		return
	}

	for _, room := range s.rooms.OwnedBy(connID) {
		s.closeRoom(ctx, room)
	}
	s.leaveViewedRoom(ctx, c)

	s.connections.Unregister(connID)

	l := pkglog.Ctx(ctx)
	l.Debug().Msg("connection cleaned up")
}

func (s *relayService) Stats() Stats {
	return Stats{
		Connections: s.connections.Len(),
		Rooms:       s.rooms.Len(),
		Viewers:     s.rooms.Viewers(),
	}
}

func (s *relayService) Room(code string) (RoomInfo, bool) {
	room, ok := s.rooms.Get(normalizeRoomCode(code))
	if !ok {
		return RoomInfo{}, false
	}
	return RoomInfo{
		RoomCode: room.Code,
		Viewers:  room.ParticipantCount(),
	}, true
}

// closeRoom detaches and notifies every participant, then deletes the room.
func (s *relayService) closeRoom(ctx context.Context, room *domain.Room) {
	viewers := room.ParticipantIDs()
	for _, id := range viewers {
		if p, ok := s.connections.Lookup(id); ok {
			p.Detach()
		}
		s.connections.Send(id, &domain.RoomClosedMessage{Type: domain.MsgTypeRoomClosed})
	}
	s.rooms.Delete(room.Code)

	s.events.Emit(pubsub.EventRoomClosed, pubsub.RoomEventPayload{
		RoomCode:     room.Code,
		ConnectionID: room.AdminID,
		Viewers:      len(viewers),
	})

	l := pkglog.Ctx(ctx)
	l.Info().Str(pkglog.FieldRoomCode, room.Code).Int("viewers", len(viewers)).Msg("room closed")
}

// leaveViewedRoom removes a viewer from the participant set of its room.
// Admins and unassigned connections are left untouched.
func (s *relayService) leaveViewedRoom(ctx context.Context, c *domain.Connection) {
	if c.Role != domain.RoleViewer {
		return
	}

	if room, ok := s.rooms.Get(c.Room); ok {
		room.RemoveParticipant(c.ID)
		s.events.Emit(pubsub.EventViewerLeft, pubsub.RoomEventPayload{
			RoomCode:     room.Code,
			ConnectionID: c.ID,
			Viewers:      room.ParticipantCount(),
		})

		l := pkglog.Ctx(ctx)
		l.Info().Str(pkglog.FieldRoomCode, room.Code).Int("viewers", room.ParticipantCount()).Msg("viewer left room")
	}
	c.Detach()
}

func (s *relayService) newRoomCode() (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := s.codes.Generate()
		if err != nil {
			return "", err
		}
		if !s.rooms.Exists(code) {
			return code, nil
		}
	}
	return "", domain.ErrRoomCodeExhausted
}

func normalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
