package handler

import (
	"context"
	"encoding/json"

	"github.com/weiawesome/wes-io-live/relay-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relay-service/internal/hub"
	"github.com/weiawesome/wes-io-live/relay-service/internal/service"
	pkglog "github.com/weiawesome/wes-io-live/relay-service/pkg/log"
)

// Router decodes inbound frames and hands them to the relay service.
// It runs on the hub loop.
type Router struct {
	service service.RelayService
}

// NewRouter creates a new Router.
func NewRouter(svc service.RelayService) *Router {
	return &Router{service: svc}
}

var _ hub.EventHandler = (*Router)(nil)

func (r *Router) OnConnect(c *hub.Client) {
	c.ID = r.service.Connect(c)

	l := pkglog.L()
	l.Info().Str(pkglog.FieldConnectionID, c.ID).Str(pkglog.FieldRemoteAddr, c.RemoteAddr).Msg("client connected")
}

func (r *Router) OnMessage(c *hub.Client, data []byte) {
	r.Route(c.ID, data)
}

func (r *Router) OnDisconnect(c *hub.Client) {
	ctx := connContext(c.ID)
	r.service.Disconnect(ctx, c.ID)

	l := pkglog.Ctx(ctx)
	l.Info().Msg("client disconnected")
}

// Route handles a single frame from connID. Malformed and unknown messages
// are dropped; the connection stays open.
func (r *Router) Route(connID string, data []byte) {
	ctx := connContext(connID)
	l := pkglog.Ctx(ctx)

	var base domain.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		l.Debug().Err(err).Msg("dropping malformed message")
		return
	}

	var err error
	switch base.Type {
	case domain.MsgTypeCreateRoom:
		err = r.service.CreateRoom(ctx, connID)

	case domain.MsgTypeJoinRoom:
		var msg domain.JoinRoomMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			l.Debug().Err(err).Str(pkglog.FieldMessageType, base.Type).Msg("dropping malformed message")
			return
		}
		err = r.service.JoinRoom(ctx, connID, msg.RoomCode)

	case domain.MsgTypeSendOffer:
		var msg domain.SendOfferMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			l.Debug().Err(err).Str(pkglog.FieldMessageType, base.Type).Msg("dropping malformed message")
			return
		}
		err = r.service.SendOffer(ctx, connID, msg.ViewerID, msg.Offer)

	case domain.MsgTypeSendAnswer:
		var msg domain.SendAnswerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			l.Debug().Err(err).Str(pkglog.FieldMessageType, base.Type).Msg("dropping malformed message")
			return
		}
		err = r.service.SendAnswer(ctx, connID, msg.AdminID, msg.Answer)

	case domain.MsgTypeICECandidate:
		var msg domain.ICECandidateMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			l.Debug().Err(err).Str(pkglog.FieldMessageType, base.Type).Msg("dropping malformed message")
			return
		}
		err = r.service.ICECandidate(ctx, connID, msg.Target, msg.Candidate)

	default:
		l.Debug().Str(pkglog.FieldMessageType, base.Type).Msg("dropping unknown message type")
		return
	}

	if err != nil {
		l.Debug().Err(err).Str(pkglog.FieldMessageType, base.Type).Msg("message rejected")
	}
}

func connContext(connID string) context.Context {
	return pkglog.WithConnection(context.Background(), connID)
}
