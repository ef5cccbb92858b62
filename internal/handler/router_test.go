package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/weiawesome/wes-io-live/relay-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relay-service/internal/service"
)

type call struct {
	method string
	args   []string
}

// fakeRelay records every call the router makes.
type fakeRelay struct {
	calls []call
	err   error
}

func (f *fakeRelay) record(method string, args ...string) {
	f.calls = append(f.calls, call{method: method, args: args})
}

func (f *fakeRelay) Connect(domain.Channel) string {
	f.record("Connect")
	return "conn-1"
}

func (f *fakeRelay) CreateRoom(_ context.Context, connID string) error {
	f.record("CreateRoom", connID)
	return f.err
}

func (f *fakeRelay) JoinRoom(_ context.Context, connID, roomCode string) error {
	f.record("JoinRoom", connID, roomCode)
	return f.err
}

func (f *fakeRelay) SendOffer(_ context.Context, connID, viewerID string, offer json.RawMessage) error {
	f.record("SendOffer", connID, viewerID, string(offer))
	return f.err
}

func (f *fakeRelay) SendAnswer(_ context.Context, connID, adminID string, answer json.RawMessage) error {
	f.record("SendAnswer", connID, adminID, string(answer))
	return f.err
}

func (f *fakeRelay) ICECandidate(_ context.Context, connID, target string, candidate json.RawMessage) error {
	f.record("ICECandidate", connID, target, string(candidate))
	return f.err
}

func (f *fakeRelay) Disconnect(_ context.Context, connID string) {
	f.record("Disconnect", connID)
}

func (f *fakeRelay) Stats() service.Stats { return service.Stats{} }

func (f *fakeRelay) Room(string) (service.RoomInfo, bool) { return service.RoomInfo{}, false }

func TestRouteDispatch(t *testing.T) {
	cases := []struct {
		name  string
		frame string
		want  string
	}{
		{
			name:  "create_room",
			frame: `{"type":"create_room"}`,
			want:  "[{CreateRoom [c1]}]",
		},
		{
			name:  "join_room",
			frame: `{"type":"join_room","roomCode":"ab12cd"}`,
			want:  "[{JoinRoom [c1 ab12cd]}]",
		},
		{
			name:  "join_room without code",
			frame: `{"type":"join_room"}`,
			want:  "[{JoinRoom [c1 ]}]",
		},
		{
			name:  "send_offer",
			frame: `{"type":"send_offer","viewerId":"v1","offer":{"sdp":"o"}}`,
			want:  `[{SendOffer [c1 v1 {"sdp":"o"}]}]`,
		},
		{
			name:  "send_answer",
			frame: `{"type":"send_answer","adminId":"a1","answer":{"sdp":"a"}}`,
			want:  `[{SendAnswer [c1 a1 {"sdp":"a"}]}]`,
		},
		{
			name:  "ice_candidate",
			frame: `{"type":"ice_candidate","target":"a1","candidate":{"candidate":"x"}}`,
			want:  `[{ICECandidate [c1 a1 {"candidate":"x"}]}]`,
		},
		{
			name:  "malformed json",
			frame: `{"type":`,
			want:  "[]",
		},
		{
			name:  "not an object",
			frame: `"create_room"`,
			want:  "[]",
		},
		{
			name:  "unknown type",
			frame: `{"type":"leave_room"}`,
			want:  "[]",
		},
		{
			name:  "mistyped field",
			frame: `{"type":"join_room","roomCode":42}`,
			want:  "[]",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			relay := &fakeRelay{}
			NewRouter(relay).Route("c1", []byte(tc.frame))

			got := fmt.Sprint(relay.calls)
			if relay.calls == nil {
				got = "[]"
			}
			if got != tc.want {
				t.Fatalf("calls=%s, want %s", got, tc.want)
			}
		})
	}
}

func TestRouteSwallowsServiceErrors(t *testing.T) {
	relay := &fakeRelay{err: errors.New("nope")}
	r := NewRouter(relay)

	r.Route("c1", []byte(`{"type":"create_room"}`))
	r.Route("c1", []byte(`{"type":"create_room"}`))

	if len(relay.calls) != 2 {
		t.Fatalf("calls=%v, want both frames routed", relay.calls)
	}
}
