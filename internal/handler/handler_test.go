package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/weiawesome/wes-io-live/relay-service/internal/config"
	"github.com/weiawesome/wes-io-live/relay-service/internal/generator"
	"github.com/weiawesome/wes-io-live/relay-service/internal/hub"
	"github.com/weiawesome/wes-io-live/relay-service/internal/ice"
	"github.com/weiawesome/wes-io-live/relay-service/internal/registry"
	"github.com/weiawesome/wes-io-live/relay-service/internal/service"
	pkglog "github.com/weiawesome/wes-io-live/relay-service/pkg/log"
)

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	codes, err := generator.NewRoomCodeGenerator(generator.DefaultRoomCodeSize, generator.DefaultRoomCodeAlphabet)
	if err != nil {
		t.Fatalf("NewRoomCodeGenerator: %v", err)
	}
	svc := service.NewRelayService(registry.NewConnections(nil), registry.NewRooms(), codes, nil)

	cfg := config.DefaultWebSocketConfig()
	h := hub.NewHub(cfg, NewRouter(svc))
	go h.Run()

	router := mux.NewRouter()
	NewWSHandler(h, cfg).RegisterRoutes(router)
	NewHTTPHandler(h, svc).RegisterRoutes(router)

	srv := httptest.NewServer(pkglog.HTTPMiddleware(pkglog.L())(router))
	t.Cleanup(srv.Close)
	t.Cleanup(h.Stop)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) (*websocket.Conn, string) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	hello := readMessage(t, conn)
	if hello["type"] != "socket_id" {
		t.Fatalf("first message=%v, want socket_id", hello)
	}
	id, _ := hello["socketId"].(string)
	if id == "" {
		t.Fatalf("socket_id without id: %v", hello)
	}
	return conn, id
}

func send(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return msg
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK && v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestSignalingFlow(t *testing.T) {
	srv := startTestServer(t)

	admin, adminID := dial(t, srv)
	viewer, viewerID := dial(t, srv)

	send(t, admin, `{"type":"create_room"}`)
	created := readMessage(t, admin)
	code, _ := created["roomCode"].(string)
	if created["type"] != "room_created" || len(code) != generator.DefaultRoomCodeSize || code != strings.ToUpper(code) {
		t.Fatalf("create reply=%v", created)
	}

	send(t, viewer, `{"type":"join_room","roomCode":"`+strings.ToLower(code)+`"}`)
	if got := readMessage(t, viewer); got["type"] != "room_joined" || got["roomCode"] != code {
		t.Fatalf("join reply=%v", got)
	}
	if got := readMessage(t, admin); got["type"] != "viewer_joined" || got["viewerId"] != viewerID {
		t.Fatalf("admin notification=%v", got)
	}

	send(t, admin, `{"type":"send_offer","viewerId":"`+viewerID+`","offer":{"type":"offer","sdp":"v=0"}}`)
	offer := readMessage(t, viewer)
	if offer["type"] != "receive_offer" || offer["adminId"] != adminID {
		t.Fatalf("offer=%v", offer)
	}
	if sdp, _ := offer["offer"].(map[string]any); sdp["sdp"] != "v=0" {
		t.Fatalf("offer payload=%v", offer["offer"])
	}

	send(t, viewer, `{"type":"send_answer","adminId":"`+adminID+`","answer":{"type":"answer","sdp":"v=1"}}`)
	if got := readMessage(t, admin); got["type"] != "receive_answer" || got["viewerId"] != viewerID {
		t.Fatalf("answer=%v", got)
	}

	send(t, viewer, `{"type":"ice_candidate","target":"`+adminID+`","candidate":{"candidate":"c"}}`)
	if got := readMessage(t, admin); got["type"] != "ice_candidate" || got["from"] != viewerID {
		t.Fatalf("candidate=%v", got)
	}

	var stats service.Stats
	if status := getJSON(t, srv.URL+"/api/v1/stats", &stats); status != http.StatusOK {
		t.Fatalf("stats status=%d", status)
	}
	if stats != (service.Stats{Connections: 2, Rooms: 1, Viewers: 1}) {
		t.Fatalf("stats=%+v", stats)
	}

	var room service.RoomInfo
	if status := getJSON(t, srv.URL+"/api/v1/rooms/"+strings.ToLower(code), &room); status != http.StatusOK {
		t.Fatalf("room status=%d", status)
	}
	if room.RoomCode != code || room.Viewers != 1 {
		t.Fatalf("room=%+v", room)
	}

	admin.Close()
	if got := readMessage(t, viewer); got["type"] != "room_closed" {
		t.Fatalf("after admin left=%v, want room_closed", got)
	}
	if status := getJSON(t, srv.URL+"/api/v1/rooms/"+code, nil); status != http.StatusNotFound {
		t.Fatalf("closed room status=%d, want 404", status)
	}

	send(t, viewer, `{"type":"join_room","roomCode":"`+code+`"}`)
	if got := readMessage(t, viewer); got["type"] != "room_error" || got["message"] != "Room not found" {
		t.Fatalf("join closed room=%v", got)
	}
}

func TestMalformedFramesKeepConnectionOpen(t *testing.T) {
	srv := startTestServer(t)
	conn, _ := dial(t, srv)

	send(t, conn, `not json`)
	send(t, conn, `{"type":"unknown"}`)
	send(t, conn, `{"type":"send_offer","viewerId":"nobody","offer":{}}`)
	send(t, conn, `{"type":"join_room","roomCode":""}`)

	if got := readMessage(t, conn); got["type"] != "room_error" || got["message"] != "Room code is required" {
		t.Fatalf("got %v, want room_error for empty code", got)
	}

	send(t, conn, `{"type":"create_room"}`)
	if got := readMessage(t, conn); got["type"] != "room_created" {
		t.Fatalf("got %v, want room_created", got)
	}
}

func TestPlainHTTPOnSocketPath(t *testing.T) {
	srv := startTestServer(t)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		req, _ := http.NewRequest(method, srv.URL+"/ws", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s /ws: %v", method, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUpgradeRequired {
			t.Fatalf("%s /ws status=%d, want 426", method, resp.StatusCode)
		}
	}

	if status := getJSON(t, srv.URL+"/health", nil); status != http.StatusOK {
		t.Fatalf("health status=%d", status)
	}
	if status := getJSON(t, srv.URL+"/api/v1/rooms/NOPE00", nil); status != http.StatusNotFound {
		t.Fatalf("unknown room status=%d, want 404", status)
	}
}

func TestOriginChecker(t *testing.T) {
	withOrigin := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	cases := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"empty list allows all", nil, "https://evil.example", true},
		{"wildcard", []string{"*"}, "https://evil.example", true},
		{"listed origin", []string{"https://app.example/"}, "https://APP.example", true},
		{"unlisted origin", []string{"https://app.example"}, "https://evil.example", false},
		{"trailing slash on request", []string{"https://app.example"}, "https://app.example/", true},
		{"trailing slash on both", []string{"https://App.example/"}, "https://app.EXAMPLE/", true},
		{"no origin header", []string{"https://app.example"}, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := originChecker(tc.allowed)(withOrigin(tc.origin)); got != tc.want {
				t.Fatalf("allowed=%v origin=%q: got %v, want %v", tc.allowed, tc.origin, got, tc.want)
			}
		})
	}
}

func TestICEServers(t *testing.T) {
	router := mux.NewRouter()
	NewICEHandler([]ice.Server{{URLs: []string{ice.DefaultSTUN}}}).RegisterRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ice-servers", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}

	var body struct {
		ICEServers []ice.Server `json:"iceServers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.ICEServers) != 1 || body.ICEServers[0].URLs[0] != ice.DefaultSTUN {
		t.Fatalf("iceServers=%+v", body.ICEServers)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/ice-servers", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status=%d, want 204", rec.Code)
	}
}
