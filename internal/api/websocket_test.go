package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rowanfell/hearth-core/internal/auth"
	"github.com/rowanfell/hearth-core/internal/infrastructure/config"
	"github.com/rowanfell/hearth-core/internal/infrastructure/logging"
)

func newTestClient(hub *Hub) *WSClient {
	return &WSClient{
		hub:           hub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
		username:      "test",
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, logging.Default())
	client := newTestClient(hub)

	hub.Register(client)
	if hub.ClientCount() != 1 {
		t.Fatalf("ClientCount() = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(client)
	if hub.ClientCount() != 0 {
		t.Fatalf("ClientCount() = %d, want 0", hub.ClientCount())
	}

	// Unregistering twice must not panic (send channel closed once).
	hub.Unregister(client)
}

func TestHub_BroadcastOnlyToSubscribed(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, logging.Default())

	subscribed := newTestClient(hub)
	subscribed.subscriptions["device.reading"] = struct{}{}
	other := newTestClient(hub)
	other.subscriptions["something.else"] = struct{}{}

	hub.Register(subscribed)
	hub.Register(other)

	hub.Broadcast("device.reading", map[string]any{"value": 21.5})

	select {
	case data := <-subscribed.send:
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal broadcast: %v", err)
		}
		if msg.Type != WSTypeEvent || msg.EventType != "device.reading" {
			t.Errorf("message = %+v", msg)
		}
	default:
		t.Fatal("subscribed client should have received the event")
	}

	select {
	case <-other.send:
		t.Fatal("unsubscribed client should not receive the event")
	default:
	}
}

func TestHub_BroadcastToClosedClient(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, logging.Default())
	client := newTestClient(hub)
	client.subscriptions["device.reading"] = struct{}{}

	hub.Register(client)
	hub.Unregister(client)
	hub.Register(client) // re-registered with a closed send channel

	// trySend must absorb the send-on-closed-channel panic.
	hub.Broadcast("device.reading", map[string]any{"value": 1.0})
}

func TestHandleEvents_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/events", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous /api/events status = %d, want 401", rec.Code)
	}
}

func TestHandleEvents_SubscribeAndReceive(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "rowan", "first-light-9", auth.RoleUser)
	cookies := env.login(t, "rowan", "first-light-9")

	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	header := http.Header{}
	for _, c := range cookies {
		header.Add("Cookie", c.Name+"="+c.Value)
	}

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	// Subscribe to the reading channel.
	sub := WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "sub-1",
		Payload: WSSubscribePayload{Channels: []string{"device.reading"}},
	}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("writing subscribe: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second)) //nolint:errcheck // test deadline
	var ack WSMessage
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("reading subscribe ack: %v", err)
	}
	if ack.Type != WSTypeResponse || ack.ID != "sub-1" {
		t.Fatalf("ack = %+v", ack)
	}

	// A broadcast on the subscribed channel arrives as an event.
	env.srv.Hub().Broadcast("device.reading", map[string]any{"value": 21.5})

	var event WSMessage
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	if event.Type != WSTypeEvent || event.EventType != "device.reading" {
		t.Errorf("event = %+v", event)
	}
}

func TestHandleEvents_PingPong(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "rowan", "first-light-9", auth.RoleUser)
	cookies := env.login(t, "rowan", "first-light-9")

	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	header := http.Header{}
	for _, c := range cookies {
		header.Add("Cookie", c.Name+"="+c.Value)
	}

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	if err := conn.WriteJSON(WSMessage{Type: WSTypePing, ID: "p-1"}); err != nil {
		t.Fatalf("writing ping: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second)) //nolint:errcheck // test deadline
	var pong WSMessage
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("reading pong: %v", err)
	}
	if pong.Type != WSTypePong || pong.ID != "p-1" {
		t.Errorf("pong = %+v", pong)
	}
}
