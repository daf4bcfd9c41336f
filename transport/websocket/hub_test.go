package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/wricardo/rescue-simulator/game/engine"
	"github.com/wricardo/rescue-simulator/game/service"
)

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, 256),
	}
}

func receive(t *testing.T, client *Client) Message {
	t.Helper()
	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		return message
	case <-time.After(time.Second):
		t.Fatal("No message received within timeout")
	}
	return Message{}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestNewHub(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if cap(hub.broadcast) != broadcastBuffer {
		t.Errorf("Expected broadcast buffer %d, got %d", broadcastBuffer, cap(hub.broadcast))
	}
	if hub.ClientCount() != 0 {
		t.Errorf("Expected no clients, got %d", hub.ClientCount())
	}
}

func TestHubRegisterAndUnregister(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client1 := newTestClient(hub, "s1")
	client2 := newTestClient(hub, "s1")

	hub.registerClient(client1)
	hub.registerClient(client2)

	if len(hub.sessions["s1"]) != 2 {
		t.Errorf("Expected 2 clients in session, got %d", len(hub.sessions["s1"]))
	}
	if hub.ClientCount() != 2 {
		t.Errorf("Expected client count 2, got %d", hub.ClientCount())
	}

	hub.unregisterClient(client1)
	if !hub.sessions["s1"][client2] {
		t.Error("client2 should still be registered")
	}
	if _, open := <-client1.send; open {
		t.Error("send channel of unregistered client should be closed")
	}

	hub.unregisterClient(client2)
	if _, exists := hub.sessions["s1"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}
	// a second unregister is a no-op
	hub.unregisterClient(client2)
	if hub.ClientCount() != 0 {
		t.Errorf("Expected client count 0, got %d", hub.ClientCount())
	}
}

func TestHubBroadcastTurns(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	defer hub.Stop()

	client := newTestClient(hub, "ab12")
	other := newTestClient(hub, "zz99")
	hub.register <- client
	hub.register <- other

	reports := []*engine.TurnReport{
		{Turn: 3, Deliveries: []engine.Delivery{{VehicleID: 1, Team: engine.Team1, Points: 20}}},
		{Turn: 4},
	}
	state := &service.GameState{SessionID: "ab12", Turn: 5, Width: 12, Height: 10}

	// session ids are matched case-insensitively
	hub.BroadcastTurns("AB12", reports, state)

	first := receive(t, client)
	if first.Event != EventTurn || first.Turn != 3 {
		t.Errorf("Expected turn event for turn 3, got %s/%d", first.Event, first.Turn)
	}
	if first.Report == nil || len(first.Report.Deliveries) != 1 {
		t.Fatal("Turn report not transmitted")
	}
	if first.Report.Deliveries[0].Points != 20 {
		t.Errorf("Expected 20 points, got %d", first.Report.Deliveries[0].Points)
	}

	second := receive(t, client)
	if second.Turn != 4 {
		t.Errorf("Expected turn 4, got %d", second.Turn)
	}

	final := receive(t, client)
	if final.Event != EventStateUpdate {
		t.Errorf("Expected state_update, got %s", final.Event)
	}
	if final.GameState == nil || final.GameState.Turn != 5 || final.Turn != 5 {
		t.Error("Final state not correctly transmitted")
	}

	select {
	case <-other.send:
		t.Error("Client of another session received a broadcast")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	defer hub.Stop()

	client := newTestClient(hub, "event-test")
	hub.register <- client

	hub.BroadcastEvent("event-test", EventSessionDeleted, "gone")

	message := receive(t, client)
	if message.Event != EventSessionDeleted {
		t.Errorf("Expected event %s, got %s", EventSessionDeleted, message.Event)
	}
	if message.Data != "gone" {
		t.Errorf("Expected data 'gone', got %v", message.Data)
	}
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	// no Run loop: the buffer fills and publish must not block
	for i := 0; i < broadcastBuffer+10; i++ {
		hub.BroadcastEvent("s", "tick", i)
	}
	if len(hub.broadcast) != broadcastBuffer {
		t.Errorf("Expected full buffer, got %d", len(hub.broadcast))
	}
}

func TestHubStop(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	stopped := make(chan struct{})
	go func() {
		hub.Run()
		close(stopped)
	}()

	client := newTestClient(hub, "s")
	hub.register <- client

	hub.Stop()
	hub.Stop()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
	if _, open := <-client.send; open {
		t.Error("client should be disconnected on stop")
	}
	// publishing after stop must not block
	hub.BroadcastEvent("s", "late", nil)
}

func TestWebSocketFeed(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	defer hub.Stop()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=feed"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.BroadcastTurns("feed", []*engine.TurnReport{{Turn: 0}}, &service.GameState{SessionID: "feed", Turn: 1})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	for _, want := range []string{EventTurn, EventStateUpdate} {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Failed to read WebSocket message: %v", err)
		}
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.Event != want {
			t.Errorf("Expected event %s, got %s", want, message.Event)
		}
	}

	conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}
