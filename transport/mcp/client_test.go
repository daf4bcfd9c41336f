package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/wricardo/rescue-simulator/game/engine"
	"github.com/wricardo/rescue-simulator/game/service"
)

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected tool result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func sampleState() *service.GameState {
	return &service.GameState{
		SessionID:      "ab12",
		Turn:           7,
		Width:          4,
		Height:         2,
		ItemsRemaining: 3,
		Teams: []engine.TeamSnapshot{
			{ID: 1, Name: "Red", Points: 20, Vehicles: []engine.Vehicle{{ID: 1}}},
			{ID: 2, Name: "Blue", Points: 5},
		},
		Mines: []engine.Mine{{Kind: engine.MineO1, Active: true}, {Kind: engine.MineT2}},
		Grid:  []string{"1.p.", "..~O"},
	}
}

// fakeAPI answers the REST routes the tools call and records the last request
type fakeAPI struct {
	method, path, query string
	body               map[string]interface{}
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.method, f.path, f.query = r.Method, r.URL.Path, r.URL.RawQuery
		f.body = nil
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&f.body)
		}
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.URL.Path == "/api/sessions" && r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(service.SessionInfo{ID: "ab12", ConfigID: "classic", CreatedAt: time.Now(), GameState: sampleState()})
		case r.URL.Path == "/api/sessions":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"count":    1,
				"sessions": []service.SessionInfo{{ID: "ab12", ConfigID: "classic", Turn: 7}},
			})
		case r.URL.Path == "/api/sessions/missing/state":
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "session not found"})
		case strings.HasSuffix(r.URL.Path, "/state"):
			json.NewEncoder(w).Encode(sampleState())
		case strings.HasSuffix(r.URL.Path, "/advance"):
			json.NewEncoder(w).Encode(service.AdvanceResult{
				SessionID:      "ab12",
				RequestedTurns: 3,
				TurnsAdvanced:  3,
				PointsScored:   map[engine.TeamID]int{1: 15, 2: 0},
				Destroyed:      []int{4},
				Reports: []*engine.TurnReport{
					{Turn: 5},
					{Turn: 6, Deliveries: []engine.Delivery{{VehicleID: 1, Team: 1, Items: []engine.Item{{Kind: engine.ItemPerson}}, Points: 15}}},
					{Turn: 7, Collisions: []engine.CollisionEvent{{Pos: engine.Position{X: 2, Y: 1}, Vehicles: []int{4, 5}}}},
				},
				GameState: sampleState(),
			})
		case strings.Contains(r.URL.Path, "/cells/"):
			json.NewEncoder(w).Encode(engine.CellInfo{
				Position:  engine.Position{X: 2, Y: 0},
				Occupant:  "item",
				Hazardous: true,
				Item:      &engine.Item{Kind: engine.ItemPerson},
			})
		case strings.HasSuffix(r.URL.Path, "/history"):
			json.NewEncoder(w).Encode(map[string]interface{}{
				"count":   1,
				"history": []service.TurnStat{{Turn: 7, Team: 1, Points: 20, VehiclesAlive: 1, Deliveries: 2}},
			})
		case strings.HasSuffix(r.URL.Path, "/snapshots") && r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(service.SnapshotInfo{SessionID: "ab12", Turn: 7})
		case strings.HasSuffix(r.URL.Path, "/snapshots"):
			json.NewEncoder(w).Encode(map[string]interface{}{"turns": []int{0, 7}})
		case strings.HasSuffix(r.URL.Path, "/load"):
			json.NewEncoder(w).Encode(sampleState())
		case r.URL.Path == "/api/configs":
			json.NewEncoder(w).Encode([]*service.ConfigInfo{{ConfigID: "classic", Name: "classic", Width: 50, Height: 50, Vehicles: 20, Mines: 15}})
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	})
}

func newTestClient(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	server := httptest.NewServer(api.handler(t))
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", zerolog.Nop()), api
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL+"/", zerolog.Nop())

	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	client, api := newTestClient(t)

	var state service.GameState
	if err := client.apiCall(context.Background(), "GET", "/api/sessions/ab12/state", nil, &state); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if state.Turn != 7 {
		t.Errorf("Expected turn 7, got %d", state.Turn)
	}
	if api.method != "GET" {
		t.Errorf("Expected GET, got %s", api.method)
	}
}

func TestClient_apiCall_Errors(t *testing.T) {
	client, _ := newTestClient(t)

	err := client.apiCall(context.Background(), "GET", "/api/sessions/missing/state", nil, nil)
	if err == nil || err.Error() != "session not found" {
		t.Errorf("Expected API error message, got %v", err)
	}

	err = client.apiCall(context.Background(), "GET", "/nowhere", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "418") {
		t.Errorf("Expected status code error, got %v", err)
	}

	unreachable := NewClient("http://127.0.0.1:1", zerolog.Nop())
	if err := unreachable.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
		t.Error("Expected connection error")
	}
}

func TestClient_Handlers(t *testing.T) {
	client, api := newTestClient(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		handler  func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args     map[string]interface{}
		method   string
		path     string
		contains []string
	}{
		{
			name:     "create session",
			handler:  client.handleCreateSession,
			args:     map[string]interface{}{"config_id": "classic"},
			method:   "POST",
			path:     "/api/sessions",
			contains: []string{"Session: ab12", "Config: classic", "Team 1 (Red): 20 points"},
		},
		{
			name:     "list sessions",
			handler:  client.handleListSessions,
			method:   "GET",
			path:     "/api/sessions",
			contains: []string{"Active Sessions (1)", "ab12 (Config: classic, Turn: 7"},
		},
		{
			name:     "advance turns",
			handler:  client.handleAdvanceTurns,
			args:     map[string]interface{}{"session_id": "ab12", "turns": float64(3)},
			method:   "POST",
			path:     "/api/sessions/ab12/advance",
			contains: []string{"Advanced 3 of 3 turns", "Team 1 scored 15", "Vehicles destroyed: [4]", "vehicle 1 delivered 1 items for 15", "collision at (2,1) [4 5]"},
		},
		{
			name:     "game state",
			handler:  client.handleGameState,
			args:     map[string]interface{}{"session_id": "ab12"},
			method:   "GET",
			path:     "/api/sessions/ab12/state",
			contains: []string{"Turn 7 on a 4x2 grid, 3 items remaining", "Mines: 2 (1 active)", "1.p.\n..~O"},
		},
		{
			name:     "describe cell",
			handler:  client.handleDescribeCell,
			args:     map[string]interface{}{"session_id": "ab12", "x": float64(2), "y": float64(0)},
			method:   "GET",
			path:     "/api/sessions/ab12/cells/2/0",
			contains: []string{"Cell (2,0): item", "Hazardous: true", "Item person worth"},
		},
		{
			name:     "turn history",
			handler:  client.handleTurnHistory,
			args:     map[string]interface{}{"session_id": "ab12", "team": float64(1)},
			method:   "GET",
			path:     "/api/sessions/ab12/history",
			contains: []string{"History of session ab12", "   7    1     20"},
		},
		{
			name:     "save snapshot",
			handler:  client.handleSaveSnapshot,
			args:     map[string]interface{}{"session_id": "ab12"},
			method:   "POST",
			path:     "/api/sessions/ab12/snapshots",
			contains: []string{"at turn 7"},
		},
		{
			name:     "list snapshots",
			handler:  client.handleListSnapshots,
			args:     map[string]interface{}{"session_id": "ab12"},
			method:   "GET",
			path:     "/api/sessions/ab12/snapshots",
			contains: []string{"turns: 0, 7"},
		},
		{
			name:     "load latest snapshot",
			handler:  client.handleLoadSnapshot,
			args:     map[string]interface{}{"session_id": "ab12"},
			method:   "POST",
			path:     "/api/sessions/ab12/snapshots/latest/load",
			contains: []string{"Loaded turn 7"},
		},
		{
			name:     "load numbered snapshot",
			handler:  client.handleLoadSnapshot,
			args:     map[string]interface{}{"session_id": "ab12", "turn": float64(0)},
			method:   "POST",
			path:     "/api/sessions/ab12/snapshots/0/load",
			contains: []string{"Loaded turn 7"},
		},
		{
			name:     "list configs",
			handler:  client.handleListConfigs,
			method:   "GET",
			path:     "/api/configs",
			contains: []string{"classic: classic (50x50, 20 vehicles, 15 mines)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.handler(ctx, callRequest(tt.name, tt.args))
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if result.IsError {
				t.Fatalf("Unexpected tool error: %s", resultText(t, result))
			}
			if api.method != tt.method || api.path != tt.path {
				t.Errorf("Expected %s %s, got %s %s", tt.method, tt.path, api.method, api.path)
			}
			text := resultText(t, result)
			for _, want := range tt.contains {
				if !strings.Contains(text, want) {
					t.Errorf("Expected output to contain %q, got:\n%s", want, text)
				}
			}
		})
	}

	t.Run("advance sends turn count", func(t *testing.T) {
		client.handleAdvanceTurns(ctx, callRequest("advance_turns", map[string]interface{}{"session_id": "ab12", "turns": float64(3)}))
		if api.body["turns"] != float64(3) {
			t.Errorf("Expected turns 3 in body, got %v", api.body["turns"])
		}
	})

	t.Run("history team filter", func(t *testing.T) {
		client.handleTurnHistory(ctx, callRequest("turn_history", map[string]interface{}{"session_id": "ab12", "team": float64(2)}))
		if api.query != "team=2" {
			t.Errorf("Expected team=2 query, got %q", api.query)
		}
	})
}

func TestClient_HandlerErrors(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	result, _ := client.handleGameState(ctx, callRequest("game_state", nil))
	if !result.IsError {
		t.Error("Expected error for missing session_id")
	}

	result, _ = client.handleGameState(ctx, callRequest("game_state", map[string]interface{}{"session_id": "missing"}))
	if !result.IsError || !strings.Contains(resultText(t, result), "session not found") {
		t.Error("Expected API error to surface as tool error")
	}

	result, _ = client.handleDescribeCell(ctx, callRequest("describe_cell", map[string]interface{}{"session_id": "ab12", "x": float64(1)}))
	if !result.IsError {
		t.Error("Expected error for missing y")
	}

	result, _ = client.handleDescribeCell(ctx, callRequest("describe_cell", map[string]interface{}{"session_id": "ab12", "x": float64(-1), "y": float64(0)}))
	if !result.IsError {
		t.Error("Expected error for negative coordinate")
	}
}

func TestClient_handleRules(t *testing.T) {
	client := NewClient("http://localhost:0", zerolog.Nop())

	result, err := client.handleRules(context.Background(), callRequest("simulator_rules", nil))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	text := resultText(t, result)
	for _, want := range []string{"ITEM POINTS", "person", "truck", "T2  1,5", "GRID LEGEND"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected rules to contain %q", want)
		}
	}
}

func TestClient_ToolsList(t *testing.T) {
	client := NewClient("http://localhost:0", zerolog.Nop())

	msg := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	response := client.GetMCPServer().HandleMessage(context.Background(), msg)
	data, err := json.Marshal(response)
	if err != nil {
		t.Fatalf("Failed to marshal response: %v", err)
	}

	for _, tool := range []string{
		"create_session", "list_sessions", "get_session", "delete_session", "reset_session",
		"advance_turns", "game_state", "describe_cell", "turn_history",
		"save_snapshot", "load_snapshot", "list_snapshots", "list_configs", "simulator_rules",
	} {
		if !strings.Contains(string(data), `"`+tool+`"`) {
			t.Errorf("Expected tool %s to be registered", tool)
		}
	}
}

func TestClient_ToolCallOverJSONRPC(t *testing.T) {
	client, api := newTestClient(t)

	msg := json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"game_state","arguments":{"session_id":"ab12"}}}`)
	response := client.GetMCPServer().HandleMessage(context.Background(), msg)
	data, _ := json.Marshal(response)

	if api.path != "/api/sessions/ab12/state" {
		t.Errorf("Expected state request, got %s", api.path)
	}
	if !strings.Contains(string(data), "Turn 7 on a 4x2 grid") {
		t.Errorf("Expected formatted state in response, got %s", data)
	}
}

func TestFormatGameState_GameOver(t *testing.T) {
	state := sampleState()
	state.GameOver = true
	state.GameOverReason = engine.ReasonNoItems

	text := formatGameState(state)
	if !strings.Contains(text, "GAME OVER: no_items") {
		t.Errorf("Expected game over line, got:\n%s", text)
	}
	if formatGameState(nil) != "(no state)\n" {
		t.Error("Expected placeholder for nil state")
	}
}

func TestFormatHistory_Empty(t *testing.T) {
	if got := formatHistory("ab12", nil); got != "No history recorded for session ab12" {
		t.Errorf("Unexpected output %q", got)
	}
}
