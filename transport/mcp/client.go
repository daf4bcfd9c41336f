package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/wricardo/rescue-simulator/game/engine"
	"github.com/wricardo/rescue-simulator/game/service"
)

// ServerName and ServerVersion identify the tool server to MCP clients
const (
	ServerName    = "Rescue Simulator"
	ServerVersion = "1.0.0"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
	logger     zerolog.Logger
}

// NewClient creates a new MCP client that calls the REST API at baseURL
func NewClient(baseURL string, logger zerolog.Logger) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With().Str("component", "mcp").Logger(),
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(`Rescue Simulator - MCP Interface

Two teams of vehicles collect items on a grid full of toggling mines and bring
them back to their base column. You do not steer vehicles: each vehicle runs a
planning strategy and you advance the simulation turn by turn.

TYPICAL FLOW:
1. list_configs, then create_session with a config_id
2. advance_turns to run the simulation (up to 500 turns per call)
3. game_state / describe_cell / turn_history to inspect the outcome
4. save_snapshot before experimenting, load_snapshot to roll back

Call simulator_rules for the scoring table, mine shapes and grid legend.`),
	)

	c.registerTools()
}

func sessionParam() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID"))
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Create a new simulation session from a scenario"),
		mcp.WithString("config_id", mcp.Description("Scenario to use (optional, defaults to classic)")),
	), c.handleCreateSession)

	c.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List all active sessions"),
		mcp.WithReadOnlyHintAnnotation(true),
	), c.handleListSessions)

	c.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get details of a specific session"),
		mcp.WithReadOnlyHintAnnotation(true),
		sessionParam(),
	), c.handleGetSession)

	c.mcpServer.AddTool(mcp.NewTool("delete_session",
		mcp.WithDescription("Delete a session with its snapshots and history"),
		mcp.WithDestructiveHintAnnotation(true),
		sessionParam(),
	), c.handleDeleteSession)

	c.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Rebuild the session's world from its scenario, back to turn 0"),
		mcp.WithDestructiveHintAnnotation(true),
		sessionParam(),
	), c.handleResetSession)

	// Turn resolution
	c.mcpServer.AddTool(mcp.NewTool("advance_turns",
		mcp.WithDescription("Resolve one or more turns. Stops early when the game is over."),
		sessionParam(),
		mcp.WithNumber("turns", mcp.Description("Number of turns to resolve (default 1, max 500)"), mcp.Min(1)),
	), c.handleAdvanceTurns)

	c.mcpServer.AddTool(mcp.NewTool("game_state",
		mcp.WithDescription("Get scores, rosters and the rendered grid of a session"),
		mcp.WithReadOnlyHintAnnotation(true),
		sessionParam(),
	), c.handleGameState)

	c.mcpServer.AddTool(mcp.NewTool("describe_cell",
		mcp.WithDescription("Describe a single grid cell: occupant, hazard flag, explosion marker"),
		mcp.WithReadOnlyHintAnnotation(true),
		sessionParam(),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Column (0-based)"), mcp.Min(0)),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Row (0-based)"), mcp.Min(0)),
	), c.handleDescribeCell)

	c.mcpServer.AddTool(mcp.NewTool("turn_history",
		mcp.WithDescription("Per-team standings recorded after each advance"),
		mcp.WithReadOnlyHintAnnotation(true),
		sessionParam(),
		mcp.WithNumber("team", mcp.Description("Restrict to team 1 or 2")),
	), c.handleTurnHistory)

	// Snapshots
	c.mcpServer.AddTool(mcp.NewTool("save_snapshot",
		mcp.WithDescription("Store the current turn of a session"),
		sessionParam(),
	), c.handleSaveSnapshot)

	c.mcpServer.AddTool(mcp.NewTool("load_snapshot",
		mcp.WithDescription("Roll a session back to a stored turn"),
		mcp.WithDestructiveHintAnnotation(true),
		sessionParam(),
		mcp.WithNumber("turn", mcp.Description("Stored turn to load (default: latest)"), mcp.Min(0)),
	), c.handleLoadSnapshot)

	c.mcpServer.AddTool(mcp.NewTool("list_snapshots",
		mcp.WithDescription("List the stored turns of a session"),
		mcp.WithReadOnlyHintAnnotation(true),
		sessionParam(),
	), c.handleListSnapshots)

	// Scenarios and help
	c.mcpServer.AddTool(mcp.NewTool("list_configs",
		mcp.WithDescription("List available scenarios"),
		mcp.WithReadOnlyHintAnnotation(true),
	), c.handleListConfigs)

	c.mcpServer.AddTool(mcp.NewTool("simulator_rules",
		mcp.WithDescription("Rules of the simulation: scoring, vehicles, mines and grid legend"),
		mcp.WithReadOnlyHintAnnotation(true),
	), c.handleRules)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(id string, parts ...string) string {
	p := "/api/sessions/" + url.PathEscape(id)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

func (c *Client) toolError(tool string, err error) *mcp.CallToolResult {
	c.logger.Debug().Err(err).Str("tool", tool).Msg("tool call failed")
	return mcp.NewToolResultError(err.Error())
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]string{}
	if configID := request.GetString("config_id", ""); configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return c.toolError("create_session", err), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return c.toolError("list_sessions", err), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&b, "- %s (Config: %s, Turn: %d, Last access: %s)\n",
			s.ID, s.ConfigID, s.Turn, s.LastAccessedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID), nil, &session); err != nil {
		return c.toolError("get_session", err), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleDeleteSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := c.apiCall(ctx, "DELETE", sessionPath(sessionID), nil, nil); err != nil {
		return c.toolError("delete_session", err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Session %s deleted", sessionID)), nil
}

func (c *Client) handleResetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		State *service.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "reset"), nil, &response); err != nil {
		return c.toolError("reset_session", err), nil
	}

	return mcp.NewToolResultText("Session reset.\n\n" + formatGameState(response.State)), nil
}

func (c *Client) handleAdvanceTurns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	turns := request.GetInt("turns", 1)

	body := map[string]interface{}{"turns": turns, "reports": true}
	var result service.AdvanceResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "advance"), body, &result); err != nil {
		return c.toolError("advance_turns", err), nil
	}

	return mcp.NewToolResultText(formatAdvanceResult(&result)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state service.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "state"), nil, &state); err != nil {
		return c.toolError("game_state", err), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	x, err := request.RequireInt("x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	y, err := request.RequireInt("y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if x < 0 || y < 0 {
		return mcp.NewToolResultError(fmt.Sprintf("coordinates (%d, %d) must not be negative", x, y)), nil
	}

	var info engine.CellInfo
	path := sessionPath(sessionID, "cells", fmt.Sprint(x), fmt.Sprint(y))
	if err := c.apiCall(ctx, "GET", path, nil, &info); err != nil {
		return c.toolError("describe_cell", err), nil
	}

	return mcp.NewToolResultText(formatCellInfo(&info)), nil
}

func (c *Client) handleTurnHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	path := sessionPath(sessionID, "history")
	if team := request.GetInt("team", 0); team != 0 {
		path += fmt.Sprintf("?team=%d", team)
	}

	var response struct {
		Count   int                `json:"count"`
		History []service.TurnStat `json:"history"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return c.toolError("turn_history", err), nil
	}

	return mcp.NewToolResultText(formatHistory(sessionID, response.History)), nil
}

func (c *Client) handleSaveSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var info service.SnapshotInfo
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "snapshots"), nil, &info); err != nil {
		return c.toolError("save_snapshot", err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Saved snapshot of session %s at turn %d", sessionID, info.Turn)), nil
}

func (c *Client) handleLoadSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	turn := "latest"
	if n := request.GetInt("turn", -1); n >= 0 {
		turn = fmt.Sprint(n)
	}

	var state service.GameState
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "snapshots", turn, "load"), nil, &state); err != nil {
		return c.toolError("load_snapshot", err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Loaded turn %d.\n\n%s", state.Turn, formatGameState(&state))), nil
}

func (c *Client) handleListSnapshots(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Turns []int `json:"turns"`
	}
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "snapshots"), nil, &response); err != nil {
		return c.toolError("list_snapshots", err), nil
	}

	if len(response.Turns) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Session %s has no snapshots", sessionID)), nil
	}
	turns := make([]string, len(response.Turns))
	for i, t := range response.Turns {
		turns[i] = fmt.Sprint(t)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Snapshots of session %s at turns: %s", sessionID, strings.Join(turns, ", "))), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []*service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return c.toolError("list_configs", err), nil
	}

	var b strings.Builder
	b.WriteString("Available scenarios:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "- %s: %s (%dx%d, %d vehicles, %d mines)\n",
			cfg.ConfigID, cfg.Name, cfg.Width, cfg.Height, cfg.Vehicles, cfg.Mines)
		if cfg.Description != "" {
			fmt.Fprintf(&b, "  %s\n", cfg.Description)
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	b.WriteString("RESCUE SIMULATOR RULES\n\n")
	b.WriteString("Team 1 is based in the leftmost column, team 2 in the rightmost. Vehicles pick up\n")
	b.WriteString("items by driving onto them and score when they return to their base column.\n\n")

	b.WriteString("ITEM POINTS:\n")
	for _, kind := range engine.ItemKinds {
		fmt.Fprintf(&b, "  %-9s %d\n", kind, kind.Value())
	}

	b.WriteString("\nVEHICLES (capacity):\n")
	for _, kind := range engine.VehicleKinds {
		fmt.Fprintf(&b, "  %-11s %d\n", kind, kind.Capacity())
	}

	b.WriteString("\nMINES (blast half-extents x,y):\n")
	for _, kind := range engine.MineKinds {
		xr, yr := kind.Radii()
		fmt.Fprintf(&b, "  %s  %d,%d\n", kind, xr, yr)
	}
	fmt.Fprintf(&b, "Mines toggle every %d turns by default. A vehicle inside an active blast\n", engine.DefaultMineTogglePeriod)
	b.WriteString("rectangle is destroyed. Vehicles meeting on a cell destroy each other and\n")
	b.WriteString("leave an explosion marker for three turns.\n\n")

	b.WriteString("GRID LEGEND:\n")
	b.WriteString("  1 2        vehicles of team 1 / team 2\n")
	b.WriteString("  p w c f h  person, weapon, clothing, food, heal\n")
	b.WriteString("  O o T t G  mines O1 O2 T1 T2 G1 (g = collapsed G1)\n")
	b.WriteString("  *          explosion marker\n")
	b.WriteString("  ~          empty hazardous cell\n\n")

	b.WriteString("The game ends when no vehicles remain, no items remain, or no vehicle\n")
	b.WriteString("carries cargo and none can reach an item.\n")

	return mcp.NewToolResultText(b.String()), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nConfig: %s\nTurn: %d\nCreated: %s\n",
		session.ID, session.ConfigID, session.Turn, session.CreatedAt.Format(time.RFC3339))
	if session.GameState != nil {
		b.WriteString("\n")
		b.WriteString(formatGameState(session.GameState))
	}
	return b.String()
}

func formatGameState(state *service.GameState) string {
	if state == nil {
		return "(no state)\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Turn %d on a %dx%d grid, %d items remaining\n", state.Turn, state.Width, state.Height, state.ItemsRemaining)
	for _, team := range state.Teams {
		fmt.Fprintf(&b, "Team %d (%s): %d points, %d vehicles, %d deliveries, %d collisions, %d mine deaths\n",
			team.ID, team.Name, team.Points, len(team.Vehicles),
			team.Stats.Deliveries, team.Stats.Collisions, team.Stats.MineDeaths)
	}
	active := 0
	for _, m := range state.Mines {
		if m.Active {
			active++
		}
	}
	fmt.Fprintf(&b, "Mines: %d (%d active), explosion markers: %d\n", len(state.Mines), active, len(state.Explosions))
	if state.GameOver {
		fmt.Fprintf(&b, "GAME OVER: %s\n", state.GameOverReason)
	}
	if len(state.Grid) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(state.Grid, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

func formatAdvanceResult(result *service.AdvanceResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Advanced %d of %d turns", result.TurnsAdvanced, result.RequestedTurns)
	if result.Truncated {
		fmt.Fprintf(&b, " (truncated to %d)", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, ", stopped: %s", result.StoppedReason)
	}
	b.WriteString("\n")

	teams := make([]int, 0, len(result.PointsScored))
	for team := range result.PointsScored {
		teams = append(teams, int(team))
	}
	sort.Ints(teams)
	for _, team := range teams {
		fmt.Fprintf(&b, "Team %d scored %d\n", team, result.PointsScored[engine.TeamID(team)])
	}
	if len(result.Destroyed) > 0 {
		fmt.Fprintf(&b, "Vehicles destroyed: %v\n", result.Destroyed)
	}

	for _, r := range result.Reports {
		events := len(r.Collisions) + len(r.MineKills) + len(r.Deliveries) + len(r.StrategyFailures) + len(r.ToggledMines)
		if events == 0 {
			continue
		}
		fmt.Fprintf(&b, "  turn %d:", r.Turn)
		if len(r.ToggledMines) > 0 {
			fmt.Fprintf(&b, " %d mines toggled;", len(r.ToggledMines))
		}
		for _, d := range r.Deliveries {
			fmt.Fprintf(&b, " vehicle %d delivered %d items for %d;", d.VehicleID, len(d.Items), d.Points)
		}
		for _, col := range r.Collisions {
			fmt.Fprintf(&b, " collision at (%d,%d) %v;", col.Pos.X, col.Pos.Y, col.Vehicles)
		}
		for _, k := range r.MineKills {
			fmt.Fprintf(&b, " vehicle %d killed by %s;", k.VehicleID, k.Mine)
		}
		for _, f := range r.StrategyFailures {
			fmt.Fprintf(&b, " vehicle %d strategy %s failed;", f.VehicleID, f.Strategy)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatCellInfo(info *engine.CellInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cell (%d,%d): %s\n", info.Position.X, info.Position.Y, info.Occupant)
	fmt.Fprintf(&b, "Hazardous: %t\n", info.Hazardous)
	switch {
	case info.Vehicle != nil:
		v := info.Vehicle
		fmt.Fprintf(&b, "Vehicle %d: team %d %s, %s, cargo %d/%d, strategy %s\n",
			v.ID, v.Team, v.Kind, v.State, len(v.Cargo), v.Capacity, v.Strategy)
	case info.Mine != nil:
		fmt.Fprintf(&b, "Mine %s, active: %t\n", info.Mine.Kind, info.Mine.Active)
	case info.Item != nil:
		fmt.Fprintf(&b, "Item %s worth %d\n", info.Item.Kind, info.Item.Kind.Value())
	}
	if info.Explosion > 0 {
		fmt.Fprintf(&b, "Explosion marker, %d turns left\n", info.Explosion)
	}
	return b.String()
}

func formatHistory(sessionID string, stats []service.TurnStat) string {
	if len(stats) == 0 {
		return fmt.Sprintf("No history recorded for session %s", sessionID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "History of session %s:\n\n", sessionID)
	b.WriteString("turn team points alive deliveries collisions mine_deaths\n")
	for _, st := range stats {
		fmt.Fprintf(&b, "%4d %4d %6d %5d %10d %10d %11d\n",
			st.Turn, st.Team, st.Points, st.VehiclesAlive, st.Deliveries, st.Collisions, st.MineDeaths)
	}
	return b.String()
}
