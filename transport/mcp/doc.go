// Package mcp exposes the rescue simulator to AI agents over the Model
// Context Protocol.
//
// The Client registers one MCP tool per REST operation and forwards every
// call to the HTTP API, so the same server process can answer browser,
// spectator and agent traffic. Results come back as plain text: scores,
// per-turn events and the rendered grid.
//
// Tools:
//   - create_session, list_sessions, get_session, delete_session, reset_session
//   - advance_turns: resolve up to 500 turns per call
//   - game_state, describe_cell, turn_history
//   - save_snapshot, load_snapshot, list_snapshots
//   - list_configs, simulator_rules
//
// Transport Modes:
//
// The server is served over stdio (server.ServeStdio) for local agents, or
// mounted on the HTTP server at /mcp, where each POSTed JSON-RPC message is
// passed to MCPServer.HandleMessage.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080", logger)
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
