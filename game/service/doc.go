// Package service provides the business logic layer for the rescue simulator.
//
// The service package implements:
//   - Multi-session game management
//   - Multi-turn advancing with cancellation and a per-call turn limit
//   - Snapshot save and restore per session
//   - Optional per-team turn history
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, persistence and snapshots.
// ConfigManager loads and validates scenarios.
// HistoryStore records team statistics after each advance.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns one engine and serialises access to it
// with its own mutex, so different sessions advance concurrently.
//
// Usage:
//
//	sessionMgr := session.NewManagerWithPersistence(persistence, logger)
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr, service.WithLogger(logger))
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.AdvanceTurns(ctx, info.ID, 10)
//
// Turn numbering:
//
// A session's Turn is the number of turns played. It is the index passed to
// the next engine.AdvanceTurn call and the label of any snapshot taken now.
package service
