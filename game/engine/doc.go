// Package engine provides the turn-resolution core of the rescue simulator.
//
// The engine package implements the game mechanics including:
//   - A rectangular grid holding at most one occupant per cell (item, mine or vehicle)
//   - A hazard map derived from mine blast rectangles and vehicle cells
//   - Breadth-first pathfinding (nearest, farthest, to-column, shortest)
//   - Per-vehicle planning strategies
//   - Turn resolution: mine toggles, intents, collisions, detonations, deliveries
//   - Snapshot export and validated import
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. World holds the grid, mines, teams and
// explosion markers, while GameConfig describes a scenario loaded from JSON
// or YAML.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(engine.DefaultGameConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for turn := 0; ; turn++ {
//		report := gameEngine.AdvanceTurn(turn)
//		if over, reason := gameEngine.GameOver(); over {
//			fmt.Println("game over:", reason, len(report.Deliveries))
//			break
//		}
//	}
//
// Game Rules:
//
// Two teams of trucks, jeeps, cars and motorcycles collect items and bring
// them back to their base column (team 1 on the left edge, team 2 on the
// right) for points. Vehicles that end a turn on the same cell are destroyed,
// as is any vehicle inside a mine's blast rectangle. G1 mines switch their
// blast zone on and off every few turns.
package engine
