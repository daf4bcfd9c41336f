// Package config provides scenario management for the rescue simulator.
//
// The config package handles:
//   - Loading scenarios from JSON or YAML files
//   - Structural validation against an embedded JSON schema
//   - Semantic validation through engine.ValidateGameConfig
//   - Default scenario selection and scenario listing
//
// Scenario Format:
//
// Scenarios live in a single directory, one file each. The file name without
// its extension is the config id used to create sessions. A scenario defines:
//   - Grid width and height
//   - Seed, mine toggle period and collision policy
//   - Two teams, each with a default strategy and a vehicle roster
//   - Mines at fixed positions or at random cells inside edge margins
//   - Fixed items plus counts of random persons and other items
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load a specific scenario
//	scenario, err := manager.LoadConfig("classic")
//
//	// List valid scenarios
//	configs, err := manager.ListConfigs()
//
// When the directory holds no classic scenario, the first valid file becomes
// the default; an empty directory falls back to engine.DefaultGameConfig.
package config
