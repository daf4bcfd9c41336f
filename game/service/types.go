package service

import (
	"time"

	"github.com/wricardo/rescue-simulator/game/engine"
)

// Stop reasons reported by AdvanceTurns
const (
	StopGameOver  = "game_over"
	StopCancelled = "cancelled"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigID       string             `json:"config_id"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Turn           int                `json:"turn"`
	GameState      *GameState         `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// GameState is a detached view of a session's world
type GameState struct {
	SessionID      string                `json:"session_id"`
	GameID         string                `json:"game_id"`
	Turn           int                   `json:"turn"`
	Width          int                   `json:"width"`
	Height         int                   `json:"height"`
	Teams          []engine.TeamSnapshot `json:"teams"`
	Mines          []engine.Mine         `json:"mines"`
	ItemsRemaining int                   `json:"items_remaining"`
	Explosions     []engine.Explosion    `json:"explosions"`
	Grid           []string              `json:"grid"`
	GameOver       bool                  `json:"game_over"`
	GameOverReason engine.GameOverReason `json:"game_over_reason,omitempty"`
}

// VehiclesAlive counts the live roster of a team
func (g *GameState) VehiclesAlive(team engine.TeamID) int {
	for _, t := range g.Teams {
		if t.ID == team {
			return len(t.Vehicles)
		}
	}
	return 0
}

// AdvanceResult contains the outcome of a multi-turn advance
type AdvanceResult struct {
	SessionID      string                `json:"session_id"`
	RequestedTurns int                   `json:"requested_turns"`
	TurnsAdvanced  int                   `json:"turns_advanced"`
	Truncated      bool                  `json:"truncated,omitempty"`
	Limit          int                   `json:"limit,omitempty"`
	StoppedReason  string                `json:"stopped_reason,omitempty"`
	PointsScored   map[engine.TeamID]int `json:"points_scored"`
	Destroyed      []int                 `json:"destroyed,omitempty"`
	Reports        []*engine.TurnReport  `json:"reports"`
	GameState      *GameState            `json:"game_state"`
}

// SnapshotInfo identifies a stored snapshot
type SnapshotInfo struct {
	SessionID string `json:"session_id"`
	Turn      int    `json:"turn"`
}

// TurnStat is one team's standing after a recorded advance
type TurnStat struct {
	SessionID     string        `json:"session_id"`
	Turn          int           `json:"turn"`
	Team          engine.TeamID `json:"team"`
	Points        int           `json:"points"`
	VehiclesAlive int           `json:"vehicles_alive"`
	Collisions    int           `json:"collisions"`
	MineDeaths    int           `json:"mine_deaths"`
	Deliveries    int           `json:"deliveries"`
	RecordedAt    time.Time     `json:"recorded_at"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Vehicles    int    `json:"vehicles"`
	Mines       int    `json:"mines"`
}
