package session

import (
	"time"

	"github.com/wricardo/rescue-simulator/game/engine"
	"github.com/wricardo/rescue-simulator/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists session metadata and a snapshot of the current turn
	Save(session *service.Session) error

	// Load rebuilds a session from its metadata and latest snapshot
	Load(id string) (*service.Session, error)

	// Delete removes a session and all of its snapshots
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool

	SaveSnapshot(id string, snap *engine.Snapshot) error
	// LoadSnapshot reads one turn; a negative turn reads the latest
	LoadSnapshot(id string, turn int) (*engine.Snapshot, error)
	ListSnapshots(id string) ([]int, error)
}

// PersistedSessionData represents the JSON structure of session.json
type PersistedSessionData struct {
	ID             string             `json:"id"`
	ConfigID       string             `json:"config_id"`
	GameID         string             `json:"game_id"`
	Turn           int                `json:"turn"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Config         *engine.GameConfig `json:"config"`
}
