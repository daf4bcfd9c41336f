package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wricardo/rescue-simulator/game/engine"
)

var (
	// ErrSessionNotFound is returned when a session id is unknown
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionAlreadyExists is returned when creating a session with a taken id
	ErrSessionAlreadyExists = errors.New("session already exists")
	// ErrSnapshotNotFound is returned when a session has no snapshot for a turn
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrConfigNotFound is returned when a scenario is unknown
	ErrConfigNotFound = errors.New("configuration not found")
	// ErrInvalidConfig is returned when a scenario fails validation
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInvalidArgument is returned for out-of-range request parameters
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNoPersistence is returned by snapshot operations on an in-memory manager
	ErrNoPersistence = errors.New("session persistence is not configured")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error
	ResetSession(ctx context.Context, sessionID string) (*GameState, error)

	// Turn resolution
	AdvanceTurns(ctx context.Context, sessionID string, turns int) (*AdvanceResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*GameState, error)
	DescribeCell(ctx context.Context, sessionID string, pos engine.Position) (*engine.CellInfo, error)
	TurnHistory(ctx context.Context, sessionID string) ([]TurnStat, error)

	// Snapshots
	SaveSnapshot(ctx context.Context, sessionID string) (*SnapshotInfo, error)
	LoadSnapshot(ctx context.Context, sessionID string, turn int) (*GameState, error)
	ListSnapshots(ctx context.Context, sessionID string) ([]int, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configID string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configID string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error

	// SaveSnapshot stores the session's current world and returns its turn
	SaveSnapshot(id string) (int, error)
	// LoadSnapshot restores a stored turn; a negative turn picks the latest
	LoadSnapshot(id string, turn int) (int, error)
	ListSnapshots(id string) ([]int, error)
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// HistoryStore records per-team statistics after every advance
type HistoryStore interface {
	Record(ctx context.Context, state *GameState) error
	List(ctx context.Context, sessionID string) ([]TurnStat, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Session represents an active game session. Turn is the number of turns
// played so far and the index handed to the next AdvanceTurn call.
type Session struct {
	ID             string
	ConfigID       string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	Turn           int
	CreatedAt      time.Time
	LastAccessedAt time.Time

	mu sync.Mutex
}

// Advance resolves up to n turns, stopping early when the game is over or
// ctx is cancelled. The returned reason is empty when all n turns ran.
func (s *Session) Advance(ctx context.Context, n int) ([]*engine.TurnReport, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports := make([]*engine.TurnReport, 0, n)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return reports, StopCancelled
		}
		if over, _ := s.Engine.GameOver(); over {
			return reports, StopGameOver
		}
		reports = append(reports, s.Engine.AdvanceTurn(s.Turn))
		s.Turn++
	}
	return reports, ""
}

// Snapshot exports the current world labelled with the number of turns played
func (s *Session) Snapshot() *engine.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Engine.ExportSnapshot(s.Turn)
}

// Restore replaces the world with snap. On error the session is unchanged.
func (s *Session) Restore(snap *engine.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Engine.ImportSnapshot(snap); err != nil {
		return err
	}
	s.Turn = snap.Turn
	return nil
}

// Reset rebuilds the world from the session's scenario
func (s *Session) Reset(opts ...engine.Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	eng, err := engine.NewEngine(s.Config, opts...)
	if err != nil {
		return err
	}
	s.Engine = eng
	s.Turn = 0
	return nil
}

// State builds a detached view of the session's world
func (s *Session) State() *GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newGameState(s)
}

// Describe reports one cell of the world
func (s *Session) Describe(pos engine.Position) (*engine.CellInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.Engine.World()
	if !w.InBounds(pos) {
		return nil, fmt.Errorf("%w: cell (%d,%d) outside %dx%d grid", ErrInvalidArgument, pos.X, pos.Y, w.Width, w.Height)
	}
	info := w.DescribeCell(pos)
	return &info, nil
}

// CurrentTurn returns the number of turns played
func (s *Session) CurrentTurn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Turn
}

// newGameState must be called with the session lock held
func newGameState(s *Session) *GameState {
	snap := s.Engine.ExportSnapshot(s.Turn)
	over, reason := s.Engine.GameOver()
	state := &GameState{
		SessionID:      s.ID,
		GameID:         snap.GameID,
		Turn:           s.Turn,
		Width:          snap.Width,
		Height:         snap.Height,
		Teams:          snap.Teams,
		Mines:          snap.Mines,
		ItemsRemaining: len(snap.Items),
		Explosions:     snap.Explosions,
		Grid:           s.Engine.World().Render(),
		GameOver:       over,
	}
	if over {
		state.GameOverReason = reason
	}
	return state
}
