package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/wricardo/rescue-simulator/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	history  HistoryStore
	logger   zerolog.Logger
	mu       sync.RWMutex
}

// Option configures the game service
type Option func(*gameServiceImpl)

// WithHistory records team statistics into store after every advance
func WithHistory(store HistoryStore) Option {
	return func(s *gameServiceImpl) {
		s.history = store
	}
}

// WithLogger sets the service logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *gameServiceImpl) {
		s.logger = logger
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getConfigID returns the config_id for a given display name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func newSessionInfo(sess *Session) *SessionInfo {
	state := sess.State()
	return &SessionInfo{
		ID:             sess.ID,
		ConfigID:       sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Turn:           state.Turn,
		GameState:      state,
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configID != "" {
		config, err = s.configs.LoadConfig(configID)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s': %w (available configs: %v)", configID, err, configIDs)
				}
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configID, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.getConfigID(config.Name)
	}

	sess, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info().Str("session", sess.ID).Str("config", configID).Msg("session created")
	return newSessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)

	return newSessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, newSessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session and its recorded history
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	if s.history != nil {
		if err := s.history.DeleteSession(ctx, sessionID); err != nil {
			s.logger.Warn().Err(err).Str("session", sessionID).Msg("failed to delete turn history")
		}
	}
	return nil
}

// ResetSession rebuilds a session's world from its scenario
func (s *gameServiceImpl) ResetSession(ctx context.Context, sessionID string) (*GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Reset(engine.WithLogger(s.logger.With().Str("session", sessionID).Logger())); err != nil {
		return nil, fmt.Errorf("reset session %s: %w", sessionID, err)
	}
	s.persist(sessionID)
	return sess.State(), nil
}

// AdvanceTurns resolves up to turns turns for a session
func (s *gameServiceImpl) AdvanceTurns(ctx context.Context, sessionID string, turns int) (*AdvanceResult, error) {
	if turns < 1 {
		return nil, fmt.Errorf("%w: turns must be at least 1, got %d", ErrInvalidArgument, turns)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)

	result := &AdvanceResult{
		SessionID:      sessionID,
		RequestedTurns: turns,
		PointsScored:   map[engine.TeamID]int{engine.Team1: 0, engine.Team2: 0},
	}
	if turns > engine.MaxAdvanceTurns {
		result.Truncated = true
		result.Limit = engine.MaxAdvanceTurns
		turns = engine.MaxAdvanceTurns
	}

	reports, reason := sess.Advance(ctx, turns)
	result.Reports = reports
	result.TurnsAdvanced = len(reports)
	result.StoppedReason = reason
	for _, r := range reports {
		for _, team := range []engine.TeamID{engine.Team1, engine.Team2} {
			result.PointsScored[team] += r.PointsScored(team)
		}
		result.Destroyed = append(result.Destroyed, r.Destroyed()...)
	}
	result.GameState = sess.State()

	if len(reports) > 0 {
		s.persist(sessionID)
		if s.history != nil {
			if err := s.history.Record(ctx, result.GameState); err != nil {
				s.logger.Warn().Err(err).Str("session", sessionID).Msg("failed to record turn history")
			}
		}
	}

	s.logger.Debug().
		Str("session", sessionID).
		Int("advanced", result.TurnsAdvanced).
		Int("turn", result.GameState.Turn).
		Str("stopped", reason).
		Msg("turns advanced")
	return result, nil
}

// persist saves a session, logging instead of failing the caller
func (s *gameServiceImpl) persist(sessionID string) {
	if err := s.sessions.Save(sessionID); err != nil {
		s.logger.Warn().Err(err).Str("session", sessionID).Msg("failed to persist session")
	}
}

// GetGameState returns the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess.State(), nil
}

// DescribeCell reports what occupies one cell of a session's grid
func (s *gameServiceImpl) DescribeCell(ctx context.Context, sessionID string, pos engine.Position) (*engine.CellInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Describe(pos)
}

// TurnHistory lists recorded team statistics for a session
func (s *gameServiceImpl) TurnHistory(ctx context.Context, sessionID string) ([]TurnStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.sessions.Get(sessionID); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []TurnStat{}, nil
	}
	return s.history.List(ctx, sessionID)
}

// SaveSnapshot stores the session's current world
func (s *gameServiceImpl) SaveSnapshot(ctx context.Context, sessionID string) (*SnapshotInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turn, err := s.sessions.SaveSnapshot(sessionID)
	if err != nil {
		return nil, err
	}
	return &SnapshotInfo{SessionID: sessionID, Turn: turn}, nil
}

// LoadSnapshot restores a stored turn; a negative turn picks the latest
func (s *gameServiceImpl) LoadSnapshot(ctx context.Context, sessionID string, turn int) (*GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.sessions.LoadSnapshot(sessionID, turn); err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.State(), nil
}

// ListSnapshots returns the stored turns of a session in ascending order
func (s *gameServiceImpl) ListSnapshots(ctx context.Context, sessionID string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sessions.ListSnapshots(sessionID)
}

// ListConfigs returns available configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configID string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configID)
}

// SaveConfig saves a configuration
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configID string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configID, config)
}
