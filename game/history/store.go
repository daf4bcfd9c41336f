// Package history keeps a per-team ledger of every advance in a SQLite
// database, so a session's score curve survives restarts and snapshot loads.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/wricardo/rescue-simulator/game/engine"
	"github.com/wricardo/rescue-simulator/game/service"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// TurnRecord is one row of the ledger: a team's standing after a turn
type TurnRecord struct {
	ID            uint      `gorm:"primaryKey"`
	SessionID     string    `gorm:"size:64;NOT NULL;index:idx_turn_session"`
	Turn          int       `gorm:"NOT NULL;index:idx_turn_session"`
	Team          int       `gorm:"NOT NULL"`
	Points        int       `gorm:"NOT NULL;default:0"`
	VehiclesAlive int       `gorm:"NOT NULL;default:0"`
	Collisions    int       `gorm:"NOT NULL;default:0"`
	MineDeaths    int       `gorm:"NOT NULL;default:0"`
	Deliveries    int       `gorm:"NOT NULL;default:0"`
	GameOver      bool      `gorm:"default:false"`
	CreatedAt     time.Time `gorm:"index"`
}

func (*TurnRecord) TableName() string {
	return "turn_records"
}

func (r *TurnRecord) stat() service.TurnStat {
	return service.TurnStat{
		SessionID:     r.SessionID,
		Turn:          r.Turn,
		Team:          engine.TeamID(r.Team),
		Points:        r.Points,
		VehiclesAlive: r.VehiclesAlive,
		Collisions:    r.Collisions,
		MineDeaths:    r.MineDeaths,
		Deliveries:    r.Deliveries,
		RecordedAt:    r.CreatedAt,
	}
}

// Store implements service.HistoryStore on top of gorm
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// Open connects to the SQLite file at path (or MemoryPath) and migrates the
// schema.
func Open(path string, log zerolog.Logger) (*Store, error) {
	if path == "" {
		path = MemoryPath
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        500,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open history db %q: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if path == MemoryPath {
		// every connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
	} else if err := db.Exec("PRAGMA journal_mode = WAL;").Error; err != nil {
		log.Warn().Err(err).Msg("could not enable WAL journal")
	}

	if err := db.AutoMigrate(&TurnRecord{}); err != nil {
		return nil, fmt.Errorf("migrate history db: %w", err)
	}

	log.Info().Str("path", path).Msg("turn history store ready")
	return &Store{db: db, logger: log}, nil
}

// Record appends one row per team for the state's turn. Recording the same
// turn twice replaces the earlier rows, which happens after a snapshot load
// rewinds a session.
func (s *Store) Record(ctx context.Context, state *service.GameState) error {
	if state == nil {
		return fmt.Errorf("record history: nil state")
	}

	now := time.Now()
	records := make([]TurnRecord, 0, len(state.Teams))
	for _, team := range state.Teams {
		records = append(records, TurnRecord{
			SessionID:     state.SessionID,
			Turn:          state.Turn,
			Team:          int(team.ID),
			Points:        team.Points,
			VehiclesAlive: len(team.Vehicles),
			Collisions:    team.Stats.Collisions,
			MineDeaths:    team.Stats.MineDeaths,
			Deliveries:    team.Stats.Deliveries,
			GameOver:      state.GameOver,
			CreatedAt:     now,
		})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// a rewound session replays turns it already recorded
		if err := tx.Where("session_id = ? AND turn >= ?", state.SessionID, state.Turn).
			Delete(&TurnRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Create(&records).Error
	})
}

// List returns a session's rows ordered by turn, then team
func (s *Store) List(ctx context.Context, sessionID string) ([]service.TurnStat, error) {
	var records []TurnRecord
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("turn ASC").
		Order("team ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list history for %s: %w", sessionID, err)
	}

	stats := make([]service.TurnStat, 0, len(records))
	for i := range records {
		stats = append(stats, records[i].stat())
	}
	return stats, nil
}

// DeleteSession drops every row of a session
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	result := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&TurnRecord{})
	if result.Error != nil {
		return fmt.Errorf("delete history for %s: %w", sessionID, result.Error)
	}
	s.logger.Debug().Str("session", sessionID).Int64("rows", result.RowsAffected).Msg("history deleted")
	return nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ service.HistoryStore = (*Store)(nil)
