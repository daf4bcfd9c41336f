package session

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/wricardo/rescue-simulator/game/engine"
	"github.com/wricardo/rescue-simulator/game/service"
)

const (
	sessionFile    = "session.json"
	snapshotPrefix = "turn_"
	snapshotSuffix = ".snap.zst"
)

// FilePersistence implements SessionPersistence on the file system:
//
//	<sessionsDir>/<id>/session.json
//	<sessionsDir>/<id>/turn_00012.snap.zst
type FilePersistence struct {
	sessionsDir string
	logger      zerolog.Logger
}

// NewFilePersistence creates a new file-based session persistence layer
func NewFilePersistence(sessionsDir string, logger zerolog.Logger) (*FilePersistence, error) {
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &FilePersistence{
		sessionsDir: sessionsDir,
		logger:      logger,
	}, nil
}

// Save writes session.json and a snapshot of the session's current turn
func (fp *FilePersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	snap := session.Snapshot()
	data := PersistedSessionData{
		ID:             session.ID,
		ConfigID:       session.ConfigID,
		GameID:         snap.GameID,
		Turn:           snap.Turn,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		Config:         session.Config,
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	if err := os.MkdirAll(fp.sessionDir(session.ID), 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(fp.sessionDir(session.ID), sessionFile), jsonData); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return fp.SaveSnapshot(session.ID, snap)
}

// Load rebuilds a session from session.json and its latest snapshot. A
// session without snapshots starts from its scenario at turn 0.
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	jsonData, err := os.ReadFile(filepath.Join(fp.sessionDir(id), sessionFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	if data.Config == nil {
		return nil, fmt.Errorf("session %s: %w: missing config", id, ErrInvalidConfig)
	}

	gameEngine, err := engine.NewEngine(data.Config,
		engine.WithGameID(data.GameID),
		engine.WithLogger(fp.logger.With().Str("session", data.ID).Logger()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create game engine: %w", err)
	}

	session := &service.Session{
		ID:             data.ID,
		ConfigID:       data.ConfigID,
		Engine:         gameEngine,
		Config:         data.Config,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}

	snap, err := fp.LoadSnapshot(id, -1)
	if errors.Is(err, ErrSnapshotNotFound) {
		return session, nil
	}
	if err != nil {
		return nil, err
	}
	if err := session.Restore(snap); err != nil {
		return nil, fmt.Errorf("restore session %s turn %d: %w", id, snap.Turn, err)
	}
	return session, nil
}

// Delete removes a session directory
func (fp *FilePersistence) Delete(id string) error {
	if !fp.Exists(id) {
		return ErrSessionNotFound
	}

	if err := os.RemoveAll(fp.sessionDir(id)); err != nil {
		return fmt.Errorf("failed to remove session directory: %w", err)
	}

	return nil
}

// ListAll returns all persisted session IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessionIDs []string
	for _, entry := range entries {
		if entry.IsDir() && fp.Exists(entry.Name()) {
			sessionIDs = append(sessionIDs, entry.Name())
		}
	}

	return sessionIDs, nil
}

// Exists checks if a session file exists
func (fp *FilePersistence) Exists(id string) bool {
	if !validID(id) {
		return false
	}
	_, err := os.Stat(filepath.Join(fp.sessionDir(id), sessionFile))
	return err == nil
}

// SaveSnapshot writes snap as zstd-compressed JSON, replacing any earlier
// snapshot of the same turn
func (fp *FilePersistence) SaveSnapshot(id string, snap *engine.Snapshot) error {
	if !validID(id) {
		return ErrInvalidSessionID
	}
	if err := os.MkdirAll(fp.sessionDir(id), 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	path := fp.snapshotPath(id, snap.Turn)
	tmp := path + ".tmp"
	if err := WriteSnapshotFile(tmp, snap); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write snapshot turn %d: %w", snap.Turn, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write snapshot turn %d: %w", snap.Turn, err)
	}

	fp.logger.Debug().Str("session", id).Int("turn", snap.Turn).Msg("snapshot saved")
	return nil
}

// LoadSnapshot reads one snapshot; a negative turn reads the latest
func (fp *FilePersistence) LoadSnapshot(id string, turn int) (*engine.Snapshot, error) {
	if turn < 0 {
		turns, err := fp.ListSnapshots(id)
		if err != nil {
			return nil, err
		}
		if len(turns) == 0 {
			return nil, ErrSnapshotNotFound
		}
		turn = turns[len(turns)-1]
	}

	snap, err := ReadSnapshotFile(fp.snapshotPath(id, turn))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("session %s turn %d: %w", id, turn, ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("read snapshot turn %d: %w", turn, err)
	}
	return snap, nil
}

// ListSnapshots returns the saved turns in ascending order
func (fp *FilePersistence) ListSnapshots(id string) ([]int, error) {
	if !validID(id) {
		return nil, ErrInvalidSessionID
	}
	entries, err := os.ReadDir(fp.sessionDir(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session directory: %w", err)
	}

	turns := []int{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}
		turn, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotSuffix))
		if err != nil {
			continue
		}
		turns = append(turns, turn)
	}
	sort.Ints(turns)
	return turns, nil
}

func (fp *FilePersistence) sessionDir(id string) string {
	return filepath.Join(fp.sessionsDir, id)
}

func (fp *FilePersistence) snapshotPath(id string, turn int) string {
	return filepath.Join(fp.sessionDir(id), fmt.Sprintf("%s%05d%s", snapshotPrefix, turn, snapshotSuffix))
}

// validID rejects ids that would escape the sessions directory
func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

// WriteSnapshotFile writes snap to path as zstd-compressed JSON
func WriteSnapshotFile(path string, snap *engine.Snapshot) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 64*1024)
	if err := json.NewEncoder(bw).Encode(snap); err != nil {
		enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Sync()
}

// ReadSnapshotFile reads a file written by WriteSnapshotFile
func ReadSnapshotFile(path string) (*engine.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var snap engine.Snapshot
	if err := json.NewDecoder(bufio.NewReader(dec)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("json decode: %w", err)
	}
	return &snap, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
