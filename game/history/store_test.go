package history_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/rescue-simulator/game/engine"
	"github.com/wricardo/rescue-simulator/game/history"
	"github.com/wricardo/rescue-simulator/game/service"
	"github.com/wricardo/rescue-simulator/game/session"
)

func stateAt(id string, turn, redPoints, bluePoints int) *service.GameState {
	return &service.GameState{
		SessionID: id,
		Turn:      turn,
		Teams: []engine.TeamSnapshot{
			{ID: engine.Team1, Name: "Red", Points: redPoints, Vehicles: make([]engine.Vehicle, 3),
				Stats: engine.TeamStats{Collisions: 1, Deliveries: 2}},
			{ID: engine.Team2, Name: "Blue", Points: bluePoints, Vehicles: make([]engine.Vehicle, 2),
				Stats: engine.TeamStats{MineDeaths: 1}},
		},
	}
}

func openMemory(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(history.MemoryPath, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRecordAndList(t *testing.T) {
	ctx := context.Background()
	store := openMemory(t)

	require.NoError(t, store.Record(ctx, stateAt("abcd", 5, 10, 4)))
	require.NoError(t, store.Record(ctx, stateAt("abcd", 10, 25, 9)))
	require.NoError(t, store.Record(ctx, stateAt("other", 3, 1, 1)))

	stats, err := store.List(ctx, "abcd")
	require.NoError(t, err)
	require.Len(t, stats, 4)

	assert.Equal(t, 5, stats[0].Turn)
	assert.Equal(t, engine.Team1, stats[0].Team)
	assert.Equal(t, engine.Team2, stats[1].Team)
	assert.Equal(t, 10, stats[2].Turn)
	assert.Equal(t, 25, stats[2].Points)
	assert.Equal(t, 3, stats[2].VehiclesAlive)
	assert.Equal(t, 1, stats[2].Collisions)
	assert.Equal(t, 2, stats[2].Deliveries)
	assert.Equal(t, 1, stats[3].MineDeaths)
	assert.False(t, stats[0].RecordedAt.IsZero())
}

func TestStoreRewindReplacesLaterTurns(t *testing.T) {
	ctx := context.Background()
	store := openMemory(t)

	require.NoError(t, store.Record(ctx, stateAt("s", 5, 10, 0)))
	require.NoError(t, store.Record(ctx, stateAt("s", 10, 20, 0)))
	// the session was rolled back to turn 5 and advanced to 8
	require.NoError(t, store.Record(ctx, stateAt("s", 8, 14, 0)))

	stats, err := store.List(ctx, "s")
	require.NoError(t, err)
	require.Len(t, stats, 4)
	assert.Equal(t, 5, stats[0].Turn)
	assert.Equal(t, 8, stats[2].Turn)
	assert.Equal(t, 14, stats[2].Points)
}

func TestStoreDeleteSession(t *testing.T) {
	ctx := context.Background()
	store := openMemory(t)

	require.NoError(t, store.Record(ctx, stateAt("gone", 1, 0, 0)))
	require.NoError(t, store.Record(ctx, stateAt("kept", 1, 0, 0)))
	require.NoError(t, store.DeleteSession(ctx, "gone"))

	stats, err := store.List(ctx, "gone")
	require.NoError(t, err)
	assert.Empty(t, stats)

	stats, err = store.List(ctx, "kept")
	require.NoError(t, err)
	assert.Len(t, stats, 2)
}

func TestStoreErrors(t *testing.T) {
	store := openMemory(t)
	assert.Error(t, store.Record(context.Background(), nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.List(ctx, "any")
	assert.Error(t, err)
}

func TestStoreFileSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := history.Open(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, stateAt("disk", 7, 3, 2)))
	require.NoError(t, store.Close())

	reopened, err := history.Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	stats, err := reopened.List(ctx, "disk")
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 7, stats[0].Turn)
}

type staticConfigs struct{ config *engine.GameConfig }

func (s staticConfigs) LoadConfig(string) (*engine.GameConfig, error) { return s.config, nil }
func (s staticConfigs) ListConfigs() ([]*service.ConfigInfo, error)  { return nil, nil }
func (s staticConfigs) GetDefault() *engine.GameConfig                { return s.config }
func (s staticConfigs) SaveConfig(string, *engine.GameConfig) error   { return nil }

func TestStoreWiredIntoGameService(t *testing.T) {
	ctx := context.Background()
	store := openMemory(t)

	config := &engine.GameConfig{
		Name:   "history",
		Width:  12,
		Height: 10,
		Seed:   5,
		Teams: []engine.TeamConfig{
			{Name: "Red", Vehicles: []engine.VehicleSpec{{Kind: engine.Truck, Row: 3}}},
			{Name: "Blue", Vehicles: []engine.VehicleSpec{{Kind: engine.Jeep, Row: 6}}},
		},
		Items: engine.ItemsConfig{Persons: 4, Others: 10},
	}

	svc := service.NewGameService(session.NewManager(zerolog.Nop()), staticConfigs{config},
		service.WithHistory(store), service.WithLogger(zerolog.Nop()))

	info, err := svc.CreateSession(ctx, "history")
	require.NoError(t, err)

	result, err := svc.AdvanceTurns(ctx, info.ID, 3)
	require.NoError(t, err)
	require.Positive(t, result.TurnsAdvanced)

	stats, err := svc.TurnHistory(ctx, info.ID)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, result.GameState.Turn, stats[0].Turn)

	require.NoError(t, svc.DeleteSession(ctx, info.ID))
	stats, err = store.List(ctx, info.ID)
	require.NoError(t, err)
	assert.Empty(t, stats)
}
