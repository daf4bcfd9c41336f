package engine

import (
	"errors"
	"fmt"
)

// SnapshotVersion is bumped whenever the snapshot layout changes
const SnapshotVersion = 1

// ErrInvalidSnapshot is returned when a snapshot fails validation
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Snapshot is the complete serialisable world state at the end of a turn
type Snapshot struct {
	Version       int             `json:"version"`
	GameID        string          `json:"game_id"`
	ConfigName    string          `json:"config_name,omitempty"`
	Turn          int             `json:"turn"`
	Width         int             `json:"width"`
	Height        int             `json:"height"`
	TogglePeriod  int             `json:"mine_toggle_period"`
	Policy        CollisionPolicy `json:"collision_policy"`
	NextVehicleID int             `json:"next_vehicle_id"`
	DangerZones   [][]bool        `json:"danger_zones"`
	Teams         []TeamSnapshot  `json:"teams"`
	Mines         []Mine          `json:"mines"`
	Items         []Item          `json:"items"`
	Explosions    []Explosion     `json:"explosions"`
}

// TeamSnapshot is a team ledger plus its roster in order
type TeamSnapshot struct {
	ID         TeamID           `json:"id"`
	Name       string           `json:"name"`
	Points     int              `json:"points"`
	BaseColumn int              `json:"base_column"`
	Collected  map[ItemKind]int `json:"collected"`
	Stats      TeamStats        `json:"stats"`
	Vehicles   []Vehicle        `json:"vehicles"`
}

// ExportSnapshot captures the full world state. turn is recorded as given and
// becomes the world turn on import.
func (e *GameEngine) ExportSnapshot(turn int) *Snapshot {
	w := e.world
	snap := &Snapshot{
		Version:       SnapshotVersion,
		GameID:        e.gameID,
		Turn:          turn,
		Width:         w.Width,
		Height:        w.Height,
		TogglePeriod:  w.period,
		Policy:        w.policy,
		NextVehicleID: w.nextVehicleID,
		DangerZones:   make([][]bool, len(w.hazards)),
	}
	if e.config != nil {
		snap.ConfigName = e.config.Name
	}
	for y, row := range w.hazards {
		snap.DangerZones[y] = append([]bool(nil), row...)
	}

	for _, t := range w.teams {
		ts := TeamSnapshot{
			ID:         t.ID,
			Name:       t.Name,
			Points:     t.Points,
			BaseColumn: t.BaseColumn,
			Collected:  make(map[ItemKind]int, len(t.Collected)),
			Stats:      t.Stats,
		}
		for k, n := range t.Collected {
			ts.Collected[k] = n
		}
		for _, v := range t.Vehicles {
			ts.Vehicles = append(ts.Vehicles, copyVehicle(v))
		}
		snap.Teams = append(snap.Teams, ts)
	}

	for _, m := range w.mines {
		snap.Mines = append(snap.Mines, *m)
	}
	for _, it := range w.Items() {
		snap.Items = append(snap.Items, *it)
	}
	for _, x := range w.explosions {
		snap.Explosions = append(snap.Explosions, *x)
	}
	return snap
}

func copyVehicle(v *Vehicle) Vehicle {
	c := *v
	c.Cargo = append([]Item(nil), v.Cargo...)
	c.Route = append(Path(nil), v.Route...)
	if v.Pinned != nil {
		pinned := *v.Pinned
		c.Pinned = &pinned
	}
	return c
}

// ImportSnapshot replaces the world with the snapshot's state. The snapshot
// is validated and rebuilt into a fresh world first; on error the current
// world is left untouched.
func (e *GameEngine) ImportSnapshot(snap *Snapshot) error {
	w, err := BuildWorld(snap)
	if err != nil {
		return err
	}
	e.world = w
	if snap.GameID != "" {
		e.gameID = snap.GameID
	}
	return nil
}

// BuildWorld validates a snapshot and constructs the world it describes
func BuildWorld(snap *Snapshot) (*World, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil", ErrInvalidSnapshot)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrInvalidSnapshot, snap.Version, SnapshotVersion)
	}
	if snap.Width < MinGridSize || snap.Width > MaxGridSize || snap.Height < MinGridSize || snap.Height > MaxGridSize {
		return nil, fmt.Errorf("%w: grid %dx%d out of range", ErrInvalidSnapshot, snap.Width, snap.Height)
	}
	if snap.DangerZones != nil {
		if len(snap.DangerZones) != snap.Height {
			return nil, fmt.Errorf("%w: danger zones have %d rows, want %d", ErrInvalidSnapshot, len(snap.DangerZones), snap.Height)
		}
		for y, row := range snap.DangerZones {
			if len(row) != snap.Width {
				return nil, fmt.Errorf("%w: danger zone row %d has %d cells, want %d", ErrInvalidSnapshot, y, len(row), snap.Width)
			}
		}
	}
	if snap.TogglePeriod < 0 {
		return nil, fmt.Errorf("%w: negative toggle period", ErrInvalidSnapshot)
	}
	if snap.Policy != "" && !snap.Policy.Valid() {
		return nil, fmt.Errorf("%w: unknown collision policy %q", ErrInvalidSnapshot, snap.Policy)
	}
	if len(snap.Teams) != 2 {
		return nil, fmt.Errorf("%w: %d teams, want 2", ErrInvalidSnapshot, len(snap.Teams))
	}

	w := NewWorld(snap.Width, snap.Height)
	w.turn = snap.Turn
	if snap.TogglePeriod > 0 {
		w.period = snap.TogglePeriod
	}
	if snap.Policy != "" {
		w.policy = snap.Policy
	}

	place := func(p Position, occ Occupant, what string) error {
		if !w.InBounds(p) {
			return fmt.Errorf("%w: %s at (%d,%d) outside grid", ErrInvalidSnapshot, what, p.X, p.Y)
		}
		if w.Cell(p) != nil {
			return fmt.Errorf("%w: %s at (%d,%d) overlaps another occupant", ErrInvalidSnapshot, what, p.X, p.Y)
		}
		return w.Set(p, occ)
	}

	maxID := 0
	ids := make(map[int]bool)
	for i, ts := range snap.Teams {
		want := TeamID(i + 1)
		if ts.ID != want {
			return nil, fmt.Errorf("%w: team %d has id %d", ErrInvalidSnapshot, i+1, ts.ID)
		}
		if ts.BaseColumn < 0 || ts.BaseColumn >= snap.Width {
			return nil, fmt.Errorf("%w: team %d base column %d outside grid", ErrInvalidSnapshot, ts.ID, ts.BaseColumn)
		}
		t := w.Team(want)
		t.Name = ts.Name
		t.Points = ts.Points
		t.BaseColumn = ts.BaseColumn
		t.Stats = ts.Stats
		for k, n := range ts.Collected {
			if !k.Valid() {
				return nil, fmt.Errorf("%w: team %d collected unknown kind %q", ErrInvalidSnapshot, ts.ID, k)
			}
			t.Collected[k] = n
		}

		for _, vs := range ts.Vehicles {
			v, err := restoreVehicle(vs, want, w)
			if err != nil {
				return nil, err
			}
			if ids[v.ID] {
				return nil, fmt.Errorf("%w: duplicate vehicle id %d", ErrInvalidSnapshot, v.ID)
			}
			ids[v.ID] = true
			maxID = max(maxID, v.ID)
			if err := place(vs.Pos, v, fmt.Sprintf("vehicle %d", v.ID)); err != nil {
				return nil, err
			}
			t.Vehicles = append(t.Vehicles, v)
		}
	}

	for _, ms := range snap.Mines {
		if !ms.Kind.Valid() {
			return nil, fmt.Errorf("%w: unknown mine kind %q", ErrInvalidSnapshot, ms.Kind)
		}
		if ms.XRadius < 0 || ms.YRadius < 0 {
			return nil, fmt.Errorf("%w: mine at (%d,%d) has negative radius", ErrInvalidSnapshot, ms.Pos.X, ms.Pos.Y)
		}
		m := ms
		if err := place(ms.Pos, &m, "mine"); err != nil {
			return nil, err
		}
		w.mines = append(w.mines, &m)
	}

	for _, is := range snap.Items {
		if !is.Kind.Valid() {
			return nil, fmt.Errorf("%w: unknown item kind %q", ErrInvalidSnapshot, is.Kind)
		}
		it := is
		if err := place(is.Pos, &it, "item"); err != nil {
			return nil, err
		}
	}

	for _, xs := range snap.Explosions {
		if !w.InBounds(xs.Pos) || xs.TTL <= 0 {
			return nil, fmt.Errorf("%w: explosion at (%d,%d) ttl %d", ErrInvalidSnapshot, xs.Pos.X, xs.Pos.Y, xs.TTL)
		}
		x := xs
		w.explosions = append(w.explosions, &x)
	}

	w.nextVehicleID = max(snap.NextVehicleID, maxID+1)
	w.RecomputeHazards()
	return w, nil
}

func restoreVehicle(vs Vehicle, team TeamID, w *World) (*Vehicle, error) {
	if !vs.Kind.Valid() {
		return nil, fmt.Errorf("%w: vehicle %d has unknown kind %q", ErrInvalidSnapshot, vs.ID, vs.Kind)
	}
	if vs.ID <= 0 {
		return nil, fmt.Errorf("%w: vehicle id %d", ErrInvalidSnapshot, vs.ID)
	}
	if vs.Team != 0 && vs.Team != team {
		return nil, fmt.Errorf("%w: vehicle %d listed under team %d but belongs to %d", ErrInvalidSnapshot, vs.ID, team, vs.Team)
	}
	if vs.Capacity <= 0 || len(vs.Cargo) > vs.Capacity {
		return nil, fmt.Errorf("%w: vehicle %d carries %d items with capacity %d", ErrInvalidSnapshot, vs.ID, len(vs.Cargo), vs.Capacity)
	}
	if !vs.State.Valid() {
		return nil, fmt.Errorf("%w: vehicle %d has unknown state %q", ErrInvalidSnapshot, vs.ID, vs.State)
	}
	if vs.Strategy != "" && !vs.Strategy.Valid() {
		return nil, fmt.Errorf("%w: vehicle %d has unknown strategy %q", ErrInvalidSnapshot, vs.ID, vs.Strategy)
	}
	for _, it := range vs.Cargo {
		if !it.Kind.Valid() {
			return nil, fmt.Errorf("%w: vehicle %d carries unknown item %q", ErrInvalidSnapshot, vs.ID, it.Kind)
		}
	}
	for _, p := range vs.Route {
		if !w.InBounds(p) {
			return nil, fmt.Errorf("%w: vehicle %d route leaves the grid at (%d,%d)", ErrInvalidSnapshot, vs.ID, p.X, p.Y)
		}
	}
	if vs.Pinned != nil && !vs.Pinned.Kind.Valid() {
		return nil, fmt.Errorf("%w: vehicle %d pins unknown item %q", ErrInvalidSnapshot, vs.ID, vs.Pinned.Kind)
	}

	v := copyVehicle(&vs)
	v.Team = team
	if v.Strategy == "" {
		v.Strategy = StrategyPickNearest
	}
	if len(v.Cargo) == 0 {
		v.Cargo = nil
	}
	if len(v.Route) == 0 {
		v.Route = nil
	}
	if v.Pinned != nil {
		v.Pinned.Pos = v.Pos
	}
	return &v, nil
}
