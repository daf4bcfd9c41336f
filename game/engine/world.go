package engine

import "fmt"

// HazardMap flags cells that hazard-aware pathfinding must avoid. Indexed [y][x].
type HazardMap [][]bool

// NewHazardMap creates an all-clear map of the given size
func NewHazardMap(width, height int) HazardMap {
	h := make(HazardMap, height)
	for y := range h {
		h[y] = make([]bool, width)
	}
	return h
}

// At reports whether p is flagged. Out-of-bounds positions are never flagged.
func (h HazardMap) At(p Position) bool {
	if p.Y < 0 || p.Y >= len(h) || p.X < 0 || p.X >= len(h[p.Y]) {
		return false
	}
	return h[p.Y][p.X]
}

func (h HazardMap) mark(p Position) {
	if p.Y < 0 || p.Y >= len(h) || p.X < 0 || p.X >= len(h[p.Y]) {
		return
	}
	h[p.Y][p.X] = true
}

// markRect flags the rectangle centred on c, clipped to the map
func (h HazardMap) markRect(c Position, xRadius, yRadius int) {
	for y := c.Y - yRadius; y <= c.Y+yRadius; y++ {
		for x := c.X - xRadius; x <= c.X+xRadius; x++ {
			h.mark(Position{X: x, Y: y})
		}
	}
}

// Count returns the number of flagged cells
func (h HazardMap) Count() int {
	n := 0
	for _, row := range h {
		for _, v := range row {
			if v {
				n++
			}
		}
	}
	return n
}

// World is the full mutable game state: grid, hazards, mines, teams and explosion markers.
type World struct {
	Width  int
	Height int

	cells      [][]Occupant
	hazards    HazardMap
	mines      []*Mine
	teams      [2]*Team
	explosions []*Explosion

	turn          int
	period        int
	policy        CollisionPolicy
	nextVehicleID int
}

// NewWorld creates an empty world with two empty teams
func NewWorld(width, height int) *World {
	w := &World{
		Width:         width,
		Height:        height,
		period:        DefaultMineTogglePeriod,
		policy:        AllowCrash,
		nextVehicleID: 1,
	}
	w.cells = make([][]Occupant, height)
	for y := range w.cells {
		w.cells[y] = make([]Occupant, width)
	}
	w.hazards = NewHazardMap(width, height)
	w.teams[0] = NewTeam(Team1, "Team 1", 0)
	w.teams[1] = NewTeam(Team2, "Team 2", width-1)
	return w
}

// InBounds reports whether p lies on the grid
func (w *World) InBounds(p Position) bool {
	return p.X >= 0 && p.X < w.Width && p.Y >= 0 && p.Y < w.Height
}

// Cell returns the occupant at p, or nil for an empty or out-of-bounds cell
func (w *World) Cell(p Position) Occupant {
	if !w.InBounds(p) {
		return nil
	}
	return w.cells[p.Y][p.X]
}

// Set places occ at p and updates its stored position. A nil occupant clears the cell.
func (w *World) Set(p Position, occ Occupant) error {
	if !w.InBounds(p) {
		return fmt.Errorf("position (%d,%d) outside %dx%d grid", p.X, p.Y, w.Width, w.Height)
	}
	if occ == nil {
		w.cells[p.Y][p.X] = nil
		return nil
	}
	occ.setPosition(p)
	w.cells[p.Y][p.X] = occ
	return nil
}

func (w *World) clearCell(p Position) {
	if w.InBounds(p) {
		w.cells[p.Y][p.X] = nil
	}
}

// Hazardous reports whether p is flagged in the current hazard map
func (w *World) Hazardous(p Position) bool {
	return w.hazards.At(p)
}

// Hazards returns the current hazard map. Callers must not modify it.
func (w *World) Hazards() HazardMap {
	return w.hazards
}

// RecomputeHazards rebuilds the hazard map from every mine's blast rectangle
// and every vehicle's cell.
func (w *World) RecomputeHazards() {
	h := NewHazardMap(w.Width, w.Height)
	for _, m := range w.mines {
		h.markRect(m.Pos, m.XRadius, m.YRadius)
	}
	for _, v := range w.Vehicles() {
		h.mark(v.Pos)
	}
	w.hazards = h
}

// Mines returns every mine in placement order
func (w *World) Mines() []*Mine {
	return w.mines
}

// Team returns the team with the given id, or nil
func (w *World) Team(id TeamID) *Team {
	if !id.Valid() {
		return nil
	}
	return w.teams[id-1]
}

// Teams returns both teams, team 1 first
func (w *World) Teams() []*Team {
	return w.teams[:]
}

// Vehicles returns every live vehicle in planning order: team 1's roster then team 2's.
func (w *World) Vehicles() []*Vehicle {
	var out []*Vehicle
	for _, t := range w.teams {
		out = append(out, t.Vehicles...)
	}
	return out
}

// Items returns every item lying on the grid, row by row
func (w *World) Items() []*Item {
	var out []*Item
	for _, row := range w.cells {
		for _, occ := range row {
			if it, ok := occ.(*Item); ok {
				out = append(out, it)
			}
		}
	}
	return out
}

// Explosions returns the live explosion markers
func (w *World) Explosions() []*Explosion {
	return w.explosions
}

// Turn returns the turn currently being (or last) resolved
func (w *World) Turn() int {
	return w.turn
}

// TogglePeriod returns the G1 toggle period
func (w *World) TogglePeriod() int {
	return w.period
}

// Policy returns the conflict policy
func (w *World) Policy() CollisionPolicy {
	return w.policy
}

// AddItem places a new item on an empty cell
func (w *World) AddItem(kind ItemKind, p Position) (*Item, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown item kind %q", kind)
	}
	if err := w.requireEmpty(p); err != nil {
		return nil, err
	}
	it := &Item{Kind: kind}
	_ = w.Set(p, it)
	return it, nil
}

// AddMine places a new active mine on an empty cell
func (w *World) AddMine(kind MineKind, p Position) (*Mine, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown mine kind %q", kind)
	}
	if err := w.requireEmpty(p); err != nil {
		return nil, err
	}
	m := NewMine(kind, p)
	_ = w.Set(p, m)
	w.mines = append(w.mines, m)
	return m, nil
}

// AddVehicle places a new vehicle on an empty cell and appends it to the team's roster
func (w *World) AddVehicle(team TeamID, kind VehicleKind, p Position, strategy StrategyKind) (*Vehicle, error) {
	t := w.Team(team)
	if t == nil {
		return nil, fmt.Errorf("unknown team %d", team)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown vehicle kind %q", kind)
	}
	if err := w.requireEmpty(p); err != nil {
		return nil, err
	}
	v := NewVehicle(w.nextVehicleID, kind, team, strategy)
	w.nextVehicleID++
	_ = w.Set(p, v)
	t.Vehicles = append(t.Vehicles, v)
	return v, nil
}

func (w *World) requireEmpty(p Position) error {
	if !w.InBounds(p) {
		return fmt.Errorf("position (%d,%d) outside %dx%d grid", p.X, p.Y, w.Width, w.Height)
	}
	if w.cells[p.Y][p.X] != nil {
		return fmt.Errorf("cell (%d,%d) is occupied", p.X, p.Y)
	}
	return nil
}

// removeVehicle drops v from its team's roster. The grid is left untouched.
func (w *World) removeVehicle(v *Vehicle) {
	t := w.Team(v.Team)
	if t == nil {
		return
	}
	for i, other := range t.Vehicles {
		if other == v {
			t.Vehicles = append(t.Vehicles[:i], t.Vehicles[i+1:]...)
			return
		}
	}
}

// Clear empties the grid, mines, hazards, rosters and explosions. Team
// names, base columns and scores are kept.
func (w *World) Clear() {
	for y := range w.cells {
		for x := range w.cells[y] {
			w.cells[y][x] = nil
		}
	}
	w.mines = nil
	w.explosions = nil
	for _, t := range w.teams {
		t.Vehicles = nil
	}
	w.hazards = NewHazardMap(w.Width, w.Height)
}

// ItemsRemaining counts items on the grid, pinned under vehicles and carried as cargo
func (w *World) ItemsRemaining() int {
	n := len(w.Items())
	for _, v := range w.Vehicles() {
		n += len(v.Cargo)
		if v.Pinned != nil {
			n++
		}
	}
	return n
}
