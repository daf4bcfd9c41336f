package engine

// Vehicle is a team unit that plans routes, moves one cell per turn and carries cargo
type Vehicle struct {
	ID       int          `json:"id"`
	Kind     VehicleKind  `json:"kind"`
	Team     TeamID       `json:"team"`
	Pos      Position     `json:"position"`
	Capacity int          `json:"capacity"`
	Cargo    []Item       `json:"cargo"`
	Route    Path         `json:"route"`
	State    VehicleState `json:"state"`
	Strategy StrategyKind `json:"strategy"`

	// Pinned holds an item this vehicle stands on but could not pick up.
	// It goes back on the grid when the vehicle leaves the cell.
	Pinned *Item `json:"pinned,omitempty"`
}

// NewVehicle creates an idle vehicle with the capacity of its kind
func NewVehicle(id int, kind VehicleKind, team TeamID, strategy StrategyKind) *Vehicle {
	if strategy == "" {
		strategy = StrategyPickNearest
	}
	return &Vehicle{
		ID:       id,
		Kind:     kind,
		Team:     team,
		Capacity: kind.Capacity(),
		State:    StateIdle,
		Strategy: strategy,
	}
}

func (v *Vehicle) Position() Position     { return v.Pos }
func (v *Vehicle) setPosition(p Position) { v.Pos = p }

// Full reports whether the cargo hold is at capacity
func (v *Vehicle) Full() bool {
	return len(v.Cargo) >= v.Capacity
}

// CanCarry reports whether this vehicle's capability allows the item kind
func (v *Vehicle) CanCarry(kind ItemKind) bool {
	switch v.Kind.Capability() {
	case PersonsOnly:
		return kind == ItemPerson
	case ExcludesPersons:
		return kind != ItemPerson
	}
	return true
}

// CanPick reports whether the vehicle would pick up it right now
func (v *Vehicle) CanPick(it *Item) bool {
	return it != nil && v.CanCarry(it.Kind) && !v.Full()
}

// TargetMatch returns the predicate selecting items this vehicle may collect
func (v *Vehicle) TargetMatch() Match {
	switch v.Kind.Capability() {
	case PersonsOnly:
		return IsPerson
	case ExcludesPersons:
		return IsCargo
	}
	return IsItem
}

// PeekNext returns the head of the route without consuming it
func (v *Vehicle) PeekNext() (Position, bool) {
	if len(v.Route) == 0 {
		return Position{}, false
	}
	return v.Route[0], true
}

// ClearRoute drops every planned step
func (v *Vehicle) ClearRoute() {
	v.Route = nil
}

// StepOutcome classifies the result of ExecuteStep
type StepOutcome string

const (
	StepMoved       StepOutcome = "moved"
	StepOutOfBounds StepOutcome = "out_of_bounds"
	StepMine        StepOutcome = "mine"
)

// StepResult describes what a single ExecuteStep did
type StepResult struct {
	Outcome  StepOutcome
	Picked   *Item
	Pinned   *Item
	Delivery *Delivery
}

// Delivery is one unload event at a base column
type Delivery struct {
	VehicleID int    `json:"vehicle_id"`
	Team      TeamID `json:"team"`
	Items     []Item `json:"items"`
	Points    int    `json:"points"`
}

// ExecuteStep moves the vehicle into target, handling pickups, pinned items
// and unloading at base. Illegal targets clear the route and leave the
// vehicle in place.
func (v *Vehicle) ExecuteStep(w *World, target Position) StepResult {
	if !w.InBounds(target) {
		v.ClearRoute()
		return StepResult{Outcome: StepOutOfBounds}
	}
	if _, isMine := w.Cell(target).(*Mine); isMine {
		v.ClearRoute()
		return StepResult{Outcome: StepMine}
	}

	v.vacate(w)

	res := StepResult{Outcome: StepMoved}
	if it, ok := w.Cell(target).(*Item); ok {
		if v.CanPick(it) {
			v.Cargo = append(v.Cargo, *it)
			res.Picked = it
		} else {
			v.Pinned = it
			res.Pinned = it
		}
	}
	// A vehicle already in target stays in its roster; collision
	// resolution removes both at the end of the turn.
	_ = w.Set(target, v)

	if len(v.Route) > 0 && v.Route[0] == target {
		v.Route = v.Route[1:]
	}
	if len(v.Route) == 0 {
		v.Route = nil
	}

	if v.Full() {
		v.ClearRoute()
		v.State = StateReturning
	}

	if v.State == StateReturning && v.onBase(w) {
		res.Delivery = v.unload(w)
		v.State = StateIdle
		v.ClearRoute()
	}
	return res
}

// vacate releases the current cell, putting a pinned item back. If another
// vehicle already moved in this turn, it inherits the pinned item.
func (v *Vehicle) vacate(w *World) {
	occ := w.Cell(v.Pos)
	if cur, ok := occ.(*Vehicle); ok && cur == v {
		if v.Pinned != nil {
			_ = w.Set(v.Pos, v.Pinned)
			v.Pinned = nil
		} else {
			w.clearCell(v.Pos)
		}
		return
	}
	if v.Pinned == nil {
		return
	}
	if other, ok := occ.(*Vehicle); ok && other.Pinned == nil {
		v.Pinned.setPosition(v.Pos)
		other.Pinned = v.Pinned
	}
	v.Pinned = nil
}

// UnloadIfAtBase delivers the cargo when the vehicle stands on its team's
// base column. It returns nil when nothing was delivered.
func (v *Vehicle) UnloadIfAtBase(w *World) *Delivery {
	if len(v.Cargo) == 0 || !v.onBase(w) {
		return nil
	}
	d := v.unload(w)
	v.State = StateIdle
	v.ClearRoute()
	return d
}

func (v *Vehicle) onBase(w *World) bool {
	t := w.Team(v.Team)
	return t != nil && v.Pos.X == t.BaseColumn
}

func (v *Vehicle) unload(w *World) *Delivery {
	if len(v.Cargo) == 0 {
		return nil
	}
	t := w.Team(v.Team)
	d := &Delivery{VehicleID: v.ID, Team: v.Team, Items: v.Cargo}
	d.Points = t.credit(v.Cargo)
	v.Cargo = nil
	return d
}
