package engine

// TurnReport records everything AdvanceTurn did
type TurnReport struct {
	Turn              int               `json:"turn"`
	ToggledMines      []Position        `json:"toggled_mines,omitempty"`
	Moves             []MoveEvent       `json:"moves,omitempty"`
	Collisions        []CollisionEvent  `json:"collisions,omitempty"`
	MineKills         []MineKillEvent   `json:"mine_kills,omitempty"`
	Deliveries        []Delivery        `json:"deliveries,omitempty"`
	StrategyFailures  []StrategyFailure `json:"strategy_failures,omitempty"`
	SuppressedIntents []int             `json:"suppressed_intents,omitempty"`
}

// MoveEvent is one executed (or refused) step
type MoveEvent struct {
	VehicleID int         `json:"vehicle_id"`
	Team      TeamID      `json:"team"`
	From      Position    `json:"from"`
	To        Position    `json:"to"`
	Outcome   StepOutcome `json:"outcome"`
	Picked    ItemKind    `json:"picked,omitempty"`
	Pinned    ItemKind    `json:"pinned,omitempty"`
}

// CollisionEvent is a cell where two or more vehicles met
type CollisionEvent struct {
	Pos      Position `json:"position"`
	Vehicles []int    `json:"vehicles"`
	Restored ItemKind `json:"restored,omitempty"`
}

// MineKillEvent is a vehicle destroyed inside a blast rectangle
type MineKillEvent struct {
	VehicleID int      `json:"vehicle_id"`
	Team      TeamID   `json:"team"`
	Pos       Position `json:"position"`
	Mine      MineKind `json:"mine"`
	MinePos   Position `json:"mine_position"`
}

// StrategyFailure is a planning error or panic that fell back to PickNearest
type StrategyFailure struct {
	VehicleID int          `json:"vehicle_id"`
	Strategy  StrategyKind `json:"strategy"`
	Error     string       `json:"error"`
}

// Destroyed returns the ids of every vehicle lost this turn
func (r *TurnReport) Destroyed() []int {
	var ids []int
	for _, c := range r.Collisions {
		ids = append(ids, c.Vehicles...)
	}
	for _, k := range r.MineKills {
		ids = append(ids, k.VehicleID)
	}
	return ids
}

// PointsScored sums delivered points per team
func (r *TurnReport) PointsScored(team TeamID) int {
	n := 0
	for _, d := range r.Deliveries {
		if d.Team == team {
			n += d.Points
		}
	}
	return n
}
