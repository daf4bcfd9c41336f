package engine

import "fmt"

// StrategyKind names a planning policy. It is stored on the vehicle and serialised with it.
type StrategyKind string

const (
	StrategyPickNearest StrategyKind = "pick_nearest"
	StrategyInvader     StrategyKind = "invader"
	StrategyKamikaze    StrategyKind = "kamikaze"
	StrategyEscort      StrategyKind = "escort"
	StrategyFullSafe    StrategyKind = "full_safe"
)

// StrategyKinds lists every strategy in a stable order
var StrategyKinds = []StrategyKind{
	StrategyPickNearest,
	StrategyInvader,
	StrategyKamikaze,
	StrategyEscort,
	StrategyFullSafe,
}

// Strategy plans a vehicle's route for the current turn. Implementations may
// only write the vehicle's Route and State and must keep no state between calls.
type Strategy interface {
	Plan(v *Vehicle, w *World) error
}

var strategies = map[StrategyKind]Strategy{
	StrategyPickNearest: PickNearest{},
	StrategyInvader:     Invader{},
	StrategyKamikaze:    Kamikaze{},
	StrategyEscort:      Escort{},
	StrategyFullSafe:    FullSafe{},
}

// StrategyFor returns the strategy registered under kind. The empty kind maps to PickNearest.
func StrategyFor(kind StrategyKind) (Strategy, error) {
	if kind == "" {
		return PickNearest{}, nil
	}
	s, ok := strategies[kind]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", kind)
	}
	return s, nil
}

// Valid reports whether kind names a registered strategy
func (k StrategyKind) Valid() bool {
	_, ok := strategies[k]
	return ok
}

// Plan runs the vehicle's strategy
func (v *Vehicle) Plan(w *World) error {
	s, err := StrategyFor(v.Strategy)
	if err != nil {
		return err
	}
	return s.Plan(v, w)
}

type finder func(w *World, start Position, hazards HazardMap, match Match) Path

// planGreedy routes the vehicle to a target chosen by find, or home when it
// is full or nothing is reachable.
func planGreedy(v *Vehicle, w *World, find finder) {
	if !v.Full() {
		if path := find(w, v.Pos, w.Hazards(), v.TargetMatch()); len(path) > 1 {
			v.Route = path[1:]
			v.State = StateCollecting
			return
		}
	}
	planReturn(v, w)
}

func planReturn(v *Vehicle, w *World) {
	t := w.Team(v.Team)
	path := PathToColumn(w, v.Pos, t.BaseColumn, w.Hazards())
	if path == nil {
		v.ClearRoute()
		v.State = StateIdle
		return
	}
	v.Route = nil
	if len(path) > 1 {
		v.Route = path[1:]
	}
	v.State = StateReturning
}

// PickNearest heads for the closest collectable item, then home.
type PickNearest struct{}

func (PickNearest) Plan(v *Vehicle, w *World) error {
	if len(v.Route) > 0 {
		return nil
	}
	planGreedy(v, w, Nearest)
	return nil
}

// Invader heads for the farthest collectable item, which tends to sit on the
// enemy side of the map.
type Invader struct{}

func (Invader) Plan(v *Vehicle, w *World) error {
	if len(v.Route) > 0 {
		return nil
	}
	planGreedy(v, w, Farthest)
	return nil
}

// Kamikaze chases the closest enemy vehicle.
type Kamikaze struct{}

func (Kamikaze) Plan(v *Vehicle, w *World) error {
	if len(v.Route) > 0 {
		return nil
	}
	enemy := w.Team(v.Team.Opponent())
	var best Path
	for _, e := range enemy.Vehicles {
		p := ShortestPath(w, v.Pos, e.Pos)
		if p != nil && (best == nil || len(p) < len(best)) {
			best = p
		}
	}
	if len(best) > 1 {
		v.Route = best[1:]
		v.State = StateAttacking
		return nil
	}
	return PickNearest{}.Plan(v, w)
}

const (
	escortNearDistance = 3
	escortMaxSteps     = 5
)

// Escort shadows the nearest busy ally and collects once close to it.
type Escort struct{}

func (Escort) Plan(v *Vehicle, w *World) error {
	if len(v.Route) > 0 {
		return nil
	}
	var best Path
	for _, ally := range w.Team(v.Team).Vehicles {
		if ally == v || (ally.State != StateCollecting && len(ally.Cargo) == 0) {
			continue
		}
		p := ShortestPath(w, v.Pos, ally.Pos)
		if p != nil && (best == nil || len(p) < len(best)) {
			best = p
		}
	}
	if best == nil || best.Len() <= escortNearDistance {
		return PickNearest{}.Plan(v, w)
	}
	steps := min(escortMaxSteps, best.Len()-1)
	v.Route = append(Path(nil), best[1:1+steps]...)
	v.State = StateEscorting
	return nil
}
