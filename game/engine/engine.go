package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Turn resolution
	AdvanceTurn(turn int) *TurnReport
	GameOver() (bool, GameOverReason)

	// Read access
	World() *World
	Team(id TeamID) *Team
	Explosions() []*Explosion
	GameID() string
	GetConfig() *GameConfig

	// Persistence
	ExportSnapshot(turn int) *Snapshot
	ImportSnapshot(snap *Snapshot) error

	Clear()
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; callers serialise access per game.
type GameEngine struct {
	world  *World
	config *GameConfig
	gameID string
	logger zerolog.Logger
}

// Option configures a GameEngine
type Option func(*GameEngine)

// WithLogger sets the engine logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *GameEngine) {
		e.logger = logger
	}
}

// WithGameID overrides the generated game id
func WithGameID(id string) Option {
	return func(e *GameEngine) {
		e.gameID = id
	}
}

// NewEngine creates a new game engine and world from the provided configuration
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	world, err := NewGame(config)
	if err != nil {
		return nil, err
	}

	return newEngine(world, config, opts...), nil
}

// NewEngineWithDefaults creates a new game engine with the default scenario
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	e, err := NewEngine(DefaultGameConfig(), opts...)
	if err != nil {
		// the default scenario always validates
		panic(fmt.Sprintf("default scenario: %v", err))
	}
	return e
}

// NewEngineForWorld wraps an already populated world
func NewEngineForWorld(world *World, opts ...Option) *GameEngine {
	world.RecomputeHazards()
	return newEngine(world, nil, opts...)
}

func newEngine(world *World, config *GameConfig, opts ...Option) *GameEngine {
	e := &GameEngine{
		world:  world,
		config: config,
		gameID: uuid.NewString(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With().Str("game", e.gameID).Logger()
	return e
}

// World returns the live world state
func (e *GameEngine) World() *World {
	return e.world
}

// Team returns the team with the given id
func (e *GameEngine) Team(id TeamID) *Team {
	return e.world.Team(id)
}

// Explosions returns the live explosion markers
func (e *GameEngine) Explosions() []*Explosion {
	return e.world.explosions
}

// GameID returns the unique id of this game
func (e *GameEngine) GameID() string {
	return e.gameID
}

// GetConfig returns the scenario the world was built from, or nil
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// Clear empties the world
func (e *GameEngine) Clear() {
	e.world.Clear()
}

// AdvanceTurn resolves one full turn: mine toggles, planning, conflict
// policy, movement, collisions, mine detonations, explosion ageing and
// unloading.
func (e *GameEngine) AdvanceTurn(turn int) *TurnReport {
	w := e.world
	w.turn = turn
	report := &TurnReport{Turn: turn}
	log := e.logger.With().Int("turn", turn).Logger()

	if w.period > 0 && (turn+1)%w.period == 0 {
		for _, m := range w.mines {
			if m.Toggle() {
				report.ToggledMines = append(report.ToggledMines, m.Pos)
			}
		}
		if len(report.ToggledMines) > 0 {
			w.RecomputeHazards()
			log.Debug().Int("mines", len(report.ToggledMines)).Msg("toggled G1 mines")
		}
	}

	order := w.Vehicles()
	for _, v := range order {
		e.plan(v, report, log)
	}

	cells, claims := collectIntents(order)
	if w.policy == PreferMove {
		report.SuppressedIntents = preferMove(cells, claims)
	}

	for _, v := range order {
		target, ok := v.PeekNext()
		if !ok {
			continue
		}
		from := v.Pos
		res := v.ExecuteStep(w, target)
		ev := MoveEvent{VehicleID: v.ID, Team: v.Team, From: from, To: target, Outcome: res.Outcome}
		if res.Picked != nil {
			ev.Picked = res.Picked.Kind
		}
		if res.Pinned != nil {
			ev.Pinned = res.Pinned.Kind
		}
		report.Moves = append(report.Moves, ev)
		if res.Delivery != nil {
			report.Deliveries = append(report.Deliveries, *res.Delivery)
		}
	}

	w.RecomputeHazards()

	var fresh []*Explosion
	for _, c := range e.resolveCollisions() {
		report.Collisions = append(report.Collisions, c)
		fresh = append(fresh, &Explosion{Pos: c.Pos, TTL: ExplosionTTL, Turn: turn})
		log.Info().Ints("vehicles", c.Vehicles).Int("x", c.Pos.X).Int("y", c.Pos.Y).Msg("collision")
	}
	for _, k := range e.resolveMines() {
		report.MineKills = append(report.MineKills, k)
		fresh = append(fresh, &Explosion{Pos: k.Pos, TTL: ExplosionTTL, Turn: turn})
		log.Info().Int("vehicle", k.VehicleID).Str("mine", string(k.Mine)).Msg("vehicle destroyed by mine")
	}

	kept := w.explosions[:0]
	for _, x := range w.explosions {
		x.TTL--
		if x.TTL > 0 {
			kept = append(kept, x)
		}
	}
	w.explosions = append(kept, fresh...)

	for _, v := range w.Vehicles() {
		if d := v.UnloadIfAtBase(w); d != nil {
			report.Deliveries = append(report.Deliveries, *d)
		}
	}

	w.RecomputeHazards()

	log.Debug().
		Int("moves", len(report.Moves)).
		Int("deliveries", len(report.Deliveries)).
		Int("destroyed", len(report.Destroyed())).
		Msg("turn resolved")
	return report
}

// plan runs the vehicle's strategy, recovering errors and panics by falling
// back to PickNearest for this turn.
func (e *GameEngine) plan(v *Vehicle, report *TurnReport, log zerolog.Logger) {
	err := safePlan(v, e.world)
	if err == nil {
		return
	}
	log.Warn().Err(err).Int("vehicle", v.ID).Str("strategy", string(v.Strategy)).Msg("strategy failed, falling back to pick_nearest")
	report.StrategyFailures = append(report.StrategyFailures, StrategyFailure{
		VehicleID: v.ID,
		Strategy:  v.Strategy,
		Error:     err.Error(),
	})
	v.ClearRoute()
	_ = PickNearest{}.Plan(v, e.world)
}

func safePlan(v *Vehicle, w *World) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy panic: %v", r)
		}
	}()
	return v.Plan(w)
}

// collectIntents groups vehicles by the cell they want to enter next. cells
// keeps first-claim order.
func collectIntents(order []*Vehicle) ([]Position, map[Position][]*Vehicle) {
	claims := make(map[Position][]*Vehicle)
	var cells []Position
	for _, v := range order {
		target, ok := v.PeekNext()
		if !ok {
			continue
		}
		if _, seen := claims[target]; !seen {
			cells = append(cells, target)
		}
		claims[target] = append(claims[target], v)
	}
	return cells, claims
}

// preferMove keeps the highest-capacity claimant of each contested cell,
// earliest in planning order on ties, and clears the other routes.
func preferMove(cells []Position, claims map[Position][]*Vehicle) []int {
	var suppressed []int
	for _, c := range cells {
		group := claims[c]
		if len(group) < 2 {
			continue
		}
		winner := group[0]
		for _, v := range group[1:] {
			if v.Capacity > winner.Capacity {
				winner = v
			}
		}
		for _, v := range group {
			if v != winner {
				v.ClearRoute()
				suppressed = append(suppressed, v.ID)
			}
		}
	}
	return suppressed
}

// resolveCollisions destroys every group of vehicles sharing a cell
func (e *GameEngine) resolveCollisions() []CollisionEvent {
	w := e.world
	groups := make(map[Position][]*Vehicle)
	var cells []Position
	for _, v := range w.Vehicles() {
		if _, seen := groups[v.Pos]; !seen {
			cells = append(cells, v.Pos)
		}
		groups[v.Pos] = append(groups[v.Pos], v)
	}

	var events []CollisionEvent
	for _, pos := range cells {
		group := groups[pos]
		if len(group) < 2 {
			continue
		}
		ev := CollisionEvent{Pos: pos}
		for _, v := range group {
			ev.Vehicles = append(ev.Vehicles, v.ID)
			t := w.Team(v.Team)
			t.Stats.Collisions++
			t.Stats.VehiclesLost++
		}
		if it := e.destroy(group, pos); it != nil {
			ev.Restored = it.Kind
		}
		events = append(events, ev)
	}
	return events
}

// resolveMines destroys every surviving vehicle inside a blast rectangle
func (e *GameEngine) resolveMines() []MineKillEvent {
	w := e.world
	var events []MineKillEvent
	for _, v := range w.Vehicles() {
		for _, m := range w.mines {
			if !m.Covers(v.Pos) {
				continue
			}
			t := w.Team(v.Team)
			t.Stats.MineDeaths++
			t.Stats.VehiclesLost++
			e.destroy([]*Vehicle{v}, v.Pos)
			events = append(events, MineKillEvent{
				VehicleID: v.ID,
				Team:      v.Team,
				Pos:       v.Pos,
				Mine:      m.Kind,
				MinePos:   m.Pos,
			})
			break
		}
	}
	return events
}

// destroy removes vehicles standing on pos from their rosters and clears the
// cell, putting back at most one pinned item. It returns the restored item.
func (e *GameEngine) destroy(group []*Vehicle, pos Position) *Item {
	w := e.world
	var restored *Item
	holder, _ := w.Cell(pos).(*Vehicle)
	ownsCell := false
	for _, v := range group {
		if restored == nil && v.Pinned != nil {
			restored = v.Pinned
		}
		if v == holder {
			ownsCell = true
		}
		v.Pinned = nil
		v.ClearRoute()
		w.removeVehicle(v)
	}
	if !ownsCell {
		return nil
	}
	if restored != nil {
		_ = w.Set(pos, restored)
	} else {
		w.clearCell(pos)
	}
	return restored
}

// GameOver reports whether the game has ended and why
func (e *GameEngine) GameOver() (bool, GameOverReason) {
	w := e.world
	vehicles := w.Vehicles()
	if len(vehicles) == 0 {
		return true, ReasonNoVehicles
	}
	if w.ItemsRemaining() == 0 {
		return true, ReasonNoItems
	}
	for _, v := range vehicles {
		if len(v.Cargo) > 0 {
			return false, ReasonNone
		}
	}
	for _, v := range vehicles {
		if v.Full() {
			continue
		}
		if Nearest(w, v.Pos, w.hazards, v.TargetMatch()) != nil {
			return false, ReasonNone
		}
	}
	return true, ReasonNoReachableItems
}
