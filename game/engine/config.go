package engine

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// GameConfig describes a scenario: grid size, rosters, mines and items
type GameConfig struct {
	Name             string          `json:"name" yaml:"name"`
	Description      string          `json:"description" yaml:"description"`
	Width            int             `json:"width" yaml:"width"`
	Height           int             `json:"height" yaml:"height"`
	Seed             int64           `json:"seed,omitempty" yaml:"seed,omitempty"`
	MineTogglePeriod int             `json:"mine_toggle_period,omitempty" yaml:"mine_toggle_period,omitempty"`
	CollisionPolicy  CollisionPolicy `json:"collision_policy,omitempty" yaml:"collision_policy,omitempty"`
	Teams            []TeamConfig    `json:"teams" yaml:"teams"`
	Mines            []MineSpec      `json:"mines,omitempty" yaml:"mines,omitempty"`
	Items            ItemsConfig     `json:"items" yaml:"items"`
}

// TeamConfig is one side's name, default strategy and roster
type TeamConfig struct {
	Name     string        `json:"name" yaml:"name"`
	Strategy StrategyKind  `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Vehicles []VehicleSpec `json:"vehicles" yaml:"vehicles"`
}

// VehicleSpec places one vehicle. Column defaults to the team's base column.
type VehicleSpec struct {
	Kind     VehicleKind  `json:"kind" yaml:"kind"`
	Row      int          `json:"row" yaml:"row"`
	Column   *int         `json:"column,omitempty" yaml:"column,omitempty"`
	Strategy StrategyKind `json:"strategy,omitempty" yaml:"strategy,omitempty"`
}

// MineSpec places one mine, either at a fixed position or at a random empty
// cell at least MarginX columns and MarginY rows away from the grid edge.
type MineSpec struct {
	Kind     MineKind  `json:"kind" yaml:"kind"`
	Position *Position `json:"position,omitempty" yaml:"position,omitempty"`
	MarginX  int       `json:"margin_x,omitempty" yaml:"margin_x,omitempty"`
	MarginY  int       `json:"margin_y,omitempty" yaml:"margin_y,omitempty"`
}

// ItemsConfig controls item placement. Random items avoid both base columns.
type ItemsConfig struct {
	Persons int        `json:"persons" yaml:"persons"`
	Others  int        `json:"others" yaml:"others"`
	Fixed   []ItemSpec `json:"fixed,omitempty" yaml:"fixed,omitempty"`
}

// ItemSpec places one item at a fixed position
type ItemSpec struct {
	Kind     ItemKind `json:"kind" yaml:"kind"`
	Position Position `json:"position" yaml:"position"`
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	if config.Width < MinGridSize || config.Width > MaxGridSize {
		return fmt.Errorf("config validation: width must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Width)
	}
	if config.Height < MinGridSize || config.Height > MaxGridSize {
		return fmt.Errorf("config validation: height must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Height)
	}
	if config.MineTogglePeriod < 0 {
		return fmt.Errorf("config validation: mine_toggle_period must not be negative, got %d", config.MineTogglePeriod)
	}
	if config.CollisionPolicy != "" && !config.CollisionPolicy.Valid() {
		return fmt.Errorf("config validation: unknown collision_policy %q", config.CollisionPolicy)
	}

	if len(config.Teams) != 2 {
		return fmt.Errorf("config validation: exactly 2 teams required, got %d", len(config.Teams))
	}
	occupied := make(map[Position]string)
	for ti, team := range config.Teams {
		if team.Strategy != "" && !team.Strategy.Valid() {
			return fmt.Errorf("config validation: team %d: unknown strategy %q", ti+1, team.Strategy)
		}
		base := baseColumn(TeamID(ti+1), config.Width)
		for vi, spec := range team.Vehicles {
			where := fmt.Sprintf("team %d vehicle %d", ti+1, vi+1)
			if !spec.Kind.Valid() {
				return fmt.Errorf("config validation: %s: unknown kind %q", where, spec.Kind)
			}
			if spec.Strategy != "" && !spec.Strategy.Valid() {
				return fmt.Errorf("config validation: %s: unknown strategy %q", where, spec.Strategy)
			}
			pos := Position{X: base, Y: spec.Row}
			if spec.Column != nil {
				pos.X = *spec.Column
			}
			if pos.X < 0 || pos.X >= config.Width || pos.Y < 0 || pos.Y >= config.Height {
				return fmt.Errorf("config validation: %s: position (%d,%d) outside grid", where, pos.X, pos.Y)
			}
			if other, ok := occupied[pos]; ok {
				return fmt.Errorf("config validation: %s: position (%d,%d) already used by %s", where, pos.X, pos.Y, other)
			}
			occupied[pos] = where
		}
	}

	for i, spec := range config.Mines {
		where := fmt.Sprintf("mine %d", i+1)
		if !spec.Kind.Valid() {
			return fmt.Errorf("config validation: %s: unknown kind %q", where, spec.Kind)
		}
		if spec.Position != nil {
			p := *spec.Position
			if p.X < 0 || p.X >= config.Width || p.Y < 0 || p.Y >= config.Height {
				return fmt.Errorf("config validation: %s: position (%d,%d) outside grid", where, p.X, p.Y)
			}
			if other, ok := occupied[p]; ok {
				return fmt.Errorf("config validation: %s: position (%d,%d) already used by %s", where, p.X, p.Y, other)
			}
			occupied[p] = where
			continue
		}
		if spec.MarginX < 0 || spec.MarginY < 0 || 2*spec.MarginX >= config.Width || 2*spec.MarginY >= config.Height {
			return fmt.Errorf("config validation: %s: margins (%d,%d) leave no room on a %dx%d grid",
				where, spec.MarginX, spec.MarginY, config.Width, config.Height)
		}
	}

	if config.Items.Persons < 0 || config.Items.Others < 0 {
		return fmt.Errorf("config validation: item counts must not be negative")
	}
	for i, spec := range config.Items.Fixed {
		where := fmt.Sprintf("item %d", i+1)
		if !spec.Kind.Valid() {
			return fmt.Errorf("config validation: %s: unknown kind %q", where, spec.Kind)
		}
		p := spec.Position
		if p.X < 0 || p.X >= config.Width || p.Y < 0 || p.Y >= config.Height {
			return fmt.Errorf("config validation: %s: position (%d,%d) outside grid", where, p.X, p.Y)
		}
		if other, ok := occupied[p]; ok {
			return fmt.Errorf("config validation: %s: position (%d,%d) already used by %s", where, p.X, p.Y, other)
		}
		occupied[p] = where
	}

	randomItems := config.Items.Persons + config.Items.Others
	if randomItems > 0 && config.Width <= 2 {
		return fmt.Errorf("config validation: no columns left for random items")
	}
	randomMines := 0
	for _, spec := range config.Mines {
		if spec.Position == nil {
			randomMines++
		}
	}
	if free := (config.Width-2)*config.Height - len(occupied) - randomMines; randomItems > free {
		return fmt.Errorf("config validation: %d random items do not fit in %d free cells", randomItems, free)
	}

	return nil
}

func baseColumn(team TeamID, width int) int {
	if team == Team1 {
		return 0
	}
	return width - 1
}

// ParseGameConfig decodes a scenario. format is "json" or "yaml".
func ParseGameConfig(data []byte, format string) (*GameConfig, error) {
	var config GameConfig
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("parse yaml scenario: %w", err)
		}
	case "json", "":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("parse json scenario: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported scenario format %q", format)
	}
	return &config, nil
}

// LoadGameConfig loads and validates a scenario file. The format follows the extension.
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseGameConfig(data, strings.TrimPrefix(filepath.Ext(filename), "."))
	if err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// NewGame builds a populated world from a validated configuration. Vehicles
// go first, then fixed mines and items, then randomly placed ones.
func NewGame(config *GameConfig) (*World, error) {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	w := NewWorld(config.Width, config.Height)
	if config.MineTogglePeriod > 0 {
		w.period = config.MineTogglePeriod
	}
	if config.CollisionPolicy != "" {
		w.policy = config.CollisionPolicy
	}

	for ti, tc := range config.Teams {
		id := TeamID(ti + 1)
		team := w.Team(id)
		if tc.Name != "" {
			team.Name = tc.Name
		}
		for _, spec := range tc.Vehicles {
			pos := Position{X: team.BaseColumn, Y: spec.Row}
			if spec.Column != nil {
				pos.X = *spec.Column
			}
			strategy := spec.Strategy
			if strategy == "" {
				strategy = tc.Strategy
			}
			if _, err := w.AddVehicle(id, spec.Kind, pos, strategy); err != nil {
				return nil, fmt.Errorf("place %s for %s: %w", spec.Kind, team.Name, err)
			}
		}
	}

	for _, spec := range config.Mines {
		if spec.Position == nil {
			continue
		}
		if _, err := w.AddMine(spec.Kind, *spec.Position); err != nil {
			return nil, fmt.Errorf("place mine %s: %w", spec.Kind, err)
		}
	}
	for _, spec := range config.Items.Fixed {
		if _, err := w.AddItem(spec.Kind, spec.Position); err != nil {
			return nil, fmt.Errorf("place item %s: %w", spec.Kind, err)
		}
	}

	for _, spec := range config.Mines {
		if spec.Position != nil {
			continue
		}
		pos, err := randomEmptyCell(w, rng, spec.MarginX, spec.MarginY)
		if err != nil {
			return nil, fmt.Errorf("place mine %s: %w", spec.Kind, err)
		}
		if _, err := w.AddMine(spec.Kind, pos); err != nil {
			return nil, err
		}
	}

	others := []ItemKind{ItemWeapon, ItemClothing, ItemFood, ItemHeal}
	for i := 0; i < config.Items.Persons+config.Items.Others; i++ {
		kind := ItemPerson
		if i >= config.Items.Persons {
			kind = others[rng.Intn(len(others))]
		}
		pos, err := randomEmptyCell(w, rng, 1, 0)
		if err != nil {
			return nil, fmt.Errorf("place item %s: %w", kind, err)
		}
		if _, err := w.AddItem(kind, pos); err != nil {
			return nil, err
		}
	}

	w.RecomputeHazards()
	return w, nil
}

// randomEmptyCell picks a uniformly random empty cell inside the margins
func randomEmptyCell(w *World, rng *rand.Rand, marginX, marginY int) (Position, error) {
	var free []Position
	for y := marginY; y < w.Height-marginY; y++ {
		for x := marginX; x < w.Width-marginX; x++ {
			p := Position{X: x, Y: y}
			if w.Cell(p) == nil {
				free = append(free, p)
			}
		}
	}
	if len(free) == 0 {
		return Position{}, fmt.Errorf("no empty cell with margins (%d,%d)", marginX, marginY)
	}
	return free[rng.Intn(len(free))], nil
}

// DefaultGameConfig returns the classic 50x50 scenario: ten vehicles per
// team, one mine of each kind and sixty random items.
func DefaultGameConfig() *GameConfig {
	roster := func() []VehicleSpec {
		var specs []VehicleSpec
		add := func(kind VehicleKind, rows ...int) {
			for _, r := range rows {
				specs = append(specs, VehicleSpec{Kind: kind, Row: r})
			}
		}
		add(Truck, 2, 7)
		add(Jeep, 12, 17, 22)
		add(Car, 27, 32, 37)
		add(Motorcycle, 42, 47)
		return specs
	}

	return &GameConfig{
		Name:             "classic",
		Description:      "Two teams of ten vehicles on a 50x50 field with one mine of each kind",
		Width:            50,
		Height:           50,
		MineTogglePeriod: DefaultMineTogglePeriod,
		CollisionPolicy:  AllowCrash,
		Teams: []TeamConfig{
			{Name: "Team 1", Strategy: StrategyPickNearest, Vehicles: roster()},
			{Name: "Team 2", Strategy: StrategyPickNearest, Vehicles: roster()},
		},
		Mines: []MineSpec{
			{Kind: MineO1, MarginX: 11, MarginY: 10},
			{Kind: MineO2, MarginX: 6, MarginY: 5},
			{Kind: MineT1, MarginX: 11, MarginY: 0},
			{Kind: MineT2, MarginX: 2, MarginY: 5},
			{Kind: MineG1, MarginX: 8, MarginY: 0},
		},
		Items: ItemsConfig{Persons: 10, Others: 50},
	}
}
