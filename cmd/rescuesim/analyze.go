package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/rescue-simulator/game/config"
	"github.com/wricardo/rescue-simulator/game/engine"
	"github.com/wricardo/rescue-simulator/validate"
)

// scenarioAnalysis holds quick heuristics about a scenario's opening position
type scenarioAnalysis struct {
	Name             string                  `json:"name"`
	Width            int                     `json:"width"`
	Height           int                     `json:"height"`
	TogglePeriod     int                     `json:"mine_toggle_period"`
	Policy           engine.CollisionPolicy  `json:"collision_policy"`
	Teams            []rosterAnalysis        `json:"teams"`
	Mines            []mineAnalysis          `json:"mines"`
	HazardCells      int                     `json:"hazard_cells"`
	HazardPercent    float64                 `json:"hazard_percent"`
	Items            map[engine.ItemKind]int `json:"items"`
	ItemValue        int                     `json:"item_value"`
	ItemsInHazard    int                     `json:"items_in_hazard"`
	UnreachableItems []engine.Position       `json:"unreachable_items,omitempty"`
	FarthestItem     int                     `json:"farthest_item_distance"`
}

type rosterAnalysis struct {
	ID         engine.TeamID               `json:"id"`
	Name       string                      `json:"name"`
	BaseColumn int                         `json:"base_column"`
	Vehicles   map[engine.VehicleKind]int  `json:"vehicles"`
	Capacity   int                         `json:"capacity"`
	Strategies map[engine.StrategyKind]int `json:"strategies"`
}

type mineAnalysis struct {
	Kind     engine.MineKind `json:"kind"`
	Position engine.Position `json:"position"`
	XRadius  int             `json:"x_radius"`
	YRadius  int             `json:"y_radius"`
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "summarize scenarios: rosters, mine coverage and reachable items",
		ArgsUsage: "[scenario ...]",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "seed", Usage: "override the seed used to place random mines and items"},
			&cli.BoolFlag{Name: "json", Usage: "print the analysis as JSON"},
		},
		Action: analyzeAction,
	}
}

func analyzeAction(ctx context.Context, cmd *cli.Command) error {
	out := cmd.Root().Writer
	configDir := cmd.String("config-dir")

	names := cmd.Args().Slice()
	if len(names) == 0 {
		manager, err := config.NewManager(configDir)
		if err != nil {
			return err
		}
		infos, err := manager.ListConfigs()
		if err != nil {
			return err
		}
		for _, info := range infos {
			names = append(names, info.ConfigID)
		}
		if len(names) == 0 {
			return fmt.Errorf("no scenarios found in %s", configDir)
		}
	}

	var results []*scenarioAnalysis
	for _, name := range names {
		cfg, err := loadScenario(configDir, name)
		if err != nil {
			return err
		}
		if cmd.IsSet("seed") {
			cfg.Seed = cmd.Int64("seed")
		}
		a, err := analyzeScenario(cfg)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		results = append(results, a)
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, a := range results {
		printAnalysis(out, a)
	}
	return nil
}

// analyzeScenario builds the opening world and measures it
func analyzeScenario(cfg *engine.GameConfig) (*scenarioAnalysis, error) {
	w, err := engine.NewGame(cfg)
	if err != nil {
		return nil, err
	}

	a := &scenarioAnalysis{
		Name:         cfg.Name,
		Width:        w.Width,
		Height:       w.Height,
		TogglePeriod: w.TogglePeriod(),
		Policy:       w.Policy(),
		Items:        make(map[engine.ItemKind]int),
	}

	for _, t := range w.Teams() {
		r := rosterAnalysis{
			ID:         t.ID,
			Name:       t.Name,
			BaseColumn: t.BaseColumn,
			Vehicles:   make(map[engine.VehicleKind]int),
			Strategies: make(map[engine.StrategyKind]int),
		}
		for _, v := range t.Vehicles {
			r.Vehicles[v.Kind]++
			r.Strategies[v.Strategy]++
			r.Capacity += v.Capacity
		}
		a.Teams = append(a.Teams, r)
	}

	for _, m := range w.Mines() {
		a.Mines = append(a.Mines, mineAnalysis{Kind: m.Kind, Position: m.Pos, XRadius: m.XRadius, YRadius: m.YRadius})
	}
	a.HazardCells = w.Hazards().Count()
	a.HazardPercent = 100 * float64(a.HazardCells) / float64(w.Width*w.Height)

	reached := validate.Reachable(w)
	for _, it := range w.Items() {
		a.Items[it.Kind]++
		a.ItemValue += it.Value()
		if w.Hazardous(it.Pos) {
			a.ItemsInHazard++
		}
		if !reached[it.Pos] {
			a.UnreachableItems = append(a.UnreachableItems, it.Pos)
		}
		dist := it.Pos.X
		if other := w.Width - 1 - it.Pos.X; other < dist {
			dist = other
		}
		if dist > a.FarthestItem {
			a.FarthestItem = dist
		}
	}

	return a, nil
}

func printAnalysis(out io.Writer, a *scenarioAnalysis) {
	fmt.Fprintf(out, "\n=== %s ===\n", a.Name)
	fmt.Fprintf(out, "Grid: %d x %d, mines toggle every %d turns, collisions: %s\n", a.Width, a.Height, a.TogglePeriod, a.Policy)

	for _, r := range a.Teams {
		fmt.Fprintf(out, "Team %d (%s) at column %d: capacity %d, %s; strategies %s\n",
			r.ID, r.Name, r.BaseColumn, r.Capacity, countList(r.Vehicles), countList(r.Strategies))
	}

	fmt.Fprintf(out, "Mines: %d, opening hazard cover %d cells (%.1f%%)\n", len(a.Mines), a.HazardCells, a.HazardPercent)
	for _, m := range a.Mines {
		fmt.Fprintf(out, "  %s at (%d,%d) blast %dx%d\n", m.Kind, m.Position.X, m.Position.Y, 2*m.XRadius+1, 2*m.YRadius+1)
	}

	total := 0
	for _, n := range a.Items {
		total += n
	}
	fmt.Fprintf(out, "Items: %d worth %d (%s), %d inside hazard zones\n", total, a.ItemValue, countList(a.Items), a.ItemsInHazard)
	fmt.Fprintf(out, "Farthest item: %d columns from the nearest base\n", a.FarthestItem)

	if len(a.UnreachableItems) > 0 {
		fmt.Fprintf(out, "WARNING: %d items are sealed off by mines\n", len(a.UnreachableItems))
		for i, p := range a.UnreachableItems {
			if i == 5 {
				fmt.Fprintf(out, "  ... and %d more\n", len(a.UnreachableItems)-5)
				break
			}
			fmt.Fprintf(out, "  unreachable: (%d,%d)\n", p.X, p.Y)
		}
	} else {
		fmt.Fprintln(out, "All items are reachable from a base column")
	}
}

// countList renders a count map as "a=1, b=2" with sorted keys
func countList[K ~string](counts map[K]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[K(k)])
	}
	return strings.Join(parts, ", ")
}
