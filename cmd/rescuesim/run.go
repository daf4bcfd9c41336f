package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/rescue-simulator/game/engine"
	"github.com/wricardo/rescue-simulator/game/session"
)

// runSummary is what `run --json` prints
type runSummary struct {
	Scenario       string                `json:"scenario"`
	StartTurn      int                   `json:"start_turn"`
	Turn           int                   `json:"turn"`
	GameOver       bool                  `json:"game_over"`
	GameOverReason engine.GameOverReason `json:"game_over_reason,omitempty"`
	Teams          []teamSummary         `json:"teams"`
	ItemsRemaining int                   `json:"items_remaining"`
	Grid           []string              `json:"grid,omitempty"`
}

type teamSummary struct {
	ID       engine.TeamID    `json:"id"`
	Name     string           `json:"name"`
	Points   int              `json:"points"`
	Vehicles int              `json:"vehicles"`
	Stats    engine.TeamStats `json:"stats"`
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "simulate a scenario headless for a number of turns",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "scenario", Aliases: []string{"s"}, Usage: "scenario file or config id (default: the directory's default)"},
			&cli.IntFlag{Name: "turns", Aliases: []string{"n"}, Value: 100, Usage: "turns to resolve; stops early on game over"},
			&cli.Int64Flag{Name: "seed", Usage: "override the scenario seed"},
			&cli.StringFlag{Name: "resume", Usage: "continue from a snapshot file written by --snapshot", TakesFile: true},
			&cli.StringFlag{Name: "snapshot", Usage: "write the final world to this file (.zst is compressed)", TakesFile: true},
			&cli.IntFlag{Name: "every", Usage: "print the grid every N turns (0 disables)"},
			&cli.BoolFlag{Name: "events", Usage: "print per-turn events"},
			&cli.BoolFlag{Name: "json", Usage: "print the final summary as JSON"},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	out := cmd.Root().Writer
	logger := newLogger(cmd)

	cfg, err := loadScenario(cmd.String("config-dir"), cmd.String("scenario"))
	if err != nil {
		return err
	}
	if cmd.IsSet("seed") {
		cfg.Seed = cmd.Int64("seed")
	}
	turns := cmd.Int("turns")
	if turns < 0 {
		return fmt.Errorf("--turns must not be negative, got %d", turns)
	}

	eng, err := engine.NewEngine(cfg, engine.WithLogger(logger))
	if err != nil {
		return err
	}

	start := 0
	if path := cmd.String("resume"); path != "" {
		snap, err := readSnapshot(path)
		if err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		if err := eng.ImportSnapshot(snap); err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		start = snap.Turn
	}

	every := cmd.Int("every")
	events := cmd.Bool("events")
	turn := start
	for ; turn < start+turns; turn++ {
		if err := ctx.Err(); err != nil {
			break
		}
		if over, _ := eng.GameOver(); over {
			break
		}
		report := eng.AdvanceTurn(turn)
		if events {
			printEvents(out, report)
		}
		if every > 0 && (turn+1)%every == 0 {
			fmt.Fprintf(out, "--- after turn %d ---\n%s\n", turn+1, eng.World().RenderString())
		}
	}

	if path := cmd.String("snapshot"); path != "" {
		if err := writeSnapshot(path, eng.ExportSnapshot(turn)); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		logger.Info().Str("file", path).Int("turn", turn).Msg("snapshot written")
	}

	summary := summarize(cfg.Name, start, turn, eng)
	if cmd.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	printSummary(out, summary)
	return nil
}

func summarize(name string, start, turn int, eng *engine.GameEngine) *runSummary {
	w := eng.World()
	over, reason := eng.GameOver()
	s := &runSummary{
		Scenario:       name,
		StartTurn:      start,
		Turn:           turn,
		GameOver:       over,
		ItemsRemaining: w.ItemsRemaining(),
		Grid:           w.Render(),
	}
	if over {
		s.GameOverReason = reason
	}
	for _, t := range w.Teams() {
		s.Teams = append(s.Teams, teamSummary{
			ID:       t.ID,
			Name:     t.Name,
			Points:   t.Points,
			Vehicles: len(t.Vehicles),
			Stats:    t.Stats,
		})
	}
	return s
}

func printSummary(out io.Writer, s *runSummary) {
	fmt.Fprintf(out, "%s: played turns %d..%d\n", s.Scenario, s.StartTurn, s.Turn)
	for _, t := range s.Teams {
		fmt.Fprintf(out, "  team %d %-10s %5d points  %2d vehicles  %d deliveries  %d collisions  %d mine deaths\n",
			t.ID, t.Name, t.Points, t.Vehicles, t.Stats.Deliveries, t.Stats.Collisions, t.Stats.MineDeaths)
	}
	fmt.Fprintf(out, "  items remaining: %d\n", s.ItemsRemaining)
	if s.GameOver {
		fmt.Fprintf(out, "  game over: %s\n", s.GameOverReason)
	}
	fmt.Fprintln(out, strings.Join(s.Grid, "\n"))
}

func printEvents(out io.Writer, r *engine.TurnReport) {
	for _, p := range r.ToggledMines {
		fmt.Fprintf(out, "turn %d: mine at (%d,%d) toggled\n", r.Turn, p.X, p.Y)
	}
	for _, d := range r.Deliveries {
		fmt.Fprintf(out, "turn %d: vehicle %d delivered %d items for team %d (+%d)\n", r.Turn, d.VehicleID, len(d.Items), d.Team, d.Points)
	}
	for _, c := range r.Collisions {
		fmt.Fprintf(out, "turn %d: collision at (%d,%d) destroyed %v\n", r.Turn, c.Pos.X, c.Pos.Y, c.Vehicles)
	}
	for _, k := range r.MineKills {
		fmt.Fprintf(out, "turn %d: vehicle %d destroyed by %s at (%d,%d)\n", r.Turn, k.VehicleID, k.Mine, k.MinePos.X, k.MinePos.Y)
	}
	for _, f := range r.StrategyFailures {
		fmt.Fprintf(out, "turn %d: vehicle %d strategy %s failed: %s\n", r.Turn, f.VehicleID, f.Strategy, f.Error)
	}
}

// Snapshot files ending in .zst use the session store's compressed format;
// anything else is indented JSON.

func writeSnapshot(path string, snap *engine.Snapshot) error {
	if strings.HasSuffix(path, ".zst") {
		return session.WriteSnapshotFile(path, snap)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readSnapshot(path string) (*engine.Snapshot, error) {
	if strings.HasSuffix(path, ".zst") {
		return session.ReadSnapshotFile(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
