// Package validate checks scenario files before they are served. Each file
// goes through three stages:
//   - the scenario JSON schema (JSON or YAML documents)
//   - engine.ValidateGameConfig for grid-dependent rules
//   - a trial build of the world, followed by a reachability flood fill from
//     both base columns
//
// Items sealed off by mines are reported as warnings: with a zero seed the
// random placement differs on every run, so they do not make a file invalid.
package validate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/rescue-simulator/game/config"
	"github.com/wricardo/rescue-simulator/game/engine"
)

// Result captures the outcome of validating a single file.
type Result struct {
	File     string   `json:"file"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Info     []string `json:"info,omitempty"`
}

func (r *Result) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Extensions lists the scenario file extensions Dir picks up
var Extensions = []string{".json", ".yaml", ".yml"}

// File loads and validates one scenario file
func File(path string) Result {
	result := Result{File: filepath.Base(path), Valid: true}

	data, err := os.ReadFile(path)
	if err != nil {
		result.fail("failed to read file: %v", err)
		return result
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if err := config.ValidateDocument(data, format); err != nil {
		result.fail("%v", err)
		return result
	}

	cfg, err := engine.ParseGameConfig(data, format)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	checkScenario(&result, cfg)
	return result
}

// Config validates an already decoded scenario
func Config(name string, cfg *engine.GameConfig) Result {
	result := Result{File: name, Valid: true}
	checkScenario(&result, cfg)
	return result
}

// Dir validates every scenario file in dir, sorted by name
func Dir(dir string) ([]Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, known := range Extensions {
			if ext == known {
				files = append(files, filepath.Join(dir, entry.Name()))
				break
			}
		}
	}
	sort.Strings(files)

	results := make([]Result, 0, len(files))
	for _, f := range files {
		results = append(results, File(f))
	}
	return results, nil
}

func checkScenario(result *Result, cfg *engine.GameConfig) {
	if err := engine.ValidateGameConfig(cfg); err != nil {
		result.fail("%v", err)
		return
	}

	checkCapabilities(result, cfg)

	w, err := engine.NewGame(cfg)
	if err != nil {
		result.fail("build world: %v", err)
		return
	}

	checkReachability(result, w)

	if !result.Valid {
		return
	}
	vehicles := 0
	for _, t := range cfg.Teams {
		vehicles += len(t.Vehicles)
	}
	result.Info = append(result.Info,
		fmt.Sprintf("Name: %s", cfg.Name),
		fmt.Sprintf("Grid: %dx%d", cfg.Width, cfg.Height),
		fmt.Sprintf("Vehicles: %d", vehicles),
		fmt.Sprintf("Mines: %d", len(cfg.Mines)),
		fmt.Sprintf("Items: %d", w.ItemsRemaining()),
	)
}

// checkCapabilities fails a scenario whose items can never be picked up by
// any vehicle in either roster
func checkCapabilities(result *Result, cfg *engine.GameConfig) {
	carriesPersons, carriesCargo := false, false
	for _, team := range cfg.Teams {
		for _, spec := range team.Vehicles {
			switch spec.Kind.Capability() {
			case engine.PersonsOnly:
				carriesPersons = true
			case engine.ExcludesPersons:
				carriesCargo = true
			default:
				carriesPersons, carriesCargo = true, true
			}
		}
	}

	persons := cfg.Items.Persons
	others := cfg.Items.Others
	for _, spec := range cfg.Items.Fixed {
		if spec.Kind == engine.ItemPerson {
			persons++
		} else {
			others++
		}
	}

	if persons > 0 && !carriesPersons {
		result.fail("%d persons placed but no vehicle can carry persons", persons)
	}
	if others > 0 && !carriesCargo {
		result.fail("%d items placed but no vehicle can carry non-person items", others)
	}
}

// checkReachability flood fills from both base columns across every cell a
// mine does not occupy and warns about items outside the filled region.
func checkReachability(result *Result, w *engine.World) {
	reached := Reachable(w)

	var unreachable []string
	items := w.Items()
	for _, it := range items {
		if !reached[it.Pos] {
			unreachable = append(unreachable, fmt.Sprintf("%s at (%d,%d)", it.Kind, it.Pos.X, it.Pos.Y))
		}
	}

	if len(unreachable) == 0 {
		result.Info = append(result.Info, fmt.Sprintf("Connectivity: all %d items reachable", len(items)))
		return
	}
	result.Warnings = append(result.Warnings,
		fmt.Sprintf("%d/%d items sealed off by mines", len(unreachable), len(items)))
	for _, u := range unreachable {
		result.Warnings = append(result.Warnings, "unreachable: "+u)
	}
}

// Reachable returns the cells connected to either base column through cells
// that hold no mine. Hazard zones are ignored since mines toggle.
func Reachable(w *engine.World) map[engine.Position]bool {
	visited := make(map[engine.Position]bool)
	var queue []engine.Position

	passable := func(p engine.Position) bool {
		if !w.InBounds(p) {
			return false
		}
		_, isMine := w.Cell(p).(*engine.Mine)
		return !isMine
	}

	for _, team := range w.Teams() {
		for y := 0; y < w.Height; y++ {
			p := engine.Position{X: team.BaseColumn, Y: y}
			if passable(p) && !visited[p] {
				visited[p] = true
				queue = append(queue, p)
			}
		}
	}

	directions := []engine.Position{{X: -1, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: -1}, {X: 0, Y: 1}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, d := range directions {
			next := current.Offset(d.X, d.Y)
			if !visited[next] && passable(next) {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	return visited
}
