package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/rescue-simulator/game/engine"
)

const validScenario = `{
	"name": "Test Scenario",
	"description": "Small field",
	"width": 8,
	"height": 6,
	"seed": 1,
	"teams": [
		{"name": "Red", "vehicles": [{"kind": "truck", "row": 1}, {"kind": "motorcycle", "row": 3}]},
		{"name": "Blue", "vehicles": [{"kind": "car", "row": 2}]}
	],
	"mines": [{"kind": "T1", "position": {"x": 4, "y": 2}}],
	"items": {"persons": 2, "others": 3}
}`

const validYAML = `name: yaml scenario
width: 10
height: 8
seed: 5
teams:
  - name: Red
    vehicles:
      - {kind: car, row: 1}
  - name: Blue
    vehicles:
      - {kind: car, row: 6}
items:
  persons: 1
  others: 1
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestFile_Valid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "small.json", validScenario)

	result := File(path)
	if !result.Valid {
		t.Fatalf("Expected valid scenario, got errors: %v", result.Errors)
	}
	if result.File != "small.json" {
		t.Errorf("Expected file name small.json, got %s", result.File)
	}

	joined := strings.Join(result.Info, "\n")
	for _, want := range []string{"Name: Test Scenario", "Grid: 8x6", "Vehicles: 3", "Items: 5", "all 5 items reachable"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Expected info %q in %v", want, result.Info)
		}
	}
}

func TestFile_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "field.yaml", validYAML)

	result := File(path)
	if !result.Valid {
		t.Fatalf("Expected valid YAML scenario, got errors: %v", result.Errors)
	}
}

func TestFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{
			name:    "malformed json",
			file:    "broken.json",
			content: `{"name": `,
			wantErr: "parse json",
		},
		{
			name:    "unknown field",
			file:    "extra.json",
			content: strings.Replace(validScenario, `"seed": 1,`, `"seed": 1, "grid_size": 8,`, 1),
			wantErr: "invalid",
		},
		{
			name:    "vehicles share a cell",
			file:    "overlap.json",
			content: strings.Replace(validScenario, `"row": 3`, `"row": 1`, 1),
			wantErr: "already used",
		},
		{
			name: "nobody carries persons",
			file: "trucks.json",
			content: `{"name": "trucks", "width": 8, "height": 6, "seed": 1,
				"teams": [{"vehicles": [{"kind": "truck", "row": 1}]}, {"vehicles": [{"kind": "jeep", "row": 1}]}],
				"items": {"persons": 2, "others": 1}}`,
			wantErr: "no vehicle can carry persons",
		},
		{
			name: "nobody carries cargo",
			file: "bikes.json",
			content: `{"name": "bikes", "width": 8, "height": 6, "seed": 1,
				"teams": [{"vehicles": [{"kind": "motorcycle", "row": 1}]}, {"vehicles": [{"kind": "motorcycle", "row": 1}]}],
				"items": {"fixed": [{"kind": "food", "position": {"x": 3, "y": 3}}]}}`,
			wantErr: "non-person items",
		},
		{
			name:    "unsupported extension",
			file:    "scenario.toml",
			content: validScenario,
			wantErr: "unsupported format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)
			result := File(path)
			if result.Valid {
				t.Fatal("Expected invalid scenario")
			}
			if !strings.Contains(strings.ToLower(strings.Join(result.Errors, "\n")), strings.ToLower(tt.wantErr)) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, result.Errors)
			}
		})
	}
}

func TestFile_Missing(t *testing.T) {
	result := File(filepath.Join(t.TempDir(), "nope.json"))
	if result.Valid {
		t.Error("Expected missing file to be invalid")
	}
}

func TestFile_SealedItemIsWarning(t *testing.T) {
	sealed := `{"name": "sealed", "width": 8, "height": 6, "seed": 1,
		"teams": [{"vehicles": [{"kind": "car", "row": 3}]}, {"vehicles": [{"kind": "car", "row": 5}]}],
		"mines": [
			{"kind": "O1", "position": {"x": 3, "y": 0}},
			{"kind": "O1", "position": {"x": 5, "y": 0}},
			{"kind": "O1", "position": {"x": 4, "y": 1}}
		],
		"items": {"fixed": [
			{"kind": "person", "position": {"x": 4, "y": 0}},
			{"kind": "food", "position": {"x": 2, "y": 4}}
		]}}`
	path := writeFile(t, t.TempDir(), "sealed.json", sealed)

	result := File(path)
	if !result.Valid {
		t.Fatalf("Expected sealed items to warn only, got errors: %v", result.Errors)
	}
	if len(result.Warnings) != 2 {
		t.Fatalf("Expected summary plus one unreachable line, got %v", result.Warnings)
	}
	if !strings.Contains(result.Warnings[0], "1/2 items") {
		t.Errorf("Unexpected summary %q", result.Warnings[0])
	}
	if result.Warnings[1] != "unreachable: person at (4,0)" {
		t.Errorf("Unexpected warning %q", result.Warnings[1])
	}
}

func TestConfig_Default(t *testing.T) {
	cfg := engine.DefaultGameConfig()
	cfg.Seed = 42

	result := Config("classic", cfg)
	if !result.Valid {
		t.Fatalf("Expected built-in scenario to be valid, got %v", result.Errors)
	}
}

func TestDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", validScenario)
	writeFile(t, dir, "a.yaml", validYAML)
	writeFile(t, dir, "c.json", `{}`)
	writeFile(t, dir, "README.txt", "not a scenario")
	if err := os.Mkdir(filepath.Join(dir, "nested.json"), 0755); err != nil {
		t.Fatal(err)
	}

	results, err := Dir(dir)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	want := []struct {
		file  string
		valid bool
	}{{"a.yaml", true}, {"b.json", true}, {"c.json", false}}
	for i, w := range want {
		if results[i].File != w.file || results[i].Valid != w.valid {
			t.Errorf("Result %d: expected %s valid=%t, got %s valid=%t", i, w.file, w.valid, results[i].File, results[i].Valid)
		}
	}

	if _, err := Dir(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestReachable(t *testing.T) {
	w := engine.NewWorld(5, 3)
	for _, p := range []engine.Position{{X: 2, Y: 0}, {X: 2, Y: 1}, {X: 2, Y: 2}} {
		if _, err := w.AddMine(engine.MineO1, p); err != nil {
			t.Fatal(err)
		}
	}

	reached := Reachable(w)
	if reached[engine.Position{X: 2, Y: 1}] {
		t.Error("Mine cells must not be reachable")
	}
	if !reached[engine.Position{X: 1, Y: 1}] || !reached[engine.Position{X: 3, Y: 1}] {
		t.Error("Cells next to either base column should be reachable")
	}
	if len(reached) != 12 {
		t.Errorf("Expected 12 reachable cells, got %d", len(reached))
	}
}

func TestRepositoryScenarios(t *testing.T) {
	results, err := Dir("../configs")
	if err != nil {
		t.Skipf("configs directory not available: %v", err)
	}
	if len(results) == 0 {
		t.Skip("no scenarios in configs")
	}
	for _, result := range results {
		if !result.Valid {
			t.Errorf("%s: %v", result.File, result.Errors)
		}
	}
}
