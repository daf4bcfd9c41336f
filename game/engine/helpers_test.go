package engine

import "testing"

func mustVehicle(t *testing.T, w *World, team TeamID, kind VehicleKind, pos Position, strategy StrategyKind) *Vehicle {
	t.Helper()
	v, err := w.AddVehicle(team, kind, pos, strategy)
	if err != nil {
		t.Fatalf("AddVehicle(%s at %v): %v", kind, pos, err)
	}
	return v
}

func mustItem(t *testing.T, w *World, kind ItemKind, pos Position) *Item {
	t.Helper()
	it, err := w.AddItem(kind, pos)
	if err != nil {
		t.Fatalf("AddItem(%s at %v): %v", kind, pos, err)
	}
	return it
}

func mustMine(t *testing.T, w *World, kind MineKind, pos Position) *Mine {
	t.Helper()
	m, err := w.AddMine(kind, pos)
	if err != nil {
		t.Fatalf("AddMine(%s at %v): %v", kind, pos, err)
	}
	return m
}

func pos(x, y int) Position {
	return Position{X: x, Y: y}
}

// checkWorldInvariants verifies grid/vehicle consistency after a turn
func checkWorldInvariants(t *testing.T, w *World, turn int) {
	t.Helper()
	seen := make(map[Position]int)
	for _, v := range w.Vehicles() {
		if occ, ok := w.Cell(v.Pos).(*Vehicle); !ok || occ != v {
			t.Fatalf("turn %d: vehicle %d at %v not found in its grid cell (found %T)", turn, v.ID, v.Pos, w.Cell(v.Pos))
		}
		if other, dup := seen[v.Pos]; dup {
			t.Fatalf("turn %d: vehicles %d and %d share %v", turn, other, v.ID, v.Pos)
		}
		seen[v.Pos] = v.ID
		if len(v.Cargo) > v.Capacity {
			t.Fatalf("turn %d: vehicle %d carries %d items with capacity %d", turn, v.ID, len(v.Cargo), v.Capacity)
		}
		if !w.Hazardous(v.Pos) {
			t.Fatalf("turn %d: vehicle %d cell %v not hazardous", turn, v.ID, v.Pos)
		}
	}
	for y := 0; y < w.Height; y++ {
		for x := 0; x < w.Width; x++ {
			p := pos(x, y)
			occ := w.Cell(p)
			if occ != nil && occ.Position() != p {
				t.Fatalf("turn %d: occupant at %v stores position %v", turn, p, occ.Position())
			}
		}
	}
}
