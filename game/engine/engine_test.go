package engine

import (
	"errors"
	"testing"
)

func TestEndToEndCarDelivery(t *testing.T) {
	w := NewWorld(10, 10)
	car := mustVehicle(t, w, Team1, Car, pos(0, 5), StrategyPickNearest)
	mustItem(t, w, ItemFood, pos(3, 5))
	e := NewEngineForWorld(w)

	pickedBy := -1
	for turn := 0; turn < 3; turn++ {
		e.AdvanceTurn(turn)
		if len(car.Cargo) == 1 {
			pickedBy = turn
			break
		}
	}
	if pickedBy < 0 {
		t.Fatalf("Expected pickup within 3 turns, car at %v", car.Pos)
	}
	if car.Pos != pos(3, 5) {
		t.Errorf("Expected car on (3,5) after pickup, got %v", car.Pos)
	}
	if w.Cell(pos(3, 5)) != Occupant(car) {
		t.Error("Expected item removed from the grid")
	}

	delivered := false
	for turn := pickedBy + 1; turn < pickedBy+10; turn++ {
		report := e.AdvanceTurn(turn)
		if len(report.Deliveries) > 0 {
			delivered = true
			break
		}
	}
	if !delivered {
		t.Fatal("Expected the car to deliver at the base column")
	}
	if car.Pos.X != 0 {
		t.Errorf("Expected car on column 0, got %v", car.Pos)
	}
	if pts := e.Team(Team1).Points; pts != 10 {
		t.Errorf("Expected 10 points, got %d", pts)
	}
	if len(car.Cargo) != 0 || car.State != StateIdle {
		t.Errorf("Expected empty idle car, got cargo %v state %s", car.Cargo, car.State)
	}
	if e.Team(Team1).Collected[ItemFood] != 1 {
		t.Errorf("Expected one food collected, got %v", e.Team(Team1).Collected)
	}
}

func TestCollisionDestroysBothVehicles(t *testing.T) {
	w := NewWorld(5, 5)
	a := mustVehicle(t, w, Team1, Car, pos(1, 2), "")
	b := mustVehicle(t, w, Team2, Car, pos(3, 2), "")
	a.Route = Path{pos(2, 2)}
	b.Route = Path{pos(2, 2)}
	e := NewEngineForWorld(w)

	report := e.AdvanceTurn(0)

	if len(e.Team(Team1).Vehicles) != 0 || len(e.Team(Team2).Vehicles) != 0 {
		t.Fatal("Expected both rosters empty after the collision")
	}
	if w.Cell(pos(2, 2)) != nil {
		t.Errorf("Expected collision cell cleared, got %T", w.Cell(pos(2, 2)))
	}
	if len(report.Collisions) != 1 || len(report.Collisions[0].Vehicles) != 2 {
		t.Fatalf("Expected one two-vehicle collision, got %+v", report.Collisions)
	}
	xs := e.Explosions()
	if len(xs) != 1 || xs[0].Pos != pos(2, 2) || xs[0].TTL != ExplosionTTL {
		t.Fatalf("Expected a fresh explosion at (2,2) with ttl 3, got %+v", xs)
	}
	for _, id := range []TeamID{Team1, Team2} {
		stats := e.Team(id).Stats
		if stats.Collisions != 1 || stats.VehiclesLost != 1 {
			t.Errorf("Team %d: expected 1 collision and 1 loss, got %+v", id, stats)
		}
	}
	if w.Hazardous(pos(2, 2)) {
		t.Error("Expected hazards recomputed without the destroyed vehicles")
	}
}

func TestCollisionRestoresPinnedItem(t *testing.T) {
	w := NewWorld(5, 5)
	a := mustVehicle(t, w, Team1, Truck, pos(1, 2), "")
	b := mustVehicle(t, w, Team2, Truck, pos(3, 2), "")
	mustItem(t, w, ItemPerson, pos(2, 2))
	a.Route = Path{pos(2, 2)}
	b.Route = Path{pos(2, 2)}
	e := NewEngineForWorld(w)

	report := e.AdvanceTurn(0)

	it, ok := w.Cell(pos(2, 2)).(*Item)
	if !ok || it.Kind != ItemPerson {
		t.Fatalf("Expected the pinned person restored, got %T", w.Cell(pos(2, 2)))
	}
	if report.Collisions[0].Restored != ItemPerson {
		t.Errorf("Expected report to name the restored item, got %q", report.Collisions[0].Restored)
	}
}

func TestExplosionMarkerExpires(t *testing.T) {
	w := NewWorld(5, 5)
	a := mustVehicle(t, w, Team1, Car, pos(1, 2), "")
	b := mustVehicle(t, w, Team2, Car, pos(3, 2), "")
	a.Route = Path{pos(2, 2)}
	b.Route = Path{pos(2, 2)}
	e := NewEngineForWorld(w)

	e.AdvanceTurn(0)
	for turn, want := range []int{2, 1} {
		e.AdvanceTurn(turn + 1)
		if xs := e.Explosions(); len(xs) != 1 || xs[0].TTL != want {
			t.Fatalf("Turn %d: expected ttl %d, got %+v", turn+1, want, xs)
		}
	}
	e.AdvanceTurn(3)
	if xs := e.Explosions(); len(xs) != 0 {
		t.Errorf("Expected marker removed, got %+v", xs)
	}
}

func TestMineDetonation(t *testing.T) {
	w := NewWorld(20, 3)
	v := mustVehicle(t, w, Team1, Car, pos(0, 0), "")
	mustMine(t, w, MineO2, pos(6, 0))
	v.Route = Path{pos(1, 0)}
	e := NewEngineForWorld(w)

	report := e.AdvanceTurn(0)

	if len(report.MineKills) != 1 || report.MineKills[0].Mine != MineO2 {
		t.Fatalf("Expected one O2 kill, got %+v", report.MineKills)
	}
	if len(e.Team(Team1).Vehicles) != 0 {
		t.Error("Expected vehicle removed from roster")
	}
	if w.Cell(pos(1, 0)) != nil {
		t.Errorf("Expected cell cleared, got %T", w.Cell(pos(1, 0)))
	}
	stats := e.Team(Team1).Stats
	if stats.MineDeaths != 1 || stats.VehiclesLost != 1 || stats.Collisions != 0 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestMineTogglePeriodicity(t *testing.T) {
	w := NewWorld(21, 21)
	g1 := mustMine(t, w, MineG1, pos(10, 10))
	e := NewEngineForWorld(w)

	for turn := 0; turn < 20; turn++ {
		report := e.AdvanceTurn(turn)
		want := (turn+1)/5%2 == 0
		if g1.Active != want {
			t.Fatalf("Turn %d: expected active=%v", turn, want)
		}
		if toggled := len(report.ToggledMines) == 1; toggled != ((turn+1)%5 == 0) {
			t.Fatalf("Turn %d: unexpected toggle report %v", turn, report.ToggledMines)
		}
		if g1.Active && (g1.XRadius != 7 || !w.Hazardous(pos(3, 3))) {
			t.Fatalf("Turn %d: expected 7x7 zone while active", turn)
		}
		if !g1.Active && (g1.XRadius != 0 || w.Hazardous(pos(9, 10))) {
			t.Fatalf("Turn %d: expected collapsed zone while inactive", turn)
		}
	}
}

func TestPreferMovePolicy(t *testing.T) {
	w := NewWorld(5, 5)
	car := mustVehicle(t, w, Team1, Car, pos(1, 2), "")
	truck := mustVehicle(t, w, Team2, Truck, pos(3, 2), "")
	car.Route = Path{pos(2, 2)}
	truck.Route = Path{pos(2, 2)}
	w.policy = PreferMove
	e := NewEngineForWorld(w)

	report := e.AdvanceTurn(0)

	if len(report.Collisions) != 0 {
		t.Fatalf("Expected no collision under prefer_move, got %+v", report.Collisions)
	}
	if truck.Pos != pos(2, 2) {
		t.Errorf("Expected the truck to win the cell, got %v", truck.Pos)
	}
	if car.Pos != pos(1, 2) {
		t.Errorf("Expected the car to stay, got %v", car.Pos)
	}
	if len(report.SuppressedIntents) != 1 || report.SuppressedIntents[0] != car.ID {
		t.Errorf("Expected the car's intent suppressed, got %v", report.SuppressedIntents)
	}
	checkWorldInvariants(t, w, 0)
}

type panicStrategy struct{}

func (panicStrategy) Plan(*Vehicle, *World) error { panic("boom") }

type failingStrategy struct{}

func (failingStrategy) Plan(*Vehicle, *World) error { return errors.New("no plan") }

func TestStrategyFailureFallsBack(t *testing.T) {
	strategies["test_panic"] = panicStrategy{}
	strategies["test_error"] = failingStrategy{}
	t.Cleanup(func() {
		delete(strategies, "test_panic")
		delete(strategies, "test_error")
	})

	for _, kind := range []StrategyKind{"test_panic", "test_error"} {
		t.Run(string(kind), func(t *testing.T) {
			w := NewWorld(10, 10)
			v := mustVehicle(t, w, Team1, Car, pos(0, 5), kind)
			mustItem(t, w, ItemFood, pos(3, 5))
			e := NewEngineForWorld(w)

			report := e.AdvanceTurn(0)

			if len(report.StrategyFailures) != 1 || report.StrategyFailures[0].VehicleID != v.ID {
				t.Fatalf("Expected one strategy failure, got %+v", report.StrategyFailures)
			}
			if v.Pos != pos(1, 5) || v.State != StateCollecting {
				t.Errorf("Expected pick_nearest fallback step to (1,5), got %v %s", v.Pos, v.State)
			}
		})
	}
}

func TestGameOver(t *testing.T) {
	t.Run("no vehicles", func(t *testing.T) {
		w := NewWorld(10, 10)
		mustItem(t, w, ItemFood, pos(4, 4))
		mustMine(t, w, MineO1, pos(6, 6))
		e := NewEngineForWorld(w)
		if over, reason := e.GameOver(); !over || reason != ReasonNoVehicles {
			t.Errorf("Expected (true, no_vehicles), got (%v, %s)", over, reason)
		}
	})

	t.Run("no items", func(t *testing.T) {
		w := NewWorld(10, 10)
		mustVehicle(t, w, Team1, Car, pos(0, 0), "")
		e := NewEngineForWorld(w)
		if over, reason := e.GameOver(); !over || reason != ReasonNoItems {
			t.Errorf("Expected (true, no_items), got (%v, %s)", over, reason)
		}
	})

	t.Run("cargo keeps game alive", func(t *testing.T) {
		w := NewWorld(10, 10)
		v := mustVehicle(t, w, Team1, Car, pos(3, 3), "")
		v.Cargo = []Item{{Kind: ItemFood}}
		e := NewEngineForWorld(w)
		if over, _ := e.GameOver(); over {
			t.Error("Expected game running while a vehicle carries cargo")
		}
	})

	t.Run("no reachable items", func(t *testing.T) {
		w := NewWorld(30, 30)
		mustVehicle(t, w, Team1, Car, pos(0, 0), "")
		mustMine(t, w, MineO2, pos(15, 15))
		mustItem(t, w, ItemFood, pos(15, 17))
		e := NewEngineForWorld(w)
		if over, reason := e.GameOver(); !over || reason != ReasonNoReachableItems {
			t.Errorf("Expected (true, no_reachable_items), got (%v, %s)", over, reason)
		}
	})

	t.Run("reachable item", func(t *testing.T) {
		w := NewWorld(30, 30)
		mustVehicle(t, w, Team1, Car, pos(0, 0), "")
		mustItem(t, w, ItemFood, pos(5, 5))
		e := NewEngineForWorld(w)
		if over, reason := e.GameOver(); over || reason != ReasonNone {
			t.Errorf("Expected (false, none), got (%v, %s)", over, reason)
		}
	})
}

func TestDefaultGameInvariants(t *testing.T) {
	config := DefaultGameConfig()
	config.Seed = 7
	e, err := NewEngine(config)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	for turn := 0; turn < 60; turn++ {
		e.AdvanceTurn(turn)
		checkWorldInvariants(t, e.World(), turn)
		if over, _ := e.GameOver(); over {
			break
		}
	}

	total := 0
	for _, team := range e.World().Teams() {
		total += team.Stats.VehiclesLost + len(team.Vehicles)
	}
	if total != 20 {
		t.Errorf("Expected 20 vehicles accounted for, got %d", total)
	}
}

func TestClear(t *testing.T) {
	e := NewEngineWithDefaults()
	e.Clear()
	w := e.World()
	if len(w.Vehicles()) != 0 || len(w.Items()) != 0 || len(w.Mines()) != 0 {
		t.Error("Expected an empty world after Clear")
	}
	if w.Hazards().Count() != 0 {
		t.Error("Expected no hazards after Clear")
	}
	if over, reason := e.GameOver(); !over || reason != ReasonNoVehicles {
		t.Errorf("Expected no_vehicles after Clear, got %v %s", over, reason)
	}
}
