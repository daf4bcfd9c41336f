package engine

import "testing"

func TestStrategyFor(t *testing.T) {
	for _, kind := range StrategyKinds {
		if _, err := StrategyFor(kind); err != nil {
			t.Errorf("StrategyFor(%s): %v", kind, err)
		}
	}
	if s, err := StrategyFor(""); err != nil || s == nil {
		t.Errorf("Expected empty kind to map to a default strategy, got %v %v", s, err)
	}
	if _, err := StrategyFor("teleport"); err == nil {
		t.Error("Expected error for unknown strategy")
	}
}

func TestPickNearestCollects(t *testing.T) {
	w := NewWorld(10, 10)
	v := mustVehicle(t, w, Team1, Car, pos(0, 5), StrategyPickNearest)
	mustItem(t, w, ItemFood, pos(3, 5))
	mustItem(t, w, ItemFood, pos(8, 5))
	w.RecomputeHazards()

	if err := v.Plan(w); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if v.State != StateCollecting {
		t.Errorf("Expected collecting, got %s", v.State)
	}
	if len(v.Route) != 3 || v.Route[len(v.Route)-1] != pos(3, 5) {
		t.Errorf("Expected 3-step route to (3,5), got %v", v.Route)
	}

	before := v.Route
	v.Plan(w)
	if &before[0] != &v.Route[0] {
		t.Error("Expected existing route to be kept")
	}
}

func TestPickNearestRespectsCapability(t *testing.T) {
	w := NewWorld(10, 10)
	v := mustVehicle(t, w, Team1, Motorcycle, pos(0, 5), StrategyPickNearest)
	mustItem(t, w, ItemFood, pos(2, 5))
	mustItem(t, w, ItemPerson, pos(6, 5))
	w.RecomputeHazards()

	v.Plan(w)
	if len(v.Route) == 0 || v.Route[len(v.Route)-1] != pos(6, 5) {
		t.Errorf("Expected motorcycle to head for the person, got %v", v.Route)
	}
}

func TestPickNearestReturnsWhenFull(t *testing.T) {
	w := NewWorld(10, 10)
	v := mustVehicle(t, w, Team2, Car, pos(4, 4), StrategyPickNearest)
	v.Cargo = []Item{{Kind: ItemHeal}}
	mustItem(t, w, ItemFood, pos(5, 4))
	w.RecomputeHazards()

	v.Plan(w)
	if v.State != StateReturning {
		t.Errorf("Expected returning, got %s", v.State)
	}
	if len(v.Route) != 5 || v.Route[len(v.Route)-1].X != 9 {
		t.Errorf("Expected 5-step route to column 9, got %v", v.Route)
	}
}

func TestPickNearestIdleWhenTrapped(t *testing.T) {
	w := NewWorld(5, 5)
	v := mustVehicle(t, w, Team2, Car, pos(0, 0), StrategyPickNearest)
	mustMine(t, w, MineO2, pos(1, 0))
	mustMine(t, w, MineO2, pos(0, 1))

	v.Plan(w)
	if v.State != StateIdle || v.Route != nil {
		t.Errorf("Expected idle with no route, got %s %v", v.State, v.Route)
	}
}

func TestInvaderPicksFarthest(t *testing.T) {
	w := NewWorld(10, 10)
	v := mustVehicle(t, w, Team1, Car, pos(0, 5), StrategyInvader)
	mustItem(t, w, ItemFood, pos(2, 5))
	mustItem(t, w, ItemFood, pos(8, 5))
	w.RecomputeHazards()

	v.Plan(w)
	if len(v.Route) == 0 || v.Route[len(v.Route)-1] != pos(8, 5) {
		t.Errorf("Expected invader to head for (8,5), got %v", v.Route)
	}
	if v.State != StateCollecting {
		t.Errorf("Expected collecting, got %s", v.State)
	}
}

func TestKamikazeChasesClosestEnemy(t *testing.T) {
	w := NewWorld(10, 10)
	v := mustVehicle(t, w, Team1, Car, pos(0, 0), StrategyKamikaze)
	mustVehicle(t, w, Team2, Truck, pos(9, 9), "")
	mustVehicle(t, w, Team2, Jeep, pos(3, 0), "")
	w.RecomputeHazards()

	v.Plan(w)
	if v.State != StateAttacking {
		t.Errorf("Expected attacking, got %s", v.State)
	}
	if len(v.Route) != 3 || v.Route[2] != pos(3, 0) {
		t.Errorf("Expected 3-step route onto the jeep, got %v", v.Route)
	}
}

func TestKamikazeFallsBackWithoutEnemies(t *testing.T) {
	w := NewWorld(10, 10)
	v := mustVehicle(t, w, Team1, Car, pos(0, 0), StrategyKamikaze)
	mustItem(t, w, ItemFood, pos(0, 4))
	w.RecomputeHazards()

	v.Plan(w)
	if v.State != StateCollecting {
		t.Errorf("Expected fallback to collecting, got %s", v.State)
	}
}

func TestEscortShadowsBusyAlly(t *testing.T) {
	w := NewWorld(20, 5)
	v := mustVehicle(t, w, Team1, Car, pos(0, 2), StrategyEscort)
	ally := mustVehicle(t, w, Team1, Truck, pos(10, 2), "")
	ally.State = StateCollecting
	mustItem(t, w, ItemFood, pos(0, 4))
	w.RecomputeHazards()

	v.Plan(w)
	if v.State != StateEscorting {
		t.Fatalf("Expected escorting, got %s", v.State)
	}
	if len(v.Route) != 5 {
		t.Errorf("Expected route capped at 5 steps, got %v", v.Route)
	}
	for _, p := range v.Route {
		if p == ally.Pos {
			t.Fatal("Escort route must not enter the ally's cell")
		}
	}
}

func TestEscortStopsShortOfAlly(t *testing.T) {
	w := NewWorld(20, 5)
	v := mustVehicle(t, w, Team1, Car, pos(0, 2), StrategyEscort)
	ally := mustVehicle(t, w, Team1, Truck, pos(5, 2), "")
	ally.Cargo = []Item{{Kind: ItemFood}}
	w.RecomputeHazards()

	v.Plan(w)
	if len(v.Route) != 4 || v.Route[3] != pos(4, 2) {
		t.Errorf("Expected 4-step route ending next to the ally, got %v", v.Route)
	}
}

func TestEscortCollectsWhenClose(t *testing.T) {
	w := NewWorld(20, 5)
	v := mustVehicle(t, w, Team1, Car, pos(0, 2), StrategyEscort)
	ally := mustVehicle(t, w, Team1, Truck, pos(2, 2), "")
	ally.State = StateCollecting
	mustItem(t, w, ItemFood, pos(0, 4))
	w.RecomputeHazards()

	v.Plan(w)
	if v.State != StateCollecting {
		t.Errorf("Expected collecting near the ally, got %s", v.State)
	}
}

func TestToggleArithmetic(t *testing.T) {
	if n := togglesBetween(3, 4, 5); n != 1 {
		t.Errorf("togglesBetween(3,4,5) = %d, want 1", n)
	}
	if n := togglesBetween(0, 3, 5); n != 0 {
		t.Errorf("togglesBetween(0,3,5) = %d, want 0", n)
	}
	if n := togglesBetween(0, 10, 5); n != 2 {
		t.Errorf("togglesBetween(0,10,5) = %d, want 2", n)
	}
	if k := turnsUntilToggle(3, 5); k != 1 {
		t.Errorf("turnsUntilToggle(3,5) = %d, want 1", k)
	}
	if k := turnsUntilToggle(4, 5); k != 5 {
		t.Errorf("turnsUntilToggle(4,5) = %d, want 5", k)
	}
}

func TestFullSafeDiscardsRouteIntoWakingG1(t *testing.T) {
	w := NewWorld(30, 30)
	v := mustVehicle(t, w, Team1, Car, pos(0, 0), StrategyFullSafe)
	g1 := mustMine(t, w, MineG1, pos(15, 15))
	g1.Toggle()
	w.RecomputeHazards()
	w.turn = 3

	// step 0 is taken on turn 3 while G1 is collapsed, step 1 on turn 4 after it wakes
	v.Route = Path{pos(0, 1), pos(8, 8)}
	v.State = StateCollecting

	if err := v.Plan(w); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	for _, p := range v.Route {
		if p == pos(8, 8) {
			t.Fatalf("Expected unsafe route discarded, got %v", v.Route)
		}
	}
	if v.State != StateReturning {
		t.Errorf("Expected replanned return to base, got %s", v.State)
	}
}

func TestFullSafeKeepsSafeRoute(t *testing.T) {
	w := NewWorld(30, 30)
	v := mustVehicle(t, w, Team1, Car, pos(0, 0), StrategyFullSafe)
	mustMine(t, w, MineG1, pos(15, 15)).Toggle()
	w.RecomputeHazards()
	w.turn = 0

	v.Route = Path{pos(0, 1), pos(8, 8)}
	v.Plan(w)
	if len(v.Route) != 2 {
		t.Errorf("Expected route kept while G1 stays collapsed, got %v", v.Route)
	}
}

func TestFullSafeWaitsWhenSurrounded(t *testing.T) {
	w := NewWorld(20, 3)
	v := mustVehicle(t, w, Team2, Car, pos(0, 0), StrategyFullSafe)
	mustMine(t, w, MineO2, pos(6, 0))
	w.RecomputeHazards()

	v.Plan(w)
	if v.State != StateWaiting {
		t.Errorf("Expected waiting, got %s", v.State)
	}
	if v.Route != nil {
		t.Errorf("Expected no route, got %v", v.Route)
	}
}

func TestFullSafeAvoidsWidenedMineZone(t *testing.T) {
	w := NewWorld(30, 30)
	v := mustVehicle(t, w, Team1, Car, pos(0, 12), StrategyFullSafe)
	mustMine(t, w, MineO2, pos(12, 12))
	mustItem(t, w, ItemFood, pos(25, 12))
	w.RecomputeHazards()

	v.Plan(w)
	if v.State != StateCollecting {
		t.Fatalf("Expected collecting, got %s", v.State)
	}
	for _, p := range v.Route {
		if abs(p.X-12) <= 6 && abs(p.Y-12) <= 6 {
			t.Fatalf("Route enters the widened O2 zone at %v", p)
		}
	}
}
