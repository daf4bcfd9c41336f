package engine

const (
	safeMineMargin = 1
	safeG1Margin   = 2
	// Minimum number of spare turns before the next G1 toggle for a route
	// to cross a collapsed G1 zone.
	safeToggleSlack = 2
)

// FullSafe plans like PickNearest but only accepts routes that stay clear of
// every blast rectangle at the turn each step is taken, including G1 mines
// that will switch on while the vehicle is underway.
type FullSafe struct{}

func (FullSafe) Plan(v *Vehicle, w *World) error {
	if len(v.Route) > 0 {
		if routeSafe(w, v.Route) {
			return nil
		}
		v.ClearRoute()
		v.State = StateIdle
	}

	if !v.Full() {
		route, ok := safeRoute(w, func(h HazardMap) Path {
			return Nearest(w, v.Pos, h, v.TargetMatch())
		})
		if ok && len(route) > 0 {
			v.Route = route
			v.State = StateCollecting
			return nil
		}
	}

	base := w.Team(v.Team).BaseColumn
	route, ok := safeRoute(w, func(h HazardMap) Path {
		return PathToColumn(w, v.Pos, base, h)
	})
	if ok {
		v.Route = route
		v.State = StateReturning
		return nil
	}

	v.ClearRoute()
	v.State = StateWaiting
	return nil
}

// safeRoute searches with the augmented hazard map and returns the route
// (start excluded) if every step passes the timed safety check.
func safeRoute(w *World, search func(HazardMap) Path) (Path, bool) {
	open := search(augmentedHazards(w, false))
	if open == nil {
		return nil, false
	}
	route := open[1:]
	inactive := hasInactiveG1(w)
	if (!inactive || turnsUntilToggle(w.turn, w.period)-len(route) >= safeToggleSlack) && routeSafe(w, route) {
		return trimRoute(route), true
	}
	if !inactive {
		return nil, false
	}

	closed := search(augmentedHazards(w, true))
	if closed == nil {
		return nil, false
	}
	route = closed[1:]
	if routeSafe(w, route) {
		return trimRoute(route), true
	}
	return nil, false
}

func trimRoute(route Path) Path {
	if len(route) == 0 {
		return nil
	}
	return route
}

// augmentedHazards builds a transient hazard map with wider margins around
// mines. Collapsed G1 zones are included only when blockInactive is set.
func augmentedHazards(w *World, blockInactive bool) HazardMap {
	h := NewHazardMap(w.Width, w.Height)
	for _, v := range w.Vehicles() {
		h.mark(v.Pos)
	}
	for _, m := range w.mines {
		switch {
		case m.Kind != MineG1:
			h.markRect(m.Pos, m.XRadius+safeMineMargin, m.YRadius+safeMineMargin)
		case m.Active || blockInactive:
			h.markRect(m.Pos, G1Radius+safeG1Margin, G1Radius+safeG1Margin)
		}
	}
	return h
}

func hasInactiveG1(w *World) bool {
	for _, m := range w.mines {
		if m.Kind == MineG1 && !m.Active {
			return true
		}
	}
	return false
}

// routeSafe checks each step against the mine states at the turn it is
// taken. Step i is occupied at the end of turn current+i.
func routeSafe(w *World, route Path) bool {
	for i, p := range route {
		if _, isMine := w.Cell(p).(*Mine); isMine {
			return false
		}
		flips := togglesBetween(w.turn, w.turn+i, w.period)
		for _, m := range w.mines {
			if m.Kind != MineG1 {
				if m.Covers(p) {
					return false
				}
				continue
			}
			active := m.Active
			if flips%2 == 1 {
				active = !active
			}
			if active && abs(p.X-m.Pos.X) <= G1Radius && abs(p.Y-m.Pos.Y) <= G1Radius {
				return false
			}
		}
	}
	return true
}

// togglesBetween counts toggle turns u with from < u <= to
func togglesBetween(from, to, period int) int {
	if period <= 0 {
		return 0
	}
	n := 0
	for u := from + 1; u <= to; u++ {
		if (u+1)%period == 0 {
			n++
		}
	}
	return n
}

// turnsUntilToggle returns the smallest k >= 1 such that turn+k is a toggle turn
func turnsUntilToggle(turn, period int) int {
	if period <= 0 {
		return MaxAdvanceTurns
	}
	for k := 1; ; k++ {
		if (turn+k+1)%period == 0 {
			return k
		}
	}
}
