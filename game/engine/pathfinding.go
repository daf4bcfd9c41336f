package engine

// Path is a sequence of cells including both the start and the goal.
// A nil Path means no route exists.
type Path []Position

// Len returns the number of steps in the path, not counting the start
func (p Path) Len() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// Match selects target cells by their occupant. The occupant may be nil.
type Match func(Occupant) bool

// IsItem matches any item
func IsItem(occ Occupant) bool {
	_, ok := occ.(*Item)
	return ok
}

// IsPerson matches person items only
func IsPerson(occ Occupant) bool {
	it, ok := occ.(*Item)
	return ok && it.Kind == ItemPerson
}

// IsCargo matches every item except persons
func IsCargo(occ Occupant) bool {
	it, ok := occ.(*Item)
	return ok && it.Kind != ItemPerson
}

// left, right, up, down
var neighbours = [4]Position{{X: -1, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: -1}, {X: 0, Y: 1}}

// walkable reports whether hazard-aware search may enter p. A nil hazard map
// only rules out mines and the grid edge.
func walkable(w *World, p Position, hazards HazardMap) bool {
	if !w.InBounds(p) {
		return false
	}
	if hazards != nil && hazards.At(p) {
		return false
	}
	_, isMine := w.Cell(p).(*Mine)
	return !isMine
}

// bfs explores from start in neighbour order and returns the path to the
// first goal cell, or to the last one when exhaustive is set. The start cell
// is a candidate goal but is never itself checked for walkability.
func bfs(w *World, start Position, goal func(Position) bool, step func(Position) bool, exhaustive bool) Path {
	if !w.InBounds(start) {
		return nil
	}

	visited := make([][]bool, w.Height)
	parent := make([][]Position, w.Height)
	for y := range visited {
		visited[y] = make([]bool, w.Width)
		parent[y] = make([]Position, w.Width)
	}

	found := false
	var last Position

	queue := []Position{start}
	visited[start.Y][start.X] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if goal(cur) {
			found = true
			last = cur
			if !exhaustive {
				break
			}
		}

		for _, d := range neighbours {
			next := cur.Offset(d.X, d.Y)
			if !w.InBounds(next) || visited[next.Y][next.X] || !step(next) {
				continue
			}
			visited[next.Y][next.X] = true
			parent[next.Y][next.X] = cur
			queue = append(queue, next)
		}
	}

	if !found {
		return nil
	}

	var rev Path
	for p := last; p != start; p = parent[p.Y][p.X] {
		rev = append(rev, p)
	}
	rev = append(rev, start)

	path := make(Path, len(rev))
	for i := range rev {
		path[i] = rev[len(rev)-1-i]
	}
	return path
}

// Nearest returns the shortest hazard-aware path to the closest cell whose
// occupant satisfies match.
func Nearest(w *World, start Position, hazards HazardMap, match Match) Path {
	return bfs(w, start,
		func(p Position) bool { return match(w.Cell(p)) },
		func(p Position) bool { return walkable(w, p, hazards) },
		false)
}

// Farthest returns the path to the matching cell discovered last by the
// hazard-aware search.
func Farthest(w *World, start Position, hazards HazardMap, match Match) Path {
	return bfs(w, start,
		func(p Position) bool { return match(w.Cell(p)) },
		func(p Position) bool { return walkable(w, p, hazards) },
		true)
}

// PathToColumn returns the shortest hazard-aware path to any cell in column targetX.
func PathToColumn(w *World, start Position, targetX int, hazards HazardMap) Path {
	return bfs(w, start,
		func(p Position) bool { return p.X == targetX },
		func(p Position) bool { return walkable(w, p, hazards) },
		false)
}

// ShortestPath returns a path between two cells ignoring hazards and occupants.
func ShortestPath(w *World, start, goal Position) Path {
	if !w.InBounds(goal) {
		return nil
	}
	return bfs(w, start,
		func(p Position) bool { return p == goal },
		func(Position) bool { return true },
		false)
}
