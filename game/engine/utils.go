package engine

import "strings"

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	return abs(from.X-to.X) + abs(from.Y-to.Y)
}

// CellInfo describes one grid cell for clients
type CellInfo struct {
	Position  Position `json:"position"`
	Hazardous bool     `json:"hazardous"`
	Occupant  string   `json:"occupant"`
	Item      *Item    `json:"item,omitempty"`
	Mine      *Mine    `json:"mine,omitempty"`
	Vehicle   *Vehicle `json:"vehicle,omitempty"`
	Explosion int      `json:"explosion_ttl,omitempty"`
}

// DescribeCell reports what sits at p
func (w *World) DescribeCell(p Position) CellInfo {
	info := CellInfo{Position: p, Hazardous: w.Hazardous(p), Occupant: "empty"}
	switch occ := w.Cell(p).(type) {
	case *Item:
		info.Occupant, info.Item = "item", occ
	case *Mine:
		info.Occupant, info.Mine = "mine", occ
	case *Vehicle:
		info.Occupant, info.Vehicle = "vehicle", occ
	}
	for _, x := range w.explosions {
		if x.Pos == p {
			info.Explosion = x.TTL
		}
	}
	return info
}

var itemGlyphs = map[ItemKind]byte{
	ItemPerson:   'p',
	ItemWeapon:   'w',
	ItemClothing: 'c',
	ItemFood:     'f',
	ItemHeal:     'h',
}

var mineGlyphs = map[MineKind]byte{
	MineO1: 'O',
	MineO2: 'o',
	MineT1: 'T',
	MineT2: 't',
	MineG1: 'G',
}

// Render draws the world as text, one string per row.
//
//	1 2   vehicles by team
//	p w c f h   items
//	O o T t G   mines (g for a collapsed G1)
//	*   explosion marker
//	~   empty hazardous cell
func (w *World) Render() []string {
	rows := make([][]byte, w.Height)
	for y := range rows {
		rows[y] = make([]byte, w.Width)
		for x := range rows[y] {
			p := Position{X: x, Y: y}
			switch occ := w.Cell(p).(type) {
			case *Item:
				rows[y][x] = itemGlyphs[occ.Kind]
			case *Mine:
				g := mineGlyphs[occ.Kind]
				if occ.Kind == MineG1 && !occ.Active {
					g = 'g'
				}
				rows[y][x] = g
			case *Vehicle:
				rows[y][x] = byte('0' + int(occ.Team))
			default:
				if w.Hazardous(p) {
					rows[y][x] = '~'
				} else {
					rows[y][x] = '.'
				}
			}
		}
	}
	for _, x := range w.explosions {
		if w.InBounds(x.Pos) && w.Cell(x.Pos) == nil {
			rows[x.Pos.Y][x.Pos.X] = '*'
		}
	}

	out := make([]string, len(rows))
	for y, r := range rows {
		out[y] = string(r)
	}
	return out
}

// RenderString joins Render output with newlines
func (w *World) RenderString() string {
	return strings.Join(w.Render(), "\n")
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
