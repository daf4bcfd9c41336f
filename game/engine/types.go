package engine

const (
	// Validation constants
	MinGridSize = 3
	MaxGridSize = 200

	DefaultMineTogglePeriod = 5
	ExplosionTTL            = 3
	G1Radius                = 7
	MaxAdvanceTurns         = 500
	WebSocketBufferSize     = 256
)

// Position represents x,y coordinates. X is the column, Y the row.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Offset returns the position shifted by dx, dy
func (p Position) Offset(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// ItemKind identifies a collectible item
type ItemKind string

const (
	ItemPerson   ItemKind = "person"
	ItemWeapon   ItemKind = "weapon"
	ItemClothing ItemKind = "clothing"
	ItemFood     ItemKind = "food"
	ItemHeal     ItemKind = "heal"
)

// ItemKinds lists every item kind in a stable order
var ItemKinds = []ItemKind{ItemPerson, ItemWeapon, ItemClothing, ItemFood, ItemHeal}

// Value returns the points credited when an item of this kind is delivered
func (k ItemKind) Value() int {
	switch k {
	case ItemPerson, ItemWeapon:
		return 50
	case ItemClothing:
		return 5
	case ItemFood:
		return 10
	case ItemHeal:
		return 20
	}
	return 0
}

// Valid reports whether k is a known item kind
func (k ItemKind) Valid() bool {
	return k.Value() > 0
}

// MineKind identifies a mine and its blast rectangle
type MineKind string

const (
	MineO1 MineKind = "O1"
	MineO2 MineKind = "O2"
	MineT1 MineKind = "T1"
	MineT2 MineKind = "T2"
	MineG1 MineKind = "G1"
)

// MineKinds lists every mine kind in a stable order
var MineKinds = []MineKind{MineO1, MineO2, MineT1, MineT2, MineG1}

// Radii returns the half-extents of the blast rectangle of an active mine
func (k MineKind) Radii() (xRadius, yRadius int) {
	switch k {
	case MineO1:
		return 10, 10
	case MineO2:
		return 5, 5
	case MineT1:
		return 10, 1
	case MineT2:
		return 1, 5
	case MineG1:
		return G1Radius, G1Radius
	}
	return 0, 0
}

// Valid reports whether k is a known mine kind
func (k MineKind) Valid() bool {
	switch k {
	case MineO1, MineO2, MineT1, MineT2, MineG1:
		return true
	}
	return false
}

// VehicleKind identifies a vehicle type
type VehicleKind string

const (
	Truck      VehicleKind = "truck"
	Jeep       VehicleKind = "jeep"
	Car        VehicleKind = "car"
	Motorcycle VehicleKind = "motorcycle"
)

// VehicleKinds lists every vehicle kind in a stable order
var VehicleKinds = []VehicleKind{Truck, Jeep, Car, Motorcycle}

// Capability restricts which item kinds a vehicle may pick up
type Capability int

const (
	CarryAny Capability = iota
	PersonsOnly
	ExcludesPersons
)

// Capacity returns how many items a vehicle of this kind can carry
func (k VehicleKind) Capacity() int {
	switch k {
	case Truck:
		return 3
	case Jeep:
		return 2
	case Car, Motorcycle:
		return 1
	}
	return 0
}

// Capability returns the pickup restriction of this kind
func (k VehicleKind) Capability() Capability {
	switch k {
	case Truck, Jeep:
		return ExcludesPersons
	case Motorcycle:
		return PersonsOnly
	}
	return CarryAny
}

// Valid reports whether k is a known vehicle kind
func (k VehicleKind) Valid() bool {
	return k.Capacity() > 0
}

// VehicleState is the lifecycle state of a vehicle
type VehicleState string

const (
	StateIdle       VehicleState = "idle"
	StateCollecting VehicleState = "collecting"
	StateReturning  VehicleState = "returning"
	StateAttacking  VehicleState = "attacking"
	StateEscorting  VehicleState = "escorting"
	StateWaiting    VehicleState = "waiting"
)

// Valid reports whether s is a known vehicle state
func (s VehicleState) Valid() bool {
	switch s {
	case StateIdle, StateCollecting, StateReturning, StateAttacking, StateEscorting, StateWaiting:
		return true
	}
	return false
}

// CollisionPolicy decides what happens when several vehicles claim the same cell
type CollisionPolicy string

const (
	// AllowCrash lets every claimant move; collisions are resolved afterwards.
	AllowCrash CollisionPolicy = "allow_crash"
	// PreferMove lets only the highest-capacity claimant move.
	PreferMove CollisionPolicy = "prefer_move"
)

// Valid reports whether p is a known policy
func (p CollisionPolicy) Valid() bool {
	return p == AllowCrash || p == PreferMove
}

// GameOverReason explains why a game ended
type GameOverReason string

const (
	ReasonNone             GameOverReason = "none"
	ReasonNoVehicles       GameOverReason = "no_vehicles"
	ReasonNoItems          GameOverReason = "no_items"
	ReasonNoReachableItems GameOverReason = "no_reachable_items"
)

// TeamID identifies one of the two teams
type TeamID int

const (
	Team1 TeamID = 1
	Team2 TeamID = 2
)

// Opponent returns the other team
func (id TeamID) Opponent() TeamID {
	if id == Team1 {
		return Team2
	}
	return Team1
}

// Valid reports whether id names one of the two teams
func (id TeamID) Valid() bool {
	return id == Team1 || id == Team2
}

// Occupant is anything that can sit in a grid cell: *Item, *Mine or *Vehicle.
type Occupant interface {
	Position() Position
	setPosition(Position)
}

// Item is a collectible lying on the grid, carried as cargo, or pinned under a vehicle
type Item struct {
	Kind ItemKind `json:"kind"`
	Pos  Position `json:"position"`
}

func (i *Item) Position() Position     { return i.Pos }
func (i *Item) setPosition(p Position) { i.Pos = p }

// Value returns the item's point value
func (i *Item) Value() int { return i.Kind.Value() }

// Mine is a stationary hazard with a rectangular blast zone
type Mine struct {
	Kind    MineKind `json:"kind"`
	Pos     Position `json:"position"`
	XRadius int      `json:"x_radius"`
	YRadius int      `json:"y_radius"`
	Active  bool     `json:"active"`
}

// NewMine creates an active mine of the given kind
func NewMine(kind MineKind, pos Position) *Mine {
	xr, yr := kind.Radii()
	return &Mine{Kind: kind, Pos: pos, XRadius: xr, YRadius: yr, Active: true}
}

func (m *Mine) Position() Position     { return m.Pos }
func (m *Mine) setPosition(p Position) { m.Pos = p }

// Covers reports whether p lies inside the mine's blast rectangle
func (m *Mine) Covers(p Position) bool {
	return abs(p.X-m.Pos.X) <= m.XRadius && abs(p.Y-m.Pos.Y) <= m.YRadius
}

// Toggle flips a G1 mine between its full and collapsed blast rectangle.
// Other kinds are unaffected.
func (m *Mine) Toggle() bool {
	if m.Kind != MineG1 {
		return false
	}
	m.Active = !m.Active
	if m.Active {
		m.XRadius, m.YRadius = G1Radius, G1Radius
	} else {
		m.XRadius, m.YRadius = 0, 0
	}
	return true
}

// Explosion marks a cell where vehicles were destroyed
type Explosion struct {
	Pos  Position `json:"position"`
	TTL  int      `json:"ttl"`
	Turn int      `json:"turn"`
}
