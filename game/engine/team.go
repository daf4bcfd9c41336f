package engine

// TeamStats tracks a team's losses and deliveries
type TeamStats struct {
	Collisions   int `json:"collisions"`
	MineDeaths   int `json:"mine_deaths"`
	VehiclesLost int `json:"vehicles_lost"`
	Deliveries   int `json:"deliveries"`
}

// Team is a score ledger plus the roster of live vehicles
type Team struct {
	ID         TeamID           `json:"id"`
	Name       string           `json:"name"`
	Points     int              `json:"points"`
	BaseColumn int              `json:"base_column"`
	Collected  map[ItemKind]int `json:"collected"`
	Stats      TeamStats        `json:"stats"`

	// Vehicles is ordered; roster order is planning order.
	Vehicles []*Vehicle `json:"-"`
}

// NewTeam creates an empty team
func NewTeam(id TeamID, name string, baseColumn int) *Team {
	return &Team{
		ID:         id,
		Name:       name,
		BaseColumn: baseColumn,
		Collected:  make(map[ItemKind]int),
	}
}

// credit books a delivered cargo load and returns the points it earned
func (t *Team) credit(cargo []Item) int {
	points := 0
	for _, it := range cargo {
		points += it.Value()
		t.Collected[it.Kind]++
	}
	t.Points += points
	t.Stats.Deliveries++
	return points
}

// CollectedTotal returns the number of items delivered across all kinds
func (t *Team) CollectedTotal() int {
	n := 0
	for _, c := range t.Collected {
		n += c
	}
	return n
}
