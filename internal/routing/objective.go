package routing

import "github.com/passbi/trackmaster/internal/models"

// Label is the best-known state of a station during a search: the transfer
// count and the accumulated objective value along the best path found so far.
type Label struct {
	Transfers int
	Value     int
}

// Objective defines what a search optimizes. Each objective picks the edge
// metric it accumulates, how queue entries are ordered, and when a candidate
// label replaces the current one.
type Objective interface {
	Name() string
	EdgeValue(edge models.Edge) int
	Less(a, b Label) bool
	Improves(candidate, current Label) bool
}

// MinTransfersObjective minimizes line changes first and cost second
type MinTransfersObjective struct{}

func (o *MinTransfersObjective) Name() string {
	return "min_transfers"
}

func (o *MinTransfersObjective) EdgeValue(e models.Edge) int {
	return e.Cost
}

func (o *MinTransfersObjective) Less(a, b Label) bool {
	if a.Transfers != b.Transfers {
		return a.Transfers < b.Transfers
	}
	return a.Value < b.Value
}

func (o *MinTransfersObjective) Improves(candidate, current Label) bool {
	return candidate.Transfers < current.Transfers ||
		(candidate.Transfers == current.Transfers && candidate.Value < current.Value)
}

// MinCostObjective minimizes the total fare. Transfers are counted for
// reporting only.
type MinCostObjective struct{}

func (o *MinCostObjective) Name() string {
	return "min_cost"
}

func (o *MinCostObjective) EdgeValue(e models.Edge) int {
	return e.Cost
}

func (o *MinCostObjective) Less(a, b Label) bool {
	return a.Value < b.Value
}

func (o *MinCostObjective) Improves(candidate, current Label) bool {
	return candidate.Value < current.Value
}

// MinTimeObjective minimizes total travel time. Transfers are counted for
// reporting only.
type MinTimeObjective struct{}

func (o *MinTimeObjective) Name() string {
	return "min_time"
}

func (o *MinTimeObjective) EdgeValue(e models.Edge) int {
	return e.Time
}

func (o *MinTimeObjective) Less(a, b Label) bool {
	return a.Value < b.Value
}

func (o *MinTimeObjective) Improves(candidate, current Label) bool {
	return candidate.Value < current.Value
}

// GetObjective returns an objective by name
func GetObjective(name string) Objective {
	switch name {
	case "min_transfers":
		return &MinTransfersObjective{}
	case "min_cost":
		return &MinCostObjective{}
	case "min_time":
		return &MinTimeObjective{}
	default:
		return &MinCostObjective{}
	}
}

// LookupObjective returns an objective by name and whether the name is known
func LookupObjective(name string) (Objective, bool) {
	for _, o := range GetAllObjectives() {
		if o.Name() == name {
			return o, true
		}
	}
	return nil, false
}

// GetAllObjectives returns all available objectives
func GetAllObjectives() []Objective {
	return []Objective{
		&MinTransfersObjective{},
		&MinCostObjective{},
		&MinTimeObjective{},
	}
}
