package routing

import (
	"slices"

	"github.com/passbi/trackmaster/internal/graph"
	"github.com/passbi/trackmaster/internal/models"
)

// reconstructRoute follows predecessor links back from end until a station
// without a predecessor and returns the stations in travel order
func reconstructRoute(prev map[models.StationID]models.StationID, end models.StationID) []models.StationID {
	route := []models.StationID{end}
	current := end

	for {
		p, ok := prev[current]
		// A route never has more stations than predecessor links plus one.
		// The length check only trips on a corrupted map.
		if !ok || len(route) > len(prev) {
			break
		}
		route = append(route, p)
		current = p
	}

	slices.Reverse(route)
	return route
}

// assemblePath builds the result for a search that settled end
func assemblePath(objective Objective, end models.StationID, state *searchState) *models.Path {
	route := reconstructRoute(state.prev, end)
	hops := state.hops[end]

	path := &models.Path{
		Station:   end,
		Objective: objective.Name(),
		Transfers: state.labels[end].Transfers,
		Route:     route,
		Distances: hops.distances,
		Costs:     hops.costs,
		Times:     hops.times,
	}

	for _, c := range path.Costs {
		path.TotalCost += c
	}

	path.Legs = buildLegs(path)

	return path
}

// buildLegs constructs rider-facing legs from a path.
// Consecutive hops on the same line collapse into one RIDE leg; a hop that
// changes line becomes its own TRANSFER leg.
func buildLegs(path *models.Path) []models.Leg {
	if len(path.Route) < 2 {
		return []models.Leg{}
	}

	legs := []models.Leg{}
	var current *models.Leg

	for i := 0; i < path.Hops(); i++ {
		from := path.Route[i]
		to := path.Route[i+1]

		leg := models.Leg{
			Type:        models.EdgeRide,
			Line:        graph.LineOf(from),
			FromStation: from,
			ToStation:   to,
			Stations:    []models.StationID{from, to},
			Distance:    path.Distances[i],
			Cost:        path.Costs[i],
			Duration:    path.Times[i],
			NumStops:    1,
		}
		if graph.IsTransfer(from, to) {
			leg.Type = models.EdgeTransfer
			leg.Line = graph.LineOf(to)
		}

		if current != nil &&
			current.Type == models.EdgeRide &&
			leg.Type == models.EdgeRide &&
			current.Line == leg.Line {
			current.ToStation = to
			current.Stations = append(current.Stations, to)
			current.Distance += leg.Distance
			current.Cost += leg.Cost
			current.Duration += leg.Duration
			current.NumStops++
			continue
		}

		if current != nil {
			legs = append(legs, *current)
		}
		current = &leg
	}

	if current != nil {
		legs = append(legs, *current)
	}

	return legs
}
