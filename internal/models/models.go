package models

import "unicode/utf8"

// StationID identifies a station. The first character of the id names the
// line the station belongs to ("2A" is on line 2).
type StationID string

// Line returns the line a station belongs to: the first character of its id.
// An empty id has no line.
func (id StationID) Line() string {
	s := string(id)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		if size == 0 {
			return ""
		}
		return s[:1]
	}
	return s[:size]
}

// EdgeType represents the kind of movement a leg describes
type EdgeType string

const (
	EdgeRide     EdgeType = "RIDE"
	EdgeTransfer EdgeType = "TRANSFER"
)

// EdgeRecord is one station-pair row as authored in the record source.
// The graph treats it as traversable in both directions.
type EdgeRecord struct {
	Origin      StationID
	Destination StationID
	Time        int // seconds
	Distance    int // meters
	Cost        int // currency units
}

// Edge is an outgoing adjacency entry of a station
type Edge struct {
	To       StationID `json:"to"`
	Time     int       `json:"time_seconds"`
	Distance int       `json:"distance_meters"`
	Cost     int       `json:"cost"`
}

// Path represents a complete route from origin to destination.
// Distances, Costs and Times hold one entry per hop, so each has
// len(Route)-1 entries.
type Path struct {
	Station   StationID   `json:"station"`
	Objective string      `json:"objective"`
	TotalCost int         `json:"total_cost"`
	Transfers int         `json:"transfers"`
	Route     []StationID `json:"route"`
	Distances []int       `json:"distances"`
	Costs     []int       `json:"costs"`
	Times     []int       `json:"times"`
	Legs      []Leg       `json:"legs"`
}

// Hops returns the number of edges traversed
func (p *Path) Hops() int {
	return len(p.Distances)
}

// TotalDistance sums the per-hop distances
func (p *Path) TotalDistance() int {
	return sum(p.Distances)
}

// TotalTime sums the per-hop travel times
func (p *Path) TotalTime() int {
	return sum(p.Times)
}

// Leg represents one segment of a journey: either a ride along a single line
// or a hop that changes line.
type Leg struct {
	Type        EdgeType    `json:"type"`
	Line        string      `json:"line"`
	FromStation StationID   `json:"from_station"`
	ToStation   StationID   `json:"to_station"`
	Stations    []StationID `json:"stations"`
	Distance    int         `json:"distance_meters"`
	Cost        int         `json:"cost"`
	Duration    int         `json:"duration_seconds"`
	NumStops    int         `json:"num_stops"`
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
