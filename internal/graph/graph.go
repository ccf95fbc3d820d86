package graph

import (
	"sort"

	"github.com/passbi/trackmaster/internal/models"
)

// Graph is the bidirectional station adjacency structure. It is never
// modified after Build returns, so it can be shared by concurrent searches.
type Graph struct {
	adj       map[models.StationID][]models.Edge
	edgeCount int
}

// Build constructs a graph from edge records. Every record produces an edge in
// each direction carrying the same weights. Parallel edges are kept.
func Build(records []models.EdgeRecord) *Graph {
	g := &Graph{
		adj: make(map[models.StationID][]models.Edge),
	}

	for _, r := range records {
		g.adj[r.Origin] = append(g.adj[r.Origin], models.Edge{
			To:       r.Destination,
			Time:     r.Time,
			Distance: r.Distance,
			Cost:     r.Cost,
		})
		g.adj[r.Destination] = append(g.adj[r.Destination], models.Edge{
			To:       r.Origin,
			Time:     r.Time,
			Distance: r.Distance,
			Cost:     r.Cost,
		})
		g.edgeCount += 2
	}

	return g
}

// Edges returns the outgoing edges of a station in insertion order.
// The returned slice must not be modified.
func (g *Graph) Edges(id models.StationID) []models.Edge {
	if g == nil {
		return nil
	}
	return g.adj[id]
}

// HasStation reports whether the station appears in any record
func (g *Graph) HasStation(id models.StationID) bool {
	if g == nil {
		return false
	}
	_, ok := g.adj[id]
	return ok
}

// Stations returns all station ids in lexical order
func (g *Graph) Stations() []models.StationID {
	if g == nil {
		return nil
	}
	ids := make([]models.StationID, 0, len(g.adj))
	for id := range g.adj {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// StationCount returns the number of stations
func (g *Graph) StationCount() int {
	if g == nil {
		return 0
	}
	return len(g.adj)
}

// EdgeCount returns the number of directed edges (two per record)
func (g *Graph) EdgeCount() int {
	if g == nil {
		return 0
	}
	return g.edgeCount
}

// Lines returns the number of stations on each line
func (g *Graph) Lines() map[string]int {
	lines := make(map[string]int)
	if g == nil {
		return lines
	}
	for id := range g.adj {
		lines[LineOf(id)]++
	}
	return lines
}

// LineOf returns the line a station belongs to. Transfer detection depends on
// station ids encoding their line in the first character.
func LineOf(id models.StationID) string {
	return id.Line()
}

// IsTransfer reports whether moving from one station to another changes line
func IsTransfer(from, to models.StationID) bool {
	return LineOf(from) != LineOf(to)
}
