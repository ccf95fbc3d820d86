package routing

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/passbi/trackmaster/internal/graph"
	"github.com/passbi/trackmaster/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// triangleGraph has a cheap two-hop route through 1B and an expensive but
// short direct hop from 1A to 2A
func triangleGraph() *graph.Graph {
	return graph.Build([]models.EdgeRecord{
		{Origin: "1A", Destination: "1B", Time: 3, Distance: 100, Cost: 50},
		{Origin: "1B", Destination: "2A", Time: 5, Distance: 200, Cost: 80},
		{Origin: "1A", Destination: "2A", Time: 10, Distance: 50, Cost: 200},
	})
}

// detourGraph offers a three-hop ride on line 1 and a cheaper, slower
// shortcut through line 2 that changes line twice
func detourGraph() *graph.Graph {
	return graph.Build([]models.EdgeRecord{
		{Origin: "1A", Destination: "1B", Time: 1, Distance: 100, Cost: 100},
		{Origin: "1B", Destination: "1C", Time: 1, Distance: 100, Cost: 100},
		{Origin: "1C", Destination: "1D", Time: 1, Distance: 100, Cost: 100},
		{Origin: "1A", Destination: "2X", Time: 100, Distance: 900, Cost: 10},
		{Origin: "2X", Destination: "1D", Time: 100, Distance: 900, Cost: 10},
	})
}

func TestSearchMinCost(t *testing.T) {
	path, err := SearchMinCost(triangleGraph(), "1A", "2A")
	require.NoError(t, err)

	assert.Equal(t, []models.StationID{"1A", "1B", "2A"}, path.Route)
	assert.Equal(t, models.StationID("2A"), path.Station)
	assert.Equal(t, "min_cost", path.Objective)
	assert.Equal(t, 130, path.TotalCost)
	assert.Equal(t, 300, path.TotalDistance())
	assert.Equal(t, 8, path.TotalTime())
	assert.Equal(t, 1, path.Transfers)
	assert.Equal(t, []int{100, 200}, path.Distances)
	assert.Equal(t, []int{50, 80}, path.Costs)
	assert.Equal(t, []int{3, 5}, path.Times)
}

func TestSearchMinTime(t *testing.T) {
	t.Run("Triangle", func(t *testing.T) {
		path, err := SearchMinTime(triangleGraph(), "1A", "2A")
		require.NoError(t, err)

		assert.Equal(t, []models.StationID{"1A", "1B", "2A"}, path.Route)
		assert.Equal(t, 8, path.TotalTime())
		assert.Equal(t, 130, path.TotalCost)
	})

	t.Run("Prefers fast ride over cheap shortcut", func(t *testing.T) {
		path, err := SearchMinTime(detourGraph(), "1A", "1D")
		require.NoError(t, err)

		assert.Equal(t, []models.StationID{"1A", "1B", "1C", "1D"}, path.Route)
		assert.Equal(t, 3, path.TotalTime())
		assert.Equal(t, 300, path.TotalCost)
		assert.Equal(t, 0, path.Transfers)
	})
}

func TestSearchMinTransfers(t *testing.T) {
	t.Run("Transfers dominate cost", func(t *testing.T) {
		g := detourGraph()

		byCost, err := SearchMinCost(g, "1A", "1D")
		require.NoError(t, err)
		assert.Equal(t, []models.StationID{"1A", "2X", "1D"}, byCost.Route)
		assert.Equal(t, 20, byCost.TotalCost)
		assert.Equal(t, 2, byCost.Transfers)

		byTransfers, err := SearchMinTransfers(g, "1A", "1D")
		require.NoError(t, err)
		assert.Equal(t, []models.StationID{"1A", "1B", "1C", "1D"}, byTransfers.Route)
		assert.Equal(t, 300, byTransfers.TotalCost)
		assert.Equal(t, 0, byTransfers.Transfers)
		assert.Equal(t, "min_transfers", byTransfers.Objective)
	})

	t.Run("Cost breaks transfer ties", func(t *testing.T) {
		// Both 1A->2A and 1A->1B->2A change line exactly once
		path, err := SearchMinTransfers(triangleGraph(), "1A", "2A")
		require.NoError(t, err)

		assert.Equal(t, []models.StationID{"1A", "1B", "2A"}, path.Route)
		assert.Equal(t, 1, path.Transfers)
		assert.Equal(t, 130, path.TotalCost)
	})

	t.Run("Direct hop wins when the detour costs more", func(t *testing.T) {
		g := graph.Build([]models.EdgeRecord{
			{Origin: "1A", Destination: "1B", Time: 3, Distance: 100, Cost: 150},
			{Origin: "1B", Destination: "2A", Time: 5, Distance: 200, Cost: 80},
			{Origin: "1A", Destination: "2A", Time: 10, Distance: 50, Cost: 200},
		})

		path, err := SearchMinTransfers(g, "1A", "2A")
		require.NoError(t, err)
		assert.Equal(t, []models.StationID{"1A", "2A"}, path.Route)
		assert.Equal(t, 200, path.TotalCost)
		assert.Equal(t, 50, path.TotalDistance())
	})
}

func TestSearchTrivialPath(t *testing.T) {
	for _, objective := range GetAllObjectives() {
		t.Run(objective.Name(), func(t *testing.T) {
			for _, station := range []models.StationID{"1A", "9Z"} {
				path, err := Search(triangleGraph(), station, station, objective)
				require.NoError(t, err)

				assert.Equal(t, []models.StationID{station}, path.Route)
				assert.NotNil(t, path.Distances)
				assert.Empty(t, path.Distances)
				assert.Empty(t, path.Costs)
				assert.Empty(t, path.Times)
				assert.Empty(t, path.Legs)
				assert.Equal(t, 0, path.TotalCost)
				assert.Equal(t, 0, path.TotalDistance())
				assert.Equal(t, 0, path.TotalTime())
				assert.Equal(t, 0, path.Transfers)
			}
		})
	}
}

func TestSearchNotFound(t *testing.T) {
	g := graph.Build([]models.EdgeRecord{
		{Origin: "1A", Destination: "1B", Time: 1, Distance: 1, Cost: 1},
		{Origin: "2A", Destination: "2B", Time: 1, Distance: 1, Cost: 1},
	})

	tests := []struct {
		name       string
		start, end models.StationID
	}{
		{"Disconnected components", "1A", "2B"},
		{"Unknown end", "1A", "3C"},
		{"Unknown start", "3C", "1A"},
	}

	for _, tt := range tests {
		for _, objective := range GetAllObjectives() {
			t.Run(tt.name+"/"+objective.Name(), func(t *testing.T) {
				path, err := Search(g, tt.start, tt.end, objective)
				assert.ErrorIs(t, err, ErrNoPath)
				assert.Nil(t, path)
			})
		}
	}

	t.Run("Nil graph", func(t *testing.T) {
		_, err := SearchMinCost(nil, "1A", "1B")
		assert.ErrorIs(t, err, ErrNoPath)
	})
}

func TestSearchParallelEdges(t *testing.T) {
	g := graph.Build([]models.EdgeRecord{
		{Origin: "1A", Destination: "1B", Time: 9, Distance: 10, Cost: 5},
		{Origin: "1B", Destination: "1A", Time: 2, Distance: 20, Cost: 7},
	})

	byCost, err := SearchMinCost(g, "1A", "1B")
	require.NoError(t, err)
	assert.Equal(t, []int{5}, byCost.Costs)
	assert.Equal(t, []int{9}, byCost.Times)

	byTime, err := SearchMinTime(g, "1A", "1B")
	require.NoError(t, err)
	assert.Equal(t, []int{2}, byTime.Times)
	assert.Equal(t, []int{20}, byTime.Distances)
}

func TestSearchSymmetricGraph(t *testing.T) {
	g := triangleGraph()

	forward, err := SearchMinCost(g, "1A", "2A")
	require.NoError(t, err)
	backward, err := SearchMinCost(g, "2A", "1A")
	require.NoError(t, err)

	assert.Equal(t, forward.TotalCost, backward.TotalCost)
	assert.Equal(t, []models.StationID{"2A", "1B", "1A"}, backward.Route)
}

func TestSearchSkipsStaleEntries(t *testing.T) {
	g := graph.Build([]models.EdgeRecord{
		{Origin: "1A", Destination: "1B", Time: 1, Distance: 1, Cost: 10},
		{Origin: "1A", Destination: "1C", Time: 1, Distance: 1, Cost: 1},
		{Origin: "1C", Destination: "1B", Time: 1, Distance: 1, Cost: 1},
	})

	// 1B is queued at cost 10, then improved to 2 through 1C. Searching for a
	// missing station drains the queue, so the cost 10 entry is popped stale.
	_, stats, err := searchWithStats(g, "1A", "9Z", &MinCostObjective{})
	assert.ErrorIs(t, err, ErrNoPath)
	assert.Equal(t, 3, stats.Explored)
	assert.Equal(t, 1, stats.Stale)
	assert.Equal(t, 4, stats.Pushed)
}

func TestSearchDeterministicTies(t *testing.T) {
	// Two routes of equal cost; the one discovered first is kept
	g := graph.Build([]models.EdgeRecord{
		{Origin: "1A", Destination: "1B", Time: 1, Distance: 1, Cost: 5},
		{Origin: "1A", Destination: "1C", Time: 1, Distance: 1, Cost: 5},
		{Origin: "1B", Destination: "1D", Time: 1, Distance: 1, Cost: 5},
		{Origin: "1C", Destination: "1D", Time: 1, Distance: 1, Cost: 5},
	})

	for i := 0; i < 20; i++ {
		path, err := SearchMinCost(g, "1A", "1D")
		require.NoError(t, err)
		assert.Equal(t, []models.StationID{"1A", "1B", "1D"}, path.Route)
	}
}

func TestSearchOptions(t *testing.T) {
	g := detourGraph()

	t.Run("Exploration limit", func(t *testing.T) {
		_, err := SearchMinTime(g, "1A", "1D", WithMaxExplored(2))
		assert.ErrorIs(t, err, ErrExplorationLimit)
	})

	t.Run("Limit large enough", func(t *testing.T) {
		path, err := SearchMinTime(g, "1A", "1D", WithMaxExplored(10))
		require.NoError(t, err)
		assert.Equal(t, 3, path.TotalTime())
	})

	t.Run("Zero limit is unbounded", func(t *testing.T) {
		_, err := SearchMinTime(g, "1A", "1D", WithMaxExplored(0))
		assert.NoError(t, err)
	})

	t.Run("Canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := SearchMinCost(g, "1A", "1D", WithContext(ctx))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSearchPathConsistency(t *testing.T) {
	for seed := uint64(1); seed <= 25; seed++ {
		g, records := randomGraph(seed)
		stations := g.Stations()

		for _, objective := range GetAllObjectives() {
			for _, start := range stations {
				for _, end := range stations {
					path, err := Search(g, start, end, objective)
					if err != nil {
						require.ErrorIs(t, err, ErrNoPath)
						continue
					}

					hops := len(path.Route) - 1
					require.Len(t, path.Distances, hops)
					require.Len(t, path.Costs, hops)
					require.Len(t, path.Times, hops)
					assert.Equal(t, start, path.Route[0])
					assert.Equal(t, end, path.Route[hops])
					assert.Equal(t, sumInts(path.Costs), path.TotalCost)
					assert.Equal(t, countTransfers(path.Route), path.Transfers)

					for i := 0; i < hops; i++ {
						assert.True(t, hasEdge(records, path.Route[i], path.Route[i+1], path.Times[i], path.Distances[i], path.Costs[i]),
							"seed %d: hop %s-%s not in graph", seed, path.Route[i], path.Route[i+1])
					}
				}
			}
		}
	}
}

func TestSearchOptimality(t *testing.T) {
	for seed := uint64(1); seed <= 25; seed++ {
		g, _ := randomGraph(seed)
		stations := g.Stations()

		for _, start := range stations {
			for _, end := range stations {
				best, reachable := bruteForce(g, start, end)
				name := fmt.Sprintf("seed %d %s->%s", seed, start, end)

				byCost, err := SearchMinCost(g, start, end)
				if !reachable {
					assert.ErrorIs(t, err, ErrNoPath, name)
					continue
				}
				require.NoError(t, err, name)
				assert.Equal(t, best.cost, byCost.TotalCost, name)

				byTime, err := SearchMinTime(g, start, end)
				require.NoError(t, err, name)
				assert.Equal(t, best.time, byTime.TotalTime(), name)

				byTransfers, err := SearchMinTransfers(g, start, end)
				require.NoError(t, err, name)
				assert.Equal(t, best.transfers, byTransfers.Transfers, name)
				assert.Equal(t, best.transferCost, byTransfers.TotalCost, name)
			}
		}
	}
}

// randomGraph builds a small reproducible network over three lines
func randomGraph(seed uint64) (*graph.Graph, []models.EdgeRecord) {
	rng := rand.New(rand.NewPCG(seed, 42))

	var ids []models.StationID
	for i := 0; i < 8; i++ {
		ids = append(ids, models.StationID(fmt.Sprintf("%d%c", 1+rng.IntN(3), 'A'+i)))
	}

	var records []models.EdgeRecord
	for i := 0; i < 12; i++ {
		a, b := ids[rng.IntN(len(ids))], ids[rng.IntN(len(ids))]
		if a == b {
			continue
		}
		records = append(records, models.EdgeRecord{
			Origin:      a,
			Destination: b,
			Time:        rng.IntN(20),
			Distance:    rng.IntN(500),
			Cost:        rng.IntN(20),
		})
	}

	return graph.Build(records), records
}

type optimum struct {
	cost         int
	time         int
	transfers    int
	transferCost int // cheapest cost among routes with the fewest transfers
}

// bruteForce enumerates every simple path from start to end
func bruteForce(g *graph.Graph, start, end models.StationID) (optimum, bool) {
	best := optimum{}
	found := false
	visited := map[models.StationID]bool{start: true}

	var walk func(at models.StationID, cost, time, transfers int)
	walk = func(at models.StationID, cost, time, transfers int) {
		if at == end {
			if !found {
				best = optimum{cost: cost, time: time, transfers: transfers, transferCost: cost}
				found = true
				return
			}
			best.cost = min(best.cost, cost)
			best.time = min(best.time, time)
			if transfers < best.transfers || (transfers == best.transfers && cost < best.transferCost) {
				best.transfers = transfers
				best.transferCost = cost
			}
			return
		}

		for _, e := range g.Edges(at) {
			if visited[e.To] {
				continue
			}
			t := transfers
			if graph.IsTransfer(at, e.To) {
				t++
			}
			visited[e.To] = true
			walk(e.To, cost+e.Cost, time+e.Time, t)
			visited[e.To] = false
		}
	}

	walk(start, 0, 0, 0)
	return best, found
}

func hasEdge(records []models.EdgeRecord, from, to models.StationID, time, distance, cost int) bool {
	for _, r := range records {
		if !((r.Origin == from && r.Destination == to) || (r.Origin == to && r.Destination == from)) {
			continue
		}
		if r.Time == time && r.Distance == distance && r.Cost == cost {
			return true
		}
	}
	return false
}

func countTransfers(route []models.StationID) int {
	n := 0
	for i := 1; i < len(route); i++ {
		if graph.IsTransfer(route[i-1], route[i]) {
			n++
		}
	}
	return n
}

func sumInts(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
