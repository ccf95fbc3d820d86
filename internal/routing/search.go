package routing

import (
	"container/heap"
	"context"
	"errors"

	"github.com/passbi/trackmaster/internal/graph"
	"github.com/passbi/trackmaster/internal/models"
)

// Sentinel errors returned by the search engine
var (
	// ErrNoPath indicates that the end station cannot be reached from the
	// start station. Unknown stations are reported the same way.
	ErrNoPath = errors.New("routing: no path found")

	// ErrExplorationLimit indicates that the search popped more queue entries
	// than WithMaxExplored allows.
	ErrExplorationLimit = errors.New("routing: exploration limit exceeded")

	// ErrEmptyStation indicates a blank station id in a route request.
	ErrEmptyStation = errors.New("routing: station id is empty")
)

type options struct {
	ctx         context.Context
	maxExplored int
}

// Option configures a single search
type Option func(*options)

// WithMaxExplored caps the number of stations settled before the search gives
// up with ErrExplorationLimit. Zero or a negative value means no cap.
func WithMaxExplored(n int) Option {
	return func(o *options) {
		o.maxExplored = n
	}
}

// WithContext makes the search stop with the context's error once ctx is done
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

// SearchStats reports the work done by one search
type SearchStats struct {
	Explored int // entries popped and processed
	Stale    int // entries popped and skipped because a better label exists
	Pushed   int // entries pushed
}

// SearchMinTransfers finds the route with the fewest line changes, breaking
// ties on total cost
func SearchMinTransfers(g *graph.Graph, start, end models.StationID, opts ...Option) (*models.Path, error) {
	return Search(g, start, end, &MinTransfersObjective{}, opts...)
}

// SearchMinCost finds the cheapest route
func SearchMinCost(g *graph.Graph, start, end models.StationID, opts ...Option) (*models.Path, error) {
	return Search(g, start, end, &MinCostObjective{}, opts...)
}

// SearchMinTime finds the fastest route
func SearchMinTime(g *graph.Graph, start, end models.StationID, opts ...Option) (*models.Path, error) {
	return Search(g, start, end, &MinTimeObjective{}, opts...)
}

// Search runs a priority-first search from start to end under the given
// objective. It returns ErrNoPath when end is unreachable.
func Search(g *graph.Graph, start, end models.StationID, objective Objective, opts ...Option) (*models.Path, error) {
	path, _, err := searchWithStats(g, start, end, objective, opts...)
	return path, err
}

// hopSeq holds the per-hop metrics of the best path found to a station
type hopSeq struct {
	distances []int
	costs     []int
	times     []int
}

// extend returns a copy of the sequences with one more hop appended. The
// receiver is shared with other stations' paths and must stay unchanged.
func (h hopSeq) extend(e models.Edge) hopSeq {
	return hopSeq{
		distances: append(append(make([]int, 0, len(h.distances)+1), h.distances...), e.Distance),
		costs:     append(append(make([]int, 0, len(h.costs)+1), h.costs...), e.Cost),
		times:     append(append(make([]int, 0, len(h.times)+1), h.times...), e.Time),
	}
}

// searchState is the per-call mutable state of a search. A station missing
// from labels has an infinite label.
type searchState struct {
	labels map[models.StationID]Label
	prev   map[models.StationID]models.StationID
	hops   map[models.StationID]hopSeq
}

func newSearchState(start models.StationID) *searchState {
	s := &searchState{
		labels: make(map[models.StationID]Label),
		prev:   make(map[models.StationID]models.StationID),
		hops:   make(map[models.StationID]hopSeq),
	}
	s.labels[start] = Label{}
	s.hops[start] = hopSeq{distances: []int{}, costs: []int{}, times: []int{}}
	return s
}

func searchWithStats(g *graph.Graph, start, end models.StationID, objective Objective, opts ...Option) (*models.Path, SearchStats, error) {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var stats SearchStats
	state := newSearchState(start)

	pq := &searchQueue{less: objective.Less}
	heap.Init(pq)
	heap.Push(pq, &queueItem{station: start, label: Label{}, seq: stats.Pushed})
	stats.Pushed++

	for pq.Len() > 0 {
		if cfg.ctx != nil {
			select {
			case <-cfg.ctx.Done():
				return nil, stats, cfg.ctx.Err()
			default:
			}
		}

		item := heap.Pop(pq).(*queueItem)
		current := state.labels[item.station]

		// A better label was found after this entry was queued
		if item.label != current {
			stats.Stale++
			continue
		}

		stats.Explored++
		if cfg.maxExplored > 0 && stats.Explored > cfg.maxExplored {
			return nil, stats, ErrExplorationLimit
		}

		if item.station == end {
			return assemblePath(objective, end, state), stats, nil
		}

		for _, edge := range g.Edges(item.station) {
			candidate := Label{
				Transfers: current.Transfers,
				Value:     current.Value + objective.EdgeValue(edge),
			}
			if graph.IsTransfer(item.station, edge.To) {
				candidate.Transfers++
			}

			if known, ok := state.labels[edge.To]; ok && !objective.Improves(candidate, known) {
				continue
			}

			state.labels[edge.To] = candidate
			state.prev[edge.To] = item.station
			state.hops[edge.To] = state.hops[item.station].extend(edge)

			heap.Push(pq, &queueItem{station: edge.To, label: candidate, seq: stats.Pushed})
			stats.Pushed++
		}
	}

	return nil, stats, ErrNoPath
}

// queueItem is a queued station with the label it had when pushed
type queueItem struct {
	station models.StationID
	label   Label
	seq     int
}

// searchQueue is a min-heap ordered by the objective, then by push order
type searchQueue struct {
	items []*queueItem
	less  func(a, b Label) bool
}

func (pq searchQueue) Len() int { return len(pq.items) }

func (pq searchQueue) Less(i, j int) bool {
	a, b := pq.items[i], pq.items[j]
	if pq.less(a.label, b.label) {
		return true
	}
	if pq.less(b.label, a.label) {
		return false
	}
	return a.seq < b.seq
}

func (pq searchQueue) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
}

func (pq *searchQueue) Push(x interface{}) {
	pq.items = append(pq.items, x.(*queueItem))
}

func (pq *searchQueue) Pop() interface{} {
	old := pq.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	pq.items = old[0 : n-1]
	return item
}
