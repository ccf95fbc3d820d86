package congestion

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/passbi/trackmaster/internal/models"
)

const (
	minLevel = 1
	maxLevel = 100
)

// LineLevel is the average simulated congestion of one line along a route
type LineLevel struct {
	Line    string `json:"line"`
	Average int    `json:"average_percent"`
	Samples int    `json:"samples"`
}

// Estimator draws simulated per-station congestion levels.
// It owns its generator, so two estimators with the same seed produce the
// same sequence. An Estimator is safe for concurrent use.
type Estimator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEstimator creates an estimator seeded with seed
func NewEstimator(seed uint64) *Estimator {
	return &Estimator{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Estimate draws one level in [1,100] for every station on the route and
// returns the integer average per line, in order of first appearance
func (e *Estimator) Estimate(route []models.StationID) []LineLevel {
	e.mu.Lock()
	defer e.mu.Unlock()

	levels := []LineLevel{}
	sums := make(map[string]int)
	index := make(map[string]int)

	for _, station := range route {
		line := station.Line()
		level := minLevel + e.rng.IntN(maxLevel-minLevel+1)

		if _, ok := index[line]; !ok {
			index[line] = len(levels)
			levels = append(levels, LineLevel{Line: line})
		}
		sums[line] += level
		levels[index[line]].Samples++
	}

	for i := range levels {
		levels[i].Average = sums[levels[i].Line] / levels[i].Samples
	}

	return levels
}

// Format renders levels one line per entry, e.g. "Line 2 average congestion: 57%"
func Format(levels []LineLevel) string {
	var b strings.Builder
	for i, l := range levels {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "Line %s average congestion: %d%%", l.Line, l.Average)
	}
	return b.String()
}
