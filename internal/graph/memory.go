package graph

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/passbi/trackmaster/internal/feed"
	"github.com/passbi/trackmaster/internal/metrics"
	"github.com/passbi/trackmaster/internal/models"
)

// Querier is the subset of pgxpool.Pool used to read edge records
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store holds the routing graph currently served. Reloading builds a new
// immutable Graph and swaps it in; searches already running keep the old one.
type Store struct {
	mu         sync.RWMutex
	graph      *Graph
	generation uint64
	loaded     bool
	loadedAt   time.Time
}

var (
	globalStore     *Store
	globalStoreOnce sync.Once
)

// GetStore returns the singleton graph store
func GetStore() *Store {
	globalStoreOnce.Do(func() {
		globalStore = NewStore()
	})
	return globalStore
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{graph: Build(nil)}
}

// Load builds a graph from records and makes it current
func (s *Store) Load(records []models.EdgeRecord) *Graph {
	startTime := time.Now()
	g := Build(records)

	s.mu.Lock()
	s.graph = g
	s.generation++
	s.loaded = true
	s.loadedAt = time.Now()
	s.mu.Unlock()

	metrics.SetGraphSize(g.StationCount(), g.EdgeCount())
	log.Printf("Graph loaded in %v (%d stations, %d edges)", time.Since(startTime), g.StationCount(), g.EdgeCount())
	return g
}

// LoadFromDB loads every station_edge row from PostgreSQL and makes the
// resulting graph current
func (s *Store) LoadFromDB(ctx context.Context, db Querier) error {
	log.Println("Loading graph into memory...")

	rows, err := db.Query(ctx, `
		SELECT origin, destination, time_s, distance_m, cost
		FROM station_edge
		ORDER BY id
	`)
	if err != nil {
		return fmt.Errorf("failed to load station edges: %w", err)
	}
	defer rows.Close()

	var records []models.EdgeRecord
	for rows.Next() {
		var r models.EdgeRecord
		if err := rows.Scan(&r.Origin, &r.Destination, &r.Time, &r.Distance, &r.Cost); err != nil {
			log.Printf("Warning: failed to scan station edge: %v", err)
			continue
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read station edges: %w", err)
	}

	log.Printf("  Loaded %d records", len(records))

	s.Load(feed.Clean(records))
	return nil
}

// Graph returns the current graph
func (s *Store) Graph() *Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph
}

// Generation returns the generation of the current graph. It is 0 for an
// empty store and grows by one on every Load.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// IsLoaded returns true if a graph has been loaded
func (s *Store) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// LoadedAt returns when the current graph was swapped in
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
