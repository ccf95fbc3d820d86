package routing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/passbi/trackmaster/internal/graph"
	"github.com/passbi/trackmaster/internal/metrics"
	"github.com/passbi/trackmaster/internal/models"
)

const (
	defaultMaxExplored = 50000
	defaultTimeout     = 10 * time.Second
)

// Config holds router limits
type Config struct {
	Timeout     time.Duration
	MaxExplored int
}

// LoadConfigFromEnv loads router configuration from environment variables
func LoadConfigFromEnv() *Config {
	timeout, err := time.ParseDuration(getEnv("ROUTING_TIMEOUT", defaultTimeout.String()))
	if err != nil || timeout <= 0 {
		timeout = defaultTimeout
	}

	maxExplored, err := strconv.Atoi(getEnv("ROUTING_MAX_EXPLORED", strconv.Itoa(defaultMaxExplored)))
	if err != nil {
		maxExplored = defaultMaxExplored
	}

	return &Config{
		Timeout:     timeout,
		MaxExplored: maxExplored,
	}
}

// Router handles route searches against the currently loaded graph
type Router struct {
	store  *graph.Store
	config *Config
}

// NewRouter creates a new router instance. A nil config falls back to
// LoadConfigFromEnv.
func NewRouter(store *graph.Store, config *Config) *Router {
	if config == nil {
		config = LoadConfigFromEnv()
	}
	return &Router{store: store, config: config}
}

// Graph returns the graph searches currently run against
func (r *Router) Graph() *graph.Graph {
	return r.store.Graph()
}

// Generation returns the generation of the graph searches currently run
// against. Results computed on an older generation must not be served.
func (r *Router) Generation() uint64 {
	return r.store.Generation()
}

// Loaded reports whether a graph has been loaded and when
func (r *Router) Loaded() (bool, time.Time) {
	return r.store.IsLoaded(), r.store.LoadedAt()
}

// FindPath finds a route between two stations under the given objective
func (r *Router) FindPath(ctx context.Context, from, to models.StationID, objective Objective) (*models.Path, error) {
	from = models.StationID(strings.TrimSpace(string(from)))
	to = models.StationID(strings.TrimSpace(string(to)))
	if from == "" || to == "" {
		metrics.ObserveSearch(objective.Name(), "invalid", 0, 0)
		return nil, ErrEmptyStation
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	startTime := time.Now()
	path, stats, err := searchWithStats(r.store.Graph(), from, to, objective,
		WithContext(ctx),
		WithMaxExplored(r.config.MaxExplored),
	)
	metrics.ObserveSearch(objective.Name(), resultLabel(err), time.Since(startTime), stats.Explored)

	if err != nil {
		if errors.Is(err, ErrNoPath) {
			return nil, err
		}
		return nil, fmt.Errorf("search %s from %s to %s: %w", objective.Name(), from, to, err)
	}

	return path, nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNoPath):
		return "no_path"
	case errors.Is(err, ErrExplorationLimit):
		return "limit"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
