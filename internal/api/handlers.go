package api

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/passbi/trackmaster/internal/cache"
	"github.com/passbi/trackmaster/internal/congestion"
	"github.com/passbi/trackmaster/internal/middleware"
	"github.com/passbi/trackmaster/internal/models"
	"github.com/passbi/trackmaster/internal/routing"
	"golang.org/x/sync/singleflight"
)

// lockWait bounds how long a request waits for another instance computing the
// same route before computing it itself
const lockWait = 3 * time.Second

// HealthCheck is a named dependency probe reported by /health. Details is
// optional and adds runtime stats to the entry.
type HealthCheck struct {
	Name    string
	Check   func(ctx context.Context) error
	Details func() map[string]interface{}
}

// Options holds the dependencies of a Handler. Cache, Analytics and Checks are
// optional.
type Options struct {
	Router    *routing.Router
	Cache     *cache.RouteCache
	Analytics middleware.Querier
	Checks    []HealthCheck
}

// Handler serves the HTTP API
type Handler struct {
	router    *routing.Router
	cache     *cache.RouteCache
	analytics middleware.Querier
	checks    []HealthCheck
	inflight  singleflight.Group
}

// NewHandler creates a handler from its dependencies
func NewHandler(opts Options) *Handler {
	return &Handler{
		router:    opts.Router,
		cache:     opts.Cache,
		analytics: opts.Analytics,
		checks:    opts.Checks,
	}
}

// RouteSearchResponse is the API response structure
type RouteSearchResponse struct {
	From   models.StationID        `json:"from"`
	To     models.StationID        `json:"to"`
	Seed   uint64                  `json:"seed"`
	Routes map[string]*RouteResult `json:"routes"`
}

// RouteResult represents a single route option
type RouteResult struct {
	Route         []models.StationID     `json:"route"`
	Transfers     int                    `json:"transfers"`
	TotalCost     int                    `json:"total_cost"`
	TotalDistance int                    `json:"total_distance_meters"`
	TotalTime     int                    `json:"total_time_seconds"`
	Distances     []int                  `json:"distances"`
	Costs         []int                  `json:"costs"`
	Times         []int                  `json:"times"`
	Legs          []models.Leg           `json:"legs"`
	Congestion    []congestion.LineLevel `json:"congestion"`
}

type routeOutcome struct {
	objective string
	path      *models.Path
	cacheHit  bool
	err       error
}

// RouteSearch handles the /v2/route-search endpoint
func (h *Handler) RouteSearch(c *fiber.Ctx) error {
	return h.search(c, routing.GetAllObjectives())
}

// RouteSearchObjective handles the /v2/route-search/:objective endpoint
func (h *Handler) RouteSearchObjective(c *fiber.Ctx) error {
	objective, ok := routing.LookupObjective(c.Params("objective"))
	if !ok {
		return c.Status(400).JSON(fiber.Map{
			"error": "unknown objective: expected min_transfers, min_cost or min_time",
		})
	}
	c.Locals(middleware.LocalObjective, objective.Name())

	return h.search(c, []routing.Objective{objective})
}

func (h *Handler) search(c *fiber.Ctx, objectives []routing.Objective) error {
	// Copied because paths outlive the request in the route cache
	from := models.StationID(utils.CopyString(strings.TrimSpace(c.Query("from"))))
	to := models.StationID(utils.CopyString(strings.TrimSpace(c.Query("to"))))

	if from == "" || to == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "missing required parameters: from and to",
		})
	}

	seed, err := parseSeed(c.Query("seed"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "invalid 'seed': expected an unsigned integer",
		})
	}

	// Compute every objective in parallel on the in-memory graph
	ctx := c.UserContext()
	outcomes := make([]routeOutcome, len(objectives))
	var wg sync.WaitGroup

	for i, objective := range objectives {
		wg.Add(1)
		go func(i int, obj routing.Objective) {
			defer wg.Done()
			path, hit, err := h.computeRoute(ctx, from, to, obj)
			outcomes[i] = routeOutcome{
				objective: obj.Name(),
				path:      path,
				cacheHit:  hit,
				err:       err,
			}
		}(i, objective)
	}
	wg.Wait()

	// Congestion draws happen in objective order so a seed always
	// reproduces the same response
	estimator := congestion.NewEstimator(seed)
	routes := make(map[string]*RouteResult)
	allHits := true
	onlyNoPath := true

	for _, outcome := range outcomes {
		if outcome.err != nil {
			if !errors.Is(outcome.err, routing.ErrNoPath) {
				onlyNoPath = false
				log.Printf("Route computation failed for objective %s: %v", outcome.objective, outcome.err)
			}
			allHits = false
			continue
		}

		allHits = allHits && outcome.cacheHit
		routes[outcome.objective] = newRouteResult(outcome.path, estimator)
	}

	c.Locals(middleware.LocalCacheHit, allHits && len(routes) > 0)

	if len(routes) == 0 {
		if onlyNoPath {
			return c.Status(404).JSON(fiber.Map{
				"error": "no route found between the specified stations",
			})
		}
		return c.Status(503).JSON(fiber.Map{
			"error": "route computation failed",
		})
	}

	return c.JSON(RouteSearchResponse{
		From:   from,
		To:     to,
		Seed:   seed,
		Routes: routes,
	})
}

func newRouteResult(path *models.Path, estimator *congestion.Estimator) *RouteResult {
	return &RouteResult{
		Route:         path.Route,
		Transfers:     path.Transfers,
		TotalCost:     path.TotalCost,
		TotalDistance: path.TotalDistance(),
		TotalTime:     path.TotalTime(),
		Distances:     path.Distances,
		Costs:         path.Costs,
		Times:         path.Times,
		Legs:          path.Legs,
		Congestion:    estimator.Estimate(path.Route),
	}
}

// computeRoute computes a route with caching. Identical concurrent requests
// in this process share one computation, which runs detached from the
// cancellation of whichever request started it.
func (h *Handler) computeRoute(ctx context.Context, from, to models.StationID, objective routing.Objective) (*models.Path, bool, error) {
	cacheKey := cache.RouteKey(string(from), string(to), objective.Name(), h.router.Generation())
	ctx = context.WithoutCancel(ctx)

	type result struct {
		path *models.Path
		hit  bool
	}

	v, err, _ := h.inflight.Do(cacheKey, func() (interface{}, error) {
		if h.cache == nil {
			path, err := h.router.FindPath(ctx, from, to, objective)
			return result{path: path}, err
		}

		cachedPath, err := h.cache.Get(ctx, cacheKey)
		if err == nil && cachedPath != nil {
			return result{path: cachedPath, hit: true}, nil
		}

		acquired, err := h.cache.AcquireLock(ctx, cacheKey)
		if err != nil {
			log.Printf("Failed to acquire lock: %v", err)
			// Continue without lock (degrade gracefully)
		} else if !acquired {
			// Another instance is computing this route, wait for it
			cachedPath, err := h.cache.WaitForLock(ctx, cacheKey, lockWait)
			if err == nil && cachedPath != nil {
				return result{path: cachedPath, hit: true}, nil
			}
		}

		defer func() {
			if acquired {
				if err := h.cache.ReleaseLock(context.Background(), cacheKey); err != nil {
					log.Printf("Failed to release lock: %v", err)
				}
			}
		}()

		path, err := h.router.FindPath(ctx, from, to, objective)
		if err != nil {
			return result{}, err
		}

		if err := h.cache.Set(ctx, cacheKey, path); err != nil {
			log.Printf("Failed to cache route: %v", err)
		}

		return result{path: path}, nil
	})
	if err != nil {
		return nil, false, err
	}

	r := v.(result)
	return r.path, r.hit, nil
}

// Health handles the /health endpoint
func (h *Handler) Health(c *fiber.Ctx) error {
	ctx := c.UserContext()

	healthy := true
	checks := fiber.Map{}
	for _, check := range h.checks {
		status := "ok"
		if err := check.Check(ctx); err != nil {
			status = err.Error()
			healthy = false
		}
		if check.Details == nil {
			checks[check.Name] = status
			continue
		}
		checks[check.Name] = fiber.Map{
			"status": status,
			"stats":  check.Details(),
		}
	}

	g := h.router.Graph()
	loaded, loadedAt := h.router.Loaded()
	graphStatus := fiber.Map{
		"stations":   g.StationCount(),
		"edges":      g.EdgeCount(),
		"generation": h.router.Generation(),
	}
	switch {
	case !loaded:
		graphStatus["status"] = "not_loaded"
		healthy = false
	case g.StationCount() == 0:
		graphStatus["status"] = "empty"
		graphStatus["loaded_at"] = loadedAt
		healthy = false
	default:
		graphStatus["status"] = "ok"
		graphStatus["loaded_at"] = loadedAt
	}
	checks["graph"] = graphStatus

	status := "healthy"
	httpStatus := 200
	if !healthy {
		status = "unhealthy"
		httpStatus = 503
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checks": checks,
	})
}

// SearchStats handles the /v2/stats/searches endpoint
func (h *Handler) SearchStats(c *fiber.Ctx) error {
	if h.analytics == nil {
		return c.Status(503).JSON(fiber.Map{
			"error": "analytics disabled",
		})
	}

	days := 7
	if daysStr := c.Query("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed < 1 || parsed > 90 {
			return c.Status(400).JSON(fiber.Map{
				"error": "invalid days (must be between 1 and 90)",
			})
		}
		days = parsed
	}

	stats, err := middleware.GetSearchAnalytics(c.UserContext(), h.analytics, days)
	if err != nil {
		log.Printf("Query error: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.JSON(stats)
}

// parseSeed parses the optional congestion seed. Without one the seed is
// derived from the clock.
func parseSeed(s string) (uint64, error) {
	if s == "" {
		return uint64(time.Now().UnixNano()), nil
	}
	return strconv.ParseUint(strings.TrimSpace(s), 10, 64)
}
