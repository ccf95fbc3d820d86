package middleware

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Locals keys set by route handlers and read by the analytics middleware
const (
	LocalObjective = "objective"
	LocalCacheHit  = "cache_hit"
)

// Execer is the subset of pgxpool.Pool used to write search logs
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Querier is the subset of pgxpool.Pool used to read search logs
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// SearchLog holds information about one route search request
type SearchLog struct {
	FromStation    string
	ToStation      string
	Objective      string
	ResponseTimeMs int
	ResponseStatus int
	CacheHit       bool
	IPAddress      string
	Timestamp      time.Time
}

// AnalyticsMiddleware logs route search requests to the search_log table
func AnalyticsMiddleware(db Execer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		responseTime := time.Since(start)

		cacheHit := false
		if val, ok := c.Locals(LocalCacheHit).(bool); ok {
			cacheHit = val
		}

		c.Set("X-Response-Time", responseTime.String())
		c.Set("X-Cache-Hit", boolToString(cacheHit))

		if !strings.HasPrefix(c.Path(), "/v2/route-search") {
			return err
		}

		objective, _ := c.Locals(LocalObjective).(string)
		if objective == "" {
			objective = "all"
		}

		// Ctx values are only valid until the handler returns
		searchLog := &SearchLog{
			FromStation:    utils.CopyString(strings.TrimSpace(c.Query("from"))),
			ToStation:      utils.CopyString(strings.TrimSpace(c.Query("to"))),
			Objective:      utils.CopyString(objective),
			ResponseTimeMs: int(responseTime.Milliseconds()),
			ResponseStatus: c.Response().StatusCode(),
			CacheHit:       cacheHit,
			IPAddress:      utils.CopyString(c.IP()),
			Timestamp:      time.Now(),
		}

		// Log asynchronously (non-blocking)
		go logSearch(db, searchLog)

		return err
	}
}

// logSearch writes a search log entry to the database
func logSearch(db Execer, entry *SearchLog) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO search_log (
			from_station,
			to_station,
			objective,
			status_code,
			response_time_ms,
			cache_hit,
			client_ip,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := db.Exec(ctx, query,
		entry.FromStation,
		entry.ToStation,
		entry.Objective,
		entry.ResponseStatus,
		entry.ResponseTimeMs,
		entry.CacheHit,
		entry.IPAddress,
		entry.Timestamp,
	)
	if err != nil {
		log.Println("Failed to log search:", err)
	}
}

// boolToString converts bool to string for headers
func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// GetSearchAnalytics aggregates search_log over the last days
func GetSearchAnalytics(ctx context.Context, db Querier, days int) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	since := time.Now().AddDate(0, 0, -days)

	query := `
		SELECT
			DATE(created_at) as date,
			COUNT(*) as total_requests,
			COUNT(*) FILTER (WHERE status_code >= 200 AND status_code < 300) as successful,
			COUNT(*) FILTER (WHERE status_code >= 400) as failed,
			AVG(response_time_ms)::float8 as avg_response_time,
			MAX(response_time_ms) as max_response_time,
			MIN(response_time_ms) as min_response_time,
			COUNT(*) FILTER (WHERE cache_hit = true) as cache_hits,
			COUNT(DISTINCT client_ip) as unique_ips
		FROM search_log
		WHERE created_at >= $1
		GROUP BY DATE(created_at)
		ORDER BY date DESC
	`

	rows, err := db.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []map[string]interface{}{}
	for rows.Next() {
		var (
			date        time.Time
			total       int64
			successful  int64
			failed      int64
			avgResponse float64
			maxResponse int
			minResponse int
			cacheHits   int64
			uniqueIPs   int64
		)

		err := rows.Scan(&date, &total, &successful, &failed, &avgResponse, &maxResponse, &minResponse, &cacheHits, &uniqueIPs)
		if err != nil {
			continue
		}

		stats = append(stats, map[string]interface{}{
			"date":            date.Format("2006-01-02"),
			"total_requests":  total,
			"successful":      successful,
			"failed":          failed,
			"avg_response_ms": avgResponse,
			"max_response_ms": maxResponse,
			"min_response_ms": minResponse,
			"cache_hits":      cacheHits,
			"cache_hit_rate":  float64(cacheHits) / float64(total) * 100,
			"unique_ips":      uniqueIPs,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	popular, err := topRoutes(ctx, db, since, 10)
	if err != nil {
		log.Println("Failed to load popular routes:", err)
		popular = []map[string]interface{}{}
	}

	return map[string]interface{}{
		"days":           days,
		"stats":          stats,
		"summary":        calculateSummary(stats),
		"popular_routes": popular,
	}, nil
}

// topRoutes returns the most searched station pairs
func topRoutes(ctx context.Context, db Querier, since time.Time, limit int) ([]map[string]interface{}, error) {
	rows, err := db.Query(ctx, `
		SELECT from_station, to_station, COUNT(*) AS searches
		FROM search_log
		WHERE created_at >= $1
		GROUP BY from_station, to_station
		ORDER BY searches DESC, from_station, to_station
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routes := []map[string]interface{}{}
	for rows.Next() {
		var from, to string
		var searches int64
		if err := rows.Scan(&from, &to, &searches); err != nil {
			continue
		}
		routes = append(routes, map[string]interface{}{
			"from":     from,
			"to":       to,
			"searches": searches,
		})
	}

	return routes, rows.Err()
}

// calculateSummary calculates aggregate statistics
func calculateSummary(stats []map[string]interface{}) map[string]interface{} {
	if len(stats) == 0 {
		return map[string]interface{}{}
	}

	var totalRequests, totalSuccessful, totalFailed int64
	var totalCacheHits int64
	var sumAvgResponse float64

	for _, stat := range stats {
		totalRequests += stat["total_requests"].(int64)
		totalSuccessful += stat["successful"].(int64)
		totalFailed += stat["failed"].(int64)
		totalCacheHits += stat["cache_hits"].(int64)
		sumAvgResponse += stat["avg_response_ms"].(float64)
	}

	return map[string]interface{}{
		"total_requests":     totalRequests,
		"total_successful":   totalSuccessful,
		"total_failed":       totalFailed,
		"success_rate":       float64(totalSuccessful) / float64(totalRequests) * 100,
		"total_cache_hits":   totalCacheHits,
		"overall_cache_rate": float64(totalCacheHits) / float64(totalRequests) * 100,
		"avg_response_ms":    sumAvgResponse / float64(len(stats)),
		"days_analyzed":      len(stats),
	}
}
