package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the subset of pgxpool.Pool and pgx.Tx used to apply the schema
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// schemaStatements creates the tables used by the importer, the graph loader
// and the analytics middleware. Every statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS station_edge (
		id          BIGSERIAL PRIMARY KEY,
		origin      TEXT NOT NULL,
		destination TEXT NOT NULL,
		time_s      INTEGER NOT NULL CHECK (time_s >= 0),
		distance_m  INTEGER NOT NULL CHECK (distance_m >= 0),
		cost        INTEGER NOT NULL CHECK (cost >= 0),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_station_edge_origin ON station_edge (origin)`,
	`CREATE INDEX IF NOT EXISTS idx_station_edge_destination ON station_edge (destination)`,
	`CREATE TABLE IF NOT EXISTS search_log (
		id               BIGSERIAL PRIMARY KEY,
		from_station     TEXT NOT NULL,
		to_station       TEXT NOT NULL,
		objective        TEXT NOT NULL,
		status_code      INTEGER NOT NULL,
		response_time_ms INTEGER NOT NULL,
		cache_hit        BOOLEAN NOT NULL DEFAULT false,
		client_ip        TEXT,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_search_log_created_at ON search_log (created_at)`,
}

// EnsureSchema creates missing tables and indexes
func EnsureSchema(ctx context.Context, db Execer) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
