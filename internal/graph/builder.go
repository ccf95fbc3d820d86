package graph

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/passbi/trackmaster/internal/models"
)

const batchSize = 1000 // batch insert size

// Builder persists station-pair records so the API can rebuild its graph
// from PostgreSQL on startup
type Builder struct {
	db *pgxpool.Pool
}

// NewBuilder creates a new graph builder
func NewBuilder(db *pgxpool.Pool) *Builder {
	return &Builder{db: db}
}

// ImportRecords writes records to station_edge inside one transaction.
// With replace set the existing records are removed first, so the stored
// network is exactly the imported one.
func (b *Builder) ImportRecords(ctx context.Context, records []models.EdgeRecord, replace bool) (int, error) {
	tx, err := b.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if replace {
		if err := clearGraph(ctx, tx); err != nil {
			return 0, fmt.Errorf("failed to clear graph: %w", err)
		}
	}

	batch := &pgx.Batch{}
	count := 0

	for _, r := range records {
		batch.Queue(`
			INSERT INTO station_edge (origin, destination, time_s, distance_m, cost)
			VALUES ($1, $2, $3, $4, $5)
		`, string(r.Origin), string(r.Destination), r.Time, r.Distance, r.Cost)

		count++

		if batch.Len() >= batchSize {
			if err := executeBatch(ctx, tx, batch); err != nil {
				return 0, err
			}
			batch = &pgx.Batch{}
		}
	}

	// Execute remaining batch
	if batch.Len() > 0 {
		if err := executeBatch(ctx, tx, batch); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if err := b.analyzeGraph(ctx); err != nil {
		log.Printf("Warning: failed to analyze tables: %v", err)
	}

	log.Printf("Imported %d station edge records", count)
	return count, nil
}

// CountRecords returns the number of stored records and distinct stations
func (b *Builder) CountRecords(ctx context.Context) (records, stations int, err error) {
	err = b.db.QueryRow(ctx, "SELECT COUNT(*) FROM station_edge").Scan(&records)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count station edges: %w", err)
	}

	err = b.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM (
			SELECT origin FROM station_edge
			UNION
			SELECT destination FROM station_edge
		) s
	`).Scan(&stations)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count stations: %w", err)
	}

	return records, stations, nil
}

// clearGraph removes all stored records
func clearGraph(ctx context.Context, tx pgx.Tx) error {
	log.Println("Clearing existing graph...")

	if _, err := tx.Exec(ctx, "TRUNCATE TABLE station_edge"); err != nil {
		return err
	}

	log.Println("Graph cleared")
	return nil
}

// executeBatch executes a batch of queries
func executeBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch execution failed at query %d: %w", i, err)
		}
	}

	return nil
}

// analyzeGraph runs ANALYZE on graph tables for query optimization
func (b *Builder) analyzeGraph(ctx context.Context) error {
	if _, err := b.db.Exec(ctx, "ANALYZE station_edge"); err != nil {
		return err
	}
	log.Printf("Analyzed table: station_edge")
	return nil
}
