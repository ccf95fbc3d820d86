package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/passbi/trackmaster/internal/db"
	"github.com/passbi/trackmaster/internal/feed"
	"github.com/passbi/trackmaster/internal/graph"
	"github.com/passbi/trackmaster/internal/models"
)

func main() {
	// Command-line flags
	filePath := flag.String("file", "", "Path to station CSV or ZIP archive (required)")
	entry := flag.String("entry", feed.DefaultFileName, "CSV file name inside a ZIP archive")
	replace := flag.Bool("replace", true, "Replace stored records instead of appending")
	dryRun := flag.Bool("dry-run", false, "Parse and summarize without writing to the database")

	flag.Parse()

	if *filePath == "" {
		fmt.Println("Usage: trackmaster-import --file=<stations.csv|feed.zip> [--entry=stations.csv] [--replace=true] [--dry-run]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if _, err := os.Stat(*filePath); os.IsNotExist(err) {
		log.Fatalf("Input file not found: %s", *filePath)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	log.Println("Starting station import...")
	log.Printf("Input file: %s", *filePath)

	if err := runImport(context.Background(), *filePath, *entry, *replace, *dryRun); err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Println("Import completed successfully!")
}

func runImport(ctx context.Context, filePath, entry string, replace, dryRun bool) error {
	startTime := time.Now()

	log.Println("Step 1/3: Parsing records...")
	records, err := parseInput(filePath, entry)
	if err != nil {
		return fmt.Errorf("failed to parse input: %w", err)
	}

	log.Println("Step 2/3: Validating records...")
	records = feed.Clean(records)
	summary := feed.Summarize(records)
	log.Printf("  %d records, %d stations, lines %s", summary.Records, summary.Stations, strings.Join(summary.Lines, ","))

	if summary.Records == 0 {
		return fmt.Errorf("no valid records in %s", filePath)
	}

	// Build once to report the network shape before it is stored
	g := graph.Build(records)
	log.Printf("  Graph: %d stations, %d directed edges", g.StationCount(), g.EdgeCount())

	if dryRun {
		log.Println("Step 3/3: Skipping database write (--dry-run)")
		return nil
	}

	log.Println("Step 3/3: Writing records to database...")
	pool, err := db.GetDB()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	builder := graph.NewBuilder(pool)
	if _, err := builder.ImportRecords(ctx, records, replace); err != nil {
		return fmt.Errorf("failed to import records: %w", err)
	}

	stored, stations, err := builder.CountRecords(ctx)
	if err != nil {
		log.Printf("Warning: %v", err)
	} else {
		log.Printf("  Stored: %d records, %d stations", stored, stations)
	}

	log.Printf("Import completed in %s", time.Since(startTime))
	return nil
}

func parseInput(filePath, entry string) ([]models.EdgeRecord, error) {
	if strings.EqualFold(filepath.Ext(filePath), ".zip") {
		return feed.ParseZip(filePath, entry)
	}
	return feed.ParseFile(filePath)
}
