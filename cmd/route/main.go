package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/passbi/trackmaster/internal/congestion"
	"github.com/passbi/trackmaster/internal/db"
	"github.com/passbi/trackmaster/internal/feed"
	"github.com/passbi/trackmaster/internal/graph"
	"github.com/passbi/trackmaster/internal/models"
	"github.com/passbi/trackmaster/internal/routing"
)

var titles = map[string]string{
	"min_transfers": "Fewest transfers",
	"min_cost":      "Lowest cost",
	"min_time":      "Shortest time",
}

func main() {
	filePath := flag.String("file", "", "Station CSV or ZIP archive (default: load from database)")
	from := flag.String("from", "", "Start station id (required)")
	to := flag.String("to", "", "End station id (required)")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Congestion seed")

	flag.Parse()
	_ = godotenv.Load()

	if strings.TrimSpace(*from) == "" || strings.TrimSpace(*to) == "" {
		fmt.Println("Usage: trackmaster-route --from=<station> --to=<station> [--file=stations.csv] [--seed=N]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx := context.Background()
	store := graph.NewStore()

	if *filePath != "" {
		records, err := loadFile(*filePath)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", *filePath, err)
		}
		store.Load(feed.Clean(records))
	} else {
		pool, err := db.GetDB()
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := store.LoadFromDB(ctx, pool); err != nil {
			log.Fatalf("Failed to load routing graph: %v", err)
		}
	}

	router := routing.NewRouter(store, nil)
	estimator := congestion.NewEstimator(*seed)

	if err := printRoutes(ctx, os.Stdout, router, estimator, models.StationID(*from), models.StationID(*to)); err != nil {
		log.Fatal(err)
	}
}

func loadFile(path string) ([]models.EdgeRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return feed.ParseZip(path, feed.DefaultFileName)
	}
	return feed.ParseFile(path)
}

// printRoutes searches every objective and writes one block per route.
// Nothing is printed unless all objectives find a route.
func printRoutes(ctx context.Context, w io.Writer, router *routing.Router, estimator *congestion.Estimator, from, to models.StationID) error {
	objectives := routing.GetAllObjectives()
	paths := make([]*models.Path, 0, len(objectives))

	for _, objective := range objectives {
		path, err := router.FindPath(ctx, from, to, objective)
		if errors.Is(err, routing.ErrNoPath) {
			fmt.Fprintln(w, "No route found.")
			return nil
		}
		if err != nil {
			return err
		}
		paths = append(paths, path)
	}

	for i, path := range paths {
		if i > 0 {
			fmt.Fprintln(w)
		}
		writeRoute(w, path, estimator.Estimate(path.Route))
	}
	return nil
}

func writeRoute(w io.Writer, path *models.Path, levels []congestion.LineLevel) {
	route := make([]string, len(path.Route))
	for i, id := range path.Route {
		route[i] = string(id)
	}

	fmt.Fprintf(w, "%s route:\n", titles[path.Objective])
	fmt.Fprintf(w, "Route: %s\n", strings.Join(route, " -> "))
	fmt.Fprintf(w, "Transfers: %d\n", path.Transfers)
	fmt.Fprintf(w, "Cost: %d\n", path.TotalCost)
	fmt.Fprintf(w, "Distance: %d m\n", path.TotalDistance())
	fmt.Fprintf(w, "Time: %d s\n", path.TotalTime())
	fmt.Fprintf(w, "\nCongestion:\n%s\n", congestion.Format(levels))
}
