package feed

import (
	"log"
	"sort"

	"github.com/passbi/trackmaster/internal/models"
)

// Summary describes a parsed record set
type Summary struct {
	Records  int
	Stations int
	Lines    []string
}

// Clean removes records that can never be part of a route: self loops and
// records with an empty station id or a negative weight. Records from the
// CSV parser already satisfy the last two; database rows may not.
func Clean(records []models.EdgeRecord) []models.EdgeRecord {
	cleaned := make([]models.EdgeRecord, 0, len(records))

	for _, r := range records {
		if r.Origin == "" || r.Destination == "" {
			log.Printf("Warning: record with empty station id, skipping")
			continue
		}
		if r.Origin == r.Destination {
			log.Printf("Warning: self loop at station %s, skipping", r.Origin)
			continue
		}
		if r.Time < 0 || r.Distance < 0 || r.Cost < 0 {
			log.Printf("Warning: negative weight on %s-%s, skipping", r.Origin, r.Destination)
			continue
		}

		cleaned = append(cleaned, r)
	}

	if len(cleaned) < len(records) {
		log.Printf("Cleaned records: removed %d invalid records", len(records)-len(cleaned))
	}

	return cleaned
}

// Summarize counts records, distinct stations, and the lines they belong to
func Summarize(records []models.EdgeRecord) Summary {
	stations := make(map[models.StationID]bool)
	lines := make(map[string]bool)

	for _, r := range records {
		for _, id := range []models.StationID{r.Origin, r.Destination} {
			if stations[id] {
				continue
			}
			stations[id] = true
			if line := id.Line(); line != "" {
				lines[line] = true
			}
		}
	}

	summary := Summary{
		Records:  len(records),
		Stations: len(stations),
		Lines:    make([]string, 0, len(lines)),
	}
	for line := range lines {
		summary.Lines = append(summary.Lines, line)
	}
	sort.Strings(summary.Lines)

	return summary
}
