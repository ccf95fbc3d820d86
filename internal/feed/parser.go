package feed

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/passbi/trackmaster/internal/models"
)

// DefaultFileName is the record file looked up inside a ZIP archive
const DefaultFileName = "stations.csv"

const fieldCount = 5

// columnAliases maps every accepted header name to its canonical column.
// Korean header names are accepted as well.
var columnAliases = map[string]string{
	"origin":      "origin",
	"from":        "origin",
	"출발역":         "origin",
	"destination": "destination",
	"to":          "destination",
	"도착역":         "destination",
	"time":        "time",
	"시간":          "time",
	"distance":    "distance",
	"거리":          "distance",
	"cost":        "cost",
	"비용":          "cost",
}

var positional = []string{"origin", "destination", "time", "distance", "cost"}

// ParseFile parses a station-pair CSV file
func ParseFile(filePath string) ([]models.EdgeRecord, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// ParseZip parses the named CSV file inside a ZIP archive.
// An empty name selects DefaultFileName, falling back to the first .csv entry.
func ParseZip(zipPath, name string) ([]models.EdgeRecord, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer reader.Close()

	if name == "" {
		name = DefaultFileName
	}

	var match, firstCSV *zip.File
	for _, file := range reader.File {
		// Skip directories
		if file.FileInfo().IsDir() {
			continue
		}
		base := path.Base(file.Name)
		if base == name {
			match = file
			break
		}
		if firstCSV == nil && strings.EqualFold(path.Ext(base), ".csv") {
			firstCSV = file
		}
	}
	if match == nil {
		match = firstCSV
	}
	if match == nil {
		return nil, fmt.Errorf("no %s found in %s", name, zipPath)
	}

	rc, err := match.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", match.Name, err)
	}
	defer rc.Close()

	log.Printf("Parsing %s from %s", match.Name, zipPath)
	return Parse(rc)
}

// Parse reads station-pair records from CSV. The first line is a header.
// Rows with the wrong field count, an empty station id, or a non-integer or
// negative weight are skipped.
func Parse(reader io.Reader) ([]models.EdgeRecord, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	// Read header
	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colMap := makeColumnMap(header)
	var records []models.EdgeRecord
	line := 1

	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Printf("Warning: skipping malformed row %d: %v", line, err)
			continue
		}

		if len(row) != fieldCount {
			log.Printf("Warning: skipping row %d with %d fields", line, len(row))
			continue
		}

		record, err := parseRecord(row, colMap)
		if err != nil {
			log.Printf("Warning: skipping row %d: %v", line, err)
			continue
		}

		records = append(records, record)
	}

	return records, nil
}

func parseRecord(row []string, colMap map[string]int) (models.EdgeRecord, error) {
	origin := getField(row, colMap, "origin")
	destination := getField(row, colMap, "destination")
	if origin == "" || destination == "" {
		return models.EdgeRecord{}, fmt.Errorf("missing station id")
	}

	var weights [3]int
	for i, name := range []string{"time", "distance", "cost"} {
		value, err := strconv.Atoi(getField(row, colMap, name))
		if err != nil {
			return models.EdgeRecord{}, fmt.Errorf("invalid %s: %w", name, err)
		}
		if value < 0 {
			return models.EdgeRecord{}, fmt.Errorf("negative %s: %d", name, value)
		}
		weights[i] = value
	}

	return models.EdgeRecord{
		Origin:      models.StationID(origin),
		Destination: models.StationID(destination),
		Time:        weights[0],
		Distance:    weights[1],
		Cost:        weights[2],
	}, nil
}

// Helper functions

// makeColumnMap resolves the header to column indexes. A header that does not
// name all five columns is treated as a plain caption and columns are taken
// in positional order.
func makeColumnMap(header []string) map[string]int {
	colMap := make(map[string]int)
	for i, col := range header {
		col = strings.TrimPrefix(col, "\ufeff")
		if canonical, ok := columnAliases[strings.ToLower(strings.TrimSpace(col))]; ok {
			colMap[canonical] = i
		}
	}

	if len(colMap) == fieldCount {
		return colMap
	}

	colMap = make(map[string]int, fieldCount)
	for i, name := range positional {
		colMap[name] = i
	}
	return colMap
}

func getField(record []string, colMap map[string]int, fieldName string) string {
	if idx, ok := colMap[fieldName]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
