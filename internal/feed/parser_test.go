package feed

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/passbi/trackmaster/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("English header", func(t *testing.T) {
		input := "origin,destination,time,distance,cost\n" +
			"1A,1B,3,100,50\n" +
			"1B,2A,5,200,80\n"

		records, err := Parse(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, []models.EdgeRecord{
			{Origin: "1A", Destination: "1B", Time: 3, Distance: 100, Cost: 50},
			{Origin: "1B", Destination: "2A", Time: 5, Distance: 200, Cost: 80},
		}, records)
	})

	t.Run("Korean header", func(t *testing.T) {
		input := "출발역,도착역,시간,거리,비용\n101,102,200,1000,500\n"

		records, err := Parse(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, models.StationID("101"), records[0].Origin)
		assert.Equal(t, 500, records[0].Cost)
	})

	t.Run("Reordered header", func(t *testing.T) {
		input := "Cost, Time, Origin, Destination, Distance\n70,4,1A,1B,300\n"

		records, err := Parse(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, models.EdgeRecord{Origin: "1A", Destination: "1B", Time: 4, Distance: 300, Cost: 70}, records[0])
	})

	t.Run("Unknown header is positional", func(t *testing.T) {
		input := "a,b,c,d,e\n1A,1B,3,100,50\n"

		records, err := Parse(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, models.EdgeRecord{Origin: "1A", Destination: "1B", Time: 3, Distance: 100, Cost: 50}, records[0])
	})

	t.Run("Byte order mark", func(t *testing.T) {
		input := "\ufefforigin,destination,time,distance,cost\n1A,1B,3,100,50\n"

		records, err := Parse(strings.NewReader(input))
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("Malformed rows are skipped", func(t *testing.T) {
		input := "origin,destination,time,distance,cost\n" +
			"1A,1B,3,100\n" + // too few fields
			"1A,1B,3,100,50,9\n" + // too many fields
			"1A,1B,three,100,50\n" + // non-integer
			"1A,1B,3,-100,50\n" + // negative
			",1B,3,100,50\n" + // empty station
			"1C,1D,1,2,3\n"

		records, err := Parse(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, []models.EdgeRecord{
			{Origin: "1C", Destination: "1D", Time: 1, Distance: 2, Cost: 3},
		}, records)
	})

	t.Run("Header only", func(t *testing.T) {
		records, err := Parse(strings.NewReader("origin,destination,time,distance,cost\n"))
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("Empty input", func(t *testing.T) {
		_, err := Parse(strings.NewReader(""))
		assert.Error(t, err)
	})
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.csv")
	require.NoError(t, os.WriteFile(path, []byte("origin,destination,time,distance,cost\n1A,1B,3,100,50\n"), 0o644))

	records, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "feed.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return path
}

func TestParseZip(t *testing.T) {
	const header = "origin,destination,time,distance,cost\n"

	t.Run("Named entry in a folder", func(t *testing.T) {
		path := writeZip(t, map[string]string{
			"README.txt":        "not a csv",
			"data/stations.csv": header + "1A,1B,3,100,50\n1B,1C,3,100,50\n",
		})

		records, err := ParseZip(path, "")
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("Falls back to first csv", func(t *testing.T) {
		path := writeZip(t, map[string]string{
			"edges.csv": header + "1A,1B,3,100,50\n",
		})

		records, err := ParseZip(path, DefaultFileName)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("No csv", func(t *testing.T) {
		path := writeZip(t, map[string]string{"README.txt": "nothing here"})

		_, err := ParseZip(path, "")
		assert.Error(t, err)
	})

	t.Run("Not a zip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "feed.zip")
		require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

		_, err := ParseZip(path, "")
		assert.Error(t, err)
	})
}
