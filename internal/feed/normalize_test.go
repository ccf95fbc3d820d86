package feed

import (
	"testing"

	"github.com/passbi/trackmaster/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		records  []models.EdgeRecord
		expected int
	}{
		{
			name: "Valid records kept",
			records: []models.EdgeRecord{
				{Origin: "1A", Destination: "1B", Time: 1, Distance: 1, Cost: 1},
				{Origin: "1B", Destination: "2A", Time: 0, Distance: 0, Cost: 0},
			},
			expected: 2,
		},
		{
			name: "Self loop removed",
			records: []models.EdgeRecord{
				{Origin: "1A", Destination: "1A", Time: 1, Distance: 1, Cost: 1},
			},
			expected: 0,
		},
		{
			name: "Empty station removed",
			records: []models.EdgeRecord{
				{Origin: "", Destination: "1A", Time: 1, Distance: 1, Cost: 1},
			},
			expected: 0,
		},
		{
			name: "Negative weight removed",
			records: []models.EdgeRecord{
				{Origin: "1A", Destination: "1B", Time: 1, Distance: 1, Cost: -5},
			},
			expected: 0,
		},
		{
			name:     "Nil input",
			records:  nil,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaned := Clean(tt.records)
			assert.Len(t, cleaned, tt.expected)
		})
	}
}

func TestSummarize(t *testing.T) {
	records := []models.EdgeRecord{
		{Origin: "2A", Destination: "2B"},
		{Origin: "2B", Destination: "1A"},
		{Origin: "1A", Destination: "강1"},
	}

	summary := Summarize(records)
	assert.Equal(t, 3, summary.Records)
	assert.Equal(t, 4, summary.Stations)
	assert.Equal(t, []string{"1", "2", "강"}, summary.Lines)
}
