package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/passbi/trackmaster/internal/congestion"
	"github.com/passbi/trackmaster/internal/graph"
	"github.com/passbi/trackmaster/internal/models"
	"github.com/passbi/trackmaster/internal/routing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter() *routing.Router {
	store := graph.NewStore()
	store.Load([]models.EdgeRecord{
		{Origin: "1A", Destination: "1B", Time: 3, Distance: 100, Cost: 50},
		{Origin: "1B", Destination: "2A", Time: 5, Distance: 200, Cost: 80},
		{Origin: "1A", Destination: "2A", Time: 10, Distance: 50, Cost: 200},
	})
	return routing.NewRouter(store, &routing.Config{Timeout: time.Second})
}

func TestPrintRoutes(t *testing.T) {
	var out bytes.Buffer
	err := printRoutes(context.Background(), &out, testRouter(), congestion.NewEstimator(1), "1A", "2A")
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Fewest transfers route:")
	assert.Contains(t, text, "Lowest cost route:")
	assert.Contains(t, text, "Shortest time route:")
	assert.Contains(t, text, "Route: 1A -> 1B -> 2A")
	assert.Contains(t, text, "Cost: 130")
	assert.Contains(t, text, "Distance: 300 m")
	assert.Contains(t, text, "Time: 8 s")
	assert.Equal(t, 3, strings.Count(text, "Line 1 average congestion:"))
}

func TestPrintRoutesNoRoute(t *testing.T) {
	var out bytes.Buffer
	err := printRoutes(context.Background(), &out, testRouter(), congestion.NewEstimator(1), "1A", "9Z")
	require.NoError(t, err)
	assert.Equal(t, "No route found.\n", out.String())
}

func TestPrintRoutesEmptyStation(t *testing.T) {
	var out bytes.Buffer
	err := printRoutes(context.Background(), &out, testRouter(), congestion.NewEstimator(1), "", "2A")
	assert.ErrorIs(t, err, routing.ErrEmptyStation)
}
