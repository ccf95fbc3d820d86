package api

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/passbi/trackmaster/internal/graph"
	"github.com/passbi/trackmaster/internal/models"
)

// StationsListResponse represents the response for the station list
type StationsListResponse struct {
	Stations []StationInfo  `json:"stations"`
	Total    int            `json:"total"`
	Lines    map[string]int `json:"lines"`
}

// StationInfo represents one station of the network
type StationInfo struct {
	ID     models.StationID `json:"id"`
	Line   string           `json:"line"`
	Degree int              `json:"degree"`
}

// NeighborsResponse represents the direct connections of a station
type NeighborsResponse struct {
	Station   models.StationID `json:"station"`
	Line      string           `json:"line"`
	Neighbors []Neighbor       `json:"neighbors"`
}

// Neighbor is one outgoing edge with its transfer flag
type Neighbor struct {
	models.Edge
	Line     string `json:"line"`
	Transfer bool   `json:"transfer"`
}

// StationsList handles the /v2/stations endpoint
func (h *Handler) StationsList(c *fiber.Ctx) error {
	line := c.Query("line") // Optional: filter by line

	g := h.router.Graph()

	stations := []StationInfo{}
	for _, id := range g.Stations() {
		if line != "" && graph.LineOf(id) != line {
			continue
		}
		stations = append(stations, StationInfo{
			ID:     id,
			Line:   graph.LineOf(id),
			Degree: len(g.Edges(id)),
		})
	}

	return c.JSON(StationsListResponse{
		Stations: stations,
		Total:    len(stations),
		Lines:    g.Lines(),
	})
}

// StationNeighbors handles the /v2/stations/:id/neighbors endpoint
func (h *Handler) StationNeighbors(c *fiber.Ctx) error {
	raw, err := url.PathUnescape(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "invalid station id",
		})
	}
	id := models.StationID(raw)

	g := h.router.Graph()
	if !g.HasStation(id) {
		return c.Status(404).JSON(fiber.Map{
			"error": "station not found",
		})
	}

	neighbors := []Neighbor{}
	for _, e := range g.Edges(id) {
		neighbors = append(neighbors, Neighbor{
			Edge:     e,
			Line:     graph.LineOf(e.To),
			Transfer: graph.IsTransfer(id, e.To),
		})
	}

	return c.JSON(NeighborsResponse{
		Station:   id,
		Line:      graph.LineOf(id),
		Neighbors: neighbors,
	})
}
