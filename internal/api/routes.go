package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Register mounts every endpoint on app
func (h *Handler) Register(app fiber.Router) {
	app.Get("/health", h.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/v2/route-search", h.RouteSearch)
	app.Get("/v2/route-search/:objective", h.RouteSearchObjective)
	app.Get("/v2/stations", h.StationsList)
	app.Get("/v2/stations/:id/neighbors", h.StationNeighbors)
	app.Get("/v2/stats/searches", h.SearchStats)
}
