package handler

import (
	"go-fuelstation-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetSummary returns the day's sales, open shift, tank levels and recent results
// GET /api/v1/dashboard/summary?station_id=&date=
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	stationID, err := queryUUID(c, "station_id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid station ID"})
	}
	if stationID == nil {
		if actor.StationID == nil {
			return c.Status(400).JSON(fiber.Map{"error": "station_id is required"})
		}
		stationID = actor.StationID
	}

	summary, err := h.service.Summary(c.UserContext(), actor, *stationID, c.Query("date"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(summary)
}

// GetVarianceAlerts lists WARNING and CRITICAL closes in a date window
// GET /api/v1/dashboard/variance-alerts?station_id=&from=&to=
func (h *DashboardHandler) GetVarianceAlerts(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	stationID, err := queryUUID(c, "station_id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid station ID"})
	}

	alerts, err := h.service.VarianceAlerts(c.UserContext(), actor, stationID, c.Query("from"), c.Query("to"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"count": len(alerts),
		"data":  alerts,
	})
}
