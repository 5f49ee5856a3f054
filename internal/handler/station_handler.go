package handler

import (
	"go-fuelstation-pos/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type StationHandler struct {
	stationService service.StationService
}

func NewStationHandler(stationService service.StationService) *StationHandler {
	return &StationHandler{stationService: stationService}
}

// CreateStation registers a station
// POST /api/v1/stations
func (h *StationHandler) CreateStation(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var req service.CreateStationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	station, err := h.stationService.Create(c.UserContext(), actor, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Station created successfully",
		"data":    station,
	})
}

// GetStations returns every station for admins and the own station otherwise
// GET /api/v1/stations
func (h *StationHandler) GetStations(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	stations, err := h.stationService.List(c.UserContext(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(stations)
}

// GetStation
// GET /api/v1/stations/:id
func (h *StationHandler) GetStation(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid station ID"})
	}
	station, err := h.stationService.Get(c.UserContext(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(station)
}

// UpdatePrice changes the station's default price per liter
// PUT /api/v1/stations/:id/price
func (h *StationHandler) UpdatePrice(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid station ID"})
	}
	var req struct {
		PricePerLiter decimal.Decimal `json:"price_per_liter"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	station, err := h.stationService.UpdatePrice(c.UserContext(), actor, id, req.PricePerLiter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Price updated successfully",
		"data":    station,
	})
}
