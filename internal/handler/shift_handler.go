package handler

import (
	"strconv"

	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/internal/repository"
	"go-fuelstation-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ShiftHandler struct {
	shiftService service.ShiftService
}

func NewShiftHandler(shiftService service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftService: shiftService}
}

// OpenShift starts shift 1 or 2 with its start readings
// POST /api/v1/shifts
func (h *ShiftHandler) OpenShift(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var req service.OpenShiftRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	shift, err := h.shiftService.Open(c.UserContext(), actor, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Shift opened successfully",
		"data":    shift,
	})
}

// GetOpenShift returns the station's open shift, 404 when none
// GET /api/v1/stations/:id/open-shift
func (h *ShiftHandler) GetOpenShift(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	stationID, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid station ID"})
	}

	shift, err := h.shiftService.FindOpenShift(c.UserContext(), actor, stationID)
	if err != nil {
		return writeError(c, err)
	}
	if shift == nil {
		return c.Status(404).JSON(fiber.Map{"error": "No open shift"})
	}
	return c.JSON(shift)
}

// GetShifts
// GET /api/v1/shifts?station_id=&from=&to=&status=&limit=
func (h *ShiftHandler) GetShifts(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	stationID, err := queryUUID(c, "station_id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid station ID"})
	}

	shifts, err := h.shiftService.List(c.UserContext(), actor, repository.ShiftFilter{
		StationID: stationID,
		From:      c.Query("from"),
		To:        c.Query("to"),
		Status:    model.ShiftStatus(c.Query("status")),
		Limit:     queryInt(c, "limit", 50),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(shifts)
}

// GetShift
// GET /api/v1/shifts/:id
func (h *ShiftHandler) GetShift(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid shift ID"})
	}

	shift, err := h.shiftService.Get(c.UserContext(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(shift)
}

// RecordEndMeters
// PUT /api/v1/shifts/:id/meters
func (h *ShiftHandler) RecordEndMeters(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid shift ID"})
	}
	var req service.EndMetersRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	shift, err := h.shiftService.RecordEndMeters(c.UserContext(), actor, id, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(shift)
}

// RecordGauges
// PUT /api/v1/shifts/:id/gauges
func (h *ShiftHandler) RecordGauges(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid shift ID"})
	}
	var req service.GaugesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	shift, err := h.shiftService.RecordGauges(c.UserContext(), actor, id, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(shift)
}

// ClosePreview returns the pre-filled reconciliation and the version to close with
// GET /api/v1/shifts/:id/close-preview
func (h *ShiftHandler) ClosePreview(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid shift ID"})
	}

	preview, err := h.shiftService.ClosePreview(c.UserContext(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(preview)
}

// CloseShift
// POST /api/v1/shifts/:id/close
func (h *ShiftHandler) CloseShift(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid shift ID"})
	}
	var req service.CloseShiftRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	result, err := h.shiftService.Close(c.UserContext(), actor, id, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Shift closed successfully",
		"data":    result,
	})
}

// CorrectMeter fixes a nozzle reading after the fact
// PUT /api/v1/shifts/:id/meters/:nozzle/correct
func (h *ShiftHandler) CorrectMeter(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid shift ID"})
	}
	nozzle, err := strconv.Atoi(c.Params("nozzle"))
	if err != nil || nozzle <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid nozzle number"})
	}
	var req service.CorrectMeterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	meter, err := h.shiftService.CorrectMeter(c.UserContext(), actor, id, nozzle, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Meter corrected",
		"data":    meter,
	})
}
