package handler

import (
	"go-fuelstation-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DailyRecordHandler struct {
	recordService service.DailyRecordService
}

func NewDailyRecordHandler(recordService service.DailyRecordService) *DailyRecordHandler {
	return &DailyRecordHandler{recordService: recordService}
}

// CreateDailyRecord opens the business day of a station
// POST /api/v1/daily-records
func (h *DailyRecordHandler) CreateDailyRecord(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var req service.CreateDailyRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	record, err := h.recordService.Create(c.UserContext(), actor, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Daily record created successfully",
		"data":    record,
	})
}

// GetDailyRecords lists a station's records for a month
// GET /api/v1/daily-records?station_id=...&month=YYYY-MM
func (h *DailyRecordHandler) GetDailyRecords(c *fiber.Ctx) error {
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

	records, err := h.recordService.ListByMonth(c.UserContext(), actor, *stationID, c.Query("month"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(records)
}

// DeleteDailyRecord removes an empty day; days with shifts or sales are rejected
// DELETE /api/v1/daily-records/:id
func (h *DailyRecordHandler) DeleteDailyRecord(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid daily record ID"})
	}

	if err := h.recordService.Delete(c.UserContext(), actor, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Daily record deleted successfully"})
}
