package handler

import (
	"fmt"

	"go-fuelstation-pos/internal/export"
	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/internal/repository"
	"go-fuelstation-pos/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ReportHandler struct {
	reportService service.ReportService
	auditService  service.AuditService
}

func NewReportHandler(reportService service.ReportService, auditService service.AuditService) *ReportHandler {
	return &ReportHandler{reportService: reportService, auditService: auditService}
}

func sendReport(c *fiber.Ctx, report *service.Report) error {
	c.Set(fiber.HeaderContentType, report.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", report.Filename))
	return c.Send(report.Data)
}

// ExportTransactions downloads sales as CSV or XLSX
// GET /api/v1/reports/transactions?format=csv|xlsx&station_id=&from=&to=
func (h *ReportHandler) ExportTransactions(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	filter, err := transactionFilter(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid ID in query"})
	}

	report, err := h.reportService.ExportTransactions(c.UserContext(), actor, filter, c.Query("format"))
	if err != nil {
		return writeError(c, err)
	}
	return sendReport(c, report)
}

// ExportShifts downloads closed shift reconciliations
// GET /api/v1/reports/shifts?format=csv|xlsx&station_id=&from=&to=
func (h *ReportHandler) ExportShifts(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	stationID, err := queryUUID(c, "station_id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid station ID"})
	}

	report, err := h.reportService.ExportShifts(c.UserContext(), actor, repository.ShiftFilter{
		StationID: stationID,
		From:      c.Query("from"),
		To:        c.Query("to"),
	}, c.Query("format"))
	if err != nil {
		return writeError(c, err)
	}
	return sendReport(c, report)
}

// ArchiveDay stores a day's transactions in object storage
// POST /api/v1/reports/archive
func (h *ReportHandler) ArchiveDay(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var req struct {
		StationID string `json:"station_id"`
		Date      string `json:"date"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	stationID, err := uuid.Parse(req.StationID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid station ID"})
	}
	if req.Date == "" {
		return c.Status(400).JSON(fiber.Map{"error": "date is required"})
	}

	result, err := h.reportService.ArchiveDay(c.UserContext(), actor, stationID, req.Date)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(result)
}

// GetAuditLogs
// GET /api/v1/audit-logs?model=&record_id=&actor_id=&limit=
func (h *ReportHandler) GetAuditLogs(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	logs, err := h.auditService.List(c.UserContext(), actor, repository.AuditFilter{
		Model:    c.Query("model"),
		RecordID: c.Query("record_id"),
		ActorID:  c.Query("actor_id"),
		Limit:    queryInt(c, "limit", 100),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(logs)
}

// GetPaymentMethods lists the accepted payment methods with their report labels
// GET /api/v1/payment-methods
func GetPaymentMethods(c *fiber.Ctx) error {
	out := make([]fiber.Map, 0, len(model.PaymentMethods))
	for _, m := range model.PaymentMethods {
		out = append(out, fiber.Map{"code": m, "label": export.MethodLabel(m)})
	}
	return c.JSON(out)
}
