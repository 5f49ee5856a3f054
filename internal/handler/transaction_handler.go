package handler

import (
	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/internal/repository"
	"go-fuelstation-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type TransactionHandler struct {
	txService service.TransactionService
}

func NewTransactionHandler(txService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{txService: txService}
}

// transactionFilter reads the listing and export query parameters
func transactionFilter(c *fiber.Ctx) (repository.TransactionFilter, error) {
	stationID, err := queryUUID(c, "station_id")
	if err != nil {
		return repository.TransactionFilter{}, err
	}
	shiftID, err := queryUUID(c, "shift_id")
	if err != nil {
		return repository.TransactionFilter{}, err
	}
	ownerID, err := queryUUID(c, "owner_id")
	if err != nil {
		return repository.TransactionFilter{}, err
	}
	return repository.TransactionFilter{
		StationID:     stationID,
		ShiftID:       shiftID,
		OwnerID:       ownerID,
		From:          c.Query("from"),
		To:            c.Query("to"),
		PaymentMethod: model.PaymentMethod(c.Query("payment_method")),
		IncludeVoided: c.QueryBool("include_voided", false),
		Limit:         queryInt(c, "limit", 100),
		Offset:        queryInt(c, "offset", 0),
	}, nil
}

// CreateTransaction records a sale; a likely duplicate is rejected with 409
// POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var req service.CreateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	result, err := h.txService.Create(c.UserContext(), actor, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message":  "Transaction created successfully",
		"data":     result.Transaction,
		"warnings": result.Warnings,
	})
}

// GetTransactions
// GET /api/v1/transactions
func (h *TransactionHandler) GetTransactions(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	filter, err := transactionFilter(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid ID in query"})
	}

	rows, total, err := h.txService.List(c.UserContext(), actor, filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"data":   rows,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetTransaction
// GET /api/v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	transaction, err := h.txService.Get(c.UserContext(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(transaction)
}

// VoidTransaction keeps the row but excludes it from totals
// POST /api/v1/transactions/:id/void
func (h *TransactionHandler) VoidTransaction(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}
	var req service.VoidTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	transaction, err := h.txService.Void(c.UserContext(), actor, id, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Transaction voided",
		"data":    transaction,
	})
}

// DeleteTransaction soft-deletes a sale
// DELETE /api/v1/transactions/:id
func (h *TransactionHandler) DeleteTransaction(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	if err := h.txService.Delete(c.UserContext(), actor, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Transaction deleted successfully"})
}
