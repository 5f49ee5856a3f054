package handler

import (
	"go-fuelstation-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type OwnerHandler struct {
	ownerService service.OwnerService
}

func NewOwnerHandler(ownerService service.OwnerService) *OwnerHandler {
	return &OwnerHandler{ownerService: ownerService}
}

// CreateOwner
// POST /api/v1/owners
func (h *OwnerHandler) CreateOwner(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var req service.CreateOwnerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	owner, err := h.ownerService.Create(c.UserContext(), actor, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Owner created successfully",
		"data":    owner,
	})
}

// GetOwners searches by name, company or phone
// GET /api/v1/owners?search=
func (h *OwnerHandler) GetOwners(c *fiber.Ctx) error {
	owners, err := h.ownerService.List(c.UserContext(), c.Query("search"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(owners)
}

// GetOwner returns an owner with trucks
// GET /api/v1/owners/:id
func (h *OwnerHandler) GetOwner(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid owner ID"})
	}
	owner, err := h.ownerService.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(owner)
}

// AddTruck
// POST /api/v1/owners/:id/trucks
func (h *OwnerHandler) AddTruck(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid owner ID"})
	}
	var req service.AddTruckRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	truck, err := h.ownerService.AddTruck(c.UserContext(), actor, id, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Truck added successfully",
		"data":    truck,
	})
}

// MergeOwners moves trucks and sales of the source into the target and deletes the source
// POST /api/v1/owners/merge
func (h *OwnerHandler) MergeOwners(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var req service.MergeOwnersRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	result, err := h.ownerService.Merge(c.UserContext(), actor, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Owners merged successfully",
		"data":    result,
	})
}

// GetCreditSummary totals the owner's live credit sales
// GET /api/v1/owners/:id/credit
func (h *OwnerHandler) GetCreditSummary(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid owner ID"})
	}
	summary, err := h.ownerService.CreditSummary(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(summary)
}
