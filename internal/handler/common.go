package handler

import (
	"errors"
	"strconv"

	"go-fuelstation-pos/internal/middleware"
	"go-fuelstation-pos/internal/reconcile"
	"go-fuelstation-pos/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// actorFrom rebuilds the caller from the locals set by RequireAuth
func actorFrom(c *fiber.Ctx) (service.Actor, bool) {
	raw, _ := c.Locals(middleware.LocalUserID).(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		return service.Actor{}, false
	}
	actor := service.Actor{UserID: userID}
	actor.Name, _ = c.Locals(middleware.LocalUserName).(string)
	actor.RoleCode, _ = c.Locals(middleware.LocalRoleCode).(string)
	if s, _ := c.Locals(middleware.LocalStationID).(string); s != "" {
		if stationID, err := uuid.Parse(s); err == nil {
			actor.StationID = &stationID
		}
	}
	return actor, true
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

// queryUUID returns nil when the parameter is absent
func queryUUID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func queryInt(c *fiber.Ctx, name string, def int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil || n < 0 {
		return def
	}
	return n
}

// writeError maps service error classes onto HTTP status codes
func writeError(c *fiber.Ctx, err error) error {
	var incomplete *reconcile.IncompleteError
	switch {
	case errors.As(err, &incomplete):
		return c.Status(422).JSON(fiber.Map{
			"error":           err.Error(),
			"missing_nozzles": incomplete.MissingNozzles,
			"missing_tanks":   incomplete.MissingTanks,
		})
	case errors.Is(err, service.ErrIncomplete):
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrValidation):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrUserNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrEmailExists):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		return c.Status(403).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
}
