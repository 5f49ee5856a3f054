package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ConnectionCounter reports live websocket clients.
type ConnectionCounter interface {
	ClientCount() int
}

// Health reports database reachability and live websocket clients
// GET /health
func Health(db *gorm.DB, hub ConnectionCounter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, code := "ok", fiber.StatusOK
		dbStatus := "up"
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			status, code, dbStatus = "degraded", fiber.StatusServiceUnavailable, "down"
		}
		return c.Status(code).JSON(fiber.Map{
			"status":     status,
			"database":   dbStatus,
			"ws_clients": hub.ClientCount(),
		})
	}
}
