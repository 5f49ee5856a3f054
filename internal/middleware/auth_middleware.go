package middleware

import (
	"strings"
	"time"

	"go-fuelstation-pos/internal/repository"
	"go-fuelstation-pos/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// Keys set in fiber locals by RequireAuth
const (
	LocalUserID     = "user_id"
	LocalUserEmail  = "user_email"
	LocalUserName   = "user_name"
	LocalRoleCode   = "role_code"
	LocalStationID  = "station_id"
	LocalPrivileges = "user_privileges"
)

// TokenFromRequest reads the bearer header first and falls back to the session cookie
func TokenFromRequest(c *fiber.Ctx, cookieName string) (string, bool) {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return "", false
		}
		return parts[1], true
	}
	if cookieName != "" {
		if token := c.Cookies(cookieName); token != "" {
			return token, true
		}
	}
	return "", true
}

// RequireAuth validates the JWT, checks the session against the database and
// stores the caller in context for downstream handlers.
func RequireAuth(userRepo repository.UserRepository, cookieName string, idleTimeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := TokenFromRequest(c, cookieName)
		if !ok {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}
		if tokenString == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		claims, err := jwt.ValidateToken(tokenString)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		// Check strict session against DB
		user, err := userRepo.FindByID(c.UserContext(), claims.UserID)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "User not found"})
		}
		if !user.IsActive {
			return c.Status(401).JSON(fiber.Map{"error": "User account is inactive"})
		}
		if user.TokenVersion != claims.TokenVersion {
			return c.Status(401).JSON(fiber.Map{"error": "Session expired (logged in on another device)"})
		}
		if idleTimeout > 0 && (user.LastSeenAt == nil || time.Since(*user.LastSeenAt) > idleTimeout) {
			return c.Status(401).JSON(fiber.Map{"error": "Session expired due to inactivity"})
		}

		// Role, station and privileges come from the row so admin edits apply immediately
		stationID := ""
		if user.StationID != nil {
			stationID = user.StationID.String()
		}
		c.Locals(LocalUserID, user.ID.String())
		c.Locals(LocalUserEmail, user.Email)
		c.Locals(LocalUserName, user.FullName)
		c.Locals(LocalRoleCode, user.RoleCode())
		c.Locals(LocalStationID, stationID)
		c.Locals(LocalPrivileges, user.GetPrivilegeCodes())

		return c.Next()
	}
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals(LocalPrivileges).([]string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}

		for _, p := range privileges {
			if p == requiredPrivilege {
				return c.Next()
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires '" + requiredPrivilege + "' privilege",
		})
	}
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals(LocalPrivileges).([]string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}

		for _, userPriv := range privileges {
			for _, reqPriv := range requiredPrivileges {
				if userPriv == reqPriv {
					return c.Next()
				}
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires one of " + strings.Join(requiredPrivileges, ", ") + " privileges",
		})
	}
}
