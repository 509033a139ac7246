package middleware

import (
	"lms/backend/config"
	"lms/backend/models"
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
)

const callerKey = "caller"

// AuthMiddleware validates the bearer token and stores the caller for handlers.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.ExtractClaimsFromToken(c, cfg)
		if err != nil {
			return err
		}
		c.Locals(callerKey, services.Caller{ID: claims.UserID, Role: claims.Role})
		return c.Next()
	}
}

// RequireRole rejects callers of any other role with 403.
func RequireRole(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := CurrentCaller(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}
		if caller.Role != role {
			return services.ErrForbidden
		}
		return c.Next()
	}
}

// CurrentCaller returns the caller stored by AuthMiddleware.
func CurrentCaller(c *fiber.Ctx) (services.Caller, bool) {
	caller, ok := c.Locals(callerKey).(services.Caller)
	return caller, ok
}
