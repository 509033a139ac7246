package controllers

import (
	"strconv"

	"lms/backend/middleware"
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
)

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// parseBody decodes the JSON body into dst and runs its validate tags.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot parse JSON")
	}
	return utils.Validate(dst)
}

func currentCaller(c *fiber.Ctx) (services.Caller, error) {
	caller, ok := middleware.CurrentCaller(c)
	if !ok {
		return services.Caller{}, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	return caller, nil
}
