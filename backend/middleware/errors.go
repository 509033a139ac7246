package middleware

import (
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

// ErrorHandler maps domain errors to HTTP statuses. Anything it does not
// recognise is a 500 and goes to the reporter.
func ErrorHandler(reporter utils.Reporter) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			if len(verr.Fields) == 0 {
				return utils.Error(c, fiber.StatusUnprocessableEntity, err)
			}
			return utils.ValidationError(c, verr.FieldMap())
		}

		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			return utils.ValidationError(c, utils.ValidationMessages(vErrs))
		}

		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			return utils.Error(c, ferr.Code, ferr)
		}

		switch services.KindOf(err) {
		case services.KindNotFound:
			return utils.Error(c, fiber.StatusNotFound, err)
		case services.KindConflict:
			return utils.Error(c, fiber.StatusConflict, err)
		case services.KindForbidden:
			return utils.Error(c, fiber.StatusForbidden, err)
		case services.KindUnauthenticated:
			return utils.Error(c, fiber.StatusUnauthorized, err)
		case services.KindValidation:
			return utils.Error(c, fiber.StatusUnprocessableEntity, err)
		}

		fields := map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
		}
		if caller, ok := CurrentCaller(c); ok {
			fields["user_id"] = caller.ID
		}
		reporter.Report(err, fields)
		return utils.InternalServerError(c, "Internal server error")
	}
}
