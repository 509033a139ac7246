package controllers

import (
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	Users *services.UserService
}

func NewUserController(svc *services.Services) *UserController {
	return &UserController{Users: svc.Users}
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns authenticated user's profile data
// @Tags users
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}

	user, err := uc.Users.Get(c.UserContext(), caller.ID)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, user)
}

// UpdateProfile godoc
// @Summary Update user profile
// @Description Updates name, bio, email or password. A new password needs old_password.
// @Tags users
// @Accept json
// @Produce json
// @Param input body services.ProfileInput true "Profile update data"
// @Success 200 {object} utils.SuccessResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [put]
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}

	var input services.ProfileInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	user, err := uc.Users.UpdateProfile(c.UserContext(), caller.ID, input)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, user)
}
