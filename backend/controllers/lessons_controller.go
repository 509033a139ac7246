package controllers

import (
	"strconv"

	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type LessonsController struct {
	Lessons     *services.LessonService
	Completions *services.CompletionService
}

func NewLessonsController(svc *services.Services) *LessonsController {
	return &LessonsController{Lessons: svc.Lessons, Completions: svc.Completions}
}

// ListLessons godoc
// @Summary List the lessons of a course
// @Tags lessons
// @Produce json
// @Param course_id query int true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /lessons [get]
func (lc *LessonsController) ListLessons(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	courseID, err := strconv.ParseUint(c.Query("course_id"), 10, 64)
	if err != nil || courseID == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "course_id query parameter is required")
	}

	lessons, err := lc.Lessons.List(c.UserContext(), caller, uint(courseID))
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, lessons)
}

// CreateLesson godoc
// @Summary Add a lesson to a course
// @Tags lessons
// @Accept json
// @Produce json
// @Param lesson body services.LessonInput true "Lesson"
// @Success 201 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /lessons [post]
func (lc *LessonsController) CreateLesson(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}

	var input services.LessonInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	lesson, err := lc.Lessons.Create(c.UserContext(), caller, input)
	if err != nil {
		return err
	}
	return utils.Created(c, lesson)
}

// GetLesson godoc
// @Summary Get a lesson
// @Tags lessons
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /lessons/{id} [get]
func (lc *LessonsController) GetLesson(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	lesson, err := lc.Lessons.Get(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, lesson)
}

// UpdateLesson godoc
// @Summary Update a lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param lesson body services.LessonUpdate true "Fields to change"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /lessons/{id} [put]
func (lc *LessonsController) UpdateLesson(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var input services.LessonUpdate
	if err := parseBody(c, &input); err != nil {
		return err
	}

	lesson, err := lc.Lessons.Update(c.UserContext(), caller, id, input)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, lesson)
}

// DeleteLesson godoc
// @Summary Delete a lesson
// @Tags lessons
// @Param id path int true "Lesson ID"
// @Success 204
// @Security ApiKeyAuth
// @Router /lessons/{id} [delete]
func (lc *LessonsController) DeleteLesson(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := lc.Lessons.Delete(c.UserContext(), caller, id); err != nil {
		return err
	}
	return utils.NoContent(c)
}

// MarkComplete godoc
// @Summary Mark a lesson complete
// @Description Idempotent. Returns the course progress and the certificate once eligible.
// @Tags lessons
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /lessons/{id}/mark-complete [post]
func (lc *LessonsController) MarkComplete(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	res, err := lc.Completions.MarkComplete(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, res)
}

// ResetCompletion godoc
// @Summary Reset a lesson
// @Description Marks a completed lesson as not completed. The course certificate stops being served until the course is complete again.
// @Tags lessons
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /lessons/{id}/reset [post]
func (lc *LessonsController) ResetCompletion(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	res, err := lc.Completions.Reset(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, res)
}
