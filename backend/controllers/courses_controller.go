package controllers

import (
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type CoursesController struct {
	Courses     *services.CourseService
	Enrollments *services.EnrollmentService
}

func NewCoursesController(svc *services.Services) *CoursesController {
	return &CoursesController{Courses: svc.Courses, Enrollments: svc.Enrollments}
}

func courseFilter(c *fiber.Ctx) services.CourseFilter {
	return services.CourseFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
	}
}

// ListCourses godoc
// @Summary List courses
// @Description Instructors get their own courses, students the published catalogue
// @Tags courses
// @Produce json
// @Param search query string false "Search in title, description and category"
// @Param category query string false "Exact category"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /courses [get]
func (cc *CoursesController) ListCourses(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}

	courses, err := cc.Courses.List(c.UserContext(), caller, courseFilter(c))
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, courses)
}

// CreateCourse godoc
// @Summary Create a course
// @Tags courses
// @Accept json
// @Produce json
// @Param course body services.CourseInput true "Course"
// @Success 201 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses [post]
func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}

	var input services.CourseInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	course, err := cc.Courses.Create(c.UserContext(), caller, input)
	if err != nil {
		return err
	}
	return utils.Created(c, course)
}

// GetCourse godoc
// @Summary Get course details
// @Description Lessons are included for the owner and for enrolled students
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id} [get]
func (cc *CoursesController) GetCourse(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	course, err := cc.Courses.Get(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, course)
}

// UpdateCourse godoc
// @Summary Update a course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param course body services.CourseUpdate true "Fields to change"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id} [put]
func (cc *CoursesController) UpdateCourse(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var input services.CourseUpdate
	if err := parseBody(c, &input); err != nil {
		return err
	}

	course, err := cc.Courses.Update(c.UserContext(), caller, id, input)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, course)
}

// DeleteCourse godoc
// @Summary Delete a course
// @Description Removes lessons, quiz, enrollments, progress and certificates of the course
// @Tags courses
// @Param id path int true "Course ID"
// @Success 204
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id} [delete]
func (cc *CoursesController) DeleteCourse(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := cc.Courses.Delete(c.UserContext(), caller, id); err != nil {
		return err
	}
	return utils.NoContent(c)
}

// Enroll godoc
// @Summary Enroll in a course
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 201 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/enroll [post]
func (cc *CoursesController) Enroll(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	enrollment, err := cc.Enrollments.Enroll(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return utils.Created(c, enrollment)
}

// GetEnrolledCourses godoc
// @Summary Courses the student is enrolled in
// @Description Each entry carries the current progress and the next lesson
// @Tags courses
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /courses/enrolled [get]
func (cc *CoursesController) GetEnrolledCourses(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}

	courses, err := cc.Enrollments.Enrolled(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, courses)
}

// GetAvailableCourses godoc
// @Summary Published courses the student is not enrolled in
// @Tags courses
// @Produce json
// @Param search query string false "Search term"
// @Param category query string false "Exact category"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /courses/available [get]
func (cc *CoursesController) GetAvailableCourses(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}

	courses, err := cc.Enrollments.Available(c.UserContext(), caller, courseFilter(c))
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, courses)
}
