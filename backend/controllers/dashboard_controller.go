package controllers

import (
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type DashboardController struct {
	Dashboards *services.DashboardService
}

func NewDashboardController(svc *services.Services) *DashboardController {
	return &DashboardController{Dashboards: svc.Dashboards}
}

// GetInstructorDashboard godoc
// @Summary Instructor dashboard
// @Description Per-course statistics, weekly totals and recent student activity
// @Tags dashboard
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /instructor-dashboard [get]
func (dc *DashboardController) GetInstructorDashboard(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}

	d, err := dc.Dashboards.Instructor(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, d)
}

// GetStudentDashboard godoc
// @Summary Student dashboard
// @Description Enrollments with progress, recent quiz attempts, certificates and totals
// @Tags dashboard
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /student-dashboard [get]
func (dc *DashboardController) GetStudentDashboard(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}

	d, err := dc.Dashboards.Student(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, d)
}

// GetStudentReports godoc
// @Summary Student progress reports
// @Description Every enrolled student's progress, quiz scores and last activity, per course of the caller
// @Tags reports
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /reports/students [get]
func (dc *DashboardController) GetStudentReports(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}

	r, err := dc.Dashboards.StudentReports(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, r)
}

// GetStudentReport godoc
// @Summary One student's report
// @Description Progress, quiz attempts and certificates of one student in the caller's courses
// @Tags reports
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /reports/students/{id} [get]
func (dc *DashboardController) GetStudentReport(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	r, err := dc.Dashboards.StudentReport(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, r)
}

// GetCourseAnalytics godoc
// @Summary Course analytics
// @Description Progress distribution, engagement, time spent and quiz performance of an owned course
// @Tags reports
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/analytics [get]
func (dc *DashboardController) GetCourseAnalytics(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	a, err := dc.Dashboards.CourseAnalytics(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, a)
}

// GetActivity godoc
// @Summary Activity feed
// @Description Lesson completions and quiz attempts grouped by day. Students see their own, instructors the last week in their courses.
// @Tags dashboard
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /activity [get]
func (dc *DashboardController) GetActivity(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}

	feed, err := dc.Dashboards.Activity(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, feed)
}
