package controllers

import (
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type ProgressController struct {
	Progress     *services.ProgressService
	Certificates *services.CertificateService
}

func NewProgressController(svc *services.Services) *ProgressController {
	return &ProgressController{
		Progress:     svc.Progress,
		Certificates: svc.Certificates,
	}
}

// GetCourseProgress godoc
// @Summary Get course progress
// @Description Percentage, completed lesson ids, quiz state and certificate eligibility. Issues the certificate on the first eligible check.
// @Tags progress
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/progress [get]
func (pc *ProgressController) GetCourseProgress(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	detail, err := pc.Progress.Detail(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, detail)
}

// GetCourseCertificate godoc
// @Summary Download the course certificate
// @Description PDF of the caller's certificate for the course, 404 until eligible
// @Tags progress
// @Produce application/pdf
// @Param id path int true "Course ID"
// @Success 200 {file} binary
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/certificate [get]
func (pc *ProgressController) GetCourseCertificate(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	pdf, cert, err := pc.Certificates.ForCourse(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return utils.PDF(c, cert.Number+".pdf", pdf)
}
