package controllers

import (
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type CertificatesController struct {
	Certificates *services.CertificateService
}

func NewCertificatesController(svc *services.Services) *CertificatesController {
	return &CertificatesController{Certificates: svc.Certificates}
}

// ListCertificates godoc
// @Summary List certificates
// @Description Students get their own, instructors those issued in their courses
// @Tags certificates
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /certificates [get]
func (cc *CertificatesController) ListCertificates(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}

	certificates, err := cc.Certificates.List(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, certificates)
}

// DownloadCertificate godoc
// @Summary Download a certificate as PDF
// @Tags certificates
// @Produce application/pdf
// @Param id path int true "Certificate ID"
// @Success 200 {file} binary
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /certificates/{id}/download [get]
func (cc *CertificatesController) DownloadCertificate(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	pdf, cert, err := cc.Certificates.Render(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return utils.PDF(c, cert.Number+".pdf", pdf)
}

// VerifyCertificate godoc
// @Summary Verify a certificate number
// @Description Public. valid is false once the holder no longer meets the requirements.
// @Tags certificates
// @Produce json
// @Param number path string true "Certificate number"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /certificates/verify/{number} [get]
func (cc *CertificatesController) VerifyCertificate(c *fiber.Ctx) error {
	v, err := cc.Certificates.Verify(c.UserContext(), c.Params("number"))
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, v)
}
