package services

import (
	"bytes"
	"fmt"

	"lms/backend/models"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
)

// renderCertificatePDF lays out a single landscape A4 page.
func renderCertificatePDF(appName string, cert models.Certificate, student models.User, course models.Course, instructor models.User) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Certificate "+cert.Number, true)
	pdf.SetAuthor(appName, true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	w, h := pdf.GetPageSize()

	pdf.SetDrawColor(40, 70, 140)
	pdf.SetLineWidth(1.5)
	pdf.Rect(10, 10, w-20, h-20, "D")
	pdf.SetLineWidth(0.4)
	pdf.Rect(14, 14, w-28, h-28, "D")

	contentW := w - 40

	pdf.SetY(35)
	pdf.SetFont("Helvetica", "B", 34)
	pdf.SetTextColor(40, 70, 140)
	pdf.CellFormat(contentW, 16, tr("Certificate of Completion"), "", 1, "C", false, 0, "")

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 14)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(contentW, 8, tr("This is to certify that"), "", 1, "C", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(contentW, 14, tr(student.FullName()), "", 1, "C", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 14)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(contentW, 8, tr("has successfully completed the course"), "", 1, "C", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(40, 70, 140)
	pdf.MultiCell(contentW, 10, tr(course.Title), "", "C", false)

	pdf.SetY(h - 60)
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(60, 60, 60)
	half := contentW / 2
	pdf.CellFormat(half, 7, tr("Instructor: "+instructor.FullName()), "", 0, "L", false, 0, "")
	pdf.CellFormat(half, 7, tr("Issued: "+cert.IssuedAt.Format("January 2, 2006")), "", 1, "R", false, 0, "")

	pdf.Ln(10)
	pdf.SetFont("Courier", "", 10)
	pdf.CellFormat(contentW, 6, fmt.Sprintf("Certificate No. %s", cert.Number), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(contentW, 6, tr(appName), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "render certificate")
	}
	return buf.Bytes(), nil
}
