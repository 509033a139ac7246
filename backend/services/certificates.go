package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"lms/backend/mail"
	"lms/backend/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewCertificateNumber returns "CERT-" followed by 12 upper-case hex digits.
func NewCertificateNumber() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "CERT-" + strings.ToUpper(hex[:12])
}

type CertificateVerification struct {
	Number         string    `json:"certificate_number"`
	Valid          bool      `json:"valid"`
	StudentName    string    `json:"student"`
	CourseID       uint      `json:"course_id"`
	CourseTitle    string    `json:"course"`
	InstructorName string    `json:"instructor"`
	IssuedAt       time.Time `json:"issued_at"`
	VerifiedAt     time.Time `json:"verification_date"`
}

type CertificateService struct {
	db       *gorm.DB
	logger   *log.Logger
	sender   mail.Sender
	appName  string
	progress *ProgressService
}

func NewCertificateService(db *gorm.DB, logger *log.Logger, sender mail.Sender, appName string) *CertificateService {
	return &CertificateService{db: db, logger: logger, sender: sender, appName: appName}
}

// EnsureIssued records the certificate for (student, course) if it does not
// exist yet. The unique index decides races; losing one is not an error.
func (s *CertificateService) EnsureIssued(tx *gorm.DB, studentID, courseID uint) (models.Certificate, bool, error) {
	cert := models.Certificate{
		StudentID: studentID,
		CourseID:  courseID,
		Number:    NewCertificateNumber(),
		IssuedAt:  timeNow(),
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&cert)
	if res.Error != nil {
		return models.Certificate{}, false, errors.Wrap(res.Error, "create certificate")
	}
	if res.RowsAffected == 1 {
		return cert, true, nil
	}

	var existing models.Certificate
	if err := tx.Where("student_id = ? AND course_id = ?", studentID, courseID).
		Take(&existing).Error; err != nil {
		return models.Certificate{}, false, errors.Wrap(err, "query certificate")
	}
	return existing, false, nil
}

// announce notifies the student. The certificate is already committed, so a
// delivery failure is logged and not returned.
func (s *CertificateService) announce(ctx context.Context, cert models.Certificate) {
	db := s.db.WithContext(ctx)

	var student models.User
	if err := db.First(&student, cert.StudentID).Error; err != nil {
		s.logger.Printf("certificate %s: load student: %v", cert.Number, err)
		return
	}
	var course models.Course
	if err := db.First(&course, cert.CourseID).Error; err != nil {
		s.logger.Printf("certificate %s: load course: %v", cert.Number, err)
		return
	}

	msg := mail.Message{
		ToName:  student.FullName(),
		ToEmail: student.Email,
		Subject: "Your certificate for " + course.Title,
		Text: fmt.Sprintf(
			"Congratulations %s!\n\nYou have completed %q. Your certificate number is %s.",
			student.FullName(), course.Title, cert.Number,
		),
		HTML: fmt.Sprintf(
			"<p>Congratulations %s!</p><p>You have completed <strong>%s</strong>. Your certificate number is <code>%s</code>.</p>",
			student.FullName(), course.Title, cert.Number,
		),
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Printf("certificate %s: notify student %d: %v", cert.Number, student.ID, err)
		return
	}
	s.logger.Printf("certificate %s issued to student %d for course %d", cert.Number, cert.StudentID, cert.CourseID)
}

// List returns the certificates visible to the caller: their own for a
// student, those of their courses for an instructor. Certificates whose
// student is no longer eligible are left out.
func (s *CertificateService) List(ctx context.Context, caller Caller) ([]models.Certificate, error) {
	db := s.db.WithContext(ctx)
	certificates := []models.Certificate{}

	var err error
	switch caller.Role {
	case models.RoleStudent:
		err = db.Where("student_id = ?", caller.ID).Order("issued_at DESC").Find(&certificates).Error
	case models.RoleInstructor:
		err = db.Joins("JOIN courses ON courses.id = certificates.course_id").
			Where("courses.instructor_id = ? AND courses.deleted_at IS NULL", caller.ID).
			Order("certificates.issued_at DESC").
			Find(&certificates).Error
	default:
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, errors.Wrap(err, "list certificates")
	}
	return eligibleOnly(db, certificates)
}

// eligibleOnly keeps the certificates whose student currently satisfies the
// course's eligibility predicate. Order is preserved.
func eligibleOnly(db *gorm.DB, certificates []models.Certificate) ([]models.Certificate, error) {
	students := map[uint][]uint{}
	for _, c := range certificates {
		students[c.CourseID] = append(students[c.CourseID], c.StudentID)
	}

	eligible := map[[2]uint]bool{}
	for courseID, ids := range students {
		progress, err := courseProgress(db, courseID, ids)
		if err != nil {
			return nil, err
		}
		for id, p := range progress {
			eligible[[2]uint{id, courseID}] = p.EligibleForCertificate
		}
	}

	out := make([]models.Certificate, 0, len(certificates))
	for _, c := range certificates {
		if eligible[[2]uint{c.StudentID, c.CourseID}] {
			out = append(out, c)
		}
	}
	return out, nil
}

// Render produces the PDF of the given certificate for its student or the
// course instructor. A student who is no longer eligible gets ErrCertificateNotFound.
func (s *CertificateService) Render(ctx context.Context, caller Caller, certificateID uint) ([]byte, models.Certificate, error) {
	if err := Authorize(caller.Role, OpDownloadCertificate); err != nil {
		return nil, models.Certificate{}, err
	}
	db := s.db.WithContext(ctx)

	var cert models.Certificate
	if err := db.First(&cert, certificateID).Error; err != nil {
		return nil, models.Certificate{}, notFound(err, ErrCertificateNotFound)
	}
	var course models.Course
	if err := db.First(&course, cert.CourseID).Error; err != nil {
		return nil, models.Certificate{}, notFound(err, ErrCertificateNotFound)
	}
	if cert.StudentID != caller.ID && course.InstructorID != caller.ID {
		return nil, models.Certificate{}, ErrForbidden
	}

	pdf, err := s.renderIfEligible(db, cert, course)
	return pdf, cert, err
}

// ForCourse serves the caller's certificate for a course, issuing it on this
// first qualifying check if needed.
func (s *CertificateService) ForCourse(ctx context.Context, caller Caller, courseID uint) ([]byte, models.Certificate, error) {
	res, err := s.progress.Check(ctx, caller, courseID)
	if err != nil {
		return nil, models.Certificate{}, err
	}
	if res.Certificate == nil {
		return nil, models.Certificate{}, ErrCertificateNotFound
	}

	db := s.db.WithContext(ctx)
	var course models.Course
	if err := db.First(&course, courseID).Error; err != nil {
		return nil, models.Certificate{}, notFound(err, ErrCourseNotFound)
	}
	pdf, err := s.renderIfEligible(db, *res.Certificate, course)
	return pdf, *res.Certificate, err
}

// Verify is public: anyone holding a certificate number can check it.
func (s *CertificateService) Verify(ctx context.Context, number string) (CertificateVerification, error) {
	db := s.db.WithContext(ctx)

	var cert models.Certificate
	if err := db.Where("number = ?", strings.ToUpper(strings.TrimSpace(number))).Take(&cert).Error; err != nil {
		return CertificateVerification{}, notFound(err, ErrCertificateNotFound)
	}
	student, course, instructor, err := s.parties(db, cert)
	if err != nil {
		return CertificateVerification{}, err
	}
	progress, err := computeProgress(db, cert.StudentID, cert.CourseID)
	if err != nil && !errors.Is(err, ErrNotEnrolled) {
		return CertificateVerification{}, err
	}

	return CertificateVerification{
		Number:         cert.Number,
		Valid:          progress.EligibleForCertificate,
		StudentName:    student.FullName(),
		CourseID:       course.ID,
		CourseTitle:    course.Title,
		InstructorName: instructor.FullName(),
		IssuedAt:       cert.IssuedAt,
		VerifiedAt:     timeNow(),
	}, nil
}

func (s *CertificateService) renderIfEligible(db *gorm.DB, cert models.Certificate, course models.Course) ([]byte, error) {
	progress, err := computeProgress(db, cert.StudentID, cert.CourseID)
	if err != nil {
		if errors.Is(err, ErrNotEnrolled) {
			return nil, ErrCertificateNotFound
		}
		return nil, err
	}
	if !progress.EligibleForCertificate {
		return nil, ErrCertificateNotFound
	}

	student, _, instructor, err := s.parties(db, cert)
	if err != nil {
		return nil, err
	}
	return renderCertificatePDF(s.appName, cert, student, course, instructor)
}

func (s *CertificateService) parties(db *gorm.DB, cert models.Certificate) (student models.User, course models.Course, instructor models.User, err error) {
	if err = db.First(&student, cert.StudentID).Error; err != nil {
		err = notFound(err, ErrUserNotFound)
		return
	}
	if err = db.First(&course, cert.CourseID).Error; err != nil {
		err = notFound(err, ErrCourseNotFound)
		return
	}
	if err = db.First(&instructor, course.InstructorID).Error; err != nil {
		err = notFound(err, ErrUserNotFound)
	}
	return
}
