package services

import (
	"log"
	"time"

	"lms/backend/mail"

	"gorm.io/gorm"
)

// timeNow is the single clock used for every stored timestamp.
var timeNow = func() time.Time {
	return time.Now().UTC()
}

type Services struct {
	Users        *UserService
	Courses      *CourseService
	Lessons      *LessonService
	Enrollments  *EnrollmentService
	Completions  *CompletionService
	Quizzes      *QuizService
	Progress     *ProgressService
	Certificates *CertificateService
	Dashboards   *DashboardService
}

func New(db *gorm.DB, logger *log.Logger, sender mail.Sender, appName string) *Services {
	certificates := NewCertificateService(db, logger, sender, appName)
	progress := NewProgressService(db, certificates)
	certificates.progress = progress

	return &Services{
		Users:        NewUserService(db),
		Courses:      NewCourseService(db),
		Lessons:      NewLessonService(db),
		Enrollments:  NewEnrollmentService(db),
		Completions:  NewCompletionService(db, progress),
		Quizzes:      NewQuizService(db, progress),
		Progress:     progress,
		Certificates: certificates,
		Dashboards:   NewDashboardService(db),
	}
}
