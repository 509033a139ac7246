package services

import "lms/backend/models"

// Caller is the authenticated user on whose behalf an operation runs.
type Caller struct {
	ID   uint
	Role models.Role
}

type Operation string

const (
	OpManageCourse            Operation = "manage_course"
	OpManageLesson            Operation = "manage_lesson"
	OpManageQuiz              Operation = "manage_quiz"
	OpViewInstructorDashboard Operation = "view_instructor_dashboard"
	OpEnroll                  Operation = "enroll"
	OpCompleteLesson          Operation = "complete_lesson"
	OpAttemptQuiz             Operation = "attempt_quiz"
	OpViewProgress            Operation = "view_progress"
	OpViewStudentDashboard    Operation = "view_student_dashboard"
	OpDownloadCertificate     Operation = "download_certificate"
)

var capabilities = map[models.Role]map[Operation]bool{
	models.RoleInstructor: {
		OpManageCourse:            true,
		OpManageLesson:            true,
		OpManageQuiz:              true,
		OpViewInstructorDashboard: true,
		OpDownloadCertificate:     true,
	},
	models.RoleStudent: {
		OpEnroll:               true,
		OpCompleteLesson:       true,
		OpAttemptQuiz:          true,
		OpViewProgress:         true,
		OpViewStudentDashboard: true,
		OpDownloadCertificate:  true,
	},
}

// Authorize is a pure function of role and operation. Ownership of the
// touched records is checked separately by each service.
func Authorize(role models.Role, op Operation) error {
	if capabilities[role][op] {
		return nil
	}
	return ErrForbidden
}
