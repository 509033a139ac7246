package services

import (
	"context"
	"math"

	"lms/backend/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Percentage returns completed/total as a percent rounded to two decimals.
// A course without lessons is at 0%.
func Percentage(completed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(completed) / float64(total) * 100)
}

// Eligible is the certificate predicate.
func Eligible(completed, total int64, quizPassed bool) bool {
	return total > 0 && completed == total && quizPassed
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CheckResult is the outcome of a progress check that may issue a certificate.
type CheckResult struct {
	Progress    models.CourseProgress `json:"progress"`
	Certificate *models.Certificate   `json:"certificate,omitempty"`
	// Issued is true only for the check that created the certificate.
	Issued bool `json:"certificate_issued"`
}

type ProgressService struct {
	db           *gorm.DB
	certificates *CertificateService
}

func NewProgressService(db *gorm.DB, certificates *CertificateService) *ProgressService {
	return &ProgressService{db: db, certificates: certificates}
}

// Compute derives the progress of an enrolled student. It has no side effects.
func (s *ProgressService) Compute(ctx context.Context, studentID, courseID uint) (models.CourseProgress, error) {
	return computeProgress(s.db.WithContext(ctx), studentID, courseID)
}

// Check computes progress for the caller and, when eligible, makes sure the
// certificate exists. The student is notified once, by the check that created it.
func (s *ProgressService) Check(ctx context.Context, caller Caller, courseID uint) (CheckResult, error) {
	if err := Authorize(caller.Role, OpViewProgress); err != nil {
		return CheckResult{}, err
	}

	var res CheckResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = s.check(tx, caller.ID, courseID)
		return err
	})
	if err != nil {
		return CheckResult{}, err
	}
	s.afterCommit(ctx, res)
	return res, nil
}

// ProgressDetail is a check result together with the finished lessons, read
// from the same snapshot.
type ProgressDetail struct {
	CheckResult
	CompletedLessons []uint `json:"completed_lessons"`
}

// Detail is Check plus the ids of the completed lessons, in one transaction.
func (s *ProgressService) Detail(ctx context.Context, caller Caller, courseID uint) (ProgressDetail, error) {
	if err := Authorize(caller.Role, OpViewProgress); err != nil {
		return ProgressDetail{}, err
	}

	var d ProgressDetail
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if d.CheckResult, err = s.check(tx, caller.ID, courseID); err != nil {
			return err
		}
		d.CompletedLessons, err = completedLessonIDs(tx, caller.ID, courseID)
		return err
	})
	if err != nil {
		return ProgressDetail{}, err
	}
	s.afterCommit(ctx, d.CheckResult)
	return d, nil
}

// check runs inside the caller's transaction.
func (s *ProgressService) check(tx *gorm.DB, studentID, courseID uint) (CheckResult, error) {
	progress, err := computeProgress(tx, studentID, courseID)
	if err != nil {
		return CheckResult{}, err
	}
	res := CheckResult{Progress: progress}
	if !progress.EligibleForCertificate {
		return res, nil
	}

	cert, created, err := s.certificates.EnsureIssued(tx, studentID, courseID)
	if err != nil {
		return CheckResult{}, err
	}
	res.Certificate = &cert
	res.Issued = created
	return res, nil
}

func (s *ProgressService) afterCommit(ctx context.Context, res CheckResult) {
	if res.Issued && res.Certificate != nil {
		s.certificates.announce(ctx, *res.Certificate)
	}
}

func computeProgress(db *gorm.DB, studentID, courseID uint) (models.CourseProgress, error) {
	var course models.Course
	if err := db.Select("id").First(&course, courseID).Error; err != nil {
		return models.CourseProgress{}, notFound(err, ErrCourseNotFound)
	}
	if err := requireEnrollment(db, studentID, courseID); err != nil {
		return models.CourseProgress{}, err
	}

	all, err := courseProgress(db, courseID, []uint{studentID})
	if err != nil {
		return models.CourseProgress{}, err
	}
	return all[studentID], nil
}

// courseProgress computes the progress of several students in one course
// with a fixed number of queries. Enrollment is the caller's concern.
func courseProgress(db *gorm.DB, courseID uint, studentIDs []uint) (map[uint]models.CourseProgress, error) {
	out := make(map[uint]models.CourseProgress, len(studentIDs))
	if len(studentIDs) == 0 {
		return out, nil
	}

	var total int64
	if err := db.Model(&models.Lesson{}).
		Where("course_id = ?", courseID).
		Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "count lessons")
	}

	// Joining on the current lessons drops completions of deleted lessons.
	var rows []struct {
		StudentID uint
		Completed int64
	}
	if err := db.Model(&models.LessonCompletion{}).
		Select("lesson_completions.student_id, COUNT(*) AS completed").
		Joins("JOIN lessons ON lessons.id = lesson_completions.lesson_id").
		Where("lesson_completions.student_id IN ? AND lessons.course_id = ? AND lessons.deleted_at IS NULL", studentIDs, courseID).
		Group("lesson_completions.student_id").
		Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "count completions")
	}
	completed := make(map[uint]int64, len(rows))
	for _, r := range rows {
		completed[r.StudentID] = r.Completed
	}

	passed, hasQuiz, err := latestQuizResults(db, courseID, studentIDs)
	if err != nil {
		return nil, err
	}

	for _, id := range studentIDs {
		p := models.CourseProgress{
			StudentID:      id,
			CourseID:       courseID,
			CompletedCount: completed[id],
			TotalCount:     total,
			HasQuiz:        hasQuiz,
			QuizPassed:     !hasQuiz || passed[id],
		}
		p.Percentage = Percentage(p.CompletedCount, p.TotalCount)
		p.EligibleForCertificate = Eligible(p.CompletedCount, p.TotalCount, p.QuizPassed)
		out[id] = p
	}
	return out, nil
}

// latestQuizResults applies the last-attempt-wins policy: the result of each
// student's most recent attempt, or absent if they never tried.
func latestQuizResults(db *gorm.DB, courseID uint, studentIDs []uint) (passed map[uint]bool, hasQuiz bool, err error) {
	var quiz models.Quiz
	if err := db.Select("id").Where("course_id = ?", courseID).Take(&quiz).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "query quiz")
	}

	var attempts []models.QuizAttempt
	if err := db.Select("student_id", "passed").
		Where("quiz_id = ? AND student_id IN ?", quiz.ID, studentIDs).
		Order("submitted_at DESC").
		Order("id DESC").
		Find(&attempts).Error; err != nil {
		return nil, true, errors.Wrap(err, "query attempts")
	}

	passed = make(map[uint]bool, len(studentIDs))
	seen := make(map[uint]bool, len(studentIDs))
	for _, a := range attempts {
		if seen[a.StudentID] {
			continue
		}
		seen[a.StudentID] = true
		passed[a.StudentID] = a.Passed
	}
	return passed, true, nil
}

// completedLessonIDs lists the current lessons of a course the student has
// finished, in completion order.
func completedLessonIDs(db *gorm.DB, studentID, courseID uint) ([]uint, error) {
	ids := []uint{}
	if err := db.Model(&models.LessonCompletion{}).
		Joins("JOIN lessons ON lessons.id = lesson_completions.lesson_id").
		Where("lesson_completions.student_id = ? AND lessons.course_id = ? AND lessons.deleted_at IS NULL", studentID, courseID).
		Order("lesson_completions.completed_at, lesson_completions.id").
		Pluck("lesson_completions.lesson_id", &ids).Error; err != nil {
		return nil, errors.Wrap(err, "list completions")
	}
	return ids, nil
}

func requireEnrollment(db *gorm.DB, studentID, courseID uint) error {
	var count int64
	if err := db.Model(&models.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&count).Error; err != nil {
		return errors.Wrap(err, "query enrollment")
	}
	if count == 0 {
		return ErrNotEnrolled
	}
	return nil
}
