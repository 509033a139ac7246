package services

import (
	"context"
	"time"

	"lms/backend/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentService struct {
	db *gorm.DB
}

func NewEnrollmentService(db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{db: db}
}

// Enroll registers the student in a published course. The unique index on
// (student, course) decides duplicates.
func (s *EnrollmentService) Enroll(ctx context.Context, caller Caller, courseID uint) (models.Enrollment, error) {
	if err := Authorize(caller.Role, OpEnroll); err != nil {
		return models.Enrollment{}, err
	}

	enrollment := models.Enrollment{
		StudentID:  caller.ID,
		CourseID:   courseID,
		EnrolledAt: timeNow(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course models.Course
		if err := tx.Select("id", "is_published").First(&course, courseID).Error; err != nil {
			return notFound(err, ErrCourseNotFound)
		}
		if !course.IsPublished {
			return ErrCourseNotFound
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&enrollment)
		if res.Error != nil {
			return errors.Wrap(res.Error, "create enrollment")
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyEnrolled
		}
		return nil
	})
	if err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

// Enrolled lists the student's courses with their current progress.
func (s *EnrollmentService) Enrolled(ctx context.Context, caller Caller) ([]models.EnrolledCourse, error) {
	if err := Authorize(caller.Role, OpViewProgress); err != nil {
		return nil, err
	}
	return enrolledCourses(s.db.WithContext(ctx), caller.ID)
}

// Available lists the published courses the student is not enrolled in.
func (s *EnrollmentService) Available(ctx context.Context, caller Caller, f CourseFilter) ([]models.Course, error) {
	if err := Authorize(caller.Role, OpEnroll); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	enrolled := db.Model(&models.Enrollment{}).Select("course_id").Where("student_id = ?", caller.ID)
	q := db.Model(&models.Course{}).
		Where("is_published = ?", true).
		Where("courses.id NOT IN (?)", enrolled)
	q = applyCourseFilter(q, f)

	courses := []models.Course{}
	if err := q.Order("created_at DESC, id DESC").Find(&courses).Error; err != nil {
		return nil, errors.Wrap(err, "list available courses")
	}
	return courses, nil
}

// enrolledCourses is shared with the student dashboard.
func enrolledCourses(db *gorm.DB, studentID uint) ([]models.EnrolledCourse, error) {
	var rows []struct {
		CourseID   uint
		Title      string
		Category   string
		Level      string
		EnrolledAt time.Time
	}
	if err := db.Table("enrollments").
		Select("enrollments.course_id, courses.title, courses.category, courses.level, enrollments.enrolled_at").
		Joins("JOIN courses ON courses.id = enrollments.course_id AND courses.deleted_at IS NULL").
		Where("enrollments.student_id = ?", studentID).
		Order("enrollments.enrolled_at DESC, enrollments.id DESC").
		Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list enrollments")
	}

	out := make([]models.EnrolledCourse, 0, len(rows))
	for _, r := range rows {
		progress, err := computeProgress(db, studentID, r.CourseID)
		if err != nil {
			return nil, err
		}
		next, err := nextLesson(db, studentID, r.CourseID)
		if err != nil {
			return nil, err
		}

		ec := models.EnrolledCourse{
			CourseID:   r.CourseID,
			Title:      r.Title,
			Category:   r.Category,
			Level:      r.Level,
			EnrolledAt: r.EnrolledAt,
			Progress:   progress,
			NextLesson: next,
		}
		if progress.EligibleForCertificate {
			var cert models.Certificate
			err := db.Where("student_id = ? AND course_id = ?", studentID, r.CourseID).Take(&cert).Error
			switch {
			case err == nil:
				ec.Certificate = &cert
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return nil, errors.Wrap(err, "query certificate")
			}
		}
		out = append(out, ec)
	}
	return out, nil
}

// nextLesson is the first lesson in display order the student has not completed.
func nextLesson(db *gorm.DB, studentID, courseID uint) (*models.LessonRef, error) {
	done := db.Model(&models.LessonCompletion{}).Select("lesson_id").Where("student_id = ?", studentID)

	var lesson models.Lesson
	err := db.Select("id", "title", "sequence_order").
		Where("course_id = ?", courseID).
		Where("id NOT IN (?)", done).
		Order("sequence_order, id").
		Take(&lesson).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "query next lesson")
	}
	return &models.LessonRef{ID: lesson.ID, Title: lesson.Title, SequenceOrder: lesson.SequenceOrder}, nil
}
