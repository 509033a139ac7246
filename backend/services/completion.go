package services

import (
	"context"

	"lms/backend/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CompletionService struct {
	db       *gorm.DB
	progress *ProgressService
}

func NewCompletionService(db *gorm.DB, progress *ProgressService) *CompletionService {
	return &CompletionService{db: db, progress: progress}
}

// MarkComplete records the lesson as done for the caller and re-evaluates the
// course in the same transaction. Marking a lesson twice is a no-op.
func (s *CompletionService) MarkComplete(ctx context.Context, caller Caller, lessonID uint) (CheckResult, error) {
	if err := Authorize(caller.Role, OpCompleteLesson); err != nil {
		return CheckResult{}, err
	}

	var res CheckResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lesson models.Lesson
		if err := tx.Select("id", "course_id").First(&lesson, lessonID).Error; err != nil {
			return notFound(err, ErrLessonNotFound)
		}
		if err := requireEnrollment(tx, caller.ID, lesson.CourseID); err != nil {
			return err
		}

		completion := models.LessonCompletion{
			StudentID:   caller.ID,
			LessonID:    lesson.ID,
			CourseID:    lesson.CourseID,
			CompletedAt: timeNow(),
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&completion).Error; err != nil {
			return errors.Wrap(err, "create completion")
		}

		var err error
		res, err = s.progress.check(tx, caller.ID, lesson.CourseID)
		return err
	})
	if err != nil {
		return CheckResult{}, err
	}
	s.progress.afterCommit(ctx, res)
	return res, nil
}

// Reset un-completes a lesson for the caller and re-evaluates the course. A
// certificate already on record stays stored but is no longer served while the
// course is incomplete. Resetting a lesson that was never completed is a no-op.
func (s *CompletionService) Reset(ctx context.Context, caller Caller, lessonID uint) (CheckResult, error) {
	if err := Authorize(caller.Role, OpCompleteLesson); err != nil {
		return CheckResult{}, err
	}

	var res CheckResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lesson models.Lesson
		if err := tx.Select("id", "course_id").First(&lesson, lessonID).Error; err != nil {
			return notFound(err, ErrLessonNotFound)
		}
		if err := requireEnrollment(tx, caller.ID, lesson.CourseID); err != nil {
			return err
		}

		if err := tx.Where("student_id = ? AND lesson_id = ?", caller.ID, lesson.ID).
			Delete(&models.LessonCompletion{}).Error; err != nil {
			return errors.Wrap(err, "delete completion")
		}

		var err error
		res, err = s.progress.check(tx, caller.ID, lesson.CourseID)
		return err
	})
	if err != nil {
		return CheckResult{}, err
	}
	s.progress.afterCommit(ctx, res)
	return res, nil
}
