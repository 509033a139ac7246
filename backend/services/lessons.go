package services

import (
	"context"
	"strings"

	"lms/backend/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type LessonInput struct {
	CourseID        uint               `json:"course_id" validate:"required"`
	Title           string             `json:"title" validate:"required,max=200"`
	Description     string             `json:"description" validate:"max=2000"`
	ContentType     models.ContentType `json:"content_type" validate:"omitempty,oneof=text video"`
	Content         string             `json:"content"`
	SequenceOrder   int                `json:"order" validate:"gte=0"`
	DurationMinutes int                `json:"duration_minutes" validate:"gte=0"`
}

type LessonUpdate struct {
	Title           *string             `json:"title" validate:"omitempty,min=1,max=200"`
	Description     *string             `json:"description" validate:"omitempty,max=2000"`
	ContentType     *models.ContentType `json:"content_type" validate:"omitempty,oneof=text video"`
	Content         *string             `json:"content"`
	SequenceOrder   *int                `json:"order" validate:"omitempty,gte=0"`
	DurationMinutes *int                `json:"duration_minutes" validate:"omitempty,gte=0"`
}

type LessonService struct {
	db *gorm.DB
}

func NewLessonService(db *gorm.DB) *LessonService {
	return &LessonService{db: db}
}

// Create appends a lesson to an owned course. Without an explicit order the
// lesson goes last.
func (s *LessonService) Create(ctx context.Context, caller Caller, in LessonInput) (models.Lesson, error) {
	if err := Authorize(caller.Role, OpManageLesson); err != nil {
		return models.Lesson{}, err
	}

	lesson := models.Lesson{
		CourseID:        in.CourseID,
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		ContentType:     in.ContentType,
		Content:         in.Content,
		SequenceOrder:   in.SequenceOrder,
		DurationMinutes: in.DurationMinutes,
	}
	if lesson.ContentType == "" {
		lesson.ContentType = models.ContentText
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedCourse(tx, caller.ID, in.CourseID); err != nil {
			return err
		}
		if lesson.SequenceOrder == 0 {
			var last int
			if err := tx.Model(&models.Lesson{}).
				Where("course_id = ?", in.CourseID).
				Select("COALESCE(MAX(sequence_order), 0)").
				Scan(&last).Error; err != nil {
				return errors.Wrap(err, "query lesson order")
			}
			lesson.SequenceOrder = last + 1
		}
		return errors.Wrap(tx.Create(&lesson).Error, "create lesson")
	})
	if err != nil {
		return models.Lesson{}, err
	}
	return lesson, nil
}

// Get returns a lesson to its course's instructor or to an enrolled student.
func (s *LessonService) Get(ctx context.Context, caller Caller, id uint) (models.Lesson, error) {
	db := s.db.WithContext(ctx)

	var lesson models.Lesson
	if err := db.First(&lesson, id).Error; err != nil {
		return models.Lesson{}, notFound(err, ErrLessonNotFound)
	}
	if err := canReadCourse(db, caller, lesson.CourseID); err != nil {
		return models.Lesson{}, err
	}
	return lesson, nil
}

// List returns the lessons of a course in display order.
func (s *LessonService) List(ctx context.Context, caller Caller, courseID uint) ([]models.Lesson, error) {
	db := s.db.WithContext(ctx)
	if err := canReadCourse(db, caller, courseID); err != nil {
		return nil, err
	}

	lessons := []models.Lesson{}
	if err := db.Where("course_id = ?", courseID).
		Order("sequence_order, id").
		Find(&lessons).Error; err != nil {
		return nil, errors.Wrap(err, "list lessons")
	}
	return lessons, nil
}

func (s *LessonService) Update(ctx context.Context, caller Caller, id uint, in LessonUpdate) (models.Lesson, error) {
	if err := Authorize(caller.Role, OpManageLesson); err != nil {
		return models.Lesson{}, err
	}

	var lesson models.Lesson
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&lesson, id).Error; err != nil {
			return notFound(err, ErrLessonNotFound)
		}
		if _, err := ownedCourse(tx, caller.ID, lesson.CourseID); err != nil {
			return err
		}

		if in.Title != nil {
			lesson.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			lesson.Description = *in.Description
		}
		if in.ContentType != nil {
			lesson.ContentType = *in.ContentType
		}
		if in.Content != nil {
			lesson.Content = *in.Content
		}
		if in.SequenceOrder != nil {
			lesson.SequenceOrder = *in.SequenceOrder
		}
		if in.DurationMinutes != nil {
			lesson.DurationMinutes = *in.DurationMinutes
		}
		return errors.Wrap(tx.Save(&lesson).Error, "save lesson")
	})
	if err != nil {
		return models.Lesson{}, err
	}
	return lesson, nil
}

// Delete soft-deletes the lesson. Its completions stay but no longer count
// toward progress.
func (s *LessonService) Delete(ctx context.Context, caller Caller, id uint) error {
	if err := Authorize(caller.Role, OpManageLesson); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lesson models.Lesson
		if err := tx.First(&lesson, id).Error; err != nil {
			return notFound(err, ErrLessonNotFound)
		}
		if _, err := ownedCourse(tx, caller.ID, lesson.CourseID); err != nil {
			return err
		}
		return errors.Wrap(tx.Delete(&lesson).Error, "delete lesson")
	})
}

// canReadCourse lets the owning instructor and enrolled students through.
func canReadCourse(db *gorm.DB, caller Caller, courseID uint) error {
	switch caller.Role {
	case models.RoleInstructor:
		_, err := ownedCourse(db, caller.ID, courseID)
		return err
	case models.RoleStudent:
		var count int64
		if err := db.Model(&models.Course{}).Where("id = ?", courseID).Count(&count).Error; err != nil {
			return errors.Wrap(err, "query course")
		}
		if count == 0 {
			return ErrCourseNotFound
		}
		return requireEnrollment(db, caller.ID, courseID)
	default:
		return ErrForbidden
	}
}
