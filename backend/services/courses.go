package services

import (
	"context"
	"strings"

	"lms/backend/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type CourseInput struct {
	Title         string  `json:"title" validate:"required,max=200"`
	Description   string  `json:"description" validate:"max=10000"`
	Category      string  `json:"category" validate:"max=100"`
	Level         string  `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	DurationHours float64 `json:"duration_hours" validate:"gte=0"`
	Price         int     `json:"price" validate:"gte=0"`
	IsPublished   *bool   `json:"is_published"`
}

type CourseUpdate struct {
	Title         *string  `json:"title" validate:"omitempty,min=1,max=200"`
	Description   *string  `json:"description" validate:"omitempty,max=10000"`
	Category      *string  `json:"category" validate:"omitempty,max=100"`
	Level         *string  `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	DurationHours *float64 `json:"duration_hours" validate:"omitempty,gte=0"`
	Price         *int     `json:"price" validate:"omitempty,gte=0"`
	IsPublished   *bool    `json:"is_published"`
}

type CourseFilter struct {
	Search   string
	Category string
}

type CourseService struct {
	db *gorm.DB
}

func NewCourseService(db *gorm.DB) *CourseService {
	return &CourseService{db: db}
}

func (s *CourseService) Create(ctx context.Context, caller Caller, in CourseInput) (models.Course, error) {
	if err := Authorize(caller.Role, OpManageCourse); err != nil {
		return models.Course{}, err
	}

	course := models.Course{
		InstructorID:  caller.ID,
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		Category:      in.Category,
		Level:         in.Level,
		DurationHours: in.DurationHours,
		Price:         in.Price,
		IsPublished:   true,
	}
	if in.IsPublished != nil {
		course.IsPublished = *in.IsPublished
	}
	if course.Level == "" {
		course.Level = "beginner"
	}

	if err := s.db.WithContext(ctx).Create(&course).Error; err != nil {
		return models.Course{}, errors.Wrap(err, "create course")
	}
	return course, nil
}

// Get returns a course with its lessons. Students see only published courses
// and receive the lessons only when enrolled; instructors see only their own.
func (s *CourseService) Get(ctx context.Context, caller Caller, id uint) (models.Course, error) {
	db := s.db.WithContext(ctx)

	var course models.Course
	if err := db.First(&course, id).Error; err != nil {
		return models.Course{}, notFound(err, ErrCourseNotFound)
	}

	switch caller.Role {
	case models.RoleInstructor:
		if course.InstructorID != caller.ID {
			return models.Course{}, ErrNotOwner
		}
	case models.RoleStudent:
		if !course.IsPublished {
			return models.Course{}, ErrCourseNotFound
		}
		if err := requireEnrollment(db, caller.ID, course.ID); err != nil {
			if errors.Is(err, ErrNotEnrolled) {
				return course, nil
			}
			return models.Course{}, err
		}
	default:
		return models.Course{}, ErrForbidden
	}

	if err := db.Where("course_id = ?", course.ID).
		Order("sequence_order, id").
		Find(&course.Lessons).Error; err != nil {
		return models.Course{}, errors.Wrap(err, "query lessons")
	}
	return course, nil
}

// List returns the instructor's own courses, or the published catalogue for students.
func (s *CourseService) List(ctx context.Context, caller Caller, f CourseFilter) ([]models.Course, error) {
	q := s.db.WithContext(ctx).Model(&models.Course{})

	switch caller.Role {
	case models.RoleInstructor:
		q = q.Where("instructor_id = ?", caller.ID)
	case models.RoleStudent:
		q = q.Where("is_published = ?", true)
	default:
		return nil, ErrForbidden
	}
	q = applyCourseFilter(q, f)

	courses := []models.Course{}
	if err := q.Order("created_at DESC, id DESC").Find(&courses).Error; err != nil {
		return nil, errors.Wrap(err, "list courses")
	}
	return courses, nil
}

func (s *CourseService) Update(ctx context.Context, caller Caller, id uint, in CourseUpdate) (models.Course, error) {
	if err := Authorize(caller.Role, OpManageCourse); err != nil {
		return models.Course{}, err
	}

	var course models.Course
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if course, err = ownedCourse(tx, caller.ID, id); err != nil {
			return err
		}

		if in.Title != nil {
			course.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			course.Description = *in.Description
		}
		if in.Category != nil {
			course.Category = *in.Category
		}
		if in.Level != nil {
			course.Level = *in.Level
		}
		if in.DurationHours != nil {
			course.DurationHours = *in.DurationHours
		}
		if in.Price != nil {
			course.Price = *in.Price
		}
		if in.IsPublished != nil {
			course.IsPublished = *in.IsPublished
		}
		return errors.Wrap(tx.Save(&course).Error, "save course")
	})
	if err != nil {
		return models.Course{}, err
	}
	return course, nil
}

// Delete removes the course together with everything that hangs off it.
func (s *CourseService) Delete(ctx context.Context, caller Caller, id uint) error {
	if err := Authorize(caller.Role, OpManageCourse); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := ownedCourse(tx, caller.ID, id)
		if err != nil {
			return err
		}

		var quizIDs []uint
		if err := tx.Model(&models.Quiz{}).Where("course_id = ?", course.ID).Pluck("id", &quizIDs).Error; err != nil {
			return errors.Wrap(err, "query quiz")
		}
		if len(quizIDs) > 0 {
			if err := tx.Where("quiz_id IN ?", quizIDs).Delete(&models.QuizAttempt{}).Error; err != nil {
				return errors.Wrap(err, "delete attempts")
			}
			if err := tx.Where("quiz_id IN ?", quizIDs).Delete(&models.Question{}).Error; err != nil {
				return errors.Wrap(err, "delete questions")
			}
			if err := tx.Delete(&models.Quiz{}, quizIDs).Error; err != nil {
				return errors.Wrap(err, "delete quiz")
			}
		}

		for _, m := range []interface{}{
			&models.Certificate{},
			&models.LessonCompletion{},
			&models.Enrollment{},
			&models.Lesson{},
		} {
			if err := tx.Where("course_id = ?", course.ID).Delete(m).Error; err != nil {
				return errors.Wrapf(err, "delete %T", m)
			}
		}

		return errors.Wrap(tx.Delete(&course).Error, "delete course")
	})
}

func applyCourseFilter(q *gorm.DB, f CourseFilter) *gorm.DB {
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(courses.title) LIKE ? OR LOWER(courses.description) LIKE ? OR LOWER(courses.category) LIKE ?", like, like, like)
	}
	if f.Category != "" {
		q = q.Where("courses.category = ?", f.Category)
	}
	return q
}

// ownedCourse loads a course and checks the instructor owns it.
func ownedCourse(db *gorm.DB, instructorID, courseID uint) (models.Course, error) {
	var course models.Course
	if err := db.First(&course, courseID).Error; err != nil {
		return models.Course{}, notFound(err, ErrCourseNotFound)
	}
	if course.InstructorID != instructorID {
		return models.Course{}, ErrNotOwner
	}
	return course, nil
}
