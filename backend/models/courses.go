package models

import "time"

type ContentType string

const (
	ContentText  ContentType = "text"
	ContentVideo ContentType = "video"
)

type Course struct {
	Model
	InstructorID  uint     `gorm:"index;not null" json:"instructor_id"`
	Title         string   `gorm:"not null" json:"title"`
	Description   string   `json:"description"`
	Category      string   `gorm:"index" json:"category"`
	Level         string   `json:"level"` // beginner, intermediate, advanced
	DurationHours float64  `json:"duration_hours"`
	Price         int      `json:"price"`
	IsPublished   bool     `json:"is_published"`
	Lessons       []Lesson `json:"lessons,omitempty"`
	Quiz          *Quiz    `json:"quiz,omitempty"`
}

type Lesson struct {
	Model
	CourseID        uint        `gorm:"index;not null" json:"course_id"`
	Title           string      `gorm:"not null" json:"title"`
	Description     string      `json:"description"`
	ContentType     ContentType `gorm:"not null;default:text" json:"content_type"`
	Content         string      `json:"content"` // text body, or the video url for video lessons
	SequenceOrder   int         `json:"order"`
	DurationMinutes int         `json:"duration_minutes"`
}

type Enrollment struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_enrollment_student_course" json:"student_id"`
	CourseID   uint      `gorm:"not null;uniqueIndex:idx_enrollment_student_course;index" json:"course_id"`
	EnrolledAt time.Time `gorm:"not null;index" json:"enrolled_at"`
}

type LessonCompletion struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	StudentID   uint      `gorm:"not null;uniqueIndex:idx_completion_student_lesson" json:"student_id"`
	LessonID    uint      `gorm:"not null;uniqueIndex:idx_completion_student_lesson" json:"lesson_id"`
	CourseID    uint      `gorm:"not null;index" json:"course_id"`
	CompletedAt time.Time `gorm:"not null;index" json:"completed_at"`
}

type Certificate struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_certificate_student_course" json:"student_id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_certificate_student_course;index" json:"course_id"`
	Number    string    `gorm:"not null;size:32;uniqueIndex" json:"certificate_number"`
	IssuedAt  time.Time `gorm:"not null" json:"issued_at"`
}
