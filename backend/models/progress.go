package models

import "time"

// CourseProgress is derived on demand from the lesson set, the completions and
// the latest quiz attempt. It is never stored.
type CourseProgress struct {
	StudentID              uint    `json:"student_id"`
	CourseID               uint    `json:"course_id"`
	CompletedCount         int64   `json:"completed_count"`
	TotalCount             int64   `json:"total_count"`
	Percentage             float64 `json:"percentage"`
	HasQuiz                bool    `json:"has_quiz"`
	QuizPassed             bool    `json:"quiz_passed"`
	EligibleForCertificate bool    `json:"eligible_for_certificate"`
}

type EnrolledCourse struct {
	CourseID    uint           `json:"course_id"`
	Title       string         `json:"title"`
	Category    string         `json:"category"`
	Level       string         `json:"level"`
	EnrolledAt  time.Time      `json:"enrolled_at"`
	Progress    CourseProgress `json:"progress"`
	NextLesson  *LessonRef     `json:"next_lesson,omitempty"`
	Certificate *Certificate   `json:"certificate,omitempty"`
}

type LessonRef struct {
	ID            uint   `json:"id"`
	Title         string `json:"title"`
	SequenceOrder int    `json:"order"`
}
