package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionKind string

const (
	QuestionMultipleChoice QuestionKind = "mcq"
	QuestionTrueFalse      QuestionKind = "tf"
	QuestionShortAnswer    QuestionKind = "sa"
)

type Quiz struct {
	Model
	CourseID     uint       `gorm:"not null;uniqueIndex" json:"course_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	PassingScore float64    `json:"passing_score"` // percent
	Questions    []Question `json:"questions,omitempty"`
}

type Question struct {
	Model
	QuizID        uint           `gorm:"index;not null" json:"quiz_id"`
	Kind          QuestionKind   `gorm:"not null;default:mcq" json:"kind"`
	Text          string         `gorm:"not null" json:"text"`
	Options       datatypes.JSON `json:"options"` // JSON array of options
	CorrectAnswer string         `gorm:"not null" json:"correct_answer,omitempty"`
	Points        int            `gorm:"not null;default:1" json:"points"`
	SequenceOrder int            `json:"order"`
}

type QuizAttempt struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	StudentID   uint           `gorm:"not null;index:idx_attempt_student_quiz" json:"student_id"`
	QuizID      uint           `gorm:"not null;index:idx_attempt_student_quiz" json:"quiz_id"`
	Answers     datatypes.JSON `json:"answers"`
	Score       float64        `json:"score"`
	Passed      bool           `json:"passed"`
	SubmittedAt time.Time      `gorm:"not null;index" json:"submitted_at"`
}
