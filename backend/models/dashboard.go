package models

import "time"

type StudentStats struct {
	TotalCourses          int     `json:"total_courses"`
	CompletedCourses      int     `json:"completed_courses"`
	InProgressCourses     int     `json:"in_progress_courses"`
	TotalLessonsCompleted int64   `json:"total_lessons_completed"`
	TotalQuizAttempts     int64   `json:"total_quiz_attempts"`
	QuizPassRate          float64 `json:"quiz_pass_rate"`
}

type StudentDashboard struct {
	StudentID      uint             `json:"student_id"`
	Enrollments    []EnrolledCourse `json:"enrollments"`
	RecentAttempts []QuizAttempt    `json:"recent_quiz_attempts"`
	Certificates   []Certificate    `json:"certificates"`
	Stats          StudentStats     `json:"stats"`
}

type CourseStatistics struct {
	CourseID          uint    `json:"course_id"`
	CourseTitle       string  `json:"course_title"`
	TotalStudents     int     `json:"total_students"`
	CompletedStudents int     `json:"completed_students"`
	AverageProgress   float64 `json:"average_progress"`
	TotalLessons      int64   `json:"total_lessons"`
	TotalRevenue      int     `json:"total_revenue"`
}

type InstructorStats struct {
	TotalCourses      int   `json:"total_courses"`
	TotalStudents     int64 `json:"total_students"`
	TotalEnrollments  int64 `json:"total_enrollments"`
	RecentEnrollments int64 `json:"recent_enrollments"`
	RecentCompletions int64 `json:"recent_completions"`
	TotalRevenue      int   `json:"total_revenue"`
}

type Activity struct {
	Type        string    `json:"type"` // "lesson_completion", "quiz_attempt"
	StudentID   uint      `json:"student_id"`
	StudentName string    `json:"student_name"`
	CourseTitle string    `json:"course"`
	TargetTitle string    `json:"target"`
	Score       *float64  `json:"score,omitempty"`
	Passed      *bool     `json:"passed,omitempty"`
	At          time.Time `json:"completed_at"`
}

type InstructorDashboard struct {
	InstructorID     uint               `json:"instructor_id"`
	Stats            InstructorStats    `json:"overall_stats"`
	CourseStatistics []CourseStatistics `json:"course_statistics"`
	RecentActivity   []Activity         `json:"recent_activity"`
}
