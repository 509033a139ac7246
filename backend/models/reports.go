package models

import "time"

// StudentProgressRow is one student's standing in one course, as seen by the
// course instructor.
type StudentProgressRow struct {
	StudentID         uint       `json:"student_id"`
	StudentName       string     `json:"student_name"`
	Username          string     `json:"username"`
	Email             string     `json:"email"`
	EnrolledAt        time.Time  `json:"enrollment_date"`
	CompletedLessons  int64      `json:"completed_lessons"`
	Percentage        float64    `json:"progress_percentage"`
	CourseCompleted   bool       `json:"course_completed"`
	AverageQuizScore  float64    `json:"avg_quiz_score"`
	TotalQuizAttempts int64      `json:"total_quiz_attempts"`
	LastActivity      *time.Time `json:"last_activity"`
	MinutesSpent      int        `json:"minutes_spent"`
}

type CourseReport struct {
	CourseID          uint                 `json:"course_id"`
	CourseTitle       string               `json:"course_title"`
	TotalStudents     int                  `json:"total_students"`
	CompletedStudents int                  `json:"completed_students"`
	CompletionRate    float64              `json:"completion_rate"`
	AverageProgress   float64              `json:"average_progress"`
	AverageQuizScore  float64              `json:"average_quiz_score"`
	Students          []StudentProgressRow `json:"student_progress"`
}

type ReportSummary struct {
	TotalCourses      int   `json:"total_courses"`
	TotalStudents     int64 `json:"total_students"`
	TotalEnrollments  int64 `json:"total_enrollments"`
	TotalCertificates int   `json:"total_certificates"`
}

type InstructorReport struct {
	InstructorID uint           `json:"instructor_id"`
	Courses      []CourseReport `json:"course_reports"`
	Summary      ReportSummary  `json:"summary"`
}

type StudentCourseReport struct {
	CourseID     uint           `json:"course_id"`
	CourseTitle  string         `json:"course_title"`
	EnrolledAt   time.Time      `json:"enrollment_date"`
	Progress     CourseProgress `json:"progress"`
	Attempts     []QuizAttempt  `json:"quiz_attempts"`
	LastActivity *time.Time     `json:"last_activity"`
	Certificate  *Certificate   `json:"certificate"`
}

type StudentReportSummary struct {
	TotalCourses      int `json:"total_courses"`
	CompletedCourses  int `json:"completed_courses"`
	InProgressCourses int `json:"in_progress_courses"`
	TotalCertificates int `json:"total_certificates"`
}

// StudentReport covers one student across the instructor's courses only.
type StudentReport struct {
	Student User                  `json:"student"`
	Courses []StudentCourseReport `json:"progress_by_course"`
	Summary StudentReportSummary  `json:"summary"`
}

// Progress buckets of CourseAnalytics.Distribution.
const (
	Bucket0to25  = "0-25%"
	Bucket26to50 = "26-50%"
	Bucket51to75 = "51-75%"
	Bucket76to99 = "76-99%"
	BucketDone   = "100%"
)

type Engagement struct {
	ActiveStudents   int     `json:"active_students"`
	InactiveStudents int     `json:"inactive_students"`
	ActivityRate     float64 `json:"activity_rate"`
}

type TimeAnalysis struct {
	TotalHours              float64 `json:"total_time_spent_hours"`
	AverageHours            float64 `json:"average_time_spent_hours"`
	AverageMinutesPerLesson float64 `json:"average_time_per_lesson_minutes"`
}

type QuizPerformance struct {
	QuizID        uint    `json:"quiz_id"`
	Title         string  `json:"title"`
	TotalAttempts int64   `json:"total_attempts"`
	AverageScore  float64 `json:"average_score"`
	PassRate      float64 `json:"pass_rate"`
	PassingScore  float64 `json:"passing_score"`
}

type CourseAnalytics struct {
	CourseID          uint             `json:"course_id"`
	Title             string           `json:"title"`
	TotalStudents     int              `json:"total_students"`
	CompletionRate    float64          `json:"completion_rate"`
	Distribution      map[string]int   `json:"progress_distribution"`
	Engagement        Engagement       `json:"engagement"`
	Time              TimeAnalysis     `json:"time_analysis"`
	Quiz              *QuizPerformance `json:"quiz_performance"`
	RecentCompletions int              `json:"recent_completions"`
}

// ActivityFeed is a caller's activity grouped by day (YYYY-MM-DD).
type ActivityFeed struct {
	UserID uint                  `json:"user_id"`
	Total  int                   `json:"total_activities"`
	ByDate map[string][]Activity `json:"activities_by_date"`
	Recent []Activity            `json:"recent_activities"`
}
