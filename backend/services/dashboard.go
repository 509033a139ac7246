package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"lms/backend/models"

	"github.com/jinzhu/now"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	recentActivityLimit = 15
	recentAttemptsLimit = 5
	recentWindowDays    = 7
)

type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// recentSince is the start of the reporting window, midnight seven days ago.
func recentSince() time.Time {
	return now.With(timeNow()).BeginningOfDay().AddDate(0, 0, -recentWindowDays)
}

func (s *DashboardService) Student(ctx context.Context, caller Caller) (models.StudentDashboard, error) {
	if err := Authorize(caller.Role, OpViewStudentDashboard); err != nil {
		return models.StudentDashboard{}, err
	}
	db := s.db.WithContext(ctx)

	d := models.StudentDashboard{
		StudentID:      caller.ID,
		RecentAttempts: []models.QuizAttempt{},
		Certificates:   []models.Certificate{},
	}

	var err error
	if d.Enrollments, err = enrolledCourses(db, caller.ID); err != nil {
		return models.StudentDashboard{}, err
	}

	if err := db.Where("student_id = ?", caller.ID).
		Order("submitted_at DESC, id DESC").
		Limit(recentAttemptsLimit).
		Find(&d.RecentAttempts).Error; err != nil {
		return models.StudentDashboard{}, errors.Wrap(err, "list attempts")
	}

	st := &d.Stats
	st.TotalCourses = len(d.Enrollments)
	for _, e := range d.Enrollments {
		if e.Progress.EligibleForCertificate {
			st.CompletedCourses++
		} else {
			st.InProgressCourses++
		}
		st.TotalLessonsCompleted += e.Progress.CompletedCount
		// enrolledCourses attaches a certificate only while the course is complete
		if e.Certificate != nil {
			d.Certificates = append(d.Certificates, *e.Certificate)
		}
	}
	sort.SliceStable(d.Certificates, func(i, j int) bool {
		return d.Certificates[i].IssuedAt.After(d.Certificates[j].IssuedAt)
	})

	var attempts struct {
		Total  int64
		Passed int64
	}
	if err := db.Model(&models.QuizAttempt{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN passed THEN 1 ELSE 0 END), 0) AS passed").
		Where("student_id = ?", caller.ID).
		Scan(&attempts).Error; err != nil {
		return models.StudentDashboard{}, errors.Wrap(err, "count attempts")
	}
	st.TotalQuizAttempts = attempts.Total
	if attempts.Total > 0 {
		st.QuizPassRate = round2(float64(attempts.Passed) / float64(attempts.Total) * 100)
	}
	return d, nil
}

func (s *DashboardService) Instructor(ctx context.Context, caller Caller) (models.InstructorDashboard, error) {
	if err := Authorize(caller.Role, OpViewInstructorDashboard); err != nil {
		return models.InstructorDashboard{}, err
	}
	db := s.db.WithContext(ctx)

	d := models.InstructorDashboard{
		InstructorID:     caller.ID,
		CourseStatistics: []models.CourseStatistics{},
		RecentActivity:   []models.Activity{},
	}

	var courses []models.Course
	if err := db.Where("instructor_id = ?", caller.ID).Order("created_at DESC, id DESC").Find(&courses).Error; err != nil {
		return models.InstructorDashboard{}, errors.Wrap(err, "list courses")
	}
	d.Stats.TotalCourses = len(courses)
	if len(courses) == 0 {
		return d, nil
	}

	courseIDs := make([]uint, 0, len(courses))
	for _, c := range courses {
		cs, err := courseStatistics(db, c)
		if err != nil {
			return models.InstructorDashboard{}, err
		}
		d.CourseStatistics = append(d.CourseStatistics, cs)
		d.Stats.TotalEnrollments += int64(cs.TotalStudents)
		d.Stats.TotalRevenue += cs.TotalRevenue
		courseIDs = append(courseIDs, c.ID)
	}

	since := recentSince()
	if err := db.Model(&models.Enrollment{}).
		Where("course_id IN ?", courseIDs).
		Distinct("student_id").
		Count(&d.Stats.TotalStudents).Error; err != nil {
		return models.InstructorDashboard{}, errors.Wrap(err, "count students")
	}
	if err := db.Model(&models.Enrollment{}).
		Where("course_id IN ? AND enrolled_at >= ?", courseIDs, since).
		Count(&d.Stats.RecentEnrollments).Error; err != nil {
		return models.InstructorDashboard{}, errors.Wrap(err, "count recent enrollments")
	}
	if err := db.Model(&models.LessonCompletion{}).
		Where("course_id IN ? AND completed_at >= ?", courseIDs, since).
		Count(&d.Stats.RecentCompletions).Error; err != nil {
		return models.InstructorDashboard{}, errors.Wrap(err, "count recent completions")
	}

	activity, err := recentActivity(db, activityFilter{courseIDs: courseIDs, limit: recentActivityLimit})
	if err != nil {
		return models.InstructorDashboard{}, err
	}
	d.RecentActivity = activity
	return d, nil
}

func courseStatistics(db *gorm.DB, c models.Course) (models.CourseStatistics, error) {
	cs := models.CourseStatistics{CourseID: c.ID, CourseTitle: c.Title}

	var studentIDs []uint
	if err := db.Model(&models.Enrollment{}).Where("course_id = ?", c.ID).Pluck("student_id", &studentIDs).Error; err != nil {
		return cs, errors.Wrap(err, "list enrollments")
	}
	if err := db.Model(&models.Lesson{}).Where("course_id = ?", c.ID).Count(&cs.TotalLessons).Error; err != nil {
		return cs, errors.Wrap(err, "count lessons")
	}

	cs.TotalStudents = len(studentIDs)
	cs.TotalRevenue = c.Price * len(studentIDs)
	if len(studentIDs) == 0 {
		return cs, nil
	}

	progress, err := courseProgress(db, c.ID, studentIDs)
	if err != nil {
		return cs, err
	}
	var sum float64
	for _, p := range progress {
		sum += p.Percentage
		if p.EligibleForCertificate {
			cs.CompletedStudents++
		}
	}
	cs.AverageProgress = round2(sum / float64(len(studentIDs)))
	return cs, nil
}

type activityRow struct {
	StudentID   uint
	Username    string
	FirstName   string
	LastName    string
	CourseTitle string
	TargetTitle string
	Score       float64
	Passed      bool
	At          time.Time
}

func (r activityRow) studentName() string {
	return models.User{Username: r.Username, FirstName: r.FirstName, LastName: r.LastName}.FullName()
}

type activityFilter struct {
	courseIDs []uint
	studentID uint
	since     time.Time
	limit     int
}

func (f activityFilter) apply(q *gorm.DB, table, atColumn string) *gorm.DB {
	if f.courseIDs != nil {
		q = q.Where("courses.id IN ?", f.courseIDs)
	}
	if f.studentID != 0 {
		q = q.Where(table+".student_id = ?", f.studentID)
	}
	if !f.since.IsZero() {
		q = q.Where(table+"."+atColumn+" >= ?", f.since)
	}
	return q.Order(table + "." + atColumn + " DESC").Limit(f.limit)
}

// recentActivity merges lesson completions and quiz attempts matching f,
// newest first.
func recentActivity(db *gorm.DB, f activityFilter) ([]models.Activity, error) {
	var completions []activityRow
	q := db.Table("lesson_completions").
		Select(strings.Join([]string{
			"lesson_completions.student_id",
			"users.username", "users.first_name", "users.last_name",
			"courses.title AS course_title",
			"lessons.title AS target_title",
			"lesson_completions.completed_at AS at",
		}, ", ")).
		Joins("JOIN lessons ON lessons.id = lesson_completions.lesson_id").
		Joins("JOIN courses ON courses.id = lesson_completions.course_id AND courses.deleted_at IS NULL").
		Joins("JOIN users ON users.id = lesson_completions.student_id")
	if err := f.apply(q, "lesson_completions", "completed_at").Scan(&completions).Error; err != nil {
		return nil, errors.Wrap(err, "recent completions")
	}

	var attempts []activityRow
	q = db.Table("quiz_attempts").
		Select(strings.Join([]string{
			"quiz_attempts.student_id",
			"users.username", "users.first_name", "users.last_name",
			"courses.title AS course_title",
			"quizzes.title AS target_title",
			"quiz_attempts.score", "quiz_attempts.passed",
			"quiz_attempts.submitted_at AS at",
		}, ", ")).
		Joins("JOIN quizzes ON quizzes.id = quiz_attempts.quiz_id").
		Joins("JOIN courses ON courses.id = quizzes.course_id AND courses.deleted_at IS NULL").
		Joins("JOIN users ON users.id = quiz_attempts.student_id")
	if err := f.apply(q, "quiz_attempts", "submitted_at").Scan(&attempts).Error; err != nil {
		return nil, errors.Wrap(err, "recent attempts")
	}

	out := make([]models.Activity, 0, len(completions)+len(attempts))
	for _, r := range completions {
		out = append(out, models.Activity{
			Type:        "lesson_completion",
			StudentID:   r.StudentID,
			StudentName: r.studentName(),
			CourseTitle: r.CourseTitle,
			TargetTitle: r.TargetTitle,
			At:          r.At,
		})
	}
	for _, r := range attempts {
		score, passed := r.Score, r.Passed
		out = append(out, models.Activity{
			Type:        "quiz_attempt",
			StudentID:   r.StudentID,
			StudentName: r.studentName(),
			CourseTitle: r.CourseTitle,
			TargetTitle: r.TargetTitle,
			Score:       &score,
			Passed:      &passed,
			At:          r.At,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	if len(out) > f.limit {
		out = out[:f.limit]
	}
	return out, nil
}
