package services

import (
	"context"
	"time"

	"lms/backend/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	feedLimit            = 30
	feedRecentLimit      = 10
	instructorFeedLimit  = 20
	recentCompletionDays = 30
)

// studentActivity aggregates what one student did in one course.
type studentActivity struct {
	minutes  int
	attempts int64
	scoreSum float64
	last     *time.Time
}

func (a *studentActivity) touch(at time.Time) {
	if a.last == nil || at.After(*a.last) {
		t := at
		a.last = &t
	}
}

func (a *studentActivity) averageScore() float64 {
	if a.attempts == 0 {
		return 0
	}
	return round2(a.scoreSum / float64(a.attempts))
}

// courseActivity reads completions of current lessons and quiz attempts of the
// given students in one course. Every student id gets an entry.
func courseActivity(db *gorm.DB, courseID uint, studentIDs []uint) (map[uint]*studentActivity, error) {
	out := make(map[uint]*studentActivity, len(studentIDs))
	for _, id := range studentIDs {
		out[id] = &studentActivity{}
	}
	if len(studentIDs) == 0 {
		return out, nil
	}

	var completions []struct {
		StudentID uint
		Minutes   int
		At        time.Time
	}
	if err := db.Table("lesson_completions").
		Select("lesson_completions.student_id, lessons.duration_minutes AS minutes, lesson_completions.completed_at AS at").
		Joins("JOIN lessons ON lessons.id = lesson_completions.lesson_id AND lessons.deleted_at IS NULL").
		Where("lessons.course_id = ? AND lesson_completions.student_id IN ?", courseID, studentIDs).
		Scan(&completions).Error; err != nil {
		return nil, errors.Wrap(err, "list completions")
	}
	for _, c := range completions {
		a := out[c.StudentID]
		a.minutes += c.Minutes
		a.touch(c.At)
	}

	var attempts []struct {
		StudentID uint
		Score     float64
		At        time.Time
	}
	if err := db.Table("quiz_attempts").
		Select("quiz_attempts.student_id, quiz_attempts.score, quiz_attempts.submitted_at AS at").
		Joins("JOIN quizzes ON quizzes.id = quiz_attempts.quiz_id AND quizzes.deleted_at IS NULL").
		Where("quizzes.course_id = ? AND quiz_attempts.student_id IN ?", courseID, studentIDs).
		Scan(&attempts).Error; err != nil {
		return nil, errors.Wrap(err, "list attempts")
	}
	for _, at := range attempts {
		a := out[at.StudentID]
		a.attempts++
		a.scoreSum += at.Score
		a.touch(at.At)
	}
	return out, nil
}

type enrolledStudent struct {
	StudentID  uint
	Username   string
	FirstName  string
	LastName   string
	Email      string
	EnrolledAt time.Time
}

func courseStudents(db *gorm.DB, courseID uint) ([]enrolledStudent, []uint, error) {
	var rows []enrolledStudent
	if err := db.Table("enrollments").
		Select("enrollments.student_id, users.username, users.first_name, users.last_name, users.email, enrollments.enrolled_at").
		Joins("JOIN users ON users.id = enrollments.student_id AND users.deleted_at IS NULL").
		Where("enrollments.course_id = ?", courseID).
		Order("enrollments.enrolled_at, enrollments.id").
		Scan(&rows).Error; err != nil {
		return nil, nil, errors.Wrap(err, "list enrollments")
	}
	ids := make([]uint, len(rows))
	for i, r := range rows {
		ids[i] = r.StudentID
	}
	return rows, ids, nil
}

// StudentReports lists the progress of every student in each of the
// instructor's courses.
func (s *DashboardService) StudentReports(ctx context.Context, caller Caller) (models.InstructorReport, error) {
	if err := Authorize(caller.Role, OpViewInstructorDashboard); err != nil {
		return models.InstructorReport{}, err
	}
	db := s.db.WithContext(ctx)

	r := models.InstructorReport{InstructorID: caller.ID, Courses: []models.CourseReport{}}

	var courses []models.Course
	if err := db.Where("instructor_id = ?", caller.ID).Order("created_at DESC, id DESC").Find(&courses).Error; err != nil {
		return models.InstructorReport{}, errors.Wrap(err, "list courses")
	}
	r.Summary.TotalCourses = len(courses)

	courseIDs := make([]uint, 0, len(courses))
	for _, c := range courses {
		cr, err := courseReport(db, c)
		if err != nil {
			return models.InstructorReport{}, err
		}
		r.Courses = append(r.Courses, cr)
		r.Summary.TotalEnrollments += int64(cr.TotalStudents)
		r.Summary.TotalCertificates += cr.CompletedStudents
		courseIDs = append(courseIDs, c.ID)
	}
	if len(courseIDs) == 0 {
		return r, nil
	}

	if err := db.Model(&models.Enrollment{}).
		Where("course_id IN ?", courseIDs).
		Distinct("student_id").
		Count(&r.Summary.TotalStudents).Error; err != nil {
		return models.InstructorReport{}, errors.Wrap(err, "count students")
	}
	return r, nil
}

func courseReport(db *gorm.DB, c models.Course) (models.CourseReport, error) {
	cr := models.CourseReport{CourseID: c.ID, CourseTitle: c.Title, Students: []models.StudentProgressRow{}}

	students, ids, err := courseStudents(db, c.ID)
	if err != nil {
		return cr, err
	}
	progress, err := courseProgress(db, c.ID, ids)
	if err != nil {
		return cr, err
	}
	activity, err := courseActivity(db, c.ID, ids)
	if err != nil {
		return cr, err
	}

	var progressSum, scoreSum float64
	var attempts int64
	for _, st := range students {
		p, a := progress[st.StudentID], activity[st.StudentID]
		cr.Students = append(cr.Students, models.StudentProgressRow{
			StudentID:         st.StudentID,
			StudentName:       models.User{Username: st.Username, FirstName: st.FirstName, LastName: st.LastName}.FullName(),
			Username:          st.Username,
			Email:             st.Email,
			EnrolledAt:        st.EnrolledAt,
			CompletedLessons:  p.CompletedCount,
			Percentage:        p.Percentage,
			CourseCompleted:   p.EligibleForCertificate,
			AverageQuizScore:  a.averageScore(),
			TotalQuizAttempts: a.attempts,
			LastActivity:      a.last,
			MinutesSpent:      a.minutes,
		})
		progressSum += p.Percentage
		scoreSum += a.scoreSum
		attempts += a.attempts
		if p.EligibleForCertificate {
			cr.CompletedStudents++
		}
	}

	cr.TotalStudents = len(students)
	if cr.TotalStudents > 0 {
		cr.CompletionRate = round2(float64(cr.CompletedStudents) / float64(cr.TotalStudents) * 100)
		cr.AverageProgress = round2(progressSum / float64(cr.TotalStudents))
	}
	if attempts > 0 {
		cr.AverageQuizScore = round2(scoreSum / float64(attempts))
	}
	return cr, nil
}

// StudentReport shows one student's progress in the instructor's courses.
// Students outside those courses are still found, with an empty report.
func (s *DashboardService) StudentReport(ctx context.Context, caller Caller, studentID uint) (models.StudentReport, error) {
	if err := Authorize(caller.Role, OpViewInstructorDashboard); err != nil {
		return models.StudentReport{}, err
	}
	db := s.db.WithContext(ctx)

	var student models.User
	if err := db.First(&student, studentID).Error; err != nil {
		return models.StudentReport{}, notFound(err, ErrUserNotFound)
	}
	if !student.IsStudent() {
		return models.StudentReport{}, ErrUserNotFound
	}

	r := models.StudentReport{Student: student, Courses: []models.StudentCourseReport{}}

	var rows []struct {
		CourseID    uint
		CourseTitle string
		EnrolledAt  time.Time
	}
	if err := db.Table("enrollments").
		Select("enrollments.course_id, courses.title AS course_title, enrollments.enrolled_at").
		Joins("JOIN courses ON courses.id = enrollments.course_id AND courses.deleted_at IS NULL").
		Where("enrollments.student_id = ? AND courses.instructor_id = ?", studentID, caller.ID).
		Order("enrollments.enrolled_at, enrollments.id").
		Scan(&rows).Error; err != nil {
		return models.StudentReport{}, errors.Wrap(err, "list enrollments")
	}

	for _, row := range rows {
		progress, err := courseProgress(db, row.CourseID, []uint{studentID})
		if err != nil {
			return models.StudentReport{}, err
		}
		activity, err := courseActivity(db, row.CourseID, []uint{studentID})
		if err != nil {
			return models.StudentReport{}, err
		}
		p := progress[studentID]

		cr := models.StudentCourseReport{
			CourseID:     row.CourseID,
			CourseTitle:  row.CourseTitle,
			EnrolledAt:   row.EnrolledAt,
			Progress:     p,
			Attempts:     []models.QuizAttempt{},
			LastActivity: activity[studentID].last,
		}
		if err := db.Joins("JOIN quizzes ON quizzes.id = quiz_attempts.quiz_id").
			Where("quizzes.course_id = ? AND quiz_attempts.student_id = ?", row.CourseID, studentID).
			Order("quiz_attempts.submitted_at DESC, quiz_attempts.id DESC").
			Find(&cr.Attempts).Error; err != nil {
			return models.StudentReport{}, errors.Wrap(err, "list attempts")
		}

		if p.EligibleForCertificate {
			r.Summary.CompletedCourses++
			var cert models.Certificate
			err := db.Where("student_id = ? AND course_id = ?", studentID, row.CourseID).Take(&cert).Error
			switch {
			case err == nil:
				cr.Certificate = &cert
				r.Summary.TotalCertificates++
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return models.StudentReport{}, errors.Wrap(err, "query certificate")
			}
		} else {
			r.Summary.InProgressCourses++
		}
		r.Courses = append(r.Courses, cr)
	}
	r.Summary.TotalCourses = len(rows)
	return r, nil
}

// progressBucket places a percentage in one of the distribution buckets.
func progressBucket(pct float64) string {
	switch {
	case pct >= 100:
		return models.BucketDone
	case pct >= 76:
		return models.Bucket76to99
	case pct >= 51:
		return models.Bucket51to75
	case pct >= 26:
		return models.Bucket26to50
	default:
		return models.Bucket0to25
	}
}

// CourseAnalytics describes how the students of one owned course are doing.
func (s *DashboardService) CourseAnalytics(ctx context.Context, caller Caller, courseID uint) (models.CourseAnalytics, error) {
	if err := Authorize(caller.Role, OpViewInstructorDashboard); err != nil {
		return models.CourseAnalytics{}, err
	}
	db := s.db.WithContext(ctx)

	course, err := ownedCourse(db, caller.ID, courseID)
	if err != nil {
		return models.CourseAnalytics{}, err
	}

	a := models.CourseAnalytics{
		CourseID: course.ID,
		Title:    course.Title,
		Distribution: map[string]int{
			models.Bucket0to25:  0,
			models.Bucket26to50: 0,
			models.Bucket51to75: 0,
			models.Bucket76to99: 0,
			models.BucketDone:   0,
		},
	}

	_, ids, err := courseStudents(db, course.ID)
	if err != nil {
		return models.CourseAnalytics{}, err
	}
	progress, err := courseProgress(db, course.ID, ids)
	if err != nil {
		return models.CourseAnalytics{}, err
	}
	activity, err := courseActivity(db, course.ID, ids)
	if err != nil {
		return models.CourseAnalytics{}, err
	}

	var totalLessons int64
	if err := db.Model(&models.Lesson{}).Where("course_id = ?", course.ID).Count(&totalLessons).Error; err != nil {
		return models.CourseAnalytics{}, errors.Wrap(err, "count lessons")
	}

	since := recentSince()
	completed, minutes := 0, 0
	for _, id := range ids {
		p, act := progress[id], activity[id]
		a.Distribution[progressBucket(p.Percentage)]++
		if p.EligibleForCertificate {
			completed++
		}
		if act.last != nil && !act.last.Before(since) {
			a.Engagement.ActiveStudents++
		}
		minutes += act.minutes
	}

	a.TotalStudents = len(ids)
	a.Engagement.InactiveStudents = a.TotalStudents - a.Engagement.ActiveStudents
	if a.TotalStudents > 0 {
		a.CompletionRate = round2(float64(completed) / float64(a.TotalStudents) * 100)
		a.Engagement.ActivityRate = round2(float64(a.Engagement.ActiveStudents) / float64(a.TotalStudents) * 100)

		avgMinutes := float64(minutes) / float64(a.TotalStudents)
		a.Time.AverageHours = round2(avgMinutes / 60)
		if totalLessons > 0 {
			a.Time.AverageMinutesPerLesson = round2(avgMinutes / float64(totalLessons))
		}
	}
	a.Time.TotalHours = round2(float64(minutes) / 60)

	if a.Quiz, err = quizPerformance(db, course.ID); err != nil {
		return models.CourseAnalytics{}, err
	}

	var recent []uint
	if err := db.Model(&models.Certificate{}).
		Where("course_id = ? AND issued_at >= ?", course.ID, timeNow().AddDate(0, 0, -recentCompletionDays)).
		Pluck("student_id", &recent).Error; err != nil {
		return models.CourseAnalytics{}, errors.Wrap(err, "recent certificates")
	}
	for _, id := range recent {
		if progress[id].EligibleForCertificate {
			a.RecentCompletions++
		}
	}
	return a, nil
}

func quizPerformance(db *gorm.DB, courseID uint) (*models.QuizPerformance, error) {
	var quiz models.Quiz
	if err := db.Where("course_id = ?", courseID).Take(&quiz).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "query quiz")
	}

	var agg struct {
		Total  int64
		Passed int64
		Avg    float64
	}
	if err := db.Model(&models.QuizAttempt{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN passed THEN 1 ELSE 0 END), 0) AS passed, COALESCE(AVG(score), 0) AS avg").
		Where("quiz_id = ?", quiz.ID).
		Scan(&agg).Error; err != nil {
		return nil, errors.Wrap(err, "quiz performance")
	}

	qp := &models.QuizPerformance{
		QuizID:        quiz.ID,
		Title:         quiz.Title,
		TotalAttempts: agg.Total,
		AverageScore:  round2(agg.Avg),
		PassingScore:  quiz.PassingScore,
	}
	if agg.Total > 0 {
		qp.PassRate = round2(float64(agg.Passed) / float64(agg.Total) * 100)
	}
	return qp, nil
}

// Activity is the caller's feed: their own completions and attempts for a
// student, the last week of student activity in their courses for an
// instructor.
func (s *DashboardService) Activity(ctx context.Context, caller Caller) (models.ActivityFeed, error) {
	db := s.db.WithContext(ctx)

	var f activityFilter
	switch caller.Role {
	case models.RoleStudent:
		f = activityFilter{studentID: caller.ID, limit: feedLimit}
	case models.RoleInstructor:
		var courseIDs []uint
		if err := db.Model(&models.Course{}).Where("instructor_id = ?", caller.ID).Pluck("id", &courseIDs).Error; err != nil {
			return models.ActivityFeed{}, errors.Wrap(err, "list courses")
		}
		if courseIDs == nil {
			courseIDs = []uint{}
		}
		f = activityFilter{courseIDs: courseIDs, since: recentSince(), limit: instructorFeedLimit}
	default:
		return models.ActivityFeed{}, ErrForbidden
	}

	activity, err := recentActivity(db, f)
	if err != nil {
		return models.ActivityFeed{}, err
	}

	feed := models.ActivityFeed{
		UserID: caller.ID,
		Total:  len(activity),
		ByDate: map[string][]models.Activity{},
		Recent: activity,
	}
	for _, a := range activity {
		day := a.At.Format("2006-01-02")
		feed.ByDate[day] = append(feed.ByDate[day], a)
	}
	if len(feed.Recent) > feedRecentLimit {
		feed.Recent = feed.Recent[:feedRecentLimit]
	}
	return feed, nil
}
