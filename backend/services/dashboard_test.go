package services

import (
	"testing"
	"time"

	"lms/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecentSinceIsMidnightAWeekAgo(t *testing.T) {
	prev := timeNow
	defer func() { timeNow = prev }()
	timeNow = func() time.Time { return time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC) }

	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), recentSince())
}

func TestStudentDashboard(t *testing.T) {
	f := newFixture(t)
	done, doneLessons := f.course(1)
	open, openLessons := f.course(2)
	quiz := f.trueFalseQuiz(open.ID, 2, 100)

	f.enroll(f.student, done.ID)
	f.enroll(f.student, open.ID)
	f.complete(f.student, doneLessons[0].ID)
	f.complete(f.student, openLessons[0].ID)
	for _, right := range []int{1, 2} {
		_, err := f.svc.Quizzes.Submit(f.ctx, f.student, quiz.ID, answers(quiz, right))
		require.NoError(t, err)
	}

	_, err := f.svc.Dashboards.Student(f.ctx, f.instructor)
	requireKind(t, err, ErrForbidden)

	d, err := f.svc.Dashboards.Student(f.ctx, f.student)
	require.NoError(t, err)
	assert.Len(t, d.Enrollments, 2)
	assert.Len(t, d.Certificates, 1)
	assert.Len(t, d.RecentAttempts, 2)
	assert.Equal(t, models.StudentStats{
		TotalCourses:          2,
		CompletedCourses:      1,
		InProgressCourses:     1,
		TotalLessonsCompleted: 2,
		TotalQuizAttempts:     2,
		QuizPassRate:          50,
	}, d.Stats)
}

func TestInstructorDashboard(t *testing.T) {
	f := newFixture(t)
	course, lessons := f.course(2)
	quiz := f.trueFalseQuiz(course.ID, 1, 100)
	bob := f.user("bob", models.RoleStudent)

	f.enroll(f.student, course.ID)
	f.enroll(bob, course.ID)
	f.complete(f.student, lessons[0].ID)
	f.complete(f.student, lessons[1].ID)
	f.complete(bob, lessons[0].ID)
	_, err := f.svc.Quizzes.Submit(f.ctx, f.student, quiz.ID, answers(quiz, 1))
	require.NoError(t, err)

	_, err = f.svc.Dashboards.Instructor(f.ctx, f.student)
	requireKind(t, err, ErrForbidden)

	d, err := f.svc.Dashboards.Instructor(f.ctx, f.instructor)
	require.NoError(t, err)

	assert.Equal(t, models.InstructorStats{
		TotalCourses:      1,
		TotalStudents:     2,
		TotalEnrollments:  2,
		RecentEnrollments: 2,
		RecentCompletions: 3,
		TotalRevenue:      200,
	}, d.Stats)

	require.Len(t, d.CourseStatistics, 1)
	cs := d.CourseStatistics[0]
	assert.Equal(t, 2, cs.TotalStudents)
	assert.Equal(t, 1, cs.CompletedStudents)
	assert.Equal(t, float64(75), cs.AverageProgress)
	assert.EqualValues(t, 2, cs.TotalLessons)

	require.Len(t, d.RecentActivity, 4)
	first := d.RecentActivity[0]
	assert.Equal(t, "quiz_attempt", first.Type)
	assert.Equal(t, "Alice Tester", first.StudentName)
	require.NotNil(t, first.Score)
	assert.Equal(t, float64(100), *first.Score)
	assert.Equal(t, "lesson_completion", d.RecentActivity[1].Type)
	assert.Equal(t, "Bob Tester", d.RecentActivity[1].StudentName)
	for i := 1; i < len(d.RecentActivity); i++ {
		assert.False(t, d.RecentActivity[i].At.After(d.RecentActivity[i-1].At))
	}
}

func TestInstructorDashboardWithoutCourses(t *testing.T) {
	f := newFixture(t)
	d, err := f.svc.Dashboards.Instructor(f.ctx, f.instructor)
	require.NoError(t, err)
	assert.Zero(t, d.Stats.TotalCourses)
	assert.Empty(t, d.CourseStatistics)
	assert.Empty(t, d.RecentActivity)
}
