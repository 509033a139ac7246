package services

import (
	"testing"

	"lms/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseCreateIsInstructorOnly(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Courses.Create(f.ctx, f.student, CourseInput{Title: "Nope"})
	requireKind(t, err, ErrForbidden)

	course, err := f.svc.Courses.Create(f.ctx, f.instructor, CourseInput{Title: "  Go basics  ", Category: "programming"})
	require.NoError(t, err)
	assert.Equal(t, "Go basics", course.Title)
	assert.Equal(t, f.instructor.ID, course.InstructorID)
	assert.Equal(t, "beginner", course.Level)
	assert.True(t, course.IsPublished)
}

func TestCourseUpdateChecksOwnership(t *testing.T) {
	f := newFixture(t)
	course, _ := f.course(0)
	other := f.user("mallory", models.RoleInstructor)

	title := "Renamed"
	_, err := f.svc.Courses.Update(f.ctx, other, course.ID, CourseUpdate{Title: &title})
	requireKind(t, err, ErrNotOwner)

	price := 250
	updated, err := f.svc.Courses.Update(f.ctx, f.instructor, course.ID, CourseUpdate{Title: &title, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, 250, updated.Price)
	assert.Equal(t, "testing", updated.Category, "untouched fields keep their value")

	_, err = f.svc.Courses.Get(f.ctx, other, course.ID)
	requireKind(t, err, ErrNotOwner)
}

func TestCourseListByRole(t *testing.T) {
	f := newFixture(t)
	published, _ := f.course(0)
	draft := false
	hidden, err := f.svc.Courses.Create(f.ctx, f.instructor, CourseInput{Title: "Hidden draft", IsPublished: &draft})
	require.NoError(t, err)
	other := f.user("carol", models.RoleInstructor)
	_, err = f.svc.Courses.Create(f.ctx, other, CourseInput{Title: "Carol's course", Category: "art"})
	require.NoError(t, err)

	mine, err := f.svc.Courses.List(f.ctx, f.instructor, CourseFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	catalogue, err := f.svc.Courses.List(f.ctx, f.student, CourseFilter{})
	require.NoError(t, err)
	titles := []string{}
	for _, c := range catalogue {
		titles = append(titles, c.Title)
		assert.NotEqual(t, hidden.ID, c.ID)
	}
	assert.ElementsMatch(t, []string{published.Title, "Carol's course"}, titles)

	art, err := f.svc.Courses.List(f.ctx, f.student, CourseFilter{Category: "art"})
	require.NoError(t, err)
	require.Len(t, art, 1)

	search, err := f.svc.Courses.List(f.ctx, f.student, CourseFilter{Search: "CAROL"})
	require.NoError(t, err)
	assert.Len(t, search, 1)
}

func TestCourseGetShowsLessonsToEnrolledStudents(t *testing.T) {
	f := newFixture(t)
	course, _ := f.course(2)

	got, err := f.svc.Courses.Get(f.ctx, f.student, course.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Lessons)

	_, err = f.svc.Lessons.List(f.ctx, f.student, course.ID)
	requireKind(t, err, ErrNotEnrolled)

	f.enroll(f.student, course.ID)
	got, err = f.svc.Courses.Get(f.ctx, f.student, course.ID)
	require.NoError(t, err)
	assert.Len(t, got.Lessons, 2)

	lessons, err := f.svc.Lessons.List(f.ctx, f.student, course.ID)
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, 1, lessons[0].SequenceOrder)
	assert.Equal(t, 2, lessons[1].SequenceOrder)
}

func TestLessonOrderAndUpdate(t *testing.T) {
	f := newFixture(t)
	course, lessons := f.course(2)

	explicit, err := f.svc.Lessons.Create(f.ctx, f.instructor, LessonInput{CourseID: course.ID, Title: "Ten", SequenceOrder: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, explicit.SequenceOrder)

	next, err := f.svc.Lessons.Create(f.ctx, f.instructor, LessonInput{
		CourseID:    course.ID,
		Title:       "Video",
		ContentType: models.ContentVideo,
		Content:     "https://videos.example.com/intro.mp4",
	})
	require.NoError(t, err)
	assert.Equal(t, 11, next.SequenceOrder)
	assert.Equal(t, models.ContentVideo, next.ContentType)
	assert.Equal(t, models.ContentText, lessons[0].ContentType)

	_, err = f.svc.Lessons.Create(f.ctx, f.student, LessonInput{CourseID: course.ID, Title: "x"})
	requireKind(t, err, ErrForbidden)

	title := "Intro"
	updated, err := f.svc.Lessons.Update(f.ctx, f.instructor, lessons[0].ID, LessonUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Intro", updated.Title)

	_, err = f.svc.Lessons.Get(f.ctx, f.instructor, 9999)
	requireKind(t, err, ErrLessonNotFound)
}

func TestCourseDeleteCascades(t *testing.T) {
	f := newFixture(t)
	course, lessons := f.course(1)
	quiz := f.trueFalseQuiz(course.ID, 1, 50)
	f.enroll(f.student, course.ID)
	f.complete(f.student, lessons[0].ID)
	_, err := f.svc.Quizzes.Submit(f.ctx, f.student, quiz.ID, answers(quiz, 1))
	require.NoError(t, err)
	require.EqualValues(t, 1, f.count(&models.Certificate{}, "course_id = ?", course.ID))

	other := f.user("eve", models.RoleInstructor)
	requireKind(t, f.svc.Courses.Delete(f.ctx, other, course.ID), ErrNotOwner)

	require.NoError(t, f.svc.Courses.Delete(f.ctx, f.instructor, course.ID))

	_, err = f.svc.Courses.Get(f.ctx, f.instructor, course.ID)
	requireKind(t, err, ErrCourseNotFound)
	assert.Zero(t, f.count(&models.Lesson{}, "course_id = ?", course.ID))
	assert.Zero(t, f.count(&models.Quiz{}, "course_id = ?", course.ID))
	assert.Zero(t, f.count(&models.Question{}, "quiz_id = ?", quiz.ID))
	assert.Zero(t, f.count(&models.Enrollment{}, "course_id = ?", course.ID))
	assert.Zero(t, f.count(&models.LessonCompletion{}, "course_id = ?", course.ID))
	assert.Zero(t, f.count(&models.QuizAttempt{}, "quiz_id = ?", quiz.ID))
	assert.Zero(t, f.count(&models.Certificate{}, "course_id = ?", course.ID))
}
