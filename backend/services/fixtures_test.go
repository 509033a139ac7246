package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"lms/backend/database"
	"lms/backend/mail"
	"lms/backend/models"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (s *fakeSender) Send(_ context.Context, msg mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type fixture struct {
	t          *testing.T
	ctx        context.Context
	db         *gorm.DB
	svc        *Services
	sender     *fakeSender
	instructor Caller
	student    Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := database.OpenMemory(name)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	// Strictly increasing timestamps keep "latest" unambiguous.
	var clockMu sync.Mutex
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	prev := timeNow
	timeNow = func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	t.Cleanup(func() { timeNow = prev })

	sender := &fakeSender{}
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		db:     db,
		svc:    New(db, log.New(io.Discard, "", 0), sender, "Test Academy"),
		sender: sender,
	}
	f.instructor = f.user("teacher", models.RoleInstructor)
	f.student = f.user("alice", models.RoleStudent)
	return f
}

func (f *fixture) user(username string, role models.Role) Caller {
	f.t.Helper()
	u, err := f.svc.Users.Register(f.ctx, RegisterInput{
		Username:  username,
		Email:     username + "@example.com",
		Password:  "password123",
		Role:      role,
		FirstName: strings.ToUpper(username[:1]) + username[1:],
		LastName:  "Tester",
	})
	require.NoError(f.t, err)
	return Caller{ID: u.ID, Role: u.Role}
}

// course creates a published course owned by f.instructor with n lessons.
func (f *fixture) course(n int) (models.Course, []models.Lesson) {
	f.t.Helper()
	course, err := f.svc.Courses.Create(f.ctx, f.instructor, CourseInput{
		Title:    "Course " + f.t.Name(),
		Category: "testing",
		Price:    100,
	})
	require.NoError(f.t, err)

	lessons := make([]models.Lesson, 0, n)
	for i := 0; i < n; i++ {
		l, err := f.svc.Lessons.Create(f.ctx, f.instructor, LessonInput{
			CourseID: course.ID,
			Title:    fmt.Sprintf("Lesson %d", i+1),
			Content:  "body",
		})
		require.NoError(f.t, err)
		lessons = append(lessons, l)
	}
	return course, lessons
}

// trueFalseQuiz adds a quiz of n true/false questions whose key is always "true".
func (f *fixture) trueFalseQuiz(courseID uint, n int, passing float64) models.Quiz {
	f.t.Helper()
	in := QuizInput{CourseID: courseID, Title: "Final quiz", PassingScore: &passing}
	for i := 0; i < n; i++ {
		in.Questions = append(in.Questions, QuestionInput{
			Kind:          models.QuestionTrueFalse,
			Text:          fmt.Sprintf("Statement %d", i+1),
			CorrectAnswer: "true",
		})
	}
	quiz, err := f.svc.Quizzes.Create(f.ctx, f.instructor, in)
	require.NoError(f.t, err)
	require.Len(f.t, quiz.Questions, n)
	return quiz
}

// answers answers the first `right` questions correctly and the rest wrong.
func answers(quiz models.Quiz, right int) map[uint]string {
	out := make(map[uint]string, len(quiz.Questions))
	for i, q := range quiz.Questions {
		if i < right {
			out[q.ID] = "true"
		} else {
			out[q.ID] = "false"
		}
	}
	return out
}

func (f *fixture) enroll(caller Caller, courseID uint) {
	f.t.Helper()
	_, err := f.svc.Enrollments.Enroll(f.ctx, caller, courseID)
	require.NoError(f.t, err)
}

func (f *fixture) complete(caller Caller, lessonID uint) CheckResult {
	f.t.Helper()
	res, err := f.svc.Completions.MarkComplete(f.ctx, caller, lessonID)
	require.NoError(f.t, err)
	return res
}

func (f *fixture) count(model interface{}, query string, args ...interface{}) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func requireKind(t *testing.T, err error, target error) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, errors.Is(err, target), "expected %v, got %v", target, err)
}
