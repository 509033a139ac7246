package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lms/backend/config"
	"lms/backend/database"
	"lms/backend/mail"
	"lms/backend/middleware"
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	t   *testing.T
	app *fiber.App
	cfg *config.Config
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := database.OpenMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	logger := log.New(io.Discard, "", 0)
	cfg := &config.Config{
		AppName:    "Learning Platform",
		JWTSecret:  "testsecret",
		JWTExpires: time.Hour,
	}
	svc := services.New(db, logger, mail.NewLogSender(logger), cfg.AppName)

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(utils.NewLogReporter(logger)),
	})
	app.Use(middleware.LoggingMiddleware(logger))
	SetupRoutes(app, svc, cfg)

	return &testApp{t: t, app: app, cfg: cfg}
}

// do sends a JSON request and decodes a JSON response body when there is one.
func (a *testApp) do(method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)

	var result map[string]interface{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&result))
	}
	return resp, result
}

func (a *testApp) register(username, role string) string {
	a.t.Helper()
	resp, result := a.do("POST", "/api/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
		"role":     role,
	})
	require.Equal(a.t, fiber.StatusCreated, resp.StatusCode, "%v", result)
	token, _ := result["token"].(string)
	require.NotEmpty(a.t, token)
	return token
}

func data(t *testing.T, result map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := result["data"].(map[string]interface{})
	require.True(t, ok, "%v", result)
	return d
}

func id(t *testing.T, m map[string]interface{}) uint {
	t.Helper()
	v, ok := m["id"].(float64)
	require.True(t, ok, "%v", m)
	return uint(v)
}

func TestRegister(t *testing.T) {
	a := newTestApp(t)

	resp, result := a.do("POST", "/api/register", "", map[string]string{
		"username": "newuser",
		"email":    "newuser@example.com",
		"password": "password123",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, result["token"])
	user := result["user"].(map[string]interface{})
	assert.Equal(t, "student", user["role"])
	assert.NotContains(t, user, "PasswordHash")
	assert.NotContains(t, user, "password_hash")

	resp, result = a.do("POST", "/api/register", "", map[string]string{
		"username": "newuser",
		"email":    "another@example.com",
		"password": "password123",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, false, result["success"])
}

func TestRegisterValidation(t *testing.T) {
	a := newTestApp(t)

	resp, result := a.do("POST", "/api/register", "", map[string]string{
		"username": "x",
		"email":    "not-an-email",
		"password": "short",
		"role":     "admin",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	details := result["details"].(map[string]interface{})
	assert.Contains(t, details, "username")
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
	assert.Contains(t, details, "role")
}

func TestLogin(t *testing.T) {
	a := newTestApp(t)
	a.register("testuser", "student")

	resp, result := a.do("POST", "/api/login", "", map[string]string{
		"username": "testuser",
		"password": "password123",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, result["token"])
	assert.NotEmpty(t, result["user"])

	resp, _ = a.do("POST", "/api/login", "", map[string]string{
		"username": "testuser",
		"password": "wrong-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	a := newTestApp(t)

	resp, _ := a.do("GET", "/api/courses", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = a.do("GET", "/api/courses", "garbage", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token := a.register("student1", "student")

	// a bare token without the Bearer prefix is accepted
	req := httptest.NewRequest("GET", "/api/user/profile", nil)
	req.Header.Set("Authorization", token)
	raw, err := a.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, raw.StatusCode)
}

func TestProfile(t *testing.T) {
	a := newTestApp(t)
	token := a.register("profiled", "student")

	resp, result := a.do("GET", "/api/user/profile", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "profiled", data(t, result)["username"])

	resp, result = a.do("PUT", "/api/user/profile", token, map[string]string{
		"first_name": "Pro",
		"bio":        "Learning Go",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Learning Go", data(t, result)["bio"])

	resp, _ = a.do("PUT", "/api/user/profile", token, map[string]string{
		"old_password": "nope-nope",
		"new_password": "new-password",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestRoleGates(t *testing.T) {
	a := newTestApp(t)
	student := a.register("student1", "student")
	instructor := a.register("teacher1", "instructor")

	resp, _ := a.do("POST", "/api/courses", student, map[string]string{"title": "Nope"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = a.do("GET", "/api/instructor-dashboard", student, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = a.do("GET", "/api/student-dashboard", instructor, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = a.do("GET", "/api/courses/1/progress", instructor, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = a.do("GET", "/api/reports/students", student, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = a.do("GET", "/api/courses/1/analytics", student, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = a.do("POST", "/api/lessons/1/reset", instructor, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestCourseLifecycle(t *testing.T) {
	a := newTestApp(t)
	instructor := a.register("teacher1", "instructor")
	student := a.register("student1", "student")

	// instructor builds a course with two lessons and a quiz
	resp, result := a.do("POST", "/api/courses", instructor, map[string]interface{}{
		"title":    "Go Fundamentals",
		"category": "programming",
		"level":    "beginner",
		"price":    50,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, "%v", result)
	courseID := id(t, data(t, result))

	var lessonIDs []uint
	for i := 1; i <= 2; i++ {
		resp, result = a.do("POST", "/api/lessons", instructor, map[string]interface{}{
			"course_id": courseID,
			"title":     fmt.Sprintf("Lesson %d", i),
			"content":   "text body",
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode, "%v", result)
		lessonIDs = append(lessonIDs, id(t, data(t, result)))
	}

	resp, result = a.do("POST", "/api/quizzes", instructor, map[string]interface{}{
		"course_id":     courseID,
		"title":         "Final",
		"passing_score": 70,
		"questions": []map[string]interface{}{
			{"kind": "tf", "text": "Go has generics", "correct_answer": "true"},
			{"kind": "mcq", "text": "Keyword for goroutines", "options": []string{"go", "async"}, "correct_answer": "go"},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, "%v", result)
	quiz := data(t, result)
	quizID := id(t, quiz)
	questions := quiz["questions"].([]interface{})
	q1 := id(t, questions[0].(map[string]interface{}))
	q2 := id(t, questions[1].(map[string]interface{}))

	// student sees the course as available and enrolls once
	resp, result = a.do("GET", "/api/courses/available", student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, result["data"], 1)

	resp, _ = a.do("POST", fmt.Sprintf("/api/courses/%d/enroll", courseID), student, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp, _ = a.do("POST", fmt.Sprintf("/api/courses/%d/enroll", courseID), student, nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, result = a.do("GET", "/api/courses/available", student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, result["data"], 0)

	// quiz answer keys stay hidden from students
	resp, result = a.do("GET", fmt.Sprintf("/api/quizzes/%d", quizID), student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	for _, q := range data(t, result)["questions"].([]interface{}) {
		assert.NotContains(t, q.(map[string]interface{}), "correct_answer")
	}

	// lessons
	resp, result = a.do("POST", fmt.Sprintf("/api/lessons/%d/mark-complete", lessonIDs[0]), student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, "%v", result)
	progress := data(t, result)["progress"].(map[string]interface{})
	assert.Equal(t, float64(50), progress["percentage"])

	resp, _ = a.do("POST", fmt.Sprintf("/api/lessons/%d/mark-complete", lessonIDs[1]), student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, result = a.do("GET", fmt.Sprintf("/api/courses/%d/progress", courseID), student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	progress = data(t, result)["progress"].(map[string]interface{})
	assert.Equal(t, float64(100), progress["percentage"])
	assert.Equal(t, false, progress["eligible_for_certificate"])

	resp, _ = a.do("GET", fmt.Sprintf("/api/courses/%d/certificate", courseID), student, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, "not eligible before the quiz")

	// malformed, failing, then passing attempts
	resp, result = a.do("POST", fmt.Sprintf("/api/quizzes/%d/attempt", quizID), student, map[string]interface{}{
		"answers": map[string]string{fmt.Sprint(q1): "true"},
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, result["details"], fmt.Sprintf("answers[%d]", q2))

	resp, result = a.do("POST", fmt.Sprintf("/api/quizzes/%d/attempt", quizID), student, map[string]interface{}{
		"answers": map[string]string{fmt.Sprint(q1): "false", fmt.Sprint(q2): "go"},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, "%v", result)
	attempt := data(t, result)["attempt"].(map[string]interface{})
	assert.Equal(t, float64(50), attempt["score"])
	assert.Equal(t, false, attempt["passed"])

	resp, result = a.do("POST", fmt.Sprintf("/api/quizzes/%d/attempt", quizID), student, map[string]interface{}{
		"answers": map[string]string{fmt.Sprint(q1): "TRUE", fmt.Sprint(q2): "Go"},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, "%v", result)
	check := data(t, result)["course"].(map[string]interface{})
	assert.Equal(t, true, check["certificate_issued"])
	cert := check["certificate"].(map[string]interface{})
	number := cert["certificate_number"].(string)
	certID := id(t, cert)

	resp, result = a.do("GET", fmt.Sprintf("/api/quizzes/%d/history", quizID), student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	stats := data(t, result)["stats"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["total_attempts"])

	// certificate downloads
	resp, _ = a.do("GET", fmt.Sprintf("/api/courses/%d/certificate", courseID), student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	pdf, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	resp, _ = a.do("GET", fmt.Sprintf("/api/certificates/%d/download", certID), instructor, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, result = a.do("GET", "/api/certificates/verify/"+number, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, data(t, result)["valid"])

	resp, _ = a.do("GET", "/api/certificates/verify/CERT-FFFFFFFFFFFF", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// dashboards
	resp, result = a.do("GET", "/api/student-dashboard", student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	sstats := data(t, result)["stats"].(map[string]interface{})
	assert.Equal(t, float64(1), sstats["completed_courses"])

	resp, result = a.do("GET", "/api/instructor-dashboard", instructor, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	istats := data(t, result)["overall_stats"].(map[string]interface{})
	assert.Equal(t, float64(1), istats["total_students"])
	assert.Equal(t, float64(50), istats["total_revenue"])

	// reports and activity
	resp, result = a.do("GET", "/api/reports/students", instructor, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, "%v", result)
	reports := data(t, result)["course_reports"].([]interface{})
	require.Len(t, reports, 1)
	assert.Equal(t, float64(100), reports[0].(map[string]interface{})["completion_rate"])

	resp, result = a.do("GET", fmt.Sprintf("/api/courses/%d/analytics", courseID), instructor, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, "%v", result)
	dist := data(t, result)["progress_distribution"].(map[string]interface{})
	assert.Equal(t, float64(1), dist["100%"])

	resp, result = a.do("GET", "/api/activity", student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(4), data(t, result)["total_activities"])

	// resetting a lesson withdraws the certificate until it is completed again
	resp, result = a.do("POST", fmt.Sprintf("/api/lessons/%d/reset", lessonIDs[1]), student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, "%v", result)
	progress = data(t, result)["progress"].(map[string]interface{})
	assert.Equal(t, float64(50), progress["percentage"])

	resp, result = a.do("GET", fmt.Sprintf("/api/courses/%d/progress", courseID), student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []interface{}{float64(lessonIDs[0])}, data(t, result)["completed_lessons"])

	resp, _ = a.do("GET", fmt.Sprintf("/api/courses/%d/certificate", courseID), student, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = a.do("POST", fmt.Sprintf("/api/lessons/%d/mark-complete", lessonIDs[1]), student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// deleting the course removes the student's access
	resp, _ = a.do("DELETE", fmt.Sprintf("/api/courses/%d", courseID), instructor, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp, _ = a.do("GET", fmt.Sprintf("/api/courses/%d/progress", courseID), student, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestNotEnrolledIsForbidden(t *testing.T) {
	a := newTestApp(t)
	instructor := a.register("teacher1", "instructor")
	student := a.register("student1", "student")

	_, result := a.do("POST", "/api/courses", instructor, map[string]string{"title": "Closed"})
	courseID := id(t, data(t, result))
	_, result = a.do("POST", "/api/lessons", instructor, map[string]interface{}{"course_id": courseID, "title": "One"})
	lessonID := id(t, data(t, result))

	resp, _ := a.do("POST", fmt.Sprintf("/api/lessons/%d/mark-complete", lessonID), student, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = a.do("GET", fmt.Sprintf("/api/courses/%d/progress", courseID), student, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = a.do("POST", "/api/lessons/9999/mark-complete", student, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = a.do("POST", "/api/courses/abc/enroll", student, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
