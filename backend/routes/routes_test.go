package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemarket/backend/config"
	"coursemarket/backend/models"
	"coursemarket/backend/repository/repotest"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"
)

type envelope struct {
	Success   bool              `json:"success"`
	Data      json.RawMessage   `json:"data"`
	Meta      json.RawMessage   `json:"meta"`
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	RequestID string            `json:"request_id"`
	Details   map[string]string `json:"details"`
	Total     int64             `json:"total"`
	Page      int               `json:"page"`
	PageSize  int               `json:"page_size"`
	Pages     int               `json:"pages"`
	Limit     int               `json:"limit"`
}

type testServer struct {
	app   *fiber.App
	store *repotest.Store
	svc   *services.Services
	jwt   *utils.JWTManager
	seq   int
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
		CORSOrigins:     "*",
		RequestTimeout:  5 * time.Second,
		RateLimitMax:    0,
		RateLimitWindow: time.Minute,
		AuthRateLimit:   1000,
		DefaultPageSize: 10,
		MaxPageSize:     100,
		EnableMetrics:   true,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	store := repotest.NewStore()
	jwt := utils.NewJWTManager(cfg)
	svc := services.New(store, services.NewUserTokenStore(store), jwt, log)

	app := NewApp(cfg, log, nil)
	SetupRoutes(app, svc, cfg, log, nil)
	return &testServer{app: app, store: store, svc: svc, jwt: jwt}
}

func (s *testServer) raw(t *testing.T, method, path string, body interface{}, token string, headers ...string) *http.Response {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) (int, envelope) {
	t.Helper()

	resp := s.raw(t, method, path, body, token)
	defer resp.Body.Close()

	var env envelope
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(payload) > 0 {
		require.NoError(t, json.Unmarshal(payload, &env), string(payload))
	}
	return resp.StatusCode, env
}

func decode(t *testing.T, data json.RawMessage, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(data, out), string(data))
}

// user creates an active account directly in the store and signs a token for it.
func (s *testServer) user(t *testing.T, role models.Role) (*models.User, string) {
	t.Helper()
	s.seq++
	u := &models.User{
		Email:        fmt.Sprintf("%s%d@example.com", role, s.seq),
		Username:     fmt.Sprintf("%s%d", role, s.seq),
		PasswordHash: "not-a-hash",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, s.store.Users().Create(context.Background(), u))
	token, err := s.jwt.GenerateAccessToken(u)
	require.NoError(t, err)
	return u, token
}

type courseSeed struct {
	instructor      *models.User
	instructorToken string
	student         *models.User
	studentToken    string
	course          *models.Course
	lessons         []models.Lesson
}

// seed publishes a free course with n published lessons and enrolls a student.
func (s *testServer) seed(t *testing.T, n int) courseSeed {
	t.Helper()
	ctx := context.Background()

	var cs courseSeed
	cs.instructor, cs.instructorToken = s.user(t, models.RoleInstructor)
	cs.student, cs.studentToken = s.user(t, models.RoleStudent)

	course, err := s.svc.Courses.Create(ctx, cs.instructor, services.CourseInput{Title: "Seeded course"})
	require.NoError(t, err)
	cs.course, err = s.svc.Courses.Publish(ctx, cs.instructor, course.ID)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		lesson, err := s.svc.Lessons.Create(ctx, cs.instructor, services.LessonInput{
			CourseID:    cs.course.ID,
			Title:       fmt.Sprintf("Lesson %d", i+1),
			IsPublished: true,
		})
		require.NoError(t, err)
		cs.lessons = append(cs.lessons, *lesson)
	}

	_, err = s.svc.Enrollments.Enroll(ctx, cs.student, cs.course.ID)
	require.NoError(t, err)
	return cs
}

func TestHealthRequestIDAndMetrics(t *testing.T) {
	s := newTestServer(t, testConfig())

	resp := s.raw(t, http.MethodGet, "/health", nil, "", "X-Request-ID", "req-42")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "req-42", resp.Header.Get("X-Request-ID"))

	resp = s.raw(t, http.MethodGet, "/health", nil, "")
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp = s.raw(t, http.MethodGet, "/metrics", nil, "")
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "coursemarket_http_request_duration_seconds")
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, testConfig())

	status, env := s.do(t, http.MethodGet, "/api/nothing-here", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.RequestID)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, testConfig())

	register := map[string]interface{}{
		"email":    "Anna@Example.com",
		"username": "anna",
		"password": "secret-pass",
	}
	status, env := s.do(t, http.MethodPost, "/api/auth/register", register, "")
	require.Equal(t, http.StatusCreated, status, env.Message)

	var pair services.TokenPair
	decode(t, env.Data, &pair)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, "anna@example.com", pair.User.Email)
	assert.Equal(t, models.RoleStudent, pair.User.Role)

	status, env = s.do(t, http.MethodGet, "/api/auth/me", nil, pair.AccessToken)
	require.Equal(t, http.StatusOK, status)
	var me models.User
	decode(t, env.Data, &me)
	assert.Equal(t, pair.User.ID, me.ID)

	status, _ = s.do(t, http.MethodPost, "/api/auth/register", register, "")
	assert.Equal(t, http.StatusBadRequest, status, "duplicate email")

	status, _ = s.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "anna@example.com", "password": "wrong-pass",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = s.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "anna@example.com", "password": "secret-pass",
	}, "")
	require.Equal(t, http.StatusOK, status)
	decode(t, env.Data, &pair)

	status, env = s.do(t, http.MethodPost, "/api/auth/refresh", map[string]string{"refresh_token": pair.RefreshToken}, "")
	require.Equal(t, http.StatusOK, status)
	var rotated services.TokenPair
	decode(t, env.Data, &rotated)

	status, _ = s.do(t, http.MethodPost, "/api/auth/refresh", map[string]string{"refresh_token": pair.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, status, "replaced refresh token")

	status, _ = s.do(t, http.MethodPost, "/api/auth/logout", nil, rotated.AccessToken)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = s.do(t, http.MethodPost, "/api/auth/refresh", map[string]string{"refresh_token": rotated.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, status, "logged out")
}

func TestAuthRejections(t *testing.T) {
	s := newTestServer(t, testConfig())

	status, env := s.do(t, http.MethodPost, "/api/auth/register", map[string]interface{}{
		"username": "x",
		"password": "short",
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Details, "email")
	assert.Contains(t, env.Details, "username")
	assert.Contains(t, env.Details, "password")

	status, _ = s.do(t, http.MethodPost, "/api/auth/register", map[string]interface{}{
		"email":    "root@example.com",
		"username": "root",
		"password": "secret-pass",
		"role":     "admin",
	}, "")
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodPost, "/api/auth/login", `{"email":`, "")
	assert.Equal(t, http.StatusBadRequest, status, "malformed body")

	status, _ = s.do(t, http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = s.do(t, http.MethodGet, "/api/auth/me", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, status)

	refresh, err := s.jwt.GenerateRefreshToken(&models.User{ID: 1})
	require.NoError(t, err)
	status, _ = s.do(t, http.MethodGet, "/api/auth/me", nil, refresh)
	assert.Equal(t, http.StatusUnauthorized, status, "refresh token used as access token")
}

func TestAuthRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.AuthRateLimit = 2
	s := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		status, _ := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{}, "")
		assert.Equal(t, http.StatusUnprocessableEntity, status)
	}
	status, env := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{}, "")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.False(t, env.Success)

	status, _ = s.do(t, http.MethodGet, "/api/courses", nil, "")
	assert.Equal(t, http.StatusOK, status, "other routes are not affected")
}

func TestCourseLifecycle(t *testing.T) {
	s := newTestServer(t, testConfig())
	_, instructorToken := s.user(t, models.RoleInstructor)
	_, studentToken := s.user(t, models.RoleStudent)

	status, env := s.do(t, http.MethodPost, "/api/courses", map[string]interface{}{"title": "ab"}, instructorToken)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Details, "title")

	status, _ = s.do(t, http.MethodPost, "/api/courses", map[string]interface{}{"title": "Go Basics"}, studentToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = s.do(t, http.MethodPost, "/api/courses", map[string]interface{}{
		"title":          "Go Basics",
		"price":          100,
		"discount_price": 150,
	}, instructorToken)
	assert.Equal(t, http.StatusBadRequest, status, env.Message)

	status, env = s.do(t, http.MethodPost, "/api/courses", map[string]interface{}{
		"title":          "Go Basics",
		"price":          100,
		"discount_price": 80,
	}, instructorToken)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var course models.Course
	decode(t, env.Data, &course)
	assert.Equal(t, "go-basics", course.Slug)
	assert.Equal(t, models.CourseDraft, course.Status)

	path := fmt.Sprintf("/api/courses/%d", course.ID)
	status, _ = s.do(t, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusForbidden, status, "draft is hidden")
	status, _ = s.do(t, http.MethodGet, path, nil, instructorToken)
	assert.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodGet, "/api/courses", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, env.Total)

	status, env = s.do(t, http.MethodPatch, path+"/publish", nil, instructorToken)
	require.Equal(t, http.StatusOK, status, env.Message)
	decode(t, env.Data, &course)
	assert.Equal(t, models.CoursePublished, course.Status)
	assert.NotNil(t, course.PublishedAt)

	status, env = s.do(t, http.MethodGet, "/api/courses?page_size=5", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, env.Total)
	assert.Equal(t, 5, env.PageSize)
	assert.Equal(t, 1, env.Pages)

	status, _ = s.do(t, http.MethodGet, "/api/courses?sort_by=cheapest", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, env = s.do(t, http.MethodGet, "/api/courses/slug/go-basics", nil, studentToken)
	require.Equal(t, http.StatusOK, status)
	decode(t, env.Data, &course)
	assert.Equal(t, "Go Basics", course.Title)

	status, _ = s.do(t, http.MethodPut, path, map[string]interface{}{"title": "Hijacked"}, studentToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodPost, "/api/enrollments", map[string]interface{}{"course_id": course.ID}, studentToken)
	require.Equal(t, http.StatusCreated, status)

	status, env = s.do(t, http.MethodDelete, path, nil, instructorToken)
	assert.Equal(t, http.StatusBadRequest, status, "course with enrollments")
}

func TestLearningFlow(t *testing.T) {
	s := newTestServer(t, testConfig())
	cs := s.seed(t, 2)
	_, outsiderToken := s.user(t, models.RoleStudent)

	start := func(lesson models.Lesson, token string) int {
		status, _ := s.do(t, http.MethodPost, fmt.Sprintf("/api/progress/lessons/%d/start", lesson.ID), nil, token)
		return status
	}
	assert.Equal(t, http.StatusForbidden, start(cs.lessons[0], outsiderToken))
	assert.Equal(t, http.StatusCreated, start(cs.lessons[0], cs.studentToken))
	assert.Equal(t, http.StatusOK, start(cs.lessons[0], cs.studentToken))

	status, env := s.do(t, http.MethodPatch, fmt.Sprintf("/api/progress/lessons/%d", cs.lessons[0].ID),
		map[string]interface{}{"completion_percentage": 150}, cs.studentToken)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Details, "completion_percentage")

	status, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/api/progress/lessons/%d", cs.lessons[1].ID),
		map[string]interface{}{"time_spent": 30}, cs.studentToken)
	assert.Equal(t, http.StatusNotFound, status, "lesson never started")

	type completion struct {
		Progress   models.Progress   `json:"progress"`
		Enrollment models.Enrollment `json:"enrollment"`
	}
	complete := func(lesson models.Lesson) completion {
		status, env := s.do(t, http.MethodPost, fmt.Sprintf("/api/progress/lessons/%d/complete", lesson.ID), nil, cs.studentToken)
		require.Equal(t, http.StatusOK, status, env.Message)
		var out completion
		decode(t, env.Data, &out)
		return out
	}

	first := complete(cs.lessons[0])
	assert.True(t, first.Progress.IsCompleted)
	assert.Equal(t, 50.0, first.Enrollment.ProgressPercentage)
	assert.Equal(t, models.EnrollmentActive, first.Enrollment.Status)

	status, _ = s.do(t, http.MethodPost, fmt.Sprintf("/api/enrollments/%d/complete", first.Enrollment.ID), nil, cs.studentToken)
	assert.Equal(t, http.StatusBadRequest, status, "progress below 100")

	second := complete(cs.lessons[1])
	assert.Equal(t, 100.0, second.Enrollment.ProgressPercentage)
	assert.Equal(t, models.EnrollmentCompleted, second.Enrollment.Status)
	assert.NotNil(t, second.Enrollment.CompletedAt)

	status, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/enrollments/check/%d", cs.course.ID), nil, cs.studentToken)
	require.Equal(t, http.StatusOK, status)
	var check services.EnrollmentCheck
	decode(t, env.Data, &check)
	assert.True(t, check.IsEnrolled)
	assert.Equal(t, 100.0, check.ProgressPercentage)

	status, env = s.do(t, http.MethodGet, "/api/progress/my-courses", nil, cs.studentToken)
	require.Equal(t, http.StatusOK, status)
	var summaries []models.CourseProgressSummary
	decode(t, env.Data, &summaries)
	require.Len(t, summaries, 1)
	assert.EqualValues(t, 2, summaries[0].CompletedLessons)

	status, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/lessons/course/%d/with-progress", cs.course.ID), nil, cs.studentToken)
	require.Equal(t, http.StatusOK, status)
	var lessons []models.LessonProgress
	decode(t, env.Data, &lessons)
	require.Len(t, lessons, 2)
	assert.True(t, lessons[0].IsCompleted)

	status, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/enrollments/%d", first.Enrollment.ID), nil, cs.studentToken)
	assert.Equal(t, http.StatusBadRequest, status, "completed enrollments cannot be cancelled")
}

func TestEnrollmentCancel(t *testing.T) {
	s := newTestServer(t, testConfig())
	cs := s.seed(t, 1)

	status, env := s.do(t, http.MethodGet, "/api/enrollments/my-courses", nil, cs.studentToken)
	require.Equal(t, http.StatusOK, status)
	var mine []models.Enrollment
	decode(t, env.Data, &mine)
	require.Len(t, mine, 1)

	status, _ = s.do(t, http.MethodGet, "/api/enrollments/my-courses?status=paused", nil, cs.studentToken)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	path := fmt.Sprintf("/api/enrollments/%d", mine[0].ID)
	status, _ = s.do(t, http.MethodGet, path, nil, cs.instructorToken)
	assert.Equal(t, http.StatusOK, status, "course instructor sees the enrollment")

	status, _ = s.do(t, http.MethodDelete, path, nil, cs.studentToken)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = s.do(t, http.MethodDelete, path, nil, cs.studentToken)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/enrollments/course/%d/statistics", cs.course.ID), nil, cs.instructorToken)
	require.Equal(t, http.StatusOK, status)
	var stats models.EnrollmentStatistics
	decode(t, env.Data, &stats)
	assert.EqualValues(t, 1, stats.TotalEnrollments)

	status, _ = s.do(t, http.MethodGet, fmt.Sprintf("/api/enrollments/course/%d/students", cs.course.ID), nil, cs.studentToken)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestLessonRoutes(t *testing.T) {
	s := newTestServer(t, testConfig())
	cs := s.seed(t, 3)

	status, env := s.do(t, http.MethodPost, "/api/lessons", map[string]interface{}{
		"course_id": cs.course.ID,
		"title":     "Inserted first",
		"order":     1,
	}, cs.instructorToken)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var inserted models.Lesson
	decode(t, env.Data, &inserted)
	assert.Equal(t, 1, inserted.Order)

	status, _ = s.do(t, http.MethodPost, "/api/lessons", map[string]interface{}{
		"course_id": cs.course.ID,
		"title":     "Too far",
		"order":     9,
	}, cs.instructorToken)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = s.do(t, http.MethodPost, fmt.Sprintf("/api/lessons/%d/reorder", inserted.ID),
		map[string]int{"new_order": 4}, cs.instructorToken)
	require.Equal(t, http.StatusOK, status, env.Message)
	var ordered []models.Lesson
	decode(t, env.Data, &ordered)
	require.Len(t, ordered, 4)
	for i, l := range ordered {
		assert.Equal(t, i+1, l.Order)
	}
	assert.Equal(t, inserted.ID, ordered[3].ID)

	status, _ = s.do(t, http.MethodPost, fmt.Sprintf("/api/lessons/%d/reorder", inserted.ID),
		map[string]int{"new_order": 0}, cs.instructorToken)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = s.do(t, http.MethodPost, "/api/lessons/bulk", map[string]interface{}{
		"course_id": cs.course.ID,
		"lessons": []map[string]interface{}{
			{"title": "Bulk one"},
			{"title": "Bulk two", "is_free_preview": true, "is_published": true},
		},
	}, cs.instructorToken)
	require.Equal(t, http.StatusCreated, status, env.Message)

	status, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/lessons/course/%d/preview", cs.course.ID), nil, "")
	require.Equal(t, http.StatusOK, status)
	var previews []models.Lesson
	decode(t, env.Data, &previews)
	require.Len(t, previews, 1)

	status, _ = s.do(t, http.MethodGet, fmt.Sprintf("/api/lessons/%d", previews[0].ID), nil, "")
	assert.Equal(t, http.StatusOK, status, "free preview is public")
	status, _ = s.do(t, http.MethodGet, fmt.Sprintf("/api/lessons/%d", cs.lessons[0].ID), nil, "")
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = s.do(t, http.MethodGet, fmt.Sprintf("/api/lessons/%d", cs.lessons[0].ID), nil, cs.studentToken)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/lessons/%d", cs.lessons[0].ID), nil, cs.studentToken)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/lessons/%d", cs.lessons[0].ID), nil, cs.instructorToken)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestQuizFlow(t *testing.T) {
	s := newTestServer(t, testConfig())
	cs := s.seed(t, 1)

	status, env := s.do(t, http.MethodPost, "/api/quizzes", map[string]interface{}{
		"lesson_id":    cs.lessons[0].ID,
		"title":        "Checkpoint",
		"is_published": true,
		"questions": []map[string]interface{}{
			{
				"question_text": "Two plus two",
				"answers": []map[string]interface{}{
					{"answer_text": "Four", "is_correct": true},
					{"answer_text": "Five"},
				},
			},
			{
				"question_text": "Pick the primes",
				"question_type": "multiple_select",
				"points":        2,
				"answers": []map[string]interface{}{
					{"answer_text": "Two", "is_correct": true},
					{"answer_text": "Three", "is_correct": true},
					{"answer_text": "Four"},
				},
			},
		},
	}, cs.instructorToken)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var quiz models.Quiz
	decode(t, env.Data, &quiz)
	require.Len(t, quiz.Questions, 2)
	q1, q2 := quiz.Questions[0], quiz.Questions[1]

	quizPath := fmt.Sprintf("/api/quizzes/%d", quiz.ID)
	status, _ = s.do(t, http.MethodGet, quizPath, nil, cs.studentToken)
	assert.Equal(t, http.StatusForbidden, status, "full quiz is for authors")

	resp := s.raw(t, http.MethodGet, quizPath+"/start", nil, cs.studentToken)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(body), "is_correct")
	var view struct {
		Data models.QuizView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, 2, view.Data.TotalQuestions)
	assert.Equal(t, 3.0, view.Data.TotalPoints)

	submit := func(answers map[uint][]uint) models.AttemptResult {
		items := make([]map[string]interface{}, 0, len(answers))
		for qid, ids := range answers {
			items = append(items, map[string]interface{}{"question_id": qid, "answer_ids": ids})
		}
		status, env := s.do(t, http.MethodPost, "/api/quizzes/submit", map[string]interface{}{
			"quiz_id":    quiz.ID,
			"answers":    items,
			"time_spent": 60,
		}, cs.studentToken)
		require.Equal(t, http.StatusCreated, status, env.Message)
		var result models.AttemptResult
		decode(t, env.Data, &result)
		return result
	}

	perfect := submit(map[uint][]uint{
		q1.ID: {q1.Answers[0].ID},
		q2.ID: {q2.Answers[1].ID, q2.Answers[0].ID},
	})
	assert.Equal(t, 100.0, perfect.Percentage)
	assert.True(t, perfect.IsPassed)
	require.NotNil(t, perfect.AttemptsRemaining)
	assert.Equal(t, 2, *perfect.AttemptsRemaining)
	assert.Len(t, perfect.Results, 2)

	partial := submit(map[uint][]uint{
		q1.ID: {q1.Answers[0].ID},
		q2.ID: {q2.Answers[0].ID},
	})
	assert.Equal(t, 33.33, partial.Percentage)
	assert.False(t, partial.IsPassed)

	status, env = s.do(t, http.MethodGet, quizPath+"/attempts", nil, cs.studentToken)
	require.Equal(t, http.StatusOK, status)
	var attempts []models.QuizAttempt
	decode(t, env.Data, &attempts)
	assert.Len(t, attempts, 2)

	status, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/quizzes/attempts/%d", perfect.AttemptID), nil, cs.instructorToken)
	require.Equal(t, http.StatusOK, status)
	var again models.AttemptResult
	decode(t, env.Data, &again)
	assert.Equal(t, perfect.Score, again.Score)

	status, _ = s.do(t, http.MethodGet, quizPath+"/statistics", nil, cs.studentToken)
	assert.Equal(t, http.StatusForbidden, status)
	status, env = s.do(t, http.MethodGet, quizPath+"/statistics", nil, cs.instructorToken)
	require.Equal(t, http.StatusOK, status)
	var stats models.QuizStatistics
	decode(t, env.Data, &stats)
	assert.EqualValues(t, 2, stats.TotalAttempts)
	assert.EqualValues(t, 1, stats.PassedAttempts)

	status, env = s.do(t, http.MethodGet, quizPath+"/all-attempts?limit=1", nil, cs.instructorToken)
	require.Equal(t, http.StatusOK, status)
	decode(t, env.Data, &attempts)
	assert.Len(t, attempts, 1)
	assert.Equal(t, 1, env.Limit)
	assert.EqualValues(t, 2, env.Total)

	status, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/api/quizzes/answers/%d", q1.Answers[0].ID),
		map[string]bool{"is_correct": false}, cs.instructorToken)
	assert.Equal(t, http.StatusBadRequest, status, "question would lose its only correct answer")

	submit(map[uint][]uint{q1.ID: {q1.Answers[1].ID}})
	status, env = s.do(t, http.MethodPost, "/api/quizzes/submit", map[string]interface{}{
		"quiz_id": quiz.ID,
		"answers": []map[string]interface{}{},
	}, cs.studentToken)
	assert.Equal(t, http.StatusForbidden, status, "attempt limit")
	assert.Contains(t, env.Message, "maximum number of attempts")
}

func TestReviewsAndComments(t *testing.T) {
	s := newTestServer(t, testConfig())
	cs := s.seed(t, 1)

	status, env := s.do(t, http.MethodPost, "/api/reviews", map[string]interface{}{
		"course_id": cs.course.ID,
		"rating":    4,
		"title":     "Solid",
		"comment":   "Clear lessons",
	}, cs.studentToken)
	require.Equal(t, http.StatusCreated, status, env.Message)

	status, _ = s.do(t, http.MethodPost, "/api/reviews", map[string]interface{}{
		"course_id": cs.course.ID,
		"rating":    5,
	}, cs.studentToken)
	assert.Equal(t, http.StatusBadRequest, status, "second review")

	status, _ = s.do(t, http.MethodPost, "/api/reviews", map[string]interface{}{
		"course_id": cs.course.ID,
		"rating":    9,
	}, cs.studentToken)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/reviews/course/%d/stats", cs.course.ID), nil, "")
	require.Equal(t, http.StatusOK, status)
	var stats models.ReviewStats
	decode(t, env.Data, &stats)
	assert.EqualValues(t, 1, stats.TotalReviews)
	assert.Equal(t, 4.0, stats.AverageRating)
	assert.EqualValues(t, 1, stats.RatingDistribution["4"])

	status, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/reviews/course/%d?rating=4", cs.course.ID), nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, env.Total)

	status, env = s.do(t, http.MethodPost, "/api/comments", map[string]interface{}{
		"lesson_id": cs.lessons[0].ID,
		"content":   "<b>Hello</b> there",
	}, cs.studentToken)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var root models.Comment
	decode(t, env.Data, &root)
	assert.Equal(t, "Hello there", root.Content)

	status, _ = s.do(t, http.MethodPost, "/api/comments", map[string]interface{}{
		"lesson_id": cs.lessons[0].ID,
		"content":   "<script></script>",
	}, cs.studentToken)
	assert.Equal(t, http.StatusUnprocessableEntity, status, "empty after sanitizing")

	status, _ = s.do(t, http.MethodPost, "/api/comments", map[string]interface{}{
		"lesson_id": cs.lessons[0].ID,
		"content":   "Thanks",
		"parent_id": root.ID,
	}, cs.instructorToken)
	require.Equal(t, http.StatusCreated, status)

	status, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/comments/lessons/%d", cs.lessons[0].ID), nil, "")
	require.Equal(t, http.StatusOK, status)
	var thread models.CommentThread
	decode(t, env.Data, &thread)
	assert.EqualValues(t, 2, thread.TotalComments)
	require.Len(t, thread.Comments, 1)
	assert.Len(t, thread.Comments[0].Replies, 1)

	_, outsiderToken := s.user(t, models.RoleStudent)
	status, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/comments/%d", root.ID), nil, outsiderToken)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/comments/%d", root.ID), nil, cs.instructorToken)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t, testConfig())
	cs := s.seed(t, 1)
	admin, adminToken := s.user(t, models.RoleAdmin)

	status, _ := s.do(t, http.MethodGet, "/api/admin/statistics", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = s.do(t, http.MethodGet, "/api/admin/statistics", nil, cs.studentToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, env := s.do(t, http.MethodGet, "/api/admin/statistics", nil, adminToken)
	require.Equal(t, http.StatusOK, status)
	var stats models.PlatformStatistics
	decode(t, env.Data, &stats)
	assert.EqualValues(t, 3, stats.TotalUsers)

	status, env = s.do(t, http.MethodGet, "/api/admin/users?role=student", nil, adminToken)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, env.Total)

	status, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/users/%d/role", admin.ID),
		map[string]string{"role": "student"}, adminToken)
	assert.Equal(t, http.StatusBadRequest, status, "self")

	status, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/users/%d/status", cs.student.ID),
		map[string]interface{}{}, adminToken)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/users/%d/status", cs.student.ID),
		map[string]bool{"is_active": false}, adminToken)
	require.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, http.MethodGet, "/api/auth/me", nil, cs.studentToken)
	assert.Equal(t, http.StatusForbidden, status, "deactivated user")

	status, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", cs.instructor.ID), nil, adminToken)
	assert.Equal(t, http.StatusBadRequest, status, "instructor owns courses")

	status, env = s.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/courses/%d/moderate", cs.course.ID),
		map[string]string{"action": "archive"}, adminToken)
	require.Equal(t, http.StatusOK, status, env.Message)
	var course models.Course
	decode(t, env.Data, &course)
	assert.Equal(t, models.CourseArchived, course.Status)

	status, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/courses/%d/moderate", cs.course.ID),
		map[string]string{"action": "burn"}, adminToken)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestUserRoutes(t *testing.T) {
	s := newTestServer(t, testConfig())
	cs := s.seed(t, 1)

	status, env := s.do(t, http.MethodPatch, "/api/users/me", map[string]string{"first_name": "Ivan", "bio": "Learning Go"}, cs.studentToken)
	require.Equal(t, http.StatusOK, status)
	var me models.User
	decode(t, env.Data, &me)
	assert.Equal(t, "Ivan", me.FirstName)

	status, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d", cs.student.ID), nil, "")
	require.Equal(t, http.StatusOK, status)
	var profile models.PublicProfile
	decode(t, env.Data, &profile)
	assert.Equal(t, "Ivan", profile.FullName)

	status, env = s.do(t, http.MethodGet, "/api/users/instructors", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, env.Total)

	status, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/courses", cs.instructor.ID), nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, env.Total)

	status, env = s.do(t, http.MethodGet, "/api/users/me/dashboard", nil, cs.studentToken)
	require.Equal(t, http.StatusOK, status)
	var dash models.StudentDashboard
	decode(t, env.Data, &dash)
	assert.EqualValues(t, 1, dash.Statistics.TotalEnrolled)

	status, _ = s.do(t, http.MethodPatch, "/api/users/me/password", map[string]string{
		"current_password": "wrong-one",
		"new_password":     "another-pass",
	}, cs.studentToken)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCategoryRoutes(t *testing.T) {
	s := newTestServer(t, testConfig())
	_, adminToken := s.user(t, models.RoleAdmin)
	_, studentToken := s.user(t, models.RoleStudent)

	status, _ := s.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "Programming"}, studentToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, env := s.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "Programming"}, adminToken)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var category models.Category
	decode(t, env.Data, &category)
	assert.Equal(t, "programming", category.Slug)

	status, _ = s.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "Programming"}, adminToken)
	assert.Equal(t, http.StatusBadRequest, status, "duplicate")

	status, env = s.do(t, http.MethodGet, "/api/categories/slug/programming", nil, "")
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodGet, "/api/categories/999", nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodGet, "/api/categories/abc", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/categories/%d", category.ID), nil, adminToken)
	assert.Equal(t, http.StatusNoContent, status)
}
