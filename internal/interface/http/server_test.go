package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/learntrack/internal/application/command"
	"github.com/alem-hub/learntrack/internal/application/query"
	"github.com/alem-hub/learntrack/internal/domain/course"
	"github.com/alem-hub/learntrack/internal/domain/learner"
	"github.com/alem-hub/learntrack/internal/domain/practice"
	"github.com/alem-hub/learntrack/internal/domain/shared"
	"github.com/alem-hub/learntrack/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/learntrack/internal/infrastructure/service"
	"github.com/alem-hub/learntrack/internal/interface/http/handlers"
)

// stubCatalog knows a free course 100 (module 10: lessons 1-2, module 11:
// lesson 3) and a premium course 200.
type stubCatalog struct{}

func (stubCatalog) FetchCourse(_ context.Context, id int64) (*course.Descriptor, error) {
	switch id {
	case 100:
		return &course.Descriptor{
			ID: 100, Title: "Go basics", Type: course.TypeFree,
			Modules: []course.ModuleDescriptor{
				{ID: 10, Title: "Intro", Lessons: []course.LessonDescriptor{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}}},
				{ID: 11, Title: "Types", Lessons: []course.LessonDescriptor{{ID: 3, Title: "c"}}},
			},
		}, nil
	case 200:
		return &course.Descriptor{
			ID: 200, Title: "Concurrency", Type: course.TypePremium,
			Modules: []course.ModuleDescriptor{{ID: 20, Title: "go", Lessons: []course.LessonDescriptor{{ID: 21, Title: "g"}}}},
		}, nil
	}
	return nil, shared.WrapError("catalog", "FetchCourse", shared.ErrNotFound, "course not found", nil)
}

func (stubCatalog) FetchPractice(context.Context, int64) (*practice.Descriptor, error) {
	return nil, nil
}

type testServer struct {
	*Server
	store *memory.Store
}

func newTestServer(t *testing.T, mutate func(*Config, *Dependencies)) *testServer {
	t.Helper()

	store := memory.NewStore()
	_, err := command.NewInitUserHandler(store).Handle(context.Background(), command.InitUserCommand{Name: "learner", Plan: learner.PlanFree})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	deps := Dependencies{
		EnrollCourse:      command.NewEnrollCourseHandler(store, stubCatalog{}, nil, nil, command.EnrollCourseHandlerConfig{}),
		CompleteLesson:    command.NewCompleteLessonHandler(store, service.NewNotificationEmitter(store.Notifications(), nil), nil, nil),
		Notifications:     command.NewNotificationHandler(store.Notifications()),
		GetCourseProgress: query.NewGetCourseProgressHandler(store.Courses(), nil, nil),
		GetLearnerSummary: query.NewGetLearnerSummaryHandler(store.Learners(), store.Notifications()),
		ListNotifications: query.NewListNotificationsHandler(store.Notifications()),
	}
	if mutate != nil {
		mutate(&cfg, &deps)
	}
	return &testServer{Server: NewServer(cfg, deps), store: store}
}

type decoded struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *APIError       `json:"error"`
	Meta      *ResponseMeta   `json:"meta"`
	RequestID string          `json:"request_id"`
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, decoded) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out decoded
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func dataAs[T any](t *testing.T, d decoded) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(d.Data, &v))
	return v
}

// ─────────────────────────────────────────────────────────────────────────────
// Enrollment
// ─────────────────────────────────────────────────────────────────────────────

func TestServer_Enroll(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := s.do(t, http.MethodPost, "/api/v1/courses/100/enroll", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	got := dataAs[enrollResponse](t, body)
	assert.Equal(t, command.EnrollOutcomeEnrolled, got.Outcome)
	assert.Equal(t, 2, got.ModulesCount)
	assert.Equal(t, 3, got.LessonsCount)
	assert.NotEmpty(t, body.RequestID)

	rec, body = s.do(t, http.MethodPost, "/api/v1/courses/100/enroll", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, command.EnrollOutcomeAlreadyEnrolled, dataAs[enrollResponse](t, body).Outcome)
}

func TestServer_EnrollRejections(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"premium on free plan", "/api/v1/courses/200/enroll", http.StatusPaymentRequired, "payment_required"},
		{"unknown course", "/api/v1/courses/999/enroll", http.StatusNotFound, "not_found"},
		{"non-numeric id", "/api/v1/courses/abc/enroll", http.StatusBadRequest, "invalid_course_id"},
		{"zero id", "/api/v1/courses/0/enroll", http.StatusBadRequest, "invalid_course_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := s.do(t, http.MethodPost, tt.path, "")
			assert.Equal(t, tt.status, rec.Code)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.False(t, body.Success)
		})
	}

	exists, err := s.store.Courses().Exists(context.Background(), 200)
	require.NoError(t, err)
	assert.False(t, exists)
}

// ─────────────────────────────────────────────────────────────────────────────
// Lesson completion and reads
// ─────────────────────────────────────────────────────────────────────────────

func TestServer_CompleteLessonAndReadBack(t *testing.T) {
	s := newTestServer(t, nil)
	rec, _ := s.do(t, http.MethodPost, "/api/v1/courses/100/enroll", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := s.do(t, http.MethodPost, "/api/v1/lessons/1/complete", `{"module_id":10,"earned_xp":8}`)
	require.Equal(t, http.StatusOK, rec.Code)
	res := dataAs[completeLessonResponse](t, body)
	assert.Equal(t, command.CompletionOutcomeCompleted, res.Outcome)
	assert.Equal(t, 1, res.LessonsCompleted)
	assert.InDelta(t, 50.0, res.ModulePercent, 0.001)
	require.NotNil(t, res.Award)
	assert.Equal(t, learner.BranchFirstCompletion, res.Award.Branch)
	assert.Equal(t, 8, res.Award.After.XP)
	assert.Equal(t, 1, res.Notifications)

	// Repeating is a no-op and awards nothing.
	rec, body = s.do(t, http.MethodPost, "/api/v1/lessons/1/complete", `{"module_id":10,"earned_xp":8}`)
	require.Equal(t, http.StatusOK, rec.Code)
	res = dataAs[completeLessonResponse](t, body)
	assert.Equal(t, command.CompletionOutcomeNoOp, res.Outcome)
	assert.Nil(t, res.Award)

	rec, body = s.do(t, http.MethodGet, "/api/v1/courses/100/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := dataAs[course.ProgressView](t, body)
	assert.Equal(t, int64(100), view.CourseID)
	require.Len(t, view.Modules, 2)
	assert.Equal(t, 1, view.Modules[0].LessonsCompleted)

	rec, body = s.do(t, http.MethodGet, "/api/v1/learner", "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := dataAs[query.LearnerSummaryDTO](t, body)
	assert.Equal(t, 8, summary.XP)
	assert.Equal(t, 1, summary.UnreadNotifications)
}

func TestServer_CompleteLessonErrors(t *testing.T) {
	s := newTestServer(t, nil)
	rec, _ := s.do(t, http.MethodPost, "/api/v1/courses/100/enroll", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"malformed body", "/api/v1/lessons/1/complete", `{"module_id":`, http.StatusBadRequest},
		{"unknown field", "/api/v1/lessons/1/complete", `{"module_id":10,"xp":8}`, http.StatusBadRequest},
		{"xp out of range", "/api/v1/lessons/1/complete", `{"module_id":10,"earned_xp":-1}`, http.StatusBadRequest},
		{"lesson outside module", "/api/v1/lessons/3/complete", `{"module_id":10,"earned_xp":1}`, http.StatusBadRequest},
		{"unknown module", "/api/v1/lessons/1/complete", `{"module_id":99,"earned_xp":1}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := s.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotNil(t, body.Error)
		})
	}
}

func TestServer_ProgressNotEnrolled(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := s.do(t, http.MethodGet, "/api/v1/courses/100/progress", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "not_found", body.Error.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Notifications
// ─────────────────────────────────────────────────────────────────────────────

func TestServer_Notifications(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, http.MethodPost, "/api/v1/courses/100/enroll", "")
	s.do(t, http.MethodPost, "/api/v1/lessons/1/complete", `{"module_id":10,"earned_xp":8}`)

	rec, body := s.do(t, http.MethodGet, "/api/v1/notifications?unread=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := dataAs[[]query.NotificationDTO](t, body)
	require.Len(t, list, 1)
	assert.Equal(t, 1, body.Meta.TotalCount)
	id := list[0].ID

	rec, _ = s.do(t, http.MethodPost, "/api/v1/notifications/"+id+"/read", "")
	require.Equal(t, http.StatusOK, rec.Code)

	_, body = s.do(t, http.MethodGet, "/api/v1/notifications?unread=true", "")
	assert.Empty(t, dataAs[[]query.NotificationDTO](t, body))

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/notifications/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/notifications/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Quiz
// ─────────────────────────────────────────────────────────────────────────────

func TestServer_EvaluateAnswer(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		body     string
		delta    int
		newScore int
		passed   bool
	}{
		{`{"is_correct":true,"current_score":10}`, 0, 10, true},
		{`{"is_correct":true,"current_score":5}`, 1, 6, true},
		{`{"is_correct":false,"current_score":6}`, -1, 5, false},
		{`{"is_correct":false,"current_score":0}`, -1, 0, false},
	}

	for _, tt := range tests {
		rec, body := s.do(t, http.MethodPost, "/api/v1/quiz/evaluate", tt.body)
		require.Equal(t, http.StatusOK, rec.Code, tt.body)
		got := dataAs[evaluateResponse](t, body)
		assert.Equal(t, tt.delta, got.Delta, tt.body)
		assert.Equal(t, tt.newScore, got.NewScore, tt.body)
		assert.Equal(t, tt.passed, got.Passed, tt.body)
	}

	rec, _ := s.do(t, http.MethodPost, "/api/v1/quiz/evaluate", `{"current_score":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Health, metrics, middleware
// ─────────────────────────────────────────────────────────────────────────────

func TestServer_Health(t *testing.T) {
	checker := handlers.NewCompositeHealthChecker("test")
	checker.AddCheck("storage", func(context.Context) error { return nil })
	checker.AddOptionalCheck("cache", func(context.Context) error { return errors.New("redis down") })

	s := newTestServer(t, func(_ *Config, d *Dependencies) { d.HealthChecker = checker })

	rec, body := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := dataAs[handlers.HealthStatus](t, body)
	assert.True(t, status.Healthy)
	assert.Contains(t, status.Message, "cache")

	checker.AddCheck("storage", func(context.Context) error { return errors.New("db down") })

	rec, _ = s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec, _ = s.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec, _ = s.do(t, http.MethodGet, "/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_RequestIDPropagation(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Body.String(), `"request_id":"req-42"`)
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, http.MethodGet, "/live", "")

	rec, _ := s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "learntrack_http_requests_total")
}

func TestServer_RateLimit(t *testing.T) {
	s := newTestServer(t, func(c *Config, _ *Dependencies) {
		c.RateLimitPerMinute = 1
		c.RateLimitBurst = 1
	})

	rec, _ := s.do(t, http.MethodGet, "/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, body := s.do(t, http.MethodGet, "/live", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "rate_limit_exceeded", body.Error.Code)
}

func TestServer_UnknownRoute(t *testing.T) {
	s := newTestServer(t, nil)
	rec, _ := s.do(t, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
