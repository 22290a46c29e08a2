package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alem-hub/learntrack/internal/application/command"
	"github.com/alem-hub/learntrack/internal/application/query"
	"github.com/alem-hub/learntrack/internal/domain/learner"
	"github.com/alem-hub/learntrack/internal/domain/notification"
	"github.com/alem-hub/learntrack/internal/domain/quiz"
	"github.com/alem-hub/learntrack/internal/domain/shared"
	"github.com/alem-hub/learntrack/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"name":    "learntrack",
		"version": s.config.Version,
		"endpoints": map[string]string{
			"health":        "/health",
			"enroll":        "POST /api/v1/courses/{id}/enroll",
			"progress":      "GET /api/v1/courses/{id}/progress",
			"complete":      "POST /api/v1/lessons/{id}/complete",
			"evaluate":      "POST /api/v1/quiz/evaluate",
			"learner":       "GET /api/v1/learner",
			"notifications": "GET /api/v1/notifications",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, r, http.StatusOK, map[string]any{
			"healthy": true,
			"uptime":  s.Uptime().Round(time.Second).String(),
			"version": s.config.Version,
		})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, status)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT
// ══════════════════════════════════════════════════════════════════════════════

type enrollResponse struct {
	Outcome      command.EnrollOutcome `json:"outcome"`
	CourseID     int64                 `json:"course_id"`
	Title        string                `json:"title,omitempty"`
	ModulesCount int                   `json:"modules_count,omitempty"`
	LessonsCount int                   `json:"lessons_count,omitempty"`
	HasPractice  bool                  `json:"has_practice,omitempty"`
	EnrolledAt   *time.Time            `json:"enrolled_at,omitempty"`
}

// handleEnrollCourse maps the three non-error outcomes onto 201, 200 and 402.
func (s *Server) handleEnrollCourse(w http.ResponseWriter, r *http.Request) {
	courseID, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_course_id", "Course id must be a positive integer")
		return
	}

	res, err := s.deps.EnrollCourse.Handle(r.Context(), command.EnrollCourseCommand{
		CourseID:      courseID,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body := enrollResponse{Outcome: res.Outcome, CourseID: res.CourseID}
	switch res.Outcome {
	case command.EnrollOutcomeEnrolled:
		body.Title = res.Title
		body.ModulesCount = res.ModulesCount
		body.LessonsCount = res.LessonsCount
		body.HasPractice = res.HasPractice
		body.EnrolledAt = &res.EnrolledAt
		writeJSON(w, r, http.StatusCreated, body)
	case command.EnrollOutcomeAlreadyEnrolled:
		writeJSON(w, r, http.StatusOK, body)
	case command.EnrollOutcomePaymentRequired:
		writeJSONError(w, r, http.StatusPaymentRequired, "payment_required", "This course requires a premium plan")
	default:
		writeJSONError(w, r, http.StatusInternalServerError, "internal_error", "Unexpected enrollment outcome")
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LESSON COMPLETION
// ══════════════════════════════════════════════════════════════════════════════

type completeLessonRequest struct {
	ModuleID int64 `json:"module_id"`
	EarnedXP int   `json:"earned_xp"`
}

type xpLevelDTO struct {
	Level     int `json:"level"`
	XP        int `json:"xp"`
	NextLevel int `json:"next_level"`
}

func toXPLevelDTO(x learner.XPLevel) xpLevelDTO {
	return xpLevelDTO{Level: x.Level, XP: x.XP, NextLevel: x.NextLevel}
}

type awardDTO struct {
	Branch  learner.Branch `json:"branch"`
	Earned  int            `json:"earned"`
	Before  xpLevelDTO     `json:"before"`
	After   xpLevelDTO     `json:"after"`
	Halfway bool           `json:"halfway"`
}

type completeLessonResponse struct {
	Outcome          command.CompletionOutcome `json:"outcome"`
	LessonID         int64                     `json:"lesson_id"`
	ModuleID         int64                     `json:"module_id"`
	CourseID         int64                     `json:"course_id,omitempty"`
	LessonsCompleted int                       `json:"lessons_completed"`
	ModulePercent    float64                   `json:"module_percent"`
	ModuleCompleted  bool                      `json:"module_completed"`
	CourseProgress   float64                   `json:"course_progress"`
	OpenedModuleID   int64                     `json:"opened_module_id,omitempty"`
	OpenedLessonIDs  []int64                   `json:"opened_lesson_ids,omitempty"`
	Award            *awardDTO                 `json:"award,omitempty"`
	Notifications    int                       `json:"notifications"`
}

func (s *Server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_lesson_id", "Lesson id must be a positive integer")
		return
	}

	var req completeLessonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	res, err := s.deps.CompleteLesson.Handle(r.Context(), command.CompleteLessonCommand{
		LessonID:      lessonID,
		ModuleID:      req.ModuleID,
		EarnedXP:      req.EarnedXP,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body := completeLessonResponse{
		Outcome:          res.Outcome,
		LessonID:         res.LessonID,
		ModuleID:         res.ModuleID,
		CourseID:         res.CourseID,
		LessonsCompleted: res.LessonsCompleted,
		ModulePercent:    res.ModulePercent,
		ModuleCompleted:  res.ModuleCompleted,
		CourseProgress:   res.CourseProgress,
		OpenedModuleID:   res.OpenedModuleID,
		OpenedLessonIDs:  res.OpenedLessonIDs,
		Notifications:    res.Notifications,
	}
	if res.Outcome == command.CompletionOutcomeCompleted {
		body.Award = &awardDTO{
			Branch:  res.Award.Branch,
			Earned:  res.Award.Earned,
			Before:  toXPLevelDTO(res.Award.Before),
			After:   toXPLevelDTO(res.Award.After),
			Halfway: res.Award.Halfway,
		}
	}
	writeJSON(w, r, http.StatusOK, body)
}

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ
// ══════════════════════════════════════════════════════════════════════════════

type evaluateRequest struct {
	IsCorrect    *bool `json:"is_correct"`
	CurrentScore int   `json:"current_score"`
}

type evaluateResponse struct {
	quiz.Evaluation
	Passed bool `json:"passed"`
}

// handleEvaluateAnswer scores one answer. It is stateless; the client
// carries the running score between calls.
func (s *Server) handleEvaluateAnswer(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if req.IsCorrect == nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_body", "is_correct is required")
		return
	}

	ev := quiz.Evaluate(*req.IsCorrect, req.CurrentScore)
	writeJSON(w, r, http.StatusOK, evaluateResponse{Evaluation: ev, Passed: quiz.Passed(ev.NewScore)})
}

// ══════════════════════════════════════════════════════════════════════════════
// READ SIDE
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetCourseProgress(w http.ResponseWriter, r *http.Request) {
	courseID, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_course_id", "Course id must be a positive integer")
		return
	}

	view, err := s.deps.GetCourseProgress.Handle(r.Context(), query.GetCourseProgressQuery{
		CourseID:  courseID,
		SkipCache: getQueryParamBool(r, "fresh"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleGetLearner(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.GetLearnerSummary.Handle(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.ListNotifications.Handle(r.Context(), query.ListNotificationsQuery{
		Limit:      getQueryParamInt(r, "limit", 0),
		UnreadOnly: getQueryParamBool(r, "unread"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONWithMeta(w, r, http.StatusOK, list, &ResponseMeta{TotalCount: len(list)})
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := notification.NotificationID(r.PathValue("id"))
	if err := s.deps.Notifications.MarkRead(r.Context(), command.MarkNotificationReadCommand{ID: id}); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"id": id, "read": true})
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	id := notification.NotificationID(r.PathValue("id"))
	if err := s.deps.Notifications.Delete(r.Context(), command.DeleteNotificationCommand{ID: id}); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeError maps domain error kinds onto HTTP statuses. Internal causes
// are logged, never echoed.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)

	message := http.StatusText(status)
	var de *shared.DomainError
	if status < http.StatusInternalServerError && errors.As(err, &de) && de.Message != "" {
		message = de.Message
	}

	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", logger.String("code", code), logger.Err(err))
	} else {
		log.Debug("request rejected", logger.String("code", code), logger.Err(err))
	}

	writeJSONError(w, r, status, code, message)
}

func classify(err error) (int, string) {
	switch {
	case shared.IsValidation(err):
		return http.StatusBadRequest, "invalid_input"
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case shared.IsPaymentRequired(err):
		return http.StatusPaymentRequired, "payment_required"
	case shared.IsAlreadyExists(err):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, shared.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream_timeout"
	case errors.Is(err, shared.ErrRateLimited):
		return http.StatusServiceUnavailable, "upstream_rate_limited"
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "upstream_unavailable"
	case shared.IsExternalService(err), errors.Is(err, shared.ErrInvalidFormat):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, context.Canceled):
		return 499, "client_closed_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decodeJSON reads a single JSON object and rejects unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	return nil
}
