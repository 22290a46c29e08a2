package query

import (
	"context"
	"fmt"

	"github.com/alem-hub/learntrack/internal/domain/learner"
	"github.com/alem-hub/learntrack/internal/domain/notification"
	"github.com/alem-hub/learntrack/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEARNER SUMMARY QUERY
// Пользователь, его уровень и число непрочитанных уведомлений.
// ══════════════════════════════════════════════════════════════════════════════

// LearnerSummaryDTO - сводка по пользователю.
type LearnerSummaryDTO struct {
	Name string       `json:"name"`
	Plan learner.Plan `json:"plan"`

	// ─────────────────────────────────────────────────────────────────────────
	// XP и уровень
	// ─────────────────────────────────────────────────────────────────────────

	XP        int `json:"xp"`
	Level     int `json:"level"`
	NextLevel int `json:"next_level"`

	// XPToNextLevel - сколько XP осталось до порога, не меньше 0.
	XPToNextLevel int `json:"xp_to_next_level"`

	// LevelProgress - доля пути к порогу (0.0 - 1.0).
	LevelProgress float64 `json:"level_progress"`

	// UnreadNotifications - число непрочитанных уведомлений.
	UnreadNotifications int `json:"unread_notifications"`
}

// GetLearnerSummaryHandler обрабатывает запрос сводки.
type GetLearnerSummaryHandler struct {
	learners      learner.Repository
	notifications notification.Repository
}

// NewGetLearnerSummaryHandler создаёт обработчик.
func NewGetLearnerSummaryHandler(learners learner.Repository, notifications notification.Repository) *GetLearnerSummaryHandler {
	return &GetLearnerSummaryHandler{learners: learners, notifications: notifications}
}

// Handle выполняет запрос. До первого начисления XP отдаётся начальный уровень.
func (h *GetLearnerSummaryHandler) Handle(ctx context.Context) (*LearnerSummaryDTO, error) {
	user, err := h.learners.GetUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_learner_summary: %w", err)
	}

	x := learner.DefaultXPLevel()
	stored, err := h.learners.GetXPLevel(ctx)
	switch {
	case err == nil:
		x = *stored
	case shared.IsNotFound(err):
	default:
		return nil, fmt.Errorf("get_learner_summary: %w", err)
	}

	unread, err := h.notifications.CountUnread(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_learner_summary: %w", err)
	}

	dto := &LearnerSummaryDTO{
		Name:                user.Name,
		Plan:                user.Plan,
		XP:                  x.XP,
		Level:               x.Level,
		NextLevel:           x.NextLevel,
		UnreadNotifications: unread,
	}
	if left := x.NextLevel - x.XP; left > 0 {
		dto.XPToNextLevel = left
	}
	if x.NextLevel > 0 {
		dto.LevelProgress = min(float64(x.XP)/float64(x.NextLevel), 1)
	}
	return dto, nil
}
