package query

import (
	"context"
	"fmt"
	"time"

	"github.com/alem-hub/learntrack/internal/domain/notification"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST NOTIFICATIONS QUERY
// ══════════════════════════════════════════════════════════════════════════════

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

// ListNotificationsQuery содержит параметры выборки.
type ListNotificationsQuery struct {
	// Limit - сколько вернуть (по умолчанию 50, максимум 200).
	Limit int

	// UnreadOnly - только непрочитанные.
	UnreadOnly bool
}

// Normalize приводит лимит к допустимому диапазону.
func (q *ListNotificationsQuery) Normalize() {
	if q.Limit <= 0 {
		q.Limit = defaultNotificationLimit
	}
	if q.Limit > maxNotificationLimit {
		q.Limit = maxNotificationLimit
	}
}

// NotificationDTO - уведомление для ответа.
type NotificationDTO struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ListNotificationsHandler обрабатывает запрос списка уведомлений.
type ListNotificationsHandler struct {
	repo notification.Repository
}

// NewListNotificationsHandler создаёт обработчик.
func NewListNotificationsHandler(repo notification.Repository) *ListNotificationsHandler {
	return &ListNotificationsHandler{repo: repo}
}

// Handle возвращает уведомления, новые первыми.
func (h *ListNotificationsHandler) Handle(ctx context.Context, q ListNotificationsQuery) ([]NotificationDTO, error) {
	q.Normalize()

	list, err := h.repo.List(ctx, notification.ListOptions{Limit: q.Limit, UnreadOnly: q.UnreadOnly})
	if err != nil {
		return nil, fmt.Errorf("list_notifications: %w", err)
	}

	out := make([]NotificationDTO, 0, len(list))
	for _, n := range list {
		out = append(out, NotificationDTO{
			ID:        n.ID.String(),
			Kind:      string(n.Kind),
			Title:     n.Title,
			Content:   n.Content,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	return out, nil
}
