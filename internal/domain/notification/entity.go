// Package notification содержит доменную модель уведомлений learntrack.
// Уведомления только добавляются; удаляет их пользователь явно.
package notification

import (
	"errors"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// NotificationID - уникальный идентификатор уведомления (UUID).
type NotificationID string

// IsValid проверяет, что ID не пустой.
func (id NotificationID) IsValid() bool {
	return strings.TrimSpace(string(id)) != ""
}

// String возвращает строковое представление ID.
func (id NotificationID) String() string {
	return string(id)
}

// Kind - вид уведомления.
type Kind string

const (
	// KindFirstCompletion - первое начисление XP.
	KindFirstCompletion Kind = "first_completion"
	// KindLevelUp - повышение уровня.
	KindLevelUp Kind = "level_up"
	// KindHalfway - половина пути до следующего уровня.
	KindHalfway Kind = "halfway"
)

// IsValid проверяет, что вид корректен.
func (k Kind) IsValid() bool {
	switch k {
	case KindFirstCompletion, KindLevelUp, KindHalfway:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: NOTIFICATION
// ══════════════════════════════════════════════════════════════════════════════

// Draft - содержимое уведомления до записи.
type Draft struct {
	Kind    Kind
	Title   string
	Content string
}

// Notification - записанное уведомление.
type Notification struct {
	ID        NotificationID
	Kind      Kind
	Title     string
	Content   string
	Read      bool
	CreatedAt time.Time
}

// New создаёт непрочитанное уведомление из черновика.
func New(id NotificationID, d Draft, now time.Time) (*Notification, error) {
	if !id.IsValid() {
		return nil, errors.New("notification id is required")
	}
	if strings.TrimSpace(d.Title) == "" {
		return nil, errors.New("notification title is required")
	}
	return &Notification{
		ID:        id,
		Kind:      d.Kind,
		Title:     d.Title,
		Content:   d.Content,
		Read:      false,
		CreatedAt: now.UTC(),
	}, nil
}

// MarkRead отмечает уведомление прочитанным.
func (n *Notification) MarkRead() {
	n.Read = true
}
