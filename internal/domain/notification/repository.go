package notification

import "context"

// ListOptions - параметры выборки.
type ListOptions struct {
	Limit      int
	UnreadOnly bool
}

// Repository определяет операции с уведомлениями.
type Repository interface {
	// Insert добавляет уведомление.
	Insert(ctx context.Context, n *Notification) error

	// List возвращает уведомления, новые первыми.
	List(ctx context.Context, opts ListOptions) ([]*Notification, error)

	// CountUnread считает непрочитанные.
	CountUnread(ctx context.Context) (int, error)

	// MarkRead отмечает уведомление прочитанным.
	// Возвращает ErrNotificationNotFound, если его нет.
	MarkRead(ctx context.Context, id NotificationID) error

	// Delete удаляет уведомление по явному действию пользователя.
	// Возвращает ErrNotificationNotFound, если его нет.
	Delete(ctx context.Context, id NotificationID) error
}
