package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/learntrack/internal/domain/notification"
	"github.com/alem-hub/learntrack/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// NotificationRepository implements notification.Repository for PostgreSQL.
type NotificationRepository struct {
	q Querier
}

// NewNotificationRepository creates a NotificationRepository.
func NewNotificationRepository(q Querier) *NotificationRepository {
	return &NotificationRepository{q: q}
}

var _ notification.Repository = (*NotificationRepository)(nil)

// Insert appends a notification.
func (r *NotificationRepository) Insert(ctx context.Context, n *notification.Notification) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO notifications (id, kind, title, content, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, n.ID.String(), string(n.Kind), n.Title, n.Content, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// List returns notifications newest first.
func (r *NotificationRepository) List(ctx context.Context, opts notification.ListOptions) ([]*notification.Notification, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.q.Query(ctx, `
		SELECT id::text, kind, title, content, read, created_at
		FROM notifications
		WHERE ($1 = FALSE OR read = FALSE)
		ORDER BY created_at DESC, id
		LIMIT $2
	`, opts.UnreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*notification.Notification, error) {
		var n notification.Notification
		var id, kind string
		if err := row.Scan(&id, &kind, &n.Title, &n.Content, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.ID = notification.NotificationID(id)
		n.Kind = notification.Kind(kind)
		return &n, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan notifications: %w", err)
	}
	return out, nil
}

// CountUnread counts unread notifications.
func (r *NotificationRepository) CountUnread(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE read = FALSE`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

// MarkRead flags a notification as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id notification.NotificationID) error {
	tag, err := r.q.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id::text = $1`, id.String())
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotificationNotFound
	}
	return nil
}

// Delete removes a notification.
func (r *NotificationRepository) Delete(ctx context.Context, id notification.NotificationID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM notifications WHERE id::text = $1`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotificationNotFound
	}
	return nil
}
