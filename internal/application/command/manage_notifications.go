package command

import (
	"context"
	"fmt"

	"github.com/alem-hub/learntrack/internal/domain/notification"
	"github.com/alem-hub/learntrack/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION COMMANDS
// Mark read and delete: the only ways a stored notification changes.
// ══════════════════════════════════════════════════════════════════════════════

// MarkNotificationReadCommand marks one notification as read.
type MarkNotificationReadCommand struct {
	ID notification.NotificationID
}

// DeleteNotificationCommand deletes one notification.
type DeleteNotificationCommand struct {
	ID notification.NotificationID
}

func validateNotificationID(op string, id notification.NotificationID) error {
	if !id.IsValid() {
		return shared.NewDomainError("notification", op, shared.ErrInvalidInput, "notification id is required")
	}
	return nil
}

// NotificationHandler handles the notification commands.
type NotificationHandler struct {
	repo notification.Repository
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(repo notification.Repository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

// MarkRead executes MarkNotificationReadCommand. Marking twice is not an error.
func (h *NotificationHandler) MarkRead(ctx context.Context, cmd MarkNotificationReadCommand) error {
	if err := validateNotificationID("MarkRead", cmd.ID); err != nil {
		return err
	}
	if err := h.repo.MarkRead(ctx, cmd.ID); err != nil {
		return fmt.Errorf("mark_notification_read: %w", err)
	}
	return nil
}

// Delete executes DeleteNotificationCommand.
func (h *NotificationHandler) Delete(ctx context.Context, cmd DeleteNotificationCommand) error {
	if err := validateNotificationID("Delete", cmd.ID); err != nil {
		return err
	}
	if err := h.repo.Delete(ctx, cmd.ID); err != nil {
		return fmt.Errorf("delete_notification: %w", err)
	}
	return nil
}
