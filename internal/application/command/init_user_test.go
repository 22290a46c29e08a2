package command_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/learntrack/internal/application/command"
	"github.com/alem-hub/learntrack/internal/domain/learner"
	"github.com/alem-hub/learntrack/internal/domain/notification"
	"github.com/alem-hub/learntrack/internal/domain/shared"
	"github.com/alem-hub/learntrack/internal/infrastructure/persistence/memory"
)

func TestInitUser_CreatesThenUpdates(t *testing.T) {
	store := memory.NewStore()
	h := command.NewInitUserHandler(store)
	ctx := context.Background()

	res, err := h.Handle(ctx, command.InitUserCommand{Name: "Aida", Plan: learner.PlanFree})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, learner.SingletonUserID, res.User.ID)

	require.NoError(t, store.Learners().UpdateUserProgress(ctx, 40, 1))

	res, err = h.Handle(ctx, command.InitUserCommand{Name: "Aida K.", Plan: learner.PlanPremium})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "Aida K.", res.User.Name)
	assert.Equal(t, learner.PlanPremium, res.User.Plan)
	assert.Equal(t, 40, res.User.XP, "plan changes keep progress")
}

func TestInitUser_RejectsUnknownPlan(t *testing.T) {
	h := command.NewInitUserHandler(memory.NewStore())

	_, err := h.Handle(context.Background(), command.InitUserCommand{Name: "x", Plan: "gold"})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestNotificationHandler_MarkReadAndDelete(t *testing.T) {
	e := newEnv(t, learner.PlanFree)
	e.enrollFree(t)
	e.completeLesson(t, 1, 10, 8)
	ctx := context.Background()

	list := notifications(t, e)
	require.Len(t, list, 1)
	id := list[0].ID

	require.NoError(t, e.notifyCmd.MarkRead(ctx, command.MarkNotificationReadCommand{ID: id}))
	require.NoError(t, e.notifyCmd.MarkRead(ctx, command.MarkNotificationReadCommand{ID: id}))

	unread, err := e.store.Notifications().CountUnread(ctx)
	require.NoError(t, err)
	assert.Zero(t, unread)

	require.NoError(t, e.notifyCmd.Delete(ctx, command.DeleteNotificationCommand{ID: id}))
	assert.Empty(t, notifications(t, e))

	err = e.notifyCmd.Delete(ctx, command.DeleteNotificationCommand{ID: id})
	assert.ErrorIs(t, err, shared.ErrNotificationNotFound)

	err = e.notifyCmd.MarkRead(ctx, command.MarkNotificationReadCommand{ID: notification.NotificationID("")})
	assert.True(t, shared.IsValidation(err))
}
