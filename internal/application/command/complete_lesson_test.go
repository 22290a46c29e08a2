package command_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/learntrack/internal/application/command"
	"github.com/alem-hub/learntrack/internal/domain/course"
	"github.com/alem-hub/learntrack/internal/domain/learner"
	"github.com/alem-hub/learntrack/internal/domain/notification"
	"github.com/alem-hub/learntrack/internal/domain/shared"
	"github.com/alem-hub/learntrack/internal/infrastructure/service"
)

func notifications(t *testing.T, e *env) []*notification.Notification {
	t.Helper()
	list, err := e.store.Notifications().List(context.Background(), notification.ListOptions{})
	require.NoError(t, err)
	return list
}

func xpLevel(t *testing.T, e *env) learner.XPLevel {
	t.Helper()
	x, err := e.store.Learners().GetXPLevel(context.Background())
	require.NoError(t, err)
	return *x
}

func TestCompleteLesson_ModulePercentSequence(t *testing.T) {
	e := newEnv(t, learner.PlanFree)
	e.enrollFree(t)

	want := []float64{25, 50, 75}
	for i, lessonID := range []int64{1, 2, 3} {
		res := e.completeLesson(t, lessonID, 10, 7)
		assert.Equal(t, command.CompletionOutcomeCompleted, res.Outcome)
		assert.Equal(t, want[i], res.ModulePercent)
		assert.Equal(t, want[i], e.module(t, 10).Percent)
		assert.Equal(t, i+1, e.module(t, 10).LessonsCompleted)
	}
	assert.Equal(t, course.StatusOpened, e.module(t, 10).Status)
}

func TestCompleteLesson_CourseProgressUsesModuleCount(t *testing.T) {
	e := newEnv(t, learner.PlanFree)
	e.enrollFree(t)

	// Nine lessons across the course.
	res := e.completeLesson(t, 1, 10, 7)
	assert.Equal(t, 11.11, res.CourseProgress)
	res = e.completeLesson(t, 2, 10, 7)
	assert.Equal(t, 22.22, res.CourseProgress)
	assert.Equal(t, 22.22, e.courseRow(t).Progress)
}

func TestCompleteLesson_OpensNextLessonInModule(t *testing.T) {
	e := newEnv(t, learner.PlanFree)
	e.enrollFree(t)

	res := e.completeLesson(t, 1, 10, 7)
	assert.Equal(t, []int64{2}, res.OpenedLessonIDs)
	assert.Equal(t, course.StatusCompleted, e.lesson(t, 1).Status)
	assert.Equal(t, course.StatusOpened, e.lesson(t, 2).Status)
	assert.Equal(t, course.StatusLocked, e.lesson(t, 3).Status)
}

func TestCompleteLesson_FinishedModuleUnlocksNext(t *testing.T) {
	e := newEnv(t, learner.PlanFree)
	e.enrollFree(t)

	for _, id := range []int64{1, 2, 3, 4} {
		e.completeLesson(t, id, 10, 7)
	}
	assert.Equal(t, course.StatusCompleted, e.module(t, 10).Status)
	assert.Equal(t, course.StatusOpened, e.module(t, 11).Status)

	var last *command.CompleteLessonResult
	for _, id := range []int64{5, 6, 7} {
		last = e.completeLesson(t, id, 11, 7)
	}

	m := e.module(t, 11)
	assert.Equal(t, 3, m.LessonsCount)
	assert.Equal(t, 3, m.LessonsCompleted)
	assert.Equal(t, 100.0, m.Percent)
	assert.Equal(t, course.StatusCompleted, m.Status)

	assert.True(t, last.ModuleCompleted)
	assert.Equal(t, int64(12), last.OpenedModuleID)
	assert.Equal(t, []int64{8}, last.OpenedLessonIDs)

	assert.Equal(t, course.StatusOpened, e.module(t, 12).Status)
	assert.Equal(t, course.StatusOpened, e.lesson(t, 8).Status)
	assert.Equal(t, course.StatusLocked, e.lesson(t, 9).Status)

	assert.Contains(t, e.events.types(), shared.EventModuleCompleted)
}

func TestCompleteLesson_LastModuleHasNoSuccessor(t *testing.T) {
	e := newEnv(t, learner.PlanFree)
	e.enrollFree(t)

	e.completeLesson(t, 8, 12, 7)
	res := e.completeLesson(t, 9, 12, 7)

	assert.True(t, res.ModuleCompleted)
	assert.Zero(t, res.OpenedModuleID)
	assert.Equal(t, course.StatusCompleted, e.module(t, 12).Status)
}

func TestCompleteLesson_FirstCompletionOverwritesXP(t *testing.T) {
	e := newEnv(t, learner.PlanFree)
	e.enrollFree(t)

	res := e.completeLesson(t, 1, 10, 8)
	assert.Equal(t, learner.BranchFirstCompletion, res.Award.Branch)
	assert.Equal(t, 1, res.Notifications)

	assert.Equal(t, learner.XPLevel{Level: 1, XP: 8, NextLevel: 100}, xpLevel(t, e))

	list := notifications(t, e)
	require.Len(t, list, 1)
	assert.Equal(t, notification.KindFirstCompletion, list[0].Kind)
	assert.False(t, list[0].Read)

	user, err := e.store.Learners().GetUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, user.XP)
	assert.Equal(t, 1, user.Level)
}

func TestCompleteLesson_LevelUp(t *testing.T) {
	e := newEnv(t, learner.PlanFree)
	e.enrollFree(t)
	require.NoError(t, e.store.Learners().SaveXPLevel(context.Background(), learner.XPLevel{Level: 1, XP: 100, NextLevel: 100}))

	res := e.completeLesson(t, 1, 10, 5)
	assert.True(t, res.Award.LeveledUp())
	assert.Equal(t, learner.XPLevel{Level: 2, XP: 105, NextLevel: 200}, xpLevel(t, e))

	list := notifications(t, e)
	require.Len(t, list, 1)
	assert.Equal(t, notification.KindLevelUp, list[0].Kind)

	user, err := e.store.Learners().GetUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 105, user.XP)
	assert.Equal(t, 2, user.Level)

	assert.Contains(t, e.events.types(), shared.EventLevelUp)
}

func TestCompleteLesson_HalfwayRepeatsEveryCompletion(t *testing.T) {
	e := newEnv(t, learner.PlanFree)
	e.enrollFree(t)
	require.NoError(t, e.store.Learners().SaveXPLevel(context.Background(), learner.XPLevel{Level: 1, XP: 45, NextLevel: 100}))

	e.completeLesson(t, 1, 10, 5)
	e.completeLesson(t, 2, 10, 5)

	list := notifications(t, e)
	require.Len(t, list, 2)
	for _, n := range list {
		assert.Equal(t, notification.KindHalfway, n.Kind)
	}
	assert.Equal(t, 55, xpLevel(t, e).XP)
}

func TestCompleteLesson_SecondCallIsNoOp(t *testing.T) {
	e := newEnv(t, learner.PlanFree)
	e.enrollFree(t)

	first := e.completeLesson(t, 1, 10, 8)
	require.Equal(t, command.CompletionOutcomeCompleted, first.Outcome)

	moduleBefore := *e.module(t, 10)
	courseBefore := *e.courseRow(t)
	xpBefore := xpLevel(t, e)
	eventsBefore := len(e.events.types())

	second := e.completeLesson(t, 1, 10, 8)
	assert.Equal(t, command.CompletionOutcomeNoOp, second.Outcome)
	assert.Zero(t, second.Notifications)

	assert.Equal(t, moduleBefore, *e.module(t, 10))
	assert.Equal(t, courseBefore, *e.courseRow(t))
	assert.Equal(t, xpBefore, xpLevel(t, e))
	assert.Len(t, notifications(t, e), 1)
	assert.Len(t, e.events.types(), eventsBefore)
}

func TestCompleteLesson_ProgressNeverDecreases(t *testing.T) {
	e := newEnv(t, learner.PlanFree)
	e.enrollFree(t)

	// Interleave modules so the module-level numerator drops between calls.
	order := []struct{ lesson, module int64 }{
		{1, 10}, {2, 10}, {5, 11}, {3, 10}, {6, 11}, {8, 12}, {4, 10}, {7, 11}, {9, 12},
	}

	var lastCourse float64
	lastModule := map[int64]float64{}
	for _, step := range order {
		res := e.completeLesson(t, step.lesson, step.module, 3)
		require.Equal(t, command.CompletionOutcomeCompleted, res.Outcome)

		assert.GreaterOrEqual(t, res.CourseProgress, lastCourse, "lesson %d", step.lesson)
		assert.GreaterOrEqual(t, res.ModulePercent, lastModule[step.module], "lesson %d", step.lesson)
		lastCourse = res.CourseProgress
		lastModule[step.module] = res.ModulePercent
	}
	assert.Equal(t, lastCourse, e.courseRow(t).Progress)
}

func TestCompleteLesson_UnknownModule(t *testing.T) {
	e := newEnv(t, learner.PlanFree)
	e.enrollFree(t)

	res, err := e.complete.Handle(context.Background(), command.CompleteLessonCommand{LessonID: 1, ModuleID: 999, EarnedXP: 5})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrModuleNotFound)
	assert.Equal(t, command.CompletionOutcomeError, res.Outcome)
	assert.Equal(t, course.StatusOpened, e.lesson(t, 1).Status)
}

func TestCompleteLesson_LessonFromAnotherModule(t *testing.T) {
	e := newEnv(t, learner.PlanFree)
	e.enrollFree(t)

	res, err := e.complete.Handle(context.Background(), command.CompleteLessonCommand{LessonID: 5, ModuleID: 10, EarnedXP: 5})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrLessonModuleMismatch)
	assert.Equal(t, command.CompletionOutcomeError, res.Outcome)
}

func TestCompleteLesson_RejectsScoreOutOfRange(t *testing.T) {
	e := newEnv(t, learner.PlanFree)
	e.enrollFree(t)

	for _, xp := range []int{-1, 11} {
		_, err := e.complete.Handle(context.Background(), command.CompleteLessonCommand{LessonID: 1, ModuleID: 10, EarnedXP: xp})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	}
	assert.Equal(t, course.StatusOpened, e.lesson(t, 1).Status)
}

func TestCompleteLesson_FailureRollsBackEverything(t *testing.T) {
	e := newEnv(t, learner.PlanFree)
	e.enrollFree(t)

	uow := &faultyUoW{store: e.store, failSaveXP: true}
	h := command.NewCompleteLessonHandler(uow, service.NewNotificationEmitter(e.store.Notifications(), nil), e.events, nil)
	eventsBefore := len(e.events.types())

	res, err := h.Handle(context.Background(), command.CompleteLessonCommand{LessonID: 1, ModuleID: 10, EarnedXP: 8})
	require.Error(t, err)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, command.CompletionOutcomeError, res.Outcome)
	assert.Zero(t, res.ModulePercent)

	assert.Equal(t, course.StatusOpened, e.lesson(t, 1).Status)
	assert.Equal(t, course.StatusLocked, e.lesson(t, 2).Status)
	assert.Zero(t, e.module(t, 10).LessonsCompleted)
	assert.Zero(t, e.module(t, 10).Percent)
	assert.Zero(t, e.courseRow(t).Progress)
	assert.Empty(t, notifications(t, e))
	assert.Len(t, e.events.types(), eventsBefore)

	_, err = e.store.Learners().GetXPLevel(context.Background())
	assert.True(t, shared.IsNotFound(err))

	// A retry after the fault clears completes normally.
	retry := e.completeLesson(t, 1, 10, 8)
	assert.Equal(t, command.CompletionOutcomeCompleted, retry.Outcome)
}

func TestCompleteLesson_PublishesWithCorrelationID(t *testing.T) {
	e := newEnv(t, learner.PlanFree)
	e.enrollFree(t)
	e.events.events = nil

	_, err := e.complete.Handle(context.Background(), command.CompleteLessonCommand{
		LessonID: 1, ModuleID: 10, EarnedXP: 8, CorrelationID: "req-42",
	})
	require.NoError(t, err)

	require.Equal(t, []shared.EventType{shared.EventLessonCompleted}, e.events.types())
	ev := e.events.events[0].(shared.LessonCompletedEvent)
	assert.Equal(t, "req-42", ev.CorrelationID)
	assert.Equal(t, freeCourseID, ev.AggregateID())
	assert.Equal(t, int64(1), ev.LessonID)
	assert.Equal(t, 8, ev.EarnedXP)
}
