package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanUnlock_OpensNextLessonInModule(t *testing.T) {
	current := Module{ID: 1, CourseID: 9, Status: StatusOpened, LessonsCount: 3, LessonsCompleted: 1}
	lessons := []Lesson{
		{ID: 3, ModuleID: 1, Status: StatusLocked},
		{ID: 1, ModuleID: 1, Status: StatusCompleted},
		{ID: 2, ModuleID: 1, Status: StatusLocked},
	}

	plan := PlanUnlock(current, 1, lessons, nil, nil)

	require.Len(t, plan.OpenLessons, 1)
	assert.Equal(t, int64(2), plan.OpenLessons[0].ID)
	assert.Nil(t, plan.CompleteModule)
	assert.Nil(t, plan.OpenModule)
}

func TestPlanUnlock_FinishedModuleOpensNextModuleAndFirstLessonOnly(t *testing.T) {
	current := Module{ID: 1, CourseID: 9, Status: StatusOpened, LessonsCount: 3, LessonsCompleted: 3}
	lessons := []Lesson{
		{ID: 1, ModuleID: 1, Status: StatusCompleted},
		{ID: 2, ModuleID: 1, Status: StatusCompleted},
		{ID: 3, ModuleID: 1, Status: StatusCompleted},
	}
	modules := []Module{current, {ID: 2, CourseID: 9, Status: StatusLocked, LessonsCount: 2}}
	next := NextModule(modules, current)
	require.NotNil(t, next)

	nextLessons := []Lesson{
		{ID: 5, ModuleID: 2, Status: StatusLocked},
		{ID: 4, ModuleID: 2, Status: StatusLocked},
	}

	plan := PlanUnlock(current, 3, lessons, next, nextLessons)

	require.NotNil(t, plan.CompleteModule)
	assert.Equal(t, StatusCompleted, plan.CompleteModule.To)
	require.NotNil(t, plan.OpenModule)
	assert.Equal(t, int64(2), plan.OpenModule.ID)
	require.Len(t, plan.OpenLessons, 1)
	assert.Equal(t, int64(4), plan.OpenLessons[0].ID)
}

func TestPlanUnlock_NeverPlansBackwardMoves(t *testing.T) {
	current := Module{ID: 1, CourseID: 9, Status: StatusCompleted, LessonsCount: 1, LessonsCompleted: 1}
	next := &Module{ID: 2, CourseID: 9, Status: StatusCompleted}
	nextLessons := []Lesson{{ID: 2, ModuleID: 2, Status: StatusCompleted}}

	plan := PlanUnlock(current, 1, []Lesson{{ID: 1, Status: StatusCompleted}}, next, nextLessons)

	assert.True(t, plan.IsEmpty())
}

func TestNextModule_SameCourseOnly(t *testing.T) {
	modules := []Module{
		{ID: 1, CourseID: 9},
		{ID: 2, CourseID: 10},
	}

	assert.Nil(t, NextModule(modules, modules[0]))
}
