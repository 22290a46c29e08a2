package query_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/learntrack/internal/application/query"
	"github.com/alem-hub/learntrack/internal/domain/course"
	"github.com/alem-hub/learntrack/internal/domain/learner"
	"github.com/alem-hub/learntrack/internal/domain/notification"
	"github.com/alem-hub/learntrack/internal/domain/shared"
	"github.com/alem-hub/learntrack/internal/infrastructure/persistence/memory"
)

var errMiss = errors.New("miss")

type mapCache struct {
	mu    sync.Mutex
	views map[int64]*course.ProgressView
	sets  int
}

func newMapCache() *mapCache {
	return &mapCache{views: make(map[int64]*course.ProgressView)}
}

func (c *mapCache) Get(_ context.Context, id int64) (*course.ProgressView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.views[id]
	if !ok {
		return nil, errMiss
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, v *course.ProgressView) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views[v.CourseID] = v
	c.sets++
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.views, id)
	return nil
}

func seedCourse(t *testing.T, store *memory.Store) {
	t.Helper()
	tree, err := course.Materialize(&course.Descriptor{
		ID:    5,
		Title: "SQL",
		Type:  course.TypeFree,
		Modules: []course.ModuleDescriptor{
			{ID: 50, Title: "Select", Lessons: []course.LessonDescriptor{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}}},
			{ID: 51, Title: "Join", Lessons: []course.LessonDescriptor{{ID: 3, Title: "c"}}},
		},
	})
	require.NoError(t, err)

	ctx := context.Background()
	repo := store.Courses()
	require.NoError(t, repo.InsertCourse(ctx, &tree.Course))
	require.NoError(t, repo.InsertModules(ctx, tree.Modules))
	require.NoError(t, repo.InsertLessons(ctx, tree.Lessons))
}

func TestGetCourseProgress_BuildsTree(t *testing.T) {
	store := memory.NewStore()
	seedCourse(t, store)

	h := query.NewGetCourseProgressHandler(store.Courses(), nil, nil)
	v, err := h.Handle(context.Background(), query.GetCourseProgressQuery{CourseID: 5})
	require.NoError(t, err)

	assert.Equal(t, "SQL", v.Title)
	require.Len(t, v.Modules, 2)
	assert.Equal(t, course.StatusOpened, v.Modules[0].Status)
	assert.Equal(t, 2, v.Modules[0].LessonsCount)
	require.Len(t, v.Modules[0].Lessons, 2)
	assert.Equal(t, course.StatusOpened, v.Modules[0].Lessons[0].Status)
	assert.Equal(t, course.StatusLocked, v.Modules[1].Status)
}

func TestGetCourseProgress_UsesCache(t *testing.T) {
	store := memory.NewStore()
	seedCourse(t, store)
	cache := newMapCache()
	h := query.NewGetCourseProgressHandler(store.Courses(), cache, nil)
	ctx := context.Background()

	first, err := h.Handle(ctx, query.GetCourseProgressQuery{CourseID: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	_, err = store.Courses().MarkLessonCompleted(ctx, 1)
	require.NoError(t, err)

	cached, err := h.Handle(ctx, query.GetCourseProgressQuery{CourseID: 5})
	require.NoError(t, err)
	assert.Same(t, first, cached)

	fresh, err := h.Handle(ctx, query.GetCourseProgressQuery{CourseID: 5, SkipCache: true})
	require.NoError(t, err)
	assert.Equal(t, course.StatusCompleted, fresh.Modules[0].Lessons[0].Status)
}

func TestGetCourseProgress_NotEnrolled(t *testing.T) {
	h := query.NewGetCourseProgressHandler(memory.NewStore().Courses(), nil, nil)

	_, err := h.Handle(context.Background(), query.GetCourseProgressQuery{CourseID: 404})
	assert.True(t, shared.IsNotFound(err))

	_, err = h.Handle(context.Background(), query.GetCourseProgressQuery{})
	assert.True(t, shared.IsValidation(err))
}

func TestGetLearnerSummary(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	h := query.NewGetLearnerSummaryHandler(store.Learners(), store.Notifications())

	_, err := h.Handle(ctx)
	assert.ErrorIs(t, err, shared.ErrUserNotFound)

	u, err := learner.NewUser("Aida", learner.PlanFree)
	require.NoError(t, err)
	require.NoError(t, store.Learners().SaveUser(ctx, u))

	s, err := h.Handle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Level)
	assert.Equal(t, 100, s.XPToNextLevel)
	assert.Zero(t, s.LevelProgress)

	require.NoError(t, store.Learners().SaveXPLevel(ctx, learner.XPLevel{Level: 2, XP: 250, NextLevel: 200}))
	n, err := notification.New("n-1", notification.LevelUp(2, 200), time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Notifications().Insert(ctx, n))

	s, err = h.Handle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 250, s.XP)
	assert.Zero(t, s.XPToNextLevel)
	assert.Equal(t, 1.0, s.LevelProgress)
	assert.Equal(t, 1, s.UnreadNotifications)
}

func TestListNotifications(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, d := range []notification.Draft{notification.FirstCompletion(8), notification.Halfway(50, 100), notification.LevelUp(2, 200)} {
		n, err := notification.New(notification.NotificationID(string(rune('a'+i))), d, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, store.Notifications().Insert(ctx, n))
	}
	require.NoError(t, store.Notifications().MarkRead(ctx, "c"))

	h := query.NewListNotificationsHandler(store.Notifications())

	all, err := h.Handle(ctx, query.ListNotificationsQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[2].ID)

	unread, err := h.Handle(ctx, query.ListNotificationsQuery{UnreadOnly: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "b", unread[0].ID)
}

func TestListNotificationsQuery_Normalize(t *testing.T) {
	q := query.ListNotificationsQuery{}
	q.Normalize()
	assert.Equal(t, 50, q.Limit)

	q = query.ListNotificationsQuery{Limit: 1000}
	q.Normalize()
	assert.Equal(t, 200, q.Limit)
}
