package command_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alem-hub/learntrack/internal/application/command"
	"github.com/alem-hub/learntrack/internal/domain/course"
	"github.com/alem-hub/learntrack/internal/domain/learner"
	"github.com/alem-hub/learntrack/internal/domain/practice"
	"github.com/alem-hub/learntrack/internal/domain/shared"
	"github.com/alem-hub/learntrack/internal/domain/unitofwork"
	"github.com/alem-hub/learntrack/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/learntrack/internal/infrastructure/service"
)

const (
	freeCourseID    int64 = 100
	premiumCourseID int64 = 200
)

// Course 100: module 10 (lessons 1-4), module 11 (lessons 5-7), module 12 (lessons 8-9).
func freeCourse() *course.Descriptor {
	lesson := func(id int64) course.LessonDescriptor {
		return course.LessonDescriptor{
			ID:    id,
			Title: "lesson",
			Quizzes: []course.QuizDescriptor{{
				ID:       id * 10,
				Kind:     course.QuizKindQuestion,
				Question: "2+2?",
				Options: []course.OptionDescriptor{
					{ID: id * 100, Text: "4", IsCorrect: true},
					{ID: id*100 + 1, Text: "5"},
				},
			}},
		}
	}
	return &course.Descriptor{
		ID:    freeCourseID,
		Title: "Go basics",
		Type:  course.TypeFree,
		Modules: []course.ModuleDescriptor{
			{ID: 10, Title: "Intro", Lessons: []course.LessonDescriptor{lesson(1), lesson(2), lesson(3), lesson(4)}},
			{ID: 11, Title: "Types", Lessons: []course.LessonDescriptor{lesson(5), lesson(6), lesson(7)}},
			{ID: 12, Title: "Funcs", Lessons: []course.LessonDescriptor{lesson(8), lesson(9)}},
		},
	}
}

func premiumCourse() *course.Descriptor {
	return &course.Descriptor{
		ID:    premiumCourseID,
		Title: "Concurrency",
		Type:  course.TypePremium,
		Modules: []course.ModuleDescriptor{
			{ID: 20, Title: "Goroutines", Lessons: []course.LessonDescriptor{{ID: 21, Title: "go"}}},
		},
	}
}

func freePractice() *practice.Descriptor {
	return &practice.Descriptor{
		ID:       7,
		Title:    "Go quiz game",
		CourseID: freeCourseID,
		Levels: []practice.LevelDescriptor{
			{ID: 70, Level: 1, Status: "opened", Quizzes: []practice.QuizDescriptor{{ID: 700, Question: "q", Answer: "a", LevelID: 70}}},
		},
	}
}

// fakeCatalog serves descriptors from memory.
type fakeCatalog struct {
	mu        sync.Mutex
	courses   map[int64]*course.Descriptor
	practices map[int64]*practice.Descriptor
	err       error
	block     bool
	calls     int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		courses: map[int64]*course.Descriptor{
			freeCourseID:    freeCourse(),
			premiumCourseID: premiumCourse(),
		},
		practices: map[int64]*practice.Descriptor{freeCourseID: freePractice()},
	}
}

func (c *fakeCatalog) FetchCourse(ctx context.Context, id int64) (*course.Descriptor, error) {
	c.mu.Lock()
	c.calls++
	block, err := c.block, c.err
	d, ok := c.courses[id]
	c.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.WrapError("catalog", "FetchCourse", shared.ErrNotFound, "course not found", nil)
	}
	return d, nil
}

func (c *fakeCatalog) FetchPractice(_ context.Context, id int64) (*practice.Descriptor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.practices[id], nil
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *recordingPublisher) Publish(e shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Fault injection
// ─────────────────────────────────────────────────────────────────────────────

var errDiskFull = errors.New("disk full")

// faultyUoW runs on a real store but hands out repositories that fail
// at chosen steps.
type faultyUoW struct {
	store *memory.Store

	failInsertModules bool
	failSaveXP        bool
}

func (u *faultyUoW) Do(ctx context.Context, fn func(ctx context.Context, tx unitofwork.Tx) error) error {
	return u.store.Do(ctx, func(ctx context.Context, tx unitofwork.Tx) error {
		return fn(ctx, &faultyTx{Tx: tx, u: u})
	})
}

type faultyTx struct {
	unitofwork.Tx
	u *faultyUoW
}

func (t *faultyTx) Courses() course.Repository {
	return &faultyCourses{Repository: t.Tx.Courses(), fail: t.u.failInsertModules}
}

func (t *faultyTx) Learners() learner.Repository {
	return &faultyLearners{Repository: t.Tx.Learners(), fail: t.u.failSaveXP}
}

type faultyCourses struct {
	course.Repository
	fail bool
}

func (r *faultyCourses) InsertModules(ctx context.Context, modules []course.Module) error {
	if r.fail {
		return errDiskFull
	}
	return r.Repository.InsertModules(ctx, modules)
}

type faultyLearners struct {
	learner.Repository
	fail bool
}

func (r *faultyLearners) SaveXPLevel(ctx context.Context, x learner.XPLevel) error {
	if r.fail {
		return errDiskFull
	}
	return r.Repository.SaveXPLevel(ctx, x)
}

// ─────────────────────────────────────────────────────────────────────────────
// Environment
// ─────────────────────────────────────────────────────────────────────────────

type env struct {
	store     *memory.Store
	catalog   *fakeCatalog
	events    *recordingPublisher
	enroll    *command.EnrollCourseHandler
	complete  *command.CompleteLessonHandler
	initUser  *command.InitUserHandler
	notifyCmd *command.NotificationHandler
}

func newEnv(t *testing.T, plan learner.Plan) *env {
	t.Helper()

	store := memory.NewStore()
	e := &env{
		store:   store,
		catalog: newFakeCatalog(),
		events:  &recordingPublisher{},
	}
	e.enroll = command.NewEnrollCourseHandler(store, e.catalog, e.events, nil, command.EnrollCourseHandlerConfig{})
	e.complete = command.NewCompleteLessonHandler(store, service.NewNotificationEmitter(store.Notifications(), nil), e.events, nil)
	e.initUser = command.NewInitUserHandler(store)
	e.notifyCmd = command.NewNotificationHandler(store.Notifications())

	_, err := e.initUser.Handle(context.Background(), command.InitUserCommand{Name: "learner", Plan: plan})
	require.NoError(t, err)
	return e
}

func (e *env) enrollFree(t *testing.T) {
	t.Helper()
	res, err := e.enroll.Handle(context.Background(), command.EnrollCourseCommand{CourseID: freeCourseID})
	require.NoError(t, err)
	require.Equal(t, command.EnrollOutcomeEnrolled, res.Outcome)
}

func (e *env) completeLesson(t *testing.T, lessonID, moduleID int64, xp int) *command.CompleteLessonResult {
	t.Helper()
	res, err := e.complete.Handle(context.Background(), command.CompleteLessonCommand{
		LessonID: lessonID,
		ModuleID: moduleID,
		EarnedXP: xp,
	})
	require.NoError(t, err)
	return res
}

func (e *env) module(t *testing.T, id int64) *course.Module {
	t.Helper()
	m, err := e.store.Courses().GetModule(context.Background(), id)
	require.NoError(t, err)
	return m
}

func (e *env) lesson(t *testing.T, id int64) *course.Lesson {
	t.Helper()
	l, err := e.store.Courses().GetLesson(context.Background(), id)
	require.NoError(t, err)
	return l
}

func (e *env) courseRow(t *testing.T) *course.Course {
	t.Helper()
	c, err := e.store.Courses().Get(context.Background(), freeCourseID)
	require.NoError(t, err)
	return c
}
