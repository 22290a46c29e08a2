// Package memory implements every learntrack repository in process memory.
// It backs STORAGE_DRIVER=memory and the command tests.
//
// One mutex guards the whole store. UnitOfWork.Do holds it for the length of
// the callback and restores a snapshot when the callback fails, which gives
// the same all-or-nothing behaviour as a database transaction.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/alem-hub/learntrack/internal/domain/course"
	"github.com/alem-hub/learntrack/internal/domain/learner"
	"github.com/alem-hub/learntrack/internal/domain/notification"
	"github.com/alem-hub/learntrack/internal/domain/practice"
	"github.com/alem-hub/learntrack/internal/domain/shared"
	"github.com/alem-hub/learntrack/internal/domain/unitofwork"
)

type state struct {
	courses     map[int64]course.Course
	modules     map[int64]course.Module
	lessons     map[int64]course.Lesson
	quizItems   map[int64]course.QuizItem
	options     map[int64]course.Option
	games       map[int64]practice.Game
	levels      map[int64]practice.Level
	gameQuizzes map[int64]practice.Quiz

	user *learner.User
	xp   *learner.XPLevel

	notifications []notification.Notification
}

func newState() *state {
	return &state{
		courses:     make(map[int64]course.Course),
		modules:     make(map[int64]course.Module),
		lessons:     make(map[int64]course.Lesson),
		quizItems:   make(map[int64]course.QuizItem),
		options:     make(map[int64]course.Option),
		games:       make(map[int64]practice.Game),
		levels:      make(map[int64]practice.Level),
		gameQuizzes: make(map[int64]practice.Quiz),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	c := &state{
		courses:       cloneMap(s.courses),
		modules:       cloneMap(s.modules),
		lessons:       cloneMap(s.lessons),
		quizItems:     cloneMap(s.quizItems),
		options:       cloneMap(s.options),
		games:         cloneMap(s.games),
		levels:        cloneMap(s.levels),
		gameQuizzes:   cloneMap(s.gameQuizzes),
		notifications: append([]notification.Notification(nil), s.notifications...),
	}
	if s.user != nil {
		u := *s.user
		c.user = &u
	}
	if s.xp != nil {
		x := *s.xp
		c.xp = &x
	}
	return c
}

// Store holds all state.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{st: newState()}
}

// access runs fn against the state, taking the lock unless the caller is
// already inside Do.
type access struct {
	s    *Store
	inTx bool
}

func (a access) run(fn func(st *state) error) error {
	if !a.inTx {
		a.s.mu.Lock()
		defer a.s.mu.Unlock()
	}
	return fn(a.s.st)
}

// Courses returns a course repository outside any transaction.
func (s *Store) Courses() course.Repository { return &courseRepo{access{s: s}} }

// Practice returns a practice repository outside any transaction.
func (s *Store) Practice() practice.Repository { return &practiceRepo{access{s: s}} }

// Learners returns a learner repository outside any transaction.
func (s *Store) Learners() learner.Repository { return &learnerRepo{access{s: s}} }

// Notifications returns the notification repository.
func (s *Store) Notifications() notification.Repository { return &notificationRepo{access{s: s}} }

// Ping always succeeds; it lets the store stand in for a database in health checks.
func (s *Store) Ping(context.Context) error { return nil }

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// ══════════════════════════════════════════════════════════════════════════════

var _ unitofwork.UnitOfWork = (*Store)(nil)

// Do runs fn with the store locked and rolls back on error or panic.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx unitofwork.Tx) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
		if err != nil {
			s.st = snapshot
		}
	}()

	return fn(ctx, &memTx{a: access{s: s, inTx: true}})
}

type memTx struct {
	a access
}

func (t *memTx) Courses() course.Repository     { return &courseRepo{t.a} }
func (t *memTx) Practice() practice.Repository { return &practiceRepo{t.a} }
func (t *memTx) Learners() learner.Repository  { return &learnerRepo{t.a} }

// LockCourse is a no-op: Do already holds the store-wide lock.
func (t *memTx) LockCourse(context.Context, int64) error { return nil }

// ══════════════════════════════════════════════════════════════════════════════
// COURSE REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

type courseRepo struct{ a access }

func (r *courseRepo) Exists(_ context.Context, courseID int64) (bool, error) {
	var ok bool
	err := r.a.run(func(st *state) error {
		_, ok = st.courses[courseID]
		return nil
	})
	return ok, err
}

func (r *courseRepo) Get(_ context.Context, courseID int64) (*course.Course, error) {
	var out *course.Course
	err := r.a.run(func(st *state) error {
		c, ok := st.courses[courseID]
		if !ok {
			return shared.ErrCourseNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *courseRepo) GetModule(_ context.Context, moduleID int64) (*course.Module, error) {
	var out *course.Module
	err := r.a.run(func(st *state) error {
		m, ok := st.modules[moduleID]
		if !ok {
			return shared.ErrModuleNotFound
		}
		out = &m
		return nil
	})
	return out, err
}

func (r *courseRepo) GetLesson(_ context.Context, lessonID int64) (*course.Lesson, error) {
	var out *course.Lesson
	err := r.a.run(func(st *state) error {
		l, ok := st.lessons[lessonID]
		if !ok {
			return shared.ErrLessonNotFound
		}
		out = &l
		return nil
	})
	return out, err
}

func (r *courseRepo) ListModules(_ context.Context, courseID int64) ([]course.Module, error) {
	var out []course.Module
	err := r.a.run(func(st *state) error {
		for _, m := range st.modules {
			if m.CourseID == courseID {
				out = append(out, m)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (r *courseRepo) ListLessons(_ context.Context, moduleID int64) ([]course.Lesson, error) {
	var out []course.Lesson
	err := r.a.run(func(st *state) error {
		for _, l := range st.lessons {
			if l.ModuleID == moduleID {
				out = append(out, l)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (r *courseRepo) CountCompletedLessons(_ context.Context, moduleID int64) (int, error) {
	n := 0
	err := r.a.run(func(st *state) error {
		for _, l := range st.lessons {
			if l.ModuleID == moduleID && l.Status == course.StatusCompleted {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *courseRepo) InsertCourse(_ context.Context, c *course.Course) error {
	return r.a.run(func(st *state) error {
		if _, ok := st.courses[c.ID]; ok {
			return shared.NewDomainError("course", "InsertCourse", shared.ErrAlreadyExists,
				fmt.Sprintf("course %d already exists", c.ID))
		}
		st.courses[c.ID] = *c
		return nil
	})
}

// insertAll checks every key first so a failed batch writes nothing.
func insertAll[V any](dst map[int64]V, rows []V, id func(V) int64, what string) error {
	for _, v := range rows {
		if _, ok := dst[id(v)]; ok {
			return shared.NewDomainError("memory", "Insert", shared.ErrAlreadyExists,
				fmt.Sprintf("%s %d already exists", what, id(v)))
		}
	}
	for _, v := range rows {
		dst[id(v)] = v
	}
	return nil
}

func (r *courseRepo) InsertModules(_ context.Context, modules []course.Module) error {
	return r.a.run(func(st *state) error {
		for _, m := range modules {
			if _, ok := st.courses[m.CourseID]; !ok {
				return fmt.Errorf("module %d references missing course %d", m.ID, m.CourseID)
			}
		}
		return insertAll(st.modules, modules, func(m course.Module) int64 { return m.ID }, "module")
	})
}

func (r *courseRepo) InsertLessons(_ context.Context, lessons []course.Lesson) error {
	return r.a.run(func(st *state) error {
		for _, l := range lessons {
			if _, ok := st.modules[l.ModuleID]; !ok {
				return fmt.Errorf("lesson %d references missing module %d", l.ID, l.ModuleID)
			}
		}
		return insertAll(st.lessons, lessons, func(l course.Lesson) int64 { return l.ID }, "lesson")
	})
}

func (r *courseRepo) InsertQuizItems(_ context.Context, items []course.QuizItem) error {
	return r.a.run(func(st *state) error {
		for _, q := range items {
			if _, ok := st.lessons[q.LessonID]; !ok {
				return fmt.Errorf("quiz item %d references missing lesson %d", q.ID, q.LessonID)
			}
		}
		return insertAll(st.quizItems, items, func(q course.QuizItem) int64 { return q.ID }, "quiz item")
	})
}

func (r *courseRepo) InsertOptions(_ context.Context, options []course.Option) error {
	return r.a.run(func(st *state) error {
		for _, o := range options {
			if _, ok := st.quizItems[o.QuizID]; !ok {
				return fmt.Errorf("option %d references missing quiz %d", o.ID, o.QuizID)
			}
		}
		return insertAll(st.options, options, func(o course.Option) int64 { return o.ID }, "option")
	})
}

func (r *courseRepo) MarkLessonCompleted(_ context.Context, lessonID int64) (bool, error) {
	changed := false
	err := r.a.run(func(st *state) error {
		l, ok := st.lessons[lessonID]
		if !ok || l.Status == course.StatusCompleted {
			return nil
		}
		l.Status = course.StatusCompleted
		st.lessons[lessonID] = l
		changed = true
		return nil
	})
	return changed, err
}

func (r *courseRepo) UpdateModuleProgress(_ context.Context, moduleID int64, completed int, percent float64) error {
	return r.a.run(func(st *state) error {
		m, ok := st.modules[moduleID]
		if !ok {
			return shared.ErrModuleNotFound
		}
		m.LessonsCompleted = completed
		m.Percent = percent
		st.modules[moduleID] = m
		return nil
	})
}

func (r *courseRepo) UpdateCourseProgress(_ context.Context, courseID int64, progress float64) error {
	return r.a.run(func(st *state) error {
		c, ok := st.courses[courseID]
		if !ok {
			return shared.ErrCourseNotFound
		}
		c.Progress = progress
		st.courses[courseID] = c
		return nil
	})
}

func (r *courseRepo) SetModuleStatus(_ context.Context, moduleID int64, to course.Status) error {
	if !to.IsValid() {
		return shared.NewDomainError("course", "SetStatus", shared.ErrInvalidInput, fmt.Sprintf("unknown status %q", to))
	}
	return r.a.run(func(st *state) error {
		m, ok := st.modules[moduleID]
		if !ok || !m.Status.CanTransitionTo(to) {
			return nil
		}
		m.Status = to
		st.modules[moduleID] = m
		return nil
	})
}

func (r *courseRepo) SetLessonStatus(_ context.Context, lessonID int64, to course.Status) error {
	if !to.IsValid() {
		return shared.NewDomainError("course", "SetStatus", shared.ErrInvalidInput, fmt.Sprintf("unknown status %q", to))
	}
	return r.a.run(func(st *state) error {
		l, ok := st.lessons[lessonID]
		if !ok || !l.Status.CanTransitionTo(to) {
			return nil
		}
		l.Status = to
		st.lessons[lessonID] = l
		return nil
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// PRACTICE REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

type practiceRepo struct{ a access }

func (r *practiceRepo) InsertGame(_ context.Context, g *practice.Game) error {
	return r.a.run(func(st *state) error {
		if _, ok := st.courses[g.CourseID]; !ok {
			return fmt.Errorf("game %d references missing course %d", g.ID, g.CourseID)
		}
		return insertAll(st.games, []practice.Game{*g}, func(g practice.Game) int64 { return g.ID }, "game")
	})
}

func (r *practiceRepo) InsertLevels(_ context.Context, levels []practice.Level) error {
	return r.a.run(func(st *state) error {
		return insertAll(st.levels, levels, func(l practice.Level) int64 { return l.ID }, "game level")
	})
}

func (r *practiceRepo) InsertQuizzes(_ context.Context, quizzes []practice.Quiz) error {
	return r.a.run(func(st *state) error {
		return insertAll(st.gameQuizzes, quizzes, func(q practice.Quiz) int64 { return q.ID }, "game quiz")
	})
}

func (r *practiceRepo) GetByCourse(_ context.Context, courseID int64) (*practice.Tree, error) {
	tree := &practice.Tree{}
	err := r.a.run(func(st *state) error {
		for _, g := range st.games {
			if g.CourseID == courseID {
				game := g
				tree.Game = &game
				break
			}
		}
		if tree.Game == nil {
			return nil
		}
		levelIDs := make(map[int64]struct{})
		for _, l := range st.levels {
			if l.GameID == tree.Game.ID {
				tree.Levels = append(tree.Levels, l)
				levelIDs[l.ID] = struct{}{}
			}
		}
		for _, q := range st.gameQuizzes {
			if _, ok := levelIDs[q.LevelID]; ok {
				tree.Quizzes = append(tree.Quizzes, q)
			}
		}
		sort.Slice(tree.Levels, func(i, j int) bool { return tree.Levels[i].Level < tree.Levels[j].Level })
		sort.Slice(tree.Quizzes, func(i, j int) bool { return tree.Quizzes[i].ID < tree.Quizzes[j].ID })
		return nil
	})
	return tree, err
}

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

type learnerRepo struct{ a access }

func (r *learnerRepo) GetUser(_ context.Context) (*learner.User, error) {
	var out *learner.User
	err := r.a.run(func(st *state) error {
		if st.user == nil {
			return shared.ErrUserNotFound
		}
		u := *st.user
		out = &u
		return nil
	})
	return out, err
}

func (r *learnerRepo) SaveUser(_ context.Context, u *learner.User) error {
	if u.ID != learner.SingletonUserID {
		return shared.ErrSingletonBroken
	}
	return r.a.run(func(st *state) error {
		if st.user != nil {
			st.user.Name = u.Name
			st.user.Plan = u.Plan
			return nil
		}
		cp := *u
		st.user = &cp
		return nil
	})
}

func (r *learnerRepo) UpdateUserProgress(_ context.Context, xp, level int) error {
	return r.a.run(func(st *state) error {
		if st.user == nil {
			return shared.ErrUserNotFound
		}
		st.user.XP = xp
		st.user.Level = level
		return nil
	})
}

func (r *learnerRepo) GetXPLevel(_ context.Context) (*learner.XPLevel, error) {
	var out *learner.XPLevel
	err := r.a.run(func(st *state) error {
		if st.xp == nil {
			return shared.NewDomainError("learner", "GetXPLevel", shared.ErrNotFound, "xp level not initialized")
		}
		x := *st.xp
		out = &x
		return nil
	})
	return out, err
}

func (r *learnerRepo) SaveXPLevel(_ context.Context, x learner.XPLevel) error {
	return r.a.run(func(st *state) error {
		st.xp = &x
		return nil
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

type notificationRepo struct{ a access }

func (r *notificationRepo) Insert(_ context.Context, n *notification.Notification) error {
	return r.a.run(func(st *state) error {
		for _, existing := range st.notifications {
			if existing.ID == n.ID {
				return shared.NewDomainError("notification", "Insert", shared.ErrAlreadyExists, "duplicate notification id")
			}
		}
		st.notifications = append(st.notifications, *n)
		return nil
	})
}

func (r *notificationRepo) List(_ context.Context, opts notification.ListOptions) ([]*notification.Notification, error) {
	var out []*notification.Notification
	err := r.a.run(func(st *state) error {
		// Newest first: walk the append-only log backwards.
		for i := len(st.notifications) - 1; i >= 0; i-- {
			n := st.notifications[i]
			if opts.UnreadOnly && n.Read {
				continue
			}
			out = append(out, &n)
			if opts.Limit > 0 && len(out) == opts.Limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *notificationRepo) CountUnread(_ context.Context) (int, error) {
	n := 0
	err := r.a.run(func(st *state) error {
		for _, x := range st.notifications {
			if !x.Read {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *notificationRepo) MarkRead(_ context.Context, id notification.NotificationID) error {
	return r.a.run(func(st *state) error {
		for i := range st.notifications {
			if st.notifications[i].ID == id {
				st.notifications[i].MarkRead()
				return nil
			}
		}
		return shared.ErrNotificationNotFound
	})
}

func (r *notificationRepo) Delete(_ context.Context, id notification.NotificationID) error {
	return r.a.run(func(st *state) error {
		for i := range st.notifications {
			if st.notifications[i].ID == id {
				st.notifications = append(st.notifications[:i], st.notifications[i+1:]...)
				return nil
			}
		}
		return shared.ErrNotificationNotFound
	})
}
