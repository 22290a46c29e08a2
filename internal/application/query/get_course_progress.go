// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/alem-hub/learntrack/internal/domain/course"
	"github.com/alem-hub/learntrack/internal/domain/shared"
	"github.com/alem-hub/learntrack/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET COURSE PROGRESS QUERY
// Возвращает дерево курса: модули, уроки, статусы и проценты.
// Результат кэшируется; кэш сбрасывается после каждого прохождения урока.
// ══════════════════════════════════════════════════════════════════════════════

// GetCourseProgressQuery содержит параметры запроса.
type GetCourseProgressQuery struct {
	// CourseID - id курса (совпадает с id в каталоге).
	CourseID int64

	// SkipCache - читать напрямую из хранилища.
	SkipCache bool
}

// Validate проверяет корректность параметров запроса.
func (q GetCourseProgressQuery) Validate() error {
	if q.CourseID <= 0 {
		return shared.NewDomainError("course", "GetProgress", shared.ErrInvalidInput, "course_id must be positive")
	}
	return nil
}

// GetCourseProgressHandler обрабатывает запрос прогресса курса.
type GetCourseProgressHandler struct {
	courses course.Repository
	cache   course.ProgressCache
	logger  *logger.Logger
	now     func() time.Time
}

// NewGetCourseProgressHandler создаёт обработчик. cache может быть nil.
func NewGetCourseProgressHandler(courses course.Repository, cache course.ProgressCache, log *logger.Logger) *GetCourseProgressHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &GetCourseProgressHandler{
		courses: courses,
		cache:   cache,
		logger:  log.With(logger.Component("get_course_progress")),
		now:     time.Now,
	}
}

// Handle выполняет запрос.
func (h *GetCourseProgressHandler) Handle(ctx context.Context, q GetCourseProgressQuery) (*course.ProgressView, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if h.cache != nil && !q.SkipCache {
		if v, err := h.cache.Get(ctx, q.CourseID); err == nil && v != nil {
			return v, nil
		}
	}

	v, err := h.build(ctx, q.CourseID)
	if err != nil {
		return nil, fmt.Errorf("get_course_progress: %w", err)
	}

	if h.cache != nil {
		// Ошибка кэша не должна ломать чтение.
		if err := h.cache.Set(ctx, v); err != nil {
			h.logger.Warn("failed to cache course progress", logger.CourseID(q.CourseID), logger.Err(err))
		}
	}
	return v, nil
}

func (h *GetCourseProgressHandler) build(ctx context.Context, courseID int64) (*course.ProgressView, error) {
	c, err := h.courses.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	modules, err := h.courses.ListModules(ctx, courseID)
	if err != nil {
		return nil, err
	}

	lessons := make(map[int64][]course.Lesson, len(modules))
	for _, m := range modules {
		ls, err := h.courses.ListLessons(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		lessons[m.ID] = ls
	}

	return course.BuildProgressView(*c, modules, lessons, h.now()), nil
}
