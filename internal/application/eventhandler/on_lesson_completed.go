// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"fmt"
	"time"

	"github.com/alem-hub/learntrack/internal/domain/course"
	"github.com/alem-hub/learntrack/internal/domain/shared"
	"github.com/alem-hub/learntrack/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON PROGRESS CHANGED HANDLER
// Сбрасывает кэш дерева прогресса, когда у курса меняются статусы или
// проценты: после записи на курс и после каждого пройденного урока.
// ═══════════════════════════════════════════════════════════════════════════

// ProgressChangedConfig содержит конфигурацию обработчика.
type ProgressChangedConfig struct {
	// Timeout - ограничение на один сброс кэша.
	Timeout time.Duration
}

// DefaultProgressChangedConfig возвращает конфигурацию по умолчанию.
func DefaultProgressChangedConfig() ProgressChangedConfig {
	return ProgressChangedConfig{Timeout: 2 * time.Second}
}

// OnProgressChangedHandler обрабатывает события прогресса.
type OnProgressChangedHandler struct {
	cache  course.ProgressCache
	logger *logger.Logger
	config ProgressChangedConfig
}

// NewOnProgressChangedHandler создаёт обработчик.
func NewOnProgressChangedHandler(cache course.ProgressCache, log *logger.Logger, config ProgressChangedConfig) *OnProgressChangedHandler {
	if log == nil {
		log = logger.Nop()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultProgressChangedConfig().Timeout
	}
	return &OnProgressChangedHandler{
		cache:  cache,
		logger: log.With(logger.Component("on_progress_changed")),
		config: config,
	}
}

// EventTypes - события, на которые подписывается обработчик.
func (h *OnProgressChangedHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventCourseEnrolled,
		shared.EventLessonCompleted,
		shared.EventModuleCompleted,
	}
}

// Subscribe регистрирует обработчик на шине.
func (h *OnProgressChangedHandler) Subscribe(bus shared.EventSubscriber) error {
	for _, t := range h.EventTypes() {
		if err := bus.Subscribe(t, h.Handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", t, err)
		}
	}
	return nil
}

// Handle обрабатывает событие.
// Реализует интерфейс shared.EventHandler.
// Все три события несут id курса в AggregateID.
func (h *OnProgressChangedHandler) Handle(event shared.Event) error {
	switch event.(type) {
	case shared.CourseEnrolledEvent, shared.LessonCompletedEvent, shared.ModuleCompletedEvent:
	default:
		return nil
	}
	if h.cache == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	courseID := event.AggregateID()
	if err := h.cache.Invalidate(ctx, courseID); err != nil {
		h.logger.Warn("failed to invalidate course progress",
			logger.CourseID(courseID),
			logger.String("event", string(event.EventType())),
			logger.Err(err),
		)
		return fmt.Errorf("invalidate progress for course %d: %w", courseID, err)
	}

	h.logger.Debug("course progress invalidated",
		logger.CourseID(courseID),
		logger.String("event", string(event.EventType())),
	)
	return nil
}
