package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// already happened and has been committed to storage.
const (
	// Enrollment events
	EventCourseEnrolled EventType = "course.enrolled"

	// Progress events
	EventLessonCompleted EventType = "progress.lesson_completed"
	EventModuleCompleted EventType = "progress.module_completed"
	EventLevelUp         EventType = "progress.level_up"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() int64

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   int64     `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() int64 {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID int64) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Enrollment Events
// ═══════════════════════════════════════════════════════════════════════════

// CourseEnrolledEvent is emitted after a course tree has been materialized.
type CourseEnrolledEvent struct {
	BaseEvent
	Title       string `json:"title"`
	ModuleCount int    `json:"module_count"`
	LessonCount int    `json:"lesson_count"`
	HasPractice bool   `json:"has_practice"`
}

// NewCourseEnrolledEvent creates a new CourseEnrolledEvent.
func NewCourseEnrolledEvent(courseID int64, title string, modules, lessons int, hasPractice bool) CourseEnrolledEvent {
	return CourseEnrolledEvent{
		BaseEvent:   NewBaseEvent(EventCourseEnrolled, courseID),
		Title:       title,
		ModuleCount: modules,
		LessonCount: lessons,
		HasPractice: hasPractice,
	}
}

// Payload implements Event interface.
func (e CourseEnrolledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"course_id":    e.AggregateId,
		"title":        e.Title,
		"module_count": e.ModuleCount,
		"lesson_count": e.LessonCount,
		"has_practice": e.HasPractice,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// LessonCompletedEvent is emitted once per lesson, after the completion
// transaction commits. Retried completions never produce a second event.
type LessonCompletedEvent struct {
	BaseEvent
	LessonID       int64   `json:"lesson_id"`
	ModuleID       int64   `json:"module_id"`
	EarnedXP       int     `json:"earned_xp"`
	ModulePercent  float64 `json:"module_percent"`
	CoursePercent  float64 `json:"course_percent"`
	ModuleComplete bool    `json:"module_complete"`
}

// NewLessonCompletedEvent creates a new LessonCompletedEvent keyed by course.
func NewLessonCompletedEvent(courseID, moduleID, lessonID int64, earnedXP int, modulePct, coursePct float64, moduleComplete bool) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent:      NewBaseEvent(EventLessonCompleted, courseID),
		LessonID:       lessonID,
		ModuleID:       moduleID,
		EarnedXP:       earnedXP,
		ModulePercent:  modulePct,
		CoursePercent:  coursePct,
		ModuleComplete: moduleComplete,
	}
}

// Payload implements Event interface.
func (e LessonCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"course_id":       e.AggregateId,
		"module_id":       e.ModuleID,
		"lesson_id":       e.LessonID,
		"earned_xp":       e.EarnedXP,
		"module_percent":  e.ModulePercent,
		"course_percent":  e.CoursePercent,
		"module_complete": e.ModuleComplete,
	}
}

// ModuleCompletedEvent is emitted when the last lesson of a module completes.
type ModuleCompletedEvent struct {
	BaseEvent
	ModuleID       int64 `json:"module_id"`
	OpenedModuleID int64 `json:"opened_module_id,omitempty"`
}

// NewModuleCompletedEvent creates a new ModuleCompletedEvent keyed by course.
// openedModuleID is 0 when the course has no further module.
func NewModuleCompletedEvent(courseID, moduleID, openedModuleID int64) ModuleCompletedEvent {
	return ModuleCompletedEvent{
		BaseEvent:      NewBaseEvent(EventModuleCompleted, courseID),
		ModuleID:       moduleID,
		OpenedModuleID: openedModuleID,
	}
}

// Payload implements Event interface.
func (e ModuleCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"course_id":        e.AggregateId,
		"module_id":        e.ModuleID,
		"opened_module_id": e.OpenedModuleID,
	}
}

// LevelUpEvent is emitted when the learner gains a level.
type LevelUpEvent struct {
	BaseEvent
	OldLevel  int `json:"old_level"`
	NewLevel  int `json:"new_level"`
	XP        int `json:"xp"`
	NextLevel int `json:"next_level"`
}

// NewLevelUpEvent creates a new LevelUpEvent keyed by user.
func NewLevelUpEvent(userID int64, oldLevel, newLevel, xp, nextLevel int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID),
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		XP:        xp,
		NextLevel: nextLevel,
	}
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.AggregateId,
		"old_level":  e.OldLevel,
		"new_level":  e.NewLevel,
		"xp":         e.XP,
		"next_level": e.NextLevel,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Infrastructure Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }
