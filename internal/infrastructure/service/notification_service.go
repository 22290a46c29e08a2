// Package service contains infrastructure services used by the application layer.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/alem-hub/learntrack/internal/domain/notification"
	"github.com/alem-hub/learntrack/pkg/logger"
)

// IDGenerator produces notification ids.
type IDGenerator interface {
	GenerateID() string
}

// UUIDGenerator implements IDGenerator with random UUIDs.
type UUIDGenerator struct{}

// NewIDGenerator returns a UUID generator.
func NewIDGenerator() UUIDGenerator {
	return UUIDGenerator{}
}

// GenerateID returns a new UUID string.
func (UUIDGenerator) GenerateID() string {
	return uuid.New().String()
}

// NotificationEmitter appends notifications. Failures are logged and
// swallowed: emitting never fails the operation that triggered it.
type NotificationEmitter struct {
	repo   notification.Repository
	ids    IDGenerator
	now    func() time.Time
	logger *logger.Logger
}

// NewNotificationEmitter creates a NotificationEmitter.
func NewNotificationEmitter(repo notification.Repository, log *logger.Logger) *NotificationEmitter {
	if log == nil {
		log = logger.Nop()
	}
	return &NotificationEmitter{
		repo:   repo,
		ids:    NewIDGenerator(),
		now:    time.Now,
		logger: log.With(logger.Component("notification_emitter")),
	}
}

// WithIDGenerator replaces the id source. Used in tests.
func (e *NotificationEmitter) WithIDGenerator(ids IDGenerator) *NotificationEmitter {
	e.ids = ids
	return e
}

// Emit stores every draft and returns how many were stored.
func (e *NotificationEmitter) Emit(ctx context.Context, drafts ...notification.Draft) int {
	stored := 0
	for _, d := range drafts {
		n, err := notification.New(notification.NotificationID(e.ids.GenerateID()), d, e.now())
		if err != nil {
			e.logger.Warn("invalid notification draft", logger.String("kind", string(d.Kind)), logger.Err(err))
			continue
		}
		if err := e.repo.Insert(ctx, n); err != nil {
			e.logger.Error("failed to store notification",
				logger.String("kind", string(d.Kind)),
				logger.String("notification_id", n.ID.String()),
				logger.Err(err),
			)
			continue
		}
		stored++
	}
	return stored
}
