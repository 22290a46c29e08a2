package command

import (
	"context"
	"fmt"
	"time"

	"github.com/alem-hub/learntrack/internal/domain/course"
	"github.com/alem-hub/learntrack/internal/domain/learner"
	"github.com/alem-hub/learntrack/internal/domain/notification"
	"github.com/alem-hub/learntrack/internal/domain/quiz"
	"github.com/alem-hub/learntrack/internal/domain/shared"
	"github.com/alem-hub/learntrack/internal/domain/unitofwork"
	"github.com/alem-hub/learntrack/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE LESSON COMMAND
// Marks a lesson completed and cascades: module and course progress, unlocks,
// XP and level. All of it commits together or not at all.
// ══════════════════════════════════════════════════════════════════════════════

// CompletionOutcome is the discriminated result of CompleteLesson.
type CompletionOutcome string

const (
	CompletionOutcomeCompleted CompletionOutcome = "completed"
	CompletionOutcomeNoOp      CompletionOutcome = "noop"
	CompletionOutcomeError     CompletionOutcome = "error"
)

// CompleteLessonCommand contains the data to complete a lesson.
type CompleteLessonCommand struct {
	LessonID int64
	ModuleID int64

	// EarnedXP is the final score of the quiz attempt, 0..10.
	EarnedXP int

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CompleteLessonCommand) Validate() error {
	if c.LessonID <= 0 {
		return shared.NewDomainError("course", "CompleteLesson", shared.ErrInvalidInput, "lesson_id must be positive")
	}
	if c.ModuleID <= 0 {
		return shared.NewDomainError("course", "CompleteLesson", shared.ErrInvalidInput, "module_id must be positive")
	}
	if c.EarnedXP < quiz.MinScore || c.EarnedXP > quiz.MaxScore {
		return shared.NewDomainError("course", "CompleteLesson", shared.ErrValueOutOfRange,
			fmt.Sprintf("earned_xp must be within [%d, %d], got %d", quiz.MinScore, quiz.MaxScore, c.EarnedXP))
	}
	return nil
}

// CompleteLessonResult contains the result of a completion.
type CompleteLessonResult struct {
	Outcome  CompletionOutcome
	LessonID int64
	ModuleID int64
	CourseID int64

	// Filled only when Outcome is CompletionOutcomeCompleted.
	LessonsCompleted int
	ModulePercent    float64
	ModuleCompleted  bool
	CourseProgress   float64
	OpenedModuleID   int64
	OpenedLessonIDs  []int64
	Award            learner.Award

	// Notifications is how many notifications were actually stored.
	Notifications int
}

// NotificationEmitter stores notifications on a best-effort basis.
// It returns how many drafts were stored and never fails its caller.
type NotificationEmitter interface {
	Emit(ctx context.Context, drafts ...notification.Draft) int
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CompleteLessonHandler handles the CompleteLessonCommand.
type CompleteLessonHandler struct {
	uow       unitofwork.UnitOfWork
	emitter   NotificationEmitter
	publisher shared.EventPublisher
	logger    *logger.Logger
}

// NewCompleteLessonHandler creates a new CompleteLessonHandler.
func NewCompleteLessonHandler(
	uow unitofwork.UnitOfWork,
	emitter NotificationEmitter,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *CompleteLessonHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CompleteLessonHandler{
		uow:       uow,
		emitter:   emitter,
		publisher: publisher,
		logger:    log.With(logger.Component("complete_lesson")),
	}
}

// Handle executes the complete lesson command.
func (h *CompleteLessonHandler) Handle(ctx context.Context, cmd CompleteLessonCommand) (*CompleteLessonResult, error) {
	start := time.Now()
	res, err := h.handle(ctx, cmd)

	LessonCompletions.WithLabelValues(string(res.Outcome)).Inc()

	log := h.logger.With(
		logger.LessonID(cmd.LessonID),
		logger.ModuleID(cmd.ModuleID),
		logger.String("outcome", string(res.Outcome)),
		logger.Latency(time.Since(start)),
	)
	if err != nil {
		log.Warn("lesson completion failed", logger.Err(err))
	} else {
		log.Info("lesson completion finished", logger.XPAmount(cmd.EarnedXP))
	}
	return res, err
}

func (h *CompleteLessonHandler) handle(ctx context.Context, cmd CompleteLessonCommand) (*CompleteLessonResult, error) {
	res := &CompleteLessonResult{
		Outcome:  CompletionOutcomeError,
		LessonID: cmd.LessonID,
		ModuleID: cmd.ModuleID,
	}

	if err := cmd.Validate(); err != nil {
		return res, fmt.Errorf("complete_lesson: validation failed: %w", err)
	}

	var noop bool
	err := h.uow.Do(ctx, func(ctx context.Context, tx unitofwork.Tx) error {
		var err error
		noop, err = completeInTx(ctx, tx, cmd, res)
		return err
	})
	if err != nil {
		// Rolled back: drop whatever the transaction had filled in.
		return &CompleteLessonResult{
			Outcome:  CompletionOutcomeError,
			LessonID: cmd.LessonID,
			ModuleID: cmd.ModuleID,
			CourseID: res.CourseID,
		}, fmt.Errorf("complete_lesson: %w", err)
	}
	if noop {
		res.Outcome = CompletionOutcomeNoOp
		return res, nil
	}

	res.Outcome = CompletionOutcomeCompleted
	XPAwards.WithLabelValues(string(res.Award.Branch)).Inc()

	// Only after commit: a rolled-back completion leaves no notifications.
	if h.emitter != nil {
		res.Notifications = h.emitter.Emit(ctx, notification.ForAward(res.Award)...)
	}
	h.publish(cmd, res)

	return res, nil
}

// completeInTx runs every step against one transaction. It reports noop
// when the lesson was already completed; nothing is written in that case.
func completeInTx(ctx context.Context, tx unitofwork.Tx, cmd CompleteLessonCommand, res *CompleteLessonResult) (bool, error) {
	courses := tx.Courses()

	mod, err := courses.GetModule(ctx, cmd.ModuleID)
	if err != nil {
		return false, err
	}
	res.CourseID = mod.CourseID

	if err := tx.LockCourse(ctx, mod.CourseID); err != nil {
		return false, err
	}
	// Re-read under the lock: a concurrent completion may have moved the counters.
	if mod, err = courses.GetModule(ctx, cmd.ModuleID); err != nil {
		return false, err
	}

	lesson, err := courses.GetLesson(ctx, cmd.LessonID)
	if err != nil {
		return false, err
	}
	if lesson.ModuleID != mod.ID {
		return false, shared.ErrLessonModuleMismatch
	}
	if lesson.IsCompleted() {
		return true, nil
	}

	// a. lesson
	changed, err := courses.MarkLessonCompleted(ctx, lesson.ID)
	if err != nil {
		return false, err
	}
	if !changed {
		return true, nil
	}

	// b. module progress from the canonical count
	completed, err := courses.CountCompletedLessons(ctx, mod.ID)
	if err != nil {
		return false, err
	}
	if err := mod.ApplyCompletedCount(completed); err != nil {
		return false, err
	}
	if err := courses.UpdateModuleProgress(ctx, mod.ID, mod.LessonsCompleted, mod.Percent); err != nil {
		return false, err
	}
	res.LessonsCompleted = mod.LessonsCompleted
	res.ModulePercent = mod.Percent

	// c. course progress
	c, err := courses.Get(ctx, mod.CourseID)
	if err != nil {
		return false, err
	}
	modules, err := courses.ListModules(ctx, mod.CourseID)
	if err != nil {
		return false, err
	}
	progress := course.NextProgress(c.Progress, course.CourseProgress(mod.LessonsCompleted, modules))
	if err := courses.UpdateCourseProgress(ctx, c.ID, progress); err != nil {
		return false, err
	}
	res.CourseProgress = progress

	// d. gating
	if err := applyUnlocks(ctx, courses, *mod, lesson.ID, modules, res); err != nil {
		return false, err
	}

	// e. XP and level
	award, err := awardXP(ctx, tx.Learners(), cmd.EarnedXP)
	if err != nil {
		return false, err
	}
	res.Award = award

	return false, nil
}

func applyUnlocks(ctx context.Context, courses course.Repository, mod course.Module, lessonID int64, modules []course.Module, res *CompleteLessonResult) error {
	lessons, err := courses.ListLessons(ctx, mod.ID)
	if err != nil {
		return err
	}

	next := course.NextModule(modules, mod)
	var nextLessons []course.Lesson
	if next != nil && mod.IsFinished() {
		if nextLessons, err = courses.ListLessons(ctx, next.ID); err != nil {
			return err
		}
	}

	plan := course.PlanUnlock(mod, lessonID, lessons, next, nextLessons)

	if plan.CompleteModule != nil {
		if err := courses.SetModuleStatus(ctx, plan.CompleteModule.ID, plan.CompleteModule.To); err != nil {
			return err
		}
		res.ModuleCompleted = true
	}
	if plan.OpenModule != nil {
		if err := courses.SetModuleStatus(ctx, plan.OpenModule.ID, plan.OpenModule.To); err != nil {
			return err
		}
		res.OpenedModuleID = plan.OpenModule.ID
	}
	for _, ch := range plan.OpenLessons {
		if err := courses.SetLessonStatus(ctx, ch.ID, ch.To); err != nil {
			return err
		}
		res.OpenedLessonIDs = append(res.OpenedLessonIDs, ch.ID)
	}
	return nil
}

func awardXP(ctx context.Context, learners learner.Repository, earned int) (learner.Award, error) {
	current := learner.DefaultXPLevel()
	x, err := learners.GetXPLevel(ctx)
	switch {
	case err == nil:
		current = *x
	case shared.IsNotFound(err):
	default:
		return learner.Award{}, err
	}

	award, err := current.Apply(earned)
	if err != nil {
		return learner.Award{}, err
	}
	if err := learners.SaveXPLevel(ctx, award.After); err != nil {
		return learner.Award{}, err
	}
	if err := learners.UpdateUserProgress(ctx, award.After.XP, award.After.Level); err != nil {
		return learner.Award{}, err
	}
	return award, nil
}

func (h *CompleteLessonHandler) publish(cmd CompleteLessonCommand, res *CompleteLessonResult) {
	events := []shared.Event{
		withCorrelation(shared.NewLessonCompletedEvent(res.CourseID, res.ModuleID, res.LessonID,
			cmd.EarnedXP, res.ModulePercent, res.CourseProgress, res.ModuleCompleted), cmd.CorrelationID),
	}
	if res.ModuleCompleted {
		events = append(events, withCorrelation(
			shared.NewModuleCompletedEvent(res.CourseID, res.ModuleID, res.OpenedModuleID), cmd.CorrelationID))
	}
	if res.Award.LeveledUp() {
		a := res.Award
		events = append(events, withCorrelation(
			shared.NewLevelUpEvent(learner.SingletonUserID, a.Before.Level, a.After.Level, a.After.XP, a.After.NextLevel),
			cmd.CorrelationID))
	}

	for _, e := range events {
		if err := h.publisher.Publish(e); err != nil {
			h.logger.Warn("failed to publish event", logger.String("event", string(e.EventType())), logger.Err(err))
		}
	}
}

// withCorrelation stamps the correlation id on any of the progress events.
func withCorrelation(e shared.Event, id string) shared.Event {
	if id == "" {
		return e
	}
	switch ev := e.(type) {
	case shared.LessonCompletedEvent:
		ev.BaseEvent = ev.BaseEvent.WithCorrelationID(id)
		return ev
	case shared.ModuleCompletedEvent:
		ev.BaseEvent = ev.BaseEvent.WithCorrelationID(id)
		return ev
	case shared.LevelUpEvent:
		ev.BaseEvent = ev.BaseEvent.WithCorrelationID(id)
		return ev
	default:
		return e
	}
}
