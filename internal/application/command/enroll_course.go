// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alem-hub/learntrack/internal/domain/course"
	"github.com/alem-hub/learntrack/internal/domain/practice"
	"github.com/alem-hub/learntrack/internal/domain/shared"
	"github.com/alem-hub/learntrack/internal/domain/unitofwork"
	"github.com/alem-hub/learntrack/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLL COURSE COMMAND
// Copies a remote course and its practice game into local storage, once.
// ══════════════════════════════════════════════════════════════════════════════

// EnrollOutcome is the discriminated result of an enrollment.
type EnrollOutcome string

const (
	EnrollOutcomeEnrolled        EnrollOutcome = "enrolled"
	EnrollOutcomeAlreadyEnrolled EnrollOutcome = "already_enrolled"
	EnrollOutcomePaymentRequired EnrollOutcome = "payment_required"
	EnrollOutcomeError           EnrollOutcome = "error"
)

// EnrollCourseCommand contains the data to enroll in a course.
type EnrollCourseCommand struct {
	// CourseID is the remote catalog id; it is kept locally as is.
	CourseID int64

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c EnrollCourseCommand) Validate() error {
	if c.CourseID <= 0 {
		return shared.NewDomainError("course", "Enroll", shared.ErrInvalidInput, "course_id must be positive")
	}
	return nil
}

// EnrollCourseResult contains the result of an enrollment.
type EnrollCourseResult struct {
	Outcome  EnrollOutcome
	CourseID int64

	// Filled only when Outcome is EnrollOutcomeEnrolled.
	Title        string
	ModulesCount int
	LessonsCount int
	HasPractice  bool
	EnrolledAt   time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// EnrollCourseHandlerConfig contains configuration for the handler.
type EnrollCourseHandlerConfig struct {
	// FetchTimeout bounds the two remote fetches. Zero leaves it to the caller's context.
	FetchTimeout time.Duration
}

// EnrollCourseHandler handles the EnrollCourseCommand.
type EnrollCourseHandler struct {
	uow       unitofwork.UnitOfWork
	catalog   course.Catalog
	publisher shared.EventPublisher
	logger    *logger.Logger
	config    EnrollCourseHandlerConfig
	now       func() time.Time
}

// NewEnrollCourseHandler creates a new EnrollCourseHandler.
func NewEnrollCourseHandler(
	uow unitofwork.UnitOfWork,
	catalog course.Catalog,
	publisher shared.EventPublisher,
	log *logger.Logger,
	config EnrollCourseHandlerConfig,
) *EnrollCourseHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &EnrollCourseHandler{
		uow:       uow,
		catalog:   catalog,
		publisher: publisher,
		logger:    log.With(logger.Component("enroll_course")),
		config:    config,
		now:       time.Now,
	}
}

// Handle executes the enroll command.
//
// PaymentRequired and AlreadyEnrolled are ordinary outcomes and come back
// with a nil error. Every other failure returns EnrollOutcomeError together
// with the cause; nothing is written in that case.
func (h *EnrollCourseHandler) Handle(ctx context.Context, cmd EnrollCourseCommand) (*EnrollCourseResult, error) {
	start := time.Now()
	res, err := h.handle(ctx, cmd)

	EnrollmentResults.WithLabelValues(string(res.Outcome)).Inc()
	EnrollmentDuration.Observe(time.Since(start).Seconds())

	log := h.logger.With(
		logger.CourseID(cmd.CourseID),
		logger.String("outcome", string(res.Outcome)),
		logger.Latency(time.Since(start)),
	)
	if err != nil {
		log.Warn("enrollment failed", logger.Err(err))
	} else {
		log.Info("enrollment finished")
	}
	return res, err
}

func (h *EnrollCourseHandler) handle(ctx context.Context, cmd EnrollCourseCommand) (*EnrollCourseResult, error) {
	res := &EnrollCourseResult{Outcome: EnrollOutcomeError, CourseID: cmd.CourseID}

	if err := cmd.Validate(); err != nil {
		return res, fmt.Errorf("enroll_course: validation failed: %w", err)
	}

	desc, practiceDesc, err := h.fetch(ctx, cmd.CourseID)
	if err != nil {
		return res, fmt.Errorf("enroll_course: fetch: %w", err)
	}

	tree, err := course.Materialize(desc)
	if err != nil {
		return res, fmt.Errorf("enroll_course: %w", err)
	}
	practiceTree, err := practice.Materialize(desc.ID, practiceDesc)
	if err != nil {
		return res, fmt.Errorf("enroll_course: %w", err)
	}

	err = h.uow.Do(ctx, func(ctx context.Context, tx unitofwork.Tx) error {
		user, err := tx.Learners().GetUser(ctx)
		if err != nil {
			return err
		}
		if !user.CanEnroll(desc.RequiresPremium()) {
			return shared.ErrPremiumCourse
		}

		if err := tx.LockCourse(ctx, cmd.CourseID); err != nil {
			return err
		}
		exists, err := tx.Courses().Exists(ctx, cmd.CourseID)
		if err != nil {
			return err
		}
		if exists {
			return shared.ErrAlreadyEnrolled
		}

		return writeTree(ctx, tx, tree, practiceTree)
	})

	switch {
	case err == nil:
	case errors.Is(err, shared.ErrPremiumCourse):
		res.Outcome = EnrollOutcomePaymentRequired
		return res, nil
	case errors.Is(err, shared.ErrAlreadyEnrolled):
		res.Outcome = EnrollOutcomeAlreadyEnrolled
		return res, nil
	default:
		return res, fmt.Errorf("enroll_course: %w", err)
	}

	res.Outcome = EnrollOutcomeEnrolled
	res.Title = tree.Course.Title
	res.ModulesCount = len(tree.Modules)
	res.LessonsCount = len(tree.Lessons)
	res.HasPractice = !practiceTree.IsEmpty()
	res.EnrolledAt = h.now().UTC()

	event := shared.NewCourseEnrolledEvent(res.CourseID, res.Title, res.ModulesCount, res.LessonsCount, res.HasPractice)
	event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	if err := h.publisher.Publish(event); err != nil {
		h.logger.Warn("failed to publish event", logger.String("event", string(event.EventType())), logger.Err(err))
	}

	return res, nil
}

// fetch loads both descriptors concurrently. Either failure cancels the other.
func (h *EnrollCourseHandler) fetch(ctx context.Context, courseID int64) (*course.Descriptor, *practice.Descriptor, error) {
	if h.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.FetchTimeout)
		defer cancel()
	}

	var (
		desc         *course.Descriptor
		practiceDesc *practice.Descriptor
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := h.catalog.FetchCourse(gctx, courseID)
		if err != nil {
			return err
		}
		desc = d
		return nil
	})
	g.Go(func() error {
		d, err := h.catalog.FetchPractice(gctx, courseID)
		if err != nil {
			return err
		}
		practiceDesc = d
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if desc == nil {
		return nil, nil, shared.ErrCatalogInvalidResponse
	}
	return desc, practiceDesc, nil
}

// writeTree inserts the tree level by level: parents before children.
func writeTree(ctx context.Context, tx unitofwork.Tx, t *course.Tree, p *practice.Tree) error {
	courses := tx.Courses()

	if err := courses.InsertCourse(ctx, &t.Course); err != nil {
		if shared.IsAlreadyExists(err) {
			return shared.ErrAlreadyEnrolled
		}
		return err
	}
	if err := courses.InsertModules(ctx, t.Modules); err != nil {
		return fmt.Errorf("insert modules: %w", err)
	}
	if err := courses.InsertLessons(ctx, t.Lessons); err != nil {
		return fmt.Errorf("insert lessons: %w", err)
	}
	if err := courses.InsertQuizItems(ctx, t.QuizItems); err != nil {
		return fmt.Errorf("insert quiz items: %w", err)
	}
	if err := courses.InsertOptions(ctx, t.Options); err != nil {
		return fmt.Errorf("insert options: %w", err)
	}

	if p.IsEmpty() {
		return nil
	}
	games := tx.Practice()
	if err := games.InsertGame(ctx, p.Game); err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	if err := games.InsertLevels(ctx, p.Levels); err != nil {
		return fmt.Errorf("insert game levels: %w", err)
	}
	if err := games.InsertQuizzes(ctx, p.Quizzes); err != nil {
		return fmt.Errorf("insert game quizzes: %w", err)
	}
	return nil
}
