package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/learntrack/internal/domain/course"
	"github.com/alem-hub/learntrack/internal/domain/learner"
	"github.com/alem-hub/learntrack/internal/domain/practice"
	"github.com/alem-hub/learntrack/internal/domain/unitofwork"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// ══════════════════════════════════════════════════════════════════════════════

// UnitOfWork implements unitofwork.UnitOfWork on a pgx transaction.
type UnitOfWork struct {
	conn *Connection
	opts TxOptions
}

// NewUnitOfWork creates a UnitOfWork with read-committed transactions.
func NewUnitOfWork(conn *Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn, opts: DefaultTxOptions()}
}

var _ unitofwork.UnitOfWork = (*UnitOfWork)(nil)

// Do runs fn in one transaction.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, tx unitofwork.Tx) error) error {
	return u.conn.WithTx(ctx, u.opts, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{tx: tx})
	})
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Courses() course.Repository     { return NewCourseRepository(t.tx) }
func (t *pgTx) Practice() practice.Repository { return NewPracticeRepository(t.tx) }
func (t *pgTx) Learners() learner.Repository  { return NewLearnerRepository(t.tx) }

// LockCourse takes a transaction-scoped advisory lock keyed by course id.
// It is released on commit or rollback.
func (t *pgTx) LockCourse(ctx context.Context, courseID int64) error {
	if _, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, courseID); err != nil {
		return fmt.Errorf("failed to lock course %d: %w", courseID, err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// Store bundles pool-backed repositories and the unit of work.
type Store struct {
	Conn          *Connection
	UoW           *UnitOfWork
	Courses       *CourseRepository
	Practice      *PracticeRepository
	Learners      *LearnerRepository
	Notifications *NotificationRepository
}

// NewStore wires every repository on one connection pool.
func NewStore(conn *Connection) *Store {
	pool := conn.Pool()
	return &Store{
		Conn:          conn,
		UoW:           NewUnitOfWork(conn),
		Courses:       NewCourseRepository(pool),
		Practice:      NewPracticeRepository(pool),
		Learners:      NewLearnerRepository(pool),
		Notifications: NewNotificationRepository(pool),
	}
}
