package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/learntrack/internal/domain/course"
	"github.com/alem-hub/learntrack/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CourseRepository implements course.Repository for PostgreSQL.
type CourseRepository struct {
	q Querier
}

// NewCourseRepository creates a CourseRepository on the pool or a transaction.
func NewCourseRepository(q Querier) *CourseRepository {
	return &CourseRepository{q: q}
}

var _ course.Repository = (*CourseRepository)(nil)

// statusRankSQL orders statuses so updates can refuse backward moves.
const statusRankSQL = `CASE %s WHEN 'locked' THEN 0 WHEN 'opened' THEN 1 WHEN 'completed' THEN 2 END`

// ─────────────────────────────────────────────────────────────────────────────
// Read
// ─────────────────────────────────────────────────────────────────────────────

// Exists reports whether the course row is present.
func (r *CourseRepository) Exists(ctx context.Context, courseID int64) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`, courseID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check course %d: %w", courseID, err)
	}
	return exists, nil
}

// Get returns a course by id.
func (r *CourseRepository) Get(ctx context.Context, courseID int64) (*course.Course, error) {
	var c course.Course
	var typ string
	err := r.q.QueryRow(ctx, `
		SELECT id, title, description, type, modules_count, progress::float8
		FROM courses
		WHERE id = $1
	`, courseID).Scan(&c.ID, &c.Title, &c.Description, &typ, &c.ModulesCount, &c.Progress)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course %d: %w", courseID, err)
	}
	c.Type = course.Type(typ)
	return &c, nil
}

const moduleColumns = `id, course_id, title, description, status, lessons_count, lessons_completed, percent::float8`

func scanModule(row pgx.Row) (*course.Module, error) {
	var m course.Module
	var status string
	if err := row.Scan(&m.ID, &m.CourseID, &m.Title, &m.Description, &status,
		&m.LessonsCount, &m.LessonsCompleted, &m.Percent); err != nil {
		return nil, err
	}
	st, err := course.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	m.Status = st
	return &m, nil
}

// GetModule returns a module by id.
func (r *CourseRepository) GetModule(ctx context.Context, moduleID int64) (*course.Module, error) {
	m, err := scanModule(r.q.QueryRow(ctx, `SELECT `+moduleColumns+` FROM modules WHERE id = $1`, moduleID))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module %d: %w", moduleID, err)
	}
	return m, nil
}

// ListModules returns the modules of a course ordered by id.
func (r *CourseRepository) ListModules(ctx context.Context, courseID int64) ([]course.Module, error) {
	rows, err := r.q.Query(ctx, `SELECT `+moduleColumns+` FROM modules WHERE course_id = $1 ORDER BY id`, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules of course %d: %w", courseID, err)
	}
	defer rows.Close()

	var out []course.Module
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

const lessonColumns = `id, module_id, title, body, status`

func scanLesson(row pgx.Row) (*course.Lesson, error) {
	var l course.Lesson
	var status string
	if err := row.Scan(&l.ID, &l.ModuleID, &l.Title, &l.Body, &status); err != nil {
		return nil, err
	}
	st, err := course.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	l.Status = st
	return &l, nil
}

// GetLesson returns a lesson by id.
func (r *CourseRepository) GetLesson(ctx context.Context, lessonID int64) (*course.Lesson, error) {
	l, err := scanLesson(r.q.QueryRow(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, lessonID))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson %d: %w", lessonID, err)
	}
	return l, nil
}

// ListLessons returns the lessons of a module ordered by id.
func (r *CourseRepository) ListLessons(ctx context.Context, moduleID int64) ([]course.Lesson, error) {
	rows, err := r.q.Query(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE module_id = $1 ORDER BY id`, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons of module %d: %w", moduleID, err)
	}
	defer rows.Close()

	var out []course.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// CountCompletedLessons counts completed lessons of a module.
func (r *CourseRepository) CountCompletedLessons(ctx context.Context, moduleID int64) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT count(*) FROM lessons WHERE module_id = $1 AND status = 'completed'`, moduleID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons of module %d: %w", moduleID, err)
	}
	return n, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Materialization
// ─────────────────────────────────────────────────────────────────────────────

// InsertCourse inserts the course row.
func (r *CourseRepository) InsertCourse(ctx context.Context, c *course.Course) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO courses (id, title, description, type, modules_count, progress)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.Title, c.Description, string(c.Type), c.ModulesCount, c.Progress)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("course", "InsertCourse", shared.ErrAlreadyExists, "course already exists", err)
		}
		return fmt.Errorf("failed to insert course %d: %w", c.ID, err)
	}
	return nil
}

// InsertModules inserts modules in one batch.
func (r *CourseRepository) InsertModules(ctx context.Context, modules []course.Module) error {
	b := &pgx.Batch{}
	for _, m := range modules {
		b.Queue(`
			INSERT INTO modules (id, course_id, title, description, status, lessons_count, lessons_completed, percent)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, m.ID, m.CourseID, m.Title, m.Description, string(m.Status), m.LessonsCount, m.LessonsCompleted, m.Percent)
	}
	if err := execBatch(ctx, r.q, b); err != nil {
		return fmt.Errorf("failed to insert modules: %w", err)
	}
	return nil
}

// InsertLessons inserts lessons in one batch.
func (r *CourseRepository) InsertLessons(ctx context.Context, lessons []course.Lesson) error {
	b := &pgx.Batch{}
	for _, l := range lessons {
		b.Queue(`
			INSERT INTO lessons (id, module_id, title, body, status)
			VALUES ($1, $2, $3, $4, $5)
		`, l.ID, l.ModuleID, l.Title, l.Body, string(l.Status))
	}
	if err := execBatch(ctx, r.q, b); err != nil {
		return fmt.Errorf("failed to insert lessons: %w", err)
	}
	return nil
}

// InsertQuizItems inserts quiz items in one batch.
func (r *CourseRepository) InsertQuizItems(ctx context.Context, items []course.QuizItem) error {
	b := &pgx.Batch{}
	for _, q := range items {
		b.Queue(`
			INSERT INTO quiz_items (id, lesson_id, kind, content, question, example, tips)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, q.ID, q.LessonID, string(q.Kind), q.Content, q.Question, q.Example, q.Tips)
	}
	if err := execBatch(ctx, r.q, b); err != nil {
		return fmt.Errorf("failed to insert quiz items: %w", err)
	}
	return nil
}

// InsertOptions inserts options in one batch.
func (r *CourseRepository) InsertOptions(ctx context.Context, options []course.Option) error {
	b := &pgx.Batch{}
	for _, o := range options {
		b.Queue(`
			INSERT INTO options (id, quiz_id, content, is_correct)
			VALUES ($1, $2, $3, $4)
		`, o.ID, o.QuizID, o.Content, o.IsCorrect)
	}
	if err := execBatch(ctx, r.q, b); err != nil {
		return fmt.Errorf("failed to insert options: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Progression
// ─────────────────────────────────────────────────────────────────────────────

// MarkLessonCompleted completes a lesson unless it is already completed.
// The affected-row count tells the caller whether anything changed.
func (r *CourseRepository) MarkLessonCompleted(ctx context.Context, lessonID int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE lessons
		SET status = 'completed', completed_at = NOW()
		WHERE id = $1 AND status <> 'completed'
	`, lessonID)
	if err != nil {
		return false, fmt.Errorf("failed to complete lesson %d: %w", lessonID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateModuleProgress stores the completed count and percent.
func (r *CourseRepository) UpdateModuleProgress(ctx context.Context, moduleID int64, completed int, percent float64) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE modules SET lessons_completed = $2, percent = $3 WHERE id = $1
	`, moduleID, completed, percent)
	if err != nil {
		return fmt.Errorf("failed to update module %d progress: %w", moduleID, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrModuleNotFound
	}
	return nil
}

// UpdateCourseProgress stores the course progress.
func (r *CourseRepository) UpdateCourseProgress(ctx context.Context, courseID int64, progress float64) error {
	tag, err := r.q.Exec(ctx, `UPDATE courses SET progress = $2 WHERE id = $1`, courseID, progress)
	if err != nil {
		return fmt.Errorf("failed to update course %d progress: %w", courseID, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrCourseNotFound
	}
	return nil
}

// SetModuleStatus moves a module forward; backward moves are skipped.
func (r *CourseRepository) SetModuleStatus(ctx context.Context, moduleID int64, to course.Status) error {
	return r.setStatus(ctx, "modules", moduleID, to)
}

// SetLessonStatus moves a lesson forward; backward moves are skipped.
func (r *CourseRepository) SetLessonStatus(ctx context.Context, lessonID int64, to course.Status) error {
	return r.setStatus(ctx, "lessons", lessonID, to)
}

func (r *CourseRepository) setStatus(ctx context.Context, table string, id int64, to course.Status) error {
	if !to.IsValid() {
		return shared.NewDomainError("course", "SetStatus", shared.ErrInvalidInput, fmt.Sprintf("unknown status %q", to))
	}
	query := fmt.Sprintf(`UPDATE %s SET status = $2 WHERE id = $1 AND %s < %s`,
		table,
		fmt.Sprintf(statusRankSQL, "status"),
		fmt.Sprintf(statusRankSQL, "$2::text"),
	)
	if _, err := r.q.Exec(ctx, query, id, string(to)); err != nil {
		return fmt.Errorf("failed to set %s %d status: %w", table, id, err)
	}
	return nil
}
