package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/learntrack/internal/domain/practice"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRACTICE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// PracticeRepository implements practice.Repository for PostgreSQL.
type PracticeRepository struct {
	q Querier
}

// NewPracticeRepository creates a PracticeRepository.
func NewPracticeRepository(q Querier) *PracticeRepository {
	return &PracticeRepository{q: q}
}

var _ practice.Repository = (*PracticeRepository)(nil)

// InsertGame inserts the game row.
func (r *PracticeRepository) InsertGame(ctx context.Context, g *practice.Game) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO games (id, course_id, title, description) VALUES ($1, $2, $3, $4)
	`, g.ID, g.CourseID, g.Title, g.Description)
	if err != nil {
		return fmt.Errorf("failed to insert game %d: %w", g.ID, err)
	}
	return nil
}

// InsertLevels inserts game levels in one batch.
func (r *PracticeRepository) InsertLevels(ctx context.Context, levels []practice.Level) error {
	b := &pgx.Batch{}
	for _, l := range levels {
		b.Queue(`INSERT INTO game_levels (id, game_id, level, status) VALUES ($1, $2, $3, $4)`,
			l.ID, l.GameID, l.Level, l.Status)
	}
	if err := execBatch(ctx, r.q, b); err != nil {
		return fmt.Errorf("failed to insert game levels: %w", err)
	}
	return nil
}

// InsertQuizzes inserts game quizzes in one batch.
func (r *PracticeRepository) InsertQuizzes(ctx context.Context, quizzes []practice.Quiz) error {
	b := &pgx.Batch{}
	for _, q := range quizzes {
		b.Queue(`INSERT INTO game_quizzes (id, level_id, question, answer) VALUES ($1, $2, $3, $4)`,
			q.ID, q.LevelID, q.Question, q.Answer)
	}
	if err := execBatch(ctx, r.q, b); err != nil {
		return fmt.Errorf("failed to insert game quizzes: %w", err)
	}
	return nil
}

// GetByCourse loads the practice tree of a course.
func (r *PracticeRepository) GetByCourse(ctx context.Context, courseID int64) (*practice.Tree, error) {
	var g practice.Game
	err := r.q.QueryRow(ctx, `
		SELECT id, course_id, title, description FROM games WHERE course_id = $1
	`, courseID).Scan(&g.ID, &g.CourseID, &g.Title, &g.Description)
	if err != nil {
		if IsNoRows(err) {
			return &practice.Tree{}, nil
		}
		return nil, fmt.Errorf("failed to get game of course %d: %w", courseID, err)
	}

	tree := &practice.Tree{Game: &g}

	rows, err := r.q.Query(ctx, `
		SELECT id, game_id, level, status FROM game_levels WHERE game_id = $1 ORDER BY level, id
	`, g.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list game levels: %w", err)
	}
	tree.Levels, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (practice.Level, error) {
		var l practice.Level
		err := row.Scan(&l.ID, &l.GameID, &l.Level, &l.Status)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan game levels: %w", err)
	}

	rows, err = r.q.Query(ctx, `
		SELECT q.id, q.level_id, q.question, q.answer
		FROM game_quizzes q JOIN game_levels l ON l.id = q.level_id
		WHERE l.game_id = $1
		ORDER BY l.level, q.id
	`, g.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list game quizzes: %w", err)
	}
	tree.Quizzes, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (practice.Quiz, error) {
		var q practice.Quiz
		err := row.Scan(&q.ID, &q.LevelID, &q.Question, &q.Answer)
		return q, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan game quizzes: %w", err)
	}

	return tree, nil
}
