package postgres

import (
	"context"
	"fmt"

	"github.com/alem-hub/learntrack/internal/domain/learner"
	"github.com/alem-hub/learntrack/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LearnerRepository implements learner.Repository for PostgreSQL.
type LearnerRepository struct {
	q Querier
}

// NewLearnerRepository creates a LearnerRepository.
func NewLearnerRepository(q Querier) *LearnerRepository {
	return &LearnerRepository{q: q}
}

var _ learner.Repository = (*LearnerRepository)(nil)

// GetUser returns the singleton user. The table check constraint pins the
// id, but the row count is still verified so a broken table fails loudly.
func (r *LearnerRepository) GetUser(ctx context.Context) (*learner.User, error) {
	var u learner.User
	var plan string
	var total int
	err := r.q.QueryRow(ctx, `
		SELECT u.id, u.name, u.plan, u.xp, u.level, (SELECT count(*) FROM users)
		FROM users u
		WHERE u.id = $1
	`, learner.SingletonUserID).Scan(&u.ID, &u.Name, &plan, &u.XP, &u.Level, &total)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if total != 1 {
		return nil, shared.ErrSingletonBroken
	}
	u.Plan = learner.Plan(plan)
	return &u, nil
}

// SaveUser inserts or updates the singleton user.
func (r *LearnerRepository) SaveUser(ctx context.Context, u *learner.User) error {
	if u.ID != learner.SingletonUserID {
		return shared.ErrSingletonBroken
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO users (id, name, plan, xp, level)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			plan = EXCLUDED.plan,
			updated_at = NOW()
	`, u.ID, u.Name, string(u.Plan), u.XP, u.Level)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// UpdateUserProgress mirrors xp and level onto the user row.
func (r *LearnerRepository) UpdateUserProgress(ctx context.Context, xp, level int) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE users SET xp = $2, level = $3, updated_at = NOW() WHERE id = $1
	`, learner.SingletonUserID, xp, level)
	if err != nil {
		return fmt.Errorf("failed to update user progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}
	return nil
}

// GetXPLevel returns the singleton xp row.
func (r *LearnerRepository) GetXPLevel(ctx context.Context) (*learner.XPLevel, error) {
	var x learner.XPLevel
	err := r.q.QueryRow(ctx, `
		SELECT level, xp, next_level FROM xp_levels WHERE id = $1
	`, learner.SingletonUserID).Scan(&x.Level, &x.XP, &x.NextLevel)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("learner", "GetXPLevel", shared.ErrNotFound, "xp level not initialized")
		}
		return nil, fmt.Errorf("failed to get xp level: %w", err)
	}
	return &x, nil
}

// SaveXPLevel upserts the singleton xp row.
func (r *LearnerRepository) SaveXPLevel(ctx context.Context, x learner.XPLevel) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO xp_levels (id, level, xp, next_level)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			level = EXCLUDED.level,
			xp = EXCLUDED.xp,
			next_level = EXCLUDED.next_level,
			updated_at = NOW()
	`, learner.SingletonUserID, x.Level, x.XP, x.NextLevel)
	if err != nil {
		return fmt.Errorf("failed to save xp level: %w", err)
	}
	return nil
}
