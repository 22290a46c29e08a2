package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Migration represents a database migration.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// migrationLockKey serializes concurrent migrators.
const migrationLockKey int64 = 0x6c74_6d69_67

// Migrator applies embedded migrations and records them in schema_migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
}

// NewMigrator creates a migrator with the embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return NewMigratorWithMigrations(conn, GetMigrations())
}

// NewMigratorWithMigrations creates a migrator with custom migrations.
func NewMigratorWithMigrations(conn *Connection, migrations []Migration) *Migrator {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })
	return &Migrator{conn: conn, migrations: sorted}
}

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func (m *Migrator) applied(ctx context.Context, q Querier) (map[int]time.Time, error) {
	if _, err := q.Exec(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := q.Query(ctx, `SELECT version, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	out := make(map[int]time.Time)
	for rows.Next() {
		var v int
		var at time.Time
		if err := rows.Scan(&v, &at); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		out[v] = at
	}
	return out, rows.Err()
}

// Migrate applies all pending migrations in one transaction.
// Returns the number of migrations applied.
func (m *Migrator) Migrate(ctx context.Context) (int, error) {
	count := 0
	err := m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockKey); err != nil {
			return err
		}

		done, err := m.applied(ctx, tx)
		if err != nil {
			return err
		}

		for _, mig := range m.migrations {
			if _, ok := done[mig.Version]; ok {
				continue
			}
			if mig.UpSQL == "" {
				return fmt.Errorf("missing up SQL for migration %d", mig.Version)
			}
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return fmt.Errorf("migration %d (%s): %w", mig.Version, mig.Name, err)
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
				mig.Version, mig.Name,
			); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}
	return count, nil
}

// Rollback reverts the most recent applied migration.
func (m *Migrator) Rollback(ctx context.Context) error {
	return m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockKey); err != nil {
			return err
		}

		done, err := m.applied(ctx, tx)
		if err != nil {
			return err
		}

		last := 0
		for v := range done {
			if v > last {
				last = v
			}
		}
		if last == 0 {
			return nil
		}

		for _, mig := range m.migrations {
			if mig.Version != last {
				continue
			}
			if mig.DownSQL == "" {
				return fmt.Errorf("%w: missing down SQL for migration %d", ErrMigrationFailed, last)
			}
			if _, err := tx.Exec(ctx, mig.DownSQL); err != nil {
				return fmt.Errorf("%w: rollback %d: %v", ErrMigrationFailed, last, err)
			}
			_, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, last)
			return err
		}
		return fmt.Errorf("%w: unknown applied migration %d", ErrMigrationFailed, last)
	})
}

// Status returns every known migration with its applied state.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	done, err := m.applied(ctx, m.conn.Pool())
	if err != nil {
		return nil, err
	}

	out := make([]Migration, len(m.migrations))
	copy(out, m.migrations)
	for i := range out {
		if at, ok := done[out[i].Version]; ok {
			out[i].IsApplied = true
			out[i].AppliedAt = at
		}
	}
	return out, nil
}

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_learner", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_course_tree", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_practice_mirror", UpSQL: migration003Up, DownSQL: migration003Down},
		{Version: 4, Name: "create_notifications", UpSQL: migration004Up, DownSQL: migration004Down},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: LEARNER
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Single local user; id is pinned to 1.
CREATE TABLE IF NOT EXISTS users (
    id BIGINT PRIMARY KEY,
    name VARCHAR(100) NOT NULL DEFAULT '',
    plan VARCHAR(16) NOT NULL DEFAULT 'free',
    xp INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CONSTRAINT users_singleton CHECK (id = 1),
    CONSTRAINT users_valid_plan CHECK (plan IN ('free', 'premium')),
    CONSTRAINT users_valid_xp CHECK (xp >= 0)
);

CREATE TABLE IF NOT EXISTS xp_levels (
    id BIGINT PRIMARY KEY,
    level INTEGER NOT NULL,
    xp INTEGER NOT NULL,
    next_level INTEGER NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CONSTRAINT xp_levels_singleton CHECK (id = 1),
    CONSTRAINT xp_levels_valid_xp CHECK (xp >= 0)
);
`

const migration001Down = `
DROP TABLE IF EXISTS xp_levels;
DROP TABLE IF EXISTS users;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: COURSE TREE
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Ids come from the remote catalog and are never renumbered.
CREATE TABLE IF NOT EXISTS courses (
    id BIGINT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    type VARCHAR(16) NOT NULL,
    modules_count INTEGER NOT NULL DEFAULT 0,
    progress NUMERIC(5,2) NOT NULL DEFAULT 0,
    enrolled_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CONSTRAINT courses_valid_type CHECK (type IN ('free', 'premium')),
    CONSTRAINT courses_valid_progress CHECK (progress >= 0 AND progress <= 100)
);

CREATE TABLE IF NOT EXISTS modules (
    id BIGINT PRIMARY KEY,
    course_id BIGINT NOT NULL REFERENCES courses(id),
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status VARCHAR(16) NOT NULL,
    lessons_count INTEGER NOT NULL DEFAULT 0,
    lessons_completed INTEGER NOT NULL DEFAULT 0,
    percent NUMERIC(5,2) NOT NULL DEFAULT 0,

    CONSTRAINT modules_valid_status CHECK (status IN ('locked', 'opened', 'completed')),
    CONSTRAINT modules_valid_counts CHECK (lessons_completed >= 0 AND lessons_completed <= lessons_count)
);

CREATE INDEX IF NOT EXISTS idx_modules_course_id ON modules(course_id, id);

CREATE TABLE IF NOT EXISTS lessons (
    id BIGINT PRIMARY KEY,
    module_id BIGINT NOT NULL REFERENCES modules(id),
    title TEXT NOT NULL,
    body TEXT NOT NULL DEFAULT '',
    status VARCHAR(16) NOT NULL,
    completed_at TIMESTAMPTZ,

    CONSTRAINT lessons_valid_status CHECK (status IN ('locked', 'opened', 'completed'))
);

CREATE INDEX IF NOT EXISTS idx_lessons_module_id ON lessons(module_id, id);
CREATE INDEX IF NOT EXISTS idx_lessons_module_completed ON lessons(module_id) WHERE status = 'completed';

CREATE TABLE IF NOT EXISTS quiz_items (
    id BIGINT PRIMARY KEY,
    lesson_id BIGINT NOT NULL REFERENCES lessons(id),
    kind VARCHAR(16) NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    question TEXT NOT NULL DEFAULT '',
    example TEXT NOT NULL DEFAULT '',
    tips TEXT NOT NULL DEFAULT '',

    CONSTRAINT quiz_items_valid_kind CHECK (kind IN ('content', 'question'))
);

CREATE INDEX IF NOT EXISTS idx_quiz_items_lesson_id ON quiz_items(lesson_id);

CREATE TABLE IF NOT EXISTS options (
    id BIGINT PRIMARY KEY,
    quiz_id BIGINT NOT NULL REFERENCES quiz_items(id),
    content TEXT NOT NULL,
    is_correct BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_options_quiz_id ON options(quiz_id);
`

const migration002Down = `
DROP TABLE IF EXISTS options;
DROP TABLE IF EXISTS quiz_items;
DROP TABLE IF EXISTS lessons;
DROP TABLE IF EXISTS modules;
DROP TABLE IF EXISTS courses;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: PRACTICE MIRROR
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS games (
    id BIGINT PRIMARY KEY,
    course_id BIGINT NOT NULL REFERENCES courses(id),
    title TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT ''
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_games_course_id ON games(course_id);

CREATE TABLE IF NOT EXISTS game_levels (
    id BIGINT PRIMARY KEY,
    game_id BIGINT NOT NULL REFERENCES games(id),
    level INTEGER NOT NULL,
    status VARCHAR(16) NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_game_levels_game_id ON game_levels(game_id, level);

CREATE TABLE IF NOT EXISTS game_quizzes (
    id BIGINT PRIMARY KEY,
    level_id BIGINT NOT NULL REFERENCES game_levels(id),
    question TEXT NOT NULL,
    answer TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_game_quizzes_level_id ON game_quizzes(level_id);
`

const migration003Down = `
DROP TABLE IF EXISTS game_quizzes;
DROP TABLE IF EXISTS game_levels;
DROP TABLE IF EXISTS games;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: NOTIFICATIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
CREATE TABLE IF NOT EXISTS notifications (
    id UUID PRIMARY KEY,
    kind VARCHAR(32) NOT NULL,
    title TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    read BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications(created_at DESC) WHERE read = FALSE;
`

const migration004Down = `
DROP TABLE IF EXISTS notifications;
`
