package practice

import "context"

// Repository определяет операции с зеркалом практики.
// Реализации находятся в infrastructure/persistence.
type Repository interface {
	// InsertGame создаёт игру.
	InsertGame(ctx context.Context, game *Game) error

	// InsertLevels создаёт уровни одной пачкой.
	InsertLevels(ctx context.Context, levels []Level) error

	// InsertQuizzes создаёт вопросы одной пачкой.
	InsertQuizzes(ctx context.Context, quizzes []Quiz) error

	// GetByCourse возвращает дерево практики курса.
	// Пустое дерево, если практики нет.
	GetByCourse(ctx context.Context, courseID int64) (*Tree, error)
}
