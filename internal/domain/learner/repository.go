package learner

import "context"

// Repository определяет операции с пользователем и строкой XP.
type Repository interface {
	// GetUser возвращает пользователя с ключом SingletonUserID.
	// Возвращает ErrUserNotFound, если его нет, и ErrSingletonBroken,
	// если пользователей несколько.
	GetUser(ctx context.Context) (*User, error)

	// SaveUser создаёт или обновляет пользователя (имя и план).
	SaveUser(ctx context.Context, u *User) error

	// UpdateUserProgress записывает зеркало XP и уровня.
	UpdateUserProgress(ctx context.Context, xp, level int) error

	// GetXPLevel возвращает строку XP.
	// Возвращает ошибку с ErrNotFound, если XP ещё не начислялся.
	GetXPLevel(ctx context.Context) (*XPLevel, error)

	// SaveXPLevel создаёт или обновляет строку XP.
	SaveXPLevel(ctx context.Context, x XPLevel) error
}
