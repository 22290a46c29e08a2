package course

import (
	"context"

	"github.com/alem-hub/learntrack/internal/domain/practice"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции с деревом курса.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// Read
	// ─────────────────────────────────────────────────────────────────────────

	// Exists проверяет, записан ли пользователь на курс.
	Exists(ctx context.Context, courseID int64) (bool, error)

	// Get возвращает курс.
	// Возвращает ErrCourseNotFound, если курса нет.
	Get(ctx context.Context, courseID int64) (*Course, error)

	// GetModule возвращает модуль.
	// Возвращает ErrModuleNotFound, если модуля нет.
	GetModule(ctx context.Context, moduleID int64) (*Module, error)

	// GetLesson возвращает урок.
	// Возвращает ErrLessonNotFound, если урока нет.
	GetLesson(ctx context.Context, lessonID int64) (*Lesson, error)

	// ListModules возвращает модули курса по возрастанию id.
	ListModules(ctx context.Context, courseID int64) ([]Module, error)

	// ListLessons возвращает уроки модуля по возрастанию id.
	ListLessons(ctx context.Context, moduleID int64) ([]Lesson, error)

	// CountCompletedLessons считает пройденные уроки модуля.
	CountCompletedLessons(ctx context.Context, moduleID int64) (int, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Materialization (batched per tree level)
	// ─────────────────────────────────────────────────────────────────────────

	// InsertCourse создаёт курс.
	// Возвращает ошибку с ErrAlreadyExists, если курс уже есть.
	InsertCourse(ctx context.Context, c *Course) error

	InsertModules(ctx context.Context, modules []Module) error
	InsertLessons(ctx context.Context, lessons []Lesson) error
	InsertQuizItems(ctx context.Context, items []QuizItem) error
	InsertOptions(ctx context.Context, options []Option) error

	// ─────────────────────────────────────────────────────────────────────────
	// Progression
	// ─────────────────────────────────────────────────────────────────────────

	// MarkLessonCompleted - условное обновление "status <> completed".
	// false означает, что урок уже был пройден и ничего не изменилось.
	MarkLessonCompleted(ctx context.Context, lessonID int64) (bool, error)

	// UpdateModuleProgress записывает счётчик и процент модуля.
	UpdateModuleProgress(ctx context.Context, moduleID int64, completed int, percent float64) error

	// UpdateCourseProgress записывает прогресс курса.
	UpdateCourseProgress(ctx context.Context, courseID int64, progress float64) error

	// SetModuleStatus переводит модуль в статус to.
	// Откат назад не выполняется: хранилище пропускает такую запись.
	SetModuleStatus(ctx context.Context, moduleID int64, to Status) error

	// SetLessonStatus переводит урок в статус to, с тем же правилом.
	SetLessonStatus(ctx context.Context, lessonID int64, to Status) error
}

// Catalog - удалённый каталог курсов.
type Catalog interface {
	// FetchCourse возвращает дескриптор курса.
	FetchCourse(ctx context.Context, courseID int64) (*Descriptor, error)

	// FetchPractice возвращает дескриптор практики курса или nil, если её нет.
	FetchPractice(ctx context.Context, courseID int64) (*practice.Descriptor, error)
}
