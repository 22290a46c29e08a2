// Package unitofwork описывает транзакционную границу для команд,
// меняющих несколько сущностей сразу.
package unitofwork

import (
	"context"

	"github.com/alem-hub/learntrack/internal/domain/course"
	"github.com/alem-hub/learntrack/internal/domain/learner"
	"github.com/alem-hub/learntrack/internal/domain/practice"
)

// Tx - репозитории, привязанные к одной транзакции.
type Tx interface {
	Courses() course.Repository
	Practice() practice.Repository
	Learners() learner.Repository

	// LockCourse сериализует запись на курс и прохождение уроков одного курса
	// до конца транзакции.
	LockCourse(ctx context.Context, courseID int64) error
}

// UnitOfWork выполняет fn атомарно.
//
// Если fn возвращает ошибку, все изменения откатываются и ошибка
// возвращается как есть. Иначе изменения фиксируются.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
