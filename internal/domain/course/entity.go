// Package course содержит доменную модель курса: дерево
// Course → Module → Lesson → QuizItem → Option, машину состояний
// доступа к контенту и расчёт прогресса.
//
// Дерево создаётся один раз при записи на курс (см. Materialize),
// дальше меняются только статусы и проценты.
package course

import (
	"fmt"

	"github.com/alem-hub/learntrack/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status - состояние доступа к модулю или уроку.
// Переходы только вперёд: locked → opened → completed.
type Status string

const (
	// StatusLocked - контент ещё недоступен.
	StatusLocked Status = "locked"
	// StatusOpened - контент доступен для прохождения.
	StatusOpened Status = "opened"
	// StatusCompleted - контент пройден.
	StatusCompleted Status = "completed"
)

// rank задаёт порядок статусов в таблице переходов.
func (s Status) rank() int {
	switch s {
	case StatusLocked:
		return 0
	case StatusOpened:
		return 1
	case StatusCompleted:
		return 2
	default:
		return -1
	}
}

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	return s.rank() >= 0
}

// CanTransitionTo возвращает true, если переход s → to разрешён.
// Переход в тот же статус разрешён и ничего не меняет.
func (s Status) CanTransitionTo(to Status) bool {
	if !s.IsValid() || !to.IsValid() {
		return false
	}
	return to.rank() >= s.rank()
}

// Transition проверяет переход и возвращает ErrStateTransition при откате назад.
func (s Status) Transition(to Status) error {
	if !s.CanTransitionTo(to) {
		return shared.NewDomainError("course", "Transition", shared.ErrStateTransition,
			fmt.Sprintf("cannot move from %q to %q", s, to))
	}
	return nil
}

// ParseStatus разбирает статус из хранилища.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", shared.NewDomainError("course", "ParseStatus", shared.ErrInvalidFormat,
			fmt.Sprintf("unknown status %q", s))
	}
	return st, nil
}

// Type - тип курса с точки зрения доступа.
type Type string

const (
	TypeFree    Type = "free"
	TypePremium Type = "premium"
)

// IsValid проверяет, что тип корректен.
func (t Type) IsValid() bool {
	return t == TypeFree || t == TypePremium
}

// QuizKind - вид элемента урока.
type QuizKind string

const (
	// QuizKindContent - теоретический блок.
	QuizKindContent QuizKind = "content"
	// QuizKindQuestion - вопрос с вариантами ответа.
	QuizKindQuestion QuizKind = "question"
)

// IsValid проверяет, что вид корректен.
func (k QuizKind) IsValid() bool {
	return k == QuizKindContent || k == QuizKindQuestion
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Course - курс, на который записан пользователь.
type Course struct {
	ID           int64
	Title        string
	Description  string
	Type         Type
	ModulesCount int

	// Progress - 0..100, два знака после запятой.
	Progress float64
}

// Module - модуль курса.
type Module struct {
	ID          int64
	CourseID    int64
	Title       string
	Description string
	Status      Status

	LessonsCount     int
	LessonsCompleted int

	// Percent = round(LessonsCompleted / LessonsCount * 100, 2).
	// Пишется только через ApplyCompletedCount.
	Percent float64
}

// Lesson - урок модуля.
type Lesson struct {
	ID       int64
	ModuleID int64
	Title    string
	Body     string
	Status   Status
}

// IsCompleted возвращает true, если урок уже пройден.
func (l *Lesson) IsCompleted() bool {
	return l.Status == StatusCompleted
}

// QuizItem - элемент урока: теория или вопрос.
type QuizItem struct {
	ID       int64
	LessonID int64
	Kind     QuizKind
	Content  string
	Question string
	Example  string
	Tips     string
}

// Option - вариант ответа на вопрос.
type Option struct {
	ID        int64
	QuizID    int64
	Content   string
	IsCorrect bool
}
