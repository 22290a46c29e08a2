// Package practice содержит зеркало практической части курса (игры).
// Дерево Game → GameLevel → GameQuiz копируется из каталога один раз
// при записи на курс и дальше не меняется.
package practice

import (
	"fmt"

	"github.com/alem-hub/learntrack/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Game - практическая игра, привязанная к курсу.
type Game struct {
	ID          int64
	CourseID    int64
	Title       string
	Description string
}

// Level - уровень игры. Статус хранится как есть, без интерпретации.
type Level struct {
	ID     int64
	GameID int64
	Level  int
	Status string
}

// Quiz - вопрос уровня.
type Quiz struct {
	ID       int64
	LevelID  int64
	Question string
	Answer   string
}

// ══════════════════════════════════════════════════════════════════════════════
// DESCRIPTORS (remote shape)
// ══════════════════════════════════════════════════════════════════════════════

// Descriptor - описание игры, полученное из каталога.
type Descriptor struct {
	ID          int64
	Title       string
	Description string
	CourseID    int64
	Levels      []LevelDescriptor
}

// LevelDescriptor - описание уровня игры.
type LevelDescriptor struct {
	ID      int64
	Level   int
	Status  string
	Quizzes []QuizDescriptor
}

// QuizDescriptor - описание вопроса уровня.
type QuizDescriptor struct {
	ID       int64
	Question string
	Answer   string
	LevelID  int64
}

// Tree - плоские строки для вставки, сгруппированные по уровням дерева.
type Tree struct {
	Game    *Game
	Levels  []Level
	Quizzes []Quiz
}

// IsEmpty возвращает true, если практики у курса нет.
func (t *Tree) IsEmpty() bool {
	return t == nil || t.Game == nil
}

// Materialize превращает дескриптор в строки для вставки.
// nil дескриптор даёт пустое дерево: у курса нет практики.
// Идентификаторы из каталога сохраняются без перенумерации.
func Materialize(courseID int64, d *Descriptor) (*Tree, error) {
	if d == nil {
		return &Tree{}, nil
	}
	if d.ID <= 0 {
		return nil, shared.NewDomainError("practice", "Materialize", shared.ErrInvalidInput, "game id must be positive")
	}

	t := &Tree{
		Game: &Game{
			ID:          d.ID,
			CourseID:    courseID,
			Title:       d.Title,
			Description: d.Description,
		},
		Levels: make([]Level, 0, len(d.Levels)),
	}

	seenLevels := make(map[int64]struct{}, len(d.Levels))
	seenQuizzes := make(map[int64]struct{})
	for _, ld := range d.Levels {
		if _, dup := seenLevels[ld.ID]; dup || ld.ID <= 0 {
			return nil, shared.NewDomainError("practice", "Materialize", shared.ErrInvalidInput,
				fmt.Sprintf("invalid or duplicate level id %d", ld.ID))
		}
		seenLevels[ld.ID] = struct{}{}

		t.Levels = append(t.Levels, Level{ID: ld.ID, GameID: d.ID, Level: ld.Level, Status: ld.Status})
		for _, qd := range ld.Quizzes {
			if _, dup := seenQuizzes[qd.ID]; dup || qd.ID <= 0 {
				return nil, shared.NewDomainError("practice", "Materialize", shared.ErrInvalidInput,
					fmt.Sprintf("invalid or duplicate game quiz id %d", qd.ID))
			}
			seenQuizzes[qd.ID] = struct{}{}
			// Родителем считается уровень, в котором вопрос пришёл.
			t.Quizzes = append(t.Quizzes, Quiz{ID: qd.ID, LevelID: ld.ID, Question: qd.Question, Answer: qd.Answer})
		}
	}

	return t, nil
}
