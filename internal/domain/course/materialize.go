package course

import (
	"fmt"

	"github.com/alem-hub/learntrack/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DESCRIPTORS (remote shape)
// ══════════════════════════════════════════════════════════════════════════════

// Descriptor - описание курса, полученное из каталога.
type Descriptor struct {
	ID          int64
	Title       string
	Description string
	Type        Type
	Modules     []ModuleDescriptor
}

// ModuleDescriptor - описание модуля.
type ModuleDescriptor struct {
	ID          int64
	Title       string
	Description string
	Lessons     []LessonDescriptor
}

// LessonDescriptor - описание урока.
type LessonDescriptor struct {
	ID      int64
	Title   string
	Body    string
	Quizzes []QuizDescriptor
}

// QuizDescriptor - описание элемента урока.
type QuizDescriptor struct {
	ID       int64
	Kind     QuizKind
	Content  string
	Question string
	Example  string
	Tips     string
	Options  []OptionDescriptor
}

// OptionDescriptor - описание варианта ответа.
type OptionDescriptor struct {
	ID        int64
	Text      string
	IsCorrect bool
}

// RequiresPremium возвращает true для премиум-курсов.
func (d *Descriptor) RequiresPremium() bool {
	return d.Type == TypePremium
}

// ══════════════════════════════════════════════════════════════════════════════
// MATERIALIZATION
// ══════════════════════════════════════════════════════════════════════════════

// InitialOpenLessonID - урок с этим глобальным id открывается при записи.
// Для первого модуля любого курса каталога это его первый урок; для других
// курсов не открывается ни один урок.
const InitialOpenLessonID int64 = 1

// Tree - строки курса для вставки, сгруппированные по уровням дерева.
// Порядок строк совпадает с порядком в дескрипторе.
type Tree struct {
	Course    Course
	Modules   []Module
	Lessons   []Lesson
	QuizItems []QuizItem
	Options   []Option
}

// Materialize обходит дескриптор и строит строки для вставки.
//
// Первый модуль открыт, остальные заблокированы; LessonsCount равен числу
// уроков модуля, процент 0. Идентификаторы из каталога сохраняются.
func Materialize(d *Descriptor) (*Tree, error) {
	if d == nil {
		return nil, shared.NewDomainError("course", "Materialize", shared.ErrInvalidInput, "descriptor is nil")
	}
	if d.ID <= 0 {
		return nil, shared.NewDomainError("course", "Materialize", shared.ErrInvalidInput, "course id must be positive")
	}
	if !d.Type.IsValid() {
		return nil, shared.NewDomainError("course", "Materialize", shared.ErrInvalidInput,
			fmt.Sprintf("unknown course type %q", d.Type))
	}

	t := &Tree{
		Course: Course{
			ID:           d.ID,
			Title:        d.Title,
			Description:  d.Description,
			Type:         d.Type,
			ModulesCount: len(d.Modules),
		},
		Modules: make([]Module, 0, len(d.Modules)),
	}

	ids := newIDSet()
	for i, md := range d.Modules {
		if err := ids.add("module", md.ID); err != nil {
			return nil, err
		}

		status := StatusLocked
		if i == 0 {
			status = StatusOpened
		}
		t.Modules = append(t.Modules, Module{
			ID:           md.ID,
			CourseID:     d.ID,
			Title:        md.Title,
			Description:  md.Description,
			Status:       status,
			LessonsCount: len(md.Lessons),
		})

		if err := t.addLessons(ids, md); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (t *Tree) addLessons(ids *idSet, md ModuleDescriptor) error {
	for _, ld := range md.Lessons {
		if err := ids.add("lesson", ld.ID); err != nil {
			return err
		}

		status := StatusLocked
		if ld.ID == InitialOpenLessonID {
			status = StatusOpened
		}
		t.Lessons = append(t.Lessons, Lesson{
			ID:       ld.ID,
			ModuleID: md.ID,
			Title:    ld.Title,
			Body:     ld.Body,
			Status:   status,
		})

		for _, qd := range ld.Quizzes {
			if err := ids.add("quiz", qd.ID); err != nil {
				return err
			}
			kind := qd.Kind
			if kind == "" {
				kind = QuizKindContent
			}
			if !kind.IsValid() {
				return shared.NewDomainError("course", "Materialize", shared.ErrInvalidInput,
					fmt.Sprintf("quiz %d: unknown kind %q", qd.ID, qd.Kind))
			}
			t.QuizItems = append(t.QuizItems, QuizItem{
				ID:       qd.ID,
				LessonID: ld.ID,
				Kind:     kind,
				Content:  qd.Content,
				Question: qd.Question,
				Example:  qd.Example,
				Tips:     qd.Tips,
			})

			for _, od := range qd.Options {
				if err := ids.add("option", od.ID); err != nil {
					return err
				}
				t.Options = append(t.Options, Option{
					ID:        od.ID,
					QuizID:    qd.ID,
					Content:   od.Text,
					IsCorrect: od.IsCorrect,
				})
			}
		}
	}
	return nil
}

// idSet ловит повторы идентификаторов внутри одного уровня дерева.
type idSet struct {
	seen map[string]map[int64]struct{}
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[string]map[int64]struct{})}
}

func (s *idSet) add(level string, id int64) error {
	if id <= 0 {
		return shared.NewDomainError("course", "Materialize", shared.ErrInvalidInput,
			fmt.Sprintf("%s id must be positive, got %d", level, id))
	}
	m, ok := s.seen[level]
	if !ok {
		m = make(map[int64]struct{})
		s.seen[level] = m
	}
	if _, dup := m[id]; dup {
		return shared.NewDomainError("course", "Materialize", shared.ErrInvalidInput,
			fmt.Sprintf("duplicate %s id %d", level, id))
	}
	m[id] = struct{}{}
	return nil
}
