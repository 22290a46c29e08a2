package course

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// READ MODEL
// ══════════════════════════════════════════════════════════════════════════════

// LessonView - урок в дереве прогресса.
type LessonView struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Status Status `json:"status"`
}

// ModuleView - модуль с уроками.
type ModuleView struct {
	ID               int64        `json:"id"`
	Title            string       `json:"title"`
	Status           Status       `json:"status"`
	LessonsCount     int          `json:"lessons_count"`
	LessonsCompleted int          `json:"lessons_completed"`
	Percent          float64      `json:"percent"`
	Lessons          []LessonView `json:"lessons"`
}

// ProgressView - курс целиком: статусы и проценты.
type ProgressView struct {
	CourseID int64        `json:"course_id"`
	Title    string       `json:"title"`
	Type     Type         `json:"type"`
	Progress float64      `json:"progress"`
	Modules  []ModuleView `json:"modules"`
	BuiltAt  time.Time    `json:"built_at"`
}

// BuildProgressView собирает представление из строк хранилища.
// lessons - уроки по id модуля.
func BuildProgressView(c Course, modules []Module, lessons map[int64][]Lesson, now time.Time) *ProgressView {
	v := &ProgressView{
		CourseID: c.ID,
		Title:    c.Title,
		Type:     c.Type,
		Progress: c.Progress,
		Modules:  make([]ModuleView, 0, len(modules)),
		BuiltAt:  now.UTC(),
	}
	for _, m := range modules {
		mv := ModuleView{
			ID:               m.ID,
			Title:            m.Title,
			Status:           m.Status,
			LessonsCount:     m.LessonsCount,
			LessonsCompleted: m.LessonsCompleted,
			Percent:          m.Percent,
			Lessons:          make([]LessonView, 0, len(lessons[m.ID])),
		}
		for _, l := range lessons[m.ID] {
			mv.Lessons = append(mv.Lessons, LessonView{ID: l.ID, Title: l.Title, Status: l.Status})
		}
		v.Modules = append(v.Modules, mv)
	}
	return v
}

// ProgressCache кэширует ProgressView. Промах возвращается как ошибка,
// вызывающий код идёт в хранилище.
type ProgressCache interface {
	Get(ctx context.Context, courseID int64) (*ProgressView, error)
	Set(ctx context.Context, v *ProgressView) error
	Invalidate(ctx context.Context, courseID int64) error
}
