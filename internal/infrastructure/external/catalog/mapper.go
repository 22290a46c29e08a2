package catalog

import (
	"strings"

	"github.com/alem-hub/learntrack/internal/domain/course"
	"github.com/alem-hub/learntrack/internal/domain/practice"
)

// ══════════════════════════════════════════════════════════════════════════════
// DTO → DOMAIN
// ══════════════════════════════════════════════════════════════════════════════

// CourseFromDTO maps a course descriptor into the domain shape.
// Enum fields are normalized but not validated; course.Materialize does that.
func CourseFromDTO(dto *CourseDTO) *course.Descriptor {
	if dto == nil {
		return nil
	}

	d := &course.Descriptor{
		ID:          dto.ID,
		Title:       dto.Title,
		Description: dto.Description,
		Type:        courseType(dto.Type),
		Modules:     make([]course.ModuleDescriptor, 0, len(dto.Modules)),
	}

	for _, m := range dto.Modules {
		md := course.ModuleDescriptor{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			Lessons:     make([]course.LessonDescriptor, 0, len(m.Lessons)),
		}
		for _, l := range m.Lessons {
			md.Lessons = append(md.Lessons, lessonFromDTO(l))
		}
		d.Modules = append(d.Modules, md)
	}

	return d
}

func lessonFromDTO(l LessonDTO) course.LessonDescriptor {
	ld := course.LessonDescriptor{
		ID:      l.ID,
		Title:   l.Title,
		Body:    l.Body,
		Quizzes: make([]course.QuizDescriptor, 0, len(l.Quizzes)),
	}
	for _, q := range l.Quizzes {
		qd := course.QuizDescriptor{
			ID:       q.ID,
			Kind:     course.QuizKind(strings.ToLower(strings.TrimSpace(q.Kind))),
			Content:  q.Content,
			Question: q.Question,
			Example:  q.Example,
			Tips:     q.Tips,
			Options:  make([]course.OptionDescriptor, 0, len(q.Options)),
		}
		for _, o := range q.Options {
			qd.Options = append(qd.Options, course.OptionDescriptor{ID: o.ID, Text: o.Text, IsCorrect: o.IsCorrect})
		}
		ld.Quizzes = append(ld.Quizzes, qd)
	}
	return ld
}

// courseType lower-cases the remote value. A missing type means free.
func courseType(s string) course.Type {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return course.TypeFree
	}
	return course.Type(s)
}

// PracticeFromDTOs picks the first element of the practice array.
// An empty array means the course has no practice.
func PracticeFromDTOs(dtos []PracticeDTO) *practice.Descriptor {
	if len(dtos) == 0 {
		return nil
	}
	p := dtos[0]

	d := &practice.Descriptor{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		CourseID:    p.CourseID,
		Levels:      make([]practice.LevelDescriptor, 0, len(p.Levels)),
	}
	for _, l := range p.Levels {
		ld := practice.LevelDescriptor{
			ID:      l.ID,
			Level:   l.Level,
			Status:  l.Status,
			Quizzes: make([]practice.QuizDescriptor, 0, len(l.Quizzes)),
		}
		for _, q := range l.Quizzes {
			ld.Quizzes = append(ld.Quizzes, practice.QuizDescriptor{
				ID:       q.ID,
				Question: q.Question,
				Answer:   q.Answer,
				LevelID:  q.LevelID,
			})
		}
		d.Levels = append(d.Levels, ld)
	}
	return d
}
