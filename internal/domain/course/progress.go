package course

import (
	"fmt"
	"math"

	"github.com/alem-hub/learntrack/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS AGGREGATOR
// ══════════════════════════════════════════════════════════════════════════════

// RoundPercent округляет процент до двух знаков.
func RoundPercent(v float64) float64 {
	return math.Round(v*100) / 100
}

// Percent возвращает round(done / total * 100, 2), 0 при total <= 0.
func Percent(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	return RoundPercent(float64(done) / float64(total) * 100)
}

// ApplyCompletedCount записывает канонический счётчик пройденных уроков
// и пересчитывает процент модуля.
func (m *Module) ApplyCompletedCount(completed int) error {
	if completed < 0 || completed > m.LessonsCount {
		return shared.NewDomainError("course", "ApplyCompletedCount", shared.ErrInvariant,
			fmt.Sprintf("module %d: completed %d outside [0, %d]", m.ID, completed, m.LessonsCount))
	}
	m.LessonsCompleted = completed
	m.Percent = Percent(completed, m.LessonsCount)
	return nil
}

// IsFinished возвращает true, когда все уроки модуля пройдены.
func (m *Module) IsFinished() bool {
	return m.LessonsCompleted == m.LessonsCount
}

// TotalLessons суммирует LessonsCount по модулям курса.
func TotalLessons(modules []Module) int {
	total := 0
	for i := range modules {
		total += modules[i].LessonsCount
	}
	return total
}

// CourseProgress считает прогресс курса.
//
// Числитель - счётчик пройденных уроков только текущего модуля,
// знаменатель - все уроки курса. Так считает исходная система, и это
// занижает прогресс на многомодульных курсах; формула сохранена как есть.
func CourseProgress(moduleCompleted int, modules []Module) float64 {
	return Percent(moduleCompleted, TotalLessons(modules))
}

// NextProgress возвращает значение для записи: прогресс курса не убывает.
func NextProgress(current, computed float64) float64 {
	if computed < current {
		return current
	}
	return computed
}
