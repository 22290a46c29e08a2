package course

import "sort"

// ══════════════════════════════════════════════════════════════════════════════
// GATING / UNLOCK CONTROLLER
// ══════════════════════════════════════════════════════════════════════════════

// StatusChange - один переход статуса модуля или урока.
type StatusChange struct {
	ID   int64
	From Status
	To   Status
}

// UnlockPlan - набор переходов после прохождения урока.
// Содержит только разрешённые переходы вперёд.
type UnlockPlan struct {
	// CompleteModule - текущий модуль становится completed.
	CompleteModule *StatusChange

	// OpenModule - следующий модуль курса открывается.
	OpenModule *StatusChange

	// OpenLessons - уроки, которые открываются.
	OpenLessons []StatusChange
}

// IsEmpty возвращает true, если менять нечего.
func (p UnlockPlan) IsEmpty() bool {
	return p.CompleteModule == nil && p.OpenModule == nil && len(p.OpenLessons) == 0
}

// NextModule ищет следующий модуль по порядку (id + 1) в том же курсе.
func NextModule(modules []Module, current Module) *Module {
	for i := range modules {
		if modules[i].ID == current.ID+1 && modules[i].CourseID == current.CourseID {
			m := modules[i]
			return &m
		}
	}
	return nil
}

// FirstLesson возвращает урок с наименьшим id.
func FirstLesson(lessons []Lesson) *Lesson {
	if len(lessons) == 0 {
		return nil
	}
	first := lessons[0]
	for _, l := range lessons[1:] {
		if l.ID < first.ID {
			first = l
		}
	}
	return &first
}

// LessonAfter возвращает урок, идущий сразу за lessonID внутри модуля.
func LessonAfter(lessons []Lesson, lessonID int64) *Lesson {
	sorted := make([]Lesson, len(lessons))
	copy(sorted, lessons)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, l := range sorted {
		if l.ID > lessonID {
			return &l
		}
	}
	return nil
}

// PlanUnlock решает, что открыть после прохождения урока completedLessonID.
//
// current должен уже содержать пересчитанный счётчик (ApplyCompletedCount).
// Внутри модуля открывается следующий заблокированный урок. Когда все уроки
// модуля пройдены, модуль становится completed, следующий модуль (id + 1)
// открывается, и открывается только его первый урок.
func PlanUnlock(current Module, completedLessonID int64, moduleLessons []Lesson, next *Module, nextLessons []Lesson) UnlockPlan {
	var plan UnlockPlan

	if l := LessonAfter(moduleLessons, completedLessonID); l != nil && l.Status == StatusLocked {
		plan.OpenLessons = append(plan.OpenLessons, StatusChange{ID: l.ID, From: l.Status, To: StatusOpened})
	}

	if !current.IsFinished() {
		return plan
	}

	if current.Status != StatusCompleted && current.Status.CanTransitionTo(StatusCompleted) {
		plan.CompleteModule = &StatusChange{ID: current.ID, From: current.Status, To: StatusCompleted}
	}

	if next == nil {
		return plan
	}
	if next.Status == StatusLocked {
		plan.OpenModule = &StatusChange{ID: next.ID, From: next.Status, To: StatusOpened}
	}
	if first := FirstLesson(nextLessons); first != nil && first.Status == StatusLocked {
		plan.OpenLessons = append(plan.OpenLessons, StatusChange{ID: first.ID, From: first.Status, To: StatusOpened})
	}

	return plan
}
