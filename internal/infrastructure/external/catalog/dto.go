package catalog

// ══════════════════════════════════════════════════════════════════════════════
// COURSE DESCRIPTOR
// GET {base}/courses/{id}
// ══════════════════════════════════════════════════════════════════════════════

// CourseDTO is the course descriptor returned by the catalog.
type CourseDTO struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Type        string      `json:"type"`
	Modules     []ModuleDTO `json:"modules"`
}

// ModuleDTO is a module inside a course descriptor.
type ModuleDTO struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Lessons     []LessonDTO `json:"lessons"`
}

// LessonDTO is a lesson inside a module.
type LessonDTO struct {
	ID      int64     `json:"id"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	Quizzes []QuizDTO `json:"quizzes"`
}

// QuizDTO is a lesson item: either content or a question with options.
type QuizDTO struct {
	ID       int64       `json:"id"`
	Kind     string      `json:"kind"`
	Content  string      `json:"content"`
	Question string      `json:"question"`
	Example  string      `json:"example"`
	Tips     string      `json:"tips"`
	Options  []OptionDTO `json:"options"`
}

// OptionDTO is an answer option.
type OptionDTO struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// ══════════════════════════════════════════════════════════════════════════════
// PRACTICE DESCRIPTOR
// GET {base}/practices?courseId={id} returns an array; the first element wins.
// ══════════════════════════════════════════════════════════════════════════════

// PracticeDTO is the practice game attached to a course.
type PracticeDTO struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	CourseID    int64              `json:"courseId"`
	Levels      []PracticeLevelDTO `json:"levels"`
}

// PracticeLevelDTO is one level of the game.
type PracticeLevelDTO struct {
	ID      int64             `json:"id"`
	Level   int               `json:"level"`
	Status  string            `json:"status"`
	Quizzes []PracticeQuizDTO `json:"quizzes"`
}

// PracticeQuizDTO is a question of a level.
type PracticeQuizDTO struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	LevelID  int64  `json:"levelId"`
}

// ErrorDTO is the error body the catalog sends with 4xx/5xx responses.
type ErrorDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
