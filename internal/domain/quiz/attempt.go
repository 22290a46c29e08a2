package quiz

// Attempt - одна попытка прохождения урока. Живёт только в памяти.
type Attempt struct {
	score   int
	history []Evaluation
}

// NewAttempt начинает попытку со счётом MaxScore.
func NewAttempt() *Attempt {
	return &Attempt{score: MaxScore}
}

// Answer оценивает очередной ответ и сдвигает счёт.
func (a *Attempt) Answer(isCorrect bool) Evaluation {
	ev := Evaluate(isCorrect, a.score)
	a.score = ev.NewScore
	a.history = append(a.history, ev)
	return ev
}

// Score возвращает текущий счёт.
func (a *Attempt) Score() int { return a.score }

// Answered возвращает число ответов.
func (a *Attempt) Answered() int { return len(a.history) }

// Passed проверяет текущий счёт по PassingScore.
func (a *Attempt) Passed() bool { return Passed(a.score) }

// History возвращает копию истории ответов.
func (a *Attempt) History() []Evaluation {
	out := make([]Evaluation, len(a.history))
	copy(out, a.history)
	return out
}
