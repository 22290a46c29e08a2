// Package quiz считает очки попытки прохождения урока.
// Чистые функции без доступа к хранилищу.
package quiz

const (
	// MaxScore - стартовое и максимальное значение счёта.
	MaxScore = 10
	// MinScore - минимальное значение счёта.
	MinScore = 0
	// PassingScore - минимальный итоговый счёт для зачёта попытки.
	PassingScore = 6
)

// Evaluation - результат оценки одного ответа.
type Evaluation struct {
	IsCorrect bool `json:"is_correct"`
	Delta     int  `json:"delta"`
	NewScore  int  `json:"new_score"`
}

// Evaluate оценивает ответ: верный +1 (0, если счёт уже 10), неверный -1.
// Входной счёт вне [0, 10] сначала приводится к границам.
func Evaluate(isCorrect bool, score int) Evaluation {
	score = clamp(score)

	delta := -1
	if isCorrect {
		delta = 0
		if score < MaxScore {
			delta = 1
		}
	}

	return Evaluation{
		IsCorrect: isCorrect,
		Delta:     delta,
		NewScore:  clamp(score + delta),
	}
}

// Passed возвращает true, если итоговый счёт зачтён.
func Passed(finalScore int) bool {
	return finalScore >= PassingScore
}

func clamp(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
