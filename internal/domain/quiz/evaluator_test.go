package quiz

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		correct   bool
		score     int
		wantDelta int
		wantScore int
	}{
		{"correct below cap", true, 7, 1, 8},
		{"correct at cap", true, 10, 0, 10},
		{"incorrect", false, 7, -1, 6},
		{"incorrect at floor", false, 0, -1, 0},
		{"score above range is clamped", true, 14, 0, 10},
		{"score below range is clamped", false, -3, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Evaluate(tt.correct, tt.score)
			assert.Equal(t, tt.correct, ev.IsCorrect)
			assert.Equal(t, tt.wantDelta, ev.Delta)
			assert.Equal(t, tt.wantScore, ev.NewScore)
		})
	}
}

func TestAttempt_CorrectAnswersAtCapAddNothing(t *testing.T) {
	a := NewAttempt()

	var scores []int
	for _, correct := range []bool{true, true, true, false} {
		scores = append(scores, a.Answer(correct).NewScore)
	}

	assert.Equal(t, []int{10, 10, 10, 9}, scores)
	assert.Equal(t, 9, a.Score())
	assert.Equal(t, 4, a.Answered())
	assert.True(t, a.Passed())
}

func TestAttempt_ScoreStaysInBounds(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	a := NewAttempt()

	for i := 0; i < 500; i++ {
		ev := a.Answer(r.IntN(3) == 0)
		assert.GreaterOrEqual(t, ev.NewScore, MinScore)
		assert.LessOrEqual(t, ev.NewScore, MaxScore)
	}
}

func TestPassed(t *testing.T) {
	assert.False(t, Passed(5))
	assert.True(t, Passed(6))
	assert.True(t, Passed(10))
}
