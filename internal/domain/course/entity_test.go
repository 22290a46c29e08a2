package course

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alem-hub/learntrack/internal/domain/shared"
)

func TestStatus_TransitionTable(t *testing.T) {
	tests := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusLocked, StatusOpened, true},
		{StatusLocked, StatusCompleted, true},
		{StatusOpened, StatusCompleted, true},
		{StatusOpened, StatusOpened, true},
		{StatusCompleted, StatusCompleted, true},
		{StatusOpened, StatusLocked, false},
		{StatusCompleted, StatusOpened, false},
		{StatusCompleted, StatusLocked, false},
		{Status("archived"), StatusOpened, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))

			err := tt.from.Transition(tt.to)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, shared.ErrStateTransition)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("opened")
	assert.NoError(t, err)
	assert.Equal(t, StatusOpened, st)

	_, err = ParseStatus("done")
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)
}
