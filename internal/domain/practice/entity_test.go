package practice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/learntrack/internal/domain/shared"
)

func TestMaterialize_NilDescriptor(t *testing.T) {
	tree, err := Materialize(7, nil)
	require.NoError(t, err)
	assert.True(t, tree.IsEmpty())
	assert.Empty(t, tree.Levels)
}

func TestMaterialize_KeepsRemoteIDs(t *testing.T) {
	d := &Descriptor{
		ID:       31,
		Title:    "Go drills",
		CourseID: 7,
		Levels: []LevelDescriptor{
			{ID: 301, Level: 1, Status: "opened", Quizzes: []QuizDescriptor{
				{ID: 3001, Question: "2+2", Answer: "4", LevelID: 301},
				{ID: 3002, Question: "len(\"go\")", Answer: "2", LevelID: 301},
			}},
			{ID: 302, Level: 2, Status: "locked"},
		},
	}

	tree, err := Materialize(7, d)
	require.NoError(t, err)

	require.NotNil(t, tree.Game)
	assert.Equal(t, int64(31), tree.Game.ID)
	assert.Equal(t, int64(7), tree.Game.CourseID)
	require.Len(t, tree.Levels, 2)
	assert.Equal(t, int64(302), tree.Levels[1].ID)
	assert.Equal(t, "locked", tree.Levels[1].Status)
	require.Len(t, tree.Quizzes, 2)
	assert.Equal(t, int64(301), tree.Quizzes[0].LevelID)
	assert.Equal(t, int64(3002), tree.Quizzes[1].ID)
}

func TestMaterialize_RejectsDuplicateIDs(t *testing.T) {
	d := &Descriptor{
		ID: 1,
		Levels: []LevelDescriptor{
			{ID: 5},
			{ID: 5},
		},
	}

	_, err := Materialize(1, d)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
