package learner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/learntrack/internal/domain/shared"
)

func TestApply_FirstCompletionOverwrites(t *testing.T) {
	award, err := DefaultXPLevel().Apply(8)
	require.NoError(t, err)

	assert.Equal(t, BranchFirstCompletion, award.Branch)
	assert.Equal(t, XPLevel{Level: 1, XP: 8, NextLevel: 100}, award.After)
	assert.False(t, award.Halfway)
}

func TestApply_LevelUpChecksThresholdBeforeAdding(t *testing.T) {
	award, err := XPLevel{Level: 1, XP: 100, NextLevel: 100}.Apply(5)
	require.NoError(t, err)

	assert.Equal(t, BranchLevelUp, award.Branch)
	assert.True(t, award.LeveledUp())
	assert.Equal(t, XPLevel{Level: 2, XP: 105, NextLevel: 200}, award.After)
}

func TestApply_CrossingThresholdWaitsForNextCompletion(t *testing.T) {
	award, err := XPLevel{Level: 1, XP: 98, NextLevel: 100}.Apply(9)
	require.NoError(t, err)

	assert.Equal(t, BranchNormal, award.Branch)
	assert.Equal(t, 107, award.After.XP)
	assert.Equal(t, 1, award.After.Level)

	award, err = award.After.Apply(1)
	require.NoError(t, err)
	assert.Equal(t, BranchLevelUp, award.Branch)
	assert.Equal(t, 2, award.After.Level)
}

func TestApply_OneLevelPerEventRegardlessOfOvershoot(t *testing.T) {
	award, err := XPLevel{Level: 1, XP: 450, NextLevel: 100}.Apply(10)
	require.NoError(t, err)

	assert.Equal(t, 2, award.After.Level)
	assert.Equal(t, 200, award.After.NextLevel)
}

func TestApply_HalfwayRepeats(t *testing.T) {
	x := XPLevel{Level: 1, XP: 45, NextLevel: 100}

	first, err := x.Apply(5)
	require.NoError(t, err)
	assert.True(t, first.Halfway)

	second, err := first.After.Apply(5)
	require.NoError(t, err)
	assert.True(t, second.Halfway)

	below, err := XPLevel{Level: 1, XP: 10, NextLevel: 100}.Apply(5)
	require.NoError(t, err)
	assert.False(t, below.Halfway)
}

func TestApply_RejectsNegative(t *testing.T) {
	_, err := DefaultXPLevel().Apply(-1)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}

func TestUser_CanEnroll(t *testing.T) {
	free, err := NewUser("ada", PlanFree)
	require.NoError(t, err)
	premium, err := NewUser("bob", PlanPremium)
	require.NoError(t, err)

	assert.True(t, free.CanEnroll(false))
	assert.False(t, free.CanEnroll(true))
	assert.True(t, premium.CanEnroll(true))
	assert.Equal(t, SingletonUserID, free.ID)

	_, err = NewUser("eve", Plan("gold"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
