package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/learntrack/internal/domain/learner"
)

func TestForAward(t *testing.T) {
	first, err := learner.DefaultXPLevel().Apply(8)
	require.NoError(t, err)
	drafts := ForAward(first)
	require.Len(t, drafts, 1)
	assert.Equal(t, KindFirstCompletion, drafts[0].Kind)

	up, err := learner.XPLevel{Level: 1, XP: 100, NextLevel: 100}.Apply(5)
	require.NoError(t, err)
	drafts = ForAward(up)
	require.Len(t, drafts, 1)
	assert.Equal(t, KindLevelUp, drafts[0].Kind)
	assert.Contains(t, drafts[0].Content, "level 2")

	quiet, err := learner.XPLevel{Level: 1, XP: 10, NextLevel: 100}.Apply(3)
	require.NoError(t, err)
	assert.Empty(t, ForAward(quiet))

	half, err := learner.XPLevel{Level: 1, XP: 48, NextLevel: 100}.Apply(3)
	require.NoError(t, err)
	drafts = ForAward(half)
	require.Len(t, drafts, 1)
	assert.Equal(t, KindHalfway, drafts[0].Kind)
}

func TestNew(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))

	n, err := New("abc", LevelUp(2, 200), now)
	require.NoError(t, err)
	assert.False(t, n.Read)
	assert.Equal(t, time.UTC, n.CreatedAt.Location())

	n.MarkRead()
	assert.True(t, n.Read)

	_, err = New("", LevelUp(2, 200), now)
	assert.Error(t, err)
}
