package learner

import (
	"fmt"

	"github.com/alem-hub/learntrack/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// XP / LEVEL ENGINE
// ══════════════════════════════════════════════════════════════════════════════

const (
	// StartLevel - уровень до первого начисления.
	StartLevel = 1
	// LevelStep - на сколько растёт порог после каждого повышения.
	LevelStep = 100
)

// XPLevel - строка уровня: текущий уровень, XP и порог следующего уровня.
type XPLevel struct {
	Level     int
	XP        int
	NextLevel int
}

// DefaultXPLevel - состояние до первого начисления XP.
func DefaultXPLevel() XPLevel {
	return XPLevel{Level: StartLevel, XP: 0, NextLevel: LevelStep}
}

// Branch - ветка движка, выбранная для начисления.
type Branch string

const (
	// BranchFirstCompletion - первое начисление, XP перезаписывается.
	BranchFirstCompletion Branch = "first_completion"
	// BranchLevelUp - порог был достигнут до начисления.
	BranchLevelUp Branch = "level_up"
	// BranchNormal - обычное начисление.
	BranchNormal Branch = "normal"
)

// Award - результат начисления XP.
type Award struct {
	Before XPLevel
	After  XPLevel
	Branch Branch
	Earned int

	// Halfway - после обычного начисления XP >= NextLevel/2.
	// Проверяется на каждом начислении, без флага "уже отправлено".
	Halfway bool
}

// LeveledUp возвращает true, если уровень вырос.
func (a Award) LeveledUp() bool {
	return a.Branch == BranchLevelUp
}

// Apply выбирает ровно одну из трёх веток и возвращает новое состояние.
//
//   - xp == 0: xp = earned (перезапись).
//   - xp >= NextLevel: xp += earned, level + 1, NextLevel + LevelStep.
//     Порог сравнивается до прибавления earned.
//   - иначе: xp += earned, и Halfway, если новый xp >= NextLevel/2.
func (x XPLevel) Apply(earned int) (Award, error) {
	if earned < 0 {
		return Award{}, shared.NewDomainError("learner", "AwardXP", shared.ErrValueOutOfRange,
			fmt.Sprintf("earned xp must be non-negative, got %d", earned))
	}

	award := Award{Before: x, After: x, Earned: earned}

	switch {
	case x.XP == 0:
		award.Branch = BranchFirstCompletion
		award.After.XP = earned
	case x.XP >= x.NextLevel:
		award.Branch = BranchLevelUp
		award.After.XP = x.XP + earned
		award.After.Level = x.Level + 1
		award.After.NextLevel = x.NextLevel + LevelStep
	default:
		award.Branch = BranchNormal
		award.After.XP = x.XP + earned
		award.Halfway = award.After.XP >= x.NextLevel/2
	}

	return award, nil
}
