package notification

import (
	"fmt"

	"github.com/alem-hub/learntrack/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRIGGERS
// Какие уведомления порождает начисление XP.
// ══════════════════════════════════════════════════════════════════════════════

// FirstCompletion - черновик для первого начисления XP.
func FirstCompletion(xp int) Draft {
	return Draft{
		Kind:    KindFirstCompletion,
		Title:   "First lesson completed",
		Content: fmt.Sprintf("You earned your first %d XP. Keep going!", xp),
	}
}

// LevelUp - черновик для повышения уровня.
func LevelUp(level, nextLevel int) Draft {
	return Draft{
		Kind:    KindLevelUp,
		Title:   "Level up!",
		Content: fmt.Sprintf("You reached level %d. Next level at %d XP.", level, nextLevel),
	}
}

// Halfway - черновик для половины пути до следующего уровня.
func Halfway(xp, nextLevel int) Draft {
	return Draft{
		Kind:    KindHalfway,
		Title:   "Halfway there",
		Content: fmt.Sprintf("%d of %d XP. You are halfway to the next level.", xp, nextLevel),
	}
}

// ForAward возвращает уведомления для начисления: не больше одного на ветку.
func ForAward(a learner.Award) []Draft {
	switch a.Branch {
	case learner.BranchFirstCompletion:
		return []Draft{FirstCompletion(a.After.XP)}
	case learner.BranchLevelUp:
		return []Draft{LevelUp(a.After.Level, a.After.NextLevel)}
	default:
		if a.Halfway {
			return []Draft{Halfway(a.After.XP, a.After.NextLevel)}
		}
		return nil
	}
}
