// Package learner содержит модель локального пользователя и движок XP/уровней.
//
// Пользователь и строка XP - синглтоны с ключом SingletonUserID. Если в
// хранилище строк больше или меньше, чем ожидается, репозиторий обязан
// вернуть ошибку, а не брать "первую попавшуюся".
package learner

import (
	"fmt"

	"github.com/alem-hub/learntrack/internal/domain/shared"
)

// SingletonUserID - ключ единственного пользователя и его строки XP.
const SingletonUserID int64 = 1

// Plan - тарифный план пользователя.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// IsValid проверяет, что план корректен.
func (p Plan) IsValid() bool {
	return p == PlanFree || p == PlanPremium
}

// ParsePlan разбирает план из строки.
func ParsePlan(s string) (Plan, error) {
	p := Plan(s)
	if !p.IsValid() {
		return "", shared.NewDomainError("learner", "ParsePlan", shared.ErrInvalidInput,
			fmt.Sprintf("unknown plan %q", s))
	}
	return p, nil
}

// User - локальный пользователь. XP и Level повторяют строку XPLevel.
type User struct {
	ID    int64
	Name  string
	Plan  Plan
	XP    int
	Level int
}

// NewUser создаёт пользователя-синглтон.
func NewUser(name string, plan Plan) (*User, error) {
	if !plan.IsValid() {
		return nil, shared.NewDomainError("learner", "NewUser", shared.ErrInvalidInput,
			fmt.Sprintf("unknown plan %q", plan))
	}
	start := DefaultXPLevel()
	return &User{
		ID:    SingletonUserID,
		Name:  name,
		Plan:  plan,
		XP:    start.XP,
		Level: start.Level,
	}, nil
}

// IsPremium возвращает true для премиум-плана.
func (u *User) IsPremium() bool {
	return u.Plan == PlanPremium
}

// CanEnroll проверяет доступ к курсу: бесплатный план не открывает премиум-курсы.
func (u *User) CanEnroll(premiumCourse bool) bool {
	return !premiumCourse || u.IsPremium()
}

// Mirror копирует XP и уровень из строки XPLevel.
func (u *User) Mirror(x XPLevel) {
	u.XP = x.XP
	u.Level = x.Level
}
