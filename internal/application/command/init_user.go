package command

import (
	"context"
	"fmt"

	"github.com/alem-hub/learntrack/internal/domain/learner"
	"github.com/alem-hub/learntrack/internal/domain/shared"
	"github.com/alem-hub/learntrack/internal/domain/unitofwork"
)

// ══════════════════════════════════════════════════════════════════════════════
// INIT USER COMMAND
// Creates the local user, or changes its name and plan when it exists.
// ══════════════════════════════════════════════════════════════════════════════

// InitUserCommand contains the local user's profile.
type InitUserCommand struct {
	Name string
	Plan learner.Plan
}

// Validate validates the command.
func (c InitUserCommand) Validate() error {
	if !c.Plan.IsValid() {
		return shared.NewDomainError("learner", "InitUser", shared.ErrInvalidInput,
			fmt.Sprintf("unknown plan %q", c.Plan))
	}
	return nil
}

// InitUserResult contains the stored user.
type InitUserResult struct {
	User    learner.User
	Created bool
}

// InitUserHandler handles the InitUserCommand.
type InitUserHandler struct {
	uow unitofwork.UnitOfWork
}

// NewInitUserHandler creates a new InitUserHandler.
func NewInitUserHandler(uow unitofwork.UnitOfWork) *InitUserHandler {
	return &InitUserHandler{uow: uow}
}

// Handle executes the init user command. XP and level are never touched here.
func (h *InitUserHandler) Handle(ctx context.Context, cmd InitUserCommand) (*InitUserResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("init_user: validation failed: %w", err)
	}

	res := &InitUserResult{}
	err := h.uow.Do(ctx, func(ctx context.Context, tx unitofwork.Tx) error {
		repo := tx.Learners()

		user, err := repo.GetUser(ctx)
		switch {
		case err == nil:
			user.Name = cmd.Name
			user.Plan = cmd.Plan
		case shared.IsNotFound(err):
			if user, err = learner.NewUser(cmd.Name, cmd.Plan); err != nil {
				return err
			}
			res.Created = true
		default:
			return err
		}

		if err := repo.SaveUser(ctx, user); err != nil {
			return err
		}
		res.User = *user
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("init_user: %w", err)
	}
	return res, nil
}
