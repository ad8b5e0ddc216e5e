package commands

import (
	"context"
	"log/slog"
	"strings"

	application "liquidvote/contexts/decision-core/delegation-registry/application"
	domainerrors "liquidvote/contexts/decision-core/delegation-registry/domain/errors"
	"liquidvote/contexts/decision-core/delegation-registry/ports"
)

// RevokeDelegationCommand removes a follower-owned delegation edge. Votes
// already inherited through the edge stay in place; revocation only stops
// future propagation.
type RevokeDelegationCommand struct {
	DelegationID string
	FollowerID   string
}

type RevokeDelegationUseCase struct {
	Repository ports.DelegationRepository
	Logger     *slog.Logger
}

func (uc RevokeDelegationUseCase) Execute(ctx context.Context, cmd RevokeDelegationCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	delegationID := strings.TrimSpace(cmd.DelegationID)
	followerID := strings.TrimSpace(cmd.FollowerID)
	if delegationID == "" || followerID == "" {
		return domainerrors.ErrInvalidDelegationInput
	}

	delegation, err := uc.Repository.GetDelegation(ctx, delegationID)
	if err != nil {
		return err
	}
	if delegation.FollowerID != followerID {
		return domainerrors.ErrNotDelegationOwner
	}
	if err := uc.Repository.DeleteDelegation(ctx, delegationID); err != nil {
		return err
	}

	logger.Info("delegation revoked",
		"event", "decision_delegation_revoked",
		"module", "decision-core/delegation-registry",
		"layer", "application",
		"delegation_id", delegationID,
		"follower_id", followerID,
		"leader_id", delegation.LeaderID,
	)
	return nil
}
