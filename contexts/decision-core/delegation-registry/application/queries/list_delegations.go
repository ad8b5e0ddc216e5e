package queries

import (
	"context"
	"strings"

	"liquidvote/contexts/decision-core/delegation-registry/domain/entities"
	domainerrors "liquidvote/contexts/decision-core/delegation-registry/domain/errors"
	"liquidvote/contexts/decision-core/delegation-registry/ports"
)

type ListDelegationsUseCase struct {
	Repository ports.DelegationRepository
}

func (uc ListDelegationsUseCase) ByFollower(ctx context.Context, followerID string) ([]entities.Delegation, error) {
	if strings.TrimSpace(followerID) == "" {
		return nil, domainerrors.ErrInvalidDelegationInput
	}
	return uc.Repository.ListDelegationsByFollower(ctx, strings.TrimSpace(followerID))
}
