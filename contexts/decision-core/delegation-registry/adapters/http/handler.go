package httpadapter

import (
	"context"
	"log/slog"

	"liquidvote/contexts/decision-core/delegation-registry/application/commands"
	"liquidvote/contexts/decision-core/delegation-registry/application/queries"
	"liquidvote/contexts/decision-core/delegation-registry/domain/entities"
	httptransport "liquidvote/contexts/decision-core/delegation-registry/transport/http"
)

type Handler struct {
	Create commands.CreateDelegationUseCase
	Revoke commands.RevokeDelegationUseCase
	List   queries.ListDelegationsUseCase
	Logger *slog.Logger
}

func (h Handler) CreateDelegationHandler(
	ctx context.Context,
	followerID string,
	idempotencyKey string,
	req httptransport.CreateDelegationRequest,
) (httptransport.DelegationResponse, error) {
	result, err := h.Create.Execute(ctx, commands.CreateDelegationCommand{
		FollowerID:     followerID,
		LeaderID:       req.LeaderID,
		CategoryIDs:    req.CategoryIDs,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.DelegationResponse{}, err
	}
	response := mapDelegation(result.Delegation)
	response.Replayed = result.Replayed
	return response, nil
}

func (h Handler) RevokeDelegationHandler(ctx context.Context, delegationID string, followerID string) error {
	return h.Revoke.Execute(ctx, commands.RevokeDelegationCommand{
		DelegationID: delegationID,
		FollowerID:   followerID,
	})
}

func (h Handler) ListDelegationsHandler(ctx context.Context, followerID string) (httptransport.DelegationListResponse, error) {
	delegations, err := h.List.ByFollower(ctx, followerID)
	if err != nil {
		return httptransport.DelegationListResponse{}, err
	}
	items := make([]httptransport.DelegationResponse, 0, len(delegations))
	for _, delegation := range delegations {
		items = append(items, mapDelegation(delegation))
	}
	return httptransport.DelegationListResponse{Items: items}, nil
}

func mapDelegation(delegation entities.Delegation) httptransport.DelegationResponse {
	return httptransport.DelegationResponse{
		DelegationID: delegation.DelegationID,
		FollowerID:   delegation.FollowerID,
		LeaderID:     delegation.LeaderID,
		CategoryIDs:  delegation.CategoryIDs,
		Global:       delegation.Global(),
	}
}
