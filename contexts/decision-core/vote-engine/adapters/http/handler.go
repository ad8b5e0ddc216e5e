package httpadapter

import (
	"context"
	"log/slog"

	"liquidvote/contexts/decision-core/vote-engine/application/commands"
	"liquidvote/contexts/decision-core/vote-engine/application/queries"
	"liquidvote/contexts/decision-core/vote-engine/domain/entities"
	httptransport "liquidvote/contexts/decision-core/vote-engine/transport/http"
)

type Handler struct {
	Votes   commands.SubmitVoteUseCase
	Results queries.ResultsUseCase
	Logger  *slog.Logger
}

// SubmitVoteHandler casts or updates the caller's vote. External submissions
// are always secure: a delegate claim goes through the authorization check.
func (h Handler) SubmitVoteHandler(
	ctx context.Context,
	pollID string,
	userID string,
	idempotencyKey string,
	req httptransport.SubmitVoteRequest,
) (httptransport.SubmitVoteResponse, error) {
	result, err := h.Votes.SubmitVote(ctx, commands.SubmitVoteCommand{
		PollID:         pollID,
		UserID:         userID,
		ChoiceID:       req.ChoiceID,
		DelegateID:     req.DelegateID,
		Secure:         true,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.SubmitVoteResponse{}, err
	}
	propagated := make([]httptransport.VoteResponse, 0, len(result.Propagated))
	for _, vote := range result.Propagated {
		propagated = append(propagated, mapVote(vote))
	}
	return httptransport.SubmitVoteResponse{
		Vote:       mapVote(result.Vote),
		Propagated: propagated,
		WasUpdate:  result.WasUpdate,
		Replayed:   result.Replayed,
	}, nil
}

func (h Handler) UserVoteHandler(ctx context.Context, pollID string, userID string) (httptransport.VoteResponse, error) {
	vote, err := h.Results.UserVote(ctx, pollID, userID)
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return mapVote(vote), nil
}

func (h Handler) PollResultsHandler(ctx context.Context, pollID string) (httptransport.PollResultsResponse, error) {
	results, err := h.Results.PollResults(ctx, pollID)
	if err != nil {
		return httptransport.PollResultsResponse{}, err
	}
	tallies := make([]httptransport.ChoiceTallyItem, 0, len(results.Tallies))
	for _, tally := range results.Tallies {
		tallies = append(tallies, httptransport.ChoiceTallyItem{
			ChoiceID:  tally.ChoiceID,
			Name:      tally.Name,
			Direct:    tally.Direct,
			Inherited: tally.Inherited,
			Total:     tally.Total,
		})
	}
	return httptransport.PollResultsResponse{
		PollID:     results.PollID,
		TotalVotes: results.TotalVotes,
		Tallies:    tallies,
	}, nil
}

func mapVote(vote entities.Vote) httptransport.VoteResponse {
	return httptransport.VoteResponse{
		VoteID:     vote.VoteID,
		PollID:     vote.PollID,
		UserID:     vote.UserID,
		ChoiceID:   vote.ChoiceID,
		DelegateID: vote.DelegateID,
		Direct:     vote.Direct(),
	}
}
