package queries

import (
	"context"
	"strings"

	"liquidvote/contexts/decision-core/vote-engine/domain/entities"
	domainerrors "liquidvote/contexts/decision-core/vote-engine/domain/errors"
	"liquidvote/contexts/decision-core/vote-engine/ports"
)

// ResultsUseCase serves the read side: a user's current vote and per-choice
// tallies computed from the vote rows. Tallies are derived on read; no cached
// counters are maintained here.
type ResultsUseCase struct {
	Votes ports.VoteStore
	Polls ports.PollCatalog
}

func (uc ResultsUseCase) UserVote(ctx context.Context, pollID string, userID string) (entities.Vote, error) {
	if strings.TrimSpace(pollID) == "" || strings.TrimSpace(userID) == "" {
		return entities.Vote{}, domainerrors.ErrInvalidVoteInput
	}
	vote, found, err := uc.Votes.GetVoteByIdentity(ctx, strings.TrimSpace(pollID), strings.TrimSpace(userID))
	if err != nil {
		return entities.Vote{}, err
	}
	if !found {
		return entities.Vote{}, domainerrors.ErrVoteNotFound
	}
	return vote, nil
}

func (uc ResultsUseCase) PollResults(ctx context.Context, pollID string) (entities.PollResults, error) {
	poll, err := uc.Polls.GetPoll(ctx, strings.TrimSpace(pollID))
	if err != nil {
		return entities.PollResults{}, err
	}
	choices, err := uc.Polls.ListChoicesByPoll(ctx, poll.PollID)
	if err != nil {
		return entities.PollResults{}, err
	}
	votes, err := uc.Votes.ListVotesByPoll(ctx, poll.PollID)
	if err != nil {
		return entities.PollResults{}, err
	}

	byChoice := make(map[string]*entities.ChoiceTally, len(choices))
	tallies := make([]entities.ChoiceTally, len(choices))
	for i, choice := range choices {
		tallies[i] = entities.ChoiceTally{
			ChoiceID: choice.ChoiceID,
			Name:     choice.Name,
		}
		byChoice[choice.ChoiceID] = &tallies[i]
	}

	total := 0
	for _, vote := range votes {
		tally, ok := byChoice[vote.ChoiceID]
		if !ok {
			continue
		}
		if vote.Direct() {
			tally.Direct++
		} else {
			tally.Inherited++
		}
		tally.Total++
		total++
	}

	return entities.PollResults{
		PollID:     poll.PollID,
		TotalVotes: total,
		Tallies:    tallies,
	}, nil
}
