package commands

import (
	"context"
	"log/slog"
	"time"

	application "liquidvote/contexts/decision-core/vote-engine/application"
	"liquidvote/contexts/decision-core/vote-engine/domain/entities"
	"liquidvote/contexts/decision-core/vote-engine/ports"
)

// PropagationEngine materializes inherited votes for every follower who,
// directly or transitively, delegates to the user behind a just-written vote.
//
// It walks the reversed delegation graph breadth-first. A follower edge is
// admitted when its category scope covers the poll and the follower holds no
// vote for the poll yet. Admitted followers form the next frontier; a
// follower who already voted is a cutoff, so the chain through them is never
// explored by this run. The visited set deduplicates repeated followers,
// which is what bounds the walk on cyclic graphs.
type PropagationEngine struct {
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// Propagate computes the closure for root and bulk-writes the inherited
// votes. The root user is never part of the write set; their row was written
// by the submission already. Insert conflicts from concurrent submissions are
// dropped by the store, never surfaced.
func (e PropagationEngine) Propagate(
	ctx context.Context,
	votes ports.VoteStore,
	graph ports.DelegationGraph,
	poll ports.PollProjection,
	root entities.Vote,
	now time.Time,
) ([]entities.Vote, error) {
	logger := application.ResolveLogger(e.Logger)

	visited := map[string]struct{}{root.UserID: {}}
	admitted := make([]entities.Vote, 0)
	frontier := []string{root.UserID}
	rounds := 0

	for len(frontier) > 0 {
		rounds++
		edges, err := graph.ListEdgesByLeaders(ctx, frontier)
		if err != nil {
			return nil, err
		}

		candidates := make([]entities.DelegationEdge, 0, len(edges))
		followerIDs := make([]string, 0, len(edges))
		for _, edge := range edges {
			if _, seen := visited[edge.FollowerID]; seen {
				continue
			}
			if !edge.AppliesTo(poll.CategoryID) {
				continue
			}
			candidates = append(candidates, edge)
			followerIDs = append(followerIDs, edge.FollowerID)
		}

		voted := map[string]bool{}
		if len(followerIDs) > 0 {
			voted, err = votes.ListVotedUsers(ctx, poll.PollID, followerIDs)
			if err != nil {
				return nil, err
			}
		}

		next := make([]string, 0, len(candidates))
		for _, edge := range candidates {
			// Two frontier leaders may share a follower; first admission wins.
			if _, seen := visited[edge.FollowerID]; seen {
				continue
			}
			visited[edge.FollowerID] = struct{}{}
			if voted[edge.FollowerID] {
				// The follower's earlier vote already represents their choice;
				// their own followers inherited through it, not through us.
				continue
			}
			voteID, err := e.IDGen.NewID(ctx)
			if err != nil {
				return nil, err
			}
			admitted = append(admitted, entities.Vote{
				VoteID:     voteID,
				PollID:     poll.PollID,
				UserID:     edge.FollowerID,
				ChoiceID:   root.ChoiceID,
				DelegateID: edge.LeaderID,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
			next = append(next, edge.FollowerID)
		}
		frontier = next
	}

	if len(admitted) == 0 {
		return nil, nil
	}

	inserted, err := votes.InsertVotes(ctx, admitted)
	if err != nil {
		return nil, err
	}
	logger.Info("vote propagation completed",
		"event", "decision_vote_propagated",
		"module", "decision-core/vote-engine",
		"layer", "application",
		"poll_id", poll.PollID,
		"root_user_id", root.UserID,
		"rounds", rounds,
		"admitted", len(admitted),
		"written", len(inserted),
	)
	return inserted, nil
}
