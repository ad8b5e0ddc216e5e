package unit

import (
	"context"
	"errors"
	"testing"

	voteengine "liquidvote/contexts/decision-core/vote-engine"
	"liquidvote/contexts/decision-core/vote-engine/domain/entities"
	domainerrors "liquidvote/contexts/decision-core/vote-engine/domain/errors"
	"liquidvote/contexts/decision-core/vote-engine/ports"
	httptransport "liquidvote/contexts/decision-core/vote-engine/transport/http"
)

func seedPoll(module voteengine.Module, pollID string, categoryID string, isOpen bool) {
	module.Store.SetPoll(ports.PollProjection{
		PollID:     pollID,
		Name:       "poll " + pollID,
		CategoryID: categoryID,
		IsOpen:     isOpen,
	})
}

func seedChoices(module voteengine.Module, pollID string, choiceIDs ...string) {
	for _, choiceID := range choiceIDs {
		module.Store.SetChoice(ports.ChoiceProjection{
			ChoiceID: choiceID,
			PollID:   pollID,
			Name:     "choice " + choiceID,
		})
	}
}

func TestSubmitVotePropagatesThroughChainedDelegations(t *testing.T) {
	module := voteengine.NewInMemoryModule(nil, nil)
	seedPoll(module, "poll-1", "", true)
	seedChoices(module, "poll-1", "choice-yes", "choice-no")
	// bob follows alice, carol follows bob; both delegations are global.
	module.Store.SetEdge(entities.DelegationEdge{FollowerID: "bob", LeaderID: "alice"})
	module.Store.SetEdge(entities.DelegationEdge{FollowerID: "carol", LeaderID: "bob"})

	resp, err := module.Handler.SubmitVoteHandler(context.Background(), "poll-1", "alice", "idem-1", httptransport.SubmitVoteRequest{
		ChoiceID: "choice-yes",
	})
	if err != nil {
		t.Fatalf("submit vote failed: %v", err)
	}
	if !resp.Vote.Direct {
		t.Fatalf("expected root vote to be direct")
	}
	if len(resp.Propagated) != 2 {
		t.Fatalf("expected 2 propagated votes, got %d", len(resp.Propagated))
	}

	byUser := make(map[string]httptransport.VoteResponse, len(resp.Propagated))
	for _, vote := range resp.Propagated {
		byUser[vote.UserID] = vote
	}
	if byUser["bob"].DelegateID != "alice" {
		t.Fatalf("expected bob's vote delegated by alice, got %q", byUser["bob"].DelegateID)
	}
	if byUser["carol"].DelegateID != "bob" {
		t.Fatalf("expected carol's vote delegated by bob, got %q", byUser["carol"].DelegateID)
	}
	for user, vote := range byUser {
		if vote.ChoiceID != "choice-yes" {
			t.Fatalf("expected %s to inherit choice-yes, got %s", user, vote.ChoiceID)
		}
		if vote.Direct {
			t.Fatalf("expected %s's vote to be inherited", user)
		}
	}
}

func TestPropagationStopsAtFollowersWhoAlreadyVoted(t *testing.T) {
	module := voteengine.NewInMemoryModule(nil, nil)
	seedPoll(module, "poll-1", "", true)
	seedChoices(module, "poll-1", "choice-yes", "choice-no")
	module.Store.SetEdge(entities.DelegationEdge{FollowerID: "bob", LeaderID: "alice"})
	module.Store.SetEdge(entities.DelegationEdge{FollowerID: "carol", LeaderID: "bob"})

	// bob casts his own vote first.
	if _, err := module.Handler.SubmitVoteHandler(context.Background(), "poll-1", "bob", "idem-bob", httptransport.SubmitVoteRequest{
		ChoiceID: "choice-no",
	}); err != nil {
		t.Fatalf("bob's vote failed: %v", err)
	}

	resp, err := module.Handler.SubmitVoteHandler(context.Background(), "poll-1", "alice", "idem-alice", httptransport.SubmitVoteRequest{
		ChoiceID: "choice-yes",
	})
	if err != nil {
		t.Fatalf("alice's vote failed: %v", err)
	}
	if len(resp.Propagated) != 0 {
		t.Fatalf("expected no propagation past a voted follower, got %d", len(resp.Propagated))
	}

	bobVote, err := module.Handler.UserVoteHandler(context.Background(), "poll-1", "bob")
	if err != nil {
		t.Fatalf("fetch bob's vote failed: %v", err)
	}
	if bobVote.ChoiceID != "choice-no" || !bobVote.Direct {
		t.Fatalf("expected bob's direct choice-no vote untouched, got %+v", bobVote)
	}
	if _, err := module.Handler.UserVoteHandler(context.Background(), "poll-1", "carol"); !errors.Is(err, domainerrors.ErrVoteNotFound) {
		t.Fatalf("expected carol without a vote, got %v", err)
	}
}

func TestScopedDelegationOnlyCoversItsCategories(t *testing.T) {
	module := voteengine.NewInMemoryModule(nil, nil)
	seedPoll(module, "poll-health", "cat-health", true)
	seedPoll(module, "poll-finance", "cat-finance", true)
	seedPoll(module, "poll-general", "", true)
	seedChoices(module, "poll-health", "choice-h1")
	seedChoices(module, "poll-finance", "choice-f1")
	seedChoices(module, "poll-general", "choice-g1")
	module.Store.SetEdge(entities.DelegationEdge{
		FollowerID:  "bob",
		LeaderID:    "alice",
		CategoryIDs: []string{"cat-finance"},
	})

	resp, err := module.Handler.SubmitVoteHandler(context.Background(), "poll-health", "alice", "idem-h", httptransport.SubmitVoteRequest{
		ChoiceID: "choice-h1",
	})
	if err != nil {
		t.Fatalf("health vote failed: %v", err)
	}
	if len(resp.Propagated) != 0 {
		t.Fatalf("finance-scoped edge must not cover a health poll, got %d propagated", len(resp.Propagated))
	}

	// A scoped edge never covers a poll without a category.
	resp, err = module.Handler.SubmitVoteHandler(context.Background(), "poll-general", "alice", "idem-g", httptransport.SubmitVoteRequest{
		ChoiceID: "choice-g1",
	})
	if err != nil {
		t.Fatalf("general vote failed: %v", err)
	}
	if len(resp.Propagated) != 0 {
		t.Fatalf("scoped edge must not cover a category-less poll, got %d propagated", len(resp.Propagated))
	}

	resp, err = module.Handler.SubmitVoteHandler(context.Background(), "poll-finance", "alice", "idem-f", httptransport.SubmitVoteRequest{
		ChoiceID: "choice-f1",
	})
	if err != nil {
		t.Fatalf("finance vote failed: %v", err)
	}
	if len(resp.Propagated) != 1 || resp.Propagated[0].UserID != "bob" {
		t.Fatalf("expected bob to inherit the finance vote, got %+v", resp.Propagated)
	}
}

func TestPropagationTerminatesOnDelegationCycle(t *testing.T) {
	module := voteengine.NewInMemoryModule(nil, nil)
	seedPoll(module, "poll-1", "", true)
	seedChoices(module, "poll-1", "choice-yes")
	// alice -> bob -> carol -> alice forms a cycle.
	module.Store.SetEdge(entities.DelegationEdge{FollowerID: "bob", LeaderID: "alice"})
	module.Store.SetEdge(entities.DelegationEdge{FollowerID: "carol", LeaderID: "bob"})
	module.Store.SetEdge(entities.DelegationEdge{FollowerID: "alice", LeaderID: "carol"})

	resp, err := module.Handler.SubmitVoteHandler(context.Background(), "poll-1", "alice", "idem-1", httptransport.SubmitVoteRequest{
		ChoiceID: "choice-yes",
	})
	if err != nil {
		t.Fatalf("submit vote failed: %v", err)
	}
	if len(resp.Propagated) != 2 {
		t.Fatalf("expected bob and carol to inherit, got %d", len(resp.Propagated))
	}

	aliceVote, err := module.Handler.UserVoteHandler(context.Background(), "poll-1", "alice")
	if err != nil {
		t.Fatalf("fetch alice's vote failed: %v", err)
	}
	if !aliceVote.Direct {
		t.Fatalf("cycle must never overwrite the root's direct vote")
	}
}

func TestDelegatedSubmissionRequiresAuthorization(t *testing.T) {
	module := voteengine.NewInMemoryModule(nil, nil)
	seedPoll(module, "poll-1", "cat-health", true)
	seedChoices(module, "poll-1", "choice-yes")
	module.Store.SetEdge(entities.DelegationEdge{FollowerID: "bob", LeaderID: "alice"})

	// alice holds bob's delegation, so she may vote on his behalf.
	resp, err := module.Handler.SubmitVoteHandler(context.Background(), "poll-1", "bob", "idem-1", httptransport.SubmitVoteRequest{
		ChoiceID:   "choice-yes",
		DelegateID: "alice",
	})
	if err != nil {
		t.Fatalf("delegated submission failed: %v", err)
	}
	if resp.Vote.Direct || resp.Vote.DelegateID != "alice" {
		t.Fatalf("expected an inherited vote via alice, got %+v", resp.Vote)
	}

	// mallory holds no delegation from carol.
	_, err = module.Handler.SubmitVoteHandler(context.Background(), "poll-1", "carol", "idem-2", httptransport.SubmitVoteRequest{
		ChoiceID:   "choice-yes",
		DelegateID: "mallory",
	})
	if !errors.Is(err, domainerrors.ErrUnauthorizedDelegate) {
		t.Fatalf("expected ErrUnauthorizedDelegate, got %v", err)
	}
}

func TestDelegateScopeMustCoverThePollCategory(t *testing.T) {
	module := voteengine.NewInMemoryModule(nil, nil)
	seedPoll(module, "poll-health", "cat-health", true)
	seedChoices(module, "poll-health", "choice-yes")
	module.Store.SetEdge(entities.DelegationEdge{
		FollowerID:  "bob",
		LeaderID:    "alice",
		CategoryIDs: []string{"cat-finance"},
	})

	_, err := module.Handler.SubmitVoteHandler(context.Background(), "poll-health", "bob", "idem-1", httptransport.SubmitVoteRequest{
		ChoiceID:   "choice-yes",
		DelegateID: "alice",
	})
	if !errors.Is(err, domainerrors.ErrUnauthorizedDelegate) {
		t.Fatalf("expected ErrUnauthorizedDelegate for out-of-scope edge, got %v", err)
	}
}

func TestDirectVoteIsProtectedFromDelegatedOverwrite(t *testing.T) {
	module := voteengine.NewInMemoryModule(nil, nil)
	seedPoll(module, "poll-1", "", true)
	seedChoices(module, "poll-1", "choice-yes", "choice-no")
	module.Store.SetEdge(entities.DelegationEdge{FollowerID: "bob", LeaderID: "alice"})

	if _, err := module.Handler.SubmitVoteHandler(context.Background(), "poll-1", "bob", "idem-1", httptransport.SubmitVoteRequest{
		ChoiceID: "choice-no",
	}); err != nil {
		t.Fatalf("bob's direct vote failed: %v", err)
	}

	_, err := module.Handler.SubmitVoteHandler(context.Background(), "poll-1", "bob", "idem-2", httptransport.SubmitVoteRequest{
		ChoiceID:   "choice-yes",
		DelegateID: "alice",
	})
	if !errors.Is(err, domainerrors.ErrDirectVoteProtected) {
		t.Fatalf("expected ErrDirectVoteProtected, got %v", err)
	}

	vote, err := module.Handler.UserVoteHandler(context.Background(), "poll-1", "bob")
	if err != nil {
		t.Fatalf("fetch bob's vote failed: %v", err)
	}
	if vote.ChoiceID != "choice-no" || !vote.Direct {
		t.Fatalf("expected bob's direct choice-no vote preserved, got %+v", vote)
	}
}

func TestDirectRevoteReplacesInheritedVote(t *testing.T) {
	module := voteengine.NewInMemoryModule(nil, nil)
	seedPoll(module, "poll-1", "", true)
	seedChoices(module, "poll-1", "choice-yes", "choice-no")
	module.Store.SetEdge(entities.DelegationEdge{FollowerID: "bob", LeaderID: "alice"})

	first, err := module.Handler.SubmitVoteHandler(context.Background(), "poll-1", "alice", "idem-1", httptransport.SubmitVoteRequest{
		ChoiceID: "choice-yes",
	})
	if err != nil {
		t.Fatalf("alice's vote failed: %v", err)
	}
	if len(first.Propagated) != 1 {
		t.Fatalf("expected bob to inherit alice's vote, got %d propagated", len(first.Propagated))
	}
	inheritedID := first.Propagated[0].VoteID

	// bob overrides the inherited vote with his own.
	second, err := module.Handler.SubmitVoteHandler(context.Background(), "poll-1", "bob", "idem-2", httptransport.SubmitVoteRequest{
		ChoiceID: "choice-no",
	})
	if err != nil {
		t.Fatalf("bob's override failed: %v", err)
	}
	if !second.WasUpdate {
		t.Fatalf("expected override to update the existing row")
	}
	if second.Vote.VoteID != inheritedID {
		t.Fatalf("expected the row identity to survive the override")
	}
	if !second.Vote.Direct || second.Vote.ChoiceID != "choice-no" {
		t.Fatalf("expected a direct choice-no vote, got %+v", second.Vote)
	}
}

func TestSubmitVoteOnClosedPoll(t *testing.T) {
	module := voteengine.NewInMemoryModule(nil, nil)
	seedPoll(module, "poll-1", "", false)
	seedChoices(module, "poll-1", "choice-yes")

	_, err := module.Handler.SubmitVoteHandler(context.Background(), "poll-1", "alice", "idem-1", httptransport.SubmitVoteRequest{
		ChoiceID: "choice-yes",
	})
	if !errors.Is(err, domainerrors.ErrPollClosed) {
		t.Fatalf("expected ErrPollClosed, got %v", err)
	}
}

func TestSubmitVoteRejectsForeignChoice(t *testing.T) {
	module := voteengine.NewInMemoryModule(nil, nil)
	seedPoll(module, "poll-1", "", true)
	seedPoll(module, "poll-2", "", true)
	seedChoices(module, "poll-1", "choice-1")
	seedChoices(module, "poll-2", "choice-2")

	_, err := module.Handler.SubmitVoteHandler(context.Background(), "poll-1", "alice", "idem-1", httptransport.SubmitVoteRequest{
		ChoiceID: "choice-2",
	})
	if !errors.Is(err, domainerrors.ErrInvalidChoice) {
		t.Fatalf("expected ErrInvalidChoice for a choice from another poll, got %v", err)
	}
}

func TestSubmitVoteIdempotentReplay(t *testing.T) {
	module := voteengine.NewInMemoryModule(nil, nil)
	seedPoll(module, "poll-1", "", true)
	seedChoices(module, "poll-1", "choice-yes", "choice-no")

	first, err := module.Handler.SubmitVoteHandler(context.Background(), "poll-1", "alice", "idem-1", httptransport.SubmitVoteRequest{
		ChoiceID: "choice-yes",
	})
	if err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
	second, err := module.Handler.SubmitVoteHandler(context.Background(), "poll-1", "alice", "idem-1", httptransport.SubmitVoteRequest{
		ChoiceID: "choice-yes",
	})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replayed response")
	}
	if first.Vote.VoteID != second.Vote.VoteID {
		t.Fatalf("expected the same vote id on replay, got %s and %s", first.Vote.VoteID, second.Vote.VoteID)
	}

	// Same key with a different payload is a conflict, not a replay.
	_, err = module.Handler.SubmitVoteHandler(context.Background(), "poll-1", "alice", "idem-1", httptransport.SubmitVoteRequest{
		ChoiceID: "choice-no",
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
	}
}

func TestSubmitVoteRequiresIdempotencyKey(t *testing.T) {
	module := voteengine.NewInMemoryModule(nil, nil)
	seedPoll(module, "poll-1", "", true)
	seedChoices(module, "poll-1", "choice-yes")

	_, err := module.Handler.SubmitVoteHandler(context.Background(), "poll-1", "alice", "", httptransport.SubmitVoteRequest{
		ChoiceID: "choice-yes",
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyKeyRequired) {
		t.Fatalf("expected ErrIdempotencyKeyRequired, got %v", err)
	}
}

func TestPollResultsSplitDirectAndInherited(t *testing.T) {
	module := voteengine.NewInMemoryModule(nil, nil)
	seedPoll(module, "poll-1", "", true)
	seedChoices(module, "poll-1", "choice-yes", "choice-no")
	module.Store.SetEdge(entities.DelegationEdge{FollowerID: "bob", LeaderID: "alice"})
	module.Store.SetEdge(entities.DelegationEdge{FollowerID: "carol", LeaderID: "alice"})

	if _, err := module.Handler.SubmitVoteHandler(context.Background(), "poll-1", "alice", "idem-1", httptransport.SubmitVoteRequest{
		ChoiceID: "choice-yes",
	}); err != nil {
		t.Fatalf("alice's vote failed: %v", err)
	}
	if _, err := module.Handler.SubmitVoteHandler(context.Background(), "poll-1", "dave", "idem-2", httptransport.SubmitVoteRequest{
		ChoiceID: "choice-no",
	}); err != nil {
		t.Fatalf("dave's vote failed: %v", err)
	}

	results, err := module.Handler.PollResultsHandler(context.Background(), "poll-1")
	if err != nil {
		t.Fatalf("poll results failed: %v", err)
	}
	if results.TotalVotes != 4 {
		t.Fatalf("expected 4 votes, got %d", results.TotalVotes)
	}

	byChoice := make(map[string]httptransport.ChoiceTallyItem, len(results.Tallies))
	for _, tally := range results.Tallies {
		byChoice[tally.ChoiceID] = tally
	}
	yes := byChoice["choice-yes"]
	if yes.Direct != 1 || yes.Inherited != 2 || yes.Total != 3 {
		t.Fatalf("unexpected choice-yes tally: %+v", yes)
	}
	no := byChoice["choice-no"]
	if no.Direct != 1 || no.Inherited != 0 || no.Total != 1 {
		t.Fatalf("unexpected choice-no tally: %+v", no)
	}
}

func TestUserVoteNotFound(t *testing.T) {
	module := voteengine.NewInMemoryModule(nil, nil)
	seedPoll(module, "poll-1", "", true)

	_, err := module.Handler.UserVoteHandler(context.Background(), "poll-1", "alice")
	if !errors.Is(err, domainerrors.ErrVoteNotFound) {
		t.Fatalf("expected ErrVoteNotFound, got %v", err)
	}
}
