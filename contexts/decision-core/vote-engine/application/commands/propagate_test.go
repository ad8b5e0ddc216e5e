package commands_test

import (
	"context"
	"testing"
	"time"

	"liquidvote/contexts/decision-core/vote-engine/adapters/memory"
	"liquidvote/contexts/decision-core/vote-engine/application/commands"
	"liquidvote/contexts/decision-core/vote-engine/domain/entities"
	"liquidvote/contexts/decision-core/vote-engine/ports"
)

func newRootVote(t *testing.T, store *memory.Store, pollID string, userID string, choiceID string, now time.Time) entities.Vote {
	t.Helper()
	root := entities.Vote{
		VoteID:    "vote-" + userID,
		PollID:    pollID,
		UserID:    userID,
		ChoiceID:  choiceID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.SaveVote(context.Background(), root); err != nil {
		t.Fatalf("seed vote failed: %v", err)
	}
	return root
}

func TestPropagateAdmitsSharedFollowerOnce(t *testing.T) {
	store := memory.NewStore(nil)
	now := time.Now().UTC()
	poll := ports.PollProjection{PollID: "poll-1", IsOpen: true}
	// Diamond: bob and carol follow alice, dave follows both bob and carol.
	store.SetEdge(entities.DelegationEdge{FollowerID: "bob", LeaderID: "alice"})
	store.SetEdge(entities.DelegationEdge{FollowerID: "carol", LeaderID: "alice"})
	store.SetEdge(entities.DelegationEdge{FollowerID: "dave", LeaderID: "bob"})
	store.SetEdge(entities.DelegationEdge{FollowerID: "dave", LeaderID: "carol"})
	root := newRootVote(t, store, "poll-1", "alice", "choice-yes", now)

	engine := commands.PropagationEngine{IDGen: store}
	inserted, err := engine.Propagate(context.Background(), store, store, poll, root, now)
	if err != nil {
		t.Fatalf("propagate failed: %v", err)
	}
	if len(inserted) != 3 {
		t.Fatalf("expected bob, carol and dave once each, got %d votes", len(inserted))
	}

	seen := make(map[string]int, len(inserted))
	for _, vote := range inserted {
		seen[vote.UserID]++
		if vote.ChoiceID != "choice-yes" {
			t.Fatalf("expected inherited choice-yes, got %s for %s", vote.ChoiceID, vote.UserID)
		}
	}
	if seen["dave"] != 1 {
		t.Fatalf("expected dave admitted exactly once, got %d", seen["dave"])
	}
}

func TestPropagateStopsChainAtVotedFollower(t *testing.T) {
	store := memory.NewStore(nil)
	now := time.Now().UTC()
	poll := ports.PollProjection{PollID: "poll-1", IsOpen: true}
	store.SetEdge(entities.DelegationEdge{FollowerID: "bob", LeaderID: "alice"})
	store.SetEdge(entities.DelegationEdge{FollowerID: "carol", LeaderID: "bob"})
	newRootVote(t, store, "poll-1", "bob", "choice-no", now)
	root := newRootVote(t, store, "poll-1", "alice", "choice-yes", now)

	engine := commands.PropagationEngine{IDGen: store}
	inserted, err := engine.Propagate(context.Background(), store, store, poll, root, now)
	if err != nil {
		t.Fatalf("propagate failed: %v", err)
	}
	if len(inserted) != 0 {
		t.Fatalf("expected the walk to stop at bob's existing vote, got %d votes", len(inserted))
	}

	bob, found, err := store.GetVoteByIdentity(context.Background(), "poll-1", "bob")
	if err != nil || !found {
		t.Fatalf("expected bob's vote to remain: %v", err)
	}
	if bob.ChoiceID != "choice-no" {
		t.Fatalf("expected bob's choice untouched, got %s", bob.ChoiceID)
	}
}

func TestPropagateFiltersEdgesByScope(t *testing.T) {
	store := memory.NewStore(nil)
	now := time.Now().UTC()
	poll := ports.PollProjection{PollID: "poll-1", CategoryID: "cat-health", IsOpen: true}
	store.SetEdge(entities.DelegationEdge{FollowerID: "bob", LeaderID: "alice", CategoryIDs: []string{"cat-health"}})
	store.SetEdge(entities.DelegationEdge{FollowerID: "carol", LeaderID: "alice", CategoryIDs: []string{"cat-finance"}})
	root := newRootVote(t, store, "poll-1", "alice", "choice-yes", now)

	engine := commands.PropagationEngine{IDGen: store}
	inserted, err := engine.Propagate(context.Background(), store, store, poll, root, now)
	if err != nil {
		t.Fatalf("propagate failed: %v", err)
	}
	if len(inserted) != 1 || inserted[0].UserID != "bob" {
		t.Fatalf("expected only the health-scoped edge to fire, got %+v", inserted)
	}
}

func TestPropagateTerminatesOnCycle(t *testing.T) {
	store := memory.NewStore(nil)
	now := time.Now().UTC()
	poll := ports.PollProjection{PollID: "poll-1", IsOpen: true}
	store.SetEdge(entities.DelegationEdge{FollowerID: "bob", LeaderID: "alice"})
	store.SetEdge(entities.DelegationEdge{FollowerID: "alice", LeaderID: "bob"})
	root := newRootVote(t, store, "poll-1", "alice", "choice-yes", now)

	engine := commands.PropagationEngine{IDGen: store}
	inserted, err := engine.Propagate(context.Background(), store, store, poll, root, now)
	if err != nil {
		t.Fatalf("propagate failed: %v", err)
	}
	if len(inserted) != 1 || inserted[0].UserID != "bob" {
		t.Fatalf("expected only bob to inherit, got %+v", inserted)
	}

	alice, found, err := store.GetVoteByIdentity(context.Background(), "poll-1", "alice")
	if err != nil || !found {
		t.Fatalf("expected alice's vote to remain: %v", err)
	}
	if !alice.Direct() {
		t.Fatalf("expected the root vote to stay direct")
	}
}
