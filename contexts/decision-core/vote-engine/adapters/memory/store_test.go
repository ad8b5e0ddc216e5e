package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"liquidvote/contexts/decision-core/vote-engine/domain/entities"
	"liquidvote/contexts/decision-core/vote-engine/ports"
)

func TestInsertVotesSkipsExistingIdentities(t *testing.T) {
	now := time.Now().UTC()
	store := NewStore([]entities.Vote{
		{VoteID: "vote-1", PollID: "poll-1", UserID: "bob", ChoiceID: "choice-no", CreatedAt: now, UpdatedAt: now},
	})

	inserted, err := store.InsertVotes(context.Background(), []entities.Vote{
		{VoteID: "vote-2", PollID: "poll-1", UserID: "bob", ChoiceID: "choice-yes", CreatedAt: now, UpdatedAt: now},
		{VoteID: "vote-3", PollID: "poll-1", UserID: "carol", ChoiceID: "choice-yes", CreatedAt: now, UpdatedAt: now},
	})
	if err != nil {
		t.Fatalf("insert votes failed: %v", err)
	}
	if len(inserted) != 1 || inserted[0].UserID != "carol" {
		t.Fatalf("expected only carol's vote written, got %+v", inserted)
	}

	bob, found, err := store.GetVoteByIdentity(context.Background(), "poll-1", "bob")
	if err != nil || !found {
		t.Fatalf("expected bob's vote: %v", err)
	}
	if bob.VoteID != "vote-1" || bob.ChoiceID != "choice-no" {
		t.Fatalf("expected bob's original vote untouched, got %+v", bob)
	}
}

func TestSaveVoteUpsertsOnIdentityKeepingRowID(t *testing.T) {
	now := time.Now().UTC()
	store := NewStore([]entities.Vote{
		{VoteID: "vote-1", PollID: "poll-1", UserID: "bob", ChoiceID: "choice-no", DelegateID: "alice", CreatedAt: now, UpdatedAt: now},
	})

	err := store.SaveVote(context.Background(), entities.Vote{
		VoteID:    "vote-2",
		PollID:    "poll-1",
		UserID:    "bob",
		ChoiceID:  "choice-yes",
		CreatedAt: now,
		UpdatedAt: now.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("save vote failed: %v", err)
	}

	bob, found, err := store.GetVoteByIdentity(context.Background(), "poll-1", "bob")
	if err != nil || !found {
		t.Fatalf("expected bob's vote: %v", err)
	}
	if bob.VoteID != "vote-1" {
		t.Fatalf("expected the original row id to survive the upsert, got %s", bob.VoteID)
	}
	if bob.ChoiceID != "choice-yes" || bob.DelegateID != "" {
		t.Fatalf("expected refreshed choice and delegate, got %+v", bob)
	}
}

func TestInTransactionRestoresStateOnFailure(t *testing.T) {
	now := time.Now().UTC()
	store := NewStore(nil)
	boom := errors.New("boom")

	err := store.InTransaction(context.Background(), func(stores ports.TxStores) error {
		if err := stores.Votes.SaveVote(context.Background(), entities.Vote{
			VoteID: "vote-1", PollID: "poll-1", UserID: "bob", ChoiceID: "choice-yes", CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			return err
		}
		if err := stores.Idempotency.PutRecord(context.Background(), ports.IdempotencyRecord{
			Key: "decision_vote:idem-1", Operation: "submit_vote", RequestHash: "hash", ExpiresAt: now.Add(time.Hour),
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the unit of work error, got %v", err)
	}

	if _, found, _ := store.GetVoteByIdentity(context.Background(), "poll-1", "bob"); found {
		t.Fatalf("expected the vote write rolled back")
	}
	if _, found, _ := store.GetRecord(context.Background(), "decision_vote:idem-1", now); found {
		t.Fatalf("expected the idempotency write rolled back")
	}
}
