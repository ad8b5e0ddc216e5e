package ports

import (
	"context"
	"time"

	"liquidvote/contexts/decision-core/vote-engine/domain/entities"
)

// PollProjection is the read-only view of a poll owned by the external
// poll catalog. Category is optional; an empty CategoryID means the poll is
// category-less.
type PollProjection struct {
	PollID     string
	Name       string
	CategoryID string
	IsOpen     bool
}

type ChoiceProjection struct {
	ChoiceID string
	PollID   string
	Name     string
}

type VoteStore interface {
	SaveVote(ctx context.Context, vote entities.Vote) error
	GetVoteByIdentity(ctx context.Context, pollID string, userID string) (entities.Vote, bool, error)
	// InsertVotes bulk-inserts propagated rows. Rows that collide with an
	// existing (poll, user) vote are dropped, not an error, and only the rows
	// actually written are returned.
	InsertVotes(ctx context.Context, votes []entities.Vote) ([]entities.Vote, error)
	// ListVotedUsers reports which of the given users already hold a vote for
	// the poll.
	ListVotedUsers(ctx context.Context, pollID string, userIDs []string) (map[string]bool, error)
	ListVotesByPoll(ctx context.Context, pollID string) ([]entities.Vote, error)
}

type DelegationGraph interface {
	GetEdge(ctx context.Context, leaderID string, followerID string) (entities.DelegationEdge, bool, error)
	ListEdgesByLeaders(ctx context.Context, leaderIDs []string) ([]entities.DelegationEdge, error)
}

type PollCatalog interface {
	GetPoll(ctx context.Context, pollID string) (PollProjection, error)
	GetChoice(ctx context.Context, choiceID string) (ChoiceProjection, error)
	ListChoicesByPoll(ctx context.Context, pollID string) ([]ChoiceProjection, error)
}

// TxStores bundles the store views handed to a unit of work. Every view
// observes and mutates the same transaction.
type TxStores struct {
	Votes       VoteStore
	Graph       DelegationGraph
	Polls       PollCatalog
	Idempotency IdempotencyStore
}

// Transactor runs fn as one atomic unit: a submission and its full
// propagation either commit together or leave no partial state.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(stores TxStores) error) error
}

type IdempotencyRecord struct {
	Key             string
	Operation       string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

type IdempotencyStore interface {
	GetRecord(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	PutRecord(ctx context.Context, record IdempotencyRecord) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
