package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"liquidvote/contexts/decision-core/vote-engine/domain/entities"
	domainerrors "liquidvote/contexts/decision-core/vote-engine/domain/errors"
	"liquidvote/contexts/decision-core/vote-engine/ports"

	"github.com/google/uuid"
)

// Store is the in-memory adapter used by tests and local wiring. It keeps
// the same invariants the postgres schema enforces: one vote per
// (poll, user), one delegation per (leader, follower).
type Store struct {
	mu sync.Mutex

	votes       map[string]entities.Vote // keyed by vote ID
	byIdentity  map[string]string        // poll|user -> vote ID
	edges       []entities.DelegationEdge
	polls       map[string]ports.PollProjection
	choices     map[string]ports.ChoiceProjection
	idempotency map[string]ports.IdempotencyRecord
}

func NewStore(seed []entities.Vote) *Store {
	store := &Store{
		votes:       make(map[string]entities.Vote, len(seed)),
		byIdentity:  make(map[string]string, len(seed)),
		polls:       make(map[string]ports.PollProjection),
		choices:     make(map[string]ports.ChoiceProjection),
		idempotency: make(map[string]ports.IdempotencyRecord),
	}
	for _, vote := range seed {
		store.votes[vote.VoteID] = vote
		store.byIdentity[identityKey(vote.PollID, vote.UserID)] = vote.VoteID
	}
	return store
}

func (s *Store) SetPoll(poll ports.PollProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls[strings.TrimSpace(poll.PollID)] = poll
}

func (s *Store) SetChoice(choice ports.ChoiceProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.choices[strings.TrimSpace(choice.ChoiceID)] = choice
}

func (s *Store) SetEdge(edge entities.DelegationEdge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = append(s.edges, edge)
}

// InTransaction serializes units of work and restores the vote and
// idempotency state when fn fails, matching the all-or-nothing contract of
// the postgres adapter.
func (s *Store) InTransaction(_ context.Context, fn func(stores ports.TxStores) error) error {
	votesBefore := make(map[string]entities.Vote, len(s.votes))
	identityBefore := make(map[string]string, len(s.byIdentity))
	idempotencyBefore := make(map[string]ports.IdempotencyRecord, len(s.idempotency))
	s.mu.Lock()
	for key, value := range s.votes {
		votesBefore[key] = value
	}
	for key, value := range s.byIdentity {
		identityBefore[key] = value
	}
	for key, value := range s.idempotency {
		idempotencyBefore[key] = value
	}
	s.mu.Unlock()

	err := fn(ports.TxStores{
		Votes:       s,
		Graph:       s,
		Polls:       s,
		Idempotency: s,
	})
	if err != nil {
		s.mu.Lock()
		s.votes = votesBefore
		s.byIdentity = identityBefore
		s.idempotency = idempotencyBefore
		s.mu.Unlock()
	}
	return err
}

func (s *Store) SaveVote(_ context.Context, vote entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := identityKey(vote.PollID, vote.UserID)
	if existingID, ok := s.byIdentity[key]; ok && existingID != vote.VoteID {
		// Upsert on identity: keep the original row ID, refresh the rest.
		existing := s.votes[existingID]
		existing.ChoiceID = vote.ChoiceID
		existing.DelegateID = vote.DelegateID
		existing.UpdatedAt = vote.UpdatedAt
		s.votes[existingID] = existing
		return nil
	}
	s.votes[vote.VoteID] = vote
	s.byIdentity[key] = vote.VoteID
	return nil
}

func (s *Store) GetVoteByIdentity(_ context.Context, pollID string, userID string) (entities.Vote, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	voteID, ok := s.byIdentity[identityKey(pollID, userID)]
	if !ok {
		return entities.Vote{}, false, nil
	}
	return s.votes[voteID], true, nil
}

func (s *Store) InsertVotes(_ context.Context, votes []entities.Vote) ([]entities.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := make([]entities.Vote, 0, len(votes))
	for _, vote := range votes {
		key := identityKey(vote.PollID, vote.UserID)
		if _, exists := s.byIdentity[key]; exists {
			continue
		}
		s.votes[vote.VoteID] = vote
		s.byIdentity[key] = vote.VoteID
		inserted = append(inserted, vote)
	}
	return inserted, nil
}

func (s *Store) ListVotedUsers(_ context.Context, pollID string, userIDs []string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	voted := make(map[string]bool, len(userIDs))
	for _, userID := range userIDs {
		if _, ok := s.byIdentity[identityKey(pollID, userID)]; ok {
			voted[userID] = true
		}
	}
	return voted, nil
}

func (s *Store) ListVotesByPoll(_ context.Context, pollID string) ([]entities.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.PollID == strings.TrimSpace(pollID) {
			items = append(items, vote)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].UserID < items[j].UserID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) GetEdge(_ context.Context, leaderID string, followerID string) (entities.DelegationEdge, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, edge := range s.edges {
		if edge.LeaderID == strings.TrimSpace(leaderID) && edge.FollowerID == strings.TrimSpace(followerID) {
			return edge, true, nil
		}
	}
	return entities.DelegationEdge{}, false, nil
}

func (s *Store) ListEdgesByLeaders(_ context.Context, leaderIDs []string) ([]entities.DelegationEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	leaders := make(map[string]struct{}, len(leaderIDs))
	for _, leaderID := range leaderIDs {
		leaders[leaderID] = struct{}{}
	}
	items := make([]entities.DelegationEdge, 0)
	for _, edge := range s.edges {
		if _, ok := leaders[edge.LeaderID]; ok {
			items = append(items, edge)
		}
	}
	return items, nil
}

func (s *Store) GetPoll(_ context.Context, pollID string) (ports.PollProjection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	poll, ok := s.polls[strings.TrimSpace(pollID)]
	if !ok {
		return ports.PollProjection{}, domainerrors.ErrPollNotFound
	}
	return poll, nil
}

func (s *Store) GetChoice(_ context.Context, choiceID string) (ports.ChoiceProjection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	choice, ok := s.choices[strings.TrimSpace(choiceID)]
	if !ok {
		return ports.ChoiceProjection{}, domainerrors.ErrInvalidChoice
	}
	return choice, nil
}

func (s *Store) ListChoicesByPoll(_ context.Context, pollID string) ([]ports.ChoiceProjection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]ports.ChoiceProjection, 0)
	for _, choice := range s.choices {
		if choice.PollID == strings.TrimSpace(pollID) {
			items = append(items, choice)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ChoiceID < items[j].ChoiceID
	})
	return items, nil
}

func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key = strings.TrimSpace(key)
	record, exists := s.idempotency[key]
	if !exists {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now.UTC()) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(record.Key)
	existing, exists := s.idempotency[key]
	if exists {
		if existing.RequestHash != record.RequestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	s.idempotency[key] = record
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func identityKey(pollID string, userID string) string {
	return strings.TrimSpace(pollID) + "|" + strings.TrimSpace(userID)
}

var _ ports.Transactor = (*Store)(nil)
var _ ports.VoteStore = (*Store)(nil)
var _ ports.DelegationGraph = (*Store)(nil)
var _ ports.PollCatalog = (*Store)(nil)
var _ ports.IdempotencyStore = (*Store)(nil)
