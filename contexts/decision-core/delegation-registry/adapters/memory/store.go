package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"liquidvote/contexts/decision-core/delegation-registry/domain/entities"
	domainerrors "liquidvote/contexts/decision-core/delegation-registry/domain/errors"
	"liquidvote/contexts/decision-core/delegation-registry/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	delegations map[string]entities.Delegation
	byPair      map[string]string // leader|follower -> delegation ID
	idempotency map[string]ports.IdempotencyRecord
}

func NewStore(seed []entities.Delegation) *Store {
	store := &Store{
		delegations: make(map[string]entities.Delegation, len(seed)),
		byPair:      make(map[string]string, len(seed)),
		idempotency: make(map[string]ports.IdempotencyRecord),
	}
	for _, delegation := range seed {
		store.delegations[delegation.DelegationID] = delegation
		store.byPair[pairKey(delegation.LeaderID, delegation.FollowerID)] = delegation.DelegationID
	}
	return store
}

func (s *Store) CreateDelegation(_ context.Context, delegation entities.Delegation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(delegation.LeaderID, delegation.FollowerID)
	if _, exists := s.byPair[key]; exists {
		return domainerrors.ErrDelegationExists
	}
	s.delegations[delegation.DelegationID] = delegation
	s.byPair[key] = delegation.DelegationID
	return nil
}

func (s *Store) GetDelegation(_ context.Context, delegationID string) (entities.Delegation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	delegation, ok := s.delegations[strings.TrimSpace(delegationID)]
	if !ok {
		return entities.Delegation{}, domainerrors.ErrDelegationNotFound
	}
	return delegation, nil
}

func (s *Store) DeleteDelegation(_ context.Context, delegationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delegation, ok := s.delegations[strings.TrimSpace(delegationID)]
	if !ok {
		return domainerrors.ErrDelegationNotFound
	}
	delete(s.delegations, delegation.DelegationID)
	delete(s.byPair, pairKey(delegation.LeaderID, delegation.FollowerID))
	return nil
}

func (s *Store) ListDelegationsByFollower(_ context.Context, followerID string) ([]entities.Delegation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Delegation, 0)
	for _, delegation := range s.delegations {
		if delegation.FollowerID == strings.TrimSpace(followerID) {
			items = append(items, delegation)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
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

func pairKey(leaderID string, followerID string) string {
	return strings.TrimSpace(leaderID) + "|" + strings.TrimSpace(followerID)
}

var _ ports.DelegationRepository = (*Store)(nil)
var _ ports.IdempotencyStore = (*Store)(nil)
