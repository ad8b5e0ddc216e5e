package ports

import (
	"context"
	"time"

	"liquidvote/contexts/decision-core/delegation-registry/domain/entities"
)

type DelegationRepository interface {
	// CreateDelegation persists the edge and its category scope. The storage
	// layer enforces uniqueness of (leader, follower) and reports a duplicate
	// as ErrDelegationExists.
	CreateDelegation(ctx context.Context, delegation entities.Delegation) error
	GetDelegation(ctx context.Context, delegationID string) (entities.Delegation, error)
	DeleteDelegation(ctx context.Context, delegationID string) error
	ListDelegationsByFollower(ctx context.Context, followerID string) ([]entities.Delegation, error)
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
