package errors

import "errors"

var (
	ErrInvalidDelegationInput = errors.New("invalid delegation input")
	ErrSelfDelegation         = errors.New("cannot delegate to self")
	ErrDelegationExists       = errors.New("delegation already exists for this leader and follower")
	ErrDelegationNotFound     = errors.New("delegation not found")
	ErrNotDelegationOwner     = errors.New("delegation belongs to another follower")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key conflict")
)
