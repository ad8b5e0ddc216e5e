package errors

import "errors"

var (
	ErrInvalidVoteInput       = errors.New("invalid vote input")
	ErrPollNotFound           = errors.New("poll not found")
	ErrPollClosed             = errors.New("poll is not accepting votes")
	ErrInvalidChoice          = errors.New("choice does not belong to poll")
	ErrUnauthorizedDelegate   = errors.New("delegate is not authorized for this poll")
	ErrDirectVoteProtected    = errors.New("direct vote cannot be overridden by a delegate")
	ErrVoteNotFound           = errors.New("vote not found")
	ErrVoteConflict           = errors.New("vote conflict")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key conflict")
)
