package ledger

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyCompleted  = errors.New("chore already completed for this period")
	ErrAlreadyProcessed  = errors.New("redemption already processed")
	ErrInsufficientFunds = errors.New("not enough points")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidAction     = errors.New("invalid action")
	ErrInvalidInput      = errors.New("invalid input")
	ErrKeyConflict       = errors.New("idempotency key already used for another reward")
)
