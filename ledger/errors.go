package ledger

import "github.com/pkg/errors"

// Ledger errors
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientStake   = errors.New("insufficient stake")
	ErrInvalidSnapshot     = errors.New("invalid ledger snapshot")
)
