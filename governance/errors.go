package governance

import (
	"github.com/axiomesh/stakegov/ledger"
	"github.com/pkg/errors"
)

// Governance errors. Unauthorized and InsufficientStake are shared with the ledger.
var (
	ErrProposalNotFound     = errors.New("proposal not found")
	ErrVotingClosed         = errors.New("voting closed")
	ErrVotingNotClosed      = errors.New("voting not yet closed")
	ErrAlreadyVoted         = errors.New("already voted")
	ErrInvalidDeadline      = errors.New("invalid deadline")
	ErrProposalNotFinalized = errors.New("proposal not finalized")
	ErrAlreadyFinalized     = errors.New("proposal already finalized")
	ErrAlreadyClaimed       = errors.New("reward already claimed")

	ErrUnauthorized      = ledger.ErrUnauthorized
	ErrInsufficientStake = ledger.ErrInsufficientStake
	ErrInvalidAmount     = ledger.ErrInvalidAmount
)
