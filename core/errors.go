package core

import (
	"github.com/pkg/errors"

	"github.com/axiomesh/stakegov/governance"
	"github.com/axiomesh/stakegov/ledger"
)

var (
	ErrStaleHeight = errors.New("stale height")
	// ErrGovernorFailed is returned once the committed state could not be
	// reloaded after a failed write.
	ErrGovernorFailed = errors.New("governor failed")
)

// Error codes reported to callers. u100-u103 and u105 keep the numbering the
// contract clients already know; the others are new. Finalizing before the
// deadline gets its own code instead of sharing u101 with late votes.
const (
	CodeProposalNotFound     = "u100"
	CodeVotingClosed         = "u101"
	CodeAlreadyVoted         = "u102"
	CodeInsufficientStake    = "u103"
	CodeInsufficientBalance  = "u104"
	CodeUnauthorized         = "u105"
	CodeInvalidDeadline      = "u106"
	CodeInvalidAmount        = "u107"
	CodeProposalNotFinalized = "u108"
	CodeVotingNotClosed      = "u109"
	CodeAlreadyFinalized     = "u110"
	CodeAlreadyClaimed       = "u111"
	CodeStaleHeight          = "u112"
	CodeInternal             = "internal"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{governance.ErrProposalNotFound, CodeProposalNotFound},
	{governance.ErrVotingClosed, CodeVotingClosed},
	{governance.ErrAlreadyVoted, CodeAlreadyVoted},
	{ledger.ErrInsufficientStake, CodeInsufficientStake},
	{ledger.ErrInsufficientBalance, CodeInsufficientBalance},
	{ledger.ErrUnauthorized, CodeUnauthorized},
	{governance.ErrInvalidDeadline, CodeInvalidDeadline},
	{ledger.ErrInvalidAmount, CodeInvalidAmount},
	{governance.ErrProposalNotFinalized, CodeProposalNotFinalized},
	{governance.ErrVotingNotClosed, CodeVotingNotClosed},
	{governance.ErrAlreadyFinalized, CodeAlreadyFinalized},
	{governance.ErrAlreadyClaimed, CodeAlreadyClaimed},
	{ErrStaleHeight, CodeStaleHeight},
}

// ErrorCode maps err onto its caller-facing code. nil maps to "".
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}
