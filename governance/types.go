package governance

import (
	"github.com/ethereum/go-ethereum/common"
)

const DefaultMinProposalDuration uint64 = 1440

type ProposalStatus uint8

const (
	Active ProposalStatus = iota
	Passed
	Rejected
)

func (s ProposalStatus) String() string {
	switch s {
	case Active:
		return "active"
	case Passed:
		return "passed"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is allowed.
func (s ProposalStatus) Terminal() bool {
	return s == Passed || s == Rejected
}

type Proposal struct {
	ID          uint64         `json:"id"`
	Creator     common.Address `json:"creator"`
	Description string         `json:"description"`
	// Deadline is the last height at which votes are accepted.
	Deadline   uint64 `json:"deadline"`
	RewardPool uint64 `json:"reward_pool"`

	// TotalVotes is always ForVotes + AgainstVotes
	TotalVotes   uint64         `json:"total_votes"`
	ForVotes     uint64         `json:"for_votes"`
	AgainstVotes uint64         `json:"against_votes"`
	Status       ProposalStatus `json:"status"`

	CreatedAt   uint64 `json:"created_at"`
	FinalizedAt uint64 `json:"finalized_at,omitempty"`
}

// VoteRecord is the single vote of one voter on one proposal.
type VoteRecord struct {
	ProposalID uint64         `json:"proposal_id"`
	Voter      common.Address `json:"voter"`
	Weight     uint64         `json:"weight"`
	VoteFor    bool           `json:"vote_for"`
	Claimed    bool           `json:"claimed"`
}

// StakeReader exposes the staked balance that bounds a voter's weight.
type StakeReader interface {
	StakedBalance(account common.Address) uint64
}
