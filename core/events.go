package core

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Event signatures, hashed into topics the same way contract logs are.
const (
	SigMinted            = "Minted(address,address,uint64)"
	SigBurned            = "Burned(address,uint64)"
	SigStaked            = "Staked(address,uint64)"
	SigUnstaked          = "Unstaked(address,uint64)"
	SigOwnerChanged      = "OwnerChanged(address,address)"
	SigProposalCreated   = "ProposalCreated(uint64,address,uint64,uint64)"
	SigVoted             = "Voted(uint64,address,uint64,bool)"
	SigProposalFinalized = "ProposalFinalized(uint64,uint8)"
	SigRewardClaimed     = "RewardClaimed(uint64,address,uint64)"
)

var (
	TopicMinted            = crypto.Keccak256Hash([]byte(SigMinted))
	TopicBurned            = crypto.Keccak256Hash([]byte(SigBurned))
	TopicStaked            = crypto.Keccak256Hash([]byte(SigStaked))
	TopicUnstaked          = crypto.Keccak256Hash([]byte(SigUnstaked))
	TopicOwnerChanged      = crypto.Keccak256Hash([]byte(SigOwnerChanged))
	TopicProposalCreated   = crypto.Keccak256Hash([]byte(SigProposalCreated))
	TopicVoted             = crypto.Keccak256Hash([]byte(SigVoted))
	TopicProposalFinalized = crypto.Keccak256Hash([]byte(SigProposalFinalized))
	TopicRewardClaimed     = crypto.Keccak256Hash([]byte(SigRewardClaimed))
)

// Event describes one accepted state change. Fields that do not apply to the
// topic are left zero.
type Event struct {
	Topic      common.Hash    `json:"topic"`
	Name       string         `json:"name"`
	Height     uint64         `json:"height"`
	Caller     common.Address `json:"caller"`
	Account    common.Address `json:"account,omitempty"`
	ProposalID uint64         `json:"proposal_id,omitempty"`
	Amount     uint64         `json:"amount,omitempty"`
	VoteFor    bool           `json:"vote_for,omitempty"`
	Status     string         `json:"status,omitempty"`
}

func newEvent(topic common.Hash, name string, call Call) *Event {
	return &Event{
		Topic:  topic,
		Name:   name,
		Height: call.Height,
		Caller: call.Caller,
	}
}
