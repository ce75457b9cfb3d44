package governance

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// RewardDistributor pays every voter of a finalized proposal a share of the
// reward pool proportional to its weight, whichever side it voted on.
type RewardDistributor struct {
	store *ProposalStore
	votes *VoteBook
}

func NewRewardDistributor(store *ProposalStore, votes *VoteBook) *RewardDistributor {
	return &RewardDistributor{store: store, votes: votes}
}

// Claim computes the voter's reward and marks it claimed so it cannot be
// claimed twice. The returned record is the vote as stored after the claim.
func (d *RewardDistributor) Claim(proposalID uint64, voter common.Address) (uint64, *VoteRecord, error) {
	p, ok := d.store.Get(proposalID)
	if !ok {
		return 0, nil, errors.Wrapf(ErrUnauthorized, "proposal %d does not exist", proposalID)
	}

	var reward uint64
	record, err := d.votes.markClaimed(proposalID, voter, func(r *VoteRecord) error {
		if p.Status == Active {
			return errors.Wrapf(ErrProposalNotFinalized, "proposal %d", proposalID)
		}
		if r.Claimed {
			return errors.Wrapf(ErrAlreadyClaimed, "%s on proposal %d", voter, proposalID)
		}
		reward = Share(r.Weight, p.RewardPool, p.TotalVotes)
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return reward, record, nil
}

// Preview returns what Claim would pay without marking anything.
func (d *RewardDistributor) Preview(proposalID uint64, voter common.Address) (uint64, error) {
	p, ok := d.store.Get(proposalID)
	if !ok {
		return 0, errors.Wrapf(ErrUnauthorized, "proposal %d does not exist", proposalID)
	}
	r, ok := d.votes.Get(proposalID, voter)
	if !ok {
		return 0, errors.Wrapf(ErrUnauthorized, "%s did not vote on proposal %d", voter, proposalID)
	}
	if p.Status == Active {
		return 0, errors.Wrapf(ErrProposalNotFinalized, "proposal %d", proposalID)
	}
	return Share(r.Weight, p.RewardPool, p.TotalVotes), nil
}

// Share is floor(weight * pool / total), computed without overflow. A zero
// total yields zero.
func Share(weight, pool, total uint64) uint64 {
	if total == 0 {
		return 0
	}
	share := new(uint256.Int).Mul(uint256.NewInt(weight), uint256.NewInt(pool))
	share.Div(share, uint256.NewInt(total))
	if !share.IsUint64() {
		// weight > total, which a consistent tally never produces
		return pool
	}
	return share.Uint64()
}
