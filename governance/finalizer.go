package governance

import (
	"github.com/pkg/errors"
)

// Finalizer freezes the outcome of proposals whose voting window has ended.
type Finalizer struct {
	store *ProposalStore
}

func NewFinalizer(store *ProposalStore) *Finalizer {
	return &Finalizer{store: store}
}

// Finalize moves an active proposal to Passed when for-weight strictly exceeds
// against-weight and to Rejected otherwise, ties included. currentHeight must
// be past the deadline.
func (f *Finalizer) Finalize(proposalID uint64, currentHeight uint64) (*Proposal, error) {
	var decided Proposal
	err := f.store.update(proposalID, func(p *Proposal) error {
		if p.Status.Terminal() {
			return errors.Wrapf(ErrAlreadyFinalized, "proposal %d is %s", proposalID, p.Status)
		}
		if currentHeight <= p.Deadline {
			return errors.Wrapf(ErrVotingNotClosed, "height %d, deadline %d", currentHeight, p.Deadline)
		}

		p.Status = Decide(p.ForVotes, p.AgainstVotes)
		p.FinalizedAt = currentHeight
		decided = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &decided, nil
}

// Decide is the majority-by-weight rule.
func Decide(forVotes, againstVotes uint64) ProposalStatus {
	if forVotes > againstVotes {
		return Passed
	}
	return Rejected
}
