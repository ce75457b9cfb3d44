package governance

import (
	"bytes"
	"math/bits"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

type voteKey struct {
	proposalID uint64
	voter      common.Address
}

// VoteBook records at most one vote per (proposal, voter) and accumulates the
// vote weight onto the proposal tallies.
type VoteBook struct {
	mu     sync.RWMutex
	store  *ProposalStore
	stakes StakeReader
	votes  map[voteKey]*VoteRecord
}

func NewVoteBook(store *ProposalStore, stakes StakeReader) *VoteBook {
	return &VoteBook{
		store:  store,
		stakes: stakes,
		votes:  make(map[voteKey]*VoteRecord),
	}
}

// RestoreVoteBook rebuilds a vote book from persisted records. Each record must
// point at an existing proposal.
func RestoreVoteBook(store *ProposalStore, stakes StakeReader, records []*VoteRecord) (*VoteBook, error) {
	b := NewVoteBook(store, stakes)
	for _, r := range records {
		if _, ok := store.Get(r.ProposalID); !ok {
			return nil, errors.Wrapf(ErrProposalNotFound, "vote of %s on proposal %d", r.Voter, r.ProposalID)
		}
		key := voteKey{proposalID: r.ProposalID, voter: r.Voter}
		if _, ok := b.votes[key]; ok {
			return nil, errors.Wrapf(ErrAlreadyVoted, "duplicate vote of %s on proposal %d", r.Voter, r.ProposalID)
		}
		cp := *r
		b.votes[key] = &cp
	}
	return b, nil
}

// Vote casts weight for or against a proposal. weight is bounded by the
// voter's staked balance at the time of the vote.
func (b *VoteBook) Vote(proposalID uint64, voter common.Address, weight uint64, voteFor bool, currentHeight uint64) (*VoteRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := voteKey{proposalID: proposalID, voter: voter}
	record := &VoteRecord{
		ProposalID: proposalID,
		Voter:      voter,
		Weight:     weight,
		VoteFor:    voteFor,
	}

	err := b.store.update(proposalID, func(p *Proposal) error {
		if currentHeight > p.Deadline {
			return errors.Wrapf(ErrVotingClosed, "height %d is past deadline %d", currentHeight, p.Deadline)
		}
		if p.Status != Active {
			return errors.Wrapf(ErrVotingClosed, "proposal %d is %s", proposalID, p.Status)
		}
		if _, ok := b.votes[key]; ok {
			return errors.Wrapf(ErrAlreadyVoted, "%s on proposal %d", voter, proposalID)
		}
		if weight == 0 {
			return errors.Wrap(ErrInvalidAmount, "vote weight must be positive")
		}
		if staked := b.stakes.StakedBalance(voter); weight > staked {
			return errors.Wrapf(ErrInsufficientStake, "weight %d exceeds stake %d", weight, staked)
		}

		total, carry := bits.Add64(p.TotalVotes, weight, 0)
		if carry != 0 {
			return errors.Wrapf(ErrInvalidAmount, "weight %d overflows proposal %d tally", weight, proposalID)
		}

		p.TotalVotes = total
		if voteFor {
			p.ForVotes += weight
		} else {
			p.AgainstVotes += weight
		}
		b.votes[key] = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	cp := *record
	return &cp, nil
}

// Get returns a copy of the vote of voter on the proposal.
func (b *VoteBook) Get(proposalID uint64, voter common.Address) (*VoteRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	r, ok := b.votes[voteKey{proposalID: proposalID, voter: voter}]
	if !ok {
		return nil, false
	}
	cp := *r
	return &cp, true
}

// Votes returns copies of every vote cast on the proposal ordered by voter.
func (b *VoteBook) Votes(proposalID uint64) []*VoteRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var list []*VoteRecord
	for key, r := range b.votes {
		if key.proposalID == proposalID {
			cp := *r
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return bytes.Compare(list[i].Voter.Bytes(), list[j].Voter.Bytes()) < 0
	})
	return list
}

// All returns copies of every vote ordered by proposal then voter.
func (b *VoteBook) All() []*VoteRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()

	list := make([]*VoteRecord, 0, len(b.votes))
	for _, r := range b.votes {
		cp := *r
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].ProposalID != list[j].ProposalID {
			return list[i].ProposalID < list[j].ProposalID
		}
		return bytes.Compare(list[i].Voter.Bytes(), list[j].Voter.Bytes()) < 0
	})
	return list
}

// markClaimed flips the claimed flag after check returns nil. check sees the
// live record and must not mutate it.
func (b *VoteBook) markClaimed(proposalID uint64, voter common.Address, check func(r *VoteRecord) error) (*VoteRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.votes[voteKey{proposalID: proposalID, voter: voter}]
	if !ok {
		return nil, errors.Wrapf(ErrUnauthorized, "%s did not vote on proposal %d", voter, proposalID)
	}
	if err := check(r); err != nil {
		return nil, err
	}
	r.Claimed = true
	cp := *r
	return &cp, nil
}
