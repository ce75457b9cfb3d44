package governance

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// ProposalStore owns every proposal and allocates their ids.
type ProposalStore struct {
	mu          sync.RWMutex
	minDuration uint64
	nextID      uint64
	proposals   map[uint64]*Proposal
}

func NewProposalStore(minDuration uint64) *ProposalStore {
	return &ProposalStore{
		minDuration: minDuration,
		nextID:      1,
		proposals:   make(map[uint64]*Proposal),
	}
}

// RestoreProposalStore rebuilds a store from persisted proposals. nextID must
// be greater than every restored id.
func RestoreProposalStore(minDuration uint64, nextID uint64, proposals []*Proposal) (*ProposalStore, error) {
	s := NewProposalStore(minDuration)
	if nextID == 0 {
		nextID = 1
	}
	s.nextID = nextID
	for _, p := range proposals {
		if p.ID == 0 || p.ID >= nextID {
			return nil, errors.Errorf("proposal id %d out of range [1, %d)", p.ID, nextID)
		}
		if p.TotalVotes != p.ForVotes+p.AgainstVotes {
			return nil, errors.Errorf("proposal %d tally mismatch", p.ID)
		}
		cp := *p
		s.proposals[p.ID] = &cp
	}
	return s, nil
}

func (s *ProposalStore) MinDuration() uint64 {
	return s.minDuration
}

// Create stores a new active proposal and returns its id. The deadline has to
// leave at least minDuration heights of voting after currentHeight.
func (s *ProposalStore) Create(creator common.Address, description string, deadline, rewardAmount, currentHeight uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if deadline < currentHeight || deadline-currentHeight < s.minDuration {
		return 0, errors.Wrapf(ErrInvalidDeadline, "deadline %d must be at least %d after height %d", deadline, s.minDuration, currentHeight)
	}

	id := s.nextID
	s.nextID++
	s.proposals[id] = &Proposal{
		ID:          id,
		Creator:     creator,
		Description: description,
		Deadline:    deadline,
		RewardPool:  rewardAmount,
		Status:      Active,
		CreatedAt:   currentHeight,
	}

	return id, nil
}

// Get returns a copy of the proposal.
func (s *ProposalStore) Get(id uint64) (*Proposal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.proposals[id]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

func (s *ProposalStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.proposals)
}

func (s *ProposalStore) NextID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID
}

// List returns copies of all proposals in id order.
func (s *ProposalStore) List() []*Proposal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*Proposal, 0, len(s.proposals))
	for id := uint64(1); id < s.nextID; id++ {
		if p, ok := s.proposals[id]; ok {
			cp := *p
			list = append(list, &cp)
		}
	}
	return list
}

// update runs fn on the stored proposal under the write lock. fn must
// validate before mutating and return an error to leave it untouched.
func (s *ProposalStore) update(id uint64, fn func(p *Proposal) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[id]
	if !ok {
		return errors.Wrapf(ErrProposalNotFound, "proposal %d", id)
	}
	return fn(p)
}
