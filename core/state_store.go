package core

import (
	"encoding/binary"

	"github.com/axiomesh/axiom-kit/storage"
	"github.com/ethereum/go-ethereum/common"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/axiomesh/stakegov/governance"
	"github.com/axiomesh/stakegov/ledger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ownerKey          = []byte("meta/owner")
	supplyKey         = []byte("meta/supply")
	heightKey         = []byte("meta/height")
	nextProposalIDKey = []byte("meta/next_proposal_id")
	accountIndexKey   = []byte("meta/accounts")

	accountPrefix  = []byte("acct/")
	proposalPrefix = []byte("prop/")
	votePrefix     = []byte("vote/")
	voterIdxPrefix = []byte("voters/")
)

func accountKey(addr common.Address) []byte {
	return append(append([]byte{}, accountPrefix...), addr.Bytes()...)
}

func proposalKey(id uint64) []byte {
	return binary.BigEndian.AppendUint64(append([]byte{}, proposalPrefix...), id)
}

func voteKey(id uint64, voter common.Address) []byte {
	key := binary.BigEndian.AppendUint64(append([]byte{}, votePrefix...), id)
	return append(key, voter.Bytes()...)
}

func voterIndexKey(id uint64) []byte {
	return binary.BigEndian.AppendUint64(append([]byte{}, voterIdxPrefix...), id)
}

func encodeUint64(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

func decodeUint64(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, errors.Errorf("expected 8 bytes, got %d", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// persistedState is everything needed to rebuild a Governor.
type persistedState struct {
	ledger         *ledger.Snapshot
	nextProposalID uint64
	proposals      []*governance.Proposal
	votes          []*governance.VoteRecord
	height         uint64
}

// writeSet lists the entities an operation touched.
type writeSet struct {
	accounts  []common.Address
	proposals []uint64
	votes     []*governance.VoteRecord
}

// StateStore persists the ledger and governance state in an axiom-kit storage.
// Every operation is written through one batch.
type StateStore struct {
	db             storage.Storage
	indexedAccount int
	voters         map[uint64][]common.Address
}

func NewStateStore(db storage.Storage) *StateStore {
	return &StateStore{
		db:     db,
		voters: make(map[uint64][]common.Address),
	}
}

func (s *StateStore) Close() error {
	return s.db.Close()
}

// load returns nil when the storage holds no state yet.
func (s *StateStore) load() (*persistedState, error) {
	if !s.db.Has(ownerKey) {
		return nil, nil
	}

	st := &persistedState{ledger: &ledger.Snapshot{}}
	st.ledger.Owner = common.BytesToAddress(s.db.Get(ownerKey))

	var err error
	if st.ledger.TotalSupply, err = decodeUint64(s.db.Get(supplyKey)); err != nil {
		return nil, errors.Wrap(err, "decode total supply")
	}
	if st.height, err = decodeUint64(s.db.Get(heightKey)); err != nil {
		return nil, errors.Wrap(err, "decode height")
	}
	if st.nextProposalID, err = decodeUint64(s.db.Get(nextProposalIDKey)); err != nil {
		return nil, errors.Wrap(err, "decode next proposal id")
	}

	var addrs []common.Address
	if data := s.db.Get(accountIndexKey); data != nil {
		if err := json.Unmarshal(data, &addrs); err != nil {
			return nil, errors.Wrap(err, "decode account index")
		}
	}
	s.indexedAccount = len(addrs)
	for _, addr := range addrs {
		var acc ledger.Account
		if err := s.getJSON(accountKey(addr), &acc); err != nil {
			return nil, errors.Wrapf(err, "load account %s", addr)
		}
		st.ledger.Accounts = append(st.ledger.Accounts, acc)
	}

	for id := uint64(1); id < st.nextProposalID; id++ {
		p := &governance.Proposal{}
		if err := s.getJSON(proposalKey(id), p); err != nil {
			return nil, errors.Wrapf(err, "load proposal %d", id)
		}
		st.proposals = append(st.proposals, p)

		var voters []common.Address
		if data := s.db.Get(voterIndexKey(id)); data != nil {
			if err := json.Unmarshal(data, &voters); err != nil {
				return nil, errors.Wrapf(err, "decode voters of proposal %d", id)
			}
		}
		s.voters[id] = voters
		for _, voter := range voters {
			r := &governance.VoteRecord{}
			if err := s.getJSON(voteKey(id, voter), r); err != nil {
				return nil, errors.Wrapf(err, "load vote of %s on proposal %d", voter, id)
			}
			st.votes = append(st.votes, r)
		}
	}

	return st, nil
}

// commit writes the touched entities together with the metadata in one batch.
func (s *StateStore) commit(l *ledger.Ledger, proposals *governance.ProposalStore, height uint64, ws *writeSet) error {
	batch := s.db.NewBatch()

	batch.Put(ownerKey, l.Owner().Bytes())
	batch.Put(supplyKey, encodeUint64(l.TotalSupply()))
	batch.Put(heightKey, encodeUint64(height))
	batch.Put(nextProposalIDKey, encodeUint64(proposals.NextID()))

	for _, addr := range ws.accounts {
		data, err := json.Marshal(l.Account(addr))
		if err != nil {
			return errors.Wrapf(err, "encode account %s", addr)
		}
		batch.Put(accountKey(addr), data)
	}
	indexed := s.indexedAccount
	if addrs := l.Accounts(); len(addrs) != indexed {
		data, err := json.Marshal(addrs)
		if err != nil {
			return errors.Wrap(err, "encode account index")
		}
		batch.Put(accountIndexKey, data)
		indexed = len(addrs)
	}

	for _, id := range ws.proposals {
		p, ok := proposals.Get(id)
		if !ok {
			return errors.Wrapf(governance.ErrProposalNotFound, "persist proposal %d", id)
		}
		data, err := json.Marshal(p)
		if err != nil {
			return errors.Wrapf(err, "encode proposal %d", id)
		}
		batch.Put(proposalKey(id), data)
	}

	voters := make(map[uint64][]common.Address)
	for _, r := range ws.votes {
		data, err := json.Marshal(r)
		if err != nil {
			return errors.Wrapf(err, "encode vote of %s", r.Voter)
		}
		batch.Put(voteKey(r.ProposalID, r.Voter), data)

		current, ok := voters[r.ProposalID]
		if !ok {
			current = s.voters[r.ProposalID]
		}
		if containsAddress(current, r.Voter) {
			continue
		}
		current = append(append([]common.Address{}, current...), r.Voter)
		idx, err := json.Marshal(current)
		if err != nil {
			return errors.Wrapf(err, "encode voters of proposal %d", r.ProposalID)
		}
		batch.Put(voterIndexKey(r.ProposalID), idx)
		voters[r.ProposalID] = current
	}

	if err := commitBatch(batch); err != nil {
		return err
	}

	s.indexedAccount = indexed
	for id, list := range voters {
		s.voters[id] = list
	}
	return nil
}

// commitBatch reports a write failure as an error. The leveldb batch panics
// instead of returning one.
func commitBatch(batch storage.Batch) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("commit batch: %v", r)
		}
	}()
	batch.Commit()
	return nil
}

func containsAddress(list []common.Address, addr common.Address) bool {
	for _, a := range list {
		if a == addr {
			return true
		}
	}
	return false
}

func (s *StateStore) getJSON(key []byte, v any) error {
	data := s.db.Get(key)
	if data == nil {
		return errors.Errorf("missing key %q", key)
	}
	return json.Unmarshal(data, v)
}
