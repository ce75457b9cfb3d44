package governance

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const startHeight uint64 = 1000

var (
	creator = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	alice   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob     = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	carol   = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

type mockStakes map[common.Address]uint64

func (m mockStakes) StakedBalance(account common.Address) uint64 {
	return m[account]
}

type testEnv struct {
	store     *ProposalStore
	votes     *VoteBook
	finalizer *Finalizer
	rewards   *RewardDistributor
	stakes    mockStakes
}

func newTestEnv() *testEnv {
	stakes := mockStakes{alice: 1000, bob: 1000, carol: 1000}
	store := NewProposalStore(DefaultMinProposalDuration)
	votes := NewVoteBook(store, stakes)
	return &testEnv{
		store:     store,
		votes:     votes,
		finalizer: NewFinalizer(store),
		rewards:   NewRewardDistributor(store, votes),
		stakes:    stakes,
	}
}

func (e *testEnv) createProposal(t *testing.T, reward uint64) *Proposal {
	id, err := e.store.Create(creator, "Test Proposal", startHeight+2000, reward, startHeight)
	require.Nil(t, err)
	p, ok := e.store.Get(id)
	require.True(t, ok)
	return p
}
