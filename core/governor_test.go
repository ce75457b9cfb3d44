package core

import (
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiomesh/stakegov/governance"
	"github.com/axiomesh/stakegov/ledger"
	"github.com/axiomesh/stakegov/repo"
)

const height uint64 = 1000

var (
	owner = common.HexToAddress(repo.DefaultOwnerAddr)
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func testConfig(t *testing.T) *repo.Config {
	c := repo.DefaultConfig(t.TempDir())
	c.Log.Level = "debug"
	return c
}

func newTestGovernor(t *testing.T, opts ...Option) *Governor {
	g, err := NewGovernor(testConfig(t), opts...)
	require.Nil(t, err)
	return g
}

func as(caller common.Address, h uint64) Call {
	return Call{Caller: caller, Height: h}
}

// fund mints amount to account and stakes it.
func fund(t *testing.T, g *Governor, account common.Address, amount uint64) {
	_, err := g.Mint(as(owner, height), account, amount)
	require.Nil(t, err)
	_, err = g.Stake(as(account, height), amount)
	require.Nil(t, err)
}

func TestMintStakeUnstake(t *testing.T) {
	g := newTestGovernor(t)

	minted, err := g.Mint(as(owner, height), owner, 100)
	require.Nil(t, err)
	assert.EqualValues(t, 100, minted)

	_, err = g.Stake(as(owner, height), 100)
	require.Nil(t, err)
	assert.EqualValues(t, 0, g.Balance(owner))
	assert.EqualValues(t, 100, g.StakedBalance(owner))

	_, err = g.Unstake(as(owner, height), 100)
	require.Nil(t, err)
	assert.EqualValues(t, 100, g.Balance(owner))
	assert.EqualValues(t, 0, g.StakedBalance(owner))

	burned, err := g.Burn(as(owner, height), 40)
	require.Nil(t, err)
	assert.EqualValues(t, 40, burned)
	assert.EqualValues(t, 60, g.TotalSupply())
}

func TestUnauthorizedMint(t *testing.T) {
	g := newTestGovernor(t)

	_, err := g.Mint(as(alice, height), bob, 100)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)
	assert.Equal(t, CodeUnauthorized, ErrorCode(err))
	assert.EqualValues(t, 0, g.TotalSupply())
}

func TestConfiguredMinter(t *testing.T) {
	c := testConfig(t)
	c.Token.Minters = []string{alice.Hex()}
	g, err := NewGovernor(c)
	require.Nil(t, err)

	_, err = g.Mint(as(alice, height), bob, 5)
	require.Nil(t, err)
	assert.EqualValues(t, 5, g.Balance(bob))

	_, err = g.ChangeOwner(as(alice, height), alice)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)
}

func TestChangeOwner(t *testing.T) {
	g := newTestGovernor(t)

	ok, err := g.ChangeOwner(as(alice, height), alice)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	ok, err = g.ChangeOwner(as(owner, height), alice)
	require.Nil(t, err)
	assert.True(t, ok)
	assert.Equal(t, alice, g.Owner())
}

func TestTokenInfo(t *testing.T) {
	g := newTestGovernor(t)
	info := g.TokenInfo()
	assert.Equal(t, "VotingToken", info.Name)
	assert.Equal(t, "VT", info.Symbol)
	assert.EqualValues(t, 6, info.Decimals)
	assert.Nil(t, info.URI)
}

func TestProposalLifecycle(t *testing.T) {
	g := newTestGovernor(t)
	fund(t, g, alice, 300)
	fund(t, g, bob, 100)

	_, err := g.CreateProposal(as(owner, height), "Invalid Proposal", height+100, 500)
	assert.ErrorIs(t, err, governance.ErrInvalidDeadline)

	id, err := g.CreateProposal(as(owner, height), "Test Proposal", height+2000, 1000)
	require.Nil(t, err)
	assert.EqualValues(t, 1, id)

	p := g.GetProposal(id)
	require.NotNil(t, p)
	assert.Equal(t, owner, p.Creator)
	assert.Equal(t, "Test Proposal", p.Description)
	assert.Equal(t, governance.Active, p.Status)
	assert.EqualValues(t, 1000, p.RewardPool)
	assert.Nil(t, g.GetProposal(2))

	require.Nil(t, g.VoteOnProposal(as(alice, height+1), id, 300, true))
	err = g.VoteOnProposal(as(alice, height+1), id, 50, false)
	assert.ErrorIs(t, err, governance.ErrAlreadyVoted)
	err = g.VoteOnProposal(as(bob, height+1), id, 101, false)
	assert.ErrorIs(t, err, ledger.ErrInsufficientStake)
	require.Nil(t, g.VoteOnProposal(as(bob, height+2), id, 100, false))

	_, err = g.ClaimReward(as(alice, height+3), id)
	assert.ErrorIs(t, err, governance.ErrProposalNotFinalized)

	err = g.FinalizeVote(as(owner, height+2000), id)
	assert.ErrorIs(t, err, governance.ErrVotingNotClosed)
	require.Nil(t, g.FinalizeVote(as(owner, height+2001), id))
	err = g.FinalizeVote(as(owner, height+2002), id)
	assert.ErrorIs(t, err, governance.ErrAlreadyFinalized)

	p = g.GetProposal(id)
	assert.Equal(t, governance.Passed, p.Status)
	assert.EqualValues(t, 400, p.TotalVotes)
	assert.EqualValues(t, 300, p.ForVotes)
	assert.EqualValues(t, 100, p.AgainstVotes)

	preview, err := g.PreviewReward(id, bob)
	require.Nil(t, err)
	assert.EqualValues(t, 250, preview)

	reward, err := g.ClaimReward(as(alice, height+2002), id)
	require.Nil(t, err)
	assert.EqualValues(t, 750, reward)
	reward, err = g.ClaimReward(as(bob, height+2002), id)
	require.Nil(t, err)
	assert.EqualValues(t, 250, reward)

	_, err = g.ClaimReward(as(bob, height+2002), id)
	assert.ErrorIs(t, err, governance.ErrAlreadyClaimed)
	_, err = g.ClaimReward(as(owner, height+2002), id)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	assert.True(t, g.GetVote(id, alice).Claimed)
	assert.Nil(t, g.GetVote(id, owner))
	assert.Len(t, g.Votes(id), 2)
}

func TestStaleHeight(t *testing.T) {
	g := newTestGovernor(t)

	_, err := g.Mint(as(owner, height), owner, 10)
	require.Nil(t, err)
	assert.EqualValues(t, height, g.Height())

	_, err = g.Mint(as(owner, height-1), owner, 10)
	assert.ErrorIs(t, err, ErrStaleHeight)
	assert.Equal(t, CodeStaleHeight, ErrorCode(err))
	assert.EqualValues(t, 10, g.TotalSupply())

	// rejected calls do not advance the height
	_, err = g.Burn(as(owner, height+5), 100)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	assert.EqualValues(t, height, g.Height())

	_, err = g.Mint(as(owner, height), owner, 10)
	assert.Nil(t, err)
}

func TestEvents(t *testing.T) {
	g := newTestGovernor(t)
	ch := make(chan Event, 16)
	sub := g.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	fund(t, g, alice, 50)
	id, err := g.CreateProposal(as(alice, height), "events", height+1440, 10)
	require.Nil(t, err)
	require.Nil(t, g.VoteOnProposal(as(alice, height), id, 50, true))

	// rejected operations emit nothing
	_, err = g.Mint(as(alice, height), alice, 1)
	require.NotNil(t, err)

	var got []Event
	for len(got) < 4 {
		select {
		case ev := <-ch:
			got = append(got, ev)
		case <-time.After(time.Second):
			t.Fatalf("expected 4 events, got %d", len(got))
		}
	}
	assert.Equal(t, TopicMinted, got[0].Topic)
	assert.Equal(t, alice, got[0].Account)
	assert.Equal(t, TopicStaked, got[1].Topic)
	assert.Equal(t, TopicProposalCreated, got[2].Topic)
	assert.Equal(t, id, got[2].ProposalID)
	assert.Equal(t, TopicVoted, got[3].Topic)
	assert.EqualValues(t, 50, got[3].Amount)
	assert.True(t, got[3].VoteFor)
	assert.Len(t, ch, 0)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := newTestGovernor(t, WithRegisterer(reg))

	fund(t, g, alice, 10)
	_, err := g.Mint(as(alice, height), alice, 1)
	require.NotNil(t, err)
	id, err := g.CreateProposal(as(alice, height), "m", height+1440, 0)
	require.Nil(t, err)
	require.Nil(t, g.FinalizeVote(as(alice, height+1441), id))

	assert.EqualValues(t, 1, testutil.ToFloat64(g.metrics.operations.WithLabelValues("mint", resultAccepted)))
	assert.EqualValues(t, 1, testutil.ToFloat64(g.metrics.operations.WithLabelValues("mint", CodeUnauthorized)))
	assert.EqualValues(t, 10, testutil.ToFloat64(g.metrics.totalSupply))
	assert.EqualValues(t, height+1441, testutil.ToFloat64(g.metrics.height))
	assert.EqualValues(t, 0, testutil.ToFloat64(g.metrics.proposals.WithLabelValues("active")))
	assert.EqualValues(t, 1, testutil.ToFloat64(g.metrics.proposals.WithLabelValues("rejected")))

	n, err := testutil.GatherAndCount(reg, "stakegov_operations_total")
	require.Nil(t, err)
	assert.Greater(t, n, 0)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, CodeProposalNotFound, ErrorCode(governance.ErrProposalNotFound))
	assert.Equal(t, CodeVotingClosed, ErrorCode(governance.ErrVotingClosed))
	assert.Equal(t, CodeVotingNotClosed, ErrorCode(governance.ErrVotingNotClosed))
	assert.Equal(t, CodeInsufficientStake, ErrorCode(governance.ErrInsufficientStake))
	assert.Equal(t, CodeInternal, ErrorCode(assert.AnError))
	assert.Equal(t, CodeInternal, ErrorCode(ErrGovernorFailed))
}

func TestFinalizeEarlyCode(t *testing.T) {
	g := newTestGovernor(t)
	id, err := g.CreateProposal(as(alice, height), "early", height+1440, 0)
	require.Nil(t, err)

	err = g.FinalizeVote(as(alice, height+1440), id)
	assert.Equal(t, CodeVotingNotClosed, ErrorCode(err))

	err = g.VoteOnProposal(as(alice, height+1441), id, 1, true)
	assert.Equal(t, CodeVotingClosed, ErrorCode(err))
}

func TestEventOrderUnderConcurrency(t *testing.T) {
	g := newTestGovernor(t)
	const n = 32

	events := make(chan Event, n)
	sub := g.SubscribeEvents(events)
	defer sub.Unsubscribe()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.CreateProposal(as(alice, height), "concurrent", height+1440, 0)
			assert.Nil(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, events, n)
	for i := uint64(1); i <= n; i++ {
		ev := <-events
		assert.Equal(t, i, ev.ProposalID)
	}
}
