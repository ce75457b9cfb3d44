package governance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalizeBeforeDeadline(t *testing.T) {
	env := newTestEnv()
	p := env.createProposal(t, 500)

	for _, height := range []uint64{startHeight, p.Deadline} {
		_, err := env.finalizer.Finalize(p.ID, height)
		assert.ErrorIs(t, err, ErrVotingNotClosed)
	}

	got, _ := env.store.Get(p.ID)
	assert.Equal(t, Active, got.Status)
}

func TestFinalizeOutcome(t *testing.T) {
	tests := []struct {
		name    string
		forW    uint64
		against uint64
		want    ProposalStatus
	}{
		{name: "majority for", forW: 100, against: 50, want: Passed},
		{name: "majority against", forW: 50, against: 100, want: Rejected},
		{name: "tie", forW: 75, against: 75, want: Rejected},
		{name: "no votes", want: Rejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			p := env.createProposal(t, 500)
			if tt.forW > 0 {
				_, err := env.votes.Vote(p.ID, alice, tt.forW, true, startHeight)
				require.Nil(t, err)
			}
			if tt.against > 0 {
				_, err := env.votes.Vote(p.ID, bob, tt.against, false, startHeight)
				require.Nil(t, err)
			}

			decided, err := env.finalizer.Finalize(p.ID, p.Deadline+1)
			require.Nil(t, err)
			assert.Equal(t, tt.want, decided.Status)
			assert.EqualValues(t, p.Deadline+1, decided.FinalizedAt)

			got, _ := env.store.Get(p.ID)
			assert.Equal(t, decided, got)
		})
	}
}

func TestFinalizeTwice(t *testing.T) {
	env := newTestEnv()
	p := env.createProposal(t, 500)
	_, err := env.votes.Vote(p.ID, alice, 10, true, startHeight)
	require.Nil(t, err)

	_, err = env.finalizer.Finalize(p.ID, p.Deadline+1)
	require.Nil(t, err)

	_, err = env.finalizer.Finalize(p.ID, p.Deadline+2)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)

	got, _ := env.store.Get(p.ID)
	assert.Equal(t, Passed, got.Status)
	assert.EqualValues(t, p.Deadline+1, got.FinalizedAt)
}

func TestFinalizeUnknown(t *testing.T) {
	env := newTestEnv()
	_, err := env.finalizer.Finalize(1, startHeight)
	assert.ErrorIs(t, err, ErrProposalNotFound)
}

func TestVoteAfterFinalize(t *testing.T) {
	env := newTestEnv()
	p := env.createProposal(t, 500)
	_, err := env.finalizer.Finalize(p.ID, p.Deadline+1)
	require.Nil(t, err)

	_, err = env.votes.Vote(p.ID, alice, 10, true, p.Deadline+1)
	assert.ErrorIs(t, err, ErrVotingClosed)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "active", Active.String())
	assert.Equal(t, "passed", Passed.String())
	assert.Equal(t, "rejected", Rejected.String())
	assert.False(t, Active.Terminal())
	assert.True(t, Rejected.Terminal())
}
