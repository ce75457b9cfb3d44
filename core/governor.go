package core

import (
	"sync"

	"github.com/axiomesh/axiom-kit/log"
	"github.com/axiomesh/axiom-kit/storage"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/axiomesh/stakegov/governance"
	"github.com/axiomesh/stakegov/ledger"
	"github.com/axiomesh/stakegov/repo"
)

// Call carries what the host supplies with every call: the authenticated
// caller and the current height.
type Call struct {
	Caller common.Address
	Height uint64
}

type Option func(*Governor)

// WithStorage persists every accepted operation into db and restores the
// state found there.
func WithStorage(db storage.Storage) Option {
	return func(g *Governor) {
		g.store = NewStateStore(db)
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(g *Governor) {
		g.logger = logger
	}
}

// WithRegisterer registers the governor metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(g *Governor) {
		g.registerer = reg
	}
}

// Governor is the call surface of the token ledger and the proposal engine.
// Operations are serialized: each one runs to completion, or fails without
// touching any state, before the next one starts.
type Governor struct {
	mu     sync.Mutex
	Config *repo.Config
	logger *logrus.Logger

	ledger    *ledger.Ledger
	proposals *governance.ProposalStore
	votes     *governance.VoteBook
	finalizer *governance.Finalizer
	rewards   *governance.RewardDistributor

	auth       ledger.Authorizer
	store      *StateStore
	registerer prometheus.Registerer
	metrics    *metrics
	feed       event.Feed

	// highest height accepted so far
	height uint64
	// set when the committed state could not be reloaded after a failed write
	failed error
}

func NewGovernor(config *repo.Config, opts ...Option) (*Governor, error) {
	g := &Governor{Config: config}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = log.New()
		g.logger.SetLevel(log.ParseLevel(config.Log.Level))
	}
	g.metrics = newMetrics(g.registerer)

	g.auth = newAuthorizer(config)

	var st *persistedState
	if g.store != nil {
		var err error
		if st, err = g.store.load(); err != nil {
			return nil, errors.Wrap(err, "load state")
		}
	}

	if st == nil {
		g.ledger = ledger.New(config.TokenInfo(), config.OwnerAddress(), g.auth)
		g.proposals = governance.NewProposalStore(config.Governance.MinProposalDuration)
		g.votes = governance.NewVoteBook(g.proposals, g.ledger)
		if g.store != nil {
			if err := g.store.commit(g.ledger, g.proposals, 0, &writeSet{}); err != nil {
				return nil, errors.Wrap(err, "write genesis state")
			}
		}
		g.logger.Infof("new state, owner %s", g.ledger.Owner())
	} else {
		if err := g.restore(st); err != nil {
			return nil, err
		}
		g.logger.Infof("restored state at height %d: %d accounts, %d proposals, %d votes",
			st.height, len(st.ledger.Accounts), len(st.proposals), len(st.votes))
	}

	g.finalizer = governance.NewFinalizer(g.proposals)
	g.rewards = governance.NewRewardDistributor(g.proposals, g.votes)
	g.syncGauges()

	return g, nil
}

func newAuthorizer(config *repo.Config) ledger.Authorizer {
	minters := config.MinterAddresses()
	if len(minters) == 0 {
		return ledger.OwnerOnly{}
	}
	auth := ledger.NewRoleAuthorizer()
	auth.Grant(ledger.ActionMint, minters...)
	return auth
}

func (g *Governor) restore(st *persistedState) error {
	var err error
	if g.ledger, err = ledger.Restore(g.Config.TokenInfo(), st.ledger, g.auth); err != nil {
		return errors.Wrap(err, "restore ledger")
	}
	if g.proposals, err = governance.RestoreProposalStore(g.Config.Governance.MinProposalDuration, st.nextProposalID, st.proposals); err != nil {
		return errors.Wrap(err, "restore proposals")
	}
	if g.votes, err = governance.RestoreVoteBook(g.proposals, g.ledger, st.votes); err != nil {
		return errors.Wrap(err, "restore votes")
	}
	g.height = st.height
	return nil
}

func (g *Governor) syncGauges() {
	g.metrics.totalSupply.Set(float64(g.ledger.TotalSupply()))
	g.metrics.height.Set(float64(g.height))
	g.metrics.proposals.Reset()
	for _, p := range g.proposals.List() {
		g.metrics.proposals.WithLabelValues(p.Status.String()).Inc()
	}
}

// Close releases the underlying storage.
func (g *Governor) Close() error {
	if g.store == nil {
		return nil
	}
	return g.store.Close()
}

// SubscribeEvents delivers every accepted operation's event to ch, in the
// order the operations were applied. Events are sent while the governor is
// locked, so ch has to be drained by a goroutine that does not call back into
// the governor first.
func (g *Governor) SubscribeEvents(ch chan<- Event) event.Subscription {
	return g.feed.Subscribe(ch)
}

type outcome struct {
	event  *Event
	writes *writeSet
}

// mutate runs fn as one serialized operation at call.Height.
func (g *Governor) mutate(op string, call Call, fields logrus.Fields, fn func() (*outcome, error)) error {
	err := g.apply(op, call, fn)

	g.metrics.observe(op, err)
	entry := g.logger.WithFields(fields).WithFields(logrus.Fields{
		"op":     op,
		"caller": call.Caller.Hex(),
		"height": call.Height,
	})
	if err != nil {
		entry.WithField("code", ErrorCode(err)).Debugf("rejected: %s", err)
		return err
	}
	entry.Info("accepted")
	return nil
}

// apply runs fn, persists what it touched and publishes its event. When the
// write fails the last committed state is reloaded, so a failed operation
// leaves nothing behind.
func (g *Governor) apply(op string, call Call, fn func() (*outcome, error)) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failed != nil {
		return errors.Wrap(ErrGovernorFailed, g.failed.Error())
	}
	if call.Height < g.height {
		return errors.Wrapf(ErrStaleHeight, "height %d is below %d", call.Height, g.height)
	}

	out, err := fn()
	if err != nil {
		return err
	}

	if g.store != nil {
		if err := g.store.commit(g.ledger, g.proposals, call.Height, out.writes); err != nil {
			g.logger.Errorf("persist %s at height %d: %s", op, call.Height, err)
			g.rollback()
			return errors.Wrapf(err, "persist %s", op)
		}
	}

	g.height = call.Height
	g.metrics.height.Set(float64(g.height))
	g.metrics.totalSupply.Set(float64(g.ledger.TotalSupply()))

	g.feed.Send(*out.event)
	return nil
}

// rollback replaces the in-memory state with the last committed one. If that
// cannot be read back the governor refuses every further operation.
func (g *Governor) rollback() {
	st, err := g.store.load()
	if err == nil && st == nil {
		err = errors.New("no committed state")
	}
	if err == nil {
		err = g.restore(st)
	}
	if err != nil {
		g.failed = err
		g.logger.Errorf("reload committed state: %s, refusing further operations", err)
		return
	}

	g.finalizer = governance.NewFinalizer(g.proposals)
	g.rewards = governance.NewRewardDistributor(g.proposals, g.votes)
	g.syncGauges()
	g.logger.Warnf("rolled back to committed state at height %d", g.height)
}

func (g *Governor) Mint(call Call, recipient common.Address, amount uint64) (uint64, error) {
	var minted uint64
	err := g.mutate("mint", call, logrus.Fields{"recipient": recipient.Hex(), "amount": amount}, func() (*outcome, error) {
		var err error
		if minted, err = g.ledger.Mint(call.Caller, recipient, amount); err != nil {
			return nil, err
		}
		ev := newEvent(TopicMinted, "Minted", call)
		ev.Account = recipient
		ev.Amount = minted
		return &outcome{event: ev, writes: &writeSet{accounts: []common.Address{recipient}}}, nil
	})
	if err != nil {
		return 0, err
	}
	return minted, nil
}

func (g *Governor) Burn(call Call, amount uint64) (uint64, error) {
	return g.selfBalanceOp("burn", TopicBurned, "Burned", call, amount, g.ledger.Burn)
}

func (g *Governor) Stake(call Call, amount uint64) (uint64, error) {
	return g.selfBalanceOp("stake", TopicStaked, "Staked", call, amount, g.ledger.Stake)
}

func (g *Governor) Unstake(call Call, amount uint64) (uint64, error) {
	return g.selfBalanceOp("unstake", TopicUnstaked, "Unstaked", call, amount, g.ledger.Unstake)
}

// selfBalanceOp runs a ledger operation on the caller's own account.
func (g *Governor) selfBalanceOp(op string, topic common.Hash, name string, call Call, amount uint64,
	fn func(caller common.Address, amount uint64) (uint64, error)) (uint64, error) {
	var moved uint64
	err := g.mutate(op, call, logrus.Fields{"amount": amount}, func() (*outcome, error) {
		var err error
		if moved, err = fn(call.Caller, amount); err != nil {
			return nil, err
		}
		ev := newEvent(topic, name, call)
		ev.Account = call.Caller
		ev.Amount = moved
		return &outcome{event: ev, writes: &writeSet{accounts: []common.Address{call.Caller}}}, nil
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}

func (g *Governor) ChangeOwner(call Call, newOwner common.Address) (bool, error) {
	err := g.mutate("change_owner", call, logrus.Fields{"new_owner": newOwner.Hex()}, func() (*outcome, error) {
		if err := g.ledger.ChangeOwner(call.Caller, newOwner); err != nil {
			return nil, err
		}
		ev := newEvent(TopicOwnerChanged, "OwnerChanged", call)
		ev.Account = newOwner
		return &outcome{event: ev, writes: &writeSet{}}, nil
	})
	return err == nil, err
}

// CreateProposal opens a proposal created by the caller. The reward pool is
// only recorded; moving the funds into custody is up to the host.
func (g *Governor) CreateProposal(call Call, description string, deadline, rewardAmount uint64) (uint64, error) {
	var id uint64
	fields := logrus.Fields{"deadline": deadline, "reward": rewardAmount}
	err := g.mutate("create_proposal", call, fields, func() (*outcome, error) {
		var err error
		if id, err = g.proposals.Create(call.Caller, description, deadline, rewardAmount, call.Height); err != nil {
			return nil, err
		}
		g.metrics.proposals.WithLabelValues(governance.Active.String()).Inc()

		ev := newEvent(TopicProposalCreated, "ProposalCreated", call)
		ev.ProposalID = id
		ev.Amount = rewardAmount
		ev.Status = governance.Active.String()
		return &outcome{event: ev, writes: &writeSet{proposals: []uint64{id}}}, nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// VoteOnProposal casts amount of the caller's staked weight on a proposal.
func (g *Governor) VoteOnProposal(call Call, proposalID, amount uint64, voteFor bool) error {
	fields := logrus.Fields{"proposal": proposalID, "amount": amount, "vote_for": voteFor}
	return g.mutate("vote", call, fields, func() (*outcome, error) {
		record, err := g.votes.Vote(proposalID, call.Caller, amount, voteFor, call.Height)
		if err != nil {
			return nil, err
		}
		ev := newEvent(TopicVoted, "Voted", call)
		ev.ProposalID = proposalID
		ev.Amount = record.Weight
		ev.VoteFor = record.VoteFor
		return &outcome{
			event:  ev,
			writes: &writeSet{proposals: []uint64{proposalID}, votes: []*governance.VoteRecord{record}},
		}, nil
	})
}

// FinalizeVote decides a proposal whose deadline has passed.
func (g *Governor) FinalizeVote(call Call, proposalID uint64) error {
	return g.mutate("finalize", call, logrus.Fields{"proposal": proposalID}, func() (*outcome, error) {
		decided, err := g.finalizer.Finalize(proposalID, call.Height)
		if err != nil {
			return nil, err
		}
		g.metrics.proposalStatus(governance.Active, decided.Status)

		ev := newEvent(TopicProposalFinalized, "ProposalFinalized", call)
		ev.ProposalID = proposalID
		ev.Status = decided.Status.String()
		return &outcome{event: ev, writes: &writeSet{proposals: []uint64{proposalID}}}, nil
	})
}

// ClaimReward returns the caller's share of a finalized proposal's reward pool.
// Each voter can claim once.
func (g *Governor) ClaimReward(call Call, proposalID uint64) (uint64, error) {
	var reward uint64
	err := g.mutate("claim_reward", call, logrus.Fields{"proposal": proposalID}, func() (*outcome, error) {
		var (
			record *governance.VoteRecord
			err    error
		)
		if reward, record, err = g.rewards.Claim(proposalID, call.Caller); err != nil {
			return nil, err
		}

		ev := newEvent(TopicRewardClaimed, "RewardClaimed", call)
		ev.ProposalID = proposalID
		ev.Account = call.Caller
		ev.Amount = reward
		return &outcome{event: ev, writes: &writeSet{votes: []*governance.VoteRecord{record}}}, nil
	})
	if err != nil {
		return 0, err
	}
	return reward, nil
}

func (g *Governor) TokenInfo() ledger.TokenInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ledger.Info()
}

func (g *Governor) Owner() common.Address {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ledger.Owner()
}

func (g *Governor) Balance(account common.Address) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ledger.Balance(account)
}

func (g *Governor) StakedBalance(account common.Address) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ledger.StakedBalance(account)
}

func (g *Governor) TotalSupply() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ledger.TotalSupply()
}

// GetProposal returns nil for an unknown id.
func (g *Governor) GetProposal(proposalID uint64) *governance.Proposal {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.proposals.Get(proposalID)
	if !ok {
		return nil
	}
	return p
}

// GetVote returns nil when voter did not vote on the proposal.
func (g *Governor) GetVote(proposalID uint64, voter common.Address) *governance.VoteRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.votes.Get(proposalID, voter)
	if !ok {
		return nil
	}
	return r
}

func (g *Governor) Votes(proposalID uint64) []*governance.VoteRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.votes.Votes(proposalID)
}

// PreviewReward computes what ClaimReward would pay voter without claiming.
func (g *Governor) PreviewReward(proposalID uint64, voter common.Address) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rewards.Preview(proposalID, voter)
}

// Height is the highest height accepted so far.
func (g *Governor) Height() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.height
}
