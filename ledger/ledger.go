package ledger

import (
	"bytes"
	"math/bits"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

type balance struct {
	available uint64
	staked    uint64
}

// Ledger keeps the available and staked balance of every account together with
// the total supply and the owner.
type Ledger struct {
	mu          sync.RWMutex
	info        TokenInfo
	owner       common.Address
	auth        Authorizer
	totalSupply uint64
	balances    map[common.Address]*balance
}

// New creates an empty ledger. A nil auth falls back to OwnerOnly.
func New(info TokenInfo, owner common.Address, auth Authorizer) *Ledger {
	if auth == nil {
		auth = OwnerOnly{}
	}
	return &Ledger{
		info:     info,
		owner:    owner,
		auth:     auth,
		balances: make(map[common.Address]*balance),
	}
}

// Restore rebuilds a ledger from a snapshot and rejects snapshots whose
// total supply does not match the sum of all balances.
func Restore(info TokenInfo, snap *Snapshot, auth Authorizer) (*Ledger, error) {
	l := New(info, snap.Owner, auth)

	var sum uint64
	for _, acc := range snap.Accounts {
		if _, ok := l.balances[acc.Address]; ok {
			return nil, errors.Wrapf(ErrInvalidSnapshot, "duplicate account %s", acc.Address)
		}
		held, carry := bits.Add64(acc.Available, acc.Staked, 0)
		if carry != 0 {
			return nil, errors.Wrapf(ErrInvalidSnapshot, "account %s overflows", acc.Address)
		}
		sum, carry = bits.Add64(sum, held, 0)
		if carry != 0 {
			return nil, errors.Wrap(ErrInvalidSnapshot, "supply overflows")
		}
		l.balances[acc.Address] = &balance{available: acc.Available, staked: acc.Staked}
	}
	if sum != snap.TotalSupply {
		return nil, errors.Wrapf(ErrInvalidSnapshot, "total supply %d, accounts hold %d", snap.TotalSupply, sum)
	}
	l.totalSupply = sum

	return l, nil
}

func (l *Ledger) Info() TokenInfo {
	return l.info
}

func (l *Ledger) Owner() common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.owner
}

func (l *Ledger) TotalSupply() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalSupply
}

// Balance returns the available (spendable) balance of account.
func (l *Ledger) Balance(account common.Address) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if b, ok := l.balances[account]; ok {
		return b.available
	}
	return 0
}

func (l *Ledger) StakedBalance(account common.Address) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if b, ok := l.balances[account]; ok {
		return b.staked
	}
	return 0
}

func (l *Ledger) Account(account common.Address) Account {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acc := Account{Address: account}
	if b, ok := l.balances[account]; ok {
		acc.Available = b.available
		acc.Staked = b.staked
	}
	return acc
}

// Accounts returns every account ever referenced, ordered by address.
func (l *Ledger) Accounts() []common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()

	addrs := make([]common.Address, 0, len(l.balances))
	for addr := range l.balances {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i].Bytes(), addrs[j].Bytes()) < 0
	})
	return addrs
}

func (l *Ledger) Snapshot() *Snapshot {
	addrs := l.Accounts()

	l.mu.RLock()
	defer l.mu.RUnlock()

	snap := &Snapshot{
		Owner:       l.owner,
		TotalSupply: l.totalSupply,
		Accounts:    make([]Account, 0, len(addrs)),
	}
	for _, addr := range addrs {
		b := l.balances[addr]
		snap.Accounts = append(snap.Accounts, Account{Address: addr, Available: b.available, Staked: b.staked})
	}
	return snap
}

// Mint credits amount to recipient's available balance. Only callers the
// Authorizer grants ActionMint may mint.
func (l *Ledger) Mint(caller, recipient common.Address, amount uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.auth.CanPerform(caller, l.owner, ActionMint) {
		return 0, errors.Wrapf(ErrUnauthorized, "%s cannot mint", caller)
	}
	if amount == 0 {
		return 0, errors.Wrap(ErrInvalidAmount, "mint amount must be positive")
	}
	supply, carry := bits.Add64(l.totalSupply, amount, 0)
	if carry != 0 {
		return 0, errors.Wrapf(ErrInvalidAmount, "minting %d overflows total supply %d", amount, l.totalSupply)
	}

	b := l.account(recipient)
	b.available += amount
	l.totalSupply = supply

	return amount, nil
}

// Burn destroys amount from caller's available balance.
func (l *Ledger) Burn(caller common.Address, amount uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount == 0 {
		return 0, errors.Wrap(ErrInvalidAmount, "burn amount must be positive")
	}
	if have := l.lookup(caller); have.available < amount {
		return 0, errors.Wrapf(ErrInsufficientBalance, "available %d, burn %d", have.available, amount)
	}
	b := l.account(caller)

	b.available -= amount
	l.totalSupply -= amount

	return amount, nil
}

// Stake moves amount from caller's available balance to its staked balance.
func (l *Ledger) Stake(caller common.Address, amount uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount == 0 {
		return 0, errors.Wrap(ErrInvalidAmount, "stake amount must be positive")
	}
	if have := l.lookup(caller); have.available < amount {
		return 0, errors.Wrapf(ErrInsufficientBalance, "available %d, stake %d", have.available, amount)
	}
	b := l.account(caller)

	b.available -= amount
	b.staked += amount

	return amount, nil
}

// Unstake moves amount from caller's staked balance back to available.
func (l *Ledger) Unstake(caller common.Address, amount uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount == 0 {
		return 0, errors.Wrap(ErrInvalidAmount, "unstake amount must be positive")
	}
	if have := l.lookup(caller); have.staked < amount {
		return 0, errors.Wrapf(ErrInsufficientStake, "staked %d, unstake %d", have.staked, amount)
	}
	b := l.account(caller)

	b.staked -= amount
	b.available += amount

	return amount, nil
}

// ChangeOwner hands ownership to newOwner. The check runs against the stored owner.
func (l *Ledger) ChangeOwner(caller, newOwner common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.auth.CanPerform(caller, l.owner, ActionChangeOwner) {
		return errors.Wrapf(ErrUnauthorized, "%s is not the owner", caller)
	}
	l.owner = newOwner
	return nil
}

func (l *Ledger) lookup(addr common.Address) balance {
	if b, ok := l.balances[addr]; ok {
		return *b
	}
	return balance{}
}

// account returns the balance entry, creating a zero one on first reference.
// Caller must hold l.mu for writing.
func (l *Ledger) account(addr common.Address) *balance {
	b, ok := l.balances[addr]
	if !ok {
		b = &balance{}
		l.balances[addr] = b
	}
	return b
}
