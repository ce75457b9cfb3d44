package ledger

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Action names a privileged ledger operation.
type Action string

const (
	ActionMint        Action = "mint"
	ActionChangeOwner Action = "change_owner"
)

// Authorizer decides whether caller may perform action on a ledger owned by owner.
type Authorizer interface {
	CanPerform(caller, owner common.Address, action Action) bool
}

var (
	_ Authorizer = OwnerOnly{}
	_ Authorizer = (*RoleAuthorizer)(nil)
)

// OwnerOnly grants every action to the current owner and nothing to anybody else.
type OwnerOnly struct{}

func (OwnerOnly) CanPerform(caller, owner common.Address, _ Action) bool {
	return caller == owner
}

// RoleAuthorizer grants every action to the owner plus explicitly granted
// actions to other accounts.
type RoleAuthorizer struct {
	mu     sync.RWMutex
	grants map[Action]map[common.Address]struct{}
}

func NewRoleAuthorizer() *RoleAuthorizer {
	return &RoleAuthorizer{
		grants: make(map[Action]map[common.Address]struct{}),
	}
}

func (r *RoleAuthorizer) Grant(action Action, accounts ...common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.grants[action]
	if !ok {
		set = make(map[common.Address]struct{})
		r.grants[action] = set
	}
	for _, account := range accounts {
		set[account] = struct{}{}
	}
}

func (r *RoleAuthorizer) Revoke(action Action, account common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.grants[action], account)
}

func (r *RoleAuthorizer) CanPerform(caller, owner common.Address, action Action) bool {
	if caller == owner {
		return true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.grants[action][caller]
	return ok
}
