// Package ledger implements the single-asset token ledger: per-account
// available and staked balances, the total supply and the owner that mints.
//
// All operations validate before they mutate, so a failed call leaves the
// ledger untouched.
package ledger
