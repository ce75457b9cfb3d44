// Package governance implements stake-weighted proposals: the proposal store,
// the vote book, the finalizer and the reward distributor.
//
// Proposal lifecycle:
//
//	Active --(height > deadline, Finalize)--> Passed | Rejected
//
// Passed and Rejected are terminal. Votes are accepted while height <= deadline.
package governance
