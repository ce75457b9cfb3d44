package ledger

import "github.com/ethereum/go-ethereum/common"

const (
	DefaultName     = "VotingToken"
	DefaultSymbol   = "VT"
	DefaultDecimals = 6
)

// TokenInfo is the static metadata of the ledger's single asset.
type TokenInfo struct {
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	Decimals uint8   `json:"decimals"`
	URI      *string `json:"uri"`
}

func DefaultTokenInfo() TokenInfo {
	return TokenInfo{
		Name:     DefaultName,
		Symbol:   DefaultSymbol,
		Decimals: DefaultDecimals,
	}
}

// Account holds the two balances of one identity.
// Available+Staked equals everything minted to it minus everything it burned.
type Account struct {
	Address   common.Address `json:"address"`
	Available uint64         `json:"available"`
	Staked    uint64         `json:"staked"`
}

// Snapshot is the full ledger state, used to persist and restore a Ledger.
type Snapshot struct {
	Owner       common.Address `json:"owner"`
	TotalSupply uint64         `json:"total_supply"`
	Accounts    []Account      `json:"accounts"`
}
