package repo

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/axiomesh/stakegov/governance"
	"github.com/axiomesh/stakegov/ledger"
)

type Config struct {
	RepoRoot   string     `mapstructure:"-" toml:"-"`
	Log        Log        `mapstructure:"log" toml:"log"`
	Token      Token      `mapstructure:"token" toml:"token"`
	Governance Governance `mapstructure:"governance" toml:"governance"`
	Storage    Storage    `mapstructure:"storage" toml:"storage"`
}

type Log struct {
	Level        string        `mapstructure:"level" toml:"level"`
	Filename     string        `mapstructure:"filename" toml:"filename"`
	ReportCaller bool          `mapstructure:"report_caller" toml:"report_caller"`
	MaxAge       time.Duration `mapstructure:"max_age" toml:"max_age"`
	RotationTime time.Duration `mapstructure:"rotation_time" toml:"rotation_time"`
}

type Token struct {
	Name     string `mapstructure:"name" toml:"name"`
	Symbol   string `mapstructure:"symbol" toml:"symbol"`
	Decimals uint8  `mapstructure:"decimals" toml:"decimals"`
	// empty means the token has no URI
	URI string `mapstructure:"uri" toml:"uri"`

	// Owner is the genesis owner, only used when the state is created
	Owner string `mapstructure:"owner" toml:"owner"`
	// Minters may mint besides the owner
	Minters []string `mapstructure:"minters" toml:"minters"`
}

type Governance struct {
	// MinProposalDuration is the minimum number of heights between proposal creation and its deadline
	MinProposalDuration uint64 `mapstructure:"min_proposal_duration" toml:"min_proposal_duration"`
}

type Storage struct {
	Dir          string        `mapstructure:"dir" toml:"dir"`
	OpenAttempts uint          `mapstructure:"open_attempts" toml:"open_attempts"`
	OpenBackoff  time.Duration `mapstructure:"open_backoff" toml:"open_backoff"`
}

func DefaultConfig(repoRoot string) *Config {
	return &Config{
		RepoRoot: repoRoot,
		Log: Log{
			Level:        "info",
			Filename:     "stakegov.log",
			ReportCaller: false,
			MaxAge:       30 * 24 * time.Hour,
			RotationTime: 24 * time.Hour,
		},
		Token: Token{
			Name:     ledger.DefaultName,
			Symbol:   ledger.DefaultSymbol,
			Decimals: ledger.DefaultDecimals,
			Owner:    DefaultOwnerAddr,
			Minters:  []string{},
		},
		Governance: Governance{
			MinProposalDuration: governance.DefaultMinProposalDuration,
		},
		Storage: Storage{
			Dir:          "state",
			OpenAttempts: 5,
			OpenBackoff:  200 * time.Millisecond,
		},
	}
}

func (c *Config) Validate() error {
	if !common.IsHexAddress(c.Token.Owner) {
		return errors.Errorf("token.owner %q is not a hex address", c.Token.Owner)
	}
	for _, m := range c.Token.Minters {
		if !common.IsHexAddress(m) {
			return errors.Errorf("token.minters entry %q is not a hex address", m)
		}
	}
	if c.Token.Symbol == "" {
		return errors.New("token.symbol is empty")
	}
	if c.Storage.Dir == "" {
		return errors.New("storage.dir is empty")
	}
	return nil
}

// TokenInfo converts the token section into ledger metadata.
func (c *Config) TokenInfo() ledger.TokenInfo {
	info := ledger.TokenInfo{
		Name:     c.Token.Name,
		Symbol:   c.Token.Symbol,
		Decimals: c.Token.Decimals,
	}
	if c.Token.URI != "" {
		uri := c.Token.URI
		info.URI = &uri
	}
	return info
}

func (c *Config) OwnerAddress() common.Address {
	return common.HexToAddress(c.Token.Owner)
}

func (c *Config) MinterAddresses() []common.Address {
	addrs := make([]common.Address, 0, len(c.Token.Minters))
	for _, m := range c.Token.Minters {
		addrs = append(addrs, common.HexToAddress(m))
	}
	return addrs
}
