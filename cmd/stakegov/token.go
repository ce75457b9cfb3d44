package main

import (
	"github.com/urfave/cli/v2"

	"github.com/axiomesh/stakegov/core"
)

var amountFlag = &cli.Uint64Flag{
	Name:     "amount",
	Usage:    "Token amount",
	Required: true,
}

var tokenCMD = &cli.Command{
	Name:  "token",
	Usage: "The token ledger commands",
	Subcommands: []*cli.Command{
		{
			Name:   "info",
			Usage:  "Show token metadata, owner and total supply",
			Action: query(tokenInfo),
		},
		{
			Name:  "balance",
			Usage: "Show available and staked balance of an account",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "account", Usage: "Account address", Required: true},
			},
			Action: query(balance),
		},
		{
			Name:  "mint",
			Usage: "Mint new tokens to a recipient",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "to", Usage: "Recipient address", Required: true},
				amountFlag,
			},
			Action: mutation(mint),
		},
		{
			Name:   "burn",
			Usage:  "Burn tokens from the caller's available balance",
			Flags:  []cli.Flag{amountFlag},
			Action: mutation(burn),
		},
		{
			Name:   "stake",
			Usage:  "Move tokens from the caller's available balance to staked",
			Flags:  []cli.Flag{amountFlag},
			Action: mutation(stake),
		},
		{
			Name:   "unstake",
			Usage:  "Move tokens from the caller's staked balance back to available",
			Flags:  []cli.Flag{amountFlag},
			Action: mutation(unstake),
		},
		{
			Name:  "change-owner",
			Usage: "Transfer token ownership",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "new-owner", Usage: "New owner address", Required: true},
			},
			Action: mutation(changeOwner),
		},
	},
}

type tokenView struct {
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Decimals    uint8   `json:"decimals"`
	URI         *string `json:"uri"`
	Owner       string  `json:"owner"`
	TotalSupply uint64  `json:"total_supply"`
}

func tokenInfo(ctx *cli.Context, g *core.Governor) (any, error) {
	info := g.TokenInfo()
	return &tokenView{
		Name:        info.Name,
		Symbol:      info.Symbol,
		Decimals:    info.Decimals,
		URI:         info.URI,
		Owner:       g.Owner().Hex(),
		TotalSupply: g.TotalSupply(),
	}, nil
}

type balanceView struct {
	Account   string `json:"account"`
	Available uint64 `json:"available"`
	Staked    uint64 `json:"staked"`
}

func balance(ctx *cli.Context, g *core.Governor) (any, error) {
	account, err := parseAddress(ctx.String("account"))
	if err != nil {
		return nil, err
	}
	return &balanceView{
		Account:   account.Hex(),
		Available: g.Balance(account),
		Staked:    g.StakedBalance(account),
	}, nil
}

func mint(ctx *cli.Context, g *core.Governor, call core.Call) error {
	to, err := parseAddress(ctx.String("to"))
	if err != nil {
		return err
	}
	_, err = g.Mint(call, to, ctx.Uint64("amount"))
	return err
}

func burn(ctx *cli.Context, g *core.Governor, call core.Call) error {
	_, err := g.Burn(call, ctx.Uint64("amount"))
	return err
}

func stake(ctx *cli.Context, g *core.Governor, call core.Call) error {
	_, err := g.Stake(call, ctx.Uint64("amount"))
	return err
}

func unstake(ctx *cli.Context, g *core.Governor, call core.Call) error {
	_, err := g.Unstake(call, ctx.Uint64("amount"))
	return err
}

func changeOwner(ctx *cli.Context, g *core.Governor, call core.Call) error {
	newOwner, err := parseAddress(ctx.String("new-owner"))
	if err != nil {
		return err
	}
	_, err = g.ChangeOwner(call, newOwner)
	return err
}
