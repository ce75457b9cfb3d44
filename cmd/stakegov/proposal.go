package main

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/axiomesh/stakegov/core"
	"github.com/axiomesh/stakegov/governance"
)

var proposalIDFlag = &cli.Uint64Flag{
	Name:     "id",
	Usage:    "Proposal id",
	Required: true,
}

var proposalCMD = &cli.Command{
	Name:  "proposal",
	Usage: "The proposal commands",
	Subcommands: []*cli.Command{
		{
			Name:  "create",
			Usage: "Create a proposal",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "description", Usage: "Proposal description", Required: true},
				&cli.Uint64Flag{Name: "deadline", Usage: "Last height at which votes are accepted", Required: true},
				&cli.Uint64Flag{Name: "reward", Usage: "Reward pool shared among voters"},
			},
			Action: mutation(createProposal),
		},
		{
			Name:  "vote",
			Usage: "Vote on a proposal with staked tokens",
			Flags: []cli.Flag{
				proposalIDFlag,
				amountFlag,
				&cli.BoolFlag{Name: "for", Usage: "Vote in favour, otherwise against"},
			},
			Action: mutation(vote),
		},
		{
			Name:   "finalize",
			Usage:  "Decide a proposal after its deadline",
			Flags:  []cli.Flag{proposalIDFlag},
			Action: mutation(finalize),
		},
		{
			Name:   "claim",
			Usage:  "Claim the caller's reward share of a finalized proposal",
			Flags:  []cli.Flag{proposalIDFlag},
			Action: mutation(claim),
		},
		{
			Name:   "get",
			Usage:  "Show a proposal",
			Flags:  []cli.Flag{proposalIDFlag},
			Action: query(getProposal),
		},
		{
			Name:   "votes",
			Usage:  "List the votes cast on a proposal",
			Flags:  []cli.Flag{proposalIDFlag},
			Action: query(listVotes),
		},
		{
			Name:  "preview",
			Usage: "Show the reward a voter would receive",
			Flags: []cli.Flag{
				proposalIDFlag,
				&cli.StringFlag{Name: "voter", Usage: "Voter address", Required: true},
			},
			Action: query(previewReward),
		},
	},
}

func createProposal(ctx *cli.Context, g *core.Governor, call core.Call) error {
	_, err := g.CreateProposal(call, ctx.String("description"), ctx.Uint64("deadline"), ctx.Uint64("reward"))
	return err
}

func vote(ctx *cli.Context, g *core.Governor, call core.Call) error {
	return g.VoteOnProposal(call, ctx.Uint64("id"), ctx.Uint64("amount"), ctx.Bool("for"))
}

func finalize(ctx *cli.Context, g *core.Governor, call core.Call) error {
	return g.FinalizeVote(call, ctx.Uint64("id"))
}

func claim(ctx *cli.Context, g *core.Governor, call core.Call) error {
	_, err := g.ClaimReward(call, ctx.Uint64("id"))
	return err
}

func getProposal(ctx *cli.Context, g *core.Governor) (any, error) {
	id := ctx.Uint64("id")
	p := g.GetProposal(id)
	if p == nil {
		return nil, errors.Wrapf(governance.ErrProposalNotFound, "proposal %d", id)
	}
	return p, nil
}

func listVotes(ctx *cli.Context, g *core.Governor) (any, error) {
	return g.Votes(ctx.Uint64("id")), nil
}

type rewardView struct {
	ProposalID uint64 `json:"proposal_id"`
	Voter      string `json:"voter"`
	Reward     uint64 `json:"reward"`
}

func previewReward(ctx *cli.Context, g *core.Governor) (any, error) {
	voter, err := parseAddress(ctx.String("voter"))
	if err != nil {
		return nil, err
	}
	id := ctx.Uint64("id")
	reward, err := g.PreviewReward(id, voter)
	if err != nil {
		return nil, err
	}
	return &rewardView{ProposalID: id, Voter: voter.Hex(), Reward: reward}, nil
}
