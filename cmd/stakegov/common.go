package main

import (
	"fmt"
	"os"

	"github.com/axiomesh/axiom-kit/log"
	"github.com/ethereum/go-ethereum/common"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/axiomesh/stakegov"
	"github.com/axiomesh/stakegov/core"
	"github.com/axiomesh/stakegov/repo"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func printVersion() {
	fmt.Printf("stakegov version: %s-%s-%s\n", stakegov.CurrentVersion, stakegov.CurrentBranch, stakegov.CurrentCommit)
	fmt.Printf("App build date: %s\n", stakegov.BuildDate)
	fmt.Printf("System version: %s\n", stakegov.Platform)
	fmt.Printf("Golang version: %s\n", stakegov.GoVersion)
	fmt.Println()
}

func getRootPath(ctx *cli.Context) (string, error) {
	p := ctx.String("repo")

	var err error
	if p == "" {
		p, err = repo.LoadRepoRootFromEnv(p)
		if err != nil {
			return "", err
		}
	}
	return p, nil
}

// openGovernor loads the repo, sets up file logging and opens the persisted
// state. The caller must Close the returned governor.
func openGovernor(ctx *cli.Context) (*core.Governor, error) {
	p, err := getRootPath(ctx)
	if err != nil {
		return nil, err
	}
	r, err := repo.Load(p)
	if err != nil {
		return nil, err
	}

	err = log.Initialize(
		log.WithReportCaller(r.Config.Log.ReportCaller),
		log.WithPersist(true),
		log.WithFilePath(r.LogsPath()),
		log.WithFileName(r.Config.Log.Filename),
		log.WithMaxAge(r.Config.Log.MaxAge),
		log.WithRotationTime(r.Config.Log.RotationTime),
	)
	if err != nil {
		return nil, fmt.Errorf("log initialize: %w", err)
	}

	db, err := core.OpenStorage(r.StoragePath(), r.Config.Storage.OpenAttempts, r.Config.Storage.OpenBackoff)
	if err != nil {
		return nil, err
	}
	g, err := core.NewGovernor(r.Config, core.WithStorage(db))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("new governor error: %w", err)
	}
	return g, nil
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func callFrom(ctx *cli.Context, g *core.Governor) (core.Call, error) {
	caller, err := parseAddress(ctx.String("caller"))
	if err != nil {
		return core.Call{}, errors.Wrap(err, "--caller")
	}
	height := g.Height()
	if ctx.IsSet("height") {
		height = ctx.Uint64("height")
	}
	return core.Call{Caller: caller, Height: height}, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}

// mutation runs op as the --caller at --height and prints the event it emitted.
func mutation(op func(ctx *cli.Context, g *core.Governor, call core.Call) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		g, err := openGovernor(ctx)
		if err != nil {
			return err
		}
		defer g.Close()

		call, err := callFrom(ctx, g)
		if err != nil {
			return err
		}

		events := make(chan core.Event, 1)
		sub := g.SubscribeEvents(events)
		defer sub.Unsubscribe()

		if err := op(ctx, g, call); err != nil {
			return err
		}
		return printJSON(<-events)
	}
}

// query runs fn against the persisted state and prints its result.
func query(fn func(ctx *cli.Context, g *core.Governor) (any, error)) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		g, err := openGovernor(ctx)
		if err != nil {
			return err
		}
		defer g.Close()

		v, err := fn(ctx, g)
		if err != nil {
			return err
		}
		return printJSON(v)
	}
}
