package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/axiomesh/stakegov/repo"
)

var configCMD = &cli.Command{
	Name:  "config",
	Usage: "The config manage commands",
	Subcommands: []*cli.Command{
		{
			Name:   "generate",
			Usage:  "Generate default config",
			Action: generate,
		},
		{
			Name:   "show",
			Usage:  "Show the complete config processed by the environment variable",
			Action: show,
		},
		{
			Name:   "check",
			Usage:  "Check if the config file is valid",
			Action: check,
		},
		{
			Name:   "rewrite-with-env",
			Usage:  "Rewrite config with env",
			Action: rewriteWithEnv,
		},
	},
}

func generate(ctx *cli.Context) error {
	p, err := getRootPath(ctx)
	if err != nil {
		return err
	}
	if repo.Exist(p) {
		fmt.Println("stakegov repo already exists")
		return nil
	}

	if _, err := repo.Init(p); err != nil {
		return err
	}

	fmt.Printf("initializing stakegov at %s\n", p)
	return nil
}

var errRepoNotExist = errors.New("stakegov repo not exist")

// loadExisting loads the repo named by --repo without creating a default one.
func loadExisting(ctx *cli.Context) (*repo.Repo, error) {
	p, err := getRootPath(ctx)
	if err != nil {
		return nil, err
	}
	if !repo.Exist(p) {
		return nil, errors.Wrap(errRepoNotExist, p)
	}
	return repo.Load(p)
}

func show(ctx *cli.Context) error {
	r, err := loadExisting(ctx)
	if err != nil {
		return err
	}
	str, err := repo.MarshalConfig(r.Config)
	if err != nil {
		return err
	}
	fmt.Println(str)
	return nil
}

func check(ctx *cli.Context) error {
	if _, err := loadExisting(ctx); err != nil {
		return errors.Wrap(err, "config file format error, please check")
	}
	return nil
}

func rewriteWithEnv(ctx *cli.Context) error {
	r, err := loadExisting(ctx)
	if err != nil {
		return err
	}
	return r.Flush()
}
