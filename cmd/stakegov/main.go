package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/axiomesh/stakegov/core"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Printf("%s: %s\n", core.ErrorCode(err), err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "stakegov"
	app.Usage = "Staked token ledger with proposal voting"
	app.Compiled = time.Now()

	cli.VersionPrinter = func(c *cli.Context) {
		printVersion()
	}

	// global flags
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "repo",
			Usage: "stakegov storage repo path",
		},
		&cli.StringFlag{
			Name:    "caller",
			Usage:   "Address the call is made as",
			EnvVars: []string{"STAKEGOV_CALLER"},
		},
		&cli.Uint64Flag{
			Name:  "height",
			Usage: "Current height, defaults to the last accepted one",
		},
	}

	app.Commands = []*cli.Command{
		configCMD,
		tokenCMD,
		proposalCMD,
		{
			Name:    "version",
			Aliases: []string{"v"},
			Usage:   "stakegov version",
			Action: func(ctx *cli.Context) error {
				printVersion()
				return nil
			},
		},
	}

	return app
}
