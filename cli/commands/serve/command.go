// Package serve implements the worklift serve command: a small local web
// server for browsing the export artifacts in the output directory.
package serve

import (
	"github.com/urfave/cli/v2"

	"github.com/worklift/worklift/cli/flags"
	"github.com/worklift/worklift/options"
)

const (
	CommandName = "serve"

	HostFlagName = "host"
	PortFlagName = "port"

	DefaultHost = "localhost"
	DefaultPort = 8420
)

func NewCommand(opts *options.WorkliftOptions) *cli.Command {
	host := DefaultHost
	port := DefaultPort

	return &cli.Command{
		Name:  CommandName,
		Usage: "Serve the output directory over HTTP for viewing reports in a browser.",
		Flags: []cli.Flag{
			flags.NewOutputDirFlag(opts),
			&cli.StringFlag{
				Name:        HostFlagName,
				EnvVars:     []string{"WORKLIFT_SERVE_HOST"},
				Usage:       "Hostname to listen on.",
				Value:       DefaultHost,
				Destination: &host,
			},
			&cli.IntFlag{
				Name:        PortFlagName,
				EnvVars:     []string{"WORKLIFT_SERVE_PORT"},
				Usage:       "Port to listen on. Zero picks a free one.",
				Value:       DefaultPort,
				Destination: &port,
			},
		},
		Action: func(cliCtx *cli.Context) error {
			return Run(cliCtx.Context, opts, host, port)
		},
	}
}
