// Package export implements the default worklift command: walk the issue graph
// around the configured activity, pull every worklog and write the report
// artifacts.
package export

import (
	"github.com/urfave/cli/v2"

	"github.com/worklift/worklift/cli/flags"
	"github.com/worklift/worklift/options"
)

const CommandName = "export"

// NewFlags returns the full flag set of the export command. The app installs
// the same set at the top level so the command stays the default action.
func NewFlags(opts *options.WorkliftOptions) []cli.Flag {
	flagSet := flags.NewJiraFlags(opts)
	flagSet = append(flagSet, flags.NewCollectionFlags(opts)...)
	flagSet = append(flagSet, flags.NewCacheFlags(opts)...)
	flagSet = append(flagSet, flags.NewOutputFlags(opts)...)

	return flagSet
}

func NewCommand(opts *options.WorkliftOptions) *cli.Command {
	return &cli.Command{
		Name:  CommandName,
		Usage: "Collect the related issue set and export its worklogs. This is the default command.",
		Flags: NewFlags(opts),
		Action: func(cliCtx *cli.Context) error {
			return Run(cliCtx.Context, opts)
		},
	}
}
