// Package issues implements the worklift issues command: run the traversal
// only and print the collected issue set, without touching any worklogs.
package issues

import (
	"github.com/urfave/cli/v2"

	"github.com/worklift/worklift/cli/flags"
	"github.com/worklift/worklift/internal/errors"
	"github.com/worklift/worklift/options"
)

const (
	CommandName = "issues"

	FormatFlagName = "format"

	// FormatText lists the keys in terminal-width columns.
	FormatText = "text"
	// FormatJSON emits the nodes with their provenance as a JSON array.
	FormatJSON = "json"
	// FormatTree renders the discovery tree: every issue under the issue
	// that pulled it into the set.
	FormatTree = "tree"
)

func NewCommand(opts *options.WorkliftOptions) *cli.Command {
	format := FormatText

	flagSet := flags.NewJiraFlags(opts)
	flagSet = append(flagSet, flags.NewCollectionFlags(opts)...)
	flagSet = append(flagSet,
		&cli.StringFlag{
			Name:        FormatFlagName,
			Aliases:     []string{"f"},
			EnvVars:     []string{"WORKLIFT_ISSUES_FORMAT"},
			Usage:       "Output format. Valid values: text, json, tree.",
			Value:       FormatText,
			Destination: &format,
		},
	)

	return &cli.Command{
		Name:  CommandName,
		Usage: "Collect the related issue set and print it without extracting worklogs.",
		Flags: flagSet,
		Action: func(cliCtx *cli.Context) error {
			switch format {
			case FormatText, FormatJSON, FormatTree:
				return Run(cliCtx.Context, opts, format)
			default:
				return errors.Errorf("unsupported format %q, must be one of: text, json, tree", format)
			}
		},
	}
}
