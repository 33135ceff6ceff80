// Package commands provides the implementation of the worklift commands.
package commands

import (
	"github.com/urfave/cli/v2"

	cachecmd "github.com/worklift/worklift/cli/commands/cache"
	"github.com/worklift/worklift/cli/commands/export"
	"github.com/worklift/worklift/cli/commands/issues"
	"github.com/worklift/worklift/cli/commands/serve"
	"github.com/worklift/worklift/options"
)

// New returns every worklift command, the default export command first.
func New(opts *options.WorkliftOptions) []*cli.Command {
	return []*cli.Command{
		export.NewCommand(opts),
		issues.NewCommand(opts),
		cachecmd.NewCommand(opts),
		serve.NewCommand(opts),
	}
}
