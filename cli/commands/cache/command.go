// Package cache implements the worklift cache command: inspect what the
// response cache holds and purge it.
package cache

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/worklift/worklift/cli/commands/common"
	"github.com/worklift/worklift/cli/flags"
	"github.com/worklift/worklift/internal/errors"
	"github.com/worklift/worklift/options"
)

const (
	CommandName = "cache"

	StatusCommandName = "status"
	PurgeCommandName  = "purge"
)

func NewCommand(opts *options.WorkliftOptions) *cli.Command {
	return &cli.Command{
		Name:  CommandName,
		Usage: "Inspect and maintain the Jira response cache.",
		Subcommands: []*cli.Command{
			{
				Name:  StatusCommandName,
				Usage: "Show where the cache lives, how many records it holds and their size.",
				Flags: flags.NewCacheFlags(opts),
				Action: func(cliCtx *cli.Context) error {
					return RunStatus(opts)
				},
			},
			{
				Name:  PurgeCommandName,
				Usage: "Remove every cached Jira response.",
				Flags: flags.NewCacheFlags(opts),
				Action: func(cliCtx *cli.Context) error {
					return RunPurge(opts)
				},
			},
		},
	}
}

// RunStatus prints what is on disk under the cache root.
func RunStatus(opts *options.WorkliftOptions) error {
	store, err := common.OpenCacheStore(opts)
	if err != nil {
		return err
	}

	status, err := store.Status()
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(opts.Writer, "Cache directory: %s\nRecords: %d\nSize: %s\n",
		status.Dir, status.Entries, humanBytes(status.Size)); err != nil {
		return errors.New(err)
	}

	return nil
}

// RunPurge removes every cache record and reports how many went away.
func RunPurge(opts *options.WorkliftOptions) error {
	store, err := common.OpenCacheStore(opts)
	if err != nil {
		return err
	}

	removed, err := store.Purge()
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(opts.Writer, "Removed %d cache records from %s.\n", removed, store.Path()); err != nil {
		return errors.New(err)
	}

	return nil
}

// humanBytes renders a byte count with a binary unit, one decimal place.
func humanBytes(size int64) string {
	const unit = 1024

	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
