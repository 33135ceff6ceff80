// Package common holds the pieces shared by the worklift commands: building
// the Jira client and the cache store from run options, and deciding whether
// terminal output gets color.
package common

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/worklift/worklift/internal/cache"
	"github.com/worklift/worklift/internal/collect"
	"github.com/worklift/worklift/internal/jira"
	"github.com/worklift/worklift/options"
	"github.com/worklift/worklift/util"
)

// NewJiraClient builds the Jira client from the run options, with the retry
// policy sized by the configured retry budget.
func NewJiraClient(opts *options.WorkliftOptions) (*jira.Client, error) {
	retryPolicy := util.DefaultRetryPolicy()
	retryPolicy.MaxRetries = opts.Retries

	return jira.NewClient(jira.Config{
		BaseURL:     opts.JiraURL,
		Email:       opts.JiraEmail,
		APIToken:    opts.JiraToken,
		PageSize:    opts.PageSize,
		RetryPolicy: retryPolicy,
	}, opts.Logger)
}

// NewCollectionEngine builds the traversal engine from the run options.
func NewCollectionEngine(client collect.QueryClient, opts *options.WorkliftOptions) *collect.Engine {
	return collect.NewEngine(client, collect.Config{
		ProjectKey:     opts.ProjectKey,
		ActivityField:  jira.ActivityFieldName,
		ActivityFilter: opts.ActivityFilter,
		Concurrency:    opts.Concurrency,
		Transitive:     opts.Transitive,
	}, opts.Logger)
}

// OpenCacheStore opens the response cache configured by the run options.
func OpenCacheStore(opts *options.WorkliftOptions) (*cache.Store, error) {
	return cache.NewStore(opts.Logger, cache.Options{
		Dir:    opts.CacheDir,
		TTL:    opts.CacheTTL,
		Bypass: opts.NoCache,
	})
}

// ShouldColor returns true when output written to w should carry ANSI colors:
// colors are not disabled and w is a terminal.
func ShouldColor(opts *options.WorkliftOptions, w io.Writer) bool {
	return !opts.DisableColors && IsTerminal(w)
}

// IsTerminal reports whether the writer is attached to a terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)

	return ok && isatty.IsTerminal(file.Fd())
}
