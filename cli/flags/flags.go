// Package flags defines the CLI flags shared by worklift commands and binds
// them to the run options.
package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/worklift/worklift/internal/report"
	"github.com/worklift/worklift/options"
	"github.com/worklift/worklift/pkg/log"
)

const (
	JiraURLFlagName   = "jira-url"
	JiraEmailFlagName = "jira-email"
	JiraTokenFlagName = "jira-token"
	PageSizeFlagName  = "page-size"
	TimeoutFlagName   = "timeout"
	RetriesFlagName   = "retries"

	ProjectFlagName     = "project"
	ActivityFlagName    = "activity"
	ConcurrencyFlagName = "concurrency"
	TransitiveFlagName  = "transitive"

	NoCacheFlagName  = "no-cache"
	CacheTTLFlagName = "cache-ttl"
	CacheDirFlagName = "cache-dir"

	OutputDirFlagName = "output-dir"
	FormatFlagName    = "format"

	LogLevelFlagName = "log-level"
	NoColorFlagName  = "no-color"
)

// NewGlobalFlags returns the flags every command understands.
func NewGlobalFlags(opts *options.WorkliftOptions) []cli.Flag {
	return []cli.Flag{
		&cli.GenericFlag{
			Name:    LogLevelFlagName,
			Aliases: []string{"l"},
			EnvVars: []string{"WORKLIFT_LOG_LEVEL"},
			Usage:   fmt.Sprintf("Set the logging level. Supported levels: %s.", log.AllLevels),
			Value:   &levelValue{opts: opts},
		},
		&cli.BoolFlag{
			Name:        NoColorFlagName,
			EnvVars:     []string{"WORKLIFT_NO_COLOR"},
			Usage:       "Disable color output.",
			Destination: &opts.DisableColors,
		},
	}
}

// NewJiraFlags returns the flags that configure the Jira client.
func NewJiraFlags(opts *options.WorkliftOptions) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        JiraURLFlagName,
			EnvVars:     []string{"WORKLIFT_JIRA_URL", "JIRA_URL"},
			Usage:       "Base URL of the Jira instance, like https://jira.company.example.",
			Destination: &opts.JiraURL,
		},
		&cli.StringFlag{
			Name:        JiraEmailFlagName,
			EnvVars:     []string{"WORKLIFT_JIRA_EMAIL", "JIRA_EMAIL"},
			Usage:       "Account email for Jira Cloud basic auth. Leave unset to send the token as a bearer header.",
			Destination: &opts.JiraEmail,
		},
		&cli.StringFlag{
			Name:        JiraTokenFlagName,
			EnvVars:     []string{"WORKLIFT_JIRA_TOKEN", "JIRA_API_TOKEN"},
			Usage:       "API token or personal access token used to authenticate.",
			Destination: &opts.JiraToken,
		},
		&cli.IntFlag{
			Name:        PageSizeFlagName,
			EnvVars:     []string{"WORKLIFT_PAGE_SIZE"},
			Usage:       "Page size for Jira search and worklog pagination.",
			Value:       options.DefaultPageSize,
			Destination: &opts.PageSize,
		},
		&cli.DurationFlag{
			Name:        TimeoutFlagName,
			EnvVars:     []string{"WORKLIFT_TIMEOUT"},
			Usage:       "Deadline for the whole run, like 10m. Zero means no deadline.",
			Destination: &opts.Timeout,
		},
		&cli.IntFlag{
			Name:        RetriesFlagName,
			EnvVars:     []string{"WORKLIFT_RETRIES"},
			Usage:       "How many times transient Jira failures are retried.",
			Value:       options.DefaultRetries,
			Destination: &opts.Retries,
		},
	}
}

// NewCollectionFlags returns the flags that scope the issue traversal.
func NewCollectionFlags(opts *options.WorkliftOptions) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        ProjectFlagName,
			Aliases:     []string{"p"},
			EnvVars:     []string{"WORKLIFT_PROJECT", "PROJECT_KEY"},
			Usage:       "Jira project key whose worklogs are exported.",
			Value:       options.DefaultProjectKey,
			Destination: &opts.ProjectKey,
		},
		&cli.StringFlag{
			Name:        ActivityFlagName,
			Aliases:     []string{"e"},
			EnvVars:     []string{"WORKLIFT_ACTIVITY", "ERP_ACTIVITY_FILTER"},
			Usage:       "ERP activity value that seeds the traversal.",
			Destination: &opts.ActivityFilter,
		},
		&cli.IntFlag{
			Name:        ConcurrencyFlagName,
			EnvVars:     []string{"WORKLIFT_CONCURRENCY"},
			Usage:       "How many Jira requests may be in flight at once.",
			Value:       options.DefaultConcurrency,
			Destination: &opts.Concurrency,
		},
		&cli.BoolFlag{
			Name:        TransitiveFlagName,
			EnvVars:     []string{"WORKLIFT_TRANSITIVE"},
			Usage:       "Keep expanding links and sub-tasks of newly found issues until no more turn up.",
			Destination: &opts.Transitive,
		},
	}
}

// NewCacheFlags returns the flags that tune the response cache.
func NewCacheFlags(opts *options.WorkliftOptions) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        NoCacheFlagName,
			EnvVars:     []string{"WORKLIFT_NO_CACHE"},
			Usage:       "Skip cache reads. Fresh responses are still written through.",
			Destination: &opts.NoCache,
		},
		&cli.DurationFlag{
			Name:        CacheTTLFlagName,
			EnvVars:     []string{"WORKLIFT_CACHE_TTL"},
			Usage:       "Age after which cached Jira responses are refetched.",
			Value:       options.DefaultCacheTTL,
			Destination: &opts.CacheTTL,
		},
		&cli.StringFlag{
			Name:        CacheDirFlagName,
			EnvVars:     []string{"WORKLIFT_CACHE_DIR"},
			Usage:       "Directory cache records live in.",
			Value:       opts.CacheDir,
			Destination: &opts.CacheDir,
		},
	}
}

// NewOutputDirFlag returns the flag that selects the artifacts directory.
func NewOutputDirFlag(opts *options.WorkliftOptions) cli.Flag {
	return &cli.StringFlag{
		Name:        OutputDirFlagName,
		Aliases:     []string{"o"},
		EnvVars:     []string{"WORKLIFT_OUTPUT_DIR"},
		Usage:       "Directory export artifacts are written into.",
		Value:       options.DefaultOutputDir,
		Destination: &opts.OutputDir,
	}
}

// NewOutputFlags returns the flags that shape export artifacts.
func NewOutputFlags(opts *options.WorkliftOptions) []cli.Flag {
	return []cli.Flag{
		NewOutputDirFlag(opts),
		&cli.GenericFlag{
			Name:    FormatFlagName,
			Aliases: []string{"f"},
			EnvVars: []string{"WORKLIFT_FORMAT"},
			Usage:   "Artifacts an export produces. Valid values: csv, html, both.",
			Value:   &formatValue{opts: opts},
		},
	}
}

// levelValue binds the log-level flag straight to the logger so the level
// applies at parse time, before any command runs.
type levelValue struct {
	opts *options.WorkliftOptions
}

func (value *levelValue) Set(str string) error {
	level, err := log.ParseLevel(str)
	if err != nil {
		return err
	}

	value.opts.LogLevel = level
	value.opts.Logger.SetOptions(log.WithLevel(level))

	return nil
}

func (value *levelValue) String() string {
	return value.opts.LogLevel.String()
}

// formatValue parses the export format flag at parse time so an unsupported
// value fails before any Jira call is made.
type formatValue struct {
	opts *options.WorkliftOptions
}

func (value *formatValue) Set(str string) error {
	format, err := report.ParseFormat(str)
	if err != nil {
		return err
	}

	value.opts.Format = format

	return nil
}

func (value *formatValue) String() string {
	return string(value.opts.Format)
}
