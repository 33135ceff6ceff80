// Package options provides a set of options that configure the behavior of the worklift program.
package options

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/worklift/worklift/internal/errors"
	"github.com/worklift/worklift/internal/jira"
	"github.com/worklift/worklift/internal/report"
	"github.com/worklift/worklift/pkg/log"
)

const (
	// DefaultProjectKey is the project exported when none is configured.
	DefaultProjectKey = "ZYN"

	// DefaultOutputDir is where artifacts land, relative to the working directory.
	DefaultOutputDir = "output"

	// DefaultConcurrency bounds parallel per-issue fetches.
	DefaultConcurrency = 10

	// DefaultPageSize is the Jira pagination size.
	DefaultPageSize = 100

	// DefaultRetries is how many times transient Jira failures are retried.
	DefaultRetries = 3

	// DefaultCacheTTL is how long cached Jira responses stay fresh.
	DefaultCacheTTL = time.Hour

	defaultLogLevel = log.InfoLevel

	cacheDirName = "worklift"
)

// WorkliftOptions represents options that configure the behavior of the worklift program.
type WorkliftOptions struct {
	// JiraURL is the base URL of the Jira instance, like https://jira.company.example.
	JiraURL string

	// JiraEmail is the account email for Jira Cloud basic auth. When empty,
	// the token rides in a bearer header instead.
	JiraEmail string

	// JiraToken is the API token or personal access token.
	JiraToken string

	// ProjectKey selects the project whose worklogs are exported.
	ProjectKey string

	// ActivityFilter is the ERP activity value that seeds the traversal.
	ActivityFilter string

	// OutputDir is the directory export artifacts are written into.
	OutputDir string

	// Format selects which artifacts an export produces.
	Format report.Format

	// LogLevel for terminal output.
	LogLevel log.Level

	// LogFormatter used by the Logger.
	LogFormatter *log.PrettyFormatter

	// Logger is the root logger commands derive theirs from.
	Logger log.Logger

	// NoCache bypasses cache reads while still writing fresh responses through.
	NoCache bool

	// CacheTTL is the age after which cached responses are refetched.
	CacheTTL time.Duration

	// CacheDir is where cache records live on disk.
	CacheDir string

	// Concurrency bounds parallel per-issue fetches.
	Concurrency int

	// PageSize used for Jira search and worklog pagination.
	PageSize int

	// Timeout is the global deadline for a run. Zero means no deadline.
	Timeout time.Duration

	// Transitive keeps following links and sub-tasks of expansion results
	// until no new issues turn up.
	Transitive bool

	// Retries is the retry budget for transient Jira failures.
	Retries int

	// DisableColors strips ANSI colors from terminal output.
	DisableColors bool

	// If you want stdout to go somewhere other than os.stdout
	Writer io.Writer

	// If you want stderr to go somewhere other than os.stderr
	ErrWriter io.Writer
}

// NewWorkliftOptions creates a new WorkliftOptions object with
// reasonable defaults for real usage
func NewWorkliftOptions() *WorkliftOptions {
	return NewWorkliftOptionsWithWriters(os.Stdout, os.Stderr)
}

func NewWorkliftOptionsWithWriters(stdout, stderr io.Writer) *WorkliftOptions {
	logFormatter := log.NewPrettyFormatter()

	return &WorkliftOptions{
		ProjectKey:   DefaultProjectKey,
		OutputDir:    DefaultOutputDir,
		Format:       report.FormatBoth,
		LogLevel:     defaultLogLevel,
		LogFormatter: logFormatter,
		Logger:       log.New(log.WithOutput(stderr), log.WithLevel(defaultLogLevel), log.WithFormatter(logFormatter)),
		CacheTTL:     DefaultCacheTTL,
		CacheDir:     DefaultCacheDir(),
		Concurrency:  DefaultConcurrency,
		PageSize:     DefaultPageSize,
		Retries:      DefaultRetries,
		Writer:       stdout,
		ErrWriter:    stderr,
	}
}

// NewWorkliftOptionsForTest creates a new WorkliftOptions object with reasonable defaults for test usage.
func NewWorkliftOptionsForTest(stdout, stderr io.Writer) *WorkliftOptions {
	opts := NewWorkliftOptionsWithWriters(stdout, stderr)
	opts.Logger.SetOptions(log.WithLevel(log.DebugLevel))
	opts.LogLevel = log.DebugLevel

	return opts
}

// DefaultCacheDir returns `$HOME/.cache/worklift`, falling back to a relative
// .cache directory when the home directory cannot be resolved.
func DefaultCacheDir() string {
	home, err := homedir.Dir()
	if err != nil {
		return filepath.Join(".cache", cacheDirName)
	}

	return filepath.Join(home, ".cache", cacheDirName)
}

// Validate checks that required options are set and numeric options are sane.
// All problems are reported at once.
func (opts *WorkliftOptions) Validate() error {
	var errs *errors.MultiError

	if opts.JiraURL == "" {
		errs = errs.Append(errors.Errorf("jira url is required, set --jira-url or JIRA_URL"))
	}

	if opts.JiraToken == "" {
		errs = errs.Append(errors.Errorf("jira token is required, set --jira-token or JIRA_API_TOKEN"))
	}

	if opts.ActivityFilter == "" {
		errs = errs.Append(errors.Errorf("activity filter is required, set --activity or ERP_ACTIVITY_FILTER"))
	}

	if !jira.ValidProjectKey(opts.ProjectKey) {
		errs = errs.Append(errors.Errorf("invalid project key %q, expected something like %q", opts.ProjectKey, DefaultProjectKey))
	}

	if opts.Concurrency < 1 {
		errs = errs.Append(errors.Errorf("concurrency must be at least 1, got %d", opts.Concurrency))
	}

	if opts.PageSize < 1 {
		errs = errs.Append(errors.Errorf("page size must be at least 1, got %d", opts.PageSize))
	}

	if opts.Retries < 0 {
		errs = errs.Append(errors.Errorf("retries must not be negative, got %d", opts.Retries))
	}

	if opts.Timeout < 0 {
		errs = errs.Append(errors.Errorf("timeout must not be negative, got %s", opts.Timeout))
	}

	if opts.CacheTTL < 0 {
		errs = errs.Append(errors.Errorf("cache ttl must not be negative, got %s", opts.CacheTTL))
	}

	return errs.ErrorOrNil()
}
