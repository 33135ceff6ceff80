package options_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worklift/worklift/internal/report"
	"github.com/worklift/worklift/options"
	"github.com/worklift/worklift/pkg/log"
)

func validOptions() *options.WorkliftOptions {
	opts := options.NewWorkliftOptionsForTest(io.Discard, io.Discard)
	opts.JiraURL = "https://jira.corp.example"
	opts.JiraToken = "secret"
	opts.ActivityFilter = "ProjectTask-00000007118797"

	return opts
}

func TestNewWorkliftOptionsDefaults(t *testing.T) {
	t.Parallel()

	opts := options.NewWorkliftOptions()

	assert.Equal(t, options.DefaultProjectKey, opts.ProjectKey)
	assert.Equal(t, options.DefaultOutputDir, opts.OutputDir)
	assert.Equal(t, report.FormatBoth, opts.Format)
	assert.Equal(t, options.DefaultConcurrency, opts.Concurrency)
	assert.Equal(t, options.DefaultPageSize, opts.PageSize)
	assert.Equal(t, options.DefaultRetries, opts.Retries)
	assert.Equal(t, options.DefaultCacheTTL, opts.CacheTTL)
	assert.Equal(t, log.InfoLevel, opts.LogLevel)
	assert.False(t, opts.Transitive)
	assert.False(t, opts.NoCache)
	assert.Zero(t, opts.Timeout)
	assert.NotNil(t, opts.Logger)
	assert.True(t, strings.HasSuffix(opts.CacheDir, "worklift"))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		mutate   func(opts *options.WorkliftOptions)
		wantErrs []string
	}{
		{
			name:   "valid",
			mutate: func(opts *options.WorkliftOptions) {},
		},
		{
			name:     "missing jira url",
			mutate:   func(opts *options.WorkliftOptions) { opts.JiraURL = "" },
			wantErrs: []string{"jira url is required"},
		},
		{
			name:     "missing token",
			mutate:   func(opts *options.WorkliftOptions) { opts.JiraToken = "" },
			wantErrs: []string{"jira token is required"},
		},
		{
			name:     "missing activity",
			mutate:   func(opts *options.WorkliftOptions) { opts.ActivityFilter = "" },
			wantErrs: []string{"activity filter is required"},
		},
		{
			name:     "lowercase project key",
			mutate:   func(opts *options.WorkliftOptions) { opts.ProjectKey = "zyn" },
			wantErrs: []string{`invalid project key "zyn"`},
		},
		{
			name:     "zero concurrency",
			mutate:   func(opts *options.WorkliftOptions) { opts.Concurrency = 0 },
			wantErrs: []string{"concurrency must be at least 1"},
		},
		{
			name: "everything wrong at once",
			mutate: func(opts *options.WorkliftOptions) {
				opts.JiraURL = ""
				opts.JiraToken = ""
				opts.PageSize = 0
			},
			wantErrs: []string{"jira url is required", "jira token is required", "page size must be at least 1"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			opts := validOptions()
			testCase.mutate(opts)

			err := opts.Validate()
			if len(testCase.wantErrs) == 0 {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)

			for _, want := range testCase.wantErrs {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}
