package cache

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worklift/worklift/cli/commands/common"
	respcache "github.com/worklift/worklift/internal/cache"
	"github.com/worklift/worklift/options"
)

func cacheOptions(t *testing.T) (*options.WorkliftOptions, *bytes.Buffer) {
	t.Helper()

	stdout := new(bytes.Buffer)
	opts := options.NewWorkliftOptionsForTest(stdout, new(bytes.Buffer))
	opts.CacheDir = t.TempDir()

	return opts, stdout
}

func seedRecords(t *testing.T, opts *options.WorkliftOptions, ids ...string) {
	t.Helper()

	store, err := common.OpenCacheStore(opts)
	require.NoError(t, err)

	defer store.Close() //nolint:errcheck

	for _, id := range ids {
		_, err := respcache.Fetch(t.Context(), store, "metadata", id, func(ctx context.Context) (map[string]string, error) {
			return map[string]string{"key": id}, nil
		})
		require.NoError(t, err)
	}
}

func TestStatusOnEmptyCache(t *testing.T) {
	t.Parallel()

	opts, stdout := cacheOptions(t)

	require.NoError(t, RunStatus(opts))

	out := stdout.String()
	assert.Contains(t, out, "Cache directory: "+opts.CacheDir)
	assert.Contains(t, out, "Records: 0")
	assert.Contains(t, out, "Size: 0 B")
}

func TestStatusCountsRecords(t *testing.T) {
	t.Parallel()

	opts, stdout := cacheOptions(t)
	seedRecords(t, opts, "ZYN-1", "ZYN-2")

	require.NoError(t, RunStatus(opts))

	out := stdout.String()
	assert.Contains(t, out, "Records: 2")
	assert.NotContains(t, out, "Size: 0 B")
}

func TestPurgeRemovesRecords(t *testing.T) {
	t.Parallel()

	opts, stdout := cacheOptions(t)
	seedRecords(t, opts, "ZYN-1", "ZYN-2", "ZYN-3")

	require.NoError(t, RunPurge(opts))
	assert.Contains(t, stdout.String(), "Removed 3 cache records from "+opts.CacheDir)

	stdout.Reset()

	require.NoError(t, RunStatus(opts))
	assert.Contains(t, stdout.String(), "Records: 0")
}

func TestHumanBytes(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		size     int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{5 * 1024 * 1024 * 1024, "5.0 GiB"},
	}

	for _, testCase := range testCases {
		assert.Equal(t, testCase.expected, humanBytes(testCase.size), "size %d", testCase.size)
	}
}
