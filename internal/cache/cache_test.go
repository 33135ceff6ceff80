package cache_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worklift/worklift/internal/cache"
	"github.com/worklift/worklift/internal/errors"
	"github.com/worklift/worklift/pkg/log"
)

type payload struct {
	Key   string  `json:"key"`
	Hours float64 `json:"hours"`
}

var errLiveFetch = errors.New("live fetch should not run")

func newTestStore(t *testing.T, opts cache.Options) *cache.Store {
	t.Helper()

	if opts.Dir == "" {
		opts.Dir = t.TempDir()
	}

	store, err := cache.NewStore(log.New(log.WithOutput(io.Discard)), opts)
	require.NoError(t, err)

	return store
}

func fixed(value payload) func(ctx context.Context) (payload, error) {
	return func(ctx context.Context) (payload, error) {
		return value, nil
	}
}

func failing(ctx context.Context) (payload, error) {
	return payload{}, errLiveFetch
}

// recordPaths lists the record files under dir, skipping lock and temp files.
func recordPaths(t *testing.T, dir string) []string {
	t.Helper()

	var paths []string

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() || strings.Contains(entry.Name(), ".") {
			return nil
		}

		paths = append(paths, path)

		return nil
	})
	require.NoError(t, err)

	return paths
}

func TestFetchCachesAcrossCalls(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, cache.Options{})

	calls := 0
	fn := func(ctx context.Context) (payload, error) {
		calls++

		return payload{Key: "ZYN-1", Hours: 7.5}, nil
	}

	first, err := cache.Fetch(t.Context(), store, "worklogs", "ZYN-1", fn)
	require.NoError(t, err)
	assert.Equal(t, payload{Key: "ZYN-1", Hours: 7.5}, first)

	second, err := cache.Fetch(t.Context(), store, "worklogs", "ZYN-1", fn)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, 1, calls)
	assert.Equal(t, cache.Stats{Hits: 1, Misses: 1}, store.Stats())
}

func TestRecordsPersistAcrossStores(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	seeder := newTestStore(t, cache.Options{Dir: dir})

	_, err := cache.Fetch(t.Context(), seeder, "metadata", "ZYN-2", fixed(payload{Key: "ZYN-2", Hours: 4}))
	require.NoError(t, err)

	reader := newTestStore(t, cache.Options{Dir: dir})

	value, err := cache.Fetch(t.Context(), reader, "metadata", "ZYN-2", failing)
	require.NoError(t, err)
	assert.Equal(t, payload{Key: "ZYN-2", Hours: 4}, value)
	assert.Equal(t, cache.Stats{Hits: 1}, reader.Stats())
}

func TestRecordLayoutIsDigestPartitioned(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := newTestStore(t, cache.Options{Dir: dir})

	_, err := cache.Fetch(t.Context(), store, "worklogs", "ZYN-1", fixed(payload{Key: "ZYN-1"}))
	require.NoError(t, err)

	sum := sha256.Sum256([]byte("worklogs:ZYN-1"))
	digest := hex.EncodeToString(sum[:])

	assert.FileExists(t, filepath.Join(dir, digest[:2], digest))
}

func TestExpiredRecordRefetchedAndRemoved(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := newTestStore(t, cache.Options{Dir: dir, TTL: 10 * time.Millisecond})

	_, err := cache.Fetch(t.Context(), store, "worklogs", "ZYN-1", fixed(payload{Key: "ZYN-1", Hours: 1}))
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	// The record is stale now, so the failing live fetch is reached and the
	// stale file is dropped without being replaced.
	_, err = cache.Fetch(t.Context(), store, "worklogs", "ZYN-1", failing)
	require.ErrorIs(t, err, errLiveFetch)
	assert.Empty(t, recordPaths(t, dir))

	value, err := cache.Fetch(t.Context(), store, "worklogs", "ZYN-1", fixed(payload{Key: "ZYN-1", Hours: 3}))
	require.NoError(t, err)
	assert.InEpsilon(t, 3.0, value.Hours, 0.0001)
}

func TestBrokenRecordsTreatedAsMiss(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		content []byte
	}{
		{
			name:    "invalid json",
			content: []byte("not json at all"),
		},
		{
			name: "wrong kind",
			content: func() []byte {
				data, err := json.Marshal(map[string]any{
					"version": 1,
					"kind":    "metadata",
					"id":      "ZYN-3",
					"created": time.Now().UTC(),
					"payload": map[string]any{},
				})
				require.NoError(t, err)

				return data
			}(),
		},
		{
			name: "future envelope version",
			content: func() []byte {
				data, err := json.Marshal(map[string]any{
					"version": 99,
					"kind":    "worklogs",
					"id":      "ZYN-3",
					"created": time.Now().UTC(),
					"payload": map[string]any{},
				})
				require.NoError(t, err)

				return data
			}(),
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			store := newTestStore(t, cache.Options{Dir: dir})

			_, err := cache.Fetch(t.Context(), store, "worklogs", "ZYN-3", fixed(payload{Key: "ZYN-3", Hours: 1}))
			require.NoError(t, err)

			paths := recordPaths(t, dir)
			require.Len(t, paths, 1)
			require.NoError(t, os.WriteFile(paths[0], testCase.content, 0644))

			var calls atomic.Int32

			value, err := cache.Fetch(t.Context(), store, "worklogs", "ZYN-3", func(ctx context.Context) (payload, error) {
				calls.Add(1)

				return payload{Key: "ZYN-3", Hours: 2}, nil
			})
			require.NoError(t, err)
			assert.Equal(t, int32(1), calls.Load())
			assert.InEpsilon(t, 2.0, value.Hours, 0.0001)
		})
	}
}

func TestBypassSkipsReadsButWritesThrough(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	seeder := newTestStore(t, cache.Options{Dir: dir})

	_, err := cache.Fetch(t.Context(), seeder, "worklogs", "ZYN-1", fixed(payload{Key: "ZYN-1", Hours: 1}))
	require.NoError(t, err)

	bypassing := newTestStore(t, cache.Options{Dir: dir, Bypass: true})

	value, err := cache.Fetch(t.Context(), bypassing, "worklogs", "ZYN-1", fixed(payload{Key: "ZYN-1", Hours: 2}))
	require.NoError(t, err)
	assert.InEpsilon(t, 2.0, value.Hours, 0.0001)
	assert.Equal(t, cache.Stats{Bypassed: 1}, bypassing.Stats())

	// The bypass run refreshed the record for regular readers.
	reader := newTestStore(t, cache.Options{Dir: dir})

	value, err = cache.Fetch(t.Context(), reader, "worklogs", "ZYN-1", failing)
	require.NoError(t, err)
	assert.InEpsilon(t, 2.0, value.Hours, 0.0001)
}

func TestErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, cache.Options{})

	_, err := cache.Fetch(t.Context(), store, "worklogs", "ZYN-9", failing)
	require.ErrorIs(t, err, errLiveFetch)

	value, err := cache.Fetch(t.Context(), store, "worklogs", "ZYN-9", fixed(payload{Key: "ZYN-9", Hours: 5}))
	require.NoError(t, err)
	assert.InEpsilon(t, 5.0, value.Hours, 0.0001)
	assert.Equal(t, cache.Stats{Misses: 2}, store.Stats())
}

func TestConcurrentSameKeyFetchesShareOneCall(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, cache.Options{})

	var calls atomic.Int32

	fn := func(ctx context.Context) (payload, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)

		return payload{Key: "ZYN-1", Hours: 4}, nil
	}

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			value, err := cache.Fetch(t.Context(), store, "worklogs", "ZYN-1", fn)
			assert.NoError(t, err)
			assert.InEpsilon(t, 4.0, value.Hours, 0.0001)
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestDistinctKeysDoNotBlockEachOther(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, cache.Options{})

	var wg sync.WaitGroup

	for i := range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			key := fmt.Sprintf("ZYN-%d", i)

			value, err := cache.Fetch(t.Context(), store, "worklogs", key, fixed(payload{Key: key, Hours: float64(i)}))
			assert.NoError(t, err)
			assert.Equal(t, key, value.Key)
		}()
	}

	wg.Wait()

	assert.Equal(t, int64(10), store.Stats().Misses)
}

func TestStatusAndPurge(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := newTestStore(t, cache.Options{Dir: dir})

	for i := range 3 {
		_, err := cache.Fetch(t.Context(), store, "worklogs", fmt.Sprintf("ZYN-%d", i), fixed(payload{Hours: float64(i)}))
		require.NoError(t, err)
	}

	status, err := store.Status()
	require.NoError(t, err)
	assert.Equal(t, dir, status.Dir)
	assert.Equal(t, 3, status.Entries)
	assert.Positive(t, status.Size)

	removed, err := store.Purge()
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	status, err = store.Status()
	require.NoError(t, err)
	assert.Zero(t, status.Entries)
}
