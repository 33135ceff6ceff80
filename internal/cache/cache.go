// Package cache implements a content-addressed store for fetched Jira
// responses.
//
// Records are JSON envelopes written under a digest-partitioned directory
// tree. When the same kind and id are requested again within the TTL, the
// payload is served from disk, avoiding the network round trip. Stale and
// corrupt records count as misses and are removed on read.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/sync/singleflight"

	"github.com/worklift/worklift/internal/errors"
	"github.com/worklift/worklift/internal/telemetry"
	"github.com/worklift/worklift/pkg/log"
	"github.com/worklift/worklift/util"
)

// DefaultTTL is the freshness window applied when none is configured.
const DefaultTTL = time.Hour

const (
	envelopeVersion = 1

	dirPerms    = os.FileMode(0755)
	recordPerms = os.FileMode(0644)
)

// Metric names reported per cache outcome.
const (
	MetricCacheHit    = "cache_hit"
	MetricCacheMiss   = "cache_miss"
	MetricCacheBypass = "cache_bypass"
)

// record is the JSON envelope around a cached payload. Kind and id are
// repeated inside the record so a moved or hand-edited file can never serve
// the wrong payload.
type record struct {
	Version int             `json:"version"`
	Kind    string          `json:"kind"`
	ID      string          `json:"id"`
	Created time.Time       `json:"created"`
	Payload json.RawMessage `json:"payload"`
}

// Options configures a Store.
type Options struct {
	// Dir is the cache root. If empty, uses $HOME/.cache/worklift.
	Dir string

	// TTL bounds how long a record is served before it is refetched.
	TTL time.Duration

	// Bypass skips reads but still writes fetched payloads through.
	Bypass bool
}

// Store is a TTL-bound, content-addressed cache of JSON payloads on disk.
// Distinct slots may be read and written concurrently; same-slot requests
// within the process share one fetch, and a per-slot file lock serializes
// access across processes.
type Store struct {
	dir    string
	ttl    time.Duration
	bypass bool
	logger log.Logger

	group    singleflight.Group
	hits     atomic.Int64
	misses   atomic.Int64
	bypassed atomic.Int64
}

// NewStore opens the cache directory, creating it when absent.
func NewStore(logger log.Logger, opts Options) (*Store, error) {
	dir := opts.Dir
	if dir == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, errors.New(err)
		}

		dir = filepath.Join(home, ".cache", "worklift")
	}

	if err := util.EnsureDirectory(dir); err != nil {
		return nil, err
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Store{
		dir:    dir,
		ttl:    ttl,
		bypass: opts.Bypass,
		logger: logger.WithField(log.FieldKeyPrefix, "cache"),
	}, nil
}

// Path returns the cache root directory.
func (store *Store) Path() string {
	return store.dir
}

// Fetch returns the payload cached under kind and id when a fresh record
// exists; otherwise it runs fn, persists the result and returns it. The
// returned value always comes from decoding the stored JSON, so hits and
// misses yield identical shapes. Errors from fn propagate and are never
// cached.
func Fetch[T any](ctx context.Context, store *Store, kind, id string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T

	payload, err := store.fetch(ctx, kind, id, func(ctx context.Context) (json.RawMessage, error) {
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(value)
		if err != nil {
			return nil, errors.New(err)
		}

		return data, nil
	})
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal(payload, &result); err != nil {
		return result, errors.New(err)
	}

	return result, nil
}

func (store *Store) fetch(ctx context.Context, kind, id string, load func(ctx context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	payload, err, _ := store.group.Do(kind+":"+id, func() (any, error) {
		return store.fetchSlot(ctx, kind, id, load)
	})
	if err != nil {
		return nil, err
	}

	return payload.(json.RawMessage), nil
}

func (store *Store) fetchSlot(ctx context.Context, kind, id string, load func(ctx context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	slot := store.slotPath(digest(kind, id))

	if err := os.MkdirAll(filepath.Dir(slot), dirPerms); err != nil {
		return nil, errors.New(err)
	}

	lock := flock.New(slot + ".lock")

	if err := lock.Lock(); err != nil {
		return nil, errors.Errorf("failed to acquire cache lock for %s %s: %w", kind, id, err)
	}

	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			store.logger.Warnf("Failed to release cache lock for %s %s: %v", kind, id, unlockErr)
		}
	}()

	if store.bypass {
		store.bypassed.Add(1)
		telemetry.TelemeterFromContext(ctx).Count(ctx, MetricCacheBypass, map[string]any{"kind": kind})
	} else {
		if payload, ok := store.read(slot, kind, id); ok {
			store.hits.Add(1)
			telemetry.TelemeterFromContext(ctx).Count(ctx, MetricCacheHit, map[string]any{"kind": kind})
			store.logger.Debugf("Cache hit for %s %s.", kind, id)

			return payload, nil
		}

		store.misses.Add(1)
		telemetry.TelemeterFromContext(ctx).Count(ctx, MetricCacheMiss, map[string]any{"kind": kind})
	}

	payload, err := load(ctx)
	if err != nil {
		return nil, err
	}

	// The payload is in hand at this point, so a failed write only costs the
	// next run a refetch.
	if err := store.write(slot, kind, id, payload); err != nil {
		store.logger.Warnf("Failed to persist cache record for %s %s: %v", kind, id, err)
	} else {
		store.logger.Debugf("Cached %s %s.", kind, id)
	}

	return payload, nil
}

// read returns the stored payload when the record is fresh and well formed.
// Anything else counts as a miss; expired and corrupt records are removed.
func (store *Store) read(slot, kind, id string) (json.RawMessage, bool) {
	data, err := os.ReadFile(slot)
	if err != nil {
		return nil, false
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		store.logger.Debugf("Removing corrupt cache record for %s %s: %v", kind, id, err)
		store.remove(slot)

		return nil, false
	}

	if rec.Version != envelopeVersion || rec.Kind != kind || rec.ID != id {
		store.logger.Debugf("Removing mismatched cache record for %s %s.", kind, id)
		store.remove(slot)

		return nil, false
	}

	if time.Since(rec.Created) > store.ttl {
		store.logger.Debugf("Cache record for %s %s expired.", kind, id)
		store.remove(slot)

		return nil, false
	}

	return rec.Payload, true
}

func (store *Store) write(slot, kind, id string, payload json.RawMessage) error {
	data, err := json.Marshal(record{
		Version: envelopeVersion,
		Kind:    kind,
		ID:      id,
		Created: time.Now().UTC(),
		Payload: payload,
	})
	if err != nil {
		return errors.New(err)
	}

	tempPath := slot + "." + uuid.New().String() + ".tmp"

	if err := os.WriteFile(tempPath, data, recordPerms); err != nil {
		return errors.New(err)
	}

	if err := os.Rename(tempPath, slot); err != nil {
		store.remove(tempPath)

		return errors.New(err)
	}

	return nil
}

func (store *Store) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		store.logger.Warnf("Failed to remove cache record %s: %v", path, err)
	}
}

func (store *Store) slotPath(digest string) string {
	// Partitioned path: first two characters of the digest as subdirectory.
	return filepath.Join(store.dir, digest[:2], digest)
}

func digest(kind, id string) string {
	sum := sha256.Sum256([]byte(kind + ":" + id))

	return hex.EncodeToString(sum[:])
}

// Stats reports the outcome counters of this store instance.
type Stats struct {
	Hits     int64
	Misses   int64
	Bypassed int64
}

func (store *Store) Stats() Stats {
	return Stats{
		Hits:     store.hits.Load(),
		Misses:   store.misses.Load(),
		Bypassed: store.bypassed.Load(),
	}
}

// Close logs the session counters. The store keeps no handles open between
// calls, so there is nothing else to release.
func (store *Store) Close() error {
	stats := store.Stats()

	store.logger.Debugf("Cache session: %d hits, %d misses, %d bypassed.", stats.Hits, stats.Misses, stats.Bypassed)

	return nil
}

// Status describes what is on disk under the cache root.
type Status struct {
	Dir     string
	Entries int
	Size    int64
}

// Status counts the records below the cache root and sums their sizes. Lock
// and temp files are not records and are skipped.
func (store *Store) Status() (Status, error) {
	status := Status{Dir: store.dir}

	partitions, err := os.ReadDir(store.dir)
	if err != nil {
		return status, errors.New(err)
	}

	for _, partition := range partitions {
		if !partition.IsDir() {
			continue
		}

		records, err := os.ReadDir(filepath.Join(store.dir, partition.Name()))
		if err != nil {
			return status, errors.New(err)
		}

		for _, rec := range records {
			if strings.Contains(rec.Name(), ".") {
				continue
			}

			info, err := rec.Info()
			if err != nil {
				return status, errors.New(err)
			}

			status.Entries++
			status.Size += info.Size()
		}
	}

	return status, nil
}

// Purge removes every record under the cache root and returns how many were
// removed. The root directory itself stays in place.
func (store *Store) Purge() (int, error) {
	removed := 0

	partitions, err := os.ReadDir(store.dir)
	if err != nil {
		return 0, errors.New(err)
	}

	for _, partition := range partitions {
		if !partition.IsDir() {
			continue
		}

		dir := filepath.Join(store.dir, partition.Name())

		records, err := os.ReadDir(dir)
		if err != nil {
			return removed, errors.New(err)
		}

		for _, rec := range records {
			if err := os.Remove(filepath.Join(dir, rec.Name())); err != nil {
				return removed, errors.New(err)
			}

			if !strings.Contains(rec.Name(), ".") {
				removed++
			}
		}

		if err := os.Remove(dir); err != nil {
			store.logger.Debugf("Leaving cache partition %s in place: %v", dir, err)
		}
	}

	return removed, nil
}
