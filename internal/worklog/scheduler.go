// Package worklog turns collected issue keys into worklog entries.
//
// Every node resolves its metadata and its full worklog history through the
// cache, fanned out over the bounded worker pool. A node that cannot be
// resolved is excluded from the output and recorded; the rest of the batch is
// unaffected.
package worklog

import (
	"context"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/worklift/worklift/internal/cache"
	"github.com/worklift/worklift/internal/errors"
	"github.com/worklift/worklift/internal/jira"
	"github.com/worklift/worklift/internal/worker"
	"github.com/worklift/worklift/pkg/log"
)

// DefaultConcurrency is the worker width used when none is configured.
const DefaultConcurrency = 10

// Cache kinds the scheduler stores under.
const (
	KindMetadata = "metadata"
	KindWorklogs = "worklogs"
)

// State tracks a node task through the fetch pipeline. Cache hits go straight
// from pending to done; fetching is entered only when a live call is made.
type State string

const (
	StatePending  State = "pending"
	StateFetching State = "fetching"
	StateDone     State = "done"
	StateFailed   State = "failed"
)

// Client is the slice of the Jira client the scheduler needs.
type Client interface {
	GetIssue(ctx context.Context, key string, fields []string) (*jira.Issue, error)
	Worklogs(ctx context.Context, key string) ([]jira.Worklog, error)
}

// Progress receives a completion update each time a node task settles.
type Progress func(done, total int)

// Config tunes a scheduler.
type Config struct {
	Concurrency int
	Progress    Progress
}

// Failure records one node excluded from the export.
type Failure struct {
	Key string
	Err error
}

// Result is the outcome of an extraction: the entries of every resolved node
// plus the nodes that were excluded.
type Result struct {
	Entries  []Entry
	Failures []Failure
}

// TotalSeconds sums the logged time across all entries.
func (result *Result) TotalSeconds() int64 {
	var total int64

	for _, entry := range result.Entries {
		total += entry.TimeSpentSeconds
	}

	return total
}

// Scheduler fans node fetches out over the worker pool, joining worklog rows
// with issue metadata through the cache.
type Scheduler struct {
	client Client
	store  *cache.Store
	cfg    Config
	logger log.Logger
	states *xsync.MapOf[string, State]
}

func NewScheduler(client Client, store *cache.Store, cfg Config, logger log.Logger) *Scheduler {
	return &Scheduler{
		client: client,
		store:  store,
		cfg:    cfg,
		logger: logger.WithField(log.FieldKeyPrefix, "worklog"),
		states: xsync.NewMapOf[string, State](),
	}
}

// ExtractWorklogs resolves metadata and worklog history for every key and
// returns the joined rows. The call returns once every submitted task has
// settled; on cancellation the accumulated portion is returned alongside the
// context error.
func (scheduler *Scheduler) ExtractWorklogs(ctx context.Context, keys []string) (*Result, error) {
	result := new(Result)

	err := traceExtraction(ctx, len(keys), func(ctx context.Context) error {
		return scheduler.run(ctx, keys, result)
	})
	if err != nil {
		return result, err
	}

	return result, nil
}

func (scheduler *Scheduler) run(ctx context.Context, keys []string, result *Result) error {
	total := len(keys)

	scheduler.logger.Infof("Extracting worklogs from %d issues with %d workers.", total, scheduler.concurrency())

	for _, key := range keys {
		scheduler.states.Store(key, StatePending)
	}

	// Workers write into their own slot; the merge below happens after the
	// pool barrier on a single goroutine.
	entries := make([][]Entry, len(keys))
	failures := make([]*Failure, len(keys))

	pool := worker.NewWorkerPool(scheduler.concurrency())

	var done atomic.Int64

	for i, key := range keys {
		pool.Submit(func() error {
			nodeEntries, err := scheduler.extractNode(ctx, key)
			if err != nil {
				scheduler.logger.Warnf("Excluding %s from the export: %s", key, err)
				scheduler.states.Store(key, StateFailed)

				failures[i] = &Failure{Key: key, Err: err}
			} else {
				scheduler.states.Store(key, StateDone)

				entries[i] = nodeEntries
			}

			if scheduler.cfg.Progress != nil {
				scheduler.cfg.Progress(int(done.Add(1)), total)
			}

			return nil
		})
	}

	if err := pool.GracefulStop(); err != nil {
		return err
	}

	for i := range keys {
		if failures[i] != nil {
			result.Failures = append(result.Failures, *failures[i])

			continue
		}

		result.Entries = append(result.Entries, entries[i]...)
	}

	scheduler.logger.Infof("Extracted %d worklog entries from %d issues, %d excluded.",
		len(result.Entries), total-len(result.Failures), len(result.Failures))

	if err := ctx.Err(); err != nil {
		return errors.New(err)
	}

	return nil
}

func (scheduler *Scheduler) extractNode(ctx context.Context, key string) ([]Entry, error) {
	var entries []Entry

	err := traceNode(ctx, key, func(ctx context.Context) error {
		metadata, err := scheduler.nodeMetadata(ctx, key)
		if err != nil {
			return err
		}

		worklogs, err := cache.Fetch(ctx, scheduler.store, KindWorklogs, key, func(ctx context.Context) ([]jira.Worklog, error) {
			scheduler.states.Store(key, StateFetching)

			return scheduler.client.Worklogs(ctx, key)
		})
		if err != nil {
			return err
		}

		entries = make([]Entry, 0, len(worklogs))

		for _, worklog := range worklogs {
			entries = append(entries, newEntry(metadata, worklog))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (scheduler *Scheduler) nodeMetadata(ctx context.Context, key string) (jira.Metadata, error) {
	return cache.Fetch(ctx, scheduler.store, KindMetadata, key, func(ctx context.Context) (jira.Metadata, error) {
		scheduler.states.Store(key, StateFetching)

		issue, err := scheduler.client.GetIssue(ctx, key, jira.MetadataFields)
		if err != nil {
			return jira.Metadata{}, err
		}

		return issue.Metadata(), nil
	})
}

// States returns a snapshot of the per-node state table.
func (scheduler *Scheduler) States() map[string]State {
	snapshot := make(map[string]State, scheduler.states.Size())

	scheduler.states.Range(func(key string, state State) bool {
		snapshot[key] = state

		return true
	})

	return snapshot
}

func (scheduler *Scheduler) concurrency() int {
	if scheduler.cfg.Concurrency > 0 {
		return scheduler.cfg.Concurrency
	}

	return DefaultConcurrency
}
