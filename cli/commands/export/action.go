package export

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/worklift/worklift/cli/commands/common"
	"github.com/worklift/worklift/internal/collect"
	"github.com/worklift/worklift/internal/errors"
	"github.com/worklift/worklift/internal/report"
	"github.com/worklift/worklift/internal/worklog"
	"github.com/worklift/worklift/options"
	"github.com/worklift/worklift/pkg/log"
)

// Run executes the export: collect the related issue set, extract every
// worklog through the cache, render the artifacts and print the summary.
// Partial failures never abort the run; they end up in the skipped list.
func Run(ctx context.Context, opts *options.WorkliftOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	client, err := common.NewJiraClient(opts)
	if err != nil {
		return err
	}

	store, err := common.OpenCacheStore(opts)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	logBanner(opts)

	client.CheckServerVersion(ctx)

	startedAt := time.Now()

	collection, err := common.NewCollectionEngine(client, opts).Collect(ctx)
	if err != nil {
		return err
	}

	collectionTime := time.Since(startedAt)

	if len(collection.Nodes) == 0 {
		opts.Logger.Warnf("No issues found for activity %q in project %s, nothing to export.", opts.ActivityFilter, opts.ProjectKey)

		return writeFailures(opts.Writer, mergeFailures(collection.Failures, nil))
	}

	scheduler := worklog.NewScheduler(client, store, worklog.Config{
		Concurrency: opts.Concurrency,
		Progress:    newProgressPrinter(opts.ErrWriter).update,
	}, opts.Logger)

	extractionStartedAt := time.Now()

	extraction, err := scheduler.ExtractWorklogs(ctx, collection.Keys())
	if err != nil {
		return err
	}

	extractionTime := time.Since(extractionStartedAt)

	data := &report.Data{
		Project:     opts.ProjectKey,
		JiraURL:     opts.JiraURL,
		Activity:    opts.ActivityFilter,
		GeneratedAt: time.Now(),
		Entries:     extraction.Entries,
		Stats:       report.Aggregate(extraction.Entries),
		Failures:    mergeFailures(collection.Failures, extraction.Failures),
		Timing: report.Timing{
			Collection: collectionTime,
			Extraction: extractionTime,
			Total:      time.Since(startedAt),
		},
	}

	paths, err := report.NewWriter(opts.Logger, opts.OutputDir, opts.Format).Write(ctx, data)
	if err != nil {
		return err
	}

	colorizer := report.NewColorizer(common.ShouldColor(opts, opts.Writer))

	if err := report.WriteSummary(opts.Writer, data.Stats, colorizer); err != nil {
		return err
	}

	if err := writeFailures(opts.Writer, data.Failures); err != nil {
		return err
	}

	logCompletion(opts.Logger, data, paths)

	return nil
}

// logBanner logs the run configuration so every export records what produced it.
func logBanner(opts *options.WorkliftOptions) {
	logger := opts.Logger

	logger.Infof("Exporting worklogs for project %s from %s.", opts.ProjectKey, opts.JiraURL)
	logger.Infof("Activity filter: %q.", opts.ActivityFilter)
	logger.Infof("Output: %s format in %s.", opts.Format, opts.OutputDir)

	if opts.NoCache {
		logger.Infof("Cache reads bypassed, fresh responses are still written to %s.", opts.CacheDir)
	} else {
		logger.Infof("Cache: %s, TTL %s.", opts.CacheDir, opts.CacheTTL)
	}
}

func logCompletion(logger log.Logger, data *report.Data, paths []string) {
	if len(paths) == 0 {
		return
	}

	logger.Infof("Exported %d worklog entries (%.2f hours) from %d issues in %s.",
		data.Stats.TotalEntries, data.Stats.TotalHours, len(data.Stats.Issues), data.Timing.Total.Round(time.Millisecond))
	logger.Infof("Artifacts: %s.", strings.Join(paths, ", "))
}

// mergeFailures folds the traversal and extraction failure lists into the
// display shape, traversal first.
func mergeFailures(collectFailures []collect.Failure, fetchFailures []worklog.Failure) []report.Failure {
	failures := make([]report.Failure, 0, len(collectFailures)+len(fetchFailures))

	for _, failure := range collectFailures {
		key := failure.Key
		if key == "" {
			key = "-"
		}

		failures = append(failures, report.Failure{Key: key, Stage: string(failure.Stage), Reason: failure.Err.Error()})
	}

	for _, failure := range fetchFailures {
		failures = append(failures, report.Failure{Key: failure.Key, Stage: "worklog", Reason: failure.Err.Error()})
	}

	return failures
}

// writeFailures itemizes every skipped key so a partial export is never
// silent about what it is missing.
func writeFailures(w io.Writer, failures []report.Failure) error {
	if len(failures) == 0 {
		return nil
	}

	if _, err := fmt.Fprintf(w, "\nSkipped %d:\n", len(failures)); err != nil {
		return errors.New(err)
	}

	for _, failure := range failures {
		if _, err := fmt.Fprintf(w, "  %s (%s): %s\n", failure.Key, failure.Stage, failure.Reason); err != nil {
			return errors.New(err)
		}
	}

	return nil
}

// progressPrinter renders an in-place counter line on a terminal. Updates
// arrive from concurrent workers and may be out of order, so only a higher
// count than the last printed one redraws the line.
type progressPrinter struct {
	mu   sync.Mutex
	w    io.Writer
	tty  bool
	last int
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{
		w:   w,
		tty: common.IsTerminal(w),
	}
}

func (printer *progressPrinter) update(done, total int) {
	if !printer.tty {
		return
	}

	printer.mu.Lock()
	defer printer.mu.Unlock()

	if done <= printer.last {
		return
	}

	printer.last = done

	fmt.Fprintf(printer.w, "\rFetching worklogs: %d of %d issues", done, total) //nolint:errcheck

	if done == total {
		fmt.Fprintln(printer.w) //nolint:errcheck
	}
}
