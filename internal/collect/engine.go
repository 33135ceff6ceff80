package collect

import (
	"context"
	"strings"

	"github.com/worklift/worklift/internal/errors"
	"github.com/worklift/worklift/internal/jira"
	"github.com/worklift/worklift/internal/worker"
	"github.com/worklift/worklift/pkg/log"
	"github.com/worklift/worklift/util"
)

// DefaultConcurrency is the worker width used when none is configured.
const DefaultConcurrency = 10

// QueryClient is the slice of the Jira client the engine needs.
type QueryClient interface {
	SearchPages(ctx context.Context, jql string, fields []string, fn func(issues []jira.Issue) error) error
	SearchIssues(ctx context.Context, jql string, fields []string) ([]jira.Issue, error)
	GetIssue(ctx context.Context, key string, fields []string) (*jira.Issue, error)
}

// Config tunes a collection run.
type Config struct {
	ProjectKey     string
	ActivityField  string
	ActivityFilter string
	Concurrency    int

	// Transitive repeats link and sub-task expansion over newly found nodes
	// until no more issues appear. The default is a single pass.
	Transitive bool
}

// Engine expands the seed query into the full related issue set, stage by
// stage. Stages run their remote calls in parallel but merge results
// stage-sequentially, so discovery order never depends on worker timing.
type Engine struct {
	client QueryClient
	cfg    Config
	logger log.Logger
}

func NewEngine(client QueryClient, cfg Config, logger log.Logger) *Engine {
	return &Engine{
		client: client,
		cfg:    cfg,
		logger: logger.WithField(log.FieldKeyPrefix, "collect"),
	}
}

// Collect runs the ordered traversal stages and returns the deduplicated node
// set in discovery order plus the expansion steps that were skipped. The
// returned result holds whatever was accumulated even when an error cut the
// run short.
func (engine *Engine) Collect(ctx context.Context) (*Result, error) {
	store := NewNodeStore()
	failures := new(failureList)

	err := traceStage(ctx, TelemetryOpCollect, map[string]any{
		AttrProject:    engine.cfg.ProjectKey,
		AttrTransitive: engine.cfg.Transitive,
	}, func(ctx context.Context) error {
		return engine.runStages(ctx, store, failures)
	})

	result := &Result{Nodes: store.Nodes(), Failures: failures.all()}

	if err != nil {
		return result, err
	}

	engine.logger.Infof("Collection complete: %d issues, %d skipped steps.", len(result.Nodes), len(result.Failures))

	return result, nil
}

func (engine *Engine) runStages(ctx context.Context, store *NodeStore, failures *failureList) error {
	if err := engine.seedDirectMatches(ctx, store, failures); err != nil {
		return err
	}

	epics := store.Epics()

	engine.logger.Infof("Identified %d epics among %d direct matches.", len(epics), store.Len())

	if len(epics) > 0 {
		if err := engine.expandEpics(ctx, store, failures, epics); err != nil {
			return err
		}
	}

	linkDone := make(map[string]bool)
	subtaskDone := make(map[string]bool)

	for round := 1; ; round++ {
		addedLinks, err := engine.expandLinks(ctx, store, failures, pending(store.Keys(), linkDone))
		if err != nil {
			return err
		}

		addedSubtasks, err := engine.expandSubtasks(ctx, store, failures, pending(store.Keys(), subtaskDone))
		if err != nil {
			return err
		}

		if !engine.cfg.Transitive || addedLinks+addedSubtasks == 0 {
			return nil
		}

		engine.logger.Debugf("Transitive round %d added %d issues, expanding again.", round, addedLinks+addedSubtasks)
	}
}

// seedDirectMatches streams the seed query pages into the store. Auth failures
// abort the run; any other seed failure is recorded and leaves the set empty.
func (engine *Engine) seedDirectMatches(ctx context.Context, store *NodeStore, failures *failureList) error {
	jql := jira.ActivityMatchJQL(engine.cfg.ProjectKey, engine.cfg.ActivityField, engine.cfg.ActivityFilter)

	engine.logger.Infof("Searching for direct matches: %s", jql)

	err := traceStage(ctx, TelemetryOpDirectMatches, map[string]any{AttrProject: engine.cfg.ProjectKey}, func(ctx context.Context) error {
		return engine.client.SearchPages(ctx, jql, jira.SearchFields, func(issues []jira.Issue) error {
			for _, issue := range issues {
				store.Add(nodeFromIssue(issue, Origin{Stage: StageDirect}))
			}

			return nil
		})
	})

	if err != nil {
		var authErr jira.AuthError
		if errors.As(err, &authErr) {
			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.New(ctxErr)
		}

		engine.logger.Errorf("Seed query failed, nothing to expand: %s", err)
		failures.add("", StageDirect, err)

		return nil
	}

	engine.logger.Infof("Found %d direct matches.", store.Len())

	return nil
}

func (engine *Engine) expandEpics(ctx context.Context, store *NodeStore, failures *failureList, epics []string) error {
	engine.logger.Infof("Expanding %d epics: %s.", len(epics), util.CommaSeparatedStrings(epics))

	results := make([][]jira.Issue, len(epics))

	err := traceStage(ctx, TelemetryOpEpicExpansion, map[string]any{AttrEpics: len(epics)}, func(ctx context.Context) error {
		pool := worker.NewWorkerPool(engine.concurrency())

		for i, epicKey := range epics {
			pool.Submit(func() error {
				issues, err := engine.client.SearchIssues(ctx, jira.EpicChildrenJQL(engine.cfg.ProjectKey, epicKey), jira.SearchFields)
				if err != nil {
					engine.logger.Warnf("Skipping epic expansion of %s: %s", epicKey, err)
					failures.add(epicKey, StageEpic, err)

					return nil
				}

				results[i] = issues

				return nil
			})
		}

		return pool.GracefulStop()
	})
	if err != nil {
		return err
	}

	added := 0

	for i, epicKey := range epics {
		for _, issue := range results[i] {
			if store.Add(nodeFromIssue(issue, Origin{Stage: StageEpic, Via: epicKey})) {
				added++
			}
		}
	}

	engine.logger.Infof("Epic expansion added %d issues.", added)

	return ctxErr(ctx)
}

func (engine *Engine) expandLinks(ctx context.Context, store *NodeStore, failures *failureList, candidates []string) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}

	engine.logger.Infof("Checking %d issues for links.", len(candidates))

	results := make([][]string, len(candidates))

	err := traceStage(ctx, TelemetryOpLinkExpansion, map[string]any{AttrCandidates: len(candidates)}, func(ctx context.Context) error {
		pool := worker.NewWorkerPool(engine.concurrency())

		for i, key := range candidates {
			pool.Submit(func() error {
				issue, err := engine.client.GetIssue(ctx, key, jira.LinkFields)
				if err != nil {
					engine.logger.Warnf("Skipping link expansion of %s: %s", key, err)
					failures.add(key, StageLink, err)

					return nil
				}

				results[i] = issue.LinkedKeys()

				return nil
			})
		}

		return pool.GracefulStop()
	})
	if err != nil {
		return 0, err
	}

	// Links may point at other projects; only keys of the configured project
	// join the set.
	projectPrefix := engine.cfg.ProjectKey + "-"
	added := 0

	for i, key := range candidates {
		for _, linked := range util.RemoveDuplicatesFromList(results[i]) {
			if !strings.HasPrefix(linked, projectPrefix) {
				continue
			}

			if store.Add(Node{Key: linked, Origin: Origin{Stage: StageLink, Via: key}}) {
				added++
			}
		}
	}

	engine.logger.Infof("Link expansion added %d issues.", added)

	return added, ctxErr(ctx)
}

func (engine *Engine) expandSubtasks(ctx context.Context, store *NodeStore, failures *failureList, candidates []string) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}

	engine.logger.Infof("Checking %d issues for sub-tasks.", len(candidates))

	results := make([][]string, len(candidates))

	err := traceStage(ctx, TelemetryOpSubtaskExpansion, map[string]any{AttrCandidates: len(candidates)}, func(ctx context.Context) error {
		pool := worker.NewWorkerPool(engine.concurrency())

		for i, key := range candidates {
			pool.Submit(func() error {
				issue, err := engine.client.GetIssue(ctx, key, jira.SubtaskFields)
				if err != nil {
					engine.logger.Warnf("Skipping sub-task expansion of %s: %s", key, err)
					failures.add(key, StageSubtask, err)

					return nil
				}

				results[i] = issue.SubtaskKeys()

				return nil
			})
		}

		return pool.GracefulStop()
	})
	if err != nil {
		return 0, err
	}

	added := 0

	for i, key := range candidates {
		for _, subtask := range results[i] {
			if store.Add(Node{Key: subtask, Origin: Origin{Stage: StageSubtask, Via: key}}) {
				added++
			}
		}
	}

	engine.logger.Infof("Sub-task expansion added %d issues.", added)

	return added, ctxErr(ctx)
}

func (engine *Engine) concurrency() int {
	if engine.cfg.Concurrency > 0 {
		return engine.cfg.Concurrency
	}

	return DefaultConcurrency
}

func nodeFromIssue(issue jira.Issue, origin Origin) Node {
	return Node{
		Key:       issue.Key,
		Summary:   issue.Fields.Summary,
		IssueType: issue.Fields.IssueType.Name,
		Origin:    origin,
	}
}

// pending returns the keys not yet marked in done, marking them as it goes.
func pending(keys []string, done map[string]bool) []string {
	var out []string

	for _, key := range keys {
		if !done[key] {
			done[key] = true

			out = append(out, key)
		}
	}

	return out
}

func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.New(err)
	}

	return nil
}
