package collect

import (
	"context"

	"github.com/worklift/worklift/internal/telemetry"
)

// Telemetry operation names for the traversal stages.
const (
	TelemetryOpCollect          = "collect_issues"
	TelemetryOpDirectMatches    = "collect_direct_matches"
	TelemetryOpEpicExpansion    = "collect_epic_expansion"
	TelemetryOpLinkExpansion    = "collect_link_expansion"
	TelemetryOpSubtaskExpansion = "collect_subtask_expansion"
)

// Telemetry attribute keys for the traversal stages.
const (
	AttrProject    = "project"
	AttrTransitive = "transitive"
	AttrCandidates = "candidates"
	AttrEpics      = "epics"
	AttrNodes      = "nodes"
	AttrFailures   = "failures"
)

// traceStage wraps one traversal stage with telemetry.
func traceStage(ctx context.Context, name string, attrs map[string]any, fn func(ctx context.Context) error) error {
	return telemetry.TelemeterFromContext(ctx).Collect(ctx, name, attrs, fn)
}
