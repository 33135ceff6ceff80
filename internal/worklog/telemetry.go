package worklog

import (
	"context"

	"github.com/worklift/worklift/internal/telemetry"
)

const (
	TelemetryOpExtract   = "extract_worklogs"
	TelemetryOpFetchNode = "fetch_node"

	AttrIssues = "issues"
	AttrKey    = "key"
)

// traceExtraction wraps the whole extraction phase with telemetry.
func traceExtraction(ctx context.Context, issues int, fn func(ctx context.Context) error) error {
	return telemetry.TelemeterFromContext(ctx).Collect(ctx, TelemetryOpExtract, map[string]any{
		AttrIssues: issues,
	}, fn)
}

// traceNode wraps the fetch of a single node with telemetry.
func traceNode(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return telemetry.TelemeterFromContext(ctx).Collect(ctx, TelemetryOpFetchNode, map[string]any{
		AttrKey: key,
	}, fn)
}
