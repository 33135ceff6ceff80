// Package cli wires up the worklift command line application.
package cli

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/worklift/worklift/cli/commands"
	"github.com/worklift/worklift/cli/commands/common"
	"github.com/worklift/worklift/cli/commands/export"
	"github.com/worklift/worklift/cli/flags"
	"github.com/worklift/worklift/internal/telemetry"
	"github.com/worklift/worklift/options"
	"github.com/worklift/worklift/pkg/env"
	"github.com/worklift/worklift/pkg/log"
	"github.com/worklift/worklift/pkg/version"
)

const appName = "worklift"

// NewApp creates the worklift CLI app. A bare `worklift` invocation runs the
// export command, so its flags are installed at the top level too.
func NewApp(opts *options.WorkliftOptions) *cli.App {
	var telemeter *telemetry.Telemeter

	app := cli.NewApp()
	app.Name = appName
	app.Usage = "Export Jira worklogs for every issue related to an ERP activity:\ndirect matches, epic children, linked issues and sub-tasks."
	app.UsageText = "worklift [command] [options]"
	app.Version = version.GetVersion()
	app.Writer = opts.Writer
	app.ErrWriter = opts.ErrWriter
	app.Flags = append(flags.NewGlobalFlags(opts), export.NewFlags(opts)...)
	app.Commands = commands.New(opts)

	app.Before = func(cliCtx *cli.Context) error {
		// Colors are dropped when asked to, or when stderr is not a terminal.
		if opts.DisableColors || !common.IsTerminal(opts.ErrWriter) {
			opts.DisableColors = true
			opts.LogFormatter.DisableColors = true
		}

		tlm, err := telemetry.NewTelemeter(cliCtx.Context, appName, app.Version, opts.ErrWriter, telemetryOptionsFromEnv())
		if err != nil {
			return err
		}

		telemeter = tlm

		cliCtx.Context = telemetry.ContextWithTelemeter(cliCtx.Context, telemeter)
		cliCtx.Context = log.ContextWithLogger(cliCtx.Context, opts.Logger)

		return nil
	}

	app.After = func(cliCtx *cli.Context) error {
		if telemeter == nil {
			return nil
		}

		return telemeter.Shutdown(cliCtx.Context)
	}

	app.Action = func(cliCtx *cli.Context) error {
		return export.Run(cliCtx.Context, opts)
	}

	// Errors are rendered by the caller, on exit.
	app.ExitErrHandler = func(cliCtx *cli.Context, err error) {}

	return app
}

// telemetryOptionsFromEnv reads the exporter configuration. Telemetry stays
// off unless an exporter is named.
func telemetryOptionsFromEnv() *telemetry.Options {
	envs := env.Parse(os.Environ())

	return &telemetry.Options{
		TraceExporter:                  env.GetStringEnv(envs, "WORKLIFT_TELEMETRY_TRACE_EXPORTER", ""),
		TraceExporterHTTPEndpoint:      env.GetStringEnv(envs, "WORKLIFT_TELEMETRY_TRACE_EXPORTER_HTTP_ENDPOINT", ""),
		TraceExporterInsecureEndpoint:  env.GetBoolEnv(envs, "WORKLIFT_TELEMETRY_TRACE_EXPORTER_INSECURE_ENDPOINT", false),
		TraceParent:                    env.GetStringEnv(envs, "TRACEPARENT", ""),
		MetricExporter:                 env.GetStringEnv(envs, "WORKLIFT_TELEMETRY_METRIC_EXPORTER", ""),
		MetricExporterInsecureEndpoint: env.GetBoolEnv(envs, "WORKLIFT_TELEMETRY_METRIC_EXPORTER_INSECURE_ENDPOINT", false),
	}
}
