package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/worklift/worklift/cli"
	"github.com/worklift/worklift/internal/errors"
	"github.com/worklift/worklift/options"
	"github.com/worklift/worklift/pkg/log"
	"github.com/worklift/worklift/util"
)

const dotenvFile = ".env"

// The main entrypoint for worklift
func main() {
	opts := options.NewWorkliftOptions()

	// The `.env` file must be loaded before the CLI app runs, since flag
	// values may come from environment variables parsed during flag parsing.
	if util.FileExists(dotenvFile) {
		if err := godotenv.Load(dotenvFile); err != nil {
			opts.Logger.Warnf("Could not load %s file: %v", dotenvFile, err)
		}
	}

	defer errors.Recover(checkForErrorsAndExit(opts.Logger))

	app := cli.NewApp(opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.RunContext(log.ContextWithLogger(ctx, opts.Logger), os.Args)
	stop()

	checkForErrorsAndExit(opts.Logger)(err)
}

// If there is an error, display it in the console and exit with a non-zero exit code. Otherwise, exit 0.
func checkForErrorsAndExit(logger log.Logger) func(error) {
	return func(err error) {
		if err == nil {
			os.Exit(0)
		}

		if errors.IsContextCanceled(err) {
			logger.Error("Run canceled.")
			os.Exit(1)
		}

		logger.Error(err.Error())

		if errStack := errors.ErrorStack(err); errStack != "" {
			logger.Trace(errStack)
		}

		exitCode := 1

		var exitCodeErr errors.ErrorWithExitCode
		if errors.As(err, &exitCodeErr) {
			exitCode = exitCodeErr.ExitCode
		}

		os.Exit(exitCode)
	}
}
