// Package errors contains helper functions for wrapping errors with stack
// traces, multi-error accumulation, and panic recovery.
package errors

import (
	"context"
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// New returns the given value as an error wrapped with a stack trace.
// If the value already carries a stack trace somewhere in its tree, it is
// returned as is to avoid nesting traces. A nil error stays nil.
func New(val any) error {
	if val == nil {
		return nil
	}

	err, ok := val.(error)
	if !ok {
		err = fmt.Errorf("%v", val)
	}

	if ContainsStackTrace(err) {
		return err
	}

	return goerrors.Wrap(err, 1)
}

// Errorf creates a new error with the given format and wraps it with a stack
// trace. The `%w` verb works as it does with `fmt.Errorf`.
func Errorf(format string, args ...any) error {
	err := fmt.Errorf(format, args...)

	if ContainsStackTrace(err) {
		return err
	}

	return goerrors.Wrap(err, 1)
}

// ErrorWithExitCode is an error that carries the process exit code.
type ErrorWithExitCode struct {
	Err      error
	ExitCode int
}

func (err ErrorWithExitCode) Error() string {
	return err.Err.Error()
}

func (err ErrorWithExitCode) Unwrap() error {
	return err.Err
}

// ErrorStack returns the stack traces found in the given error tree, one per
// wrapped error that carries one. Empty string when there are none.
func ErrorStack(err error) string {
	var stacks string

	for _, err := range UnwrapMultiErrors(err) {
		for {
			if err, ok := err.(interface{ ErrorStack() string }); ok {
				if stacks != "" {
					stacks += "\n"
				}

				stacks += err.ErrorStack()
			}

			if err = errors.Unwrap(err); err == nil {
				break
			}
		}
	}

	return stacks
}

// ContainsStackTrace returns true if any error in the given tree carries a
// stack trace. Used to avoid wrapping a trace in another trace.
func ContainsStackTrace(err error) bool {
	for _, err := range UnwrapMultiErrors(err) {
		for {
			if _, ok := err.(interface{ ErrorStack() string }); ok {
				return true
			}

			if err = errors.Unwrap(err); err == nil {
				break
			}
		}
	}

	return false
}

// IsContextCanceled returns true if the error was caused by `context.Canceled`,
// which is an expected shutdown event rather than a failure.
func IsContextCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Recover recovers from panics and, if one occurred, calls onPanic with an
// error describing the cause. Must be called from a defer statement.
func Recover(onPanic func(cause error)) {
	if rec := recover(); rec != nil {
		err, ok := rec.(error)
		if !ok {
			err = fmt.Errorf("%v", rec)
		}

		onPanic(New(err))
	}
}

// UnwrapMultiErrors flattens all nested multi-errors in the tree into a slice.
// An error without multi-error nodes comes back as a one-element slice.
func UnwrapMultiErrors(err error) []error {
	errs := []error{err}

	for index := 0; index < len(errs); index++ {
		err := errs[index]

		for {
			if err, ok := err.(interface{ Unwrap() []error }); ok {
				errs = append(errs[:index], errs[index+1:]...)
				index--

				errs = append(errs, err.Unwrap()...)

				break
			}

			if err = errors.Unwrap(err); err == nil {
				break
			}
		}
	}

	return errs
}

// UnwrapErrors flattens nested multi-errors and `fmt.Errorf("%w", err)` chains
// into a slice of every error in the tree.
func UnwrapErrors(err error) []error {
	var errs []error

	for _, err := range UnwrapMultiErrors(err) {
		for {
			errs = append(errs, err)

			if err = errors.Unwrap(err); err == nil {
				break
			}
		}
	}

	return errs
}
