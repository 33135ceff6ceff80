package errors

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// MultiError accumulates multiple errors and renders them as an itemized list.
type MultiError struct {
	inner *multierror.Error
}

// Error implements the error interface.
func (errs *MultiError) Error() string {
	wrappedErrs := UnwrapMultiErrors(errs)

	items := make([]string, 0, len(wrappedErrs))
	for _, err := range wrappedErrs {
		items = append(items, indentItem(err.Error()))
	}

	if len(items) == 1 {
		return fmt.Sprintf("error occurred:\n\n%s\n", items[0])
	}

	return fmt.Sprintf("%d errors occurred:\n\n%s\n", len(items), strings.Join(items, "\n\n"))
}

// WrappedErrors returns the error slice this MultiError is wrapping.
func (errs *MultiError) WrappedErrors() []error {
	if errs.inner == nil {
		return nil
	}

	return errs.inner.WrappedErrors()
}

func (errs *MultiError) Unwrap() []error {
	return errs.WrappedErrors()
}

// ErrorOrNil returns the receiver as an error if it holds at least one error,
// nil otherwise.
func (errs *MultiError) ErrorOrNil() error {
	if errs == nil || errs.inner == nil {
		return nil
	}

	if err := errs.inner.ErrorOrNil(); err != nil {
		return errs
	}

	return nil
}

// Append appends the given errors, allocating the receiver if needed, and
// returns the merged MultiError.
func (errs *MultiError) Append(appendErrs ...error) *MultiError {
	if errs == nil {
		errs = &MultiError{inner: new(multierror.Error)}
	}

	return &MultiError{inner: multierror.Append(errs.inner, appendErrs...)}
}

// Len returns the number of accumulated errors.
func (errs *MultiError) Len() int {
	if errs == nil || errs.inner == nil {
		return 0
	}

	return len(errs.inner.Errors)
}

func indentItem(str string) string {
	str = strings.ReplaceAll(str, "\r\n", "\n")
	lines := strings.Split(str, "\n")

	for i, line := range lines {
		if i == 0 {
			lines[i] = "* " + line
		} else {
			lines[i] = "  " + line
		}
	}

	return strings.Join(lines, "\n")
}
