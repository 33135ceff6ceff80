package errors_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worklift/worklift/internal/errors"
)

func TestNewAttachesStackTraceOnce(t *testing.T) {
	t.Parallel()

	err := errors.New("first failure")
	require.Error(t, err)
	assert.True(t, errors.ContainsStackTrace(err))

	// Wrapping an already traced error must not nest another trace.
	rewrapped := errors.New(err)
	assert.Equal(t, err, rewrapped)
}

func TestNewNil(t *testing.T) {
	t.Parallel()

	assert.NoError(t, errors.New(nil))
}

func TestErrorfKeepsWrappedTarget(t *testing.T) {
	t.Parallel()

	base := errors.New("base")
	err := errors.Errorf("outer context: %w", base)

	assert.True(t, errors.Is(err, base))
	assert.Contains(t, err.Error(), "outer context")
}

func TestErrorStack(t *testing.T) {
	t.Parallel()

	err := errors.New("traced")
	assert.NotEmpty(t, errors.ErrorStack(err))

	plain := fmt.Errorf("plain")
	assert.Empty(t, errors.ErrorStack(plain))
}

func TestMultiErrorAccumulation(t *testing.T) {
	t.Parallel()

	var errs *errors.MultiError

	assert.NoError(t, errs.ErrorOrNil())
	assert.Zero(t, errs.Len())

	errs = errs.Append(errors.New("one"))
	errs = errs.Append(errors.New("two"), errors.New("three"))

	require.Error(t, errs.ErrorOrNil())
	assert.Equal(t, 3, errs.Len())
	assert.Contains(t, errs.Error(), "3 errors occurred")
	assert.Contains(t, errs.Error(), "* one")
}

func TestUnwrapMultiErrorsFlattens(t *testing.T) {
	t.Parallel()

	one := errors.New("one")
	two := errors.New("two")

	var errs *errors.MultiError
	errs = errs.Append(one, two)

	flattened := errors.UnwrapMultiErrors(errs)
	assert.Len(t, flattened, 2)
}

func TestRecover(t *testing.T) {
	t.Parallel()

	var recovered error

	func() {
		defer errors.Recover(func(cause error) {
			recovered = cause
		})

		panic("boom")
	}()

	require.Error(t, recovered)
	assert.Contains(t, recovered.Error(), "boom")
	assert.True(t, errors.ContainsStackTrace(recovered))
}

func TestIsContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, errors.IsContextCanceled(errors.New(ctx.Err())))
	assert.False(t, errors.IsContextCanceled(errors.New("other")))
}

func TestErrorWithExitCode(t *testing.T) {
	t.Parallel()

	base := errors.New("fatal config problem")
	err := errors.ErrorWithExitCode{Err: base, ExitCode: 2}

	assert.Equal(t, base.Error(), err.Error())
	assert.True(t, errors.Is(err, base))
}
