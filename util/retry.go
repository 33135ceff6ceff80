package util

import (
	"context"
	"fmt"
	"time"

	"github.com/worklift/worklift/internal/errors"
	"github.com/worklift/worklift/pkg/log"
)

const (
	// DefaultMaxRetries is how many times a failed action is retried before giving up.
	DefaultMaxRetries = 3

	// DefaultBaseDelay is the sleep before the first retry. Each further retry doubles it.
	DefaultBaseDelay = time.Second

	// DefaultMaxDelay caps the exponential backoff delay.
	DefaultMaxDelay = 30 * time.Second
)

// RetryPolicy controls how `DoWithRetry` spaces its attempts. The delay doubles
// after each failed attempt, starting from `BaseDelay` and capped at `MaxDelay`.
// `Jitter` adds a random fraction on top so parallel workers do not retry in lockstep.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     bool
}

// DefaultRetryPolicy returns the policy used when nothing overrides it.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
		Jitter:     true,
	}
}

// Delay returns the sleep duration before the retry that follows the given
// zero-based attempt.
func (policy RetryPolicy) Delay(attempt int) time.Duration {
	delay := policy.BaseDelay
	if delay <= 0 {
		delay = DefaultBaseDelay
	}

	for range attempt {
		delay *= 2

		if policy.MaxDelay > 0 && delay >= policy.MaxDelay {
			delay = policy.MaxDelay
			break
		}
	}

	if policy.Jitter {
		delay += RandomDuration(0, delay/4)
	}

	return delay
}

// RetryAfterer is implemented by errors that tell the caller how long to wait
// before trying again, such as rate limit responses carrying a `Retry-After` header.
type RetryAfterer interface {
	RetryAfter() time.Duration
}

// DoWithRetry runs the specified action. If it returns nil, return nil. If it returns an error, sleep
// per the given policy and try again, up to a maximum of `policy.MaxRetries` retries. If the retries
// are exceeded, return a `MaxRetriesExceeded` error. Errors wrapped in `FatalError` are returned
// immediately, and errors implementing `RetryAfterer` stretch the sleep to the server-provided hint.
func DoWithRetry(ctx context.Context, actionDescription string, policy RetryPolicy, logger log.Logger, logLevel log.Level, action func(ctx context.Context) error) error {
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		logger.Logf(logLevel, actionDescription)

		err := action(ctx)
		if err == nil {
			return nil
		}

		var fatalErr FatalError
		if ok := errors.As(err, &fatalErr); ok {
			return err
		}

		if ctx.Err() != nil {
			logger.Debugf("%s returned an error: %s.", actionDescription, err.Error())

			return errors.New(ctx.Err())
		}

		delay := policy.Delay(attempt)

		var retryAfterErr RetryAfterer
		if errors.As(err, &retryAfterErr) {
			if hint := retryAfterErr.RetryAfter(); hint > delay {
				delay = hint
			}
		}

		logger.Warnf("%s returned an error: %s. Retry %d of %d. Sleeping for %s and will try again.", actionDescription, err.Error(), attempt+1, policy.MaxRetries, delay)

		select {
		case <-time.After(delay): // Try again
		case <-ctx.Done():
			return errors.New(ctx.Err())
		}
	}

	return MaxRetriesExceeded{Description: actionDescription, MaxRetries: policy.MaxRetries}
}

// MaxRetriesExceeded is an error that occurs when the maximum amount of retries is exceeded.
type MaxRetriesExceeded struct {
	Description string
	MaxRetries  int
}

func (err MaxRetriesExceeded) Error() string {
	return fmt.Sprintf("'%s' unsuccessful after %d retries", err.Description, err.MaxRetries)
}

// FatalError is error interface for cases that should not be retried.
type FatalError struct {
	Underlying error
}

func (err FatalError) Error() string {
	return err.Underlying.Error()
}

func (err FatalError) Unwrap() error {
	return err.Underlying
}
