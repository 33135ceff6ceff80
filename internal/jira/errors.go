package jira

import (
	"fmt"
	"strings"
	"time"
)

// AuthError is returned when Jira rejects the configured credentials.
type AuthError struct {
	StatusCode int
}

func (err AuthError) Error() string {
	return fmt.Sprintf("jira rejected the configured credentials: status code %d", err.StatusCode)
}

// QueryError is returned when Jira rejects a JQL query as malformed.
type QueryError struct {
	JQL      string
	Messages []string
}

func (err QueryError) Error() string {
	if len(err.Messages) > 0 {
		return fmt.Sprintf("jira rejected the query %q: %s", err.JQL, strings.Join(err.Messages, "; "))
	}

	return fmt.Sprintf("jira rejected the query %q", err.JQL)
}

// NotFoundError is returned for an issue that does not exist or is not visible
// to the configured account.
type NotFoundError struct {
	Key string
}

func (err NotFoundError) Error() string {
	return fmt.Sprintf("issue %s does not exist or is not visible to the configured account", err.Key)
}

// RateLimitError is returned on HTTP 429 responses.
type RateLimitError struct {
	RetryAfterHint time.Duration
}

func (err RateLimitError) Error() string {
	if err.RetryAfterHint > 0 {
		return fmt.Sprintf("jira rate limit hit, server asks to retry after %s", err.RetryAfterHint)
	}

	return "jira rate limit hit"
}

// RetryAfter exposes the server hint to the retry loop.
func (err RateLimitError) RetryAfter() time.Duration {
	return err.RetryAfterHint
}

// APIError is returned for any other unsuccessful status code.
type APIError struct {
	URL        string
	StatusCode int
	Messages   []string
}

func (err APIError) Error() string {
	if len(err.Messages) > 0 {
		return fmt.Sprintf("failed to fetch url %s: status code %d: %s", err.URL, err.StatusCode, strings.Join(err.Messages, "; "))
	}

	return fmt.Sprintf("failed to fetch url %s: status code %d", err.URL, err.StatusCode)
}
