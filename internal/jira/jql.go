package jira

import (
	"fmt"
	"regexp"
	"strings"
)

var projectKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// ValidProjectKey reports whether the value looks like a Jira project key.
func ValidProjectKey(key string) bool {
	return projectKeyPattern.MatchString(key)
}

// QuoteString escapes a value for embedding in a double quoted JQL string.
func QuoteString(val string) string {
	val = strings.ReplaceAll(val, `\`, `\\`)
	val = strings.ReplaceAll(val, `"`, `\"`)

	return `"` + val + `"`
}

// ActivityMatchJQL is the seed query: issues in the project whose activity
// field fuzzy-matches the filter value.
func ActivityMatchJQL(projectKey, activityField, activityFilter string) string {
	return fmt.Sprintf(`project = %s AND "%s" ~ %s`, projectKey, activityField, QuoteString(activityFilter))
}

// EpicChildrenJQL is the query for issues of the project that belong to the
// given epic.
func EpicChildrenJQL(projectKey, epicKey string) string {
	return fmt.Sprintf(`project = %s AND "Epic Link" = %s`, projectKey, epicKey)
}

// KeysJQL is the query for an explicit set of issue keys.
func KeysJQL(keys []string) string {
	quoted := make([]string, 0, len(keys))

	for _, key := range keys {
		quoted = append(quoted, QuoteString(key))
	}

	return fmt.Sprintf(`key in (%s)`, strings.Join(quoted, ", "))
}
