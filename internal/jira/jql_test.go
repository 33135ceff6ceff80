package jira

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActivityMatchJQL(t *testing.T) {
	t.Parallel()

	jql := ActivityMatchJQL("ZYN", "ERP Activity", "ProjectTask-00000007118797")
	assert.Equal(t, `project = ZYN AND "ERP Activity" ~ "ProjectTask-00000007118797"`, jql)
}

func TestActivityMatchJQLEscapesFilter(t *testing.T) {
	t.Parallel()

	jql := ActivityMatchJQL("ZYN", "ERP Activity", `task "alpha" \ beta`)
	assert.Equal(t, `project = ZYN AND "ERP Activity" ~ "task \"alpha\" \\ beta"`, jql)
}

func TestEpicChildrenJQL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `project = ZYN AND "Epic Link" = ZYN-100`, EpicChildrenJQL("ZYN", "ZYN-100"))
}

func TestKeysJQL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `key in ("ZYN-1", "ZYN-2")`, KeysJQL([]string{"ZYN-1", "ZYN-2"}))
}

func TestValidProjectKey(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		key      string
		expected bool
	}{
		{"ZYN", true},
		{"AB2", true},
		{"INT_OPS", true},
		{"zyn", false},
		{"2YN", false},
		{"ZYN-1", false},
		{"", false},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, ValidProjectKey(tc.key), "key %q", tc.key)
	}
}
