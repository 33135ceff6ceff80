package env_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/worklift/worklift/pkg/env"
)

func TestParse(t *testing.T) {
	t.Parallel()

	envs := env.Parse([]string{"WORKLIFT_PROJECT=ZYN", "WORKLIFT_NO_CACHE=true", "malformed"})

	assert.Equal(t, map[string]string{
		"WORKLIFT_PROJECT":  "ZYN",
		"WORKLIFT_NO_CACHE": "true",
	}, envs)
}

func TestGetBoolEnv(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		envs     map[string]string
		fallback bool
		expected bool
	}{
		{envs: map[string]string{"TEST_VAR": "true"}, fallback: false, expected: true},
		{envs: map[string]string{"TEST_VAR": "0"}, fallback: true, expected: false},
		{envs: map[string]string{"TEST_VAR": "not-a-bool"}, fallback: true, expected: true},
		{envs: map[string]string{}, fallback: true, expected: true},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, env.GetBoolEnv(tc.envs, "TEST_VAR", tc.fallback))
	}
}

func TestGetIntEnv(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 25, env.GetIntEnv(map[string]string{"TEST_VAR": "25"}, "TEST_VAR", 10))
	assert.Equal(t, 10, env.GetIntEnv(map[string]string{"TEST_VAR": "nope"}, "TEST_VAR", 10))
	assert.Equal(t, 10, env.GetIntEnv(map[string]string{}, "TEST_VAR", 10))
}

func TestGetDurationEnv(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 45*time.Second, env.GetDurationEnv(map[string]string{"TEST_VAR": "45s"}, "TEST_VAR", time.Minute))
	assert.Equal(t, time.Minute, env.GetDurationEnv(map[string]string{"TEST_VAR": "later"}, "TEST_VAR", time.Minute))
}

func TestGetStringEnv(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "value", env.GetStringEnv(map[string]string{"TEST_VAR": "value"}, "TEST_VAR", "fallback"))
	assert.Equal(t, "fallback", env.GetStringEnv(map[string]string{"TEST_VAR": "  "}, "TEST_VAR", "fallback"))
}

func TestGetNonEmptyStringEnv(t *testing.T) {
	t.Parallel()

	envs := map[string]string{"WORKLIFT_TOKEN": "", "JIRA_API_TOKEN": "legacy-token"}

	assert.Equal(t, "legacy-token", env.GetNonEmptyStringEnv(envs, []string{"WORKLIFT_TOKEN", "JIRA_API_TOKEN"}, ""))
	assert.Equal(t, "fallback", env.GetNonEmptyStringEnv(envs, []string{"MISSING"}, "fallback"))
}

func TestLookupEnvTrimsSpaces(t *testing.T) {
	t.Parallel()

	val, ok := env.LookupEnv(map[string]string{"TEST_VAR": "  padded "}, "TEST_VAR")
	assert.True(t, ok)
	assert.Equal(t, "padded", val)

	_, ok = env.LookupEnv(map[string]string{"TEST_VAR": "   "}, "TEST_VAR")
	assert.False(t, ok)
}
