// Package env provides helpers for reading typed values from a parsed set of environment variables.
package env

import (
	"strconv"
	"strings"
	"time"
)

// Parse converts a list of environment variables in the `os.Environ()` format into a map.
func Parse(environ []string) map[string]string {
	envs := make(map[string]string, len(environ))

	for _, envVar := range environ {
		if parts := strings.SplitN(envVar, "=", 2); len(parts) == 2 {
			envs[parts[0]] = parts[1]
		}
	}

	return envs
}

// GetBoolEnv converts the given value to `bool` type, otherwise returns the given `fallback` value.
func GetBoolEnv(envs map[string]string, name string, fallback bool) bool {
	if strVal, ok := LookupEnv(envs, name); ok {
		if val, err := strconv.ParseBool(strVal); err == nil {
			return val
		}
	}

	return fallback
}

// GetIntEnv converts the given value to `int` type, otherwise returns the given `fallback` value.
func GetIntEnv(envs map[string]string, name string, fallback int) int {
	if strVal, ok := LookupEnv(envs, name); ok {
		if val, err := strconv.Atoi(strVal); err == nil {
			return val
		}
	}

	return fallback
}

// GetDurationEnv converts the given value to `time.Duration` type, otherwise returns the given `fallback` value.
func GetDurationEnv(envs map[string]string, name string, fallback time.Duration) time.Duration {
	if strVal, ok := LookupEnv(envs, name); ok {
		if val, err := time.ParseDuration(strVal); err == nil {
			return val
		}
	}

	return fallback
}

// GetStringEnv returns the value of the given environment variable, otherwise returns the given `fallback` value.
func GetStringEnv(envs map[string]string, name string, fallback string) string {
	if strVal, ok := LookupEnv(envs, name); ok {
		return strVal
	}

	return fallback
}

// GetNonEmptyStringEnv returns the first non-empty value among the given environment variables, otherwise the `fallback` value.
func GetNonEmptyStringEnv(envs map[string]string, names []string, fallback string) string {
	for _, name := range names {
		if strVal, ok := LookupEnv(envs, name); ok {
			return strVal
		}
	}

	return fallback
}

// LookupEnv returns the value of the given environment variable and `true` if it is defined and non-blank, otherwise an empty string and `false`.
func LookupEnv(envs map[string]string, name string) (string, bool) {
	if strVal, ok := envs[name]; ok {
		strVal = strings.TrimSpace(strVal)
		return strVal, strVal != ""
	}

	return "", false
}
