package util

import (
	"fmt"
	"strings"
)

// ListContainsElement returns true if the given list contains the given element
func ListContainsElement[S ~[]E, E comparable](list S, element E) bool {
	for _, item := range list {
		if item == element {
			return true
		}
	}

	return false
}

// RemoveDuplicatesFromList returns a copy of the given list with all duplicates removed (keeping the first encountered)
func RemoveDuplicatesFromList[S ~[]E, E comparable](list S) S {
	out := make(S, 0, len(list))
	present := make(map[E]bool, len(list))

	for _, value := range list {
		if present[value] {
			continue
		}

		out = append(out, value)
		present[value] = true
	}

	return out
}

// RemoveEmptyElements returns a copy of the given list without empty elements.
func RemoveEmptyElements[S ~[]E, E comparable](list S) S {
	var (
		out   S
		empty E
	)

	for _, item := range list {
		if item != empty {
			out = append(out, item)
		}
	}

	return out
}

// CommaSeparatedStrings returns a comma separated list of strings, each within double quotes
func CommaSeparatedStrings(list []string) string {
	values := make([]string, 0, len(list))
	for _, value := range list {
		values = append(values, fmt.Sprintf(`"%s"`, value))
	}

	return strings.Join(values, ", ")
}
