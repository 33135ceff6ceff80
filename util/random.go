package util

import (
	"math/rand"
	"time"
)

// RandomDuration returns a random duration between the lower and upper bound.
// Spreading sleeps out over a range keeps many workers from hammering the
// Jira API at the same instant after a shared rate limit response.
func RandomDuration(lowerBound, upperBound time.Duration) time.Duration {
	if upperBound <= lowerBound {
		return lowerBound
	}

	return lowerBound + time.Duration(rand.Int63n(int64(upperBound-lowerBound)))
}
