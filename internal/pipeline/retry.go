package pipeline

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/guidekb/internal/store"
)

// IsRetryable checks if an error is worth retrying. Only a storage backend
// outage qualifies; parse and input errors never do.
func IsRetryable(err error) bool {
	var unavailable *store.UnavailableError
	return errors.As(err, &unavailable)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3
