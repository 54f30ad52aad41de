package outbox

import (
	"math/rand"
	"time"
)

// BackoffFunc computes the delay before a job's next attempt. attempt is the
// number of attempts already made, starting at 1 for the first failure.
type BackoffFunc func(attempt int) time.Duration

// ExponentialBackoff returns base * 2^attempt plus up to 50% random jitter,
// capped at max. The jitter spreads retries of jobs that failed together
// (e.g. during an email provider outage) instead of letting them stampede
// back in lockstep.
//
// Because jitter never exceeds half the exponential term, consecutive
// attempts always get a strictly later schedule.
func ExponentialBackoff(base, max time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}

		d := base
		for i := 0; i < attempt; i++ {
			d *= 2
			if d >= max {
				d = max
				break
			}
		}

		jitter := time.Duration(rand.Int63n(int64(d/2) + 1))
		return d + jitter
	}
}
