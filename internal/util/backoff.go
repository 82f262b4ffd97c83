package util

import (
	"math"
	"math/rand"
	"time"
)

// BackoffWithJitter grows min by factor per attempt, caps it at max and adds a
// random jitter in [0, jitter]. The result never exceeds max and is never negative.
func BackoffWithJitter(attempt int, factor float64, min, max, jitter time.Duration, rng *rand.Rand) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}

	backoff := float64(min) * math.Pow(factor, float64(attempt))
	if math.IsNaN(backoff) || backoff > float64(max) {
		backoff = float64(max)
	}

	base := time.Duration(backoff)
	if jitter <= 0 || rng == nil {
		return base
	}

	result := base + time.Duration(rng.Int63n(int64(jitter)+1))
	if result > max || result < 0 {
		return max
	}

	return result
}
