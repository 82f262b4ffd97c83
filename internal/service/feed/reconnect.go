package feed

import (
	"math/rand"
	"sync"
	"time"

	"github.com/krobus00/market-feed-ingestor/internal/config"
	"github.com/krobus00/market-feed-ingestor/internal/entity"
	"github.com/krobus00/market-feed-ingestor/internal/util"
)

const (
	defaultExponentialMin    = 500 * time.Millisecond
	defaultExponentialMax    = 30 * time.Second
	defaultExponentialFactor = 2.0
)

// ReconnectPolicy returns how long a feed waits before its next connection
// attempt. attempt counts consecutive failures since the last session that
// reached streaming, starting at 0. The result is never negative.
type ReconnectPolicy interface {
	Delay(attempt int, kind entity.FailureKind) time.Duration
}

type ConstantPolicy struct {
	Wait time.Duration
}

func (p ConstantPolicy) Delay(int, entity.FailureKind) time.Duration {
	return max(p.Wait, 0)
}

type ExponentialPolicy struct {
	min    time.Duration
	max    time.Duration
	factor float64
	jitter time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

func NewExponentialPolicy(minDelay, maxDelay time.Duration, factor float64, jitter time.Duration) *ExponentialPolicy {
	minDelay = max(minDelay, 0)
	maxDelay = max(maxDelay, minDelay)
	if factor < 1 {
		factor = defaultExponentialFactor
	}

	return &ExponentialPolicy{
		min:    minDelay,
		max:    maxDelay,
		factor: factor,
		jitter: max(jitter, 0),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *ExponentialPolicy) Delay(attempt int, _ entity.FailureKind) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	return util.BackoffWithJitter(attempt, p.factor, p.min, p.max, p.jitter, p.rng)
}

func NewReconnectPolicy(cfg config.ReconnectConfig) ReconnectPolicy {
	if cfg.Strategy != config.ReconnectStrategyExponential {
		return ConstantPolicy{Wait: cfg.Delay}
	}

	minDelay := cfg.Min
	if minDelay <= 0 {
		minDelay = defaultExponentialMin
	}

	maxDelay := cfg.Max
	if maxDelay <= 0 {
		maxDelay = defaultExponentialMax
	}

	return NewExponentialPolicy(minDelay, maxDelay, cfg.Factor, cfg.Jitter)
}
