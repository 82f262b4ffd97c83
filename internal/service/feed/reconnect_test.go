package feed

import (
	"testing"
	"time"

	"github.com/krobus00/market-feed-ingestor/internal/config"
	"github.com/krobus00/market-feed-ingestor/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstantPolicy(t *testing.T) {
	policy := ConstantPolicy{Wait: 3 * time.Second}
	for attempt := range 5 {
		assert.Equal(t, 3*time.Second, policy.Delay(attempt, entity.FailureUnexpected))
	}

	assert.Zero(t, ConstantPolicy{Wait: -time.Second}.Delay(0, entity.FailureConnectionClosed))
}

func TestExponentialPolicy(t *testing.T) {
	policy := NewExponentialPolicy(100*time.Millisecond, time.Second, 2, 0)

	assert.Equal(t, 100*time.Millisecond, policy.Delay(0, entity.FailureUnexpected))
	assert.Equal(t, 200*time.Millisecond, policy.Delay(1, entity.FailureUnexpected))
	assert.Equal(t, 400*time.Millisecond, policy.Delay(2, entity.FailureUnexpected))
	assert.Equal(t, time.Second, policy.Delay(10, entity.FailureUnexpected))
	assert.Equal(t, time.Second, policy.Delay(10_000, entity.FailureUnexpected))
}

func TestExponentialPolicy_Jitter(t *testing.T) {
	policy := NewExponentialPolicy(100*time.Millisecond, 500*time.Millisecond, 2, 50*time.Millisecond)

	for range 200 {
		delay := policy.Delay(0, entity.FailureUnexpected)
		assert.GreaterOrEqual(t, delay, 100*time.Millisecond)
		assert.LessOrEqual(t, delay, 150*time.Millisecond)

		assert.Equal(t, 500*time.Millisecond, policy.Delay(5, entity.FailureUnexpected))
	}
}

func TestNewExponentialPolicy_Normalizes(t *testing.T) {
	policy := NewExponentialPolicy(-time.Second, -time.Second, 0, -time.Second)

	assert.Zero(t, policy.Delay(3, entity.FailureUnexpected))
	assert.Equal(t, defaultExponentialFactor, policy.factor)
}

func TestNewReconnectPolicy(t *testing.T) {
	t.Run("constant", func(t *testing.T) {
		policy := NewReconnectPolicy(config.ReconnectConfig{Strategy: config.ReconnectStrategyConstant, Delay: 3 * time.Second})
		assert.Equal(t, ConstantPolicy{Wait: 3 * time.Second}, policy)
	})

	t.Run("unknown strategy falls back to constant", func(t *testing.T) {
		policy := NewReconnectPolicy(config.ReconnectConfig{Delay: time.Second})
		assert.Equal(t, ConstantPolicy{Wait: time.Second}, policy)
	})

	t.Run("exponential defaults", func(t *testing.T) {
		policy := NewReconnectPolicy(config.ReconnectConfig{Strategy: config.ReconnectStrategyExponential})
		exponential, ok := policy.(*ExponentialPolicy)
		require.True(t, ok)

		assert.Equal(t, defaultExponentialMin, exponential.min)
		assert.Equal(t, defaultExponentialMax, exponential.max)
		assert.Equal(t, defaultExponentialFactor, exponential.factor)
	})

	t.Run("exponential configured", func(t *testing.T) {
		policy := NewReconnectPolicy(config.ReconnectConfig{
			Strategy: config.ReconnectStrategyExponential,
			Min:      time.Second,
			Max:      8 * time.Second,
			Factor:   3,
		})

		assert.Equal(t, time.Second, policy.Delay(0, entity.FailureUnexpected))
		assert.Equal(t, 3*time.Second, policy.Delay(1, entity.FailureUnexpected))
		assert.Equal(t, 8*time.Second, policy.Delay(2, entity.FailureUnexpected))
	})
}
