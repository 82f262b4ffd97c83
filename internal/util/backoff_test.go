package util

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffWithJitter(t *testing.T) {
	t.Run("grows by factor without jitter", func(t *testing.T) {
		assert.Equal(t, 100*time.Millisecond, BackoffWithJitter(0, 2, 100*time.Millisecond, time.Second, 0, nil))
		assert.Equal(t, 200*time.Millisecond, BackoffWithJitter(1, 2, 100*time.Millisecond, time.Second, 0, nil))
		assert.Equal(t, 800*time.Millisecond, BackoffWithJitter(3, 2, 100*time.Millisecond, time.Second, 0, nil))
	})

	t.Run("caps at max", func(t *testing.T) {
		assert.Equal(t, time.Second, BackoffWithJitter(4, 2, 100*time.Millisecond, time.Second, 0, nil))
		assert.Equal(t, time.Second, BackoffWithJitter(10_000, 2, 100*time.Millisecond, time.Second, 0, nil))
	})

	t.Run("negative attempt is treated as the first", func(t *testing.T) {
		assert.Equal(t, 100*time.Millisecond, BackoffWithJitter(-3, 2, 100*time.Millisecond, time.Second, 0, nil))
	})

	t.Run("jitter stays within window and max", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 200; i++ {
			got := BackoffWithJitter(i%6, 2, 100*time.Millisecond, time.Second, 300*time.Millisecond, rng)
			assert.GreaterOrEqual(t, got, 100*time.Millisecond)
			assert.LessOrEqual(t, got, time.Second)
		}
	})
}
