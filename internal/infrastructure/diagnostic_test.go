package infrastructure

import (
	"sync"
	"testing"

	"github.com/krobus00/market-feed-ingestor/internal/entity"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogrusSink_Emit(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	sink := NewLogrusSink(logger)

	tests := []struct {
		level entity.DiagnosticLevel
		want  logrus.Level
	}{
		{entity.LevelDebug, logrus.DebugLevel},
		{entity.LevelInfo, logrus.InfoLevel},
		{entity.LevelWarning, logrus.WarnLevel},
		{entity.LevelError, logrus.ErrorLevel},
		{entity.DiagnosticLevel("trace"), logrus.InfoLevel},
	}

	for _, tt := range tests {
		hook.Reset()
		sink.Emit("spot", tt.level, "Connected")

		entry := hook.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, tt.want, entry.Level)
		assert.Equal(t, "Connected", entry.Message)
		assert.Equal(t, "spot", entry.Data["stream"])
	}
}

func TestLogrusSink_RespectsLoggerLevel(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)

	NewLogrusSink(logger).Emit("perp", entity.LevelDebug, "Payload: null")
	assert.Empty(t, hook.AllEntries())
}

func TestLogrusSink_ConcurrentFeeds(t *testing.T) {
	logger, hook := test.NewNullLogger()
	sink := NewLogrusSink(logger)

	var wg sync.WaitGroup
	for _, feed := range []string{"spot", "perp", "coinm"} {
		wg.Add(1)
		go func(feed string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				sink.Emit(feed, entity.LevelInfo, "tick")
			}
		}(feed)
	}
	wg.Wait()

	assert.Len(t, hook.AllEntries(), 150)
}
