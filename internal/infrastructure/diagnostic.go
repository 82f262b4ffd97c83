package infrastructure

import (
	"github.com/krobus00/market-feed-ingestor/internal/entity"
	"github.com/sirupsen/logrus"
)

const feedLogField = "stream"

// LogrusSink is the process diagnostic sink. logrus serialises writes behind
// its own mutex so feeds can share one sink.
type LogrusSink struct {
	logger *logrus.Logger
}

func NewLogrusSink(logger *logrus.Logger) *LogrusSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &LogrusSink{logger: logger}
}

func (s *LogrusSink) Emit(feed string, level entity.DiagnosticLevel, message string) {
	s.logger.WithField(feedLogField, feed).Log(logrusLevel(level), message)
}

func logrusLevel(level entity.DiagnosticLevel) logrus.Level {
	switch level {
	case entity.LevelDebug:
		return logrus.DebugLevel
	case entity.LevelWarning:
		return logrus.WarnLevel
	case entity.LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
