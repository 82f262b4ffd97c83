package entity

import "context"

type DiagnosticLevel string

const (
	LevelDebug   DiagnosticLevel = "debug"
	LevelInfo    DiagnosticLevel = "info"
	LevelWarning DiagnosticLevel = "warning"
	LevelError   DiagnosticLevel = "error"
)

// DiagnosticSink receives feed tagged log events. Implementations must be
// safe for concurrent use and must not block indefinitely.
type DiagnosticSink interface {
	Emit(feed string, level DiagnosticLevel, message string)
}

// PayloadRouter forwards the data of a parsed envelope to a downstream consumer.
type PayloadRouter interface {
	Route(ctx context.Context, feed string, payload []byte) error
}

type FeedStateObserver interface {
	ObserveFeedState(transition StateTransition)
}
