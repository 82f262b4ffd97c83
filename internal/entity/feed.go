package entity

import (
	"encoding/json"
	"time"
)

const (
	SubscribeMethod       = "SUBSCRIBE"
	SubscriptionRequestID = 1
)

// FeedConfig describes one websocket subscription target. It is built once at
// startup and never mutated afterwards.
type FeedConfig struct {
	Name     string   `mapstructure:"name" json:"name"`
	Endpoint string   `mapstructure:"endpoint" json:"endpoint"`
	Topics   []string `mapstructure:"topics" json:"topics"`
}

type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateSubscribing  ConnectionState = "subscribing"
	StateStreaming    ConnectionState = "streaming"
	StateBackoff      ConnectionState = "backoff"
)

func (s ConnectionState) String() string {
	return string(s)
}

type SubscriptionRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int      `json:"id"`
}

func NewSubscriptionRequest(topics []string) SubscriptionRequest {
	params := make([]string, len(topics))
	copy(params, topics)

	return SubscriptionRequest{
		Method: SubscribeMethod,
		Params: params,
		ID:     SubscriptionRequestID,
	}
}

// InboundEnvelope is the generic wrapper every inbound frame is parsed into.
// Data is nil when the frame carries no data key.
type InboundEnvelope struct {
	Data json.RawMessage `json:"data"`
}

func (e InboundEnvelope) HasData() bool {
	return len(e.Data) > 0 && string(e.Data) != "null"
}

func (e InboundEnvelope) PayloadString() string {
	if !e.HasData() {
		return "null"
	}

	return string(e.Data)
}

type FailureKind string

const (
	FailureConnectionClosed FailureKind = "connection_closed"
	FailureProtocolError    FailureKind = "protocol_error"
	FailureUnexpected       FailureKind = "unexpected"
)

type FailureRecord struct {
	Kind   FailureKind `json:"kind"`
	Detail string      `json:"detail"`
}

type StateTransition struct {
	Feed      string
	From      ConnectionState
	To        ConnectionState
	Attempt   int
	SessionID string
	Failure   *FailureRecord
	At        time.Time
}

type FeedStatus struct {
	Feed        string          `json:"feed"`
	State       ConnectionState `json:"state"`
	Attempt     int             `json:"attempt"`
	SessionID   string          `json:"session_id,omitempty"`
	LastFailure *FailureRecord  `json:"last_failure,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type FeedPayloadEvent struct {
	Feed       string          `json:"feed"`
	ReceivedAt time.Time       `json:"received_at"`
	Data       json.RawMessage `json:"data"`
}
