package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/krobus00/market-feed-ingestor/internal/config"
	"github.com/krobus00/market-feed-ingestor/internal/entity"
)

const controlWriteWait = 5 * time.Second

// DefaultReadLimit caps the size of a single inbound frame.
const DefaultReadLimit int64 = config.DefaultMaxFrameSize

type Keepalive struct {
	PingInterval time.Duration
	PongTimeout  time.Duration
}

func DefaultKeepalive() Keepalive {
	return Keepalive{
		PingInterval: config.DefaultPingInterval,
		PongTimeout:  config.DefaultPongTimeout,
	}
}

// readWindow is how long a session may stay silent on the control channel:
// one ping interval until the next ping, plus the pong timeout for that ping.
func (k Keepalive) readWindow() time.Duration {
	return k.PingInterval + k.PongTimeout
}

// Dependencies are shared by every feed of a supervisor. All of them must be
// safe for concurrent use.
type Dependencies struct {
	Dialer    Dialer
	Sink      entity.DiagnosticSink
	Policy    ReconnectPolicy
	Router    entity.PayloadRouter
	Observer  entity.FeedStateObserver
	Keepalive Keepalive
	ReadLimit int64
}

// Connection owns the session lifecycle of a single feed. Its state is only
// touched by the goroutine running Run.
type Connection struct {
	feed       entity.FeedConfig
	dialer     Dialer
	sink       entity.DiagnosticSink
	policy     ReconnectPolicy
	observer   entity.FeedStateObserver
	keepalive  Keepalive
	readLimit  int64
	dispatcher *Dispatcher

	state     entity.ConnectionState
	attempt   int
	sessionID string
	now       func() time.Time
}

func NewConnection(feed entity.FeedConfig, deps Dependencies) *Connection {
	keepalive := deps.Keepalive
	defaults := DefaultKeepalive()
	if keepalive.PingInterval <= 0 {
		keepalive.PingInterval = defaults.PingInterval
	}
	if keepalive.PongTimeout <= 0 {
		keepalive.PongTimeout = defaults.PongTimeout
	}

	policy := deps.Policy
	if policy == nil {
		policy = ConstantPolicy{Wait: config.DefaultReconnectDelay}
	}

	dialer := deps.Dialer
	if dialer == nil {
		dialer = NewWebsocketDialer(config.DefaultHandshakeTimeout)
	}

	readLimit := deps.ReadLimit
	if readLimit <= 0 {
		readLimit = DefaultReadLimit
	}

	sink := deps.Sink
	if sink == nil {
		sink = discardSink{}
	}

	return &Connection{
		feed:       feed,
		dialer:     dialer,
		sink:       sink,
		policy:     policy,
		observer:   deps.Observer,
		keepalive:  keepalive,
		readLimit:  readLimit,
		dispatcher: NewDispatcher(sink, deps.Router),
		state:      entity.StateDisconnected,
		now:        time.Now,
	}
}

// Run keeps the feed connected until ctx is cancelled. Cancellation is the
// only way out and is not reported as a failure.
func (c *Connection) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			c.transition(entity.StateDisconnected, nil)
			return
		}

		failure, failed := c.session(ctx)
		if !failed {
			c.transition(entity.StateDisconnected, nil)
			return
		}

		c.reportFailure(failure)
		c.transition(entity.StateBackoff, &failure)

		wait := c.policy.Delay(c.attempt, failure.Kind)
		c.attempt++

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			c.transition(entity.StateDisconnected, nil)
			return
		}

		c.transition(entity.StateDisconnected, nil)
	}
}

// session runs one connect/subscribe/stream cycle. failed is false when the
// cycle ended because ctx was cancelled.
func (c *Connection) session(ctx context.Context) (failure entity.FailureRecord, failed bool) {
	c.sessionID = ""
	c.transition(entity.StateConnecting, nil)

	conn, err := c.dialer.DialContext(ctx, c.feed.Endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return entity.FailureRecord{}, false
		}
		return entity.FailureRecord{Kind: entity.FailureUnexpected, Detail: err.Error()}, true
	}
	defer conn.Close()

	defer func() {
		if recovered := recover(); recovered != nil {
			failure = entity.FailureRecord{Kind: entity.FailureUnexpected, Detail: fmt.Sprintf("panic: %v", recovered)}
			failed = true
		}
	}()

	c.sessionID = uuid.NewString()
	c.transition(entity.StateSubscribing, nil)
	c.sink.Emit(c.feed.Name, entity.LevelInfo, "Connected")

	conn.SetReadLimit(c.readLimit)

	readWindow := c.keepalive.readWindow()
	if err := conn.SetReadDeadline(time.Now().Add(readWindow)); err != nil {
		return entity.FailureRecord{Kind: entity.FailureUnexpected, Detail: err.Error()}, true
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWindow))
	})

	handshake, err := json.Marshal(entity.NewSubscriptionRequest(c.feed.Topics))
	if err != nil {
		return entity.FailureRecord{Kind: entity.FailureProtocolError, Detail: err.Error()}, true
	}

	if err := conn.WriteMessage(websocket.TextMessage, handshake); err != nil {
		if ctx.Err() != nil {
			return entity.FailureRecord{}, false
		}
		return classifyFailure(err, entity.FailureProtocolError), true
	}
	c.sink.Emit(c.feed.Name, entity.LevelInfo, fmt.Sprintf("Subscribed to streams: %v", c.feed.Topics))

	c.attempt = 0
	c.transition(entity.StateStreaming, nil)

	sessionDone := make(chan struct{})
	defer close(sessionDone)
	go c.keepAlive(ctx, conn, sessionDone)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return entity.FailureRecord{}, false
			}
			return classifyFailure(err, entity.FailureUnexpected), true
		}

		// malformed frames are already reported by the dispatcher
		_, _ = c.dispatcher.Dispatch(ctx, c.feed.Name, message)
	}
}

// keepAlive pings the peer and closes the connection on shutdown so the
// blocked read returns. It keeps watching ctx after pings stop.
func (c *Connection) keepAlive(ctx context.Context, conn Conn, sessionDone <-chan struct{}) {
	ticker := time.NewTicker(c.keepalive.PingInterval)
	defer ticker.Stop()

	pings := ticker.C
	for {
		select {
		case <-pings:
			// a failed ping surfaces through the read deadline
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(controlWriteWait)); err != nil {
				ticker.Stop()
				pings = nil
			}
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(controlWriteWait))
			_ = conn.Close()
			return
		case <-sessionDone:
			return
		}
	}
}

func (c *Connection) reportFailure(failure entity.FailureRecord) {
	switch failure.Kind {
	case entity.FailureConnectionClosed:
		c.sink.Emit(c.feed.Name, entity.LevelWarning, "Connection closed, reconnecting...")
	case entity.FailureProtocolError:
		c.sink.Emit(c.feed.Name, entity.LevelError, fmt.Sprintf("Protocol error: %s, reconnecting...", failure.Detail))
	default:
		c.sink.Emit(c.feed.Name, entity.LevelError, fmt.Sprintf("Unexpected error: %s, reconnecting...", failure.Detail))
	}
}

func (c *Connection) transition(to entity.ConnectionState, failure *entity.FailureRecord) {
	from := c.state
	c.state = to

	if c.observer == nil {
		return
	}

	c.observer.ObserveFeedState(entity.StateTransition{
		Feed:      c.feed.Name,
		From:      from,
		To:        to,
		Attempt:   c.attempt,
		SessionID: c.sessionID,
		Failure:   failure,
		At:        c.now(),
	})
}

// classifyFailure maps a session error onto a failure kind. Close frames,
// abnormal closures and an expired read deadline (no pong in time) count as a
// closed connection, fallback covers the rest.
func classifyFailure(err error, fallback entity.FailureKind) entity.FailureRecord {
	var closeErr *websocket.CloseError
	var netErr net.Error
	switch {
	case errors.As(err, &closeErr):
		return entity.FailureRecord{Kind: entity.FailureConnectionClosed, Detail: closeErr.Error()}
	case errors.As(err, &netErr) && netErr.Timeout():
		return entity.FailureRecord{Kind: entity.FailureConnectionClosed, Detail: err.Error()}
	case errors.Is(err, websocket.ErrCloseSent):
		return entity.FailureRecord{Kind: entity.FailureConnectionClosed, Detail: err.Error()}
	case errors.Is(err, websocket.ErrReadLimit):
		return entity.FailureRecord{Kind: entity.FailureProtocolError, Detail: err.Error()}
	default:
		return entity.FailureRecord{Kind: fallback, Detail: err.Error()}
	}
}

type discardSink struct{}

func (discardSink) Emit(string, entity.DiagnosticLevel, string) {}
