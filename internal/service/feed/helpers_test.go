package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/krobus00/market-feed-ingestor/internal/entity"
)

const (
	waitFor = 3 * time.Second
	tick    = 5 * time.Millisecond
)

type diagnostic struct {
	feed    string
	level   entity.DiagnosticLevel
	message string
}

type recordingSink struct {
	mu      sync.Mutex
	entries []diagnostic
}

func (s *recordingSink) Emit(feed string, level entity.DiagnosticLevel, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, diagnostic{feed: feed, level: level, message: message})
}

func (s *recordingSink) filter(feed string, level entity.DiagnosticLevel) []diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []diagnostic
	for _, entry := range s.entries {
		if entry.feed == feed && entry.level == level {
			out = append(out, entry)
		}
	}

	return out
}

func (s *recordingSink) has(feed string, level entity.DiagnosticLevel, substr string) bool {
	for _, entry := range s.filter(feed, level) {
		if strings.Contains(entry.message, substr) {
			return true
		}
	}

	return false
}

type recordingObserver struct {
	mu          sync.Mutex
	transitions []entity.StateTransition
}

func (o *recordingObserver) ObserveFeedState(transition entity.StateTransition) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, transition)
}

func (o *recordingObserver) states(feed string) []entity.ConnectionState {
	o.mu.Lock()
	defer o.mu.Unlock()

	var out []entity.ConnectionState
	for _, transition := range o.transitions {
		if transition.Feed == feed {
			out = append(out, transition.To)
		}
	}

	return out
}

func (o *recordingObserver) last(feed string) entity.ConnectionState {
	states := o.states(feed)
	if len(states) == 0 {
		return entity.StateDisconnected
	}

	return states[len(states)-1]
}

func (o *recordingObserver) count(feed string, state entity.ConnectionState) int {
	total := 0
	for _, s := range o.states(feed) {
		if s == state {
			total++
		}
	}

	return total
}

func (o *recordingObserver) failures(feed string) []entity.FailureRecord {
	o.mu.Lock()
	defer o.mu.Unlock()

	var out []entity.FailureRecord
	for _, transition := range o.transitions {
		if transition.Feed == feed && transition.Failure != nil {
			out = append(out, *transition.Failure)
		}
	}

	return out
}

// fakeConn replays queued frames and blocks until closed.
type fakeConn struct {
	frames    chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	// set before the conn is handed to a Connection
	pingErr     error
	deadlineErr error
	pings       atomic.Int32

	mu      sync.Mutex
	written [][]byte
}

func newFakeConn(frames ...string) *fakeConn {
	conn := &fakeConn{
		frames: make(chan []byte, len(frames)+8),
		closed: make(chan struct{}),
	}
	for _, frame := range frames {
		conn.frames <- []byte(frame)
	}

	return conn
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, data)
	return nil
}

func (c *fakeConn) WriteControl(messageType int, _ []byte, _ time.Time) error {
	if messageType == websocket.PingMessage {
		c.pings.Add(1)
		return c.pingErr
	}
	return nil
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case frame := <-c.frames:
		return websocket.TextMessage, frame, nil
	case <-c.closed:
		return 0, nil, errors.New("use of closed network connection")
	}
}

func (c *fakeConn) SetReadDeadline(time.Time) error { return c.deadlineErr }

func (c *fakeConn) SetReadLimit(int64) {}

func (c *fakeConn) SetPongHandler(func(string) error) {}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) messages() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.written...)
}

// fakeDialer counts attempts per endpoint and delegates the outcome to dial.
type fakeDialer struct {
	mu       sync.Mutex
	attempts map[string]int
	dial     func(endpoint string, attempt int) (Conn, error)
}

func newFakeDialer(dial func(endpoint string, attempt int) (Conn, error)) *fakeDialer {
	return &fakeDialer{attempts: make(map[string]int), dial: dial}
}

func (d *fakeDialer) DialContext(ctx context.Context, endpoint string) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.attempts[endpoint]++
	attempt := d.attempts[endpoint]
	d.mu.Unlock()

	return d.dial(endpoint, attempt)
}

func (d *fakeDialer) count(endpoint string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempts[endpoint]
}

// newFeedServer starts a websocket endpoint and returns its ws:// url.
func newFeedServer(t *testing.T, handler func(conn *websocket.Conn)) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		handler(conn)
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// drain reads until the client goes away so control frames keep flowing.
func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// runConnection starts conn.Run and returns a stop func that cancels it and
// waits for it to return.
func runConnection(t *testing.T, conn *Connection) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.Run(ctx)
	}()

	stopped := false
	stop = func() {
		if stopped {
			return
		}
		stopped = true
		cancel()
		select {
		case <-done:
		case <-time.After(waitFor):
			t.Fatal("connection did not stop after cancellation")
		}
	}
	t.Cleanup(stop)

	return stop
}

func testKeepalive() Keepalive {
	return Keepalive{PingInterval: time.Second, PongTimeout: 2 * time.Second}
}
