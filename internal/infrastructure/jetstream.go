package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/krobus00/market-feed-ingestor/internal/config"
	"github.com/krobus00/market-feed-ingestor/internal/constant"
	"github.com/krobus00/market-feed-ingestor/internal/entity"
	"github.com/krobus00/market-feed-ingestor/internal/util"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const (
	defaultNatsMaxRetries      = 10
	defaultNatsBackoffFactor   = 2.0
	defaultNatsMinJitter       = 100 * time.Millisecond
	defaultNatsMaxJitter       = 2 * time.Second
	defaultNatsConnectTimeout  = 5 * time.Second
	defaultNatsDrainTimeout    = 10 * time.Second
	defaultNatsPingInterval    = 30 * time.Second
	defaultNatsPingOutstanding = 3
	defaultJetStreamMaxWait    = 5 * time.Second
	defaultPublishTimeout      = 500 * time.Millisecond
	defaultStreamMaxAge        = 5 * time.Minute
)

func NewJetstream(cfg config.NatsJetstreamConfig) (nc *nats.Conn, js nats.JetStreamContext, err error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, nil, errors.New("nats jetstream url is required")
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultNatsMaxRetries
	}

	backoffFactor := cfg.ReconnectFactor
	if backoffFactor < 1 {
		backoffFactor = defaultNatsBackoffFactor
	}

	minJitter := cfg.MinJitter
	if minJitter <= 0 {
		minJitter = defaultNatsMinJitter
	}

	maxJitter := cfg.MaxJitter
	if maxJitter <= 0 {
		maxJitter = defaultNatsMaxJitter
	}
	if maxJitter < minJitter {
		maxJitter = minJitter
	}

	var rngMu sync.Mutex
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	nc, err = nats.Connect(cfg.URL,
		nats.Name(config.ServiceName),
		nats.Timeout(defaultNatsConnectTimeout),
		nats.DrainTimeout(defaultNatsDrainTimeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(maxRetries),
		nats.PingInterval(defaultNatsPingInterval),
		nats.MaxPingsOutstanding(defaultNatsPingOutstanding),
		nats.CustomReconnectDelay(func(attempts int) time.Duration {
			rngMu.Lock()
			defer rngMu.Unlock()
			return util.BackoffWithJitter(attempts, backoffFactor, minJitter, maxJitter, maxJitter-minJitter, rng)
		}),
		nats.DisconnectErrHandler(func(conn *nats.Conn, disErr error) {
			if disErr != nil {
				logrus.Warnf("nats disconnected: %v", disErr)
				return
			}
			logrus.Warn("nats disconnected")
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			logrus.Infof("nats reconnected: %s", conn.ConnectedUrl())
		}),
		nats.ClosedHandler(func(conn *nats.Conn) {
			logrus.Warnf("nats connection closed: %v", conn.LastError())
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err = nc.JetStream(
		nats.PublishAsyncMaxPending(256),
		nats.MaxWait(defaultJetStreamMaxWait),
	)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create jetstream context: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"url":         cfg.URL,
		"max_retries": maxRetries,
	}).Info("nats jetstream connection established")

	return nc, js, nil
}

func CloseJetstream(nc *nats.Conn) error {
	if nc == nil {
		return nil
	}

	if err := nc.Drain(); err != nil {
		nc.Close()
		return fmt.Errorf("drain nats connection: %w", err)
	}

	nc.Close()
	return nil
}

// JetstreamRouter publishes feed payloads to market_feed.<feed>.
type JetstreamRouter struct {
	js             nats.JetStreamContext
	publishTimeout time.Duration
	streamMaxAge   time.Duration
	now            func() time.Time
}

func NewJetstreamRouter(js nats.JetStreamContext, cfg config.NatsJetstreamConfig) *JetstreamRouter {
	publishTimeout := cfg.PublishTimeout
	if publishTimeout <= 0 {
		publishTimeout = defaultPublishTimeout
	}

	streamMaxAge := cfg.StreamMaxAge
	if streamMaxAge <= 0 {
		streamMaxAge = defaultStreamMaxAge
	}

	return &JetstreamRouter{
		js:             js,
		publishTimeout: publishTimeout,
		streamMaxAge:   streamMaxAge,
		now:            time.Now,
	}
}

func (r *JetstreamRouter) JetstreamEventInit(ctx context.Context) error {
	streamConfig := &nats.StreamConfig{
		Name:      constant.FeedStreamName,
		Subjects:  []string{constant.FeedStreamSubjectAll},
		Storage:   nats.MemoryStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    r.streamMaxAge,
		Replicas:  1,
	}

	stream, err := r.js.StreamInfo(constant.FeedStreamName, nats.Context(ctx))
	if err != nil && !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}

	if stream == nil {
		logrus.Infof("creating stream: %s", constant.FeedStreamName)
		_, err = r.js.AddStream(streamConfig, nats.Context(ctx))
		return err
	}

	logrus.Infof("updating stream: %s", constant.FeedStreamName)
	_, err = r.js.UpdateStream(streamConfig, nats.Context(ctx))
	if err != nil {
		return err
	}

	logrus.Infof("stream %s is ready", constant.FeedStreamName)

	return nil
}

func (r *JetstreamRouter) Route(ctx context.Context, feed string, payload []byte) error {
	event := entity.FeedPayloadEvent{
		Feed:       feed,
		ReceivedAt: r.now().UTC(),
		Data:       payload,
	}

	err := util.PublishEvent(ctx, r.js, constant.GetFeedStreamSubject(feed), r.publishTimeout, event)
	if err != nil {
		return fmt.Errorf("publish %s payload: %w", feed, err)
	}

	return nil
}
