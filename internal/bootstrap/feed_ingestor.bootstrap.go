package bootstrap

import (
	"context"
	"net/http"
	"sync"

	"github.com/krobus00/market-feed-ingestor/internal/config"
	"github.com/krobus00/market-feed-ingestor/internal/constant"
	"github.com/krobus00/market-feed-ingestor/internal/entity"
	httpHandler "github.com/krobus00/market-feed-ingestor/internal/handler/feedstatus/http"
	"github.com/krobus00/market-feed-ingestor/internal/infrastructure"
	"github.com/krobus00/market-feed-ingestor/internal/service/feed"
	"github.com/krobus00/market-feed-ingestor/internal/util"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func StartFeedIngestor(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feeds, err := resolveFeeds(ctx)
	util.ContinueOrFatal(err)

	board := feed.NewStatusBoard(feeds)
	observers := feed.Observers{board}

	var router entity.PayloadRouter
	var nc *nats.Conn
	if config.Env.NatsJetstream.URL != "" {
		var js nats.JetStreamContext
		nc, js, err = infrastructure.NewJetstream(config.Env.NatsJetstream)
		util.ContinueOrFatal(err)

		jetstreamRouter := infrastructure.NewJetstreamRouter(js, config.Env.NatsJetstream)

		publishers := []entity.Publisher{jetstreamRouter}
		for _, publisher := range publishers {
			err = publisher.JetstreamEventInit(ctx)
			util.ContinueOrFatal(err)
		}

		router = jetstreamRouter
	}

	var redisClient *redis.Client
	if redisConfig, ok := config.Env.Redis[constant.FeedRedisName]; ok && redisConfig.DSN != "" {
		redisClient, err = infrastructure.NewRedisClient(ctx, redisConfig)
		util.ContinueOrFatal(err)

		observers = append(observers, feed.NewRedisStatusStore(redisClient, redisConfig.StatusTTL, redisConfig.Timeout))
	}

	supervisor, err := feed.NewSupervisor(feeds, feed.Dependencies{
		Dialer:   feed.NewWebsocketDialer(config.Env.Keepalive.HandshakeTimeout),
		Sink:     infrastructure.NewLogrusSink(nil),
		Policy:   feed.NewReconnectPolicy(config.Env.Reconnect),
		Router:   router,
		Observer: observers,
		Keepalive: feed.Keepalive{
			PingInterval: config.Env.Keepalive.PingInterval,
			PongTimeout:  config.Env.Keepalive.PongTimeout,
		},
		ReadLimit: config.Env.MaxFrameSize,
	})
	util.ContinueOrFatal(err)

	mux := http.NewServeMux()
	httpHandler.NewFeedStatusHTTPHandler(board).Register(mux)
	httpServer := infrastructure.NewHTTPServerWithConfig(infrastructure.HTTPServerConfig{
		ShutdownTimeout: config.Env.GracefulShutdownTimeout,
	}, mux)

	go func() {
		if err := httpServer.Start(); err != nil {
			logrus.WithError(err).Error("http server stopped")
		}
	}()

	var supervisorWG sync.WaitGroup
	supervisorWG.Add(1)
	go func() {
		defer supervisorWG.Done()
		supervisor.Run(ctx)
	}()

	logrus.WithField("feeds", len(feeds)).Info("feed ingestor started")

	ops := map[string]operation{
		"feed supervisor": func(ctx context.Context) error {
			cancel()
			supervisorWG.Wait()
			return nil
		},
		"http server": func(ctx context.Context) error {
			return httpServer.Shutdown(ctx)
		},
	}
	if nc != nil {
		ops["nats connection"] = func(ctx context.Context) error {
			// drain only after the feeds stopped publishing
			supervisorWG.Wait()
			return infrastructure.CloseJetstream(nc)
		}
	}
	if redisClient != nil {
		ops["redis"] = func(ctx context.Context) error {
			supervisorWG.Wait()
			return redisClient.Close()
		}
	}

	wait := gracefulShutdown(config.Env.GracefulShutdownTimeout, ops)

	<-wait
}
