package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/krobus00/market-feed-ingestor/internal/config"
	"github.com/krobus00/market-feed-ingestor/internal/constant"
	"github.com/krobus00/market-feed-ingestor/internal/entity"
	"github.com/krobus00/market-feed-ingestor/internal/infrastructure"
	"github.com/krobus00/market-feed-ingestor/internal/repository"
	"github.com/krobus00/market-feed-ingestor/internal/util"
	"github.com/sirupsen/logrus"
)

type operation func(ctx context.Context) error

// gracefulShutdown waits for termination syscalls and doing clean up operations after received it.
func gracefulShutdown(timeout time.Duration, ops map[string]operation) <-chan struct{} {
	wait := make(chan struct{})
	go func() {
		s := make(chan os.Signal, 1)

		signal.Notify(s, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		<-s

		logrus.Info("shutting down")

		// set timeout for the ops to be done to prevent system hang
		timeoutFunc := time.AfterFunc(timeout, func() {
			logrus.Error(fmt.Sprintf("timeout %d ms has been elapsed, force exit", timeout.Milliseconds()))
			os.Exit(0)
		})

		defer timeoutFunc.Stop()

		// the run context is already cancelled at this point
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var wg sync.WaitGroup

		for key, op := range ops {
			wg.Add(1)
			go func(key string, op operation) {
				defer wg.Done()

				logrus.Info(fmt.Sprintf("cleaning up: %s", key))
				if err := op(ctx); err != nil {
					logrus.Error(fmt.Sprintf("%s: clean up failed: %s", key, err.Error()))
					return
				}

				logrus.Info(fmt.Sprintf("%s was shutdown gracefully", key))
			}(key, op)
		}

		wg.Wait()

		close(wait)
	}()

	return wait
}

// resolveFeeds returns the feeds to supervise from the configured source.
// Feeds from the database are validated the same way as the config file.
func resolveFeeds(ctx context.Context) ([]entity.FeedConfig, error) {
	feeds := config.Env.Feeds

	if config.Env.FeedSource == constant.FeedSourceDatabase {
		db, err := infrastructure.NewPostgresConnection(ctx, config.Env.Database[constant.FeedDatabaseName])
		if err != nil {
			return nil, err
		}
		defer func() {
			util.WarnOnError(db.Close(), "failed to close feed database")
		}()

		subscriptions, err := repository.NewFeedSubscriptionRepository(db).GetActive(ctx)
		if err != nil {
			return nil, err
		}

		feeds = make([]entity.FeedConfig, 0, len(subscriptions))
		for _, subscription := range subscriptions {
			feeds = append(feeds, subscription.ToFeedConfig())
		}
	}

	if err := config.ValidateFeeds(feeds); err != nil {
		return nil, err
	}

	return feeds, nil
}
