package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/krobus00/market-feed-ingestor/internal/config"
	"github.com/krobus00/market-feed-ingestor/internal/constant"
	"github.com/krobus00/market-feed-ingestor/internal/infrastructure"
	"github.com/krobus00/market-feed-ingestor/internal/repository"
	"github.com/krobus00/market-feed-ingestor/internal/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// ListFeeds prints the feeds the ingestor would supervise. With --sync the
// feeds from the config file are written to feed_subscriptions first.
func ListFeeds(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	sync, _ := cmd.Flags().GetBool("sync")

	if sync {
		err := config.ValidateFeeds(config.Env.Feeds)
		util.ContinueOrFatal(err)

		db, err := infrastructure.NewPostgresConnection(ctx, config.Env.Database[constant.FeedDatabaseName])
		util.ContinueOrFatal(err)
		defer db.Close()

		feedSubscriptionRepo := repository.NewFeedSubscriptionRepository(db)
		for _, feed := range config.Env.Feeds {
			err = feedSubscriptionRepo.Upsert(ctx, feed)
			util.ContinueOrFatal(err)
			logrus.WithField("stream", feed.Name).Info("feed subscription synced")
		}
	}

	feeds, err := resolveFeeds(ctx)
	util.ContinueOrFatal(err)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tENDPOINT\tTOPICS")
	for _, feed := range feeds {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", feed.Name, feed.Endpoint, strings.Join(feed.Topics, ","))
	}
	_ = w.Flush()
}
