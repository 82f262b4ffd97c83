/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/market-feed-ingestor/internal/bootstrap"
	"github.com/spf13/cobra"
)

// feedIngestorCmd represents the feed-ingestor command
var feedIngestorCmd = &cobra.Command{
	Use:   "feed-ingestor",
	Short: "Run the websocket feed supervisor",
	Long: `Connects to every configured feed, sends the subscription request and
streams payloads until the process receives SIGINT, SIGTERM or SIGHUP.
Feed states are served over http and optionally mirrored to redis, and
payloads are optionally forwarded to nats jetstream.`,
	Run: bootstrap.StartFeedIngestor,
}

func init() {
	rootCmd.AddCommand(feedIngestorCmd)
}
