/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/market-feed-ingestor/internal/bootstrap"
	"github.com/spf13/cobra"
)

// feedsCmd represents the feeds command
var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "List the feeds the ingestor would supervise",
	Long:  `List the feeds resolved from the configured feed source after validation.`,
	Run:   bootstrap.ListFeeds,
}

func init() {
	rootCmd.AddCommand(feedsCmd)
	feedsCmd.Flags().Bool("sync", false, "upsert the feeds from the config file into feed_subscriptions before listing")
}
