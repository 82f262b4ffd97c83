package constant

import (
	"fmt"
	"strings"
)

const (
	FeedStreamName       = "market_feed"
	FeedStreamSubjectAll = "market_feed.*"

	FeedStatusKeyPrefix = "feed_status"
)

func GetFeedStreamSubject(feed string) string {
	return fmt.Sprintf("%s.%s", FeedStreamName, normalizeSubjectToken(feed))
}

func GetFeedStatusKey(feed string) string {
	return fmt.Sprintf("%s:%s", FeedStatusKeyPrefix, feed)
}

// subject tokens cannot contain separators or wildcards
func normalizeSubjectToken(token string) string {
	token = strings.TrimSpace(strings.ToLower(token))
	replacer := strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")
	return replacer.Replace(token)
}
