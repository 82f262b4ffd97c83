package entity

import (
	"time"

	"github.com/lib/pq"
)

// FeedSubscription is a row of feed_subscriptions, used when feeds are
// managed in the database instead of the config file.
type FeedSubscription struct {
	ID        string         `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Endpoint  string         `db:"endpoint" json:"endpoint"`
	Topics    pq.StringArray `db:"topics" json:"topics"`
	IsActive  bool           `db:"is_active" json:"is_active"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

func (s FeedSubscription) ToFeedConfig() FeedConfig {
	return FeedConfig{
		Name:     s.Name,
		Endpoint: s.Endpoint,
		Topics:   append([]string(nil), s.Topics...),
	}
}
