package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/krobus00/market-feed-ingestor/internal/entity"
	"github.com/lib/pq"
)

var feedSubscriptionColumns = []string{"id", "name", "endpoint", "topics", "is_active", "created_at", "updated_at"}

type FeedSubscriptionRepository struct {
	db *sqlx.DB
}

func NewFeedSubscriptionRepository(db *sqlx.DB) *FeedSubscriptionRepository {
	return &FeedSubscriptionRepository{db: db}
}

func (r *FeedSubscriptionRepository) GetActive(ctx context.Context) ([]entity.FeedSubscription, error) {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select(feedSubscriptionColumns...).
		From("feed_subscriptions").
		Where(sq.Eq{"is_active": true}).
		OrderBy("name")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	var subscriptions []entity.FeedSubscription
	err = r.db.SelectContext(ctx, &subscriptions, query, args...)
	if err != nil {
		return nil, err
	}

	return subscriptions, nil
}

// Upsert stores feed as an active subscription, replacing endpoint and topics
// of an existing row with the same name.
func (r *FeedSubscriptionRepository) Upsert(ctx context.Context, feed entity.FeedConfig) error {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert("feed_subscriptions").
		Columns("id", "name", "endpoint", "topics", "is_active").
		Values(uuid.NewString(), feed.Name, feed.Endpoint, pq.StringArray(feed.Topics), true).
		Suffix("ON CONFLICT (name) DO UPDATE SET endpoint = EXCLUDED.endpoint, topics = EXCLUDED.topics, is_active = true, updated_at = now()")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}
