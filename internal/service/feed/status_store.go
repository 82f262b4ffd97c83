package feed

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/krobus00/market-feed-ingestor/internal/constant"
	"github.com/krobus00/market-feed-ingestor/internal/entity"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultStatusWriteTimeout = 500 * time.Millisecond

// RedisStatusStore mirrors feed states to redis so other processes can see
// them. Writes are bounded by a timeout; a slow redis never stalls a feed.
type RedisStatusStore struct {
	client  redis.Cmdable
	ttl     time.Duration
	timeout time.Duration

	mu     sync.Mutex
	latest map[string]entity.FeedStatus
}

func NewRedisStatusStore(client redis.Cmdable, ttl, timeout time.Duration) *RedisStatusStore {
	if timeout <= 0 {
		timeout = defaultStatusWriteTimeout
	}

	return &RedisStatusStore{
		client:  client,
		ttl:     max(ttl, 0),
		timeout: timeout,
		latest:  make(map[string]entity.FeedStatus),
	}
}

func (s *RedisStatusStore) Load(ctx context.Context, feed string) (entity.FeedStatus, bool, error) {
	rawStatus, err := s.client.Get(ctx, constant.GetFeedStatusKey(feed)).Result()
	if err != nil {
		if err == redis.Nil {
			return entity.FeedStatus{}, false, nil
		}
		return entity.FeedStatus{}, false, err
	}

	var status entity.FeedStatus
	if err := json.Unmarshal([]byte(rawStatus), &status); err != nil {
		return entity.FeedStatus{}, false, err
	}

	return status, true, nil
}

func (s *RedisStatusStore) Save(ctx context.Context, status entity.FeedStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, constant.GetFeedStatusKey(status.Feed), payload, s.ttl).Err()
}

func (s *RedisStatusStore) ObserveFeedState(transition entity.StateTransition) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.mu.Lock()
	status := applyTransition(s.latest[transition.Feed], transition)
	s.latest[transition.Feed] = status
	s.mu.Unlock()

	if err := s.Save(ctx, status); err != nil {
		logrus.WithFields(logrus.Fields{
			"stream": transition.Feed,
			"state":  transition.To,
		}).Warnf("failed to store feed status: %v", err)
	}
}
