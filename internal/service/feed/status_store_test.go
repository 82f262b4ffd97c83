package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/goccy/go-json"
	"github.com/krobus00/market-feed-ingestor/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStatusStore_ObserveFeedState(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStatusStore(client, time.Minute, time.Second)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	failure := &entity.FailureRecord{Kind: entity.FailureConnectionClosed, Detail: "websocket: close 1001 (going away)"}

	backoff, err := json.Marshal(entity.FeedStatus{
		Feed:        "spot",
		State:       entity.StateBackoff,
		Attempt:     1,
		LastFailure: failure,
		UpdatedAt:   at,
	})
	require.NoError(t, err)

	streaming, err := json.Marshal(entity.FeedStatus{
		Feed:        "spot",
		State:       entity.StateStreaming,
		SessionID:   "session-1",
		LastFailure: failure,
		UpdatedAt:   at.Add(time.Second),
	})
	require.NoError(t, err)

	mock.ExpectSet("feed_status:spot", backoff, time.Minute).SetVal("OK")
	mock.ExpectSet("feed_status:spot", streaming, time.Minute).SetVal("OK")

	store.ObserveFeedState(entity.StateTransition{
		Feed:    "spot",
		From:    entity.StateStreaming,
		To:      entity.StateBackoff,
		Attempt: 1,
		Failure: failure,
		At:      at,
	})
	store.ObserveFeedState(entity.StateTransition{
		Feed:      "spot",
		From:      entity.StateSubscribing,
		To:        entity.StateStreaming,
		SessionID: "session-1",
		At:        at.Add(time.Second),
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStatusStore_ObserveFeedStateIgnoresRedisErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStatusStore(client, 0, 0)

	payload, err := json.Marshal(entity.FeedStatus{Feed: "perp", State: entity.StateConnecting})
	require.NoError(t, err)

	mock.ExpectSet("feed_status:perp", payload, 0).SetErr(errors.New("connection refused"))

	assert.NotPanics(t, func() {
		store.ObserveFeedState(entity.StateTransition{Feed: "perp", From: entity.StateDisconnected, To: entity.StateConnecting})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStatusStore_Load(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStatusStore(client, time.Minute, time.Second)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectGet("feed_status:spot").SetVal(`{"feed":"spot","state":"streaming","attempt":0,"session_id":"abc","updated_at":"2026-03-01T10:00:00Z"}`)

		status, ok, err := store.Load(ctx, "spot")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, entity.StateStreaming, status.State)
		assert.Equal(t, "abc", status.SessionID)
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectGet("feed_status:perp").RedisNil()

		_, ok, err := store.Load(ctx, "perp")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("redis error", func(t *testing.T) {
		mock.ExpectGet("feed_status:perp").SetErr(errors.New("i/o timeout"))

		_, _, err := store.Load(ctx, "perp")
		assert.EqualError(t, err, "i/o timeout")
	})

	t.Run("corrupt value", func(t *testing.T) {
		mock.ExpectGet("feed_status:spot").SetVal(`not-json`)

		_, ok, err := store.Load(ctx, "spot")
		assert.Error(t, err)
		assert.False(t, ok)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
