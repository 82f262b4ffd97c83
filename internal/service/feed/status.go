package feed

import (
	"sort"
	"sync"

	"github.com/krobus00/market-feed-ingestor/internal/entity"
)

// StatusBoard keeps the latest state of every feed for the status endpoints.
type StatusBoard struct {
	mu       sync.RWMutex
	statuses map[string]entity.FeedStatus
}

func NewStatusBoard(feeds []entity.FeedConfig) *StatusBoard {
	board := &StatusBoard{statuses: make(map[string]entity.FeedStatus, len(feeds))}
	for _, feed := range feeds {
		board.statuses[feed.Name] = entity.FeedStatus{Feed: feed.Name, State: entity.StateDisconnected}
	}

	return board
}

func (b *StatusBoard) ObserveFeedState(transition entity.StateTransition) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.statuses[transition.Feed] = applyTransition(b.statuses[transition.Feed], transition)
}

func (b *StatusBoard) Snapshot() []entity.FeedStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()

	statuses := make([]entity.FeedStatus, 0, len(b.statuses))
	for _, status := range b.statuses {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Feed < statuses[j].Feed
	})

	return statuses
}

func (b *StatusBoard) Get(feed string) (entity.FeedStatus, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	status, ok := b.statuses[feed]
	return status, ok
}

// AllStreaming reports whether every known feed currently has a live session.
func (b *StatusBoard) AllStreaming() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, status := range b.statuses {
		if status.State != entity.StateStreaming {
			return false
		}
	}

	return len(b.statuses) > 0
}

func applyTransition(status entity.FeedStatus, transition entity.StateTransition) entity.FeedStatus {
	status.Feed = transition.Feed
	status.State = transition.To
	status.Attempt = transition.Attempt
	status.SessionID = transition.SessionID
	status.UpdatedAt = transition.At
	if transition.Failure != nil {
		failure := *transition.Failure
		status.LastFailure = &failure
	}

	return status
}

// Observers fans a transition out to several observers in order.
type Observers []entity.FeedStateObserver

func (o Observers) ObserveFeedState(transition entity.StateTransition) {
	for _, observer := range o {
		if observer != nil {
			observer.ObserveFeedState(transition)
		}
	}
}
