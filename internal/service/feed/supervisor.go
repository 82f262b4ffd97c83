package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/krobus00/market-feed-ingestor/internal/entity"
)

var ErrNoFeeds = errors.New("feed supervisor: no feeds configured")

// Supervisor runs one Connection per feed. Each connection recovers from its
// own failures, so a feed going down never touches its siblings.
type Supervisor struct {
	connections []*Connection
}

func NewSupervisor(feeds []entity.FeedConfig, deps Dependencies) (*Supervisor, error) {
	if len(feeds) == 0 {
		return nil, ErrNoFeeds
	}

	connections := make([]*Connection, 0, len(feeds))
	for _, feed := range feeds {
		connections = append(connections, NewConnection(feed, deps))
	}

	return &Supervisor{connections: connections}, nil
}

// Run blocks until every feed has stopped, which only happens once ctx is done.
func (s *Supervisor) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for _, conn := range s.connections {
		wg.Add(1)
		go func(conn *Connection) {
			defer wg.Done()
			conn.sink.Emit(conn.feed.Name, entity.LevelInfo, "Starting feed")
			conn.Run(ctx)
			conn.sink.Emit(conn.feed.Name, entity.LevelInfo, "Feed stopped")
		}(conn)
	}

	wg.Wait()
}
