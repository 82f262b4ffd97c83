package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/krobus00/market-feed-ingestor/internal/constant"
	"github.com/krobus00/market-feed-ingestor/internal/entity"
)

var ErrInvalidConfiguration = errors.New("invalid configuration")

// ConfigurationError is fatal: the process refuses to start instead of retrying.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfiguration.Error(), e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}

func newConfigurationError(field, reason string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(reason, args...)}
}

func (e *EnvConfig) Validate() error {
	switch e.FeedSource {
	case constant.FeedSourceConfig:
		if err := ValidateFeeds(e.Feeds); err != nil {
			return err
		}
	case constant.FeedSourceDatabase:
		if strings.TrimSpace(e.Database[constant.FeedDatabaseName].DSN) == "" {
			return newConfigurationError("database."+constant.FeedDatabaseName+".dsn", "required when feed_source is %q", constant.FeedSourceDatabase)
		}
	default:
		return newConfigurationError("feed_source", "unknown source %q", e.FeedSource)
	}

	if e.Keepalive.PingInterval <= 0 {
		return newConfigurationError("keepalive.ping_interval", "must be positive")
	}
	if e.Keepalive.PongTimeout <= 0 {
		return newConfigurationError("keepalive.pong_timeout", "must be positive")
	}
	if e.Keepalive.HandshakeTimeout < 0 {
		return newConfigurationError("keepalive.handshake_timeout", "must not be negative")
	}

	if e.MaxFrameSize < 0 {
		return newConfigurationError("max_frame_size", "must not be negative")
	}

	return e.Reconnect.Validate()
}

func (r ReconnectConfig) Validate() error {
	switch r.Strategy {
	case "", ReconnectStrategyConstant:
		if r.Delay < 0 {
			return newConfigurationError("reconnect.delay", "must not be negative")
		}
	case ReconnectStrategyExponential:
		if r.Min < 0 || r.Max < 0 || r.Jitter < 0 {
			return newConfigurationError("reconnect", "durations must not be negative")
		}
		if r.Max > 0 && r.Max < r.Min {
			return newConfigurationError("reconnect.max", "must be greater than or equal to reconnect.min")
		}
		if r.Factor != 0 && r.Factor < 1 {
			return newConfigurationError("reconnect.factor", "must be at least 1")
		}
	default:
		return newConfigurationError("reconnect.strategy", "unknown strategy %q", r.Strategy)
	}

	return nil
}

// ValidateFeeds checks a resolved feed set regardless of where it was loaded from.
func ValidateFeeds(feeds []entity.FeedConfig) error {
	if len(feeds) == 0 {
		return newConfigurationError("feeds", "at least one feed is required")
	}

	seen := make(map[string]struct{}, len(feeds))
	for idx, feed := range feeds {
		field := fmt.Sprintf("feeds[%d]", idx)

		name := strings.TrimSpace(feed.Name)
		if name == "" {
			return newConfigurationError(field+".name", "is required")
		}
		if _, ok := seen[name]; ok {
			return newConfigurationError(field+".name", "duplicate feed %q", name)
		}
		seen[name] = struct{}{}

		endpoint, err := url.Parse(strings.TrimSpace(feed.Endpoint))
		if err != nil {
			return newConfigurationError(field+".endpoint", "invalid url: %v", err)
		}
		if endpoint.Scheme != "ws" && endpoint.Scheme != "wss" {
			return newConfigurationError(field+".endpoint", "scheme must be ws or wss, got %q", endpoint.Scheme)
		}
		if endpoint.Host == "" {
			return newConfigurationError(field+".endpoint", "host is required")
		}

		if len(feed.Topics) == 0 {
			return newConfigurationError(field+".topics", "at least one topic is required")
		}
		for _, topic := range feed.Topics {
			if strings.TrimSpace(topic) == "" {
				return newConfigurationError(field+".topics", "blank topic for feed %q", name)
			}
		}
	}

	return nil
}
