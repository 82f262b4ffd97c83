package util

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
)

func PublishEvent(ctx context.Context, js nats.JetStreamContext, subject string, timeout time.Duration, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	_, err = js.Publish(subject, payload, nats.Context(ctx))
	if err != nil {
		return err
	}

	return nil
}
