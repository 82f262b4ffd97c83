package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/krobus00/market-feed-ingestor/internal/entity"
)

const malformedFrameMessage = "Received non-JSON message, ignoring."

var ErrMalformedFrame = errors.New("malformed frame")

// Dispatcher turns raw frames into envelopes and hands the payload onward.
// A bad frame is dropped, it never ends the session.
type Dispatcher struct {
	sink   entity.DiagnosticSink
	router entity.PayloadRouter
}

func NewDispatcher(sink entity.DiagnosticSink, router entity.PayloadRouter) *Dispatcher {
	return &Dispatcher{sink: sink, router: router}
}

func (d *Dispatcher) Dispatch(ctx context.Context, feed string, frame []byte) (entity.InboundEnvelope, error) {
	var envelope entity.InboundEnvelope
	if err := json.Unmarshal(frame, &envelope); err != nil {
		d.sink.Emit(feed, entity.LevelWarning, malformedFrameMessage)
		return entity.InboundEnvelope{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	d.sink.Emit(feed, entity.LevelDebug, "Payload: "+envelope.PayloadString())

	if d.router == nil || !envelope.HasData() {
		return envelope, nil
	}

	if err := d.router.Route(ctx, feed, envelope.Data); err != nil {
		d.sink.Emit(feed, entity.LevelWarning, fmt.Sprintf("Failed to route payload: %v", err))
	}

	return envelope, nil
}
