package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/morezero/host-interop/pkg/bridge"
	"github.com/morezero/host-interop/pkg/commsutil"
)

const commsPublisherLogPrefix = "events:comms_publisher"

// CommsPublisher publishes UI events on "<prefix>.ui.<event name>" subjects.
type CommsPublisher struct {
	ch       bridge.Channel
	subjects commsutil.Subjects
}

// NewCommsPublisher creates a new CommsPublisher.
func NewCommsPublisher(ch bridge.Channel, subjects commsutil.Subjects) *CommsPublisher {
	return &CommsPublisher{ch: ch, subjects: subjects}
}

// Publish encodes event and publishes it on its UI subject.
func (p *CommsPublisher) Publish(ctx context.Context, event Event) error {
	data, err := commsutil.EncodePayload(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", commsPublisherLogPrefix, err)
	}

	subject := p.subjects.UI(event.Name())
	if err := p.ch.Publish(ctx, subject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, subject, err))
		return err
	}

	slog.Debug(fmt.Sprintf("%s - Published %s", commsPublisherLogPrefix, event.Name()))
	return nil
}
