package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	comms "github.com/nats-io/nats.go"
)

const logPrefix = "bridge:channel"

// ErrNoResponder is returned by Request when nothing on the other side
// listens on the subject.
var ErrNoResponder = errors.New("no responder on subject")

// Channel is the opaque transport towards the host.
type Channel interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Request(ctx context.Context, subject string, data []byte) ([]byte, error)
}

// NatsChannel is a Channel over a NATS connection.
type NatsChannel struct {
	nc             *comms.Conn
	defaultTimeout time.Duration
}

// NewNatsChannel wraps nc. defaultTimeout bounds requests whose context has
// no deadline; NATS request/reply needs one.
func NewNatsChannel(nc *comms.Conn, defaultTimeout time.Duration) *NatsChannel {
	if defaultTimeout <= 0 {
		defaultTimeout = 30 * time.Second
	}
	return &NatsChannel{nc: nc, defaultTimeout: defaultTimeout}
}

// Publish sends data on subject.
func (c *NatsChannel) Publish(_ context.Context, subject string, data []byte) error {
	if err := c.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("%s - publish %s: %w", logPrefix, subject, err)
	}
	return nil
}

// Request sends data on subject and waits for a reply.
func (c *NatsChannel) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.defaultTimeout)
		defer cancel()
	}
	msg, err := c.nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		if errors.Is(err, comms.ErrNoResponders) {
			return nil, fmt.Errorf("%s - %s: %w", logPrefix, subject, ErrNoResponder)
		}
		return nil, fmt.Errorf("%s - request %s: %w", logPrefix, subject, err)
	}
	return msg.Data, nil
}
