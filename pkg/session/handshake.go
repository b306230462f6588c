package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/morezero/host-interop/pkg/bridge"
	"github.com/morezero/host-interop/pkg/commsutil"
	"github.com/morezero/host-interop/pkg/descriptor"
)

const handshakeLogPrefix = "session:handshake"

// HandshakeRequest is what the client sends to the host on start.
type HandshakeRequest struct {
	ClientID string           `json:"clientId"`
	Services []descriptor.Key `json:"services"`
}

// HandshakeReply is the host's answer.
type HandshakeReply struct {
	HostType string           `json:"hostType"`
	Services []descriptor.Key `json:"services"`
	// Standalone is set locally when no host answered.
	Standalone bool `json:"-"`
}

// Handshake asks the host for its declared services. When no host answers
// within timeout the session falls back to standalone mode with the
// bootstrap's pre-declared host services.
func (s *HostSession) Handshake(ctx context.Context, timeout time.Duration) (HandshakeReply, error) {
	req := HandshakeRequest{ClientID: s.clientID, Services: s.registry.List()}
	data, err := commsutil.EncodePayload(req)
	if err != nil {
		return HandshakeReply{}, fmt.Errorf("%s - encode request: %w", handshakeLogPrefix, err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	raw, err := s.host.Channel.Request(ctx, s.host.Subjects.Handshake(), data)
	if err != nil {
		if errors.Is(err, bridge.ErrNoResponder) || errors.Is(err, context.DeadlineExceeded) {
			slog.Warn(fmt.Sprintf("%s - No host answered the handshake, running standalone: %v", handshakeLogPrefix, err))
			reply := s.StandaloneReply()
			s.ApplyHandshake(reply)
			return reply, nil
		}
		return HandshakeReply{}, fmt.Errorf("%s - request: %w", handshakeLogPrefix, err)
	}

	var reply HandshakeReply
	if err := commsutil.DecodePayload(raw, &reply); err != nil {
		return HandshakeReply{}, fmt.Errorf("%s - decode reply: %w", handshakeLogPrefix, err)
	}
	s.ApplyHandshake(reply)
	return reply, nil
}

// StandaloneReply is the handshake result used when no host is present.
func (s *HostSession) StandaloneReply() HandshakeReply {
	return HandshakeReply{
		HostType:   s.boot.HostType(),
		Services:   s.boot.HostKeys(),
		Standalone: true,
	}
}
