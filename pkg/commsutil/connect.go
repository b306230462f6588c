// Package commsutil provides COMMS (NATS) connection helpers, payload codec and subject builders.
package commsutil

import (
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"
)

const logPrefix = "commsutil:connect"

// ReconnectWait is the pause between reconnect attempts.
const ReconnectWait = 2 * time.Second

// Options returns the connection options for a host-interop client named name.
// Reconnects are retried for as long as the host bridge may be restarting.
func Options(name string) []comms.Option {
	return []comms.Option{
		comms.Name(name),
		comms.Timeout(10 * time.Second),
		comms.ReconnectWait(ReconnectWait),
		comms.MaxReconnects(-1),
		comms.DisconnectErrHandler(func(_ *comms.Conn, err error) {
			slog.Warn(fmt.Sprintf("%s - %s disconnected: %v", logPrefix, name, err))
		}),
		comms.ReconnectHandler(func(nc *comms.Conn) {
			slog.Info(fmt.Sprintf("%s - %s reconnected to %s", logPrefix, name, nc.ConnectedUrl()))
		}),
		comms.ClosedHandler(func(*comms.Conn) {
			slog.Info(fmt.Sprintf("%s - %s connection closed", logPrefix, name))
		}),
	}
}

// Connect dials url with Options(name) followed by extra.
func Connect(url, name string, extra ...comms.Option) (*comms.Conn, error) {
	slog.Info(fmt.Sprintf("%s - Connecting to COMMS at %s as %s", logPrefix, url, name))

	nc, err := comms.Connect(url, append(Options(name), extra...)...)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
	}
	return nc, nil
}

// Status names the connection state for health output; nil is "DISCONNECTED".
func Status(nc *comms.Conn) string {
	if nc == nil {
		return comms.DISCONNECTED.String()
	}
	return nc.Status().String()
}
