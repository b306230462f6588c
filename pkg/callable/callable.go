// Package callable implements the symmetric callable service abstraction:
// every service receives events and method calls from the host and can fire
// events and call methods on the host's counterpart service.
package callable

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/morezero/host-interop/pkg/bridge"
	"github.com/morezero/host-interop/pkg/commsutil"
	"github.com/morezero/host-interop/pkg/descriptor"
)

const logPrefix = "callable:service"

var (
	// ErrHostServiceUnavailable is returned when the host did not declare the
	// target (fqn, version).
	ErrHostServiceUnavailable = errors.New("host service unavailable")
	// ErrNotImplemented is returned by extension points a service does not override.
	ErrNotImplemented = errors.New("not implemented")
	// ErrHostRejected wraps failed replies from the host.
	ErrHostRejected = errors.New("host rejected call")
)

// Service is a callable service. Inbound extension points are invoked for
// host-initiated traffic, outbound ones deliver client-initiated traffic.
type Service interface {
	FullyQualifiedName() string
	Version() string

	OnIncomingEvent(ctx context.Context, payload string) error
	OnIncomingMethod(ctx context.Context, payload string) (string, error)
	OnOutgoingEvent(ctx context.Context, data string) error
	OnOutgoingMethod(ctx context.Context, data string) (string, error)
}

// Host is the outbound side shared by every service of a session.
type Host struct {
	Registry *descriptor.Registry
	Channel  bridge.Channel
	Subjects commsutil.Subjects
	// CallTimeout bounds host method calls; zero means the caller's context decides.
	CallTimeout time.Duration
}

// Base provides the default extension point behavior. Concrete services
// embed it and override the inbound points they handle.
type Base struct {
	fqn     string
	version string
	host    *Host
}

// NewBase creates the base for service (fqn, version).
func NewBase(fqn, version string, host *Host) Base {
	return Base{fqn: fqn, version: version, host: host}
}

// FullyQualifiedName returns the service name.
func (b *Base) FullyQualifiedName() string { return b.fqn }

// Version returns the protocol version tag.
func (b *Base) Version() string { return b.version }

// HostAvailable reports whether the host declared the counterpart service.
func (b *Base) HostAvailable() bool {
	return b.host != nil && b.host.Registry != nil && b.host.Registry.IsAvailable(b.fqn, b.version)
}

// OnIncomingEvent ignores the event.
func (b *Base) OnIncomingEvent(_ context.Context, _ string) error {
	slog.Debug(fmt.Sprintf("%s - %s@%s ignores incoming event", logPrefix, b.fqn, b.version))
	return nil
}

// OnIncomingMethod rejects the call.
func (b *Base) OnIncomingMethod(_ context.Context, _ string) (string, error) {
	return "", fmt.Errorf("%s - %s@%s has no method handler: %w", logPrefix, b.fqn, b.version, ErrNotImplemented)
}

// OnOutgoingEvent delivers data to the host. It is a no-op when the host does
// not support this service.
func (b *Base) OnOutgoingEvent(ctx context.Context, data string) error {
	if !b.HostAvailable() {
		slog.Debug(fmt.Sprintf("%s - host lacks %s@%s, dropping event", logPrefix, b.fqn, b.version))
		return nil
	}
	env := bridge.Envelope{ID: uuid.NewString(), FQN: b.fqn, Version: b.version, Kind: bridge.KindEvent, Payload: data}
	raw, err := commsutil.EncodePayload(env)
	if err != nil {
		return fmt.Errorf("%s - encode event: %w", logPrefix, err)
	}
	return b.host.Channel.Publish(ctx, b.host.Subjects.Host(b.fqn, b.version), raw)
}

// OnOutgoingMethod calls the host and returns its reply payload.
func (b *Base) OnOutgoingMethod(ctx context.Context, data string) (string, error) {
	if !b.HostAvailable() {
		return "", b.unavailableError()
	}
	if b.host.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.host.CallTimeout)
		defer cancel()
	}

	env := bridge.Envelope{ID: uuid.NewString(), FQN: b.fqn, Version: b.version, Kind: bridge.KindMethod, Payload: data}
	raw, err := commsutil.EncodePayload(env)
	if err != nil {
		return "", fmt.Errorf("%s - encode call: %w", logPrefix, err)
	}
	respData, err := b.host.Channel.Request(ctx, b.host.Subjects.Host(b.fqn, b.version), raw)
	if err != nil {
		return "", fmt.Errorf("%s - call %s@%s: %w", logPrefix, b.fqn, b.version, err)
	}
	var reply bridge.Reply
	if err := commsutil.DecodePayload(respData, &reply); err != nil {
		return "", fmt.Errorf("%s - decode reply from %s@%s: %w", logPrefix, b.fqn, b.version, err)
	}
	if !reply.Ok {
		msg := "no detail"
		if reply.Error != nil {
			msg = reply.Error.Code + ": " + reply.Error.Message
		}
		return "", fmt.Errorf("%s - %s@%s: %s: %w", logPrefix, b.fqn, b.version, msg, ErrHostRejected)
	}
	return reply.Result, nil
}

func (b *Base) unavailableError() error {
	return fmt.Errorf("%s - host does not support %s version %s: %w", logPrefix, b.fqn, b.version, ErrHostServiceUnavailable)
}

type availability interface {
	HostAvailable() bool
}

// FireHostEvent sends data (a JSON string or a value to marshal) to the host.
// Failures are logged and returned but never panic.
func FireHostEvent(ctx context.Context, svc Service, data interface{}) error {
	payload, err := commsutil.Stringify(data)
	if err != nil {
		return fmt.Errorf("%s - stringify event: %w", logPrefix, err)
	}
	return guardEvent(svc, "OnOutgoingEvent", svc.OnOutgoingEvent)(ctx, payload)
}

// CallHostMethod calls the host synchronously.
func CallHostMethod(ctx context.Context, svc Service, data interface{}) (string, error) {
	payload, err := commsutil.Stringify(data)
	if err != nil {
		return "", fmt.Errorf("%s - stringify call: %w", logPrefix, err)
	}
	return guardMethod(svc, "OnOutgoingMethod", svc.OnOutgoingMethod)(ctx, payload)
}

// CallHostMethodAsync calls the host in the background. When the host is
// known not to support the service the returned future is already rejected.
func CallHostMethodAsync(ctx context.Context, svc Service, data interface{}) *Future {
	if a, ok := svc.(availability); ok && !a.HostAvailable() {
		return Rejected(fmt.Errorf("%s - host does not support %s version %s: %w",
			logPrefix, svc.FullyQualifiedName(), svc.Version(), ErrHostServiceUnavailable))
	}
	f := newFuture()
	go func() {
		f.settle(CallHostMethod(ctx, svc, data))
	}()
	return f
}

// Register attaches svc's extension points to its descriptor in reg. Every
// slot is wrapped so errors and panics are logged at the boundary.
func Register(reg *descriptor.Registry, svc Service) *descriptor.ServiceDescriptor {
	return reg.Register(svc.FullyQualifiedName(), svc.Version(), descriptor.Handlers{
		OnMethod:     guardMethod(svc, "OnIncomingMethod", svc.OnIncomingMethod),
		OnEvent:      guardEvent(svc, "OnIncomingEvent", svc.OnIncomingEvent),
		OnHostMethod: guardMethod(svc, "OnOutgoingMethod", svc.OnOutgoingMethod),
		OnHostEvent:  guardEvent(svc, "OnOutgoingEvent", svc.OnOutgoingEvent),
	})
}

func guardEvent(svc Service, point string, fn descriptor.EventHandler) descriptor.EventHandler {
	return func(ctx context.Context, payload string) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s - panic in %s@%s %s: %v", logPrefix, svc.FullyQualifiedName(), svc.Version(), point, r)
			}
			if err != nil {
				slog.Error(err.Error())
			}
		}()
		return fn(ctx, payload)
	}
}

func guardMethod(svc Service, point string, fn descriptor.MethodHandler) descriptor.MethodHandler {
	return func(ctx context.Context, payload string) (result string, err error) {
		defer func() {
			if r := recover(); r != nil {
				result = ""
				err = fmt.Errorf("%s - panic in %s@%s %s: %v", logPrefix, svc.FullyQualifiedName(), svc.Version(), point, r)
			}
			if err != nil {
				if errors.Is(err, ErrHostServiceUnavailable) {
					slog.Debug(err.Error())
				} else {
					slog.Error(err.Error())
				}
			}
		}()
		return fn(ctx, payload)
	}
}
