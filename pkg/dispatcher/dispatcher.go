// Package dispatcher routes client-bound host envelopes to the registered
// service descriptors.
package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/morezero/host-interop/pkg/bridge"
	"github.com/morezero/host-interop/pkg/descriptor"
)

const logPrefix = "dispatcher:dispatch"

// Dispatcher routes host envelopes to descriptor handlers.
type Dispatcher struct {
	registry *descriptor.Registry
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(reg *descriptor.Registry) *Dispatcher {
	return &Dispatcher{registry: reg}
}

// HandleMessage decodes raw envelope bytes, dispatches them and returns the
// encoded reply. It never fails: malformed input yields a failure reply.
func (d *Dispatcher) HandleMessage(ctx context.Context, data []byte) []byte {
	var env bridge.Envelope
	var resp *bridge.Reply
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to decode envelope: %v", logPrefix, err))
		resp = bridge.Failure("", bridge.CodeInvalidRequest, "Failed to decode envelope")
	} else {
		resp = d.Dispatch(ctx, &env)
	}
	out, err := json.Marshal(resp)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode reply: %v", logPrefix, err))
		out, _ = json.Marshal(bridge.Failure(resp.ID, bridge.CodeHandlerFailed, "Failed to encode reply"))
	}
	return out
}

// Dispatch routes an envelope to the handler of its (fqn, version).
func (d *Dispatcher) Dispatch(ctx context.Context, env *bridge.Envelope) *bridge.Reply {
	slog.Debug(fmt.Sprintf("%s - kind=%s service=%s@%s id=%s", logPrefix, env.Kind, env.FQN, env.Version, env.ID))

	if env.FQN == "" || env.Version == "" {
		return bridge.Failure(env.ID, bridge.CodeInvalidRequest, "Envelope is missing fqn or version")
	}

	desc := d.registry.Find(env.FQN, env.Version)
	if desc == nil {
		slog.Warn(fmt.Sprintf("%s - no service %s@%s", logPrefix, env.FQN, env.Version))
		return bridge.Failure(env.ID, bridge.CodeServiceNotFound,
			fmt.Sprintf("Unknown service: %s@%s", env.FQN, env.Version))
	}
	h := desc.Handlers()

	switch env.Kind {
	case bridge.KindEvent:
		return d.handleEvent(ctx, env, h)
	case bridge.KindMethod:
		return d.handleMethod(ctx, env, h)
	default:
		return bridge.Failure(env.ID, bridge.CodeInvalidRequest, fmt.Sprintf("Unknown kind: %s", env.Kind))
	}
}

func (d *Dispatcher) handleEvent(ctx context.Context, env *bridge.Envelope, h descriptor.Handlers) *bridge.Reply {
	if h.OnEvent == nil {
		return bridge.Failure(env.ID, bridge.CodeServiceNotFound, "Service has no event handler")
	}
	if err := h.OnEvent(ctx, env.Payload); err != nil {
		return bridge.Failure(env.ID, bridge.CodeHandlerFailed, err.Error())
	}
	return &bridge.Reply{ID: env.ID, Ok: true}
}

func (d *Dispatcher) handleMethod(ctx context.Context, env *bridge.Envelope, h descriptor.Handlers) *bridge.Reply {
	if h.OnMethod == nil {
		return bridge.Failure(env.ID, bridge.CodeServiceNotFound, "Service has no method handler")
	}
	result, err := h.OnMethod(ctx, env.Payload)
	if err != nil {
		return bridge.Failure(env.ID, bridge.CodeHandlerFailed, err.Error())
	}
	return &bridge.Reply{ID: env.ID, Ok: true, Result: result}
}
