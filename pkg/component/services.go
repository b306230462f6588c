package component

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/morezero/host-interop/pkg/callable"
	"github.com/morezero/host-interop/pkg/objref"
	"github.com/morezero/host-interop/pkg/version"
)

const servicesLogPrefix = "component:services"

// Fully qualified names of the component services.
const (
	ContextFQN   = "plm.interop.HostedComponentContext"
	ComponentFQN = "plm.interop.HostComponent"
)

type contextMessage struct {
	ComponentID             string            `json:"ComponentId"`
	Selection               []objref.WireRef  `json:"Selection"`
	ExtraParams             map[string]string `json:"ExtraParams"`
	UseEmbeddedLocationView bool              `json:"UseEmbeddedLocationView"`
}

type showMessage struct {
	ComponentID string `json:"ComponentId"`
}

// ContextService is HostedComponentContext_2014_07: the host announces the
// objects and parameters a component should open with.
type ContextService struct {
	callable.Base
	codec *objref.Codec
	store *ContextStore
}

// NewContextService creates the component context service.
func NewContextService(host *callable.Host, codec *objref.Codec, store *ContextStore) *ContextService {
	if codec == nil {
		codec = objref.DefaultCodec()
	}
	return &ContextService{
		Base:  callable.NewBase(ContextFQN, version.V2014_07, host),
		codec: codec,
		store: store,
	}
}

// OnIncomingEvent stores the announced context, replacing any previous one.
func (s *ContextService) OnIncomingEvent(_ context.Context, payload string) error {
	var msg contextMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return fmt.Errorf("%s - malformed component context: %w", servicesLogPrefix, err)
	}
	if msg.ComponentID == "" {
		return fmt.Errorf("%s - component context without ComponentId", servicesLogPrefix)
	}

	enc := objref.EncodingForVersion(s.Version())
	uids := make([]string, 0, len(msg.Selection))
	for _, ref := range msg.Selection {
		rec, ok := s.codec.Decode(ref, enc)
		if !ok {
			continue
		}
		if id := objref.Identifier(rec); id != "" {
			uids = append(uids, id)
		}
	}
	s.store.Set(msg.ComponentID, Context{
		ObjectUIDs:           uids,
		ExtraParams:          msg.ExtraParams,
		EmbeddedLocationView: msg.UseEmbeddedLocationView,
	})
	return nil
}

// ShowService is HostComponent_2014_07: the host asks the client to show a
// component.
type ShowService struct {
	callable.Base
	dispatcher *Dispatcher
}

// NewShowService creates the show component service.
func NewShowService(host *callable.Host, d *Dispatcher) *ShowService {
	return &ShowService{Base: callable.NewBase(ComponentFQN, version.V2014_07, host), dispatcher: d}
}

// OnIncomingEvent shows the component. Unknown components are already logged
// by the dispatcher and are not reported back to the host.
func (s *ShowService) OnIncomingEvent(ctx context.Context, payload string) error {
	_, err := s.show(ctx, payload)
	if errors.Is(err, ErrUnknownComponent) {
		return nil
	}
	return err
}

// OnIncomingMethod shows the component and returns the outcome.
func (s *ShowService) OnIncomingMethod(ctx context.Context, payload string) (string, error) {
	out, err := s.show(ctx, payload)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (s *ShowService) show(ctx context.Context, payload string) (Outcome, error) {
	var msg showMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return "", fmt.Errorf("%s - malformed show component: %w", servicesLogPrefix, err)
	}
	return s.dispatcher.Show(ctx, msg.ComponentID)
}
