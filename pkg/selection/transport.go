package selection

import (
	"context"
	"fmt"

	"github.com/morezero/host-interop/pkg/callable"
	"github.com/morezero/host-interop/pkg/objref"
	"github.com/morezero/host-interop/pkg/version"
)

// FQN is the fully qualified name of the selection service.
const FQN = "plm.interop.Selection"

// Versions lists the selection protocol versions this client implements.
var Versions = []string{version.V2014_02, version.V2014_07, version.V2014_10, version.V2019_05}

// ModeReplace is the only selection mode the client sends.
const ModeReplace = "Replace"

// Transport sends a selection to the host through one protocol version.
type Transport interface {
	Version() string
	Available() bool
	Send(ctx context.Context, objs []objref.ModelObject) error
}

type basicMessage struct {
	Selection     []objref.BasicRef `json:"Selection"`
	SelectionMode string            `json:"SelectionMode,omitempty"`
}

type advancedMessage struct {
	Selection     []objref.AdvancedRef `json:"Selection"`
	SelectionMode string               `json:"SelectionMode"`
}

type inboundMessage struct {
	Selection []objref.WireRef `json:"Selection"`
}

// buildMessage shapes the outbound payload for a protocol version.
func buildMessage(codec *objref.Codec, v string, objs []objref.ModelObject) (interface{}, error) {
	switch v {
	case version.V2014_02, version.V2014_07:
		refs := make([]objref.BasicRef, 0, len(objs))
		for _, o := range objs {
			refs = append(refs, objref.BasicFromObject(o))
		}
		msg := basicMessage{Selection: refs}
		if v == version.V2014_07 {
			msg.SelectionMode = ModeReplace
		}
		return msg, nil
	case version.V2014_10, version.V2019_05:
		refs, err := codec.EncodeAll(objs, objref.EncodingForVersion(v))
		if err != nil {
			return nil, err
		}
		return advancedMessage{Selection: refs, SelectionMode: ModeReplace}, nil
	}
	return nil, fmt.Errorf("%s - unsupported selection version %q", logPrefix, v)
}

// VersionedService is the selection callable service of one protocol
// version. Outbound it is a Transport; inbound it feeds Service.HandleInbound.
type VersionedService struct {
	callable.Base
	sync *Service
}

// NewVersionedService creates the selection service for version v.
func NewVersionedService(v string, host *callable.Host, sync *Service) *VersionedService {
	return &VersionedService{Base: callable.NewBase(FQN, v, host), sync: sync}
}

// Available reports whether the host declared this version.
func (s *VersionedService) Available() bool {
	return s.HostAvailable()
}

// Send encodes objs for this version and fires the host event.
func (s *VersionedService) Send(ctx context.Context, objs []objref.ModelObject) error {
	msg, err := buildMessage(s.sync.codec, s.Version(), objs)
	if err != nil {
		return err
	}
	return callable.FireHostEvent(ctx, s, msg)
}

// OnIncomingEvent handles a host selection push.
func (s *VersionedService) OnIncomingEvent(ctx context.Context, payload string) error {
	return s.sync.HandleInbound(ctx, payload, objref.EncodingForVersion(s.Version()))
}
