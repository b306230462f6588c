// Package session owns the per-session interop state: the descriptor
// registry, the codec, the selection echo filter and every callable service.
// One HostSession is built at startup and shared by the transport layer.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/morezero/host-interop/pkg/bootstrap"
	"github.com/morezero/host-interop/pkg/bridge"
	"github.com/morezero/host-interop/pkg/callable"
	"github.com/morezero/host-interop/pkg/commsutil"
	"github.com/morezero/host-interop/pkg/component"
	"github.com/morezero/host-interop/pkg/descriptor"
	"github.com/morezero/host-interop/pkg/dispatcher"
	"github.com/morezero/host-interop/pkg/events"
	"github.com/morezero/host-interop/pkg/objref"
	"github.com/morezero/host-interop/pkg/query"
	"github.com/morezero/host-interop/pkg/selection"
)

const logPrefix = "session:session"

// Options holds parameters for New.
type Options struct {
	Bootstrap *bootstrap.ResolvedBootstrap
	Channel   bridge.Channel
	Subjects  commsutil.Subjects

	CallTimeout   time.Duration
	EchoWindow    time.Duration
	FuzzyHostType string
	// HostType overrides whatever the host announces.
	HostType string

	// ComponentSource backs the component table; nil uses the bootstrap's inline table.
	ComponentSource component.Source
	Loader          objref.Loader
	// Publisher delivers UI events; nil publishes on the channel's UI subjects.
	Publisher events.Publisher
	Now       func() time.Time
}

// HostSession is the interop state of one client session.
type HostSession struct {
	clientID      string
	fuzzyHostType string
	hostOverride  string
	boot          *bootstrap.ResolvedBootstrap

	registry   *descriptor.Registry
	host       *callable.Host
	codec      *objref.Codec
	publisher  events.Publisher
	selection  *selection.Service
	query      *query.Service
	components *component.Dispatcher
	dispatcher *dispatcher.Dispatcher

	mu          sync.RWMutex
	hostType    string
	standalone  bool
	handshakeAt time.Time
}

// New builds a session: declares the bootstrap client services and registers
// every callable service against them.
func New(opts Options) *HostSession {
	boot := opts.Bootstrap
	if boot == nil {
		boot = bootstrap.CreateResolvedBootstrap(bootstrap.GetDefaultBootstrapConfig())
	}
	ch := opts.Channel
	if ch == nil {
		ch = bridge.NewLoopback()
	}
	if opts.Subjects.Prefix == "" {
		opts.Subjects = commsutil.NewSubjects("")
	}
	loader := opts.Loader
	if loader == nil {
		loader = objref.SkeletonLoader{}
	}
	pub := opts.Publisher
	if pub == nil {
		pub = events.NewCommsPublisher(ch, opts.Subjects)
	}

	reg := descriptor.NewRegistry()
	for _, k := range boot.ClientKeys() {
		reg.Declare(k.FullyQualifiedName, k.Version)
	}

	s := &HostSession{
		clientID:      uuid.NewString(),
		fuzzyHostType: opts.FuzzyHostType,
		hostOverride:  opts.HostType,
		boot:          boot,
		registry:      reg,
		host:          &callable.Host{Registry: reg, Channel: ch, Subjects: opts.Subjects, CallTimeout: opts.CallTimeout},
		codec:         objref.DefaultCodec(),
		publisher:     pub,
	}

	s.selection = selection.NewService(selection.Params{
		Codec:     s.codec,
		Filter:    selection.NewEchoFilter(opts.EchoWindow, opts.Now),
		Publisher: pub,
	})
	for _, v := range selection.Versions {
		vs := selection.NewVersionedService(v, s.host, s.selection)
		s.selection.AddTransport(vs)
		callable.Register(reg, vs)
	}
	for _, t := range []objref.Type{
		objref.TypeBasic, objref.TypeUID, objref.TypeOccurrence, objref.TypeOccurrence2,
		objref.TypeArchitecture, objref.TypeContextObject, objref.TypeDefault,
	} {
		s.selection.RegisterHandler(t, selection.NewReplaceSelectionHandler(t, loader, pub))
	}
	s.selection.RegisterHandler(objref.TypeFilename, selection.NewFilenameHandler(pub))

	s.query = query.NewService(s.host)
	callable.Register(reg, s.query)

	src := opts.ComponentSource
	if src == nil {
		src = component.StaticSource(boot.Components())
	}
	s.components = component.NewDispatcher(component.Params{
		Table:     component.NewTable(src),
		Contexts:  component.NewContextStore(),
		Loader:    loader,
		Publisher: pub,
	})
	callable.Register(reg, component.NewContextService(s.host, s.codec, s.components.Contexts()))
	callable.Register(reg, component.NewShowService(s.host, s.components))

	s.dispatcher = dispatcher.NewDispatcher(reg)
	return s
}

// ClientID returns the id this session announces in the handshake.
func (s *HostSession) ClientID() string { return s.clientID }

// Registry returns the service descriptor registry.
func (s *HostSession) Registry() *descriptor.Registry { return s.registry }

// Selection returns the selection synchronization service.
func (s *HostSession) Selection() *selection.Service { return s.selection }

// Query returns the host query service.
func (s *HostSession) Query() *query.Service { return s.query }

// Components returns the component dispatcher.
func (s *HostSession) Components() *component.Dispatcher { return s.components }

// Codec returns the object reference codec.
func (s *HostSession) Codec() *objref.Codec { return s.codec }

// Host returns the outbound side shared by the services.
func (s *HostSession) Host() *callable.Host { return s.host }

// HostType returns the host integration type, empty before the handshake.
func (s *HostSession) HostType() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hostType
}

// ApplyHandshake records the host's declared services and host type. Only
// the first call has effect.
func (s *HostSession) ApplyHandshake(reply HandshakeReply) bool {
	if !s.registry.DeclareHost(reply.Services) {
		return false
	}
	hostType := reply.HostType
	if s.hostOverride != "" {
		hostType = s.hostOverride
	}

	s.mu.Lock()
	s.hostType = hostType
	s.standalone = reply.Standalone
	s.handshakeAt = time.Now().UTC()
	s.mu.Unlock()

	fuzzy := s.fuzzyHostType != "" && hostType == s.fuzzyHostType
	s.selection.Filter().SetFuzzy(fuzzy)
	slog.Info(fmt.Sprintf("%s - Host %q declared %d services (fuzzy echo=%v, standalone=%v)",
		logPrefix, hostType, len(reply.Services), fuzzy, reply.Standalone))
	return true
}

// HandleMessage dispatches a host envelope and returns the encoded reply.
func (s *HostSession) HandleMessage(ctx context.Context, data []byte) []byte {
	return s.dispatcher.HandleMessage(ctx, data)
}

// AnnounceSelection tells the host about a client selection change.
func (s *HostSession) AnnounceSelection(ctx context.Context, objs []objref.ModelObject) (selection.Result, error) {
	return s.selection.Announce(ctx, objs)
}

// Snapshot is a read-only view of the session for diagnostics.
type Snapshot struct {
	ClientID       string           `json:"clientId"`
	HostType       string           `json:"hostType"`
	HostDeclared   bool             `json:"hostDeclared"`
	Standalone     bool             `json:"standalone"`
	HandshakeAt    *time.Time       `json:"handshakeAt,omitempty"`
	FuzzyEcho      bool             `json:"fuzzyEcho"`
	ClientServices []descriptor.Key `json:"clientServices"`
	HostServices   []descriptor.Key `json:"hostServices"`
	SelectionVia   string           `json:"selectionVia,omitempty"`
	EchoRecords    int              `json:"echoRecords"`
	Components     int              `json:"componentContexts"`
}

// Snapshot returns the current session state.
func (s *HostSession) Snapshot() Snapshot {
	s.mu.RLock()
	snap := Snapshot{
		ClientID:   s.clientID,
		HostType:   s.hostType,
		Standalone: s.standalone,
	}
	if !s.handshakeAt.IsZero() {
		at := s.handshakeAt
		snap.HandshakeAt = &at
	}
	s.mu.RUnlock()

	snap.HostDeclared = s.registry.HostDeclared()
	snap.FuzzyEcho = s.selection.Filter().Fuzzy()
	snap.ClientServices = s.registry.List()
	snap.HostServices = s.registry.HostServices()
	if t, ok := s.selection.SelectTransport(); ok {
		snap.SelectionVia = t.Version()
	}
	s.selection.Filter().Prune()
	snap.EchoRecords = s.selection.Filter().Len()
	snap.Components = s.components.Contexts().Len()
	return snap
}
