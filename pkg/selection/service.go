package selection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/morezero/host-interop/pkg/events"
	"github.com/morezero/host-interop/pkg/objref"
	"github.com/morezero/host-interop/pkg/version"
)

const logPrefix = "selection:service"

// Handler processes the inbound references of one type and returns the
// identifiers it accepted.
type Handler func(ctx context.Context, records []map[string]string) ([]string, error)

// Result describes what Announce did.
type Result struct {
	// Filtered is true when the selection was suppressed as an echo.
	Filtered bool
	// Sent is true when the selection went out through a transport.
	Sent bool
	// Version is the protocol version used, if sent.
	Version string
}

// Params holds parameters for NewService.
type Params struct {
	Codec     *objref.Codec
	Filter    *EchoFilter
	Publisher events.Publisher
}

// Service is the selection synchronization service.
type Service struct {
	codec     *objref.Codec
	filter    *EchoFilter
	publisher events.Publisher

	// announceMu serializes Announce so the echo check, send and record of
	// one selection are not interleaved with another.
	announceMu sync.Mutex

	mu         sync.Mutex
	transports []Transport
	handlers   map[objref.Type]Handler
}

// NewService creates a selection service.
func NewService(p Params) *Service {
	codec := p.Codec
	if codec == nil {
		codec = objref.DefaultCodec()
	}
	filter := p.Filter
	if filter == nil {
		filter = NewEchoFilter(DefaultWindow, nil)
	}
	pub := p.Publisher
	if pub == nil {
		pub = &events.NoOpPublisher{}
	}
	return &Service{
		codec:     codec,
		filter:    filter,
		publisher: pub,
		handlers:  make(map[objref.Type]Handler),
	}
}

// Filter returns the echo filter.
func (s *Service) Filter() *EchoFilter {
	return s.filter
}

// AddTransport adds a transport; transports are kept newest version first.
func (s *Service) AddTransport(t Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transports = append(s.transports, t)
	sort.SliceStable(s.transports, func(i, j int) bool {
		return version.Compare(s.transports[i].Version(), s.transports[j].Version()) > 0
	})
}

// RegisterHandler sets the inbound handler for a reference type.
func (s *Service) RegisterHandler(t objref.Type, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[t] = h
}

// SelectTransport returns the newest transport the host supports.
func (s *Service) SelectTransport() (Transport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transports {
		if t.Available() {
			return t, true
		}
	}
	return nil, false
}

// Announce tells the host about a new client selection unless it is an echo
// of a selection recently exchanged with the host.
func (s *Service) Announce(ctx context.Context, objs []objref.ModelObject) (Result, error) {
	ids := make([]string, 0, len(objs))
	for _, o := range objs {
		ids = append(ids, objref.IdentifierOf(o))
	}

	s.announceMu.Lock()
	defer s.announceMu.Unlock()

	if s.filter.IsFiltered(ids) {
		slog.Debug(fmt.Sprintf("%s - suppressed selection echo %v", logPrefix, ids))
		return Result{Filtered: true}, nil
	}

	t, ok := s.SelectTransport()
	if !ok {
		slog.Debug(fmt.Sprintf("%s - host supports no selection version", logPrefix))
		return Result{}, nil
	}
	if err := t.Send(ctx, objs); err != nil {
		return Result{}, fmt.Errorf("%s - send selection via %s: %w", logPrefix, t.Version(), err)
	}
	s.filter.Record(ids)
	return Result{Sent: true, Version: t.Version()}, nil
}

// HandleInbound applies a host selection push. References are grouped by
// type and each group goes to its handler; unknown types are skipped.
func (s *Service) HandleInbound(ctx context.Context, payload string, enc objref.DataEncoding) error {
	var msg inboundMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return fmt.Errorf("%s - malformed selection payload: %w", logPrefix, err)
	}

	if len(msg.Selection) == 0 {
		s.filter.Record(nil)
		return s.publisher.Publish(ctx, &events.SelectionReplacedEvent{
			Source:    "host",
			Objects:   []objref.ModelObject{},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}

	var order []objref.Type
	groups := make(map[objref.Type][]objref.WireRef)
	for _, ref := range msg.Selection {
		key := ref.GroupKey()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], ref)
	}

	for _, key := range order {
		s.mu.Lock()
		h, ok := s.handlers[key]
		s.mu.Unlock()
		if !ok {
			slog.Warn(fmt.Sprintf("%s - no handler for selection type %q, skipping %d refs", logPrefix, key, len(groups[key])))
			continue
		}

		records := make([]map[string]string, 0, len(groups[key]))
		for _, ref := range groups[key] {
			rec, ok := s.codec.Decode(ref, enc)
			if !ok {
				continue
			}
			records = append(records, rec)
		}
		if len(records) == 0 {
			continue
		}

		ids, err := h(ctx, records)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - %s selection handler failed: %v", logPrefix, key, err))
			continue
		}
		// Each group replaces the UI selection on its own, so each is its own record.
		if len(ids) > 0 {
			s.filter.Record(ids)
		}
	}
	return nil
}
