package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/morezero/host-interop/pkg/callable"
	"github.com/morezero/host-interop/pkg/commsutil"
	"github.com/morezero/host-interop/pkg/version"
)

const serviceLogPrefix = "query:service"

// FQN is the fully qualified name of the host query service.
const FQN = "plm.interop.HostQuery"

// ErrUnknownQuery is returned when no responder handles a query id.
var ErrUnknownQuery = errors.New("unknown query")

// Responder answers one host query and returns the response records.
type Responder func(ctx context.Context, request *Message) ([]Data, error)

// Service is the HostQuery_2014_02 callable service. The host sends query
// messages as method calls; the client can query the host the same way.
// Response messages arriving as events are handed to Listeners.
type Service struct {
	callable.Base

	mu         sync.RWMutex
	responders map[string]Responder
	listeners  []func(*Message)
}

// NewService creates the host query service.
func NewService(host *callable.Host) *Service {
	return &Service{
		Base:       callable.NewBase(FQN, version.V2014_02, host),
		responders: make(map[string]Responder),
	}
}

// Handle installs the responder for queryID.
func (s *Service) Handle(queryID string, r Responder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responders[queryID] = r
}

// Listen registers fn for messages the host pushes as events.
func (s *Service) Listen(fn func(*Message)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Queries returns the query ids with a responder.
func (s *Service) Queries() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.responders))
	for id := range s.responders {
		out = append(out, id)
	}
	return out
}

// OnIncomingMethod answers a host query.
func (s *Service) OnIncomingMethod(ctx context.Context, payload string) (string, error) {
	req, err := Parse(payload)
	if err != nil {
		return "", fmt.Errorf("%s - %w", serviceLogPrefix, err)
	}

	s.mu.RLock()
	r, ok := s.responders[req.QueryID()]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%s - query %q: %w", serviceLogPrefix, req.QueryID(), ErrUnknownQuery)
	}

	data, err := r(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s - query %q: %w", serviceLogPrefix, req.QueryID(), err)
	}
	return commsutil.Stringify(CreateResponseFor(req, data))
}

// OnIncomingEvent delivers a host-pushed message to listeners.
func (s *Service) OnIncomingEvent(_ context.Context, payload string) error {
	msg, err := Parse(payload)
	if err != nil {
		return fmt.Errorf("%s - %w", serviceLogPrefix, err)
	}

	s.mu.RLock()
	listeners := append([]func(*Message){}, s.listeners...)
	s.mu.RUnlock()
	if len(listeners) == 0 {
		slog.Debug(fmt.Sprintf("%s - no listener for message %s of query %s", serviceLogPrefix, msg.MessageID(), msg.QueryID()))
	}
	for _, fn := range listeners {
		fn(msg)
	}
	return nil
}

// Ask sends a query to the host and returns its response.
func (s *Service) Ask(ctx context.Context, queryID string, data []Data) (*Message, error) {
	req := CreateMessageWithGeneratedID(queryID, data)
	raw, err := callable.CallHostMethod(ctx, s, req)
	if err != nil {
		return nil, err
	}
	resp, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s - %w", serviceLogPrefix, err)
	}
	if resp.MessageID() != req.MessageID() {
		slog.Warn(fmt.Sprintf("%s - response message id %s does not match request %s", serviceLogPrefix, resp.MessageID(), req.MessageID()))
	}
	return resp, nil
}

// Notify pushes msg to the host without waiting for an answer.
func (s *Service) Notify(ctx context.Context, msg *Message) error {
	return callable.FireHostEvent(ctx, s, msg)
}
