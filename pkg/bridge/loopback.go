package bridge

import (
	"context"
	"fmt"
	"sync"
)

// Message is a published message captured by Loopback.
type Message struct {
	Subject string
	Data    []byte
}

// Responder answers a request on a Loopback subject.
type Responder func(ctx context.Context, data []byte) ([]byte, error)

// Loopback is an in-memory Channel. Published messages are recorded and
// forwarded to subscribers; requests are answered by registered responders.
type Loopback struct {
	mu          sync.Mutex
	published   []Message
	responders  map[string]Responder
	subscribers map[string][]func(data []byte)
}

// NewLoopback creates an empty Loopback.
func NewLoopback() *Loopback {
	return &Loopback{
		responders:  make(map[string]Responder),
		subscribers: make(map[string][]func(data []byte)),
	}
}

// Handle installs the responder for subject.
func (l *Loopback) Handle(subject string, fn Responder) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.responders[subject] = fn
}

// Subscribe registers fn for messages published on subject.
func (l *Loopback) Subscribe(subject string, fn func(data []byte)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscribers[subject] = append(l.subscribers[subject], fn)
}

// Publish records the message and delivers it synchronously to subscribers.
func (l *Loopback) Publish(_ context.Context, subject string, data []byte) error {
	cp := append([]byte(nil), data...)
	l.mu.Lock()
	l.published = append(l.published, Message{Subject: subject, Data: cp})
	subs := append([]func([]byte){}, l.subscribers[subject]...)
	l.mu.Unlock()
	for _, fn := range subs {
		fn(cp)
	}
	return nil
}

// Request calls the responder registered for subject.
func (l *Loopback) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	l.mu.Lock()
	fn, ok := l.responders[subject]
	l.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%s - %s: %w", logPrefix, subject, ErrNoResponder)
	}
	return fn(ctx, data)
}

// Published returns a copy of all messages published so far.
func (l *Loopback) Published() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Message, len(l.published))
	copy(out, l.published)
	return out
}

// PublishedOn returns the messages published on subject.
func (l *Loopback) PublishedOn(subject string) []Message {
	var out []Message
	for _, m := range l.Published() {
		if m.Subject == subject {
			out = append(out, m)
		}
	}
	return out
}

// Reset forgets published messages.
func (l *Loopback) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.published = nil
}
