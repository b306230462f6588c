package component

import "sync"

// Context is what the host last told the client about a hosted component.
type Context struct {
	ObjectUIDs           []string
	ExtraParams          map[string]string
	EmbeddedLocationView bool
}

// ContextStore maps component ids to their latest Context. Entries are
// overwritten by later events and never removed.
type ContextStore struct {
	mu       sync.RWMutex
	contexts map[string]Context
}

// NewContextStore creates an empty store.
func NewContextStore() *ContextStore {
	return &ContextStore{contexts: make(map[string]Context)}
}

// Set replaces the context of componentID.
func (s *ContextStore) Set(componentID string, c Context) {
	cp := Context{
		ObjectUIDs:           append([]string(nil), c.ObjectUIDs...),
		ExtraParams:          make(map[string]string, len(c.ExtraParams)),
		EmbeddedLocationView: c.EmbeddedLocationView,
	}
	for k, v := range c.ExtraParams {
		cp.ExtraParams[k] = v
	}
	s.mu.Lock()
	s.contexts[componentID] = cp
	s.mu.Unlock()
}

// Get returns the context of componentID.
func (s *ContextStore) Get(componentID string) (Context, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contexts[componentID]
	return c, ok
}

// Len returns the number of known components.
func (s *ContextStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contexts)
}
