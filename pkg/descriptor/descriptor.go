// Package descriptor holds the registry of client and host service endpoints
// known to a host session.
package descriptor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/morezero/host-interop/pkg/version"
)

const logPrefix = "descriptor:registry"

// MethodHandler handles a method call and returns a JSON string reply.
type MethodHandler func(ctx context.Context, payload string) (string, error)

// EventHandler handles a fire-and-forget event.
type EventHandler func(ctx context.Context, payload string) error

// Handlers are the four callback slots attached to a descriptor.
// OnMethod and OnEvent are inbound (host-initiated); OnHostMethod and
// OnHostEvent are outbound (client-initiated).
type Handlers struct {
	OnMethod     MethodHandler
	OnEvent      EventHandler
	OnHostMethod MethodHandler
	OnHostEvent  EventHandler
}

// Key identifies a service endpoint.
type Key struct {
	FullyQualifiedName string `json:"fqn"`
	Version            string `json:"version"`
}

// NewKey builds a key with the version normalized ("2019_05|" and "2019_05"
// are the same endpoint). Unparseable versions are kept as given.
func NewKey(fqn, ver string) Key {
	if t, err := version.Parse(ver); err == nil {
		ver = t.String()
	}
	return Key{FullyQualifiedName: fqn, Version: ver}
}

// String renders the key as "fqn@version".
func (k Key) String() string {
	return k.FullyQualifiedName + "@" + k.Version
}

// ServiceDescriptor is a declared service endpoint plus its attached handlers.
type ServiceDescriptor struct {
	FullyQualifiedName string
	Version            string

	mu       sync.RWMutex
	handlers Handlers
}

// Key returns the descriptor identity.
func (d *ServiceDescriptor) Key() Key {
	return Key{FullyQualifiedName: d.FullyQualifiedName, Version: d.Version}
}

// Handlers returns the currently attached handlers.
func (d *ServiceDescriptor) Handlers() Handlers {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handlers
}

func (d *ServiceDescriptor) setHandlers(h Handlers) {
	d.mu.Lock()
	d.handlers = h
	d.mu.Unlock()
}

// Registry holds client service descriptors and the host's declared services.
type Registry struct {
	mu           sync.RWMutex
	descriptors  map[Key]*ServiceDescriptor
	host         map[Key]struct{}
	hostDeclared bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[Key]*ServiceDescriptor),
		host:        make(map[Key]struct{}),
	}
}

// Declare pre-declares a client service from static configuration.
// Declaring an existing key is a no-op.
func (r *Registry) Declare(fqn, ver string) *ServiceDescriptor {
	key := NewKey(fqn, ver)
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.descriptors[key]; ok {
		return d
	}
	d := &ServiceDescriptor{FullyQualifiedName: key.FullyQualifiedName, Version: key.Version}
	r.descriptors[key] = d
	return d
}

// Register attaches handlers to the descriptor for (fqn, version). A second
// registration for the same key reuses the descriptor and replaces its
// handlers. A service that was never declared gets a synthesized descriptor.
func (r *Registry) Register(fqn, ver string, handlers Handlers) *ServiceDescriptor {
	key := NewKey(fqn, ver)

	r.mu.Lock()
	d, ok := r.descriptors[key]
	if !ok {
		d = &ServiceDescriptor{FullyQualifiedName: key.FullyQualifiedName, Version: key.Version}
		r.descriptors[key] = d
	}
	r.mu.Unlock()

	if !ok {
		slog.Warn(fmt.Sprintf("%s - service %s was not declared by configuration, synthesizing descriptor", logPrefix, key))
	}
	d.setHandlers(handlers)
	return d
}

// Find returns the descriptor for (fqn, version), or nil.
func (r *Registry) Find(fqn, ver string) *ServiceDescriptor {
	key := NewKey(fqn, ver)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.descriptors[key]
}

// List returns all client descriptor keys, sorted.
func (r *Registry) List() []Key {
	r.mu.RLock()
	keys := make([]Key, 0, len(r.descriptors))
	for k := range r.descriptors {
		keys = append(keys, k)
	}
	r.mu.RUnlock()
	sortKeys(keys)
	return keys
}

// DeclareHost records the services the host supports. It is accepted once per
// session; the set is not renegotiated. Returns false if the host set was
// already declared.
func (r *Registry) DeclareHost(services []Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hostDeclared {
		slog.Warn(fmt.Sprintf("%s - host services already declared, ignoring %d entries", logPrefix, len(services)))
		return false
	}
	for _, k := range services {
		r.host[NewKey(k.FullyQualifiedName, k.Version)] = struct{}{}
	}
	r.hostDeclared = true
	slog.Info(fmt.Sprintf("%s - host declared %d services", logPrefix, len(services)))
	return true
}

// HostDeclared reports whether the handshake populated the host set.
func (r *Registry) HostDeclared() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hostDeclared
}

// IsAvailable reports whether the host declared support for exactly (fqn, version).
func (r *Registry) IsAvailable(fqn, ver string) bool {
	key := NewKey(fqn, ver)
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.host[key]
	return ok
}

// HostServices returns the host-declared keys, sorted.
func (r *Registry) HostServices() []Key {
	r.mu.RLock()
	keys := make([]Key, 0, len(r.host))
	for k := range r.host {
		keys = append(keys, k)
	}
	r.mu.RUnlock()
	sortKeys(keys)
	return keys
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].FullyQualifiedName != keys[j].FullyQualifiedName {
			return keys[i].FullyQualifiedName < keys[j].FullyQualifiedName
		}
		return keys[i].Version < keys[j].Version
	})
}
