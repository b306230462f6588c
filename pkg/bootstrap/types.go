// Package bootstrap provides the static interop configuration: the services
// the client declares, optional development host services and the inline
// component table.
package bootstrap

import (
	"sort"

	"github.com/morezero/host-interop/pkg/component"
	"github.com/morezero/host-interop/pkg/descriptor"
)

// BootstrapService declares the versions of one service.
type BootstrapService struct {
	Versions    []string `json:"versions" yaml:"versions"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// BootstrapConfig is the root bootstrap configuration.
type BootstrapConfig struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version" yaml:"version"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// HostType is assumed when the host does not announce one (standalone and development).
	HostType       string                      `json:"hostType,omitempty" yaml:"hostType,omitempty"`
	ClientServices map[string]BootstrapService `json:"clientServices" yaml:"clientServices"`
	// HostServices pre-declares host services when no host answers the handshake.
	HostServices map[string]BootstrapService `json:"hostServices,omitempty" yaml:"hostServices,omitempty"`
	Aliases      map[string]string           `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Components   []component.Entry           `json:"components,omitempty" yaml:"components,omitempty"`
}

// ResolvedBootstrap provides fast lookup of bootstrap services.
type ResolvedBootstrap struct {
	name       string
	version    string
	hostType   string
	client     map[string]*BootstrapService
	host       map[string]*BootstrapService
	aliases    map[string]string
	components []component.Entry
}

// Get returns a client service by name or alias.
func (rb *ResolvedBootstrap) Get(ref string) *BootstrapService {
	if svc, ok := rb.client[ref]; ok {
		return svc
	}
	if resolved, ok := rb.aliases[ref]; ok {
		if svc, ok := rb.client[resolved]; ok {
			return svc
		}
	}
	return nil
}

// ResolveAlias resolves an alias to the fully qualified service name.
func (rb *ResolvedBootstrap) ResolveAlias(alias string) string {
	if resolved, ok := rb.aliases[alias]; ok {
		return resolved
	}
	return alias
}

// IsDeclared reports whether the client declares (fqn, version).
func (rb *ResolvedBootstrap) IsDeclared(fqn, version string) bool {
	svc := rb.Get(fqn)
	if svc == nil {
		return false
	}
	for _, v := range svc.Versions {
		if v == version {
			return true
		}
	}
	return false
}

// ClientKeys returns every declared client (fqn, version), sorted.
func (rb *ResolvedBootstrap) ClientKeys() []descriptor.Key {
	return keysOf(rb.client)
}

// HostKeys returns the pre-declared host services, sorted.
func (rb *ResolvedBootstrap) HostKeys() []descriptor.Key {
	return keysOf(rb.host)
}

// HostType returns the fallback host type.
func (rb *ResolvedBootstrap) HostType() string {
	return rb.hostType
}

// Components returns the inline component table.
func (rb *ResolvedBootstrap) Components() []component.Entry {
	return rb.components
}

// Name returns the bootstrap config name.
func (rb *ResolvedBootstrap) Name() string {
	return rb.name
}

// Version returns the bootstrap config version.
func (rb *ResolvedBootstrap) Version() string {
	return rb.version
}

func keysOf(services map[string]*BootstrapService) []descriptor.Key {
	var keys []descriptor.Key
	for fqn, svc := range services {
		for _, v := range svc.Versions {
			keys = append(keys, descriptor.Key{FullyQualifiedName: fqn, Version: v})
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}
