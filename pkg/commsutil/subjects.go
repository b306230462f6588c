package commsutil

import (
	"fmt"
	"strings"
)

// DefaultPrefix is the subject namespace used when none is configured.
const DefaultPrefix = "interop"

// Subjects builds the NATS subjects of one interop namespace.
type Subjects struct {
	Prefix string
}

// NewSubjects returns subject builders for prefix (DefaultPrefix if empty).
func NewSubjects(prefix string) Subjects {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Subjects{Prefix: prefix}
}

// Client is the subject the host sends client-bound envelopes to.
func (s Subjects) Client() string {
	return s.Prefix + ".client"
}

// Handshake is the subject the client asks the host for its declared services on.
func (s Subjects) Handshake() string {
	return s.Prefix + ".host.handshake"
}

// Host builds the host-bound subject of a host service.
func (s Subjects) Host(fqn, version string) string {
	safe := strings.ReplaceAll(fqn, ".", "_")
	return fmt.Sprintf("%s.host.%s.v%s", s.Prefix, safe, version)
}

// UI builds a subject towards the browser UI layer (e.g. "selection.replace").
func (s Subjects) UI(name string) string {
	return s.Prefix + ".ui." + name
}
