// Package objref converts client model objects to and from the versioned
// interop object reference shapes exchanged with the host.
package objref

// Type discriminates advanced object references.
type Type string

// Known reference types.
const (
	TypeUID           Type = "UID"
	TypeFilename      Type = "Filename"
	TypeOccurrence    Type = "Occurrence"
	TypeOccurrence2   Type = "Occurrence2"
	TypeArchitecture  Type = "Architecture"
	TypeContextObject Type = "ContextObject"
	TypeDefault       Type = "Default"
)

// TypeBasic is the grouping key used for legacy (2014_02) references, which
// carry no Type discriminator on the wire.
const TypeBasic Type = "Basic"

var validTypes = map[Type]struct{}{
	TypeUID:           {},
	TypeFilename:      {},
	TypeOccurrence:    {},
	TypeOccurrence2:   {},
	TypeArchitecture:  {},
	TypeContextObject: {},
	TypeDefault:       {},
}

// Valid reports whether t is one of the known reference types.
func (t Type) Valid() bool {
	_, ok := validTypes[t]
	return ok
}

// Property names read from ModelObject.Props by the built-in encoders.
const (
	PropFilename          = "filename"
	PropOccurrenceUID     = "occurrenceUid"
	PropProductContextUID = "productContextUid"
	PropArchitectureUID   = "architectureUid"
	PropContextUID        = "contextUid"
)

// ModelObject is a client-side domain object.
type ModelObject struct {
	UID   string            `json:"uid"`
	Type  string            `json:"type,omitempty"`
	DBID  string            `json:"dbId,omitempty"`
	Props map[string]string `json:"props,omitempty"`
}

// Prop returns a property value or "".
func (o ModelObject) Prop(name string) string {
	if o.Props == nil {
		return ""
	}
	return o.Props[name]
}

// BasicRef is the legacy InteropObjectRef_2014_02 shape.
type BasicRef struct {
	DBId    string `json:"DBId"`
	ObjId   string `json:"ObjId"`
	ObjType string `json:"ObjType"`
}

// AdvancedRef is the InteropObjectRef_2014_10 shape. Data holds a JSON
// document, possibly embedded-encoded depending on the protocol version.
type AdvancedRef struct {
	Type Type   `json:"Type"`
	Data string `json:"Data"`
}

// WireRef decodes either reference shape from an inbound payload.
type WireRef struct {
	Type    Type   `json:"Type,omitempty"`
	Data    string `json:"Data,omitempty"`
	DBId    string `json:"DBId,omitempty"`
	ObjId   string `json:"ObjId,omitempty"`
	ObjType string `json:"ObjType,omitempty"`
}

// IsAdvanced reports whether the reference carries a Type discriminator.
func (w WireRef) IsAdvanced() bool {
	return w.Type != ""
}

// GroupKey is the key inbound references are grouped under.
func (w WireRef) GroupKey() Type {
	if w.IsAdvanced() {
		return w.Type
	}
	return TypeBasic
}

// FromBasic wraps a BasicRef for decoding.
func FromBasic(b BasicRef) WireRef {
	return WireRef{DBId: b.DBId, ObjId: b.ObjId, ObjType: b.ObjType}
}

// FromAdvanced wraps an AdvancedRef for decoding.
func FromAdvanced(a AdvancedRef) WireRef {
	return WireRef{Type: a.Type, Data: a.Data}
}
