package objref

// Encoder converts model objects of one reference type.
type Encoder interface {
	Type() Type
	// Supports reports whether this encoder can represent obj.
	Supports(obj ModelObject) bool
	// Fields returns the normalized field record for obj.
	Fields(obj ModelObject) map[string]string
}

// Field names of normalized records.
const (
	FieldUID               = "uid"
	FieldFilename          = "filename"
	FieldOccurrenceUID     = "occurrenceUid"
	FieldProductContextUID = "productContextUid"
	FieldArchitectureUID   = "architectureUid"
	FieldContextUID        = "contextUid"
	FieldType              = "type"
	FieldDBID              = "dbId"
	FieldObjID             = "objId"
	FieldObjType           = "objType"
)

type funcEncoder struct {
	typ      Type
	supports func(ModelObject) bool
	fields   func(ModelObject) map[string]string
}

func (e *funcEncoder) Type() Type { return e.typ }
func (e *funcEncoder) Supports(obj ModelObject) bool { return e.supports(obj) }
func (e *funcEncoder) Fields(obj ModelObject) map[string]string { return e.fields(obj) }

// NewEncoder builds an Encoder from functions.
func NewEncoder(t Type, supports func(ModelObject) bool, fields func(ModelObject) map[string]string) Encoder {
	return &funcEncoder{typ: t, supports: supports, fields: fields}
}

// DefaultEncoders returns the built-in encoders in selection order. The most
// specific shapes come first; Default accepts anything.
func DefaultEncoders() []Encoder {
	return []Encoder{
		NewEncoder(TypeOccurrence2,
			func(o ModelObject) bool {
				return o.Prop(PropOccurrenceUID) != "" && o.Prop(PropProductContextUID) != ""
			},
			func(o ModelObject) map[string]string {
				return map[string]string{
					FieldUID:               o.UID,
					FieldOccurrenceUID:     o.Prop(PropOccurrenceUID),
					FieldProductContextUID: o.Prop(PropProductContextUID),
				}
			}),
		NewEncoder(TypeOccurrence,
			func(o ModelObject) bool { return o.Prop(PropOccurrenceUID) != "" },
			func(o ModelObject) map[string]string {
				return map[string]string{FieldUID: o.UID, FieldOccurrenceUID: o.Prop(PropOccurrenceUID)}
			}),
		NewEncoder(TypeArchitecture,
			func(o ModelObject) bool { return o.Prop(PropArchitectureUID) != "" },
			func(o ModelObject) map[string]string {
				return map[string]string{FieldUID: o.UID, FieldArchitectureUID: o.Prop(PropArchitectureUID)}
			}),
		NewEncoder(TypeContextObject,
			func(o ModelObject) bool { return o.Prop(PropContextUID) != "" },
			func(o ModelObject) map[string]string {
				return map[string]string{FieldUID: o.UID, FieldContextUID: o.Prop(PropContextUID)}
			}),
		NewEncoder(TypeFilename,
			func(o ModelObject) bool { return o.UID == "" && o.Prop(PropFilename) != "" },
			func(o ModelObject) map[string]string {
				return map[string]string{FieldFilename: o.Prop(PropFilename)}
			}),
		NewEncoder(TypeUID,
			func(o ModelObject) bool { return o.UID != "" },
			func(o ModelObject) map[string]string {
				return map[string]string{FieldUID: o.UID}
			}),
		NewEncoder(TypeDefault,
			func(ModelObject) bool { return true },
			func(o ModelObject) map[string]string {
				out := map[string]string{}
				if o.UID != "" {
					out[FieldUID] = o.UID
				}
				if o.Type != "" {
					out[FieldType] = o.Type
				}
				if o.DBID != "" {
					out[FieldDBID] = o.DBID
				}
				return out
			}),
	}
}
