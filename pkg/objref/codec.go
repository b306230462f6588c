package objref

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

const logPrefix = "objref:codec"

// Parser turns a decoded Data document into a normalized record.
type Parser func(doc map[string]string) (map[string]string, error)

// RequireFields returns a Parser that checks the named fields are present
// and passes the document through.
func RequireFields(names ...string) Parser {
	return func(doc map[string]string) (map[string]string, error) {
		for _, n := range names {
			if doc[n] == "" {
				return nil, fmt.Errorf("%s - missing field %q", logPrefix, n)
			}
		}
		return doc, nil
	}
}

// Codec selects encoders by first match and parsers by type.
type Codec struct {
	mu       sync.RWMutex
	encoders []Encoder
	parsers  map[Type]Parser
}

// NewCodec returns a codec without encoders or parsers.
func NewCodec() *Codec {
	return &Codec{parsers: make(map[Type]Parser)}
}

// DefaultCodec returns a codec with the built-in encoders and parsers.
func DefaultCodec() *Codec {
	c := NewCodec()
	for _, e := range DefaultEncoders() {
		c.RegisterEncoder(e)
	}
	c.RegisterParser(TypeUID, RequireFields(FieldUID))
	c.RegisterParser(TypeFilename, RequireFields(FieldFilename))
	c.RegisterParser(TypeOccurrence, RequireFields(FieldUID, FieldOccurrenceUID))
	c.RegisterParser(TypeOccurrence2, RequireFields(FieldUID, FieldOccurrenceUID, FieldProductContextUID))
	c.RegisterParser(TypeArchitecture, RequireFields(FieldUID, FieldArchitectureUID))
	c.RegisterParser(TypeContextObject, RequireFields(FieldUID, FieldContextUID))
	c.RegisterParser(TypeDefault, RequireFields())
	return c
}

// RegisterEncoder appends an encoder. Order of registration is selection order.
func (c *Codec) RegisterEncoder(e Encoder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encoders = append(c.encoders, e)
}

// RegisterParser sets the parser for a reference type.
func (c *Codec) RegisterParser(t Type, p Parser) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parsers[t] = p
}

// EncoderFor returns the first registered encoder supporting obj.
func (c *Codec) EncoderFor(obj ModelObject) (Encoder, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.encoders {
		if e.Supports(obj) {
			return e, true
		}
	}
	return nil, false
}

// Encode converts obj using the first supporting encoder.
func (c *Codec) Encode(obj ModelObject, enc DataEncoding) (AdvancedRef, error) {
	e, ok := c.EncoderFor(obj)
	if !ok {
		return AdvancedRef{}, fmt.Errorf("%s - no encoder supports object %q", logPrefix, obj.UID)
	}
	data, err := encodeData(e.Fields(obj), enc)
	if err != nil {
		return AdvancedRef{}, err
	}
	return AdvancedRef{Type: e.Type(), Data: data}, nil
}

// EncodeAll encodes each object in order.
func (c *Codec) EncodeAll(objs []ModelObject, enc DataEncoding) ([]AdvancedRef, error) {
	out := make([]AdvancedRef, 0, len(objs))
	for _, o := range objs {
		ref, err := c.Encode(o, enc)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}

// Decode normalizes a wire reference. Unknown types and malformed data
// return false rather than an error: the host may be newer than the client.
func (c *Codec) Decode(ref WireRef, enc DataEncoding) (map[string]string, bool) {
	if !ref.IsAdvanced() {
		return map[string]string{
			FieldDBID:    ref.DBId,
			FieldObjID:   ref.ObjId,
			FieldObjType: ref.ObjType,
		}, true
	}

	c.mu.RLock()
	parse, ok := c.parsers[ref.Type]
	c.mu.RUnlock()
	if !ok {
		slog.Warn(fmt.Sprintf("%s - no parser for reference type %q", logPrefix, ref.Type))
		return nil, false
	}

	raw, err := decodeData(ref.Data, enc)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - %v", logPrefix, err))
		return nil, false
	}
	var doc map[string]string
	if err := json.Unmarshal(raw, &doc); err != nil {
		slog.Warn(fmt.Sprintf("%s - malformed %s data: %v", logPrefix, ref.Type, err))
		return nil, false
	}
	rec, err := parse(doc)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - %s reference rejected: %v", logPrefix, ref.Type, err))
		return nil, false
	}
	return rec, true
}

// EncodeBasic builds a legacy reference directly.
func EncodeBasic(dbID, objID, objType string) BasicRef {
	return BasicRef{DBId: dbID, ObjId: objID, ObjType: objType}
}

// BasicFromObject builds a legacy reference for obj.
func BasicFromObject(obj ModelObject) BasicRef {
	return EncodeBasic(obj.DBID, obj.UID, obj.Type)
}

// EncodeAdvanced builds an advanced reference directly. The type must be one
// of the known reference types.
func EncodeAdvanced(data string, t Type) (AdvancedRef, error) {
	if !t.Valid() {
		return AdvancedRef{}, fmt.Errorf("%s - unknown reference type %q", logPrefix, t)
	}
	return AdvancedRef{Type: t, Data: data}, nil
}

// Identifier returns the stable identifier of a normalized record.
func Identifier(rec map[string]string) string {
	for _, k := range []string{FieldUID, FieldObjID, FieldFilename} {
		if v := rec[k]; v != "" {
			return v
		}
	}
	return ""
}
