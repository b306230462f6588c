// Package query shapes the key/value query messages exchanged with the host
// and serves host-initiated queries.
package query

import (
	"encoding/json"
	"fmt"
)

// Field is one key/value pair of a Data record.
type Field struct {
	Key   string `json:"Key"`
	Value string `json:"Value"`
}

// Data is a read-only ordered field map.
type Data struct {
	fields []Field
}

// NewData creates a read-only record from fields. Later duplicates of a key
// replace earlier ones in place.
func NewData(fields ...Field) Data {
	e := NewEditableData()
	for _, f := range fields {
		e.SetField(f.Key, f.Value)
	}
	return e.Freeze()
}

// Get returns the value for key.
func (d Data) Get(key string) (string, bool) {
	for _, f := range d.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Keys returns the keys in insertion order.
func (d Data) Keys() []string {
	keys := make([]string, 0, len(d.fields))
	for _, f := range d.fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// Fields returns a copy of the fields.
func (d Data) Fields() []Field {
	out := make([]Field, len(d.fields))
	copy(out, d.fields)
	return out
}

// Len returns the number of fields.
func (d Data) Len() int { return len(d.fields) }

// Edit returns an editable copy of d.
func (d Data) Edit() *EditableData {
	return &EditableData{fields: d.Fields()}
}

func (d Data) clone() Data {
	if d.fields == nil {
		return Data{}
	}
	return Data{fields: d.Fields()}
}

// MarshalJSON encodes the record as an array of {Key, Value}.
func (d Data) MarshalJSON() ([]byte, error) {
	if d.fields == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d.fields)
}

// UnmarshalJSON decodes an array of {Key, Value}.
func (d *Data) UnmarshalJSON(raw []byte) error {
	var fields []Field
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("%s - decode data: %w", logPrefix, err)
	}
	*d = NewData(fields...)
	return nil
}

// EditableData is a Data record that can be modified. Freeze hands out
// read-only copies; the editable fields are never shared.
type EditableData struct {
	fields []Field
}

// NewEditableData creates an empty editable record.
func NewEditableData() *EditableData {
	return &EditableData{}
}

// SetField sets key to value, keeping the key's original position when it
// already exists.
func (e *EditableData) SetField(key, value string) *EditableData {
	for i := range e.fields {
		if e.fields[i].Key == key {
			e.fields[i].Value = value
			return e
		}
	}
	e.fields = append(e.fields, Field{Key: key, Value: value})
	return e
}

// Get returns the value for key.
func (e *EditableData) Get(key string) (string, bool) { return e.view().Get(key) }

// Keys returns the keys in insertion order.
func (e *EditableData) Keys() []string { return e.view().Keys() }

// Len returns the number of fields.
func (e *EditableData) Len() int { return len(e.fields) }

// Freeze returns a read-only copy.
func (e *EditableData) Freeze() Data {
	return Data{fields: e.view().Fields()}
}

func (e *EditableData) view() Data { return Data{fields: e.fields} }
