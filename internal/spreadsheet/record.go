package spreadsheet

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FieldKind identifies what a FieldValue holds.
type FieldKind int

const (
	FieldNull FieldKind = iota
	FieldString
	FieldList
)

// FieldValue is a record value: null, a string, or a list of strings.
type FieldValue struct {
	kind FieldKind
	str  string
	list []string
}

// Null returns the null field value.
func Null() FieldValue { return FieldValue{} }

// String returns a string field value.
func String(s string) FieldValue { return FieldValue{kind: FieldString, str: s} }

// List returns a list field value. A nil slice is encoded as an empty list.
func List(values ...string) FieldValue {
	if values == nil {
		values = []string{}
	}
	return FieldValue{kind: FieldList, list: values}
}

// Kind reports what v holds.
func (v FieldValue) Kind() FieldKind { return v.kind }

// IsNull reports whether v is null.
func (v FieldValue) IsNull() bool { return v.kind == FieldNull }

// Str returns the string payload and whether v is a string.
func (v FieldValue) Str() (string, bool) { return v.str, v.kind == FieldString }

// Strings returns the list payload and whether v is a list.
func (v FieldValue) Strings() ([]string, bool) { return v.list, v.kind == FieldList }

func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case FieldString:
		return json.Marshal(v.str)
	case FieldList:
		return json.Marshal(v.list)
	default:
		return []byte("null"), nil
	}
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*v = Null()
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = String(s)
	case len(trimmed) > 0 && trimmed[0] == '[':
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("record list values must be strings: %w", err)
		}
		*v = List(list...)
	default:
		return fmt.Errorf("unsupported record value %s", truncate(trimmed, 32))
	}
	return nil
}

// Field is one key/value pair of a Record.
type Field struct {
	Key   string
	Value FieldValue
}

// Record is an ordered mapping from column name to value.
// The zero Record is empty and ready to use.
type Record struct {
	fields []Field
	index  map[string]int
}

// NewRecord builds a record from fields in order; a repeated key keeps its first
// position and its last value.
func NewRecord(fields ...Field) *Record {
	r := &Record{}
	for _, f := range fields {
		r.Set(f.Key, f.Value)
	}
	return r
}

// Set stores value under key. An existing key keeps its position.
func (r *Record) Set(key string, value FieldValue) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[key]; ok {
		r.fields[i].Value = value
		return
	}
	r.index[key] = len(r.fields)
	r.fields = append(r.fields, Field{Key: key, Value: value})
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (FieldValue, bool) {
	i, ok := r.index[key]
	if !ok {
		return FieldValue{}, false
	}
	return r.fields[i].Value, true
}

// GetString returns the value under key when it is present and a string.
func (r *Record) GetString(key string) (string, bool) {
	v, ok := r.Get(key)
	if !ok {
		return "", false
	}
	return v.Str()
}

// Len returns the number of keys.
func (r *Record) Len() int { return len(r.fields) }

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Key
	}
	return keys
}

// Fields returns a copy of the fields in order.
func (r *Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// AllNull reports whether every value is null. An empty record is all null.
func (r *Record) AllNull() bool {
	for _, f := range r.fields {
		if !f.Value.IsNull() {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the record as an object with keys in order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object, keeping document key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object")
	}

	*r = Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record key must be a string, got %v", tok)
		}
		var value FieldValue
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("record field %q: %w", key, err)
		}
		r.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
