// Package stats models the key-value payload a client submits and the rules
// that turn a raw payload into a storable record.
package stats

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Field names the report reads. Anything else is opaque to the backend and
// only needs to be present in the allow-list.
const (
	FieldJvmArgs         = "jvm_args"
	FieldOSName          = "os_name"
	FieldOSArchitecture  = "os_architecture"
	FieldOpenGLVersion   = "opengl_version"
	FieldMaxTextureSize  = "gl_max_texture_size"
	FieldOptiFineVersion = "optifine_version"
	FieldFoamFixVersion  = "foamfix_version"
	FieldLaunchedVersion = "launched_version"
)

const indexedPrefix = "jvm_arg["

// IndexedField returns the key of the i-th element of the jvm_arg family.
func IndexedField(i int) string {
	return indexedPrefix + strconv.Itoa(i) + "]"
}

// CapabilityField returns the key a client uses to report an OpenGL capability.
func CapabilityField(name string) string {
	return "gl_caps[" + name + "]"
}

// Kind tags the shape of a Value.
type Kind uint8

const (
	// KindOther is any JSON value that is neither a string nor a list of
	// strings. It only exists on records that have not been validated yet.
	KindOther Kind = iota
	KindString
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	default:
		return "other"
	}
}

// Value is a single stat value: a string or an ordered list of strings.
type Value struct {
	kind Kind
	str  string
	seq  []string
}

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Sequence returns an ordered sequence Value.
func Sequence(s []string) Value { return Value{kind: KindSequence, seq: s} }

func (v Value) Kind() Kind { return v.kind }

// Str returns the string payload; ok is false for non-string values.
func (v Value) Str() (s string, ok bool) {
	return v.str, v.kind == KindString
}

// Seq returns the sequence payload; ok is false for non-sequence values.
func (v Value) Seq() (s []string, ok bool) {
	return v.seq, v.kind == KindSequence
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindSequence:
		if v.seq == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.seq)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil && string(b) != "null" {
		*v = String(s)
		return nil
	}
	var seq []string
	if err := json.Unmarshal(b, &seq); err == nil && seq != nil {
		*v = Sequence(seq)
		return nil
	}
	*v = Value{kind: KindOther}
	return nil
}

// Record is one client's stats payload keyed by field name.
type Record map[string]Value

// Get returns the string value of field, or "" when it is missing or not a string.
func (r Record) Get(field string) string {
	s, _ := r.Lookup(field)
	return s
}

// Lookup returns the string value of field and whether it was present as a string.
func (r Record) Lookup(field string) (string, bool) {
	v, ok := r[field]
	if !ok {
		return "", false
	}
	return v.Str()
}

// Keys returns the record's field names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseRecord decodes a JSON object into a Record.
func ParseRecord(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("decode stats: not an object")
	}
	return rec, nil
}
