// Package miniyaml implements the restricted YAML dialect used for repstack
// content files: flat string values, lists of strings or single-level
// records, nested mappings, and pipe-delimited multiline blocks.
//
// The dialect is intentionally small. Anchors, multi-document streams, flow
// collections and typed scalars are out of scope; everything is a string.
// Parsing never fails: out-of-subset input degrades to a best-effort
// partial tree so a malformed content file can never take down content
// loading.
package miniyaml

// Value is a node in the generic tree produced by Parse and consumed by
// Serialize. The three concrete shapes are Scalar, List and Mapping; a nil
// Value stands for null/absent and is skipped on serialization.
type Value interface {
	isValue()
}

// Scalar is a plain string value. The dialect has no other scalar types.
type Scalar string

func (Scalar) isValue() {}

// List is an ordered sequence of values.
type List []Value

func (List) isValue() {}

// Entry is a single key/value pair in a Mapping.
type Entry struct {
	Key   string
	Value Value
}

// Mapping is an ordered set of key/value pairs. Order is part of the codec
// contract: keys serialize in insertion order and parse in source order, so
// round-tripped documents keep their shape under version control.
type Mapping []Entry

func (Mapping) isValue() {}

// Get returns the value stored under key and whether the key is present.
func (m Mapping) Get(key string) (Value, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present.
func (m Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores value under key. An existing key is updated in place, keeping
// its original position; a new key is appended. Keys are unique at a given
// nesting level.
func (m Mapping) Set(key string, value Value) Mapping {
	for i, e := range m {
		if e.Key == key {
			m[i].Value = value
			return m
		}
	}
	return append(m, Entry{Key: key, Value: value})
}

// Delete removes key from the mapping, preserving the order of the
// remaining entries. Missing keys are a no-op.
func (m Mapping) Delete(key string) Mapping {
	for i, e := range m {
		if e.Key == key {
			return append(m[:i], m[i+1:]...)
		}
	}
	return m
}

// Keys returns the mapping's keys in order.
func (m Mapping) Keys() []string {
	keys := make([]string, len(m))
	for i, e := range m {
		keys[i] = e.Key
	}
	return keys
}

// String returns the scalar stored under key, or "" when the key is absent
// or holds a non-scalar value.
func (m Mapping) String(key string) string {
	v, ok := m.Get(key)
	if !ok {
		return ""
	}
	s, ok := v.(Scalar)
	if !ok {
		return ""
	}
	return string(s)
}

// ListOf returns the list stored under key, or nil when the key is absent
// or holds a non-list value.
func (m Mapping) ListOf(key string) List {
	v, ok := m.Get(key)
	if !ok {
		return nil
	}
	l, ok := v.(List)
	if !ok {
		return nil
	}
	return l
}

// Child returns the nested mapping stored under key, or nil when the key is
// absent or holds a non-mapping value.
func (m Mapping) Child(key string) Mapping {
	v, ok := m.Get(key)
	if !ok {
		return nil
	}
	c, ok := v.(Mapping)
	if !ok {
		return nil
	}
	return c
}

// Clone returns a deep copy of the mapping. Services hand parsed trees
// across layers and edit them; mutating a clone never touches the source.
func (m Mapping) Clone() Mapping {
	if m == nil {
		return nil
	}
	out := make(Mapping, len(m))
	for i, e := range m {
		out[i] = Entry{Key: e.Key, Value: cloneValue(e.Value)}
	}
	return out
}

// Clone returns a deep copy of the list.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	for i, v := range l {
		out[i] = cloneValue(v)
	}
	return out
}

func cloneValue(v Value) Value {
	switch t := v.(type) {
	case Mapping:
		return t.Clone()
	case List:
		return t.Clone()
	default:
		return v
	}
}

// Strings flattens a parsed list into its scalar texts. Plain list entries
// parse as single-field {text: ...} records, so both records and bare
// scalars contribute; other shapes are skipped.
func (l List) Strings() []string {
	out := make([]string, 0, len(l))
	for _, v := range l {
		switch item := v.(type) {
		case Scalar:
			out = append(out, string(item))
		case Mapping:
			if text, ok := item.Get("text"); ok {
				if s, ok := text.(Scalar); ok {
					out = append(out, string(s))
				}
			}
		}
	}
	return out
}
