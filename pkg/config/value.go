// Package config loads and merges omni's YAML configuration tree. Per
// spec.md's Non-goals, the concrete schema is an external collaborator:
// this package never assumes specific top-level keys beyond the handful
// (up, commands, suggest_config, suggest_clone) that the rest of the core
// reads generically. Everything else is opaque.
package config

// Value wraps a decoded YAML node: a map, a sequence, or a scalar. It lets
// the rest of the core navigate an arbitrary config tree without assuming
// a schema.
type Value struct {
	raw any
}

// NewValue wraps a raw decoded value (as produced by goccy/go-yaml) in a Value.
func NewValue(raw any) Value { return Value{raw: raw} }

// Raw returns the underlying decoded value.
func (v Value) Raw() any { return v.raw }

// IsZero reports whether the value was never set (nil underlying node).
func (v Value) IsZero() bool { return v.raw == nil }

// Map returns the value as a map, if it is one.
func (v Value) Map() (map[string]Value, bool) {
	m, ok := v.raw.(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(map[string]Value, len(m))
	for k, val := range m {
		out[k] = Value{raw: val}
	}
	return out, true
}

// Slice returns the value as a sequence, if it is one.
func (v Value) Slice() ([]Value, bool) {
	s, ok := v.raw.([]any)
	if !ok {
		return nil, false
	}
	out := make([]Value, len(s))
	for i, val := range s {
		out[i] = Value{raw: val}
	}
	return out, true
}

// String returns the value as a string, if it is a scalar string.
func (v Value) String() (string, bool) {
	s, ok := v.raw.(string)
	return s, ok
}

// Get looks up a dotted path (e.g. "up" or "suggest_config.shell") in a map
// value, returning the zero Value if any segment is missing or not a map.
func (v Value) Get(path string) Value {
	cur := v
	for _, seg := range splitPath(path) {
		m, ok := cur.Map()
		if !ok {
			return Value{}
		}
		next, ok := m[seg]
		if !ok {
			return Value{}
		}
		cur = next
	}
	return cur
}

func splitPath(path string) []string {
	var segs []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			segs = append(segs, path[start:i])
			start = i + 1
		}
	}
	segs = append(segs, path[start:])
	return segs
}
