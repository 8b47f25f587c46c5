// Package opt provides Maybe, an optional value that round-trips through JSON as either the value
// or null. The protocol types in servicedef use it for optional request properties.
package opt

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Maybe holds either a value or nothing.
type Maybe[V any] struct {
	defined bool
	value   V
}

// Some returns a Maybe that has a defined value.
func Some[V any](value V) Maybe[V] {
	return Maybe[V]{defined: true, value: value}
}

// None returns a Maybe with no value.
func None[V any]() Maybe[V] { return Maybe[V]{} }

func (m Maybe[V]) IsDefined() bool { return m.defined }

// Value returns the value, or the zero value for the type if there is none.
func (m Maybe[V]) Value() V { return m.value }

// Get returns the value and whether there is one, in the style of a map lookup.
func (m Maybe[V]) Get() (V, bool) { return m.value, m.defined }

func (m Maybe[V]) OrElse(valueIfUndefined V) V {
	if m.defined {
		return m.value
	}
	return valueIfUndefined
}

// String formats the value with its own String method if it has one, otherwise with %v. An empty
// Maybe is "[none]".
func (m Maybe[V]) String() string {
	if !m.defined {
		return "[none]"
	}
	if s, ok := any(m.value).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", m.value)
}

// MarshalJSON encodes the value, or null if there is none.
func (m Maybe[V]) MarshalJSON() ([]byte, error) {
	if m.defined {
		return json.Marshal(m.value)
	}
	return []byte("null"), nil
}

// UnmarshalJSON treats null as None and anything else as Some of the decoded value.
func (m *Maybe[V]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = None[V]()
		return nil
	}
	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*m = Some(value)
	return nil
}
