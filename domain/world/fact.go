// Package world provides the world state model for the writing autopilot:
// the facts describing a project's progress, the predicates actions and
// goals evaluate against them, and the effects that mutate them.
package world

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FactKey identifies a single fact about a project, e.g. "outline.exists"
// or "chapter.3.drafted". Keys are stable strings; a key that was never
// written reads as the zero Value, never as an error.
type FactKey string

// String returns the string representation of the key.
func (k FactKey) String() string {
	return string(k)
}

// Kind discriminates the payload of a Value.
type Kind int

const (
	KindUnset Kind = iota // Never written; reads as false / 0
	KindBool
	KindInt
)

// Value is a small tagged fact value: a boolean flag or a counter
// (chapter count, word count). The zero Value is the unset fact.
type Value struct {
	kind Kind
	b    bool
	n    int
}

// Bool creates a boolean value.
func Bool(v bool) Value {
	return Value{kind: KindBool, b: v}
}

// Int creates an integer value.
func Int(n int) Value {
	return Value{kind: KindInt, n: n}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind {
	return v.kind
}

// AsBool returns the boolean payload. Unset and integer values read false.
func (v Value) AsBool() bool {
	return v.kind == KindBool && v.b
}

// AsInt returns the integer payload. Unset and boolean values read 0.
func (v Value) AsInt() int {
	if v.kind != KindInt {
		return 0
	}
	return v.n
}

// IsZero reports whether the value is indistinguishable from an unset fact
// (unset, false, or 0).
func (v Value) IsZero() bool {
	switch v.kind {
	case KindBool:
		return !v.b
	case KindInt:
		return v.n == 0
	default:
		return true
	}
}

// Equal compares two values. All zero values compare equal regardless of
// kind, so writing false to an absent fact is not a state change.
func (v Value) Equal(o Value) bool {
	if v.IsZero() && o.IsZero() {
		return true
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.n == o.n
	default:
		return true
	}
}

// String returns a human-readable representation.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.Itoa(v.n)
	default:
		return "unset"
	}
}

// MarshalJSON encodes the value as a native JSON bool or number.
// Unset values encode as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.n)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a native JSON bool or number.
func (v *Value) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*v = Value{}
		return nil
	}
	if s == "true" || s == "false" {
		*v = Bool(s == "true")
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidValue, s)
	}
	*v = Int(n)
	return nil
}
