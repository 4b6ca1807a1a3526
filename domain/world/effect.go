package world

import "fmt"

// Effect is a single fact assignment applied after an action invocation
// succeeds. Effects are declared on actions and may also be returned by a
// capability when only the generated content knows the value (e.g. the
// chapter count produced by outlining).
type Effect struct {
	Key   FactKey `json:"key"`
	Value Value   `json:"value"`
}

// Set creates an effect assigning an arbitrary value.
func Set(key FactKey, v Value) Effect {
	return Effect{Key: key, Value: v}
}

// SetBool creates a boolean effect.
func SetBool(key FactKey, v bool) Effect {
	return Effect{Key: key, Value: Bool(v)}
}

// SetInt creates an integer effect.
func SetInt(key FactKey, n int) Effect {
	return Effect{Key: key, Value: Int(n)}
}

// Changes reports whether applying the effect would alter the given state.
func (e Effect) Changes(s *State) bool {
	return !s.Get(e.Key).Equal(e.Value)
}

// String returns a human-readable representation, e.g. "outline.exists = true".
func (e Effect) String() string {
	return fmt.Sprintf("%s = %s", e.Key, e.Value)
}
