package world

import "encoding/json"

// State holds the facts describing a project's current progress.
//
// A State is owned by exactly one autopilot session. Within a session the
// dispatcher is the sole writer: concurrent batch members return their
// effects and the dispatcher serializes the apply, so State itself carries
// no locking.
type State struct {
	facts map[FactKey]Value
}

// NewState creates an empty state. Every fact reads as the zero Value.
func NewState() *State {
	return &State{facts: make(map[FactKey]Value)}
}

// FromFacts creates a state pre-populated with the given facts.
func FromFacts(facts map[FactKey]Value) *State {
	s := NewState()
	for k, v := range facts {
		s.facts[k] = v
	}
	return s
}

// Get returns the current value of a fact, or the zero Value if the fact
// was never written. It never fails for unknown keys.
func (s *State) Get(key FactKey) Value {
	return s.facts[key]
}

// GetBool returns the fact as a boolean (false when unset or non-boolean).
func (s *State) GetBool(key FactKey) bool {
	return s.facts[key].AsBool()
}

// GetInt returns the fact as an integer (0 when unset or non-integer).
func (s *State) GetInt(key FactKey) int {
	return s.facts[key].AsInt()
}

// Set writes a single fact. Intended for seeding state; during a session
// all mutation goes through Apply.
func (s *State) Set(key FactKey, v Value) {
	s.facts[key] = v
}

// Apply applies all effects as a single visible update. The caller
// guarantees the effect list is the complete, consistent outcome of one
// invocation or one settled batch; partial application across a batch must
// never reach this method.
func (s *State) Apply(effects []Effect) {
	for _, e := range effects {
		s.facts[e.Key] = e.Value
	}
}

// Snapshot returns an independent copy for the planner to reason over
// without observing mutations mid-decision.
func (s *State) Snapshot() *State {
	return FromFacts(s.facts)
}

// Facts returns a copy of all written facts.
func (s *State) Facts() map[FactKey]Value {
	out := make(map[FactKey]Value, len(s.facts))
	for k, v := range s.facts {
		out[k] = v
	}
	return out
}

// Len returns the number of written facts.
func (s *State) Len() int {
	return len(s.facts)
}

// MarshalJSON encodes the state as a flat fact object.
func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.facts)
}

// UnmarshalJSON decodes a flat fact object.
func (s *State) UnmarshalJSON(data []byte) error {
	facts := make(map[FactKey]Value)
	if err := json.Unmarshal(data, &facts); err != nil {
		return err
	}
	s.facts = facts
	return nil
}
