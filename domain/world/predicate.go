package world

import "fmt"

// Op is the comparison an action precondition or goal fact applies.
type Op string

const (
	OpIsTrue  Op = "is_true"
	OpIsFalse Op = "is_false"
	OpEquals  Op = "equals"
	OpAtLeast Op = "at_least"
	OpAtMost  Op = "at_most"
)

// Predicate is a single condition over one fact. Preconditions and goals
// are conjunctions of predicates.
type Predicate struct {
	Key     FactKey `json:"key"`
	Op      Op      `json:"op"`
	Operand int     `json:"operand,omitempty"`
}

// IsTrue requires the fact to be a true boolean.
func IsTrue(key FactKey) Predicate {
	return Predicate{Key: key, Op: OpIsTrue}
}

// IsFalse requires the fact to read false (including never written).
func IsFalse(key FactKey) Predicate {
	return Predicate{Key: key, Op: OpIsFalse}
}

// Equals requires the fact's integer value to equal n.
func Equals(key FactKey, n int) Predicate {
	return Predicate{Key: key, Op: OpEquals, Operand: n}
}

// AtLeast requires the fact's integer value to be >= n.
func AtLeast(key FactKey, n int) Predicate {
	return Predicate{Key: key, Op: OpAtLeast, Operand: n}
}

// AtMost requires the fact's integer value to be <= n.
func AtMost(key FactKey, n int) Predicate {
	return Predicate{Key: key, Op: OpAtMost, Operand: n}
}

// Holds evaluates the predicate against the given state.
func (p Predicate) Holds(s *State) bool {
	v := s.Get(p.Key)
	switch p.Op {
	case OpIsTrue:
		return v.AsBool()
	case OpIsFalse:
		return !v.AsBool()
	case OpEquals:
		return v.AsInt() == p.Operand
	case OpAtLeast:
		return v.AsInt() >= p.Operand
	case OpAtMost:
		return v.AsInt() <= p.Operand
	default:
		return false
	}
}

// String returns a human-readable representation, e.g. "chapter.count >= 1".
func (p Predicate) String() string {
	switch p.Op {
	case OpIsTrue:
		return fmt.Sprintf("%s == true", p.Key)
	case OpIsFalse:
		return fmt.Sprintf("%s == false", p.Key)
	case OpEquals:
		return fmt.Sprintf("%s == %d", p.Key, p.Operand)
	case OpAtLeast:
		return fmt.Sprintf("%s >= %d", p.Key, p.Operand)
	case OpAtMost:
		return fmt.Sprintf("%s <= %d", p.Key, p.Operand)
	default:
		return fmt.Sprintf("%s ? %d", p.Key, p.Operand)
	}
}
