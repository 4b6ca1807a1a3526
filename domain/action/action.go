// Package action provides the action catalog contract: units of work with
// declared preconditions and effects, registered once at startup and
// selected by the planner.
package action

import (
	"github.com/storyforge/autopilot-go/domain/world"
)

// Definition is a registered action: a stable identifier, the predicates
// that must hold before it runs, the fact assignments applied when it
// succeeds, and the name of the external capability that does the work.
type Definition struct {
	id            string
	label         string
	capability    string
	preconditions []world.Predicate
	effects       []world.Effect
	expansion     *Expansion
	idempotent    bool
}

// ID returns the stable string identifier.
func (d *Definition) ID() string {
	return d.id
}

// Label returns the human-readable label.
func (d *Definition) Label() string {
	return d.label
}

// Capability returns the name of the external capability the action
// delegates to.
func (d *Definition) Capability() string {
	return d.capability
}

// Preconditions returns the conjunction of predicates that must hold for
// the action to be eligible. For batchable actions these are the base
// preconditions shared by all targets.
func (d *Definition) Preconditions() []world.Predicate {
	return d.preconditions
}

// Effects returns the fact assignments applied on success. For batchable
// actions the per-target effects come from the expansion instead.
func (d *Definition) Effects() []world.Effect {
	return d.effects
}

// Batchable reports whether independent instances of this action may run
// concurrently within one planning step.
func (d *Definition) Batchable() bool {
	return d.expansion != nil
}

// Expansion returns the per-target expansion, or nil for non-batchable
// actions.
func (d *Definition) Expansion() *Expansion {
	return d.expansion
}

// Idempotent reports whether a failed invocation may be retried safely.
func (d *Definition) Idempotent() bool {
	return d.idempotent
}

// Builder provides a fluent API for constructing action definitions.
type Builder struct {
	def *Definition
}

// NewBuilder creates a builder for an action with the given identifier.
func NewBuilder(id string) *Builder {
	return &Builder{def: &Definition{id: id}}
}

// WithLabel sets the human-readable label.
func (b *Builder) WithLabel(label string) *Builder {
	b.def.label = label
	return b
}

// WithCapability sets the external capability name.
func (b *Builder) WithCapability(name string) *Builder {
	b.def.capability = name
	return b
}

// WithPreconditions sets the action's preconditions.
func (b *Builder) WithPreconditions(preds ...world.Predicate) *Builder {
	b.def.preconditions = preds
	return b
}

// WithEffects sets the action's effects.
func (b *Builder) WithEffects(effects ...world.Effect) *Builder {
	b.def.effects = effects
	return b
}

// BatchOver marks the action batchable with the given per-target expansion.
func (b *Builder) BatchOver(exp Expansion) *Builder {
	b.def.expansion = &exp
	return b
}

// Idempotent marks the action safe to retry.
func (b *Builder) Idempotent() *Builder {
	b.def.idempotent = true
	return b
}

// Build constructs the definition.
func (b *Builder) Build() (*Definition, error) {
	if b.def.id == "" {
		return nil, ErrEmptyID
	}
	if b.def.capability == "" {
		return nil, ErrNoCapability
	}
	if b.def.expansion != nil && b.def.expansion.Targets == nil {
		return nil, ErrNoTargetSelector
	}
	return b.def, nil
}

// MustBuild constructs the definition or panics. Intended for static
// catalogs registered at startup.
func (b *Builder) MustBuild() *Definition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}
