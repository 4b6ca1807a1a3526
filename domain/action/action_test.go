package action

import (
	"errors"
	"strconv"
	"testing"

	"github.com/storyforge/autopilot-go/domain/world"
)

func TestBuilder_Build(t *testing.T) {
	def, err := NewBuilder("create_outline").
		WithLabel("Create outline").
		WithCapability("outline.create").
		WithPreconditions(world.IsFalse("outline.exists")).
		WithEffects(world.SetBool("outline.exists", true)).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if def.ID() != "create_outline" {
		t.Errorf("ID() = %q, want %q", def.ID(), "create_outline")
	}
	if def.Label() != "Create outline" {
		t.Errorf("Label() = %q, want %q", def.Label(), "Create outline")
	}
	if def.Capability() != "outline.create" {
		t.Errorf("Capability() = %q, want %q", def.Capability(), "outline.create")
	}
	if def.Batchable() {
		t.Error("Batchable() = true for an action without expansion")
	}
	if len(def.Preconditions()) != 1 || len(def.Effects()) != 1 {
		t.Errorf("Preconditions/Effects lengths = %d/%d, want 1/1",
			len(def.Preconditions()), len(def.Effects()))
	}
}

func TestBuilder_Validation(t *testing.T) {
	t.Run("empty id", func(t *testing.T) {
		_, err := NewBuilder("").WithCapability("x").Build()
		if !errors.Is(err, ErrEmptyID) {
			t.Errorf("Build() error = %v, want ErrEmptyID", err)
		}
	})

	t.Run("missing capability", func(t *testing.T) {
		_, err := NewBuilder("draft").Build()
		if !errors.Is(err, ErrNoCapability) {
			t.Errorf("Build() error = %v, want ErrNoCapability", err)
		}
	})

	t.Run("batchable without target selector", func(t *testing.T) {
		_, err := NewBuilder("draft").
			WithCapability("chapter.draft").
			BatchOver(Expansion{}).
			Build()
		if !errors.Is(err, ErrNoTargetSelector) {
			t.Errorf("Build() error = %v, want ErrNoTargetSelector", err)
		}
	})
}

func TestExpansion_PerTarget(t *testing.T) {
	def := NewBuilder("draft_chapter").
		WithCapability("chapter.draft").
		WithPreconditions(world.IsTrue("outline.exists")).
		BatchOver(Expansion{
			Targets: func(s *world.State) []string {
				n := s.GetInt("chapter.count")
				targets := make([]string, 0, n)
				for i := 1; i <= n; i++ {
					targets = append(targets, strconv.Itoa(i))
				}
				return targets
			},
			Preconditions: func(target string) []world.Predicate {
				return []world.Predicate{world.IsFalse(world.FactKey("chapter." + target + ".drafted"))}
			},
			Effects: func(target string) []world.Effect {
				return []world.Effect{world.SetBool(world.FactKey("chapter."+target+".drafted"), true)}
			},
		}).
		MustBuild()

	if !def.Batchable() {
		t.Fatal("Batchable() = false, want true")
	}

	s := world.FromFacts(map[world.FactKey]world.Value{
		"outline.exists": world.Bool(true),
		"chapter.count":  world.Int(2),
	})

	targets := def.Expansion().Targets(s)
	if len(targets) != 2 {
		t.Fatalf("Targets() returned %d targets, want 2", len(targets))
	}

	preds := def.Expansion().TargetPreconditions("1")
	if len(preds) != 1 || preds[0].Key != "chapter.1.drafted" {
		t.Errorf("TargetPreconditions(1) = %v, want predicate on chapter.1.drafted", preds)
	}

	effects := def.Expansion().TargetEffects("2")
	if len(effects) != 1 || effects[0].Key != "chapter.2.drafted" {
		t.Errorf("TargetEffects(2) = %v, want effect on chapter.2.drafted", effects)
	}
}
