package novel

import (
	"github.com/storyforge/autopilot-go/domain/action"
	"github.com/storyforge/autopilot-go/domain/world"
)

// DefaultMinDialogueWords is the smallest draft a dialogue polish pass
// will touch. Shorter chapters need more drafting first.
const DefaultMinDialogueWords = 500

// Action identifiers.
const (
	ActionCreateOutline     = "create_outline"
	ActionBuildWorldNotes   = "build_world_notes"
	ActionProfileCharacters = "profile_characters"
	ActionDraftChapter      = "draft_chapter"
	ActionPolishDialogue    = "polish_dialogue"
)

// Config configures the novel pack.
type Config struct {
	// MinDialogueWords is the word count a chapter draft must reach
	// before dialogue polishing becomes eligible.
	MinDialogueWords int
}

// Option configures the novel pack.
type Option func(*Config)

// WithMinDialogueWords overrides the dialogue polish threshold.
func WithMinDialogueWords(n int) Option {
	return func(c *Config) {
		c.MinDialogueWords = n
	}
}

// CreateOutline produces the project outline. Its capability reports
// the chapter count as a fact.
func CreateOutline() *action.Definition {
	return action.NewBuilder(ActionCreateOutline).
		WithLabel("Create outline").
		WithCapability("outline.create").
		WithPreconditions(world.IsFalse(KeyOutlineExists)).
		WithEffects(world.SetBool(KeyOutlineExists, true)).
		Idempotent().
		MustBuild()
}

// BuildWorldNotes writes the setting notes.
func BuildWorldNotes() *action.Definition {
	return action.NewBuilder(ActionBuildWorldNotes).
		WithLabel("Build world notes").
		WithCapability("world.notes").
		WithPreconditions(world.IsFalse(KeyWorldNotes)).
		WithEffects(world.SetBool(KeyWorldNotes, true)).
		Idempotent().
		MustBuild()
}

// ProfileCharacters writes character profiles for the outlined cast.
func ProfileCharacters() *action.Definition {
	return action.NewBuilder(ActionProfileCharacters).
		WithLabel("Profile characters").
		WithCapability("characters.profile").
		WithPreconditions(
			world.IsTrue(KeyOutlineExists),
			world.IsFalse(KeyCharactersProfiled),
		).
		WithEffects(world.SetBool(KeyCharactersProfiled, true)).
		Idempotent().
		MustBuild()
}

// DraftChapter drafts one chapter per batch target. Targets fan out
// over the outlined chapters that have no draft yet.
func DraftChapter() *action.Definition {
	return action.NewBuilder(ActionDraftChapter).
		WithLabel("Draft chapter").
		WithCapability("chapter.draft").
		WithPreconditions(world.IsTrue(KeyOutlineExists)).
		BatchOver(action.Expansion{
			Targets: chapterTargets,
			Preconditions: func(target string) []world.Predicate {
				return []world.Predicate{
					world.IsFalse(chapterFact(target, "drafted")),
				}
			},
			Effects: func(target string) []world.Effect {
				return []world.Effect{
					world.SetBool(chapterFact(target, "drafted"), true),
				}
			},
		}).
		Idempotent().
		MustBuild()
}

// PolishDialogue polishes one drafted chapter's dialogue per batch
// target. Drafts below the word threshold are skipped until drafting
// fills them out.
func PolishDialogue(minWords int) *action.Definition {
	if minWords <= 0 {
		minWords = DefaultMinDialogueWords
	}
	return action.NewBuilder(ActionPolishDialogue).
		WithLabel("Polish dialogue").
		WithCapability("dialogue.polish").
		WithPreconditions(world.IsTrue(KeyOutlineExists)).
		BatchOver(action.Expansion{
			Targets: chapterTargets,
			Preconditions: func(target string) []world.Predicate {
				return []world.Predicate{
					world.IsTrue(chapterFact(target, "drafted")),
					world.IsFalse(chapterFact(target, "dialogue_polished")),
					world.AtLeast(chapterFact(target, "words"), minWords),
				}
			},
			Effects: func(target string) []world.Effect {
				return []world.Effect{
					world.SetBool(chapterFact(target, "dialogue_polished"), true),
				}
			},
		}).
		Idempotent().
		MustBuild()
}

// RegisterAll registers the full catalog in its canonical order. The
// order matters: the planner breaks ties by registration order, so
// outline work precedes drafting which precedes polishing.
func RegisterAll(registry action.Registry, opts ...Option) error {
	cfg := Config{MinDialogueWords: DefaultMinDialogueWords}
	for _, opt := range opts {
		opt(&cfg)
	}

	definitions := []*action.Definition{
		CreateOutline(),
		BuildWorldNotes(),
		ProfileCharacters(),
		DraftChapter(),
		PolishDialogue(cfg.MinDialogueWords),
	}
	for _, def := range definitions {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}
