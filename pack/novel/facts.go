// Package novel provides the standard creative-writing action catalog:
// outline, world notes, character profiles, chapter drafting and
// dialogue polishing, with the fact keys and goals that tie them
// together.
package novel

import (
	"strconv"

	"github.com/storyforge/autopilot-go/domain/world"
)

// Project-level fact keys.
const (
	// KeyOutlineExists is set once the project has an outline.
	KeyOutlineExists world.FactKey = "outline.exists"

	// KeyChapterCount is the number of chapters the outline calls for.
	KeyChapterCount world.FactKey = "chapter.count"

	// KeyWorldNotes is set once the setting notes are written.
	KeyWorldNotes world.FactKey = "world.notes_ready"

	// KeyCharactersProfiled is set once the cast has profiles.
	KeyCharactersProfiled world.FactKey = "characters.profiled"
)

// ChapterDrafted is the fact set when chapter n has a draft.
func ChapterDrafted(n int) world.FactKey {
	return chapterFact(strconv.Itoa(n), "drafted")
}

// ChapterWords is the word count fact for chapter n.
func ChapterWords(n int) world.FactKey {
	return chapterFact(strconv.Itoa(n), "words")
}

// ChapterDialoguePolished is the fact set when chapter n's dialogue
// has been polished.
func ChapterDialoguePolished(n int) world.FactKey {
	return chapterFact(strconv.Itoa(n), "dialogue_polished")
}

// chapterFact builds a chapter-scoped fact key from a batch target.
func chapterFact(target, suffix string) world.FactKey {
	return world.FactKey("chapter." + target + "." + suffix)
}

// chapterTargets enumerates "1".."chapter.count" from the snapshot.
func chapterTargets(s *world.State) []string {
	count := s.GetInt(KeyChapterCount)
	if count <= 0 {
		return nil
	}
	targets := make([]string, 0, count)
	for n := 1; n <= count; n++ {
		targets = append(targets, strconv.Itoa(n))
	}
	return targets
}
