package novel

import (
	"fmt"

	"github.com/storyforge/autopilot-go/domain/plan"
	"github.com/storyforge/autopilot-go/domain/world"
)

// CompleteDraftGoal is satisfied when the outline exists and every
// chapter through the given count has a draft.
func CompleteDraftGoal(chapters int) plan.Goal {
	preds := []world.Predicate{world.IsTrue(KeyOutlineExists)}
	for n := 1; n <= chapters; n++ {
		preds = append(preds, world.IsTrue(ChapterDrafted(n)))
	}
	return plan.NewGoal(fmt.Sprintf("complete_draft_%d", chapters), preds...)
}

// PolishedDraftGoal is satisfied when every chapter through the given
// count is drafted and its dialogue polished.
func PolishedDraftGoal(chapters int) plan.Goal {
	preds := []world.Predicate{world.IsTrue(KeyOutlineExists)}
	for n := 1; n <= chapters; n++ {
		preds = append(preds,
			world.IsTrue(ChapterDrafted(n)),
			world.IsTrue(ChapterDialoguePolished(n)),
		)
	}
	return plan.NewGoal(fmt.Sprintf("polished_draft_%d", chapters), preds...)
}
