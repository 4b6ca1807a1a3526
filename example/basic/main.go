// Package main demonstrates the minimum working autopilot: the
// standard novel catalog, a scripted capability invoker, and an
// in-memory world store driven to a complete two-chapter draft.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/storyforge/autopilot-go/application"
	"github.com/storyforge/autopilot-go/domain/world"
	"github.com/storyforge/autopilot-go/infrastructure/capability"
	"github.com/storyforge/autopilot-go/infrastructure/storage/memory"
	"github.com/storyforge/autopilot-go/pack/novel"
)

func main() {
	// 1. Register the standard writing catalog.
	registry := memory.NewActionRegistry()
	if err := novel.RegisterAll(registry); err != nil {
		log.Fatal(err)
	}

	// 2. Script the capabilities. The outline reports how many
	// chapters the book needs; each draft just succeeds.
	invoker := capability.NewScriptedInvoker().
		Script(novel.ActionCreateOutline, capability.Outcome{
			Output: json.RawMessage(`{"chapters": 2}`),
			Facts:  []world.Effect{world.SetInt(novel.KeyChapterCount, 2)},
		}).
		Default(capability.Outcome{Output: json.RawMessage(`{"status": "ok"}`)})

	// 3. Build the engine with an in-memory world store.
	autopilot, err := application.NewAutopilot(application.Config{
		Registry: registry,
		Invoker:  invoker,
		Store:    memory.NewWorldStore(),
	})
	if err != nil {
		log.Fatal(err)
	}

	// 4. Run until the draft goal is reached.
	sess, err := autopilot.Run(context.Background(), "my-novel", novel.CompleteDraftGoal(2))
	if err != nil {
		log.Fatal(err)
	}

	// 5. Check results.
	fmt.Printf("Status: %s\n", sess.Status())
	fmt.Printf("Cycles: %d\n", sess.Cycles())
	for key, value := range sess.World().Facts() {
		fmt.Printf("  %s = %s\n", key, value)
	}
}
