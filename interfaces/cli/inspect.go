package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/storyforge/autopilot-go/domain/action"
	"github.com/storyforge/autopilot-go/domain/world"
	"github.com/storyforge/autopilot-go/infrastructure/config"
	"github.com/storyforge/autopilot-go/infrastructure/storage/memory"
	"github.com/storyforge/autopilot-go/pack/novel"
)

// inspectOptions holds options for the inspect command.
type inspectOptions struct {
	configPath string
	projectID  string
	section    string
	outputJSON bool
}

// newInspectCmd creates the inspect command.
func (a *App) newInspectCmd() *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect the action catalog or a project's world state",
		Long: `Inspect and display engine state.

Sections:
  actions  Show the registered action catalog (default)
  world    Show a project's persisted world state (requires --project)

Examples:
  # List the standard catalog
  autopilot inspect

  # Show a project's saved facts
  autopilot inspect --section world --project my-novel -c autopilot.yaml

  # Output as JSON
  autopilot inspect --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.inspect(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.projectID, "project", "", "Project whose world state to show")
	cmd.Flags().StringVar(&opts.section, "section", "actions", "Section to inspect (actions, world)")
	cmd.Flags().BoolVar(&opts.outputJSON, "json", false, "Output as JSON")

	return cmd
}

// inspect dispatches to the selected section.
func (a *App) inspect(ctx context.Context, opts *inspectOptions) error {
	switch opts.section {
	case "actions":
		return a.inspectActions(opts.outputJSON)
	case "world":
		return a.inspectWorld(ctx, opts)
	default:
		return fmt.Errorf("unknown section: %s", opts.section)
	}
}

// actionSummary is the serializable view of a catalog entry.
type actionSummary struct {
	ID            string   `json:"id"`
	Label         string   `json:"label"`
	Capability    string   `json:"capability"`
	Batchable     bool     `json:"batchable"`
	Idempotent    bool     `json:"idempotent"`
	Preconditions []string `json:"preconditions,omitempty"`
	Effects       []string `json:"effects,omitempty"`
}

// inspectActions prints the standard catalog.
func (a *App) inspectActions(asJSON bool) error {
	registry := memory.NewActionRegistry()
	if err := novel.RegisterAll(registry); err != nil {
		return fmt.Errorf("failed to register action catalog: %w", err)
	}

	summaries := make([]actionSummary, 0, len(registry.List()))
	for _, def := range registry.List() {
		summaries = append(summaries, summarize(def))
	}

	if asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	fmt.Fprintf(a.stdout, "Registered actions (%d):\n", len(summaries))
	for _, s := range summaries {
		fmt.Fprintf(a.stdout, "\n  %s  (%s)\n", s.ID, s.Label)
		fmt.Fprintf(a.stdout, "    Capability: %s\n", s.Capability)
		if s.Batchable {
			fmt.Fprintf(a.stdout, "    Batchable: yes\n")
		}
		if s.Idempotent {
			fmt.Fprintf(a.stdout, "    Idempotent: yes\n")
		}
		for _, p := range s.Preconditions {
			fmt.Fprintf(a.stdout, "    Requires: %s\n", p)
		}
		for _, e := range s.Effects {
			fmt.Fprintf(a.stdout, "    Sets: %s\n", e)
		}
	}
	return nil
}

// summarize flattens a definition for display.
func summarize(def *action.Definition) actionSummary {
	s := actionSummary{
		ID:         def.ID(),
		Label:      def.Label(),
		Capability: def.Capability(),
		Batchable:  def.Batchable(),
		Idempotent: def.Idempotent(),
	}
	for _, p := range def.Preconditions() {
		s.Preconditions = append(s.Preconditions, p.String())
	}
	for _, e := range def.Effects() {
		s.Effects = append(s.Effects, e.String())
	}
	return s
}

// inspectWorld prints a project's persisted facts.
func (a *App) inspectWorld(ctx context.Context, opts *inspectOptions) error {
	if opts.projectID == "" {
		return fmt.Errorf("world section requires --project")
	}

	cfg, err := loadConfig(opts.configPath, false)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := config.BuildStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = config.CloseStore(store) }()

	state, err := store.Load(ctx, opts.projectID)
	if err != nil {
		if errors.Is(err, world.ErrNotFound) {
			return fmt.Errorf("no world state for project %q", opts.projectID)
		}
		return fmt.Errorf("failed to load world state: %w", err)
	}

	if opts.outputJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}

	facts := state.Facts()
	fmt.Fprintf(a.stdout, "World state for %s (%d facts):\n", opts.projectID, len(facts))
	for _, key := range sortedKeys(facts) {
		fmt.Fprintf(a.stdout, "  %s = %v\n", key, facts[key])
	}
	return nil
}

// sortedKeys returns the fact keys in lexical order for stable output.
func sortedKeys(facts map[world.FactKey]world.Value) []world.FactKey {
	keys := make([]world.FactKey, 0, len(facts))
	for key := range facts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
