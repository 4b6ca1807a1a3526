package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/storyforge/autopilot-go/application"
	"github.com/storyforge/autopilot-go/domain/world"
	"github.com/storyforge/autopilot-go/infrastructure/capability"
	"github.com/storyforge/autopilot-go/infrastructure/config"
	"github.com/storyforge/autopilot-go/infrastructure/storage/memory"
	"github.com/storyforge/autopilot-go/pack/novel"
)

// runOptions holds options for the run command.
type runOptions struct {
	configPath string
	chapters   int
	polish     bool
	maxCycles  int
	timeout    time.Duration
	verbose    bool
	jsonOutput bool
	draftWords int
}

// newRunCmd creates the run command.
func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <project-id>",
		Short: "Drive a project toward its writing goal",
		Long: `Run the autopilot for a project until it reaches a terminal state.

The engine loads the project's world state, registers the standard
novel-writing catalog, and cycles plan/execute until the goal is
satisfied (done), nothing eligible remains (blocked), or the run is
interrupted (cancelled). Capabilities are simulated; wire a real
invoker through the library API for production use.

Examples:
  # Draft a five-chapter novel with the default in-memory store
  autopilot run my-novel --chapters 5

  # Persist world state between runs
  autopilot run my-novel -c autopilot.yaml --chapters 5

  # Draft and polish dialogue, with a timeout
  autopilot run my-novel --chapters 3 --polish --timeout 2m`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAutopilot(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().IntVar(&opts.chapters, "chapters", 3, "Number of chapters the goal requires")
	cmd.Flags().BoolVar(&opts.polish, "polish", false, "Require polished dialogue in every chapter")
	cmd.Flags().IntVar(&opts.maxCycles, "max-cycles", 0, "Maximum plan/execute cycles (overrides config)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Run timeout")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print the session journal")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().IntVar(&opts.draftWords, "draft-words", 1800, "Word count each simulated draft reports")

	return cmd
}

// runAutopilot executes a session with the given options.
func (a *App) runAutopilot(ctx context.Context, projectID string, opts *runOptions) error {
	if opts.chapters < 1 {
		return fmt.Errorf("chapters must be at least 1")
	}

	cfg, err := loadConfig(opts.configPath, false)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.maxCycles > 0 {
		cfg.Autopilot.MaxCycles = opts.maxCycles
	}

	registry := memory.NewActionRegistry()
	if err := novel.RegisterAll(registry); err != nil {
		return fmt.Errorf("failed to register action catalog: %w", err)
	}

	invoker := simulatedInvoker(opts.chapters, opts.draftWords)

	autopilot, err := config.Build(cfg, registry, invoker)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}

	goal := novel.CompleteDraftGoal(opts.chapters)
	if opts.polish {
		goal = novel.PolishedDraftGoal(opts.chapters)
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	if opts.verbose {
		fmt.Fprintf(a.stdout, "Starting autopilot run...\n")
		fmt.Fprintf(a.stdout, "  Project: %s\n", projectID)
		fmt.Fprintf(a.stdout, "  Goal: %s\n", goal.Name())
		fmt.Fprintf(a.stdout, "  Storage: %s\n\n", cfg.Storage.Backend)
	}

	startTime := time.Now()
	sess, err := autopilot.Run(ctx, projectID, goal)
	if err != nil {
		if sess == nil {
			return fmt.Errorf("autopilot run failed: %w", err)
		}
		// Timed out or interrupted; let the loop settle and finish.
		_ = autopilot.Cancel(projectID)
		_ = sess.Wait(context.Background())
	}
	duration := time.Since(startTime)

	if opts.jsonOutput {
		return a.printRunJSON(autopilot, projectID, sess.ID(), duration)
	}

	fmt.Fprintf(a.stdout, "Run completed\n")
	fmt.Fprintf(a.stdout, "  Session ID: %s\n", sess.ID())
	fmt.Fprintf(a.stdout, "  Status: %s\n", sess.Status())
	if sess.Reason() != "" {
		fmt.Fprintf(a.stdout, "  Reason: %s\n", sess.Reason())
	}
	fmt.Fprintf(a.stdout, "  Cycles: %d\n", sess.Cycles())
	fmt.Fprintf(a.stdout, "  Duration: %s\n", duration.Round(time.Millisecond))

	if opts.verbose {
		a.printJournal(autopilot, projectID)
	}

	return nil
}

// printRunJSON writes the run outcome as indented JSON.
func (a *App) printRunJSON(autopilot *application.Autopilot, projectID, sessionID string, duration time.Duration) error {
	sess, err := autopilot.Session(projectID)
	if err != nil {
		return err
	}

	output := map[string]any{
		"session_id": sessionID,
		"project_id": projectID,
		"status":     sess.Status().String(),
		"cycles":     sess.Cycles(),
		"duration":   duration.String(),
	}
	if sess.Reason() != "" {
		output["reason"] = sess.Reason()
	}
	if w := sess.World(); w != nil {
		output["facts"] = w.Facts()
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// printJournal writes the session journal as a readable trace.
func (a *App) printJournal(autopilot *application.Autopilot, projectID string) {
	jrnl, err := autopilot.Journal(projectID)
	if err != nil {
		fmt.Fprintf(a.stderr, "journal unavailable: %v\n", err)
		return
	}

	fmt.Fprintf(a.stdout, "\nJournal:\n")
	for _, entry := range jrnl.Entries() {
		fmt.Fprintf(a.stdout, "  %s cycle=%d %s\n",
			entry.Timestamp.Format(time.RFC3339), entry.Cycle, entry.Type)
	}
}

// simulatedInvoker scripts plausible capability results: the outline
// reports the chapter count and each draft reports its word count.
func simulatedInvoker(chapters, draftWords int) *capability.ScriptedInvoker {
	invoker := capability.NewScriptedInvoker().
		Script(novel.ActionCreateOutline, capability.Outcome{
			Output: json.RawMessage(fmt.Sprintf(`{"chapters": %d}`, chapters)),
			Facts:  []world.Effect{world.SetInt(novel.KeyChapterCount, chapters)},
		}).
		Default(capability.Outcome{Output: json.RawMessage(`{"status": "ok"}`)})

	for n := 1; n <= chapters; n++ {
		invoker.ScriptTarget(novel.ActionDraftChapter, strconv.Itoa(n), capability.Outcome{
			Output: json.RawMessage(fmt.Sprintf(`{"chapter": %d, "words": %d}`, n, draftWords)),
			Facts:  []world.Effect{world.SetInt(novel.ChapterWords(n), draftWords)},
		})
	}
	return invoker
}
