package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	configPath string
	strict     bool
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate an autopilot configuration file for correctness.

This command checks:
  - File format (YAML or JSON)
  - Field values and constraints
  - Storage backend selection and its required settings
  - Environment variable references (in strict mode)

Examples:
  # Validate a configuration file
  autopilot validate -c autopilot.yaml

  # Strict validation (fail on missing env vars)
  autopilot validate -c autopilot.yaml --strict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validateConfig(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (required)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail on missing environment variables")

	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// validateConfig validates the configuration file.
func (a *App) validateConfig(opts *validateOptions) error {
	if opts.configPath == "" {
		return fmt.Errorf("configuration file path is required (-c flag)")
	}

	cfg, err := loadConfig(opts.configPath, opts.strict)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(a.stdout, "Configuration is valid\n")
	fmt.Fprintf(a.stdout, "\nConfiguration summary:\n")
	fmt.Fprintf(a.stdout, "  Log level: %s (%s)\n", cfg.Logging.Level, cfg.Logging.Format)
	fmt.Fprintf(a.stdout, "  Storage backend: %s\n", cfg.Storage.Backend)
	fmt.Fprintf(a.stdout, "  Max cycles: %d\n", cfg.Autopilot.MaxCycles)
	fmt.Fprintf(a.stdout, "  Max concurrent invocations: %d\n", cfg.Executor.MaxConcurrent)
	fmt.Fprintf(a.stdout, "  Invocation timeout: %s\n", cfg.Executor.Timeout)
	fmt.Fprintf(a.stdout, "  Retry attempts: %d\n", cfg.Executor.RetryAttempts)
	if cfg.Metrics.Enabled {
		fmt.Fprintf(a.stdout, "  Metrics: enabled\n")
	}

	return nil
}
