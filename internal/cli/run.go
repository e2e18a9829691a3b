package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate all categories once and send alerts",
	Long: `Fetch the current budget snapshot, evaluate every configured and
auto-detected category, notify on each firing, and record delivered firings
in the state store.`,
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("dry-run", false, "Evaluate and print firings without notifying or writing state")
	runCmd.Flags().String("at", "", "Evaluate as of this RFC 3339 time instead of now")
}

func runOnce(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	at, _ := cmd.Flags().GetString("at")

	now := time.Now().UTC()
	if at != "" {
		now, err = time.Parse(time.RFC3339, at)
		if err != nil {
			return fmt.Errorf("parse --at: %w", err)
		}
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())
	runner, store, err := initRunner(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := runner.Run(cmd.Context(), now, dryRun)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, f := range result.Firings {
		fmt.Fprintf(out, "FIRED: %s: %s [%s]\n", f.CategoryName, f.Trigger.Expression, f.Trigger.Severity)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(out, "ERROR: %s\n", e)
	}

	switch {
	case dryRun:
		fmt.Fprintf(out, "Dry run: %d firing(s), nothing sent.\n", len(result.Firings))
	case result.StateChanged:
		fmt.Fprintf(out, "Sent %d of %d firing(s). State updated in %s.\n", result.Sent, len(result.Firings), store.Name())
	default:
		fmt.Fprintln(out, "No state changes.")
	}

	if len(result.Errors) > 0 {
		return fmt.Errorf("%d category(ies) failed to evaluate", len(result.Errors))
	}
	return nil
}
