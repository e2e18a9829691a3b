package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset the cooldown state",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List recorded firings",
	RunE:  runStateShow,
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all recorded firings so every trigger may fire again",
	RunE:  runStateReset,
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateResetCmd)

	stateResetCmd.Flags().Bool("yes", false, "Confirm the reset")
}

func runStateShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	runner, store, err := initRunner(cfg, newLogger(cfg, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer store.Close()

	state, err := runner.State(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if state.Len() == 0 {
		fmt.Fprintf(out, "No firings recorded in %s.\n", store.Name())
		return nil
	}

	periods := make([]string, 0, len(state.Fired))
	for p := range state.Fired {
		periods = append(periods, p)
	}
	sort.Strings(periods)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "PERIOD\tTRIGGER\tLAST FIRED\t\n")
	for _, p := range periods {
		bucket := state.Fired[p]
		keys := make([]string, 0, len(bucket))
		for k := range bucket {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			at := bucket[k]
			fmt.Fprintf(w, "%s\t%s\t%s\t(%s)\n", p, k, at.Format("2006-01-02 15:04 MST"), humanize.Time(at))
		}
	}
	w.Flush()

	return nil
}

func runStateReset(cmd *cobra.Command, _ []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		return fmt.Errorf("refusing to reset state without --yes")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	runner, store, err := initRunner(cfg, newLogger(cfg, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := runner.ResetState(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "State %q reset in %s.\n", cfg.State.Key, store.Name())
	return nil
}
