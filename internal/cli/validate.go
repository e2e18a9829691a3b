package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/budget-tripwire/pkg/model"
	"github.com/ogulcanaydogan/budget-tripwire/pkg/rules"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the alert rules in the config file without contacting any service",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolP("verbose", "v", false, "List every rule")
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	out := cmd.OutOrStdout()

	if cfg.File == "" {
		return fmt.Errorf("no config file found")
	}

	if verbose {
		for _, name := range rules.SortedNames(cfg.Rules.Categories) {
			c := cfg.Rules.Categories[name]
			state := ""
			if !c.Enabled {
				state = " (disabled)"
			}
			fmt.Fprintf(out, "%s%s\n", name, state)
			for _, r := range c.Rules {
				fmt.Fprintf(out, "  %s\n", ruleSummary(r))
			}
		}
		if cfg.Rules.AutoAlerts.Enabled {
			fmt.Fprintf(out, "auto_alerts (excluding %d)\n", len(cfg.Rules.AutoAlerts.Exclude))
			for _, r := range cfg.Rules.AutoAlerts.Rules {
				fmt.Fprintf(out, "  %s\n", ruleSummary(r))
			}
		}
	}

	failures := 0
	for _, p := range rules.Validate(cfg.Rules) {
		if p.Warning {
			fmt.Fprintf(out, "warning: %v\n", p)
			continue
		}
		fmt.Fprintf(out, "error: %v\n", p)
		failures++
	}
	if failures > 0 {
		return fmt.Errorf("%s: %d invalid trigger(s)", cfg.File, failures)
	}

	auto := "disabled"
	if cfg.Rules.AutoAlerts.Enabled {
		auto = "enabled"
	}
	fmt.Fprintf(out, "%s: OK (%d categories, auto_alerts %s)\n", cfg.File, len(cfg.Rules.Categories), auto)
	return nil
}

// ruleSummary renders a rule as "type (cooldown 24h): trigger, trigger".
func ruleSummary(r model.Rule) string {
	triggers := make([]string, 0, len(r.Triggers))
	for _, t := range r.Triggers {
		triggers = append(triggers, fmt.Sprintf("%s [%s]", t.Expression, t.Severity))
	}
	return fmt.Sprintf("%s (cooldown %dh): %s", r.Kind, r.CooldownHours, strings.Join(triggers, ", "))
}
