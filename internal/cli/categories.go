package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/budget-tripwire/pkg/alerts"
	"github.com/ogulcanaydogan/budget-tripwire/pkg/rules"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Show the categories that would be evaluated and their current numbers",
	RunE:  runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
	categoriesCmd.Flags().Bool("all", false, "Also list source categories that have no alert rules")
}

func runCategories(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	all, _ := cmd.Flags().GetBool("all")

	src, err := initSources(cfg)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	snapshots, err := src.Snapshots(cmd.Context(), now)
	if err != nil {
		return fmt.Errorf("fetch snapshots: %w", err)
	}

	final := rules.BuildFinalCategories(cfg.Rules, snapshots)
	names := rules.SortedNames(final)
	if all {
		names = rules.SortedNames(snapshots)
		for _, name := range rules.SortedNames(final) {
			if _, ok := snapshots[name]; !ok {
				names = append(names, name)
			}
		}
	}

	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No categories configured. Add categories or enable auto_alerts in the config file.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "NAME\tORIGIN\tLIMIT\tSPENT\tREMAINING\tUSED\tPACE\tRULES\n")
	for _, name := range names {
		cc, configured := final[name]
		origin := "-"
		switch {
		case !configured:
		case cc.AutoDetected:
			origin = "auto"
		case !cc.Enabled:
			origin = "disabled"
		default:
			origin = "config"
		}

		snap, ok := snapshots[name]
		if !ok {
			fmt.Fprintf(w, "%s\t%s\t-\t-\t-\t-\t-\t%d [NOT IN SOURCE]\n", name, origin, len(cc.Rules))
			continue
		}
		snap = cc.ApplyLimit(snap)

		limit, used, pace := "-", "-", "-"
		if snap.HasLimit() {
			limit = alerts.Money(*snap.LimitAmount)
			used = fmt.Sprintf("%.1f%%", float64(snap.PeriodActivity)/float64(*snap.LimitAmount)*100)
			pace = fmt.Sprintf("%+.0f%%", rules.Project(snap, now).PercentOver)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			name, origin, limit,
			alerts.Money(snap.PeriodActivity),
			alerts.Money(snap.RemainingBalance),
			used, pace, len(cc.Rules),
		)
	}
	w.Flush()

	return nil
}
