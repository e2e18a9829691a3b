package rules

import (
	"slices"

	"github.com/ogulcanaydogan/budget-tripwire/pkg/model"
)

// BuildFinalCategories merges explicitly configured categories with those
// auto-detected from snapshots. Explicit entries are returned unchanged and
// are never affected by the exclude list.
func BuildFinalCategories(cfg model.AlertConfig, snapshots map[string]model.CategorySnapshot) map[string]model.CategoryConfig {
	final := make(map[string]model.CategoryConfig, len(cfg.Categories))
	for name, c := range cfg.Categories {
		final[name] = c
	}

	if !cfg.AutoAlerts.Enabled {
		return final
	}

	for name, snap := range snapshots {
		if _, explicit := final[name]; explicit {
			continue
		}
		if cfg.AutoAlerts.Excludes(name) {
			continue
		}
		if !snap.HasLimit() {
			continue
		}
		final[name] = model.CategoryConfig{
			Enabled:      true,
			Rules:        slices.Clone(cfg.AutoAlerts.Rules),
			AutoDetected: true,
		}
	}

	return final
}

// SortedNames returns the category names of m in lexical order.
func SortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
