// Package source fetches per-category budget snapshots for a period.
package source

import (
	"context"
	"time"

	"github.com/ogulcanaydogan/budget-tripwire/pkg/model"
)

// Source produces category snapshots for the month containing the given time.
type Source interface {
	// Name returns the source identifier (e.g., "ynab", "file").
	Name() string

	// Snapshots returns every visible category keyed by category name.
	Snapshots(ctx context.Context, month time.Time) (map[string]model.CategorySnapshot, error)
}
