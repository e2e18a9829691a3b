package rules_test

import (
	"io"
	"log/slog"
	"time"

	"github.com/ogulcanaydogan/budget-tripwire/pkg/model"
	"github.com/ogulcanaydogan/budget-tripwire/pkg/rules"
)

func newTestEngine() *rules.Engine {
	return rules.NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func limit(v int64) *int64 { return &v }

// snapshot builds a category with the given limit and spend, in milliunits.
// The remaining balance is limit minus activity.
func snapshot(name string, lim *int64, activity int64) model.CategorySnapshot {
	var l int64
	if lim != nil {
		l = *lim
	}
	return model.CategorySnapshot{
		Name:             name,
		LimitAmount:      lim,
		PeriodActivity:   activity,
		RemainingBalance: l - activity,
	}
}

func april(day, hour int) time.Time {
	return time.Date(2026, 4, day, hour, 0, 0, 0, time.UTC)
}

func trigger(at string, sev model.Severity) model.Trigger {
	return model.Trigger{Expression: at, Severity: sev}
}
