package rules

import (
	"errors"
	"time"

	"github.com/ogulcanaydogan/budget-tripwire/pkg/cooldown"
	"github.com/ogulcanaydogan/budget-tripwire/pkg/model"
)

// EvaluateCategory runs every rule configured for a category and returns the
// combined firings in rule order, then trigger order. A rule that fails with
// a malformed or misplaced expression contributes no firings; its error is
// joined into the returned error while the remaining rules still run.
func (e *Engine) EvaluateCategory(category string, cfg model.CategoryConfig, snap model.CategorySnapshot, state *cooldown.State, now time.Time) ([]model.Firing, error) {
	if !cfg.Enabled {
		e.logger.Debug("category disabled", "category", category)
		return nil, nil
	}

	ev := evaluation{
		category:        category,
		snapshot:        cfg.ApplyLimit(snap),
		state:           state,
		now:             now,
		hoursIntoPeriod: model.HoursIntoPeriod(now),
	}

	var (
		firings []model.Firing
		errs    []error
	)
	for i, rule := range cfg.Rules {
		evaluator, ok := evaluatorFor(rule.Kind)
		if !ok {
			e.logger.Warn("unknown rule type, skipping",
				"category", category,
				"rule", i,
				"type", rule.Kind,
			)
			continue
		}

		got, err := evaluator.evaluate(e, ev, rule)
		if err != nil {
			e.logger.Error("rule evaluation failed",
				"category", category,
				"rule", i,
				"type", rule.Kind,
				"error", err,
			)
			errs = append(errs, err)
			continue
		}
		firings = append(firings, got...)
	}

	return firings, errors.Join(errs...)
}
