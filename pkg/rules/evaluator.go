package rules

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ogulcanaydogan/budget-tripwire/pkg/cooldown"
	"github.com/ogulcanaydogan/budget-tripwire/pkg/model"
)

// Engine evaluates configured alert rules against budget snapshots. It
// holds no mutable state and never modifies the cooldown state it reads.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a rule engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

// evaluation carries the inputs shared by every rule of one category.
type evaluation struct {
	category        string
	snapshot        model.CategorySnapshot
	state           *cooldown.State
	now             time.Time
	hoursIntoPeriod float64
}

type ruleEvaluator interface {
	evaluate(e *Engine, ev evaluation, rule model.Rule) ([]model.Firing, error)
}

type goalThresholdRule struct{}

type pacingRule struct{}

func evaluatorFor(kind model.RuleKind) (ruleEvaluator, bool) {
	switch kind {
	case model.RuleGoalThreshold:
		return goalThresholdRule{}, true
	case model.RulePacing:
		return pacingRule{}, true
	default:
		return nil, false
	}
}

func (goalThresholdRule) evaluate(e *Engine, ev evaluation, rule model.Rule) ([]model.Firing, error) {
	if !ev.snapshot.HasLimit() {
		e.logger.Debug("no spending limit, skipping goal threshold rule", "category", ev.category)
		return nil, nil
	}

	var firings []model.Firing
	for _, trig := range rule.Triggers {
		if !ev.state.ShouldAlert(ev.category, trig.Expression, rule.CooldownHours, ev.now) {
			e.logger.Debug("trigger cooling down", "category", ev.category, "trigger", trig.Expression)
			continue
		}

		fired, err := EvaluateGoalThreshold(ev.snapshot, trig)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", ev.category, err)
		}
		if fired {
			firings = append(firings, model.Firing{
				CategoryName: ev.category,
				Trigger:      trig,
				Snapshot:     ev.snapshot,
				RuleKind:     model.RuleGoalThreshold,
				EvaluatedAt:  ev.now,
			})
		}
	}
	return firings, nil
}

func (pacingRule) evaluate(e *Engine, ev evaluation, rule model.Rule) ([]model.Firing, error) {
	if ev.hoursIntoPeriod < float64(rule.WarmUpHours) {
		e.logger.Debug("pacing warm-up not elapsed",
			"category", ev.category,
			"hours_into_period", ev.hoursIntoPeriod,
			"warm_up_hours", rule.WarmUpHours,
		)
		return nil, nil
	}
	if !ev.snapshot.HasLimit() {
		e.logger.Debug("no spending limit, skipping pacing rule", "category", ev.category)
		return nil, nil
	}

	var firings []model.Firing
	for _, trig := range rule.Triggers {
		if !ev.state.ShouldAlert(ev.category, trig.Expression, rule.CooldownHours, ev.now) {
			e.logger.Debug("trigger cooling down", "category", ev.category, "trigger", trig.Expression)
			continue
		}

		fired, pc, err := EvaluatePacing(ev.snapshot, trig, ev.now)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", ev.category, err)
		}
		if !fired {
			e.logger.Debug("pacing under threshold",
				"category", ev.category,
				"trigger", trig.Expression,
				"percent_over", pc.PercentOver,
			)
			continue
		}
		firings = append(firings, model.Firing{
			CategoryName: ev.category,
			Trigger:      trig,
			Snapshot:     ev.snapshot,
			Pacing:       &pc,
			RuleKind:     model.RulePacing,
			EvaluatedAt:  ev.now,
		})
	}
	return firings, nil
}

// EvaluateGoalThresholdRule returns a firing for every trigger of rule that
// is out of cooldown and whose percent-spent or dollars-remaining condition
// holds. It does not record firings in state.
func (e *Engine) EvaluateGoalThresholdRule(category string, rule model.Rule, snap model.CategorySnapshot, state *cooldown.State, now time.Time) ([]model.Firing, error) {
	ev := evaluation{category: category, snapshot: snap, state: state, now: now}
	return goalThresholdRule{}.evaluate(e, ev, rule)
}

// EvaluatePacingRule is the pacing counterpart of EvaluateGoalThresholdRule.
// Nothing is evaluated until hoursIntoPeriod reaches the rule's warm-up.
func (e *Engine) EvaluatePacingRule(category string, rule model.Rule, snap model.CategorySnapshot, state *cooldown.State, now time.Time, hoursIntoPeriod float64) ([]model.Firing, error) {
	ev := evaluation{category: category, snapshot: snap, state: state, now: now, hoursIntoPeriod: hoursIntoPeriod}
	return pacingRule{}.evaluate(e, ev, rule)
}
