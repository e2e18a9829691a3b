package rules_test

import (
	"testing"
	"time"

	"github.com/ogulcanaydogan/budget-tripwire/pkg/cooldown"
	"github.com/ogulcanaydogan/budget-tripwire/pkg/model"
	"github.com/ogulcanaydogan/budget-tripwire/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goalRule(triggers ...model.Trigger) model.Rule {
	return model.Rule{
		Kind:          model.RuleGoalThreshold,
		Triggers:      triggers,
		CooldownHours: model.DefaultGoalThresholdCooldownHours,
	}
}

func pacingRuleWith(triggers ...model.Trigger) model.Rule {
	return model.Rule{
		Kind:          model.RulePacing,
		Triggers:      triggers,
		CooldownHours: model.DefaultPacingCooldownHours,
		WarmUpHours:   model.DefaultWarmUpHours,
	}
}

func TestGoalThresholdRule_FiresMatchingTriggers(t *testing.T) {
	e := newTestEngine()
	snap := snapshot("Groceries", limit(1000000), 800000)
	rule := goalRule(
		trigger("75%", model.SeverityWarning),
		trigger("90%", model.SeverityUrgent),
	)

	firings, err := e.EvaluateGoalThresholdRule("Groceries", rule, snap, cooldown.New(), april(15, 12))
	require.NoError(t, err)
	require.Len(t, firings, 1)
	assert.Equal(t, "75%", firings[0].Trigger.Expression)
	assert.Equal(t, model.SeverityWarning, firings[0].Trigger.Severity)
	assert.Equal(t, "Groceries", firings[0].CategoryName)
	assert.Nil(t, firings[0].Pacing)
	assert.Equal(t, model.RuleGoalThreshold, firings[0].RuleKind)
}

func TestGoalThresholdRule_RespectsCooldown(t *testing.T) {
	e := newTestEngine()
	snap := snapshot("Groceries", limit(1000000), 800000)
	now := april(15, 12)
	state := cooldown.New()
	state.RecordFiring("Groceries", "75%", now)

	firings, err := e.EvaluateGoalThresholdRule("Groceries", goalRule(trigger("75%", model.SeverityWarning)), snap, state, now)
	require.NoError(t, err)
	assert.Empty(t, firings)
}

func TestGoalThresholdRule_CooldownSkipsEvaluation(t *testing.T) {
	e := newTestEngine()
	snap := snapshot("Groceries", limit(1000000), 800000)
	now := april(15, 12)
	state := cooldown.New()
	state.RecordFiring("Groceries", "5% over", now)

	// A cooling-down trigger is never parsed, so its wrong kind goes unnoticed.
	firings, err := e.EvaluateGoalThresholdRule("Groceries", goalRule(trigger("5% over", model.SeverityWarning)), snap, state, now)
	require.NoError(t, err)
	assert.Empty(t, firings)
}

func TestGoalThresholdRule_NoLimit(t *testing.T) {
	e := newTestEngine()
	rule := goalRule(trigger("75%", model.SeverityWarning))

	for name, snap := range map[string]model.CategorySnapshot{
		"absent": snapshot("Vacation", nil, 800000),
		"zero":   snapshot("Clothing", limit(0), 100000),
	} {
		t.Run(name, func(t *testing.T) {
			firings, err := e.EvaluateGoalThresholdRule(snap.Name, rule, snap, cooldown.New(), april(15, 12))
			require.NoError(t, err)
			assert.Empty(t, firings)
		})
	}
}

func TestGoalThresholdRule_WrongKindStopsRule(t *testing.T) {
	e := newTestEngine()
	snap := snapshot("Groceries", limit(1000000), 800000)
	rule := goalRule(
		trigger("75%", model.SeverityWarning),
		trigger("5% over", model.SeverityWarning),
	)

	firings, err := e.EvaluateGoalThresholdRule("Groceries", rule, snap, cooldown.New(), april(15, 12))
	require.Error(t, err)
	assert.ErrorIs(t, err, rules.ErrWrongExpressionKind)
	assert.Contains(t, err.Error(), "Groceries")
	assert.Empty(t, firings)
}

func TestGoalThresholdRule_DoesNotRecord(t *testing.T) {
	e := newTestEngine()
	snap := snapshot("Groceries", limit(1000000), 800000)
	state := cooldown.New()

	_, err := e.EvaluateGoalThresholdRule("Groceries", goalRule(trigger("75%", model.SeverityWarning)), snap, state, april(15, 12))
	require.NoError(t, err)
	assert.Equal(t, 0, state.Len())
}

func TestPacingRule_FiresWhenOverPace(t *testing.T) {
	e := newTestEngine()
	snap := snapshot("Groceries", limit(1000000), 600000)
	now := april(15, 12)
	rule := pacingRuleWith(
		trigger("5% over", model.SeverityWarning),
		trigger("25% over", model.SeverityUrgent),
	)

	firings, err := e.EvaluatePacingRule("Groceries", rule, snap, cooldown.New(), now, model.HoursIntoPeriod(now))
	require.NoError(t, err)
	require.Len(t, firings, 1)
	assert.Equal(t, "5% over", firings[0].Trigger.Expression)
	require.NotNil(t, firings[0].Pacing)
	assert.InDelta(t, 20.0, firings[0].Pacing.PercentOver, 1e-9)
	assert.Equal(t, model.RulePacing, firings[0].RuleKind)
}

func TestPacingRule_WarmUp(t *testing.T) {
	e := newTestEngine()
	// Far over pace: $900 of $1000 on day 2.
	snap := snapshot("Groceries", limit(1000000), 900000)
	rule := pacingRuleWith(trigger("5% over", model.SeverityWarning))

	firings, err := e.EvaluatePacingRule("Groceries", rule, snap, cooldown.New(), april(3, 0), 48)
	require.NoError(t, err)
	assert.Empty(t, firings)

	firings, err = e.EvaluatePacingRule("Groceries", rule, snap, cooldown.New(), april(4, 0), 72)
	require.NoError(t, err)
	assert.Len(t, firings, 1)
}

func TestPacingRule_WarmUpSkipsTriggers(t *testing.T) {
	e := newTestEngine()
	snap := snapshot("Groceries", limit(1000000), 900000)
	rule := pacingRuleWith(trigger("not an expression", model.SeverityWarning))

	firings, err := e.EvaluatePacingRule("Groceries", rule, snap, cooldown.New(), april(2, 0), 24)
	require.NoError(t, err)
	assert.Empty(t, firings)
}

func TestPacingRule_RespectsCooldown(t *testing.T) {
	e := newTestEngine()
	snap := snapshot("Groceries", limit(1000000), 600000)
	now := april(15, 12)
	rule := pacingRuleWith(trigger("5% over", model.SeverityWarning))

	state := cooldown.New()
	state.RecordFiring("Groceries", "5% over", now.Add(-23*time.Hour))
	firings, err := e.EvaluatePacingRule("Groceries", rule, snap, state, now, model.HoursIntoPeriod(now))
	require.NoError(t, err)
	assert.Empty(t, firings)

	state = cooldown.New()
	state.RecordFiring("Groceries", "5% over", now.Add(-25*time.Hour))
	firings, err = e.EvaluatePacingRule("Groceries", rule, snap, state, now, model.HoursIntoPeriod(now))
	require.NoError(t, err)
	assert.Len(t, firings, 1)
}

func TestPacingRule_WrongKind(t *testing.T) {
	e := newTestEngine()
	snap := snapshot("Groceries", limit(1000000), 600000)
	now := april(15, 12)

	_, err := e.EvaluatePacingRule("Groceries", pacingRuleWith(trigger("75%", model.SeverityWarning)), snap, cooldown.New(), now, model.HoursIntoPeriod(now))
	assert.ErrorIs(t, err, rules.ErrWrongExpressionKind)
}
