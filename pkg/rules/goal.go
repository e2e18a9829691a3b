package rules

import "github.com/ogulcanaydogan/budget-tripwire/pkg/model"

// EvaluateGoalThreshold reports whether trig's percent-spent or
// dollars-remaining condition is met by snap. A snapshot without a limit is
// not evaluable and never fires.
func EvaluateGoalThreshold(snap model.CategorySnapshot, trig model.Trigger) (bool, error) {
	th, err := ParseThreshold(trig.Expression)
	if err != nil {
		return false, err
	}

	if snap.LimitAmount == nil {
		return false, nil
	}
	limit := *snap.LimitAmount

	switch th.Kind {
	case PercentSpent:
		// A zero limit counts as fully spent.
		percentSpent := 100.0
		if limit != 0 {
			percentSpent = float64(snap.PeriodActivity) / float64(limit) * 100
		}
		return percentSpent >= th.Value, nil
	case DollarsRemaining:
		return model.ToUnits(snap.RemainingBalance) <= th.Value, nil
	default:
		return false, wrongKind(trig.Expression, th.Kind, string(model.RuleGoalThreshold))
	}
}
