package rules

import (
	"time"

	"github.com/ogulcanaydogan/budget-tripwire/pkg/model"
)

// EvaluatePacing projects snap's activity to the end of the month containing
// now and reports whether the projection overshoots the limit by at least
// trig's percent-over threshold. The returned context is populated whenever
// the snapshot has a usable limit, whether or not the trigger fired.
func EvaluatePacing(snap model.CategorySnapshot, trig model.Trigger, now time.Time) (bool, model.PacingContext, error) {
	if !snap.HasLimit() {
		return false, model.PacingContext{}, nil
	}

	th, err := ParseThreshold(trig.Expression)
	if err != nil {
		return false, model.PacingContext{}, err
	}
	if th.Kind != PercentOver {
		return false, model.PacingContext{}, wrongKind(trig.Expression, th.Kind, string(model.RulePacing))
	}

	ctx := Project(snap, now)
	return ctx.PercentOver >= th.Value, ctx, nil
}

// Project computes the pacing figures for snap at now. snap must have a
// non-zero limit. Days are counted in UTC.
func Project(snap model.CategorySnapshot, now time.Time) model.PacingContext {
	now = now.UTC()
	limit := *snap.LimitAmount
	daysInPeriod := model.DaysInPeriod(now)
	daysElapsed := max(now.Day(), 1)

	l := float64(limit)
	activity := float64(snap.PeriodActivity)
	projected := activity * float64(daysInPeriod) / float64(daysElapsed)

	return model.PacingContext{
		ExpectedSpend:        l * float64(daysElapsed) / float64(daysInPeriod),
		ProjectedEndOfPeriod: projected,
		PercentOver:          (projected - l) * 100 / l,
		DaysElapsed:          daysElapsed,
		DaysInPeriod:         daysInPeriod,
		Activity:             snap.PeriodActivity,
		Limit:                limit,
	}
}
