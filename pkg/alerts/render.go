package alerts

import (
	"fmt"
	"strings"

	"github.com/ogulcanaydogan/budget-tripwire/pkg/model"
	"github.com/shopspring/decimal"
)

// Render builds the notification for a firing.
func Render(f model.Firing) Alert {
	sev := f.Trigger.Severity
	if sev == "" {
		sev = model.SeverityWarning
	}

	icon, priority := "⚠️", PriorityLow
	if sev == model.SeverityUrgent {
		icon, priority = "🔴", PriorityHigh
	}

	var body string
	if f.Pacing != nil {
		body = pacingMessage(f, sev)
	} else {
		body = goalMessage(f, sev)
	}

	return Alert{
		Title:    fmt.Sprintf("%s Tripwire: %s", icon, f.CategoryName),
		Message:  body,
		Priority: priority,
		Severity: sev,
		Category: f.CategoryName,
		Trigger:  f.Trigger.Expression,
		FiredAt:  f.EvaluatedAt,
	}
}

func goalMessage(f model.Firing, sev model.Severity) string {
	snap := f.Snapshot
	limitStr, percentStr := "N/A", "N/A"
	if snap.LimitAmount != nil {
		limitStr = Money(*snap.LimitAmount)
		if *snap.LimitAmount != 0 {
			percentStr = decimal.NewFromInt(snap.PeriodActivity).
				Mul(decimal.NewFromInt(100)).
				Div(decimal.NewFromInt(*snap.LimitAmount)).
				StringFixed(0) + "%"
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Spent %s of %s (%s)\n", Money(snap.PeriodActivity), limitStr, percentStr)
	fmt.Fprintf(&b, "Remaining: %s\n", Money(snap.RemainingBalance))
	fmt.Fprintf(&b, "Trigger: %s [%s]", f.Trigger.Expression, sev)
	return b.String()
}

func pacingMessage(f model.Firing, sev model.Severity) string {
	pc := f.Pacing
	var b strings.Builder
	fmt.Fprintf(&b, "On pace to spend %s of %s (%s%% over)\n",
		Money(decimal.NewFromFloat(pc.ProjectedEndOfPeriod).Round(0).IntPart()),
		Money(pc.Limit),
		decimal.NewFromFloat(pc.PercentOver).StringFixed(0),
	)
	fmt.Fprintf(&b, "Day %d of %d: spent %s, expected %s\n",
		pc.DaysElapsed, pc.DaysInPeriod,
		Money(pc.Activity),
		Money(decimal.NewFromFloat(pc.ExpectedSpend).Round(0).IntPart()),
	)
	fmt.Fprintf(&b, "Trigger: %s [%s]", f.Trigger.Expression, sev)
	return b.String()
}

// Money formats a milliunit amount as dollars with two decimals.
func Money(milliunits int64) string {
	d := decimal.New(milliunits, -3)
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
