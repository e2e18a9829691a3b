package model

import "time"

// MilliunitsPerUnit is the number of milliunits in one currency unit.
// All snapshot amounts are expressed in milliunits.
const MilliunitsPerUnit = 1000

// ToUnits converts a milliunit amount to currency units.
func ToUnits(milliunits int64) float64 {
	return float64(milliunits) / MilliunitsPerUnit
}

// CategorySnapshot is one budget category's numbers for the current period.
type CategorySnapshot struct {
	Name             string `json:"name" yaml:"name"`
	LimitAmount      *int64 `json:"limit_amount,omitempty" yaml:"limit_amount,omitempty"`
	PeriodActivity   int64  `json:"period_activity" yaml:"period_activity"`
	RemainingBalance int64  `json:"remaining_balance" yaml:"remaining_balance"`
}

// HasLimit reports whether the snapshot carries a non-zero limit.
func (s CategorySnapshot) HasLimit() bool {
	return s.LimitAmount != nil && *s.LimitAmount != 0
}

// Severity is the urgency attached to a trigger.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityUrgent  Severity = "urgent"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	return s == SeverityWarning || s == SeverityUrgent
}

// Trigger is one threshold expression plus a severity.
type Trigger struct {
	Expression string   `json:"at" yaml:"at"`
	Severity   Severity `json:"severity" yaml:"severity"`
}

// RuleKind selects the evaluator for a rule.
type RuleKind string

const (
	RuleGoalThreshold RuleKind = "goal_threshold"
	RulePacing        RuleKind = "pacing"
)

// Rule defaults, in hours.
const (
	DefaultGoalThresholdCooldownHours = 744
	DefaultPacingCooldownHours        = 24
	DefaultWarmUpHours                = 72
)

// Rule is an ordered list of triggers evaluated by one rule kind.
type Rule struct {
	Kind          RuleKind  `json:"type"`
	Triggers      []Trigger `json:"triggers"`
	CooldownHours int       `json:"min_hours_between_alerts"`
	WarmUpHours   int       `json:"warm_up_hours,omitempty"`
}

// DefaultCooldownHours returns the cooldown used when a rule of the given
// kind does not configure one.
func DefaultCooldownHours(kind RuleKind) int {
	if kind == RulePacing {
		return DefaultPacingCooldownHours
	}
	return DefaultGoalThresholdCooldownHours
}

// CategoryConfig holds the alert rules for a single category.
type CategoryConfig struct {
	Enabled      bool   `json:"enabled"`
	Rules        []Rule `json:"rules"`
	AutoDetected bool   `json:"auto_detected"`

	// SpendingLimit overrides the snapshot's limit when set. Milliunits.
	SpendingLimit *int64 `json:"spending_limit,omitempty"`

	// SourceID pins the category to a source-side identifier so it survives
	// renames in the source.
	SourceID string `json:"source_id,omitempty"`
}

// ApplyLimit returns snap with the configured spending limit substituted
// for the snapshot's own limit.
func (c CategoryConfig) ApplyLimit(snap CategorySnapshot) CategorySnapshot {
	if c.SpendingLimit == nil {
		return snap
	}
	limit := *c.SpendingLimit
	snap.LimitAmount = &limit
	return snap
}

// AutoDetectPolicy controls how unconfigured categories get alerts.
type AutoDetectPolicy struct {
	Enabled bool                `json:"enabled"`
	Exclude map[string]struct{} `json:"-"`
	Rules   []Rule              `json:"rules"`
}

// Excludes reports whether name is excluded from auto-detection.
func (p AutoDetectPolicy) Excludes(name string) bool {
	_, ok := p.Exclude[name]
	return ok
}

// AlertConfig is the complete, validated alerting configuration.
type AlertConfig struct {
	Categories map[string]CategoryConfig `json:"categories"`
	AutoAlerts AutoDetectPolicy          `json:"auto_alerts"`
}

// SourceIDs maps each pinned source identifier to its configured category
// name.
func (c AlertConfig) SourceIDs() map[string]string {
	ids := make(map[string]string)
	for name, cat := range c.Categories {
		if cat.SourceID != "" {
			ids[cat.SourceID] = name
		}
	}
	return ids
}

// PacingContext carries the projection figures behind a pacing evaluation.
type PacingContext struct {
	ExpectedSpend        float64 `json:"expected_spend"`
	ProjectedEndOfPeriod float64 `json:"projected_end_of_period"`
	PercentOver          float64 `json:"percent_over"`
	DaysElapsed          int     `json:"days_elapsed"`
	DaysInPeriod         int     `json:"days_in_period"`
	Activity             int64   `json:"activity"`
	Limit                int64   `json:"limit"`
}

// Firing is a trigger that met its condition during a run.
type Firing struct {
	CategoryName string           `json:"category"`
	Trigger      Trigger          `json:"trigger"`
	Snapshot     CategorySnapshot `json:"snapshot"`
	Pacing       *PacingContext   `json:"pacing,omitempty"`
	RuleKind     RuleKind         `json:"rule_kind"`
	EvaluatedAt  time.Time        `json:"evaluated_at"`
}
