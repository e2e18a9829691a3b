package rules

import (
	"fmt"

	"github.com/ogulcanaydogan/budget-tripwire/pkg/model"
)

// Problem describes one configuration issue found by Validate.
type Problem struct {
	Category string
	Rule     int
	Trigger  string
	Err      error
	// Warning problems do not prevent evaluation of the rest of the rule.
	Warning bool
}

func (p Problem) Error() string {
	if p.Trigger == "" {
		return fmt.Sprintf("%s: rule %d: %v", p.Category, p.Rule, p.Err)
	}
	return fmt.Sprintf("%s: rule %d: trigger %q: %v", p.Category, p.Rule, p.Trigger, p.Err)
}

func (p Problem) Unwrap() error { return p.Err }

// Validate checks every trigger of every rule in cfg without evaluating it.
// The auto-detection rules are reported under the category name "auto_alerts".
func Validate(cfg model.AlertConfig) []Problem {
	var problems []Problem
	for _, name := range SortedNames(cfg.Categories) {
		problems = append(problems, validateRules(name, cfg.Categories[name].Rules)...)
	}
	if cfg.AutoAlerts.Enabled {
		problems = append(problems, validateRules("auto_alerts", cfg.AutoAlerts.Rules)...)
	}
	return problems
}

func validateRules(category string, rules []model.Rule) []Problem {
	var problems []Problem
	for i, rule := range rules {
		var want ThresholdKind
		switch rule.Kind {
		case model.RuleGoalThreshold:
		case model.RulePacing:
			want = PercentOver
		default:
			problems = append(problems, Problem{
				Category: category,
				Rule:     i,
				Err:      fmt.Errorf("unknown rule type %q", rule.Kind),
				Warning:  true,
			})
			continue
		}

		for _, trig := range rule.Triggers {
			th, err := ParseThreshold(trig.Expression)
			if err != nil {
				problems = append(problems, Problem{Category: category, Rule: i, Trigger: trig.Expression, Err: err})
				continue
			}
			if (want == PercentOver) != (th.Kind == PercentOver) {
				problems = append(problems, Problem{
					Category: category,
					Rule:     i,
					Trigger:  trig.Expression,
					Err:      wrongKind(trig.Expression, th.Kind, string(rule.Kind)),
				})
			}
		}
	}
	return problems
}
