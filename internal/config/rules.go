package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ogulcanaydogan/budget-tripwire/pkg/model"
)

// SpendingLimit is either "auto" (use the source's limit) or an amount in
// currency units, stored as milliunits.
type SpendingLimit struct {
	Amount *int64
}

// UnmarshalYAML accepts "auto" or a non-negative decimal amount.
func (l *SpendingLimit) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: spending_limit must be \"auto\" or an amount", value.Line)
	}
	raw := strings.TrimPrefix(strings.TrimSpace(value.Value), "$")
	if strings.EqualFold(raw, "auto") || raw == "" {
		l.Amount = nil
		return nil
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("line %d: spending_limit %q: %w", value.Line, value.Value, err)
	}
	if d.IsNegative() {
		return fmt.Errorf("line %d: spending_limit %q is negative", value.Line, value.Value)
	}
	m := d.Mul(decimal.NewFromInt(model.MilliunitsPerUnit)).Round(0).IntPart()
	l.Amount = &m
	return nil
}

type ruleDocument struct {
	Categories map[string]categoryDoc `yaml:"categories"`
	AutoAlerts autoAlertsDoc          `yaml:"auto_alerts"`
}

type categoryDoc struct {
	ID            string        `yaml:"id"`
	Enabled       *bool         `yaml:"enabled"`
	SpendingLimit SpendingLimit `yaml:"spending_limit"`
	Rules         []ruleDoc     `yaml:"rules"`
}

type autoAlertsDoc struct {
	Enabled       bool          `yaml:"enabled"`
	Exclude       []string      `yaml:"exclude"`
	SpendingLimit SpendingLimit `yaml:"spending_limit"`
	Rules         []ruleDoc     `yaml:"rules"`
}

type ruleDoc struct {
	Type                  string       `yaml:"type"`
	Triggers              []triggerDoc `yaml:"triggers"`
	MinHoursBetweenAlerts *int         `yaml:"min_hours_between_alerts"`
	WarmUpHours           *int         `yaml:"warm_up_hours"`
}

type triggerDoc struct {
	At       string `yaml:"at"`
	Severity string `yaml:"severity"`
}

// ParseAlertConfig decodes the categories and auto_alerts sections of a
// config document into a typed AlertConfig, applying rule defaults. Other
// top-level keys are ignored. Category names keep their case.
func ParseAlertConfig(data []byte) (model.AlertConfig, error) {
	var doc ruleDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return model.AlertConfig{}, fmt.Errorf("parse rules: %w", err)
	}

	cfg := model.AlertConfig{
		Categories: make(map[string]model.CategoryConfig, len(doc.Categories)),
	}

	ids := make(map[string]string)
	for name, c := range doc.Categories {
		id := strings.TrimSpace(c.ID)
		if id != "" {
			if other, dup := ids[id]; dup {
				return model.AlertConfig{}, fmt.Errorf("categories %q and %q share id %q", min(name, other), max(name, other), id)
			}
			ids[id] = name
		}
		rules, err := convertRules(c.Rules)
		if err != nil {
			return model.AlertConfig{}, fmt.Errorf("category %q: %w", name, err)
		}
		enabled := true
		if c.Enabled != nil {
			enabled = *c.Enabled
		}
		cfg.Categories[name] = model.CategoryConfig{
			Enabled:       enabled,
			Rules:         rules,
			SpendingLimit: c.SpendingLimit.Amount,
			SourceID:      id,
		}
	}

	if doc.AutoAlerts.SpendingLimit.Amount != nil {
		return model.AlertConfig{}, fmt.Errorf("auto_alerts: spending_limit must be \"auto\"")
	}
	autoRules, err := convertRules(doc.AutoAlerts.Rules)
	if err != nil {
		return model.AlertConfig{}, fmt.Errorf("auto_alerts: %w", err)
	}
	cfg.AutoAlerts = model.AutoDetectPolicy{
		Enabled: doc.AutoAlerts.Enabled,
		Exclude: make(map[string]struct{}, len(doc.AutoAlerts.Exclude)),
		Rules:   autoRules,
	}
	for _, name := range doc.AutoAlerts.Exclude {
		cfg.AutoAlerts.Exclude[name] = struct{}{}
	}

	return cfg, nil
}

func convertRules(docs []ruleDoc) ([]model.Rule, error) {
	rules := make([]model.Rule, 0, len(docs))
	for i, d := range docs {
		kind := model.RuleKind(strings.TrimSpace(d.Type))
		if kind == "" {
			return nil, fmt.Errorf("rule %d: missing type", i)
		}

		rule := model.Rule{
			Kind:          kind,
			CooldownHours: model.DefaultCooldownHours(kind),
		}
		if d.MinHoursBetweenAlerts != nil {
			if *d.MinHoursBetweenAlerts < 0 {
				return nil, fmt.Errorf("rule %d: min_hours_between_alerts is negative", i)
			}
			rule.CooldownHours = *d.MinHoursBetweenAlerts
		}
		if kind == model.RulePacing {
			rule.WarmUpHours = model.DefaultWarmUpHours
		}
		if d.WarmUpHours != nil {
			if *d.WarmUpHours < 0 {
				return nil, fmt.Errorf("rule %d: warm_up_hours is negative", i)
			}
			rule.WarmUpHours = *d.WarmUpHours
		}

		for j, t := range d.Triggers {
			sev := model.SeverityWarning
			if t.Severity != "" {
				sev = model.Severity(strings.ToLower(strings.TrimSpace(t.Severity)))
			}
			if !sev.Valid() {
				return nil, fmt.Errorf("rule %d trigger %d: unknown severity %q", i, j, t.Severity)
			}
			rule.Triggers = append(rule.Triggers, model.Trigger{Expression: t.At, Severity: sev})
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
