package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ogulcanaydogan/budget-tripwire/internal/config"
	"github.com/ogulcanaydogan/budget-tripwire/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "ynab", cfg.Source.Type)
	assert.Equal(t, "sqlite", cfg.State.Backend)
	assert.Equal(t, "state.json", cfg.State.Key)
	assert.Equal(t, "state", cfg.State.GitHub.Branch)
	assert.Equal(t, ":8080", cfg.Serve.Listen)
	assert.Equal(t, "1h", cfg.Serve.Interval)
	assert.Equal(t, "30s", cfg.Serve.ReadTimeout)
	assert.Equal(t, "60s", cfg.Serve.WriteTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Empty(t, cfg.Rules.Categories)
	assert.False(t, cfg.Rules.AutoAlerts.Enabled)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
source:
  type: file
  file:
    path: /tmp/snapshots.yaml
state:
  backend: github
  github:
    repository: me/tripwire
logging:
  level: debug
alerts:
  pushover:
    enabled: true
    token: app
    user_keys: [u1, u2]
categories:
  Dining Out:
    spending_limit: 400
    rules:
      - type: pacing
        triggers:
          - at: "10% over"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "file", cfg.Source.Type)
	assert.Equal(t, "/tmp/snapshots.yaml", cfg.Source.File.Path)
	assert.Equal(t, "github", cfg.State.Backend)
	assert.Equal(t, "me/tripwire", cfg.State.GitHub.Repository)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Alerts.Pushover.Enabled)
	assert.Equal(t, []string{"u1", "u2"}, cfg.Alerts.Pushover.UserKeys)

	require.Contains(t, cfg.Rules.Categories, "Dining Out", "category names keep their case")
	dining := cfg.Rules.Categories["Dining Out"]
	require.NotNil(t, dining.SpendingLimit)
	assert.Equal(t, int64(400000), *dining.SpendingLimit)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TRIPWIRE_LOGGING_LEVEL", "error")
	t.Setenv("TRIPWIRE_SERVE_LISTEN", ":7070")

	cfg, err := config.Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, ":7070", cfg.Serve.Listen)
}

func TestLoad_EnvFallbacks(t *testing.T) {
	t.Setenv("YNAB_TOKEN", "ynab-secret")
	t.Setenv("YNAB_BUDGET_ID", "budget-1")
	t.Setenv("PUSHOVER_API_TOKEN", "po-token")
	t.Setenv("PUSHOVER_USER_KEYS", "alice, bob")
	t.Setenv("GITHUB_TOKEN", "gh-token")
	t.Setenv("GITHUB_REPOSITORY", "me/tripwire")

	cfg, err := config.Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "ynab-secret", cfg.Source.YNAB.Token)
	assert.Equal(t, "budget-1", cfg.Source.YNAB.BudgetID)
	assert.Equal(t, "po-token", cfg.Alerts.Pushover.Token)
	assert.Equal(t, []string{"alice", "bob"}, cfg.Alerts.Pushover.UserKeys)
	assert.Equal(t, "gh-token", cfg.State.GitHub.Token)
	assert.Equal(t, "me/tripwire", cfg.State.GitHub.Repository)
}

func TestLoad_PrefixedEnvWinsOverFallback(t *testing.T) {
	t.Setenv("YNAB_TOKEN", "plain")
	t.Setenv("TRIPWIRE_SOURCE_YNAB_TOKEN", "prefixed")

	cfg, err := config.Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.Source.YNAB.Token)
}

func TestLoad_ExpandsEnvReferences(t *testing.T) {
	t.Setenv("MY_SLACK_HOOK", "https://hooks.slack.com/abc")
	path := writeConfig(t, `
alerts:
  slack:
    webhook_url: ${MY_SLACK_HOOK}
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.slack.com/abc", cfg.Alerts.Slack.WebhookURL)
}

func TestLoad_InvalidFile(t *testing.T) {
	_, err := config.Load(writeConfig(t, "invalid: [yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidRules(t *testing.T) {
	path := writeConfig(t, `
categories:
  Groceries:
    rules:
      - type: goal_threshold
        triggers:
          - at: "75%"
            severity: panic
`)
	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown severity")
}

func TestParseAlertConfig_Defaults(t *testing.T) {
	cfg, err := config.ParseAlertConfig([]byte(`
categories:
  Groceries:
    rules:
      - type: goal_threshold
        triggers:
          - at: "75%"
          - at: "$50 remaining"
            severity: URGENT
      - type: pacing
        triggers:
          - at: "10% over"
  Gifts:
    enabled: false
    spending_limit: auto
auto_alerts:
  enabled: true
  spending_limit: auto
  exclude: ["Rent", "Savings"]
  rules:
    - type: goal_threshold
      min_hours_between_alerts: 0
      triggers:
        - at: "90%"
`))
	require.NoError(t, err)

	g := cfg.Categories["Groceries"]
	assert.True(t, g.Enabled)
	assert.Nil(t, g.SpendingLimit)
	require.Len(t, g.Rules, 2)

	goal := g.Rules[0]
	assert.Equal(t, model.RuleGoalThreshold, goal.Kind)
	assert.Equal(t, 744, goal.CooldownHours)
	assert.Zero(t, goal.WarmUpHours)
	assert.Equal(t, []model.Trigger{
		{Expression: "75%", Severity: model.SeverityWarning},
		{Expression: "$50 remaining", Severity: model.SeverityUrgent},
	}, goal.Triggers)

	pacing := g.Rules[1]
	assert.Equal(t, model.RulePacing, pacing.Kind)
	assert.Equal(t, 24, pacing.CooldownHours)
	assert.Equal(t, 72, pacing.WarmUpHours)

	assert.False(t, cfg.Categories["Gifts"].Enabled)

	assert.True(t, cfg.AutoAlerts.Enabled)
	assert.True(t, cfg.AutoAlerts.Excludes("Rent"))
	assert.False(t, cfg.AutoAlerts.Excludes("rent"))
	require.Len(t, cfg.AutoAlerts.Rules, 1)
	assert.Zero(t, cfg.AutoAlerts.Rules[0].CooldownHours)
}

func TestParseAlertConfig_UnknownKindKept(t *testing.T) {
	cfg, err := config.ParseAlertConfig([]byte(`
categories:
  Groceries:
    rules:
      - type: velocity
        triggers: [{at: "5%"}]
`))
	require.NoError(t, err)
	assert.Equal(t, model.RuleKind("velocity"), cfg.Categories["Groceries"].Rules[0].Kind)
	assert.Equal(t, 744, cfg.Categories["Groceries"].Rules[0].CooldownHours)
}

func TestParseAlertConfig_SourceIDs(t *testing.T) {
	cfg, err := config.ParseAlertConfig([]byte(`
categories:
  Groceries:
    id: " 9b1c-groceries "
  Dining Out: {}
`))
	require.NoError(t, err)
	assert.Equal(t, "9b1c-groceries", cfg.Categories["Groceries"].SourceID)
	assert.Empty(t, cfg.Categories["Dining Out"].SourceID)
	assert.Equal(t, map[string]string{"9b1c-groceries": "Groceries"}, cfg.SourceIDs())
}

func TestParseAlertConfig_SpendingLimit(t *testing.T) {
	tests := []struct {
		raw  string
		want *int64
	}{
		{"auto", nil},
		{"AUTO", nil},
		{"500", ptr(500000)},
		{"\"$12.50\"", ptr(12500)},
		{"0", ptr(0)},
		{"0.0004", ptr(0)},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			cfg, err := config.ParseAlertConfig([]byte("categories:\n  X:\n    spending_limit: " + tt.raw + "\n"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Categories["X"].SpendingLimit)
		})
	}
}

func TestParseAlertConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"negative limit", "categories:\n  X:\n    spending_limit: -5\n", "negative"},
		{"bad limit", "categories:\n  X:\n    spending_limit: lots\n", "spending_limit"},
		{"auto alerts fixed limit", "auto_alerts:\n  spending_limit: 100\n", "auto_alerts"},
		{"missing type", "categories:\n  X:\n    rules:\n      - triggers: []\n", "missing type"},
		{"negative cooldown", "categories:\n  X:\n    rules:\n      - type: pacing\n        min_hours_between_alerts: -1\n", "negative"},
		{"negative warm up", "categories:\n  X:\n    rules:\n      - type: pacing\n        warm_up_hours: -1\n", "negative"},
		{"shared id", "categories:\n  X:\n    id: c1\n  Y:\n    id: c1\n", `"X" and "Y" share id "c1"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.ParseAlertConfig([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func ptr(v int64) *int64 { return &v }
