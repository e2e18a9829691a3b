package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ogulcanaydogan/budget-tripwire/pkg/model"
)

// Config holds all Tripwire configuration.
type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	State   StateConfig   `mapstructure:"state"`
	Alerts  AlertsConfig  `mapstructure:"alerts"`
	Logging LoggingConfig `mapstructure:"logging"`
	Serve   ServeConfig   `mapstructure:"serve"`

	// Rules is the typed alerting configuration decoded from the
	// categories and auto_alerts sections of the config file.
	Rules model.AlertConfig `mapstructure:"-"`

	// File is the config file that was read, empty if none was found.
	File string `mapstructure:"-"`
}

// SourceConfig selects and configures the budget data source.
type SourceConfig struct {
	Type string           `mapstructure:"type"`
	YNAB YNABConfig       `mapstructure:"ynab"`
	File FileSourceConfig `mapstructure:"file"`
}

// YNABConfig defines YNAB API settings.
type YNABConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Token    string `mapstructure:"token"`
	BudgetID string `mapstructure:"budget_id"`
}

// FileSourceConfig points at a YAML snapshot document.
type FileSourceConfig struct {
	Path string `mapstructure:"path"`
}

// StateConfig selects and configures the cooldown state store.
type StateConfig struct {
	Backend string       `mapstructure:"backend"`
	Key     string       `mapstructure:"key"`
	SQLite  SQLiteConfig `mapstructure:"sqlite"`
	GitHub  GitHubConfig `mapstructure:"github"`
}

// SQLiteConfig defines database settings.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// GitHubConfig defines the repository branch holding the state file.
type GitHubConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Token      string `mapstructure:"token"`
	Repository string `mapstructure:"repository"`
	Branch     string `mapstructure:"branch"`
}

// AlertsConfig defines alerting integrations.
type AlertsConfig struct {
	Pushover PushoverConfig `mapstructure:"pushover"`
	Slack    SlackConfig    `mapstructure:"slack"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
}

// PushoverConfig defines Pushover settings.
type PushoverConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	APIURL   string   `mapstructure:"api_url"`
	Token    string   `mapstructure:"token"`
	UserKeys []string `mapstructure:"user_keys"`
}

// SlackConfig defines Slack webhook settings.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServeConfig defines the long-running scheduler and API server.
type ServeConfig struct {
	Listen       string `mapstructure:"listen"`
	Interval     string `mapstructure:"interval"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// envFallbacks binds config keys to the plain environment variable names
// used by CI schedulers, checked after the TRIPWIRE_ prefixed name.
var envFallbacks = map[string]string{
	"source.ynab.token":         "YNAB_TOKEN",
	"source.ynab.budget_id":     "YNAB_BUDGET_ID",
	"alerts.pushover.token":     "PUSHOVER_API_TOKEN",
	"alerts.pushover.user_keys": "PUSHOVER_USER_KEYS",
	"state.github.token":        "GITHUB_TOKEN",
	"state.github.repository":   "GITHUB_REPOSITORY",
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(home, ".tripwire"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("source.type", "ynab")
	v.SetDefault("state.backend", "sqlite")
	v.SetDefault("state.key", "state.json")
	v.SetDefault("state.sqlite.path", filepath.Join(home, ".tripwire", "state.db"))
	v.SetDefault("state.github.branch", "state")
	v.SetDefault("alerts.slack.channel", "#budget")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("serve.listen", ":8080")
	v.SetDefault("serve.interval", "1h")
	v.SetDefault("serve.read_timeout", "30s")
	v.SetDefault("serve.write_timeout", "60s")

	// Environment variables
	v.SetEnvPrefix("TRIPWIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, fallback := range envFallbacks {
		primary := "TRIPWIRE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, primary, fallback); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.expandEnv()

	if cfg.File != "" {
		data, err := os.ReadFile(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("read rules: %w", err)
		}
		rules, err := ParseAlertConfig(data)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", cfg.File, err)
		}
		cfg.Rules = rules
	}

	return &cfg, nil
}

// expandEnv interpolates ${VAR} references in credential and endpoint fields.
func (c *Config) expandEnv() {
	for _, field := range []*string{
		&c.Source.YNAB.Token,
		&c.Source.YNAB.BudgetID,
		&c.Source.File.Path,
		&c.State.SQLite.Path,
		&c.State.GitHub.Token,
		&c.State.GitHub.Repository,
		&c.Alerts.Pushover.Token,
		&c.Alerts.Slack.WebhookURL,
		&c.Alerts.Webhook.URL,
		&c.Alerts.Webhook.Secret,
	} {
		*field = os.ExpandEnv(*field)
	}

	var keys []string
	for _, raw := range c.Alerts.Pushover.UserKeys {
		for _, k := range strings.Split(os.ExpandEnv(raw), ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
	}
	c.Alerts.Pushover.UserKeys = keys
}
