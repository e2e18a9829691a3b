package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/budget-tripwire/internal/config"
	"github.com/ogulcanaydogan/budget-tripwire/pkg/alerts"
	"github.com/ogulcanaydogan/budget-tripwire/pkg/rules"
	"github.com/ogulcanaydogan/budget-tripwire/pkg/source"
	"github.com/ogulcanaydogan/budget-tripwire/pkg/storage"
	"github.com/ogulcanaydogan/budget-tripwire/pkg/tracker"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "tripwire",
	Short: "Tripwire - spending alerts for your budget categories",
	Long: `Tripwire checks budget categories against threshold and pacing rules
and sends a notification when a trigger fires. Each trigger is rate-limited
by a cooldown recorded in a versioned state store.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.tripwire/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initSources registers every configured source and returns the active one.
func initSources(cfg *config.Config) (source.Source, error) {
	registry := source.NewRegistry()

	if cfg.Source.YNAB.Token != "" {
		if err := registry.Register(source.NewYNAB(cfg.Source.YNAB.BaseURL, cfg.Source.YNAB.Token, cfg.Source.YNAB.BudgetID).WithCategoryIDs(cfg.Rules.SourceIDs())); err != nil {
			return nil, err
		}
	}
	if cfg.Source.File.Path != "" {
		if err := registry.Register(source.NewFile(cfg.Source.File.Path)); err != nil {
			return nil, err
		}
	}

	src, err := registry.Get(cfg.Source.Type)
	if err != nil {
		return nil, fmt.Errorf("source %q is not configured (available: %v): %w", cfg.Source.Type, registry.List(), err)
	}
	return src, nil
}

// initStore creates the state store backend from config.
func initStore(cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.State.Backend {
	case "sqlite":
		return storage.NewSQLite(cfg.State.SQLite.Path)
	case "github":
		gh := cfg.State.GitHub
		if gh.Repository == "" {
			return nil, fmt.Errorf("state backend github requires state.github.repository")
		}
		return storage.NewGitHub(gh.BaseURL, gh.Token, gh.Repository, gh.Branch)
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.State.Backend)
	}
}

// initNotifiers creates alert notifiers from config.
func initNotifiers(cfg *config.Config) []alerts.Notifier {
	var notifiers []alerts.Notifier

	if cfg.Alerts.Pushover.Enabled && cfg.Alerts.Pushover.Token != "" {
		notifiers = append(notifiers, alerts.NewPushoverNotifier(
			cfg.Alerts.Pushover.APIURL,
			cfg.Alerts.Pushover.Token,
			cfg.Alerts.Pushover.UserKeys,
		))
	}

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alerts.NewSlackNotifier(
			cfg.Alerts.Slack.WebhookURL,
			cfg.Alerts.Slack.Channel,
		))
	}

	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(
			cfg.Alerts.Webhook.URL,
			cfg.Alerts.Webhook.Secret,
		))
	}

	return notifiers
}

// initRunner creates a fully wired runner. The caller closes the store.
func initRunner(cfg *config.Config, logger *slog.Logger) (*tracker.Runner, storage.BlobStore, error) {
	src, err := initSources(cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := initStore(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init state store: %w", err)
	}

	notifiers := initNotifiers(cfg)
	if len(notifiers) == 0 {
		logger.Warn("no notifiers configured, firings will not be recorded")
	}

	runner := tracker.NewRunner(src, store, cfg.State.Key, rules.NewEngine(logger), cfg.Rules, notifiers, logger)
	return runner, store, nil
}
