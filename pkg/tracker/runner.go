package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ogulcanaydogan/budget-tripwire/internal/metrics"
	"github.com/ogulcanaydogan/budget-tripwire/pkg/alerts"
	"github.com/ogulcanaydogan/budget-tripwire/pkg/cooldown"
	"github.com/ogulcanaydogan/budget-tripwire/pkg/model"
	"github.com/ogulcanaydogan/budget-tripwire/pkg/rules"
	"github.com/ogulcanaydogan/budget-tripwire/pkg/source"
	"github.com/ogulcanaydogan/budget-tripwire/pkg/storage"
)

// RunResult summarizes one evaluation run.
type RunResult struct {
	ID           string         `json:"id"`
	StartedAt    time.Time      `json:"started_at"`
	DryRun       bool           `json:"dry_run"`
	Categories   int            `json:"categories"`
	Firings      []model.Firing `json:"firings"`
	Sent         int            `json:"sent"`
	Errors       []string       `json:"errors,omitempty"`
	Pruned       []string       `json:"pruned,omitempty"`
	StateChanged bool           `json:"state_changed"`
}

// Runner ties a snapshot source, the rule engine, notifiers and the state
// store into a single run. Runs are serialized.
type Runner struct {
	source    source.Source
	store     storage.BlobStore
	stateKey  string
	engine    *rules.Engine
	alertCfg  model.AlertConfig
	notifiers []alerts.Notifier
	logger    *slog.Logger

	mu   sync.Mutex
	last *RunResult
}

// NewRunner creates a runner with the given dependencies.
func NewRunner(src source.Source, store storage.BlobStore, stateKey string, engine *rules.Engine, alertCfg model.AlertConfig, notifiers []alerts.Notifier, logger *slog.Logger) *Runner {
	return &Runner{
		source:    src,
		store:     store,
		stateKey:  stateKey,
		engine:    engine,
		alertCfg:  alertCfg,
		notifiers: notifiers,
		logger:    logger,
	}
}

// Run evaluates every category at now. Firings are delivered and recorded
// unless dryRun is set, in which case neither notifiers nor the state store
// are touched. Rule errors are reported in the result; fetch, state and
// version-conflict failures abort the run.
func (r *Runner) Run(ctx context.Context, now time.Time, dryRun bool) (*RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	result, err := r.run(ctx, now, dryRun)
	metrics.RunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		r.logger.Error("run failed", "error", err)
		return nil, err
	}

	metrics.RunsTotal.WithLabelValues("success").Inc()
	metrics.LastRunTimestamp.Set(float64(now.Unix()))
	r.last = result

	r.logger.Info("run completed",
		"run_id", result.ID,
		"dry_run", dryRun,
		"categories", result.Categories,
		"firings", len(result.Firings),
		"sent", result.Sent,
		"errors", len(result.Errors),
		"state_changed", result.StateChanged,
	)
	return result, nil
}

func (r *Runner) run(ctx context.Context, now time.Time, dryRun bool) (*RunResult, error) {
	result := &RunResult{
		ID:        uuid.New().String(),
		StartedAt: now.UTC(),
		DryRun:    dryRun,
	}

	snapshots, err := r.source.Snapshots(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshots from %s: %w", r.source.Name(), err)
	}

	state, version, err := r.loadState(ctx)
	if err != nil {
		return nil, err
	}

	result.Pruned = state.Prune(now)
	if len(result.Pruned) > 0 {
		r.logger.Info("pruned stale periods", "periods", result.Pruned)
	}

	final := rules.BuildFinalCategories(r.alertCfg, snapshots)
	result.Categories = len(final)

	seen := make(map[string]struct{})

	for _, name := range rules.SortedNames(final) {
		snap, ok := snapshots[name]
		if !ok {
			r.logger.Warn("category not found in source", "category", name, "source", r.source.Name())
			continue
		}

		firings, err := r.engine.EvaluateCategory(name, final[name], snap, state, now)
		if err != nil {
			metrics.RuleErrorsTotal.Inc()
			result.Errors = append(result.Errors, err.Error())
		}
		result.Firings = append(result.Firings, r.dedupe(firings, seen)...)
	}

	recorded := 0
	for _, f := range result.Firings {
		metrics.FiringsTotal.WithLabelValues(string(f.RuleKind), string(f.Trigger.Severity)).Inc()
		r.logger.Info("trigger fired",
			"category", f.CategoryName,
			"trigger", f.Trigger.Expression,
			"severity", f.Trigger.Severity,
			"rule", f.RuleKind,
		)
		if dryRun {
			continue
		}

		if r.deliver(ctx, alerts.Render(f)) {
			state.RecordFiring(f.CategoryName, f.Trigger.Expression, now)
			result.Sent++
			recorded++
		}
	}

	if dryRun || (recorded == 0 && len(result.Pruned) == 0) {
		return result, nil
	}

	if err := r.saveState(ctx, state, version); err != nil {
		return nil, err
	}
	result.StateChanged = true
	return result, nil
}

// dedupe drops firings whose cooldown bucket already fired earlier in the
// run. The first firing in rule and trigger order wins.
func (r *Runner) dedupe(firings []model.Firing, seen map[string]struct{}) []model.Firing {
	out := firings[:0]
	for _, f := range firings {
		key := cooldown.Key(f.CategoryName, f.Trigger.Expression)
		if _, dup := seen[key]; dup {
			r.logger.Debug("duplicate trigger in run, skipping",
				"category", f.CategoryName,
				"trigger", f.Trigger.Expression,
				"rule", f.RuleKind,
			)
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out
}

// deliver sends the alert to every notifier and reports whether at least
// one accepted it.
func (r *Runner) deliver(ctx context.Context, alert alerts.Alert) bool {
	delivered := false
	for _, n := range r.notifiers {
		if err := n.Send(ctx, alert); err != nil {
			metrics.NotificationsTotal.WithLabelValues(n.Name(), "failed").Inc()
			r.logger.Error("send alert failed",
				"notifier", n.Name(),
				"category", alert.Category,
				"trigger", alert.Trigger,
				"error", err,
			)
			continue
		}
		metrics.NotificationsTotal.WithLabelValues(n.Name(), "sent").Inc()
		delivered = true
	}
	return delivered
}

func (r *Runner) loadState(ctx context.Context) (*cooldown.State, string, error) {
	blob, err := r.store.Read(ctx, r.stateKey)
	if errors.Is(err, storage.ErrNotFound) {
		r.logger.Debug("no stored state, starting empty", "key", r.stateKey)
		return cooldown.New(), "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("read state: %w", err)
	}

	state, err := cooldown.Decode(blob.Content)
	if err != nil {
		return nil, "", fmt.Errorf("decode state: %w", err)
	}
	return state, blob.Version, nil
}

func (r *Runner) saveState(ctx context.Context, state *cooldown.State, version string) error {
	content, err := state.Encode()
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if _, err := r.store.Write(ctx, r.stateKey, content, version); err != nil {
		if errors.Is(err, storage.ErrVersionConflict) {
			metrics.StateConflictsTotal.Inc()
		}
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// State returns the stored cooldown state, or an empty state if none exists.
func (r *Runner) State(ctx context.Context) (*cooldown.State, error) {
	state, _, err := r.loadState(ctx)
	return state, err
}

// ResetState deletes the stored state. A missing blob is not an error.
func (r *Runner) ResetState(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	blob, err := r.store.Read(ctx, r.stateKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read state: %w", err)
	}
	if err := r.store.Delete(ctx, r.stateKey, blob.Version); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	r.logger.Info("state reset", "key", r.stateKey, "store", r.store.Name())
	return nil
}

// LastResult returns the result of the most recent successful run, or nil.
func (r *Runner) LastResult() *RunResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
