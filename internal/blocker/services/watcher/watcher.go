// Package watcher keeps the managed hosts section in place by re-applying a
// fixed domain set on a timer and whenever the hosts file changes on disk.
package watcher

import (
	"context"
	"errors"
	"time"

	"github.com/haukened/tamashii/internal/blocker/common/log"
	"github.com/haukened/tamashii/internal/blocker/common/task"
	"github.com/haukened/tamashii/internal/blocker/metrics"
)

// DefaultInterval is the re-apply period when none is configured.
const DefaultInterval = 60 * time.Second

// ErrNoApplier is returned by New when Options.Applier is nil.
var ErrNoApplier = errors.New("watcher requires an applier")

// Applier is the part of the hosts repository the Watcher drives.
// hostsfile.Serialized satisfies it.
type Applier interface {
	Apply(ctx context.Context, domains []string) error
	Drifted(ctx context.Context, domains []string) (bool, error)
}

// Options configures a Watcher.
type Options struct {
	Applier  Applier
	Domains  []string
	Interval time.Duration
	// Changes, when set, triggers an immediate drift check per signal.
	Changes <-chan struct{}
	Logger  log.Logger
	Metrics metrics.Recorder
}

// Watcher re-applies one immutable domain set until it is stopped.
type Watcher struct {
	applier  Applier
	domains  []string
	interval time.Duration
	changes  <-chan struct{}
	logger   log.Logger
	metrics  metrics.Recorder
}

// New copies opts.Domains so later changes by the caller have no effect.
func New(opts Options) (*Watcher, error) {
	if opts.Applier == nil {
		return nil, ErrNoApplier
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = log.GetLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}
	domains := make([]string, len(opts.Domains))
	copy(domains, opts.Domains)
	return &Watcher{
		applier:  opts.Applier,
		domains:  domains,
		interval: opts.Interval,
		changes:  opts.Changes,
		logger:   log.With(opts.Logger, map[string]any{"component": "watcher"}),
		metrics:  opts.Metrics,
	}, nil
}

// Domains returns a copy of the set this Watcher enforces.
func (w *Watcher) Domains() []string {
	out := make([]string, len(w.domains))
	copy(out, w.domains)
	return out
}

// Start runs the Watcher in a task bound to ctx.
func (w *Watcher) Start(ctx context.Context) *task.Handle {
	return task.Go(ctx, "watcher", w.logger, w.Run)
}

// Run blocks until ctx is done. Failed ticks are logged and counted; they
// never end the loop.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info(map[string]any{"domains": len(w.domains), "interval": w.interval.String()}, "watcher_started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(nil, "watcher_stopped")
			return ctx.Err()
		case <-ticker.C:
			_ = w.Tick(ctx)
		case <-w.changes:
			_ = w.CheckDrift(ctx)
		}
	}
}

// Tick performs one scheduled re-apply. An empty set is a no-op.
func (w *Watcher) Tick(ctx context.Context) error {
	if len(w.domains) == 0 {
		return nil
	}
	err := w.applier.Apply(ctx, w.domains)
	w.metrics.IncReapply(metrics.TriggerTick, metrics.Result(err))
	if err != nil {
		w.logger.Error(map[string]any{"error": err}, "watcher_reapply_failed")
		return err
	}
	w.logger.Debug(map[string]any{"domains": len(w.domains)}, "watcher_reapplied")
	return nil
}

// CheckDrift re-applies the set only when the file no longer matches it.
func (w *Watcher) CheckDrift(ctx context.Context) error {
	if len(w.domains) == 0 {
		return nil
	}
	drifted, err := w.applier.Drifted(ctx, w.domains)
	if err != nil {
		w.logger.Error(map[string]any{"error": err}, "watcher_drift_check_failed")
		return err
	}
	if !drifted {
		return nil
	}
	w.metrics.IncTamper()
	w.logger.Warn(map[string]any{"domains": len(w.domains)}, "hosts_section_tampered")

	err = w.applier.Apply(ctx, w.domains)
	w.metrics.IncReapply(metrics.TriggerChange, metrics.Result(err))
	if err != nil {
		w.logger.Error(map[string]any{"error": err}, "watcher_reapply_failed")
		return err
	}
	return nil
}
