package enforcer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/haukened/tamashii/internal/blocker/common/log"
	"github.com/haukened/tamashii/internal/blocker/common/task"
	"github.com/haukened/tamashii/internal/blocker/domain"
	"github.com/haukened/tamashii/internal/blocker/metrics"
	"github.com/haukened/tamashii/internal/blocker/repos/hostsfile"
	"github.com/haukened/tamashii/internal/blocker/services/watcher"
)

// ErrNoRepository is returned by NewHosts when HostsOptions.Repository is nil.
var ErrNoRepository = errors.New("hosts enforcer requires a repository")

// HostsOptions configures a Hosts enforcer.
type HostsOptions struct {
	Repository hostsfile.Repository
	Interval   time.Duration
	// Changes is shared by successive Watchers; only one reads it at a time.
	Changes <-chan struct{}
	Logger  log.Logger
	Metrics metrics.Recorder
}

// Hosts enforces through a hosts file. It owns at most one Watcher, which
// always guards the most recently applied set.
type Hosts struct {
	base     context.Context
	repo     *hostsfile.Serialized
	interval time.Duration
	changes  <-chan struct{}
	logger   log.Logger
	metrics  metrics.Recorder

	mu      sync.Mutex
	watcher *task.Handle
	guarded []string
}

// NewHosts wraps opts.Repository in a single writer. Watchers started by
// Apply live until ctx is done, Remove, Close, or the next Apply.
func NewHosts(ctx context.Context, opts HostsOptions) (*Hosts, error) {
	if opts.Repository == nil {
		return nil, ErrNoRepository
	}
	if opts.Logger == nil {
		opts.Logger = log.GetLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}
	return &Hosts{
		base:     ctx,
		repo:     hostsfile.NewSerialized(opts.Repository),
		interval: opts.Interval,
		changes:  opts.Changes,
		logger:   log.With(opts.Logger, map[string]any{"component": "enforcer", "mode": string(ModeHosts)}),
		metrics:  opts.Metrics,
	}, nil
}

// Apply stops the running Watcher, writes domains once, then starts a
// Watcher guarding this set. When the write fails the previous Watcher is
// restarted on its old set.
func (h *Hosts) Apply(ctx context.Context, domains []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	previous := h.guarded
	h.stopWatcherLocked()

	if err := h.repo.Apply(ctx, domains); err != nil {
		if len(previous) > 0 {
			if werr := h.startWatcherLocked(previous); werr != nil {
				h.logger.Error(map[string]any{"error": werr}, "watcher_restart_failed")
			}
		}
		return err
	}

	normalized := domain.Strings(domain.NormalizeAll(domains))
	h.metrics.SetBlockedDomains(len(normalized))
	if len(normalized) == 0 {
		h.logger.Info(nil, "blocklist_cleared")
		return nil
	}

	if err := h.startWatcherLocked(normalized); err != nil {
		return err
	}
	h.logger.Info(map[string]any{"domains": len(normalized)}, "blocklist_applied")
	return nil
}

func (h *Hosts) startWatcherLocked(domains []string) error {
	w, err := watcher.New(watcher.Options{
		Applier:  h.repo,
		Domains:  domains,
		Interval: h.interval,
		Changes:  h.changes,
		Logger:   h.logger,
		Metrics:  h.metrics,
	})
	if err != nil {
		return err
	}
	h.watcher = w.Start(h.base)
	h.guarded = w.Domains()
	return nil
}

// Remove stops the Watcher before stripping the section, so nothing puts
// it back.
func (h *Hosts) Remove(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopWatcherLocked()
	if err := h.repo.Remove(ctx); err != nil {
		return err
	}
	h.metrics.SetBlockedDomains(0)
	h.logger.Info(nil, "blocklist_removed")
	return nil
}

// Status reads the section back from disk. Read failures are returned, not
// reported as an empty list.
func (h *Hosts) Status(ctx context.Context) (domain.BlockerStatus, error) {
	admin := h.repo.IsPrivileged(ctx)
	blocked, err := h.repo.ListBlocked(ctx)
	if err != nil {
		return domain.BlockerStatus{}, err
	}
	return domain.BlockerStatus{
		IsActive:       len(blocked) > 0,
		IsAdmin:        admin,
		BlockedDomains: domain.Strings(blocked),
	}, nil
}

func (h *Hosts) IsPrivileged(ctx context.Context) bool {
	return h.repo.IsPrivileged(ctx)
}

// Guarded returns the set the running Watcher enforces, or nil.
func (h *Hosts) Guarded() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.guarded == nil {
		return nil
	}
	out := make([]string, len(h.guarded))
	copy(out, h.guarded)
	return out
}

// Close stops the Watcher and the writer. The hosts file is left as is.
func (h *Hosts) Close() error {
	h.mu.Lock()
	h.stopWatcherLocked()
	h.mu.Unlock()
	return h.repo.Close()
}

func (h *Hosts) stopWatcherLocked() {
	if h.watcher == nil {
		return
	}
	if err := h.watcher.Stop(); err != nil {
		h.logger.Warn(map[string]any{"error": err}, "watcher_stop_failed")
	}
	h.watcher = nil
	h.guarded = nil
}

var _ Enforcer = (*Hosts)(nil)
