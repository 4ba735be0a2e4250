// Package commands is the single entry point the control API and CLI use
// to drive the blocker.
package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/haukened/tamashii/internal/blocker/common/clock"
	"github.com/haukened/tamashii/internal/blocker/common/log"
	"github.com/haukened/tamashii/internal/blocker/domain"
	"github.com/haukened/tamashii/internal/blocker/gateways/bridge"
	"github.com/haukened/tamashii/internal/blocker/metrics"
	"github.com/haukened/tamashii/internal/blocker/repos/state"
	"github.com/haukened/tamashii/internal/blocker/services/enforcer"
)

// MaxLockHours bounds one lock extension.
const MaxLockHours = 24 * 366 * 10

var (
	// ErrInvalidArgument marks a request the caller must change to succeed.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMissingDependency is returned by New for required collaborators.
	ErrMissingDependency = errors.New("missing dependency")
)

// Options wires a Service. Enforcer and Locks are required.
type Options struct {
	Enforcer enforcer.Enforcer
	Plugin   *bridge.Plugin
	Locks    state.LockKeeper
	Clock    clock.Clock
	Logger   log.Logger
	Metrics  metrics.Recorder
}

type Service struct {
	enforcer enforcer.Enforcer
	plugin   *bridge.Plugin
	locks    state.LockKeeper
	clock    clock.Clock
	logger   log.Logger
	metrics  metrics.Recorder
}

func New(opts Options) (*Service, error) {
	if opts.Enforcer == nil {
		return nil, fmt.Errorf("%w: enforcer", ErrMissingDependency)
	}
	if opts.Locks == nil {
		return nil, fmt.Errorf("%w: lock store", ErrMissingDependency)
	}
	if opts.Plugin == nil {
		opts.Plugin = bridge.NewPlugin(nil)
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.GetLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}
	return &Service{
		enforcer: opts.Enforcer,
		plugin:   opts.Plugin,
		locks:    opts.Locks,
		clock:    opts.Clock,
		logger:   log.With(opts.Logger, map[string]any{"component": "commands"}),
		metrics:  opts.Metrics,
	}, nil
}

func (s *Service) observe(command string, start time.Time, err error) {
	s.metrics.ObserveCommand(command, s.clock.Now().Sub(start), metrics.Result(err))
	if err != nil {
		s.logger.Error(map[string]any{"command": command, "error": err}, "command_failed")
	}
}

// ApplyBlocklist replaces the active blocklist. While locked, the new set
// may only add hosts: an empty set or one that leaves out a host blocked now
// is refused with domain.ErrLocked.
func (s *Service) ApplyBlocklist(ctx context.Context, domains []string) (err error) {
	start := s.clock.Now()
	defer func() { s.observe("apply_blocklist", start, err) }()

	if err := s.checkKeeps(ctx, domains); err != nil {
		return err
	}
	return s.enforcer.Apply(ctx, domains)
}

// RemoveBlocklist is refused with domain.ErrLocked while a stored lock
// expiry lies in the future.
func (s *Service) RemoveBlocklist(ctx context.Context) (err error) {
	start := s.clock.Now()
	defer func() { s.observe("remove_blocklist", start, err) }()

	if err := s.checkUnlocked(); err != nil {
		return err
	}
	return s.enforcer.Remove(ctx)
}

// checkUnlocked returns domain.ErrLocked while the lock holds.
func (s *Service) checkUnlocked() error {
	expiry, locked, err := s.LockState()
	if err != nil {
		return err
	}
	if locked {
		return lockedError(expiry)
	}
	return nil
}

// checkKeeps refuses, while the lock holds, a set that is empty or drops a
// host the enforcer currently blocks.
func (s *Service) checkKeeps(ctx context.Context, domains []string) error {
	expiry, locked, err := s.LockState()
	if err != nil || !locked {
		return err
	}

	next := domain.NormalizeAll(domains)
	if len(next) == 0 {
		return lockedError(expiry)
	}
	covered := make(map[domain.Domain]struct{}, len(next)*2)
	for _, d := range next {
		for _, host := range domain.Expand(d) {
			covered[host] = struct{}{}
		}
	}

	st, err := s.enforcer.Status(ctx)
	if err != nil {
		return err
	}
	for _, raw := range st.BlockedDomains {
		d, ok := domain.Normalize(raw)
		if !ok {
			continue
		}
		if _, ok := covered[d]; !ok {
			return fmt.Errorf("%w: %s cannot be unblocked", lockedError(expiry), d)
		}
	}
	return nil
}

func lockedError(expiry time.Time) error {
	return fmt.Errorf("%w until %s", domain.ErrLocked, expiry.UTC().Format(time.RFC3339))
}

func (s *Service) GetBlockerStatus(ctx context.Context) (st domain.BlockerStatus, err error) {
	start := s.clock.Now()
	defer func() { s.observe("get_blocker_status", start, err) }()
	return s.enforcer.Status(ctx)
}

// CheckAdmin never fails; the error is kept for a uniform command shape.
func (s *Service) CheckAdmin(ctx context.Context) (bool, error) {
	return s.enforcer.IsPrivileged(ctx), nil
}

// LockState reports the stored expiry and whether it is still ahead.
func (s *Service) LockState() (time.Time, bool, error) {
	expiry, ok, err := s.locks.LockExpiry()
	if err != nil {
		return time.Time{}, false, err
	}
	if !ok {
		return time.Time{}, false, nil
	}
	return expiry, expiry.After(s.clock.Now()), nil
}

// ExtendLock pushes the lock expiry hours into the future, counting from
// the current expiry when it has not passed yet, and returns it as an
// RFC 3339 UTC timestamp.
func (s *Service) ExtendLock(ctx context.Context, hours uint64) (out string, err error) {
	start := s.clock.Now()
	defer func() { s.observe("extend_lock", start, err) }()

	if hours > MaxLockHours {
		return "", fmt.Errorf("%w: lock extension of %d hours exceeds %d", ErrInvalidArgument, hours, MaxLockHours)
	}

	base := start.UTC()
	current, locked, err := s.LockState()
	if err != nil {
		return "", err
	}
	if locked {
		base = current.UTC()
	}
	expiry := base.Add(time.Duration(hours) * time.Hour).Truncate(time.Second)

	if err := s.locks.SetLockExpiry(expiry); err != nil {
		return "", err
	}
	out = expiry.Format(time.RFC3339)

	if perr := s.plugin.SaveLockExpiry(ctx, out); perr != nil {
		s.logger.Warn(map[string]any{"error": perr}, "native_lock_expiry_not_saved")
	}
	s.logger.Info(map[string]any{"hours": hours, "expiry": out}, "lock_extended")
	return out, nil
}

// StreakData derives the current streak from start. A missing or
// unparsable start counts as zero days.
func (s *Service) StreakData(start *string, best, resets uint64) domain.StreakData {
	out := domain.StreakData{StartDate: start, BestStreak: best, TotalResets: resets}
	if start == nil {
		return out
	}
	days, err := domain.ElapsedDays(*start, s.clock.Now())
	if err != nil {
		s.logger.Debug(map[string]any{"start": *start, "error": err}, "streak_start_unparsable")
		return out
	}
	out.CurrentDays = days
	return out
}
