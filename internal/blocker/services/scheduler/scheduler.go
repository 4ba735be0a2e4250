// Package scheduler delivers one motivational notification per calendar day
// at a fixed local time of day.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/haukened/tamashii/internal/blocker/common/clock"
	"github.com/haukened/tamashii/internal/blocker/common/log"
	"github.com/haukened/tamashii/internal/blocker/common/task"
	"github.com/haukened/tamashii/internal/blocker/domain"
	"github.com/haukened/tamashii/internal/blocker/metrics"
	"github.com/haukened/tamashii/internal/blocker/repos/state"
)

const (
	DefaultTitle = "FunTime - Daily Reminder"
	// DefaultCooldown keeps a wake-up that lands inside the target minute
	// from firing twice.
	DefaultCooldown = 61 * time.Second
)

// ErrNoNotifier is returned by New when Options.Notifier is nil.
var ErrNoNotifier = errors.New("scheduler requires a notifier")

// Options configures a Scheduler. Zero values select the defaults.
type Options struct {
	Notifier Notifier
	Clock    clock.Sleeper
	// Fired remembers delivered days across restarts. Nil disables the
	// same-day duplicate check.
	Fired    state.FiredLog
	Hour     int
	Minute   int
	Title    string
	Quotes   []string
	Cooldown time.Duration
	Logger   log.Logger
	Metrics  metrics.Recorder
}

type Scheduler struct {
	notifier Notifier
	clock    clock.Sleeper
	fired    state.FiredLog
	hour     int
	minute   int
	title    string
	quotes   []string
	cooldown time.Duration
	logger   log.Logger
	metrics  metrics.Recorder
}

// New builds a Scheduler. Hour and Minute are taken as given, so a caller
// wanting midnight passes 0 and 0 explicitly.
func New(opts Options) (*Scheduler, error) {
	if opts.Notifier == nil {
		return nil, ErrNoNotifier
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if len(opts.Quotes) == 0 {
		opts.Quotes = domain.DefaultQuotes
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.Logger == nil {
		opts.Logger = log.GetLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}
	quotes := make([]string, len(opts.Quotes))
	copy(quotes, opts.Quotes)
	return &Scheduler{
		notifier: opts.Notifier,
		clock:    opts.Clock,
		fired:    opts.Fired,
		hour:     opts.Hour,
		minute:   opts.Minute,
		title:    opts.Title,
		quotes:   quotes,
		cooldown: opts.Cooldown,
		logger:   log.With(opts.Logger, map[string]any{"component": "scheduler"}),
		metrics:  opts.Metrics,
	}, nil
}

// Start runs the Scheduler in a task bound to ctx.
func (s *Scheduler) Start(ctx context.Context) *task.Handle {
	return task.Go(ctx, "scheduler", s.logger, s.Run)
}

// Run sleeps until the next target time, fires, waits out the cooldown and
// repeats until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info(map[string]any{"hour": s.hour, "minute": s.minute}, "scheduler_started")
	for {
		delay := ComputeDelay(s.clock.Now(), s.hour, s.minute)
		s.logger.Info(map[string]any{"seconds": int64(delay / time.Second)}, "next_notification_scheduled")
		if err := s.clock.Sleep(ctx, delay); err != nil {
			return err
		}

		_, _ = s.Fire(ctx)

		if err := s.clock.Sleep(ctx, s.cooldown); err != nil {
			return err
		}
	}
}

// Fire shows today's quote unless today was already delivered. It reports
// whether a notification went out. Delivery failures are logged, counted
// and returned; they are never retried.
func (s *Scheduler) Fire(ctx context.Context) (bool, error) {
	now := s.clock.Now()
	today := now.Format(state.DateLayout)

	if s.fired != nil {
		last, ok, err := s.fired.LastFired()
		switch {
		case err != nil:
			s.logger.Warn(map[string]any{"error": err}, "last_fired_read_failed")
		case ok && last == today:
			s.metrics.IncNotification(metrics.ResultSkipped)
			s.logger.Info(map[string]any{"date": today}, "notification_already_delivered")
			return false, nil
		}
	}

	quote := domain.QuoteFor(now, s.quotes)
	if err := s.notifier.Show(ctx, s.title, quote); err != nil {
		s.metrics.IncNotification(metrics.ResultFailed)
		s.logger.Error(map[string]any{"error": err}, "notification_failed")
		return false, err
	}
	s.metrics.IncNotification(metrics.ResultSuccess)
	s.logger.Info(map[string]any{"quote": quote}, "notification_sent")

	if s.fired != nil {
		if err := s.fired.SetLastFired(today); err != nil {
			s.logger.Warn(map[string]any{"error": err}, "last_fired_write_failed")
		}
	}
	return true, nil
}
