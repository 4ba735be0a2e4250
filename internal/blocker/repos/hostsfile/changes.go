package hostsfile

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/haukened/tamashii/internal/blocker/common/log"
)

// DefaultDebounce collapses bursts of editor writes into one signal.
const DefaultDebounce = 500 * time.Millisecond

// ChangeNotifier signals when the hosts file is written, created, renamed or
// removed by anyone, this process included. Signals are coalesced: a reader
// that falls behind sees one pending signal, not a backlog.
type ChangeNotifier struct {
	path     string
	watcher  *fsnotify.Watcher
	changes  chan struct{}
	debounce time.Duration
	logger   log.Logger
}

// NewChangeNotifier watches the directory holding path. Watching the
// directory rather than the file keeps working across editors that replace
// the file by rename.
func NewChangeNotifier(path string, debounce time.Duration, logger log.Logger) (*ChangeNotifier, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve hosts path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &ChangeNotifier{
		path:     abs,
		watcher:  w,
		changes:  make(chan struct{}, 1),
		debounce: debounce,
		logger:   log.With(logger, map[string]any{"hosts_path": abs}),
	}, nil
}

// Changes delivers one value per debounced burst of file events.
func (n *ChangeNotifier) Changes() <-chan struct{} { return n.changes }

// Run forwards file events until ctx is done, then closes the fsnotify
// watcher.
func (n *ChangeNotifier) Run(ctx context.Context) error {
	defer func() {
		if err := n.watcher.Close(); err != nil {
			n.logger.Warn(map[string]any{"error": err}, "hosts_watch_close_failed")
		}
	}()

	name := filepath.Base(n.path)
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-n.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			n.logger.Debug(map[string]any{"op": event.Op.String()}, "hosts_file_event")
			if timer == nil {
				timer = time.NewTimer(n.debounce)
			} else {
				timer.Reset(n.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			select {
			case n.changes <- struct{}{}:
			default:
			}

		case err, ok := <-n.watcher.Errors:
			if !ok {
				return nil
			}
			n.logger.Error(map[string]any{"error": err}, "hosts_watch_error")
		}
	}
}
