// Package notify delivers desktop notifications.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/haukened/tamashii/internal/blocker/common/log"
)

// DefaultCommand is the notification program used when none is configured.
const DefaultCommand = "notify-send"

// Notifier shows one notification.
type Notifier interface {
	Show(ctx context.Context, title, body string) error
}

// Exec runs an external program as `<command> <args...> <title> <body>`.
type Exec struct {
	path   string
	args   []string
	logger log.Logger
}

// New resolves command on PATH. When it cannot be found the returned
// Notifier only logs, so the scheduler keeps running on headless hosts.
// command may carry leading arguments, e.g. "notify-send -a tamashii".
func New(command string, logger log.Logger) Notifier {
	if logger == nil {
		logger = log.GetLogger()
	}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		fields = []string{DefaultCommand}
	}
	path, err := exec.LookPath(fields[0])
	if err != nil {
		logger.Warn(map[string]any{"command": fields[0], "error": err}, "notify_command_unavailable")
		return &Log{logger: logger}
	}
	return &Exec{path: path, args: fields[1:], logger: logger}
}

func (e *Exec) Show(ctx context.Context, title, body string) error {
	args := append(append([]string{}, e.args...), title, body)
	cmd := exec.CommandContext(ctx, e.path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", e.path, err, msg)
		}
		return fmt.Errorf("%s: %w", e.path, err)
	}
	return nil
}

// Log writes notifications to the logger instead of the desktop.
type Log struct {
	logger log.Logger
}

// NewLog returns a logging Notifier.
func NewLog(logger log.Logger) *Log {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Log{logger: logger}
}

func (l *Log) Show(_ context.Context, title, body string) error {
	l.logger.Info(map[string]any{"title": title, "body": body}, "notification")
	return nil
}

var (
	_ Notifier = (*Exec)(nil)
	_ Notifier = (*Log)(nil)
)
