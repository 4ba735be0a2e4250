package scheduler

import "context"

// Notifier delivers one desktop notification.
type Notifier interface {
	Show(ctx context.Context, title, body string) error
}
