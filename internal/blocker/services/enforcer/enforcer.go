// Package enforcer puts a blocklist into effect on the current platform.
//
// Desktop builds edit the hosts file and keep a Watcher re-asserting it;
// mobile builds hand the list to the native VPN through the bridge.
package enforcer

import (
	"context"
	"fmt"

	"github.com/haukened/tamashii/internal/blocker/domain"
)

// Mode selects an Enforcer implementation.
type Mode string

const (
	ModeHosts  Mode = "hosts"
	ModeNative Mode = "native"
	ModeNone   Mode = "none"
)

// ParseMode accepts the mode names used in configuration.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeHosts, ModeNative, ModeNone:
		return m, nil
	default:
		return "", fmt.Errorf("unknown blocker mode %q", s)
	}
}

// Enforcer is the platform capability behind the blocklist commands.
type Enforcer interface {
	Apply(ctx context.Context, domains []string) error
	Remove(ctx context.Context) error
	Status(ctx context.Context) (domain.BlockerStatus, error)
	IsPrivileged(ctx context.Context) bool
	Close() error
}
