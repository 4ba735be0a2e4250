package enforcer

import (
	"context"
	"sync"

	"github.com/haukened/tamashii/internal/blocker/common/log"
	"github.com/haukened/tamashii/internal/blocker/domain"
	"github.com/haukened/tamashii/internal/blocker/gateways/bridge"
	"github.com/haukened/tamashii/internal/blocker/metrics"
)

// Native enforces through the mobile VPN reached over the bridge.
type Native struct {
	plugin  *bridge.Plugin
	logger  log.Logger
	metrics metrics.Recorder

	mu      sync.Mutex
	applied []string
}

// NewNative returns a Native enforcer. A nil logger or recorder selects
// the defaults.
func NewNative(plugin *bridge.Plugin, logger log.Logger, rec metrics.Recorder) *Native {
	if plugin == nil {
		plugin = bridge.NewPlugin(nil)
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Native{
		plugin:  plugin,
		logger:  log.With(logger, map[string]any{"component": "enforcer", "mode": string(ModeNative)}),
		metrics: rec,
	}
}

// Apply starts the VPN with domains. An empty set stops it instead.
func (n *Native) Apply(ctx context.Context, domains []string) error {
	normalized := domain.Strings(domain.NormalizeAll(domains))
	if len(normalized) == 0 {
		return n.Remove(ctx)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.plugin.StartVpn(ctx, normalized); err != nil {
		return err
	}
	n.applied = normalized
	n.metrics.SetBlockedDomains(len(normalized))
	n.logger.Info(map[string]any{"domains": len(normalized)}, "vpn_blocklist_applied")
	return nil
}

func (n *Native) Remove(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.plugin.StopVpn(ctx); err != nil {
		return err
	}
	n.applied = nil
	n.metrics.SetBlockedDomains(0)
	n.logger.Info(nil, "vpn_blocklist_removed")
	return nil
}

// Status asks the VPN whether it runs and reports the last applied set.
func (n *Native) Status(ctx context.Context) (domain.BlockerStatus, error) {
	vs, err := n.plugin.GetVpnStatus(ctx)
	if err != nil {
		return domain.BlockerStatus{}, err
	}
	n.mu.Lock()
	blocked := make([]string, len(n.applied))
	copy(blocked, n.applied)
	n.mu.Unlock()
	return domain.BlockerStatus{
		IsActive:       vs.IsRunning,
		IsAdmin:        false,
		BlockedDomains: blocked,
	}, nil
}

// IsPrivileged is always false; the VPN needs no administrator rights.
func (n *Native) IsPrivileged(context.Context) bool { return false }

func (n *Native) Close() error { return nil }

var _ Enforcer = (*Native)(nil)
