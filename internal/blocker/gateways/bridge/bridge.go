// Package bridge reaches the mobile blocking implementation through an
// opaque method-name plus JSON-payload RPC.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haukened/tamashii/internal/blocker/domain"
)

// Method names understood by the mobile plugin.
const (
	MethodStartVpn                  = "startVpn"
	MethodStopVpn                   = "stopVpn"
	MethodGetVpnStatus              = "getVpnStatus"
	MethodStartAppBlocker           = "startAppBlocker"
	MethodStopAppBlocker            = "stopAppBlocker"
	MethodGetInstalledApps          = "getInstalledApps"
	MethodUpdateBlockedApps         = "updateBlockedApps"
	MethodCheckAccessibility        = "checkAccessibility"
	MethodOpenAccessibilitySettings = "openAccessibilitySettings"
	MethodSaveLockExpiry            = "saveLockExpiry"
)

// Methods lists every method in a stable order.
var Methods = []string{
	MethodStartVpn,
	MethodStopVpn,
	MethodGetVpnStatus,
	MethodStartAppBlocker,
	MethodStopAppBlocker,
	MethodGetInstalledApps,
	MethodUpdateBlockedApps,
	MethodCheckAccessibility,
	MethodOpenAccessibilitySettings,
	MethodSaveLockExpiry,
}

// IsMethod reports whether name is a known plugin method.
func IsMethod(name string) bool {
	for _, m := range Methods {
		if m == name {
			return true
		}
	}
	return false
}

// Invoker performs one plugin call and returns its raw JSON result.
type Invoker interface {
	Invoke(ctx context.Context, method string, payload map[string]any) (json.RawMessage, error)
}

// Plugin wraps an Invoker with typed methods.
type Plugin struct {
	inv Invoker
}

// NewPlugin returns a Plugin over inv. A nil inv selects Unavailable.
func NewPlugin(inv Invoker) *Plugin {
	if inv == nil {
		inv = Unavailable{}
	}
	return &Plugin{inv: inv}
}

// Invoke passes an untyped call straight through.
func (p *Plugin) Invoke(ctx context.Context, method string, payload map[string]any) (json.RawMessage, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	return p.inv.Invoke(ctx, method, payload)
}

func (p *Plugin) callVoid(ctx context.Context, method string, payload map[string]any) error {
	_, err := p.Invoke(ctx, method, payload)
	return err
}

func call[T any](ctx context.Context, p *Plugin, method string) (T, error) {
	var out T
	raw, err := p.Invoke(ctx, method, nil)
	if err != nil {
		return out, err
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s result: %w", method, err)
	}
	return out, nil
}

func (p *Plugin) StartVpn(ctx context.Context, domains []string) error {
	return p.callVoid(ctx, MethodStartVpn, map[string]any{"domains": nonNil(domains)})
}

func (p *Plugin) StopVpn(ctx context.Context) error {
	return p.callVoid(ctx, MethodStopVpn, nil)
}

func (p *Plugin) GetVpnStatus(ctx context.Context) (domain.VpnStatus, error) {
	return call[domain.VpnStatus](ctx, p, MethodGetVpnStatus)
}

func (p *Plugin) StartAppBlocker(ctx context.Context, packages []string) error {
	return p.callVoid(ctx, MethodStartAppBlocker, map[string]any{"packages": nonNil(packages)})
}

func (p *Plugin) StopAppBlocker(ctx context.Context) error {
	return p.callVoid(ctx, MethodStopAppBlocker, nil)
}

func (p *Plugin) GetInstalledApps(ctx context.Context) ([]domain.InstalledApp, error) {
	apps, err := call[[]domain.InstalledApp](ctx, p, MethodGetInstalledApps)
	if apps == nil && err == nil {
		apps = []domain.InstalledApp{}
	}
	return apps, err
}

func (p *Plugin) UpdateBlockedApps(ctx context.Context, packages []string) error {
	return p.callVoid(ctx, MethodUpdateBlockedApps, map[string]any{"packages": nonNil(packages)})
}

func (p *Plugin) CheckAccessibility(ctx context.Context) (bool, error) {
	return call[bool](ctx, p, MethodCheckAccessibility)
}

func (p *Plugin) OpenAccessibilitySettings(ctx context.Context) error {
	return p.callVoid(ctx, MethodOpenAccessibilitySettings, nil)
}

func (p *Plugin) SaveLockExpiry(ctx context.Context, expiry string) error {
	return p.callVoid(ctx, MethodSaveLockExpiry, map[string]any{"expiry": expiry})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
