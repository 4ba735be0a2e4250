package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haukened/tamashii/internal/blocker/domain"
	"github.com/haukened/tamashii/internal/blocker/gateways/bridge"
)

// The methods below forward to the mobile bridge. Calls that would stop or
// shrink blocking are checked against the lock first.

func (s *Service) StartVpn(ctx context.Context, domains []string) error {
	if err := s.checkKeeps(ctx, domains); err != nil {
		return err
	}
	return s.plugin.StartVpn(ctx, domains)
}

func (s *Service) StopVpn(ctx context.Context) error {
	if err := s.checkUnlocked(); err != nil {
		return err
	}
	return s.plugin.StopVpn(ctx)
}

func (s *Service) GetVpnStatus(ctx context.Context) (domain.VpnStatus, error) {
	return s.plugin.GetVpnStatus(ctx)
}

func (s *Service) StartAppBlocker(ctx context.Context, packages []string) error {
	return s.plugin.StartAppBlocker(ctx, packages)
}

func (s *Service) StopAppBlocker(ctx context.Context) error {
	if err := s.checkUnlocked(); err != nil {
		return err
	}
	return s.plugin.StopAppBlocker(ctx)
}

func (s *Service) GetInstalledApps(ctx context.Context) ([]domain.InstalledApp, error) {
	return s.plugin.GetInstalledApps(ctx)
}

// UpdateBlockedApps with no packages stops app blocking, so it is refused
// while locked.
func (s *Service) UpdateBlockedApps(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		if err := s.checkUnlocked(); err != nil {
			return err
		}
	}
	return s.plugin.UpdateBlockedApps(ctx, packages)
}

func (s *Service) CheckAccessibility(ctx context.Context) (bool, error) {
	return s.plugin.CheckAccessibility(ctx)
}

func (s *Service) OpenAccessibilitySettings(ctx context.Context) error {
	return s.plugin.OpenAccessibilitySettings(ctx)
}

func (s *Service) SaveLockExpiry(ctx context.Context, expiry string) error {
	return s.plugin.SaveLockExpiry(ctx, expiry)
}

// InvokeNative runs a bridge method by name with a JSON-shaped payload and
// returns its result as JSON. Known methods go through the typed calls
// above; anything else is passed to the bridge untouched.
func (s *Service) InvokeNative(ctx context.Context, method string, payload map[string]any) (json.RawMessage, error) {
	var (
		out any
		err error
	)
	switch method {
	case bridge.MethodStartVpn:
		var domains []string
		if domains, err = stringList(payload, "domains"); err == nil {
			err = s.StartVpn(ctx, domains)
		}
	case bridge.MethodStopVpn:
		err = s.StopVpn(ctx)
	case bridge.MethodGetVpnStatus:
		out, err = s.GetVpnStatus(ctx)
	case bridge.MethodStartAppBlocker:
		var packages []string
		if packages, err = stringList(payload, "packages"); err == nil {
			err = s.StartAppBlocker(ctx, packages)
		}
	case bridge.MethodStopAppBlocker:
		err = s.StopAppBlocker(ctx)
	case bridge.MethodGetInstalledApps:
		out, err = s.GetInstalledApps(ctx)
	case bridge.MethodUpdateBlockedApps:
		var packages []string
		if packages, err = stringList(payload, "packages"); err == nil {
			err = s.UpdateBlockedApps(ctx, packages)
		}
	case bridge.MethodCheckAccessibility:
		out, err = s.CheckAccessibility(ctx)
	case bridge.MethodOpenAccessibilitySettings:
		err = s.OpenAccessibilitySettings(ctx)
	case bridge.MethodSaveLockExpiry:
		var expiry string
		if expiry, err = stringArg(payload, "expiry"); err == nil {
			err = s.SaveLockExpiry(ctx, expiry)
		}
	default:
		return s.plugin.Invoke(ctx, method, payload)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// stringList reads key as a list of strings. A missing key is an empty list.
func stringList(payload map[string]any, key string) ([]string, error) {
	v, ok := payload[key]
	if !ok || v == nil {
		return []string{}, nil
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must contain only strings", ErrInvalidArgument, key)
			}
			out = append(out, str)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s must be a list of strings", ErrInvalidArgument, key)
}

func stringArg(payload map[string]any, key string) (string, error) {
	str, ok := payload[key].(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidArgument, key)
	}
	return str, nil
}
