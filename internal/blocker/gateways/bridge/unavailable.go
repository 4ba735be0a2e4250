package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haukened/tamashii/internal/blocker/domain"
)

// Unavailable answers plugin calls on platforms without the mobile side.
// Methods that would start or stop native blocking fail with
// domain.ErrUnsupported; queries return empty results.
type Unavailable struct{}

func (Unavailable) Invoke(_ context.Context, method string, _ map[string]any) (json.RawMessage, error) {
	switch method {
	case MethodStartVpn, MethodStopVpn:
		return nil, fmt.Errorf("%w: VPN blocker is only available on Android", domain.ErrUnsupported)
	case MethodStartAppBlocker, MethodStopAppBlocker, MethodUpdateBlockedApps:
		return nil, fmt.Errorf("%w: App blocker is only available on Android", domain.ErrUnsupported)
	case MethodOpenAccessibilitySettings:
		return nil, fmt.Errorf("%w: Accessibility settings only available on Android", domain.ErrUnsupported)
	case MethodGetVpnStatus:
		return json.Marshal(domain.VpnStatus{})
	case MethodGetInstalledApps:
		return json.RawMessage(`[]`), nil
	case MethodCheckAccessibility:
		return json.RawMessage(`false`), nil
	case MethodSaveLockExpiry:
		return json.RawMessage(`null`), nil
	default:
		return nil, fmt.Errorf("%w: unknown plugin method %q", domain.ErrUnsupported, method)
	}
}

var _ Invoker = Unavailable{}
