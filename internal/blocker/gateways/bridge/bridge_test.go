package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haukened/tamashii/internal/blocker/domain"
)

type MockInvoker struct {
	mock.Mock
}

func (m *MockInvoker) Invoke(ctx context.Context, method string, payload map[string]any) (json.RawMessage, error) {
	args := m.Called(ctx, method, payload)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func TestPlugin_PayloadShapes(t *testing.T) {
	ctx := context.Background()
	m := new(MockInvoker)
	m.On("Invoke", ctx, MethodStartVpn, map[string]any{"domains": []string{"a.com"}}).Return(json.RawMessage(`null`), nil)
	m.On("Invoke", ctx, MethodStopVpn, map[string]any{}).Return(json.RawMessage(`null`), nil)
	m.On("Invoke", ctx, MethodStartAppBlocker, map[string]any{"packages": []string{}}).Return(json.RawMessage(`null`), nil)
	m.On("Invoke", ctx, MethodUpdateBlockedApps, map[string]any{"packages": []string{"com.x"}}).Return(json.RawMessage(`null`), nil)
	m.On("Invoke", ctx, MethodStopAppBlocker, map[string]any{}).Return(json.RawMessage(`null`), nil)
	m.On("Invoke", ctx, MethodOpenAccessibilitySettings, map[string]any{}).Return(json.RawMessage(`null`), nil)
	m.On("Invoke", ctx, MethodSaveLockExpiry, map[string]any{"expiry": "2025-01-01T00:00:00Z"}).Return(json.RawMessage(`null`), nil)

	p := NewPlugin(m)
	require.NoError(t, p.StartVpn(ctx, []string{"a.com"}))
	require.NoError(t, p.StopVpn(ctx))
	require.NoError(t, p.StartAppBlocker(ctx, nil))
	require.NoError(t, p.UpdateBlockedApps(ctx, []string{"com.x"}))
	require.NoError(t, p.StopAppBlocker(ctx))
	require.NoError(t, p.OpenAccessibilitySettings(ctx))
	require.NoError(t, p.SaveLockExpiry(ctx, "2025-01-01T00:00:00Z"))
	m.AssertExpectations(t)
}

func TestPlugin_TypedResults(t *testing.T) {
	ctx := context.Background()
	m := new(MockInvoker)
	m.On("Invoke", ctx, MethodGetVpnStatus, map[string]any{}).
		Return(json.RawMessage(`{"isRunning":true,"blockedCount":12,"domainsLoaded":3}`), nil)
	m.On("Invoke", ctx, MethodGetInstalledApps, map[string]any{}).
		Return(json.RawMessage(`[{"packageName":"com.x","appName":"X","iconBase64":""}]`), nil)
	m.On("Invoke", ctx, MethodCheckAccessibility, map[string]any{}).Return(json.RawMessage(`true`), nil)

	p := NewPlugin(m)

	st, err := p.GetVpnStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.VpnStatus{IsRunning: true, BlockedCount: 12, DomainsLoaded: 3}, st)

	apps, err := p.GetInstalledApps(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.InstalledApp{{PackageName: "com.x", AppName: "X"}}, apps)

	ok, err := p.CheckAccessibility(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPlugin_DecodeError(t *testing.T) {
	ctx := context.Background()
	m := new(MockInvoker)
	m.On("Invoke", ctx, MethodCheckAccessibility, map[string]any{}).Return(json.RawMessage(`"yes"`), nil)

	_, err := NewPlugin(m).CheckAccessibility(ctx)
	assert.Error(t, err)
}

func TestPlugin_InvokeErrorPropagates(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("bridge down")
	m := new(MockInvoker)
	m.On("Invoke", ctx, MethodGetVpnStatus, map[string]any{}).Return(nil, boom)

	_, err := NewPlugin(m).GetVpnStatus(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestUnavailable_Fallbacks(t *testing.T) {
	ctx := context.Background()
	p := NewPlugin(nil)

	assert.ErrorIs(t, p.StartVpn(ctx, []string{"a.com"}), domain.ErrUnsupported)
	assert.ErrorIs(t, p.StopVpn(ctx), domain.ErrUnsupported)
	assert.ErrorIs(t, p.StartAppBlocker(ctx, nil), domain.ErrUnsupported)
	assert.ErrorIs(t, p.StopAppBlocker(ctx), domain.ErrUnsupported)
	assert.ErrorIs(t, p.UpdateBlockedApps(ctx, nil), domain.ErrUnsupported)
	assert.ErrorIs(t, p.OpenAccessibilitySettings(ctx), domain.ErrUnsupported)
	assert.Contains(t, p.StartVpn(ctx, nil).Error(), "only available on Android")

	st, err := p.GetVpnStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.VpnStatus{}, st)

	apps, err := p.GetInstalledApps(ctx)
	require.NoError(t, err)
	assert.NotNil(t, apps)
	assert.Empty(t, apps)

	ok, err := p.CheckAccessibility(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, p.SaveLockExpiry(ctx, "2025-01-01T00:00:00Z"))

	_, err = p.Invoke(ctx, "selfDestruct", nil)
	assert.ErrorIs(t, err, domain.ErrUnsupported)
}

func TestIsMethod(t *testing.T) {
	for _, m := range Methods {
		assert.True(t, IsMethod(m), m)
	}
	assert.False(t, IsMethod("startvpn"))
	assert.False(t, IsMethod(""))
	assert.Len(t, Methods, 10)
}
