package bridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	path        string
	contentType string
	payload     map[string]any
}

func pluginServer(t *testing.T, status int, reply string, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if got != nil {
			got.path = r.URL.Path
			got.contentType = r.Header.Get("Content-Type")
			got.payload = nil
			require.NoError(t, json.Unmarshal(body, &got.payload))
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewHTTPInvoker_Validation(t *testing.T) {
	_, err := NewHTTPInvoker("ftp://example", nil)
	assert.Error(t, err)
	_, err = NewHTTPInvoker("::not a url", nil)
	assert.Error(t, err)

	h, err := NewHTTPInvoker("http://127.0.0.1:9/plugin/", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, h.client.Timeout)
}

func TestHTTPInvoker_PostsPayload(t *testing.T) {
	var got captured
	srv := pluginServer(t, http.StatusOK, `{"isRunning":true,"blockedCount":1,"domainsLoaded":2}`, &got)

	h, err := NewHTTPInvoker(srv.URL+"/plugin", srv.Client())
	require.NoError(t, err)
	p := NewPlugin(h)

	require.NoError(t, p.StartVpn(context.Background(), []string{"a.com", "b.com"}))
	assert.Equal(t, "/plugin/startVpn", got.path)
	assert.Equal(t, "application/json", got.contentType)
	assert.Equal(t, []any{"a.com", "b.com"}, got.payload["domains"])

	st, err := p.GetVpnStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, st.IsRunning)
	assert.Equal(t, uint64(2), st.DomainsLoaded)
	assert.Equal(t, "/plugin/getVpnStatus", got.path)
	assert.Empty(t, got.payload)
}

func TestHTTPInvoker_EmptyBodyIsNull(t *testing.T) {
	srv := pluginServer(t, http.StatusNoContent, "", nil)
	h, err := NewHTTPInvoker(srv.URL, srv.Client())
	require.NoError(t, err)

	raw, err := h.Invoke(context.Background(), MethodStopVpn, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `null`, string(raw))
}

func TestHTTPInvoker_ErrorStatus(t *testing.T) {
	srv := pluginServer(t, http.StatusConflict, `{"error":"VPN permission denied"}`, nil)
	h, err := NewHTTPInvoker(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = h.Invoke(context.Background(), MethodStartVpn, map[string]any{"domains": []string{}})
	require.Error(t, err)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.Code)
	assert.Equal(t, "startVpn: VPN permission denied", err.Error())
}

func TestHTTPInvoker_ErrorStatusPlainBody(t *testing.T) {
	srv := pluginServer(t, http.StatusInternalServerError, "kaboom\n", nil)
	h, err := NewHTTPInvoker(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = h.Invoke(context.Background(), MethodStopVpn, nil)
	require.Error(t, err)
	assert.Equal(t, "stopVpn: kaboom", err.Error())
}

func TestHTTPInvoker_InvalidJSONReply(t *testing.T) {
	srv := pluginServer(t, http.StatusOK, "not json", nil)
	h, err := NewHTTPInvoker(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = h.Invoke(context.Background(), MethodCheckAccessibility, nil)
	assert.Error(t, err)
}

func TestHTTPInvoker_RejectsBadMethod(t *testing.T) {
	h, err := NewHTTPInvoker("http://127.0.0.1:9", nil)
	require.NoError(t, err)

	_, err = h.Invoke(context.Background(), "../admin", nil)
	assert.Error(t, err)
	_, err = h.Invoke(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestHTTPInvoker_ContextCancelled(t *testing.T) {
	srv := pluginServer(t, http.StatusOK, "null", nil)
	h, err := NewHTTPInvoker(srv.URL, srv.Client())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.Invoke(ctx, MethodStopVpn, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
