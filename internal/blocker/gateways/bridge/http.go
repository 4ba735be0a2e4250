package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds one plugin call over HTTP.
const DefaultTimeout = 10 * time.Second

// maxResponseBytes caps how much of a plugin reply is read.
const maxResponseBytes = 4 << 20

// HTTPInvoker posts the JSON payload to <base>/<method> and returns the
// response body. Non-2xx replies become errors carrying the body's "error"
// field when present.
type HTTPInvoker struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPInvoker parses base once. A nil client gets DefaultTimeout.
func NewHTTPInvoker(base string, client *http.Client) (*HTTPInvoker, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid bridge url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid bridge url scheme %q", u.Scheme)
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPInvoker{base: u, client: client}, nil
}

func (h *HTTPInvoker) Invoke(ctx context.Context, method string, payload map[string]any) (json.RawMessage, error) {
	if method == "" || strings.Contains(method, "/") {
		return nil, fmt.Errorf("invalid plugin method %q", method)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.base.JoinPath(method).String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", method, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, Code: resp.StatusCode, Message: errorMessage(data)}
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return json.RawMessage(`null`), nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s: response is not JSON", method)
	}
	return json.RawMessage(data), nil
}

// StatusError is a non-2xx plugin reply.
type StatusError struct {
	Method  string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: plugin returned status %d", e.Method, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Method, e.Message)
}

func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

var _ Invoker = (*HTTPInvoker)(nil)
