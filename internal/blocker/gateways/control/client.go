package control

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/haukened/tamashii/internal/blocker/domain"
	"github.com/haukened/tamashii/internal/blocker/services/commands"
)

// APIError is a non-2xx reply from the control API. It unwraps to the
// domain sentinel matching its status, so errors.Is works across the wire.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("control api returned status %d", e.StatusCode)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusLocked:
		return domain.ErrLocked
	case http.StatusNotImplemented:
		return domain.ErrUnsupported
	case http.StatusBadRequest:
		return commands.ErrInvalidArgument
	default:
		return nil
	}
}

// Client talks to a running daemon.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient accepts either a URL or a bare host:port such as the
// configured listen address.
func NewClient(addr string, hc *http.Client) (*Client, error) {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid control address: %w", err)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{base: u, http: hc}, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var er ErrorResponse
		if json.Unmarshal(data, &er) == nil {
			apiErr.Message = er.Error
		}
		return apiErr
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	return json.Unmarshal(data, out)
}

func (c *Client) ApplyBlocklist(ctx context.Context, domains []string) error {
	if domains == nil {
		domains = []string{}
	}
	return c.do(ctx, http.MethodPost, "/v1/blocklist", nil, BlocklistRequest{Domains: domains}, nil)
}

func (c *Client) RemoveBlocklist(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/v1/blocklist", nil, nil, nil)
}

func (c *Client) GetBlockerStatus(ctx context.Context) (domain.BlockerStatus, error) {
	var st domain.BlockerStatus
	err := c.do(ctx, http.MethodGet, "/v1/blocker/status", nil, nil, &st)
	return st, err
}

func (c *Client) CheckAdmin(ctx context.Context) (bool, error) {
	var resp AdminResponse
	err := c.do(ctx, http.MethodGet, "/v1/blocker/admin", nil, nil, &resp)
	return resp.IsAdmin, err
}

func (c *Client) Lock(ctx context.Context) (LockResponse, error) {
	var resp LockResponse
	err := c.do(ctx, http.MethodGet, "/v1/lock", nil, nil, &resp)
	return resp, err
}

func (c *Client) ExtendLock(ctx context.Context, hours uint64) (string, error) {
	var resp LockResponse
	err := c.do(ctx, http.MethodPost, "/v1/lock/extend", nil, ExtendLockRequest{Hours: hours}, &resp)
	return resp.Expiry, err
}

func (c *Client) StreakData(ctx context.Context, start *string, best, resets uint64) (domain.StreakData, error) {
	q := url.Values{}
	if start != nil {
		q.Set("start", *start)
	}
	q.Set("best", strconv.FormatUint(best, 10))
	q.Set("resets", strconv.FormatUint(resets, 10))
	var out domain.StreakData
	err := c.do(ctx, http.MethodGet, "/v1/streak", q, nil, &out)
	return out, err
}

func (c *Client) InvokeNative(ctx context.Context, method string, payload map[string]any) (json.RawMessage, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	var raw json.RawMessage
	err := c.do(ctx, http.MethodPost, "/v1/native/"+url.PathEscape(method), nil, payload, &raw)
	return raw, err
}
