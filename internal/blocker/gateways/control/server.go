// Package control serves the local HTTP/JSON API that front ends and the
// CLI use to drive the daemon.
package control

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/haukened/tamashii/internal/blocker/common/log"
	"github.com/haukened/tamashii/internal/blocker/domain"
	"github.com/haukened/tamashii/internal/blocker/gateways/bridge"
	"github.com/haukened/tamashii/internal/blocker/metrics"
	"github.com/haukened/tamashii/internal/blocker/services/commands"
)

// DefaultListen is the loopback address the API binds to by default.
const DefaultListen = "127.0.0.1:7878"

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 1 << 20

// Commands is the command surface the API exposes. *commands.Service
// satisfies it.
type Commands interface {
	ApplyBlocklist(ctx context.Context, domains []string) error
	RemoveBlocklist(ctx context.Context) error
	GetBlockerStatus(ctx context.Context) (domain.BlockerStatus, error)
	CheckAdmin(ctx context.Context) (bool, error)
	ExtendLock(ctx context.Context, hours uint64) (string, error)
	LockState() (time.Time, bool, error)
	StreakData(start *string, best, resets uint64) domain.StreakData
	InvokeNative(ctx context.Context, method string, payload map[string]any) (json.RawMessage, error)
}

var _ Commands = (*commands.Service)(nil)

// Options configures a Server.
type Options struct {
	Commands Commands
	// Registry, when set, is served on /metrics.
	Registry *prom.Registry
	Logger   log.Logger
}

type Server struct {
	commands Commands
	registry *prom.Registry
	logger   log.Logger
	handler  http.Handler
}

func NewServer(opts Options) (*Server, error) {
	if opts.Commands == nil {
		return nil, errors.New("control server requires commands")
	}
	if opts.Logger == nil {
		opts.Logger = log.GetLogger()
	}
	s := &Server{
		commands: opts.Commands,
		registry: opts.Registry,
		logger:   log.With(opts.Logger, map[string]any{"component": "control"}),
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the full middleware-wrapped API handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /v1/blocklist", s.handleApply)
	mux.HandleFunc("DELETE /v1/blocklist", s.handleRemove)
	mux.HandleFunc("GET /v1/blocker/status", s.handleStatus)
	mux.HandleFunc("GET /v1/blocker/admin", s.handleAdmin)
	mux.HandleFunc("GET /v1/lock", s.handleLock)
	mux.HandleFunc("POST /v1/lock/extend", s.handleExtendLock)
	mux.HandleFunc("GET /v1/streak", s.handleStreak)
	mux.HandleFunc("POST /v1/native/{method}", s.handleNative)
	if s.registry != nil {
		mux.Handle("GET /metrics", metrics.HTTPHandler(s.registry))
	}
	return s.requestID(s.logging(s.recovery(mux)))
}

// Serve answers requests on ln until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info(map[string]any{"addr": ln.Addr().String()}, "control_listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("control shutdown: %w", err)
		}
		<-errCh
		return nil
	}
}

// ListenAndServe binds addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("control listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req BlocklistRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.commands.ApplyBlocklist(r.Context(), req.Domains); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	if err := s.commands.RemoveBlocklist(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.commands.GetBlockerStatus(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if st.BlockedDomains == nil {
		st.BlockedDomains = []string{}
	}
	s.writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	ok, err := s.commands.CheckAdmin(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, AdminResponse{IsAdmin: ok})
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	expiry, locked, err := s.commands.LockState()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := LockResponse{Locked: locked}
	if !expiry.IsZero() {
		resp.Expiry = expiry.UTC().Format(time.RFC3339)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExtendLock(w http.ResponseWriter, r *http.Request) {
	var req ExtendLockRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	expiry, err := s.commands.ExtendLock(r.Context(), req.Hours)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, LockResponse{Expiry: expiry, Locked: true})
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	best, err := parseCount(q.Get("best"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: best: %w", errBadRequest, err))
		return
	}
	resets, err := parseCount(q.Get("resets"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: resets: %w", errBadRequest, err))
		return
	}
	var start *string
	if q.Has("start") {
		v := q.Get("start")
		start = &v
	}
	s.writeJSON(w, http.StatusOK, s.commands.StreakData(start, best, resets))
}

func (s *Server) handleNative(w http.ResponseWriter, r *http.Request) {
	method := r.PathValue("method")
	if !bridge.IsMethod(method) {
		s.writeJSONStatus(w, r, http.StatusNotFound, fmt.Sprintf("unknown plugin method %q", method))
		return
	}
	payload := map[string]any{}
	if err := decodeJSON(r, &payload); err != nil {
		s.writeError(w, r, err)
		return
	}
	raw, err := s.commands.InvokeNative(r.Context(), method, payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(raw) == 0 {
		raw = json.RawMessage(`null`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

var errBadRequest = errors.New("bad request")

// decodeJSON reads one JSON value from the body. An empty body leaves v
// untouched.
func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if len(body) > maxBodyBytes {
		return fmt.Errorf("%w: body too large", errBadRequest)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func parseCount(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

// statusFor maps an error to the HTTP status the API reports for it.
func statusFor(err error) int {
	var se *bridge.StatusError
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, commands.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrLocked):
		return http.StatusLocked
	case errors.Is(err, domain.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &se):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= 500 {
		s.logger.Error(map[string]any{"request_id": requestIDFrom(r.Context()), "error": err}, "request_failed")
	}
	s.writeJSONStatus(w, r, code, err.Error())
}

func (s *Server) writeJSONStatus(w http.ResponseWriter, _ *http.Request, code int, msg string) {
	s.writeJSON(w, code, ErrorResponse{Error: msg})
}

// writeJSON encodes into a buffer first so a failed encode never sends a
// partial body.
func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.logger.Error(map[string]any{"error": err}, "response_encode_failed")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
