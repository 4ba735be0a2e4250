package hostsfile

import (
	"context"
	"errors"
	"sync"

	"github.com/haukened/tamashii/internal/blocker/domain"
)

// ErrClosed is returned by a Serialized after Close.
var ErrClosed = errors.New("hosts writer closed")

type request struct {
	run   func(Repository)
	reply chan struct{}
}

// Serialized funnels every call to a Repository through one goroutine, so
// the command layer and the Watcher never interleave a read-modify-write on
// the same file.
type Serialized struct {
	repo     Repository
	requests chan request
	quit     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewSerialized starts the writer goroutine for repo.
func NewSerialized(repo Repository) *Serialized {
	s := &Serialized{
		repo:     repo,
		requests: make(chan request),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Serialized) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case req := <-s.requests:
			req.run(s.repo)
			close(req.reply)
		}
	}
}

// do hands fn to the writer and waits for it to finish. A request that was
// accepted always runs to completion, even if ctx ends while it waits.
func (s *Serialized) do(ctx context.Context, fn func(Repository)) error {
	req := request{run: fn, reply: make(chan struct{})}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.quit:
		return ErrClosed
	case s.requests <- req:
	}
	<-req.reply
	return nil
}

func (s *Serialized) Apply(ctx context.Context, domains []string) error {
	var err error
	if qerr := s.do(ctx, func(r Repository) { err = r.Apply(domains) }); qerr != nil {
		return qerr
	}
	return err
}

func (s *Serialized) Remove(ctx context.Context) error {
	var err error
	if qerr := s.do(ctx, func(r Repository) { err = r.Remove() }); qerr != nil {
		return qerr
	}
	return err
}

func (s *Serialized) ListBlocked(ctx context.Context) ([]domain.Domain, error) {
	var (
		out []domain.Domain
		err error
	)
	if qerr := s.do(ctx, func(r Repository) { out, err = r.ListBlocked() }); qerr != nil {
		return nil, qerr
	}
	return out, err
}

// IsPrivileged reports false when the writer is closed or ctx ends first.
func (s *Serialized) IsPrivileged(ctx context.Context) bool {
	var ok bool
	if qerr := s.do(ctx, func(r Repository) { ok = r.IsPrivileged() }); qerr != nil {
		return false
	}
	return ok
}

func (s *Serialized) Drifted(ctx context.Context, domains []string) (bool, error) {
	var (
		drifted bool
		err     error
	)
	if qerr := s.do(ctx, func(r Repository) { drifted, err = r.Drifted(domains) }); qerr != nil {
		return false, qerr
	}
	return drifted, err
}

// Close stops the writer goroutine after any in-flight request completes.
func (s *Serialized) Close() error {
	s.once.Do(func() { close(s.quit) })
	<-s.done
	return nil
}
