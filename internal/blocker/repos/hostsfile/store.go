package hostsfile

import (
	"fmt"
	"os"

	"github.com/haukened/tamashii/internal/blocker/common/log"
	"github.com/haukened/tamashii/internal/blocker/domain"
)

const adminHint = "Are you running as admin?"

// Store is the file-backed Repository. Every mutation reads the whole file,
// rewrites the managed section in memory and truncates-and-rewrites the file
// in place, keeping its inode and permissions.
type Store struct {
	path   string
	logger log.Logger
}

// NewStore returns a Store for the hosts file at path.
func NewStore(path string, logger log.Logger) *Store {
	return &Store{path: path, logger: log.With(logger, map[string]any{"hosts_path": path})}
}

// Path returns the hosts file location.
func (s *Store) Path() string { return s.path }

func (s *Store) Apply(domains []string) error {
	if len(domain.NormalizeAll(domains)) == 0 {
		return s.Remove()
	}

	content, err := s.read(true)
	if err != nil {
		return err
	}
	if err := s.write(Apply(content, domains)); err != nil {
		return err
	}

	s.logger.Info(map[string]any{"domains": len(domains)}, "hosts_section_applied")
	return nil
}

func (s *Store) Remove() error {
	content, err := s.read(true)
	if err != nil {
		return err
	}
	if err := s.write(Strip(content)); err != nil {
		return err
	}

	s.logger.Info(nil, "hosts_section_removed")
	return nil
}

func (s *Store) ListBlocked() ([]domain.Domain, error) {
	content, err := s.read(false)
	if err != nil {
		return nil, err
	}
	out := Parse(content)
	if out == nil {
		out = []domain.Domain{}
	}
	return out, nil
}

func (s *Store) IsPrivileged() bool {
	f, err := os.OpenFile(s.path, os.O_WRONLY, 0)
	if err != nil {
		s.logger.Debug(map[string]any{"error": err}, "hosts_not_writable")
		return false
	}
	_ = f.Close()
	return true
}

func (s *Store) Drifted(domains []string) (bool, error) {
	content, err := s.read(false)
	if err != nil {
		return false, err
	}
	return Apply(content, domains) != content, nil
}

func (s *Store) read(hint bool) (string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if hint {
			return "", fmt.Errorf("%w: %w. %s", domain.ErrReadFailure, err, adminHint)
		}
		return "", fmt.Errorf("%w: %w", domain.ErrReadFailure, err)
	}
	return string(b), nil
}

func (s *Store) write(content string) error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("%w: open for writing: %w. %s", domain.ErrWriteFailure, err, adminHint)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %w", domain.ErrWriteFailure, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrWriteFailure, err)
	}
	return nil
}

var _ Repository = (*Store)(nil)
