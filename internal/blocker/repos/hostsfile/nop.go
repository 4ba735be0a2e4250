package hostsfile

import "github.com/haukened/tamashii/internal/blocker/domain"

// NoopStore is the Repository used where no hosts file is managed. Every
// mutation succeeds without effect.
type NoopStore struct{}

func (NoopStore) Apply([]string) error                  { return nil }
func (NoopStore) Remove() error                         { return nil }
func (NoopStore) ListBlocked() ([]domain.Domain, error) { return []domain.Domain{}, nil }
func (NoopStore) IsPrivileged() bool                    { return false }
func (NoopStore) Drifted([]string) (bool, error)        { return false, nil }

var _ Repository = NoopStore{}
