package state

import (
	"sync"
	"time"
)

// Memory is a Store that forgets everything at process exit.
type Memory struct {
	mu        sync.Mutex
	lastFired string
	expiry    time.Time
}

// NewMemory returns an empty in-memory Store.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) LastFired() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastFired, m.lastFired != "", nil
}

func (m *Memory) SetLastFired(date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFired = date
	return nil
}

func (m *Memory) LockExpiry() (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiry, !m.expiry.IsZero(), nil
}

func (m *Memory) SetLockExpiry(expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expiry = expiry
	return nil
}

func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
