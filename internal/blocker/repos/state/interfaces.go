package state

import "time"

// DateLayout is the calendar-date encoding used for day keys.
const DateLayout = "2006-01-02"

// FiredLog remembers the last calendar day a daily notification was
// delivered.
type FiredLog interface {
	LastFired() (date string, ok bool, err error)
	SetLastFired(date string) error
}

// LockKeeper persists the blocklist lock expiry.
type LockKeeper interface {
	LockExpiry() (expiry time.Time, ok bool, err error)
	SetLockExpiry(expiry time.Time) error
}

// Store is the full persisted state of the daemon.
type Store interface {
	FiredLog
	LockKeeper
	Close() error
}
