package domain

import "errors"

var (
	// ErrReadFailure means the hosts file could not be read, usually for
	// lack of privilege or a missing path.
	ErrReadFailure = errors.New("failed to read hosts file")
	// ErrWriteFailure means the hosts file could not be opened for writing
	// or the write did not complete.
	ErrWriteFailure = errors.New("failed to write hosts file")
	// ErrParse means a date string matched neither accepted format.
	ErrParse = errors.New("could not parse date")
	// ErrUnsupported means the operation needs a capability this platform
	// does not provide.
	ErrUnsupported = errors.New("not supported on this platform")
	// ErrLocked means the blocklist is under an active lock.
	ErrLocked = errors.New("blocklist is locked")
)
