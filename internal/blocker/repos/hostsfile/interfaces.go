package hostsfile

import "github.com/haukened/tamashii/internal/blocker/domain"

// Repository is read/modify/write access to a hosts-equivalent file.
// Implementations are not required to be safe for concurrent use; wrap them
// in a Serialized to share one across goroutines.
type Repository interface {
	// Apply makes the managed section list exactly domains. An empty list
	// behaves as Remove.
	Apply(domains []string) error
	// Remove strips the managed section. Removing an absent section succeeds.
	Remove() error
	// ListBlocked returns the hostnames inside the managed section.
	ListBlocked() ([]domain.Domain, error)
	// IsPrivileged reports whether the file can be opened for writing.
	IsPrivileged() bool
	// Drifted reports whether applying domains would change the file.
	Drifted(domains []string) (bool, error)
}
