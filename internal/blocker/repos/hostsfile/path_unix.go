//go:build (linux && !android) || darwin || freebsd || netbsd || openbsd || dragonfly || solaris || illumos || aix

package hostsfile

// DefaultPath is the system hosts file on unix-like systems.
func DefaultPath() string {
	return "/etc/hosts"
}
