//go:build !windows && !((linux && !android) || darwin || freebsd || netbsd || openbsd || dragonfly || solaris || illumos || aix)

package hostsfile

// DefaultPath is empty where no user-manageable hosts file exists.
func DefaultPath() string {
	return ""
}
