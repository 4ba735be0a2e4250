//go:build windows

package hostsfile

// DefaultPath is the system hosts file on Windows.
func DefaultPath() string {
	return `C:\Windows\System32\drivers\etc\hosts`
}
