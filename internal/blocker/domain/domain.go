package domain

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// Domain is a normalized hostname: lowercase, trimmed, no trailing dot.
type Domain string

// String returns the hostname.
func (d Domain) String() string { return string(d) }

const wwwPrefix = "www."

// Normalize lowercases and trims raw. Internationalized names are converted
// to their ASCII form when possible; a name IDNA rejects is kept lowercased
// rather than refused. ok is false when nothing is left.
func Normalize(raw string) (Domain, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for strings.HasSuffix(name, ".") {
		name = strings.TrimSuffix(name, ".")
	}
	if name == "" {
		return "", false
	}
	if !isASCII(name) {
		if ascii, err := idna.Lookup.ToASCII(name); err == nil && ascii != "" {
			name = strings.ToLower(ascii)
		}
	}
	return Domain(name), true
}

// NormalizeAll normalizes every entry of raw, dropping blanks and keeping
// input order. Duplicates are kept.
func NormalizeAll(raw []string) []Domain {
	out := make([]Domain, 0, len(raw))
	for _, r := range raw {
		if d, ok := Normalize(r); ok {
			out = append(out, d)
		}
	}
	return out
}

// HasWWW reports whether d already names the www. host.
func (d Domain) HasWWW() bool {
	return strings.HasPrefix(string(d), wwwPrefix)
}

// Expand returns the hostnames d covers: d itself, followed by its www.
// variant unless d already starts with www.
func Expand(d Domain) []Domain {
	if d.HasWWW() {
		return []Domain{d}
	}
	return []Domain{d, Domain(wwwPrefix + string(d))}
}

// Strings converts domains to plain strings.
func Strings(ds []Domain) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = string(d)
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
