package hostsfile

import (
	"strings"

	"github.com/haukened/tamashii/internal/blocker/domain"
)

const (
	// MarkerStart opens the managed section.
	MarkerStart = "# === TAMASHII START ==="
	// MarkerEnd closes the managed section.
	MarkerEnd = "# === TAMASHII END ==="
)

// splitLines splits content into lines that keep their terminators, so
// joining the result reproduces content byte for byte.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func isMarker(line, marker string) bool {
	return strings.TrimSpace(line) == marker
}

// Strip removes the managed section from content. Lines from a start marker
// through the next end marker are dropped; a start marker with no end marker
// drops everything after it. Every other line is kept verbatim.
func Strip(content string) string {
	lines := splitLines(content)
	if !hasSection(lines) {
		return content
	}

	var b strings.Builder
	b.Grow(len(content))
	inSection := false
	for _, line := range lines {
		switch {
		case !inSection && isMarker(line, MarkerStart):
			inSection = true
		case inSection && isMarker(line, MarkerEnd):
			inSection = false
		case !inSection:
			b.WriteString(line)
		}
	}
	return b.String()
}

func hasSection(lines []string) bool {
	for _, line := range lines {
		if isMarker(line, MarkerStart) {
			return true
		}
	}
	return false
}

// Render returns the managed section for domains using LF terminators, or ""
// when no domain survives normalization.
func Render(domains []string) string {
	return render(domains, "\n")
}

func render(domains []string, eol string) string {
	entries := domain.EntriesFor(domains)
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(MarkerStart)
	b.WriteString(eol)
	for _, e := range entries {
		b.WriteString(e.String())
		b.WriteString(eol)
	}
	b.WriteString(MarkerEnd)
	b.WriteString(eol)
	return b.String()
}

// Apply replaces the managed section of content with one rendered for
// domains. Trailing whitespace before the section is collapsed to a single
// line break so repeated applies do not grow the file. An empty domain list
// only strips.
func Apply(content string, domains []string) string {
	stripped := Strip(content)
	eol := lineEnding(content)

	section := render(domains, eol)
	if section == "" {
		return stripped
	}

	head := strings.TrimRight(stripped, " \t\r\n")
	if head == "" {
		return section
	}
	return head + eol + section
}

// lineEnding reports the terminator used by content: CRLF when its first
// line ends in CRLF, LF otherwise.
func lineEnding(content string) string {
	i := strings.IndexByte(content, '\n')
	if i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// Parse returns the hostnames listed in the first managed section, in file
// order. Only tokens following the loopback address are reported.
func Parse(content string) []domain.Domain {
	var out []domain.Domain
	inSection := false
	for _, line := range splitLines(content) {
		if !inSection {
			inSection = isMarker(line, MarkerStart)
			continue
		}
		if isMarker(line, MarkerEnd) {
			break
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != domain.LoopbackAddress {
			continue
		}
		for _, host := range fields[1:] {
			if strings.HasPrefix(host, "#") {
				break
			}
			out = append(out, domain.Domain(host))
		}
	}
	return out
}
