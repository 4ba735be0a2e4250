package hostsfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haukened/tamashii/internal/blocker/domain"
)

const baseHosts = "# system hosts\n127.0.0.1 localhost\n::1 localhost ip6-localhost\n"

func TestRender(t *testing.T) {
	got := Render([]string{"Reddit.com", " ", "www.youtube.com"})
	want := MarkerStart + "\n" +
		"127.0.0.1 reddit.com\n" +
		"127.0.0.1 www.reddit.com\n" +
		"127.0.0.1 www.youtube.com\n" +
		MarkerEnd + "\n"
	assert.Equal(t, want, got)
}

func TestRender_Empty(t *testing.T) {
	assert.Equal(t, "", Render(nil))
	assert.Equal(t, "", Render([]string{"", "   "}))
}

func TestStrip_NoSectionUnchanged(t *testing.T) {
	for _, in := range []string{"", baseHosts, "no newline at end", "a\r\nb\r\n"} {
		assert.Equal(t, in, Strip(in))
	}
}

func TestStrip_RemovesSectionKeepsSurroundings(t *testing.T) {
	before := "# head  \r\n127.0.0.1 localhost\n\n"
	after := "  10.0.0.1 nas.lan   \n# tail"
	in := before + MarkerStart + "\n127.0.0.1 x.com\n" + MarkerEnd + "\n" + after

	assert.Equal(t, before+after, Strip(in))
}

func TestStrip_MissingEndMarkerStripsToEOF(t *testing.T) {
	in := baseHosts + MarkerStart + "\n127.0.0.1 x.com\n127.0.0.1 y.com\n"
	assert.Equal(t, baseHosts, Strip(in))
}

func TestStrip_MarkerWithSurroundingWhitespaceAndCRLF(t *testing.T) {
	in := "a\r\n  " + MarkerStart + " \r\n127.0.0.1 x.com\r\n" + MarkerEnd + "\r\nb\r\n"
	assert.Equal(t, "a\r\nb\r\n", Strip(in))
}

func TestStrip_RemovesRepeatedSections(t *testing.T) {
	section := Render([]string{"x.com"})
	in := "a\n" + section + "b\n" + section + "c\n"
	assert.Equal(t, "a\nb\nc\n", Strip(in))
}

func TestStrip_StrayEndMarkerKept(t *testing.T) {
	in := "a\n" + MarkerEnd + "\nb\n"
	assert.Equal(t, in, Strip(in))
}

func TestApply_AppendsSection(t *testing.T) {
	got := Apply(baseHosts+"\n\n", []string{"example.com"})
	want := baseHosts + MarkerStart + "\n127.0.0.1 example.com\n127.0.0.1 www.example.com\n" + MarkerEnd + "\n"
	assert.Equal(t, want, got)
}

func TestApply_EmptyContent(t *testing.T) {
	assert.Equal(t, Render([]string{"a.com"}), Apply("", []string{"a.com"}))
}

func TestApply_EmptyDomainsEqualsStrip(t *testing.T) {
	withSection := Apply(baseHosts, []string{"a.com"})
	assert.Equal(t, Strip(withSection), Apply(withSection, nil))
	assert.Equal(t, Strip(withSection), Apply(withSection, []string{" "}))
	assert.Equal(t, baseHosts, Apply(baseHosts, nil))
}

func TestApply_ReapplyLeavesOneSection(t *testing.T) {
	inputs := []string{"", baseHosts, "no trailing newline", "x\r\ny\r\n", baseHosts + "\n\n\n"}
	d1 := []string{"a.com", "b.com"}
	d2 := []string{"c.com"}

	for _, c := range inputs {
		twice := Apply(Apply(c, d1), d2)
		assert.Equal(t, Apply(Strip(c), d2), twice, "content %q", c)
		assert.Equal(t, 1, strings.Count(twice, MarkerStart))
		assert.Equal(t, 1, strings.Count(twice, MarkerEnd))
		assert.NotContains(t, twice, "a.com")
	}
}

func TestApply_Idempotent(t *testing.T) {
	d := []string{"a.com", "www.b.com"}
	once := Apply(baseHosts, d)
	assert.Equal(t, once, Apply(once, d))
}

func TestApply_StripIsLeftInverse(t *testing.T) {
	inputs := []string{baseHosts, "single line", "a\n\n"}
	for _, c := range inputs {
		got := Strip(Apply(c, []string{"z.com"}))
		assert.Equal(t, strings.TrimRight(c, "\r\n")+"\n", got, "content %q", c)
	}
}

func TestApply_KeepsSurroundingsByteIdentical(t *testing.T) {
	before := "# before\t\n127.0.0.1   localhost   \n"
	after := "10.0.0.2 printer.lan\r\n# after\n"
	in := before + Render([]string{"old.com"}) + after

	got := Apply(in, []string{"new.com"})
	assert.True(t, strings.HasPrefix(got, before+after))
	assert.Equal(t, before+after, Strip(Apply(got, nil)))
}

func TestApply_UsesCRLFWhenFileDoes(t *testing.T) {
	got := Apply("127.0.0.1 localhost\r\n", []string{"a.com"})
	want := "127.0.0.1 localhost\r\n" + MarkerStart + "\r\n127.0.0.1 a.com\r\n127.0.0.1 www.a.com\r\n" + MarkerEnd + "\r\n"
	assert.Equal(t, want, got)
	assert.Equal(t, []domain.Domain{"a.com", "www.a.com"}, Parse(got))
}

func TestParse(t *testing.T) {
	content := "127.0.0.1 outside.com\n" +
		MarkerStart + "\n" +
		"127.0.0.1 a.com\n" +
		"   127.0.0.1   www.a.com  # comment\n" +
		"0.0.0.0 other.com\n" +
		"127.0.0.1\n" +
		MarkerEnd + "\n" +
		MarkerStart + "\n127.0.0.1 second.com\n" + MarkerEnd + "\n"

	assert.Equal(t, []domain.Domain{"a.com", "www.a.com"}, Parse(content))
}

func TestParse_NoSection(t *testing.T) {
	assert.Empty(t, Parse(baseHosts))
}

func TestApplyThenParse_ExpandedSet(t *testing.T) {
	got := Parse(Apply(baseHosts, []string{"A.com", "www.b.com", "c.org"}))
	assert.Equal(t, []domain.Domain{"a.com", "www.a.com", "www.b.com", "c.org", "www.c.org"}, got)
}
