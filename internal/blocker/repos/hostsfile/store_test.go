package hostsfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/tamashii/internal/blocker/common/log"
	"github.com/haukened/tamashii/internal/blocker/domain"
)

func tempHosts(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestStore_ApplyThenListBlocked(t *testing.T) {
	path := tempHosts(t, baseHosts)
	s := NewStore(path, log.NewNoopLogger())

	require.NoError(t, s.Apply([]string{"reddit.com", "www.youtube.com"}))

	got, err := s.ListBlocked()
	require.NoError(t, err)
	assert.Equal(t, []domain.Domain{"reddit.com", "www.reddit.com", "www.youtube.com"}, got)
	assert.Equal(t, path, s.Path())
}

func TestStore_ApplyEmptyEqualsRemove(t *testing.T) {
	pathA := tempHosts(t, baseHosts)
	pathB := tempHosts(t, baseHosts)
	a := NewStore(pathA, log.NewNoopLogger())
	b := NewStore(pathB, log.NewNoopLogger())

	require.NoError(t, a.Apply([]string{"x.com"}))
	require.NoError(t, b.Apply([]string{"x.com"}))

	require.NoError(t, a.Apply(nil))
	require.NoError(t, b.Remove())

	assert.Equal(t, readFile(t, pathA), readFile(t, pathB))
	blocked, err := a.ListBlocked()
	require.NoError(t, err)
	assert.Empty(t, blocked)
}

func TestStore_ReapplyReplacesSection(t *testing.T) {
	path := tempHosts(t, baseHosts)
	s := NewStore(path, log.NewNoopLogger())

	require.NoError(t, s.Apply([]string{"one.com", "two.com"}))
	require.NoError(t, s.Apply([]string{"three.com"}))

	assert.Equal(t, Apply(baseHosts, []string{"three.com"}), readFile(t, path))
}

func TestStore_RemoveWithoutSectionIsNoop(t *testing.T) {
	path := tempHosts(t, baseHosts)
	s := NewStore(path, log.NewNoopLogger())

	require.NoError(t, s.Remove())
	require.NoError(t, s.Remove())
	assert.Equal(t, baseHosts, readFile(t, path))
}

func TestStore_ReadFailure(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing"), log.NewNoopLogger())

	err := s.Apply([]string{"a.com"})
	assert.ErrorIs(t, err, domain.ErrReadFailure)
	assert.Contains(t, err.Error(), "admin")

	assert.ErrorIs(t, s.Remove(), domain.ErrReadFailure)

	_, err = s.ListBlocked()
	assert.ErrorIs(t, err, domain.ErrReadFailure)

	_, err = s.Drifted([]string{"a.com"})
	assert.ErrorIs(t, err, domain.ErrReadFailure)
}

func TestStore_WriteFailure(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses file permissions")
	}
	path := tempHosts(t, baseHosts)
	require.NoError(t, os.Chmod(path, 0o444))
	s := NewStore(path, log.NewNoopLogger())

	err := s.Apply([]string{"a.com"})
	assert.ErrorIs(t, err, domain.ErrWriteFailure)
	assert.Equal(t, baseHosts, readFile(t, path))
	assert.False(t, s.IsPrivileged())
}

func TestStore_IsPrivileged(t *testing.T) {
	path := tempHosts(t, baseHosts)
	s := NewStore(path, log.NewNoopLogger())
	assert.True(t, s.IsPrivileged())
	assert.Equal(t, baseHosts, readFile(t, path), "probe must not truncate")

	missing := NewStore(filepath.Join(t.TempDir(), "nope"), log.NewNoopLogger())
	assert.False(t, missing.IsPrivileged())
}

func TestStore_Drifted(t *testing.T) {
	path := tempHosts(t, baseHosts)
	s := NewStore(path, log.NewNoopLogger())
	d := []string{"a.com"}

	drifted, err := s.Drifted(d)
	require.NoError(t, err)
	assert.True(t, drifted)

	require.NoError(t, s.Apply(d))
	drifted, err = s.Drifted(d)
	require.NoError(t, err)
	assert.False(t, drifted)

	// a manual edit inside the section is drift
	edited := Strip(readFile(t, path))
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))
	drifted, err = s.Drifted(d)
	require.NoError(t, err)
	assert.True(t, drifted)
}

func TestNoopStore(t *testing.T) {
	var s Repository = NoopStore{}
	assert.NoError(t, s.Apply([]string{"a.com"}))
	assert.NoError(t, s.Remove())
	got, err := s.ListBlocked()
	assert.NoError(t, err)
	assert.Empty(t, got)
	assert.False(t, s.IsPrivileged())
	drifted, err := s.Drifted([]string{"a.com"})
	assert.NoError(t, err)
	assert.False(t, drifted)
}
