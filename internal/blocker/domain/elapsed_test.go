package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElapsedDays_DateOnly(t *testing.T) {
	now := time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)

	got, err := ElapsedDays("2024-01-01", now)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), got)

	got, err = ElapsedDays("2024-01-10", now)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got)

	got, err = ElapsedDays("2024-02-01", now)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got, "future dates clamp to zero")
}

func TestElapsedDays_DateOnlyUsesUTCDate(t *testing.T) {
	// 2024-01-10 01:00 at +05:00 is still 2024-01-09 in UTC.
	loc := time.FixedZone("plus5", 5*3600)
	now := time.Date(2024, 1, 10, 1, 0, 0, 0, loc)

	got, err := ElapsedDays("2024-01-01", now)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), got)
}

func TestElapsedDays_RFC3339(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	got, err := ElapsedDays("2024-01-01T12:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), got)

	// 8 days and 23 hours rounds down.
	got, err = ElapsedDays("2024-01-01T13:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), got)

	// offsets are honoured: 2024-01-01T14:00+02:00 is 12:00Z.
	got, err = ElapsedDays("2024-01-01T14:00:00+02:00", now)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), got)

	got, err = ElapsedDays("2030-01-01T00:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got)
}

func TestElapsedDays_ParseError(t *testing.T) {
	for _, in := range []string{"", "yesterday", "2024/01/01", "01-10-2024"} {
		_, err := ElapsedDays(in, time.Now())
		assert.ErrorIs(t, err, ErrParse, "input %q", in)
	}
}
