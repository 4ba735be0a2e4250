package domain

import (
	"fmt"
	"strings"
	"time"
)

const dateOnlyLayout = "2006-01-02"

const day = 24 * time.Hour

// ElapsedDays returns the whole days between start and now. start is either
// an RFC 3339 timestamp, compared instant to instant, or a YYYY-MM-DD date,
// compared against the UTC calendar date of now. A start in the future
// yields 0.
func ElapsedDays(start string, now time.Time) (uint64, error) {
	start = strings.TrimSpace(start)

	if ts, err := time.Parse(time.RFC3339, start); err == nil {
		return clampDays(now.Sub(ts)), nil
	}

	if date, err := time.Parse(dateOnlyLayout, start); err == nil {
		u := now.UTC()
		today := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
		return clampDays(today.Sub(date)), nil
	}

	return 0, fmt.Errorf("%w: %q", ErrParse, start)
}

func clampDays(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d / day)
}
