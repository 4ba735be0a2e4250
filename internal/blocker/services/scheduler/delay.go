package scheduler

import "time"

const (
	DefaultHour   = 9
	DefaultMinute = 30
)

// ComputeDelay returns how long to wait from now until the next hour:minute
// in now's location: today when that moment is still ahead, tomorrow
// otherwise. Out-of-range values fall back to 09:30. The result is never
// negative.
func ComputeDelay(now time.Time, hour, minute int) time.Duration {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		hour, minute = DefaultHour, DefaultMinute
	}
	y, m, d := now.Date()
	target := time.Date(y, m, d, hour, minute, 0, 0, now.Location())
	if !now.Before(target) {
		target = time.Date(y, m, d+1, hour, minute, 0, 0, now.Location())
	}
	delay := target.Sub(now)
	if delay < 0 {
		return 0
	}
	return delay
}
