package domain

import "time"

// DefaultQuotes is the built-in daily rotation.
var DefaultQuotes = []string{
	"Every day is a new beginning. Take a deep breath and start again.",
	"You are stronger than you think. Keep going.",
	"Progress, not perfection. One step at a time.",
	"The best time to plant a tree was 20 years ago. The second best time is now.",
	"Your future self will thank you for the choices you make today.",
	"Discipline is choosing between what you want now and what you want most.",
	"Small daily improvements are the key to staggering long-term results.",
	"You don't have to be perfect. You just have to keep trying.",
	"The only person you need to be better than is who you were yesterday.",
	"Freedom is on the other side of discipline.",
}

// QuoteIndex returns the zero-based day of year of t modulo n.
// n must be positive.
func QuoteIndex(t time.Time, n int) int {
	return (t.YearDay() - 1) % n
}

// QuoteFor picks the quote of the day for t. It returns "" when quotes is
// empty.
func QuoteFor(t time.Time, quotes []string) string {
	if len(quotes) == 0 {
		return ""
	}
	return quotes[QuoteIndex(t, len(quotes))]
}
