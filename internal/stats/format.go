package stats

import "fmt"

// SplitMinutes decomposes m into whole hours and the remaining minutes.
func SplitMinutes(m int) (hours, minutes int) {
	if m < 0 {
		m = 0
	}
	return m / 60, m % 60
}

// FormatMinutes renders m as "1h 05m", or "45m" under an hour.
func FormatMinutes(m int) string {
	h, rem := SplitMinutes(m)
	if h == 0 {
		return fmt.Sprintf("%dm", rem)
	}
	return fmt.Sprintf("%dh %02dm", h, rem)
}
