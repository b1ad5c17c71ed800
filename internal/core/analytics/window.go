package analytics

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dayKeyLayout = "2006-01-02"

// ParseWindow parses a trailing window such as "7d", "30d" or "168h" into a
// whole number of days.
func ParseWindow(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("window must not be empty")
	}

	// Handle "d" suffix (days); time.ParseDuration does not support it.
	if len(s) > 1 && s[len(s)-1] == 'd' {
		digits := s[:len(s)-1]
		if strings.TrimLeft(digits, "0123456789") != "" {
			return 0, fmt.Errorf("invalid window %q: expected a day count such as \"7d\"", s)
		}
		days, err := strconv.Atoi(digits)
		if err != nil {
			return 0, fmt.Errorf("invalid window %q: %w", s, err)
		}
		if days <= 0 {
			return 0, fmt.Errorf("window must be positive, got %q", s)
		}
		return days, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid window %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("window must be positive, got %q", s)
	}
	if d%(24*time.Hour) != 0 {
		return 0, fmt.Errorf("window %q is not a whole number of days", s)
	}
	return int(d / (24 * time.Hour)), nil
}

// WindowLabel renders a day count the way ParseWindow accepts it.
func WindowLabel(days int) string {
	return fmt.Sprintf("%dd", days)
}

// WindowStart returns the inclusive start of a trailing window ending at now.
func WindowStart(now time.Time, days int) time.Time {
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}

// FutureSkew is how far past now a trailing window reaches, so events stamped
// slightly ahead by a client clock still count toward the current window.
const FutureSkew = 24 * time.Hour

// WindowEnd returns the exclusive end of the trailing window ending at now.
func WindowEnd(now time.Time) time.Time {
	return now.Add(FutureSkew)
}

// DayKey truncates t to a calendar date in loc and formats it as ISO 8601.
// Example: DayKey(2026-02-11T23:30:00-05:00, UTC) → "2026-02-12"
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dayKeyLayout)
}
