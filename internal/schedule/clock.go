package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseSwitchover parses an "HH:MM" switchover string. Any malformed
// input (wrong field count, non-numeric, out of range) falls back to
// 12:00 rather than failing: the value only affects display.
func ParseSwitchover(s string) (hour, minute int) {
	parts := strings.Split(s, ":")
	if len(parts) < 1 || len(parts) > 2 {
		return 12, 0
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 12, 0
	}
	m := 0
	if len(parts) == 2 {
		m, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 12, 0
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 12, 0
	}
	return h, m
}

// NormalizeSwitchover returns the zero-padded "HH:MM" form of s,
// defaulting to "12:00" for anything unparseable.
func NormalizeSwitchover(s string) string {
	h, m := ParseSwitchover(s)
	return fmt.Sprintf("%02d:%02d", h, m)
}

// IsShowingTomorrow reports whether now has passed the switchover cutoff
// for the day. The boundary is inclusive: at exactly the cutoff the
// display flips to tomorrow.
func IsShowingTomorrow(now time.Time, switchover string) bool {
	h, m := ParseSwitchover(switchover)
	return now.Hour()*60+now.Minute() >= h*60+m
}

// DisplayDate returns the date whose schedule should be shown at the
// given instant, and whether that date is tomorrow.
func DisplayDate(now time.Time, switchover string) (time.Time, bool) {
	if IsShowingTomorrow(now, switchover) {
		return now.AddDate(0, 0, 1), true
	}
	return now, false
}
