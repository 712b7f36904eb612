package clickup

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const workDay = 8 * time.Hour

var durationPattern = regexp.MustCompile(`(?i)(\d+)-?(\d+)?\s*(gün|saat|hafta)`)

// ParseDuration turns estimates like "1-2 gün", "3 saat" or "1 hafta" into a
// duration. A range is averaged. A day is 8 working hours and a week is 5 days.
// Anything it cannot read yields 0.
func ParseDuration(s string) time.Duration {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}

	lo, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	avg := float64(lo)
	if m[2] != "" {
		hi, err := strconv.Atoi(m[2])
		if err != nil {
			return 0
		}
		avg = float64(lo+hi) / 2
	}

	var unit time.Duration
	switch strings.ToLower(m[3]) {
	case "saat":
		unit = time.Hour
	case "gün":
		unit = workDay
	case "hafta":
		unit = 5 * workDay
	default:
		return 0
	}

	return time.Duration(avg * float64(unit))
}
