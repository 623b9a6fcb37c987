package core

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultFollowUpDays is the horizon used when a timeframe hint is empty or unrecognized
const DefaultFollowUpDays = 2

var (
	daysPattern   = regexp.MustCompile(`(?i)(\d+)\s*day`)
	byWordPattern = regexp.MustCompile(`(?i)\bby\s+([a-z]+)`)
	weekdayByName = map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}
)

// ResolveTimeframe turns a free-text timeframe hint into a concrete time relative to now.
// Rules are tried in order: "N day(s)", "by <weekday>", "next week", then a two-day fallback.
// Only the first "by <word>" is considered. It never fails.
func ResolveTimeframe(hint string, now time.Time) time.Time {
	s := strings.ToLower(strings.TrimSpace(hint))

	if m := daysPattern.FindStringSubmatch(s); m != nil {
		if days, err := strconv.Atoi(m[1]); err == nil {
			return now.AddDate(0, 0, days)
		}
	}

	if m := byWordPattern.FindStringSubmatch(s); m != nil {
		if target, ok := weekdayByName[m[1]]; ok {
			daysAhead := (int(target) - int(now.Weekday()) + 7) % 7
			if daysAhead == 0 {
				// same weekday means next week, never today
				daysAhead = 7
			}
			return now.AddDate(0, 0, daysAhead)
		}
	}

	if strings.Contains(s, "next week") {
		return now.AddDate(0, 0, 7)
	}

	return now.AddDate(0, 0, DefaultFollowUpDays)
}
