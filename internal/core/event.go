package core

import (
	"strings"
	"time"
)

const (
	// DefaultEventTitle is used when the decision carries no reason
	DefaultEventTitle = "Email Follow-Up"
	// DefaultEventDurationMinutes is the length of a follow-up event
	DefaultEventDurationMinutes = 30
)

// BuildEventSpec derives a calendar event from a decision and its resolved start time.
// The start is truncated to whole seconds, the precision of an iCalendar DATE-TIME.
func BuildEventSpec(decision *FollowUpDecision, start time.Time, durationMinutes int) CalendarEventSpec {
	if durationMinutes <= 0 {
		durationMinutes = DefaultEventDurationMinutes
	}

	title := strings.TrimSpace(decision.Reason)
	if title == "" {
		title = DefaultEventTitle
	}

	var description string
	if len(decision.ActionItems) > 0 {
		var b strings.Builder
		b.WriteString("Action items:")
		for _, item := range decision.ActionItems {
			b.WriteString("\n- ")
			b.WriteString(item)
		}
		description = b.String()
	}

	return CalendarEventSpec{
		Title:           title,
		Description:     description,
		Start:           start.Truncate(time.Second),
		DurationMinutes: durationMinutes,
	}
}
