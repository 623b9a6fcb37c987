package ical

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	goical "github.com/emersion/go-ical"
	"github.com/mikey/llm-email-assistant/internal/core"
)

// ErrNoEvent is returned when a calendar file holds no event
var ErrNoEvent = errors.New("calendar file contains no event")

// ReadEvent decodes the first event of a calendar file back into an event spec
func ReadEvent(path string) (core.CalendarEventSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.CalendarEventSpec{}, fmt.Errorf("open calendar file: %w", err)
	}
	defer f.Close()

	return DecodeEvent(f)
}

// DecodeEvent decodes the first event from an iCalendar stream
func DecodeEvent(r io.Reader) (core.CalendarEventSpec, error) {
	cal, err := goical.NewDecoder(r).Decode()
	if err != nil {
		return core.CalendarEventSpec{}, fmt.Errorf("decode calendar: %w", err)
	}

	events := cal.Events()
	if len(events) == 0 {
		return core.CalendarEventSpec{}, ErrNoEvent
	}
	event := events[0]

	start, err := event.DateTimeStart(time.UTC)
	if err != nil {
		return core.CalendarEventSpec{}, fmt.Errorf("read event start: %w", err)
	}
	end, err := event.DateTimeEnd(time.UTC)
	if err != nil {
		return core.CalendarEventSpec{}, fmt.Errorf("read event end: %w", err)
	}

	spec := core.CalendarEventSpec{
		Start:           start,
		DurationMinutes: int(end.Sub(start) / time.Minute),
	}
	if prop := event.Props.Get(goical.PropSummary); prop != nil {
		if spec.Title, err = prop.Text(); err != nil {
			return core.CalendarEventSpec{}, fmt.Errorf("read event summary: %w", err)
		}
	}
	if prop := event.Props.Get(goical.PropDescription); prop != nil {
		if spec.Description, err = prop.Text(); err != nil {
			return core.CalendarEventSpec{}, fmt.Errorf("read event description: %w", err)
		}
	}
	if spec.DurationMinutes <= 0 {
		spec.DurationMinutes = core.DefaultEventDurationMinutes
	}

	return spec, nil
}
