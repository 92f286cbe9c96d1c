package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"groops-notifier/internal/models"
)

// DefaultEventTime is used when an event has a date but no time of day
const DefaultEventTime = "09:00"

// ErrNoStartTime is returned when an event carries no usable start field
var ErrNoStartTime = errors.New("event has no start date")

var offsetlessLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// EventStart computes when an event begins. A combined date-time wins;
// otherwise the date is joined with the time of day (09:00 when absent) and
// read in loc.
func EventStart(event models.Event, loc *time.Location) (time.Time, error) {
	if combined := strings.TrimSpace(event.StartDateTime); combined != "" {
		return parseDateTime(combined, loc)
	}

	date := strings.TrimSpace(event.StartDate)
	if date == "" {
		return time.Time{}, ErrNoStartTime
	}
	if len(date) > len("2006-01-02") {
		date = date[:len("2006-01-02")]
	}

	clock := strings.TrimSpace(event.Time)
	if clock == "" {
		clock = DefaultEventTime
	}

	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, date+" "+clock, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable event start %q %q", event.StartDate, event.Time)
}

// NotifyTime is the moment the reminder for an event starting at start is due
func NotifyTime(start time.Time) time.Time {
	return start.Add(-models.ReminderLead)
}

func parseDateTime(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	for _, layout := range offsetlessLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable event start %q", value)
}
