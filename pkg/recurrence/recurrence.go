// Package recurrence computes trigger times for one-shot and weekly recurring reminders.
package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/matt-steen/care-tracker/pkg/model"
)

const (
	daysPerWeek = 7
	// Week is the repeat interval of a recurring trigger.
	Week = daysPerWeek * 24 * time.Hour
)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// TimeOfDayOf returns the hour and minute of t in t's location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// ParseTimeOfDay parses "HH:MM" in 24 hour format.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	invalid := &model.ValidationError{Field: "time", Message: fmt.Sprintf("'%s' is not a valid HH:MM time", s)}

	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return TimeOfDay{}, invalid
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, invalid
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, invalid
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// NextTriggerTime returns the next occurrence of day at tod, relative to now and in now's
// location. An occurrence today that is not after now rolls forward to next week, so the
// result falls on the requested weekday within the next 7 calendar days. The wall-clock time
// is kept across a DST change, so the elapsed duration can exceed 7*24h by the shift.
func NextTriggerTime(now time.Time, day time.Weekday, tod TimeOfDay) time.Time {
	offset := (daysPerWeek + int(day) - int(now.Weekday())) % daysPerWeek

	next := time.Date(now.Year(), now.Month(), now.Day()+offset, tod.Hour, tod.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, daysPerWeek)
	}

	return next
}

// FirstOccurrence returns the earliest next trigger among the selected days. ok is false when
// no day is selected.
func FirstOccurrence(now time.Time, days [7]bool, tod TimeOfDay) (first time.Time, ok bool) {
	for i, on := range days {
		if !on {
			continue
		}

		next := NextTriggerTime(now, time.Weekday(i), tod)
		if !ok || next.Before(first) {
			first = next
			ok = true
		}
	}

	return first, ok
}

// Combine returns the absolute time at tod on date's calendar day in loc.
func Combine(date time.Time, tod TimeOfDay, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), tod.Hour, tod.Minute, 0, 0, loc)
}
