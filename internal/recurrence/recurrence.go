// ABOUTME: Resolves a weekly class slot (weekday + HH:MM range) into concrete instants
// ABOUTME: Picks the next occurrence at or after "now", never more than one week ahead

package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ISOLayout is the wire format for resolved instants (UTC, millisecond precision).
const ISOLayout = "2006-01-02T15:04:05.000Z"

var (
	// ErrInvalidWeekday is returned when a day name cannot be mapped to a weekday.
	ErrInvalidWeekday = errors.New("invalid weekday")
	// ErrInvalidTime is returned when a time of day is not a 24h HH:MM value.
	ErrInvalidTime = errors.New("invalid time of day")
)

// TimeOfDay is a wall-clock hour and minute.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// String renders the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Occurrence is one concrete class meeting.
type Occurrence struct {
	Start time.Time
	End   time.Time
}

// StartISO returns the start instant in the transport format.
func (o Occurrence) StartISO() string {
	return o.Start.UTC().Format(ISOLayout)
}

// EndISO returns the end instant in the transport format.
func (o Occurrence) EndISO() string {
	return o.End.UTC().Format(ISOLayout)
}

// Valid reports whether the occurrence ends after it starts.
func (o Occurrence) Valid() bool {
	return o.End.After(o.Start)
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Weekdays lists the day names in the order the class form offers them.
var Weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// ParseWeekday maps a full or three-letter English day name to a weekday (Sunday=0).
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if day, ok := weekdays[name]; ok {
		return day, nil
	}
	if len(name) == 3 {
		for full, day := range weekdays {
			if strings.HasPrefix(full, name) {
				return day, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}

// ParseTimeOfDay parses a 24h HH:MM string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// Resolve returns the next occurrence of day at start relative to now.
//
// The candidate is the given weekday inside now's Sunday-based week. If that
// instant is already in the past it moves forward exactly seven days. The end
// instant uses the same calendar date as the start; end <= start is returned
// as-is and must be rejected by the caller if it matters.
func Resolve(day time.Weekday, start, end TimeOfDay, now time.Time) Occurrence {
	loc := now.Location()
	offset := int(day) - int(now.Weekday())

	candidate := time.Date(now.Year(), now.Month(), now.Day()+offset, start.Hour, start.Minute, 0, 0, loc)
	if candidate.Before(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}

	y, m, d := candidate.Date()
	return Occurrence{
		Start: candidate,
		End:   time.Date(y, m, d, end.Hour, end.Minute, 0, 0, loc),
	}
}

// ResolveStrings parses form values and resolves them against now.
func ResolveStrings(day, start, end string, now time.Time) (Occurrence, error) {
	wd, err := ParseWeekday(day)
	if err != nil {
		return Occurrence{}, err
	}
	st, err := ParseTimeOfDay(start)
	if err != nil {
		return Occurrence{}, err
	}
	et, err := ParseTimeOfDay(end)
	if err != nil {
		return Occurrence{}, err
	}
	return Resolve(wd, st, et, now), nil
}
