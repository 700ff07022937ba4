// ABOUTME: Weekly RRULE construction for a resolved class occurrence
// ABOUTME: Used for previews and calendar-file export

package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

var rruleDays = [...]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// Weekly describes a class that repeats every week from its first occurrence.
type Weekly struct {
	opt  rrule.ROption
	rule *rrule.RRule
}

// NewWeekly builds a weekly rule anchored at occ.Start. A count of zero means unbounded.
func NewWeekly(occ Occurrence, count int) (*Weekly, error) {
	opt := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   occ.Start,
		Byweekday: []rrule.Weekday{rruleDays[occ.Start.Weekday()]},
		Count:     count,
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build weekly rule: %w", err)
	}
	return &Weekly{opt: opt, rule: r}, nil
}

// RRule returns the rule body, e.g. "FREQ=WEEKLY;BYDAY=MO".
func (w *Weekly) RRule() string {
	opt := w.opt
	opt.Dtstart = time.Time{}
	return opt.RRuleString()
}

// Next returns up to n start instants, beginning with the anchor.
func (w *Weekly) Next(n int) []time.Time {
	out := make([]time.Time, 0, n)
	it := w.rule.Iterator()
	for len(out) < n {
		t, ok := it()
		if !ok {
			break
		}
		out = append(out, t)
	}
	return out
}

// Upcoming returns the next n occurrences of the slot, keeping each meeting's duration.
func Upcoming(occ Occurrence, n int) ([]Occurrence, error) {
	w, err := NewWeekly(occ, n)
	if err != nil {
		return nil, err
	}
	d := occ.End.Sub(occ.Start)
	starts := w.Next(n)
	out := make([]Occurrence, len(starts))
	for i, s := range starts {
		out[i] = Occurrence{Start: s, End: s.Add(d)}
	}
	return out, nil
}
