package events

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// ErrInvalidArgument is returned when a caller passes a value outside the accepted set
var ErrInvalidArgument = errors.New("invalid argument")

// Repeat is the recurrence cadence of an event. The zero value means the
// event does not repeat.
type Repeat string

const (
	RepeatNone    Repeat = ""
	RepeatDaily   Repeat = "daily"
	RepeatWeekly  Repeat = "weekly"
	RepeatMonthly Repeat = "monthly"
)

// RepeatChoices lists the selectable cadences in display order
var RepeatChoices = []string{"never", string(RepeatDaily), string(RepeatWeekly), string(RepeatMonthly)}

// ParseRepeat converts user input into a Repeat. "never", "none" and the
// empty string all mean no recurrence.
func ParseRepeat(s string) (Repeat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "never", "none":
		return RepeatNone, nil
	case "daily":
		return RepeatDaily, nil
	case "weekly":
		return RepeatWeekly, nil
	case "monthly":
		return RepeatMonthly, nil
	}
	return RepeatNone, fmt.Errorf("%w: repeat must be one of 'never', 'daily', 'weekly', 'monthly', got %q", ErrInvalidArgument, s)
}

// Valid reports whether r is one of the recognised cadences, including none
func (r Repeat) Valid() bool {
	switch r {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly:
		return true
	}
	return false
}

// Label returns the capitalised name shown to users
func (r Repeat) Label() string {
	if r == RepeatNone {
		return "Never"
	}
	s := string(r)
	return strings.ToUpper(s[:1]) + s[1:]
}

func (r Repeat) frequency() (rrule.Frequency, bool) {
	switch r {
	case RepeatDaily:
		return rrule.DAILY, true
	case RepeatWeekly:
		return rrule.WEEKLY, true
	case RepeatMonthly:
		return rrule.MONTHLY, true
	}
	return 0, false
}

// NextOccurrence returns the start of the occurrence after start.
//
// Months follow RFC 5545: a monthly event on a day the following month does
// not have (e.g. the 31st) moves to the next month that has that day.
func NextOccurrence(r Repeat, start time.Time) (time.Time, error) {
	freq, ok := r.frequency()
	if !ok {
		return time.Time{}, fmt.Errorf("%w: no next occurrence for repeat %q", ErrInvalidArgument, string(r))
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    freq,
		Dtstart: start,
		Count:   2,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to build recurrence rule: %w", err)
	}

	occurrences := rule.All()
	if len(occurrences) < 2 {
		return time.Time{}, fmt.Errorf("recurrence rule produced no next occurrence for %s", start.Format(time.RFC3339))
	}
	return occurrences[1], nil
}
