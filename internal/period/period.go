// Package period resolves a statement frequency into the billing window it
// covers. All date math happens in a single fixed Eastern US timezone; a
// window's Start and End are calendar dates at midnight in that zone.
package period

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Frequency is the statement cadence selected by a listing's tag.
type Frequency string

const (
	FrequencyWeekly    Frequency = "WEEKLY"
	FrequencyBiweeklyA Frequency = "BI-WEEKLY A"
	FrequencyBiweeklyB Frequency = "BI-WEEKLY B"
	FrequencyMonthly   Frequency = "MONTHLY"
)

var ErrUnknownFrequency = errors.New("unknown_frequency")

var eastern *time.Location

func init() {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(fmt.Sprintf("load timezone: %v", err))
	}
	eastern = loc
}

// Location returns the fixed timezone all schedule and window math uses.
func Location() *time.Location { return eastern }

// ParseFrequency maps a tag string onto a Frequency. Unrecognized tags
// resolve to monthly behavior; callers that must reject bad input check
// the returned error.
func ParseFrequency(tag string) (Frequency, error) {
	switch Frequency(strings.ToUpper(strings.TrimSpace(tag))) {
	case FrequencyWeekly:
		return FrequencyWeekly, nil
	case FrequencyBiweeklyA:
		return FrequencyBiweeklyA, nil
	case FrequencyBiweeklyB:
		return FrequencyBiweeklyB, nil
	case FrequencyMonthly:
		return FrequencyMonthly, nil
	default:
		return FrequencyMonthly, fmt.Errorf("%w: %q", ErrUnknownFrequency, tag)
	}
}

func (f Frequency) IsBiweekly() bool {
	return f == FrequencyBiweeklyA || f == FrequencyBiweeklyB
}

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweeklyA, FrequencyBiweeklyB, FrequencyMonthly:
		return true
	}
	return false
}

// Window is an inclusive date range [Start, End].
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}

// Days returns the number of calendar days the window covers.
func (w Window) Days() int {
	return NightsBetween(w.Start, w.End) + 1
}

// Contains reports whether the given date falls inside the window.
func (w Window) Contains(day time.Time) bool {
	d := DateOf(day)
	return !d.Before(w.Start) && !d.After(w.End)
}

// DateOf truncates an instant to its calendar date at midnight Eastern.
func DateOf(t time.Time) time.Time {
	t = t.In(eastern)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, eastern)
}

// midday anchors a date at 12:00 so that subtracting two anchored dates is
// immune to the 23h/25h days around DST transitions.
func midday(t time.Time) time.Time {
	t = t.In(eastern)
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, eastern)
}

// NightsBetween counts whole nights from a to b (b's own day excluded).
func NightsBetween(a, b time.Time) int {
	hours := midday(b).Sub(midday(a)).Hours()
	if hours < 0 {
		return -int((-hours + 12) / 24)
	}
	return int((hours + 12) / 24)
}

// WeeksBetween counts whole weeks elapsed from anchor to day, rounding
// toward negative infinity so that parity stays continuous when day falls
// before the anchor. The parity of this count drives bi-weekly due-ness;
// unlike ISO week numbers it is stable across year boundaries.
func WeeksBetween(anchor, day time.Time) int {
	nights := NightsBetween(anchor, day)
	if nights < 0 {
		nights -= 6
	}
	return nights / 7
}

// Resolve computes the previous complete billing window for a frequency
// relative to "now".
func Resolve(freq Frequency, now time.Time) Window {
	today := DateOf(now)

	switch freq {
	case FrequencyWeekly:
		end := lastSunday(today)
		return Window{Start: end.AddDate(0, 0, -6), End: end}
	case FrequencyBiweeklyA, FrequencyBiweeklyB:
		end := lastSunday(today)
		return Window{Start: end.AddDate(0, 0, -13), End: end}
	default:
		firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, eastern)
		return Window{
			Start: firstOfMonth.AddDate(0, -1, 0),
			End:   firstOfMonth.AddDate(0, 0, -1),
		}
	}
}

// lastSunday returns the most recent Sunday strictly before the given date.
func lastSunday(today time.Time) time.Time {
	wd := int(today.Weekday())
	if wd == 0 {
		return today.AddDate(0, 0, -7)
	}
	return today.AddDate(0, 0, -wd)
}
