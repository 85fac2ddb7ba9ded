package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, Location())
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		tag  string
		want Frequency
		ok   bool
	}{
		{"WEEKLY", FrequencyWeekly, true},
		{"weekly", FrequencyWeekly, true},
		{" bi-weekly a ", FrequencyBiweeklyA, true},
		{"BI-WEEKLY B", FrequencyBiweeklyB, true},
		{"Monthly", FrequencyMonthly, true},
		{"quarterly", FrequencyMonthly, false},
		{"", FrequencyMonthly, false},
	}
	for _, tc := range tests {
		t.Run(tc.tag, func(t *testing.T) {
			got, err := ParseFrequency(tc.tag)
			assert.Equal(t, tc.want, got)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrUnknownFrequency)
			}
		})
	}
}

func TestResolveWeekly(t *testing.T) {
	// Wednesday Dec 3 2025: the previous complete week ran Mon Nov 24
	// through Sun Nov 30.
	w := Resolve(FrequencyWeekly, date(2025, time.December, 3))
	assert.Equal(t, date(2025, time.November, 24), w.Start)
	assert.Equal(t, date(2025, time.November, 30), w.End)
	assert.Equal(t, 7, w.Days())
}

func TestResolveWeeklyOnSunday(t *testing.T) {
	// Fired on a Sunday, the window must end on the previous Sunday, not
	// today: today's week is not complete yet.
	w := Resolve(FrequencyWeekly, date(2025, time.November, 30))
	assert.Equal(t, date(2025, time.November, 17), w.Start)
	assert.Equal(t, date(2025, time.November, 23), w.End)
}

func TestResolveBiweekly(t *testing.T) {
	for _, freq := range []Frequency{FrequencyBiweeklyA, FrequencyBiweeklyB} {
		w := Resolve(freq, date(2025, time.December, 3))
		assert.Equal(t, date(2025, time.November, 17), w.Start, freq)
		assert.Equal(t, date(2025, time.November, 30), w.End, freq)
		assert.Equal(t, 14, w.Days(), freq)
	}
}

func TestResolveMonthly(t *testing.T) {
	w := Resolve(FrequencyMonthly, date(2025, time.December, 15))
	assert.Equal(t, date(2025, time.November, 1), w.Start)
	assert.Equal(t, date(2025, time.November, 30), w.End)
	assert.Equal(t, 30, w.Days())
}

func TestResolveMonthlyAcrossYearBoundary(t *testing.T) {
	w := Resolve(FrequencyMonthly, date(2026, time.January, 10))
	assert.Equal(t, date(2025, time.December, 1), w.Start)
	assert.Equal(t, date(2025, time.December, 31), w.End)
}

func TestResolveUnknownFallsBackToMonthly(t *testing.T) {
	freq, err := ParseFrequency("fortnightly-ish")
	require.Error(t, err)
	w := Resolve(freq, date(2025, time.December, 15))
	assert.Equal(t, date(2025, time.November, 1), w.Start)
	assert.Equal(t, date(2025, time.November, 30), w.End)
}

func TestNightsBetweenAcrossDST(t *testing.T) {
	// US fall-back Nov 2 2025: the day is 25 hours long. Midday anchoring
	// keeps the night count at exact calendar-day differences.
	assert.Equal(t, 2, NightsBetween(date(2025, time.November, 1), date(2025, time.November, 3)))
	// Spring-forward Mar 8 2026: 23-hour day.
	assert.Equal(t, 2, NightsBetween(date(2026, time.March, 7), date(2026, time.March, 9)))
}

func TestNightsBetweenNegative(t *testing.T) {
	assert.Equal(t, -3, NightsBetween(date(2025, time.November, 10), date(2025, time.November, 7)))
	assert.Equal(t, 0, NightsBetween(date(2025, time.November, 10), date(2025, time.November, 10)))
}

func TestWeeksBetweenStableAcrossYearBoundary(t *testing.T) {
	anchor := date(2025, time.January, 6) // a Monday
	assert.Equal(t, 0, WeeksBetween(anchor, date(2025, time.January, 12)))
	assert.Equal(t, 1, WeeksBetween(anchor, date(2025, time.January, 13)))
	assert.Equal(t, 52, WeeksBetween(anchor, date(2026, time.January, 5)))
	// Parity keeps alternating through Dec/Jan, unlike ISO week numbers.
	assert.Equal(t, 0, WeeksBetween(anchor, date(2026, time.January, 5))%2)
}

func TestWeeksBetweenBeforeAnchor(t *testing.T) {
	anchor := date(2025, time.January, 6) // a Monday

	// Days in the week leading up to the anchor sit in week -1, not week 0,
	// so parity is continuous when stepping backwards over the anchor.
	assert.Equal(t, -1, WeeksBetween(anchor, date(2025, time.January, 1)))
	assert.Equal(t, -1, WeeksBetween(anchor, date(2025, time.January, 5)))
	assert.Equal(t, -2, WeeksBetween(anchor, date(2024, time.December, 29)))
	assert.Equal(t, -2, WeeksBetween(anchor, date(2024, time.December, 23)))
	assert.Equal(t, -3, WeeksBetween(anchor, date(2024, time.December, 22)))

	// Exactly two weeks either side of the anchor lands on even parity.
	assert.Equal(t, 0, WeeksBetween(anchor, date(2024, time.December, 23))%2)
	assert.Equal(t, 0, WeeksBetween(anchor, date(2025, time.January, 20))%2)
}

func TestWindowContains(t *testing.T) {
	w := Window{Start: date(2025, time.November, 24), End: date(2025, time.November, 30)}
	assert.True(t, w.Contains(date(2025, time.November, 24)))
	assert.True(t, w.Contains(date(2025, time.November, 30)))
	assert.True(t, w.Contains(time.Date(2025, time.November, 30, 23, 15, 0, 0, Location())))
	assert.False(t, w.Contains(date(2025, time.November, 23)))
	assert.False(t, w.Contains(date(2025, time.December, 1)))
}
