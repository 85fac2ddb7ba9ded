package proration

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/hostfolio/payouts/internal/period"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, period.Location())
}

func novemberWeek() period.Window {
	return period.Window{
		Start: date(2025, time.November, 24),
		End:   date(2025, time.November, 30),
	}
}

func TestProrateFullyInside(t *testing.T) {
	r := Prorate(date(2025, time.November, 24), date(2025, time.November, 28), novemberWeek())
	assert.Equal(t, 4, r.TotalNights)
	assert.Equal(t, 4, r.NightsInPeriod)
	assert.Equal(t, 1.0, r.Factor)
	assert.True(t, r.Full())
}

func TestProrateStraddlesWindowEnd(t *testing.T) {
	// 5-night stay, 3 of which fall inside the window. The window's last
	// night (Nov 30 into Dec 1) counts toward it.
	r := Prorate(date(2025, time.November, 28), date(2025, time.December, 3), novemberWeek())
	assert.Equal(t, 5, r.TotalNights)
	assert.Equal(t, 3, r.NightsInPeriod)
	assert.InDelta(t, 0.6, r.Factor, 1e-9)
	assert.False(t, r.Full())
}

func TestProrateStraddlesWindowStart(t *testing.T) {
	r := Prorate(date(2025, time.November, 20), date(2025, time.November, 26), novemberWeek())
	assert.Equal(t, 6, r.TotalNights)
	assert.Equal(t, 2, r.NightsInPeriod)
	assert.InDelta(t, 1.0/3.0, r.Factor, 1e-9)
}

func TestProrateSpansWholeWindow(t *testing.T) {
	r := Prorate(date(2025, time.November, 20), date(2025, time.December, 5), novemberWeek())
	assert.Equal(t, 15, r.TotalNights)
	assert.Equal(t, 7, r.NightsInPeriod)
}

func TestProrateNoOverlap(t *testing.T) {
	r := Prorate(date(2025, time.November, 10), date(2025, time.November, 14), novemberWeek())
	assert.Equal(t, 0, r.NightsInPeriod)
	assert.Equal(t, 0.0, r.Factor)

	r = Prorate(date(2025, time.December, 5), date(2025, time.December, 9), novemberWeek())
	assert.Equal(t, 0, r.NightsInPeriod)
	assert.Equal(t, 0.0, r.Factor)
}

func TestProrateAcrossDSTFallBack(t *testing.T) {
	// The Nov 2 2025 fall-back gives one 25-hour night; it must still
	// count as exactly one night.
	w := period.Window{Start: date(2025, time.November, 1), End: date(2025, time.November, 30)}
	r := Prorate(date(2025, time.October, 31), date(2025, time.November, 4), w)
	assert.Equal(t, 4, r.TotalNights)
	assert.Equal(t, 3, r.NightsInPeriod)
	assert.InDelta(t, 0.75, r.Factor, 1e-9)
}

func TestScale(t *testing.T) {
	hundred := decimal.NewFromInt(100)

	r := Result{Factor: 0.6, NightsInPeriod: 3, TotalNights: 5}
	assert.True(t, decimal.NewFromInt(60).Equal(r.Scale(hundred).Round(2)))

	full := Result{Factor: 1, NightsInPeriod: 5, TotalNights: 5}
	assert.True(t, hundred.Equal(full.Scale(hundred)))

	none := Result{Factor: 0}
	assert.True(t, none.Scale(hundred).IsZero())
}

func TestWhole(t *testing.T) {
	r := Whole(date(2025, time.November, 28), date(2025, time.December, 3))
	assert.Equal(t, 1.0, r.Factor)
	assert.Equal(t, 5, r.TotalNights)
	assert.Equal(t, 5, r.NightsInPeriod)
	assert.True(t, r.Full())
}
