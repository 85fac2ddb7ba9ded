// Package proration splits a reservation's financials across billing
// periods under the calendar calculation basis. Under the checkout basis a
// stay belongs wholly to the period containing its checkout date and this
// package is never consulted.
package proration

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hostfolio/payouts/internal/period"
)

// Result describes how much of a stay falls inside a billing window.
type Result struct {
	Factor         float64
	NightsInPeriod int
	TotalNights    int
}

// Prorate computes the share of the stay [checkIn, checkOut) that overlaps
// the window. The window end is inclusive of its last night, so the overlap
// upper bound is End shifted forward by one day. Night counts anchor at
// midday so DST transitions cannot shift them.
func Prorate(checkIn, checkOut time.Time, w period.Window) Result {
	totalNights := period.NightsBetween(checkIn, checkOut)

	overlapStart := period.DateOf(checkIn)
	if w.Start.After(overlapStart) {
		overlapStart = w.Start
	}
	overlapEnd := period.DateOf(checkOut)
	if upper := w.End.AddDate(0, 0, 1); upper.Before(overlapEnd) {
		overlapEnd = upper
	}

	nightsInPeriod := period.NightsBetween(overlapStart, overlapEnd)
	if nightsInPeriod < 0 {
		nightsInPeriod = 0
	}
	if nightsInPeriod > totalNights {
		nightsInPeriod = totalNights
	}

	denom := totalNights
	if denom < 1 {
		denom = 1
	}

	return Result{
		Factor:         float64(nightsInPeriod) / float64(denom),
		NightsInPeriod: nightsInPeriod,
		TotalNights:    totalNights,
	}
}

// Full reports whether the stay lies entirely inside the window.
func (r Result) Full() bool {
	return r.NightsInPeriod == r.TotalNights && r.TotalNights > 0
}

// Scale applies the proration factor to a monetary amount. Rounding is the
// caller's responsibility; intermediate values keep full precision.
func (r Result) Scale(amount decimal.Decimal) decimal.Decimal {
	if r.Factor >= 1 {
		return amount
	}
	if r.Factor <= 0 {
		return decimal.Zero
	}
	return amount.Mul(decimal.NewFromFloat(r.Factor))
}

// Whole is the result used for checkout-basis reservations: the full stay
// attributed to the period, no scaling.
func Whole(checkIn, checkOut time.Time) Result {
	total := period.NightsBetween(checkIn, checkOut)
	return Result{Factor: 1, NightsInPeriod: total, TotalNights: total}
}
