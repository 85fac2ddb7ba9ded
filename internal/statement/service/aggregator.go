package service

import (
	"time"

	"github.com/shopspring/decimal"

	bookingdomain "github.com/hostfolio/payouts/internal/booking/domain"
	listingdomain "github.com/hostfolio/payouts/internal/listing/domain"
	"github.com/hostfolio/payouts/internal/period"
	"github.com/hostfolio/payouts/internal/proration"
	statementdomain "github.com/hostfolio/payouts/internal/statement/domain"
)

var hundred = decimal.NewFromInt(100)

// aggregate carries the financial outcome for one listing over one window.
// All figures are kept at full precision; rounding to 2 decimal places
// happens once, in round(), after every step has run.
type aggregate struct {
	Revenue      decimal.Decimal
	Expenses     decimal.Decimal
	Upsells      decimal.Decimal
	CleaningFees decimal.Decimal
	Commission   decimal.Decimal
	Payout       decimal.Decimal

	ReservationLines []statementdomain.ReservationLine
	ExpenseLines     []statementdomain.ExpenseLine
}

// commissionWaived reports whether the listing's waiver covers the window.
// An unset until-date means an open-ended waiver; otherwise the window end
// must fall on or before the waiver date, compared at end of day.
func commissionWaived(l listingdomain.Listing, periodEnd time.Time) bool {
	if !l.WaiveCommission {
		return false
	}
	if l.WaiveCommissionUntil == nil {
		return true
	}
	until := *l.WaiveCommissionUntil
	endOfDay := time.Date(until.Year(), until.Month(), until.Day(), 23, 59, 59, 0, period.Location())
	return !periodEnd.After(endOfDay)
}

// aggregateListing runs the statement computation for one listing:
// revenue with the Airbnb co-host zeroing, cleaning pass-through handling,
// upsell classification, commission with waiver, and the per-reservation
// gross payout branches.
func aggregateListing(
	l listingdomain.Listing,
	basis listingdomain.CalculationType,
	reservations []bookingdomain.Reservation,
	expenses []bookingdomain.Expense,
	w period.Window,
) aggregate {
	agg := aggregate{
		Revenue:      decimal.Zero,
		Expenses:     decimal.Zero,
		Upsells:      decimal.Zero,
		CleaningFees: decimal.Zero,
		Commission:   decimal.Zero,
		Payout:       decimal.Zero,
	}

	waived := commissionWaived(l, w.End)
	feeRate := l.PMFeePercent.Div(hundred)

	payoutSum := decimal.Zero

	for _, r := range reservations {
		var pr proration.Result
		if basis == listingdomain.CalculationCalendar {
			pr = proration.Prorate(r.CheckIn, r.CheckOut, w)
		} else {
			pr = proration.Whole(r.CheckIn, r.CheckOut)
		}
		if pr.NightsInPeriod == 0 && basis == listingdomain.CalculationCalendar {
			continue
		}

		clientRevenue := pr.Scale(r.Revenue())
		tax := pr.Scale(r.Tax())
		isAirbnbCohost := r.IsAirbnb() && l.CohostOnAirbnb

		// Under a co-host arrangement Airbnb pays the owner directly, so
		// the stay contributes nothing to statement revenue.
		if !isAirbnbCohost {
			agg.Revenue = agg.Revenue.Add(clientRevenue)
		}

		luxuryFee := clientRevenue.Mul(feeRate)
		if waived {
			luxuryFee = decimal.Zero
		}

		// Cleaning is billed once, in the period the guest checks out.
		cleaningAmt := decimal.Zero
		if l.CleaningPassThrough && w.Contains(r.CheckOut) {
			cleaningAmt = r.CleaningFee
			if cleaningAmt.IsZero() {
				cleaningAmt = l.CleaningFee
			}
			cleaningAmt = cleaningAmt.Abs()
		}

		var grossPayout decimal.Decimal
		switch {
		case isAirbnbCohost:
			grossPayout = luxuryFee.Neg().Sub(cleaningAmt)
		case shouldAddTax(l, r):
			grossPayout = clientRevenue.Sub(luxuryFee).Add(tax).Sub(cleaningAmt)
		default:
			grossPayout = clientRevenue.Sub(luxuryFee).Sub(cleaningAmt)
		}
		payoutSum = payoutSum.Add(grossPayout)

		if !cleaningAmt.IsZero() {
			agg.CleaningFees = agg.CleaningFees.Add(cleaningAmt)
			agg.ExpenseLines = append(agg.ExpenseLines, statementdomain.ExpenseLine{
				PropertyID:  r.PropertyID.String(),
				Date:        r.CheckOut.Format("2006-01-02"),
				Amount:      cleaningAmt.Neg().Round(2),
				Category:    "cleaning",
				Description: "Cleaning fee pass-through",
				Synthetic:   true,
			})
		}

		agg.ReservationLines = append(agg.ReservationLines, statementdomain.ReservationLine{
			ReservationID:    r.ID.String(),
			PropertyID:       r.PropertyID.String(),
			ConfirmationCode: r.ConfirmationCode,
			CheckIn:          r.CheckIn.Format("2006-01-02"),
			CheckOut:         r.CheckOut.Format("2006-01-02"),
			Source:           string(r.Source),
			Factor:           pr.Factor,
			NightsInPeriod:   pr.NightsInPeriod,
			TotalNights:      pr.TotalNights,
			Revenue:          clientRevenue.Round(2),
			RevenueFull:      r.Revenue().Round(2),
			Tax:              tax.Round(2),
			TaxFull:          r.Tax().Round(2),
			CleaningFee:      cleaningAmt.Round(2),
			Commission:       luxuryFee.Round(2),
			GrossPayout:      grossPayout.Round(2),
			CohostOnAirbnb:   isAirbnbCohost,
		})
	}

	for _, e := range expenses {
		// With pass-through enabled, platform cleaning lines are replaced
		// by the synthetic per-reservation lines above.
		if l.CleaningPassThrough && e.IsCleaning() {
			continue
		}

		line := statementdomain.ExpenseLine{
			ExpenseID:   e.ID.String(),
			Date:        e.Date.Format("2006-01-02"),
			Amount:      e.Amount.Round(2),
			Category:    e.Category,
			Type:        e.Type,
			Description: e.Description,
		}
		if e.PropertyID != nil {
			line.PropertyID = e.PropertyID.String()
		}

		if e.IsUpsell() {
			line.Upsell = true
			agg.Upsells = agg.Upsells.Add(e.Amount)
		} else {
			// Costs are stored signed negative; the expense total is
			// reported as a positive magnitude.
			agg.Expenses = agg.Expenses.Add(e.Amount.Neg())
		}
		agg.ExpenseLines = append(agg.ExpenseLines, line)
	}

	// The synthetic cleaning lines are costs too.
	agg.Expenses = agg.Expenses.Add(agg.CleaningFees)

	if !waived {
		agg.Commission = agg.Revenue.Mul(feeRate)
	}

	agg.Payout = payoutSum.Add(agg.Upsells).Sub(agg.Expenses.Sub(agg.CleaningFees))
	// Cleaning pass-through was already deducted inside each reservation's
	// gross payout, so only the non-synthetic expense total is subtracted.

	return agg
}

func shouldAddTax(l listingdomain.Listing, r bookingdomain.Reservation) bool {
	if l.DisregardTax {
		return false
	}
	return !r.IsAirbnb() || l.AirbnbPassThroughTax
}

func (a aggregate) add(other aggregate) aggregate {
	a.Revenue = a.Revenue.Add(other.Revenue)
	a.Expenses = a.Expenses.Add(other.Expenses)
	a.Upsells = a.Upsells.Add(other.Upsells)
	a.CleaningFees = a.CleaningFees.Add(other.CleaningFees)
	a.Commission = a.Commission.Add(other.Commission)
	a.Payout = a.Payout.Add(other.Payout)
	a.ReservationLines = append(a.ReservationLines, other.ReservationLines...)
	a.ExpenseLines = append(a.ExpenseLines, other.ExpenseLines...)
	return a
}

// round produces the final 2-decimal figures. This is the only place
// aggregate-level rounding happens.
func (a aggregate) round() aggregate {
	a.Revenue = a.Revenue.Round(2)
	a.Expenses = a.Expenses.Round(2)
	a.Upsells = a.Upsells.Round(2)
	a.CleaningFees = a.CleaningFees.Round(2)
	a.Commission = a.Commission.Round(2)
	a.Payout = a.Payout.Round(2)
	return a
}
