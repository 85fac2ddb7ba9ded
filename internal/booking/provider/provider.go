// Package provider implements the booking data providers over the locally
// synced platform tables.
package provider

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	bookingdomain "github.com/hostfolio/payouts/internal/booking/domain"
	listingdomain "github.com/hostfolio/payouts/internal/listing/domain"
	"github.com/hostfolio/payouts/internal/period"
)

type ProviderParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Provider struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewProvider(p ProviderParam) *Provider {
	return &Provider{
		db:  p.DB,
		log: p.Log.Named("booking.provider"),
	}
}

func NewReservationProvider(p *Provider) bookingdomain.ReservationProvider { return p }
func NewExpenseProvider(p *Provider) bookingdomain.ExpenseProvider         { return p }

func (p *Provider) Reservations(ctx context.Context, w period.Window, propertyID snowflake.ID, basis listingdomain.CalculationType) ([]bookingdomain.Reservation, error) {
	// The window end is an inclusive date, so the exclusive SQL upper bound
	// is the following midnight.
	upper := w.End.AddDate(0, 0, 1)

	stmt := p.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Where("status <> ?", bookingdomain.StatusCanceled)

	if basis == listingdomain.CalculationCalendar {
		// Overlap-aware: any stay intersecting the window, even when both
		// check-in and check-out fall outside it.
		stmt = stmt.Where("check_in < ? AND check_out > ?", upper, w.Start)
	} else {
		stmt = stmt.Where("check_out >= ? AND check_out < ?", w.Start, upper)
	}

	var rows []bookingdomain.Reservation
	if err := stmt.Order("check_in").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (p *Provider) Expenses(ctx context.Context, w period.Window, propertyID snowflake.ID) ([]bookingdomain.Expense, error) {
	upper := w.End.AddDate(0, 0, 1)

	var rows []bookingdomain.Expense
	err := p.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Where("date >= ? AND date < ?", w.Start, upper).
		Order("date").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
