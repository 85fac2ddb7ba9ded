// Package domain contains the read models fed by the booking platforms.
// Reservations and expenses are synced from external providers and are
// read-only from the statement engine's perspective.
package domain

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	listingdomain "github.com/hostfolio/payouts/internal/listing/domain"
	"github.com/hostfolio/payouts/internal/period"
)

type ReservationSource string

const (
	SourceAirbnb ReservationSource = "airbnb"
	SourceVrbo   ReservationSource = "vrbo"
	SourceDirect ReservationSource = "direct"
)

const StatusCanceled = "canceled"

// Reservation is one stay as reported by a booking platform. ClientRevenue
// and TaxResponsibility are the detailed finance fields; when the platform
// only reports a gross figure they are left null and GrossAmount rules.
type Reservation struct {
	ID                snowflake.ID        `gorm:"primaryKey" json:"id"`
	PropertyID        snowflake.ID        `gorm:"not null;index" json:"property_id"`
	ConfirmationCode  string              `gorm:"type:text" json:"confirmation_code"`
	CheckIn           time.Time           `gorm:"not null;index" json:"check_in"`
	CheckOut          time.Time           `gorm:"not null;index" json:"check_out"`
	Status            string              `gorm:"type:text;not null" json:"status"`
	Source            ReservationSource   `gorm:"type:text;not null" json:"source"`
	GrossAmount       decimal.Decimal     `gorm:"type:numeric(12,2);not null;default:0" json:"gross_amount"`
	ClientRevenue     decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"client_revenue"`
	TaxResponsibility decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"tax_responsibility"`
	CleaningFee       decimal.Decimal     `gorm:"type:numeric(12,2);not null;default:0" json:"cleaning_fee"`
	CreatedAt         time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Reservation) TableName() string { return "reservations" }

// Revenue returns detailed client revenue when present, else the gross amount.
func (r Reservation) Revenue() decimal.Decimal {
	if r.ClientRevenue.Valid {
		return r.ClientRevenue.Decimal
	}
	return r.GrossAmount
}

// Tax returns the detailed tax responsibility, or zero when not reported.
func (r Reservation) Tax() decimal.Decimal {
	if r.TaxResponsibility.Valid {
		return r.TaxResponsibility.Decimal
	}
	return decimal.Zero
}

func (r Reservation) IsAirbnb() bool {
	return strings.EqualFold(string(r.Source), string(SourceAirbnb))
}

func (r Reservation) Canceled() bool {
	return strings.EqualFold(r.Status, StatusCanceled)
}

// Expense is a cost or upsell attributed to a property. Amount is signed:
// negative values are costs, positive values increase the owner payout.
type Expense struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	PropertyID  *snowflake.ID   `gorm:"index" json:"property_id,omitempty"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Category    string          `gorm:"type:text" json:"category"`
	Type        string          `gorm:"type:text" json:"type"`
	Description string          `gorm:"type:text" json:"description"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Expense) TableName() string { return "expenses" }

// IsUpsell reports whether the line increases the owner payout rather than
// reducing it: positive amounts at any label, or lines explicitly tagged
// "upsell" in type or category.
func (e Expense) IsUpsell() bool {
	if e.Amount.IsPositive() {
		return true
	}
	return strings.EqualFold(e.Type, "upsell") || strings.EqualFold(e.Category, "upsell")
}

// IsCleaning reports whether the line records a cleaning cost, matched
// case-insensitively across category, type and description.
func (e Expense) IsCleaning() bool {
	for _, field := range []string{e.Category, e.Type, e.Description} {
		if strings.Contains(strings.ToLower(field), "clean") {
			return true
		}
	}
	return false
}

// ReservationProvider yields the reservations relevant to a billing window.
// Under the checkout basis only stays checking out inside the window are
// returned; under the calendar basis any stay overlapping the window is.
type ReservationProvider interface {
	Reservations(ctx context.Context, w period.Window, propertyID snowflake.ID, basis listingdomain.CalculationType) ([]Reservation, error)
}

// ExpenseProvider yields the expenses dated inside a billing window.
type ExpenseProvider interface {
	Expenses(ctx context.Context, w period.Window, propertyID snowflake.ID) ([]Expense, error)
}
