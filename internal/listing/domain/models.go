// Package domain contains configuration models for listings and listing groups.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// CalculationType selects how reservations are attributed to a billing period.
type CalculationType string

const (
	// CalculationCheckout attributes a reservation wholly to the period
	// containing its checkout date.
	CalculationCheckout CalculationType = "checkout"
	// CalculationCalendar prorates a reservation across the periods its
	// stay spans.
	CalculationCalendar CalculationType = "calendar"
)

func (c CalculationType) Valid() bool {
	return c == CalculationCheckout || c == CalculationCalendar
}

// Listing holds per-property billing settings. The engine reads these;
// only the configuration API mutates them.
type Listing struct {
	ID                   snowflake.ID                 `gorm:"primaryKey" json:"id"`
	Name                 string                       `gorm:"type:text;not null" json:"name"`
	Tags                 datatypes.JSONSlice[string]  `gorm:"not null" json:"tags"`
	Active               bool                         `gorm:"not null;default:true" json:"active"`
	OwnerEmail           string                       `gorm:"type:text;not null" json:"owner_email"`
	PMFeePercent         decimal.Decimal              `gorm:"type:numeric(5,2);not null" json:"pm_fee_percent"`
	CohostOnAirbnb       bool                         `gorm:"not null;default:false" json:"cohost_on_airbnb"`
	AirbnbPassThroughTax bool                         `gorm:"not null;default:false" json:"airbnb_pass_through_tax"`
	DisregardTax         bool                         `gorm:"not null;default:false" json:"disregard_tax"`
	CleaningPassThrough  bool                         `gorm:"not null;default:false" json:"cleaning_pass_through"`
	CleaningFee          decimal.Decimal              `gorm:"type:numeric(12,2);not null;default:0" json:"cleaning_fee"`
	WaiveCommission      bool                         `gorm:"not null;default:false" json:"waive_commission"`
	WaiveCommissionUntil *time.Time                   `gorm:"" json:"waive_commission_until,omitempty"`
	GroupID              *snowflake.ID                `gorm:"index" json:"group_id,omitempty"`
	CalculationType      CalculationType              `gorm:"type:text;not null;default:'checkout'" json:"calculation_type"`
	CreatedAt            time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Listing) TableName() string { return "listings" }

// HasTag reports whether the listing carries the given frequency tag.
func (l Listing) HasTag(tag string) bool {
	for _, t := range l.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Grouped reports whether the listing bills through a group statement.
func (l Listing) Grouped() bool { return l.GroupID != nil }

// ListingGroup bills several listings as one combined statement.
type ListingGroup struct {
	ID              snowflake.ID                `gorm:"primaryKey" json:"id"`
	Name            string                      `gorm:"type:text;not null" json:"name"`
	Tags            datatypes.JSONSlice[string] `gorm:"not null" json:"tags"`
	CalculationType CalculationType             `gorm:"type:text;not null;default:'checkout'" json:"calculation_type"`
	CreatedAt       time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (ListingGroup) TableName() string { return "listing_groups" }

func (g ListingGroup) HasTag(tag string) bool {
	for _, t := range g.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
