// Package domain contains persistence models for owner payout statements.
package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	listingdomain "github.com/hostfolio/payouts/internal/listing/domain"
)

// Status represents statement lifecycle states. Flagged statements are
// persisted drafts excluded from the ready-to-send set; they are never
// silently dropped.
type Status string

const (
	StatusDraft                  Status = "draft"
	StatusReady                  Status = "ready"
	StatusSent                   Status = "sent"
	StatusFlaggedNegativeBalance Status = "flagged_negative_balance"
	StatusFlaggedNoActivity      Status = "flagged_no_activity"
)

// Statement is one owner payout statement for a listing or a listing group
// over a billing window. At most one statement may exist per
// (scope, period_start, period_end); the unique index is the race backstop
// behind the check-then-create guard.
type Statement struct {
	ID                snowflake.ID                    `gorm:"primaryKey" json:"id"`
	ScopeKey          string                          `gorm:"type:text;not null;uniqueIndex:ux_statement_scope_period,priority:1" json:"scope_key"`
	PropertyID        *snowflake.ID                   `gorm:"index" json:"property_id,omitempty"`
	GroupID           *snowflake.ID                   `gorm:"index" json:"group_id,omitempty"`
	MemberPropertyIDs datatypes.JSONSlice[string]     `gorm:"" json:"member_property_ids,omitempty"`
	PeriodStart       time.Time                       `gorm:"not null;uniqueIndex:ux_statement_scope_period,priority:2" json:"period_start"`
	PeriodEnd         time.Time                       `gorm:"not null;uniqueIndex:ux_statement_scope_period,priority:3" json:"period_end"`
	CalculationType   listingdomain.CalculationType   `gorm:"type:text;not null" json:"calculation_type"`
	TotalRevenue      decimal.Decimal                 `gorm:"type:numeric(12,2);not null;default:0" json:"total_revenue"`
	TotalExpenses     decimal.Decimal                 `gorm:"type:numeric(12,2);not null;default:0" json:"total_expenses"`
	TotalUpsells      decimal.Decimal                 `gorm:"type:numeric(12,2);not null;default:0" json:"total_upsells"`
	TotalCleaningFees decimal.Decimal                 `gorm:"type:numeric(12,2);not null;default:0" json:"total_cleaning_fees"`
	PMCommission      decimal.Decimal                 `gorm:"type:numeric(12,2);not null;default:0" json:"pm_commission"`
	OwnerPayout       decimal.Decimal                 `gorm:"type:numeric(12,2);not null;default:0" json:"owner_payout"`
	Status            Status                          `gorm:"type:text;not null;default:'draft'" json:"status"`
	SettingsSnapshot  datatypes.JSON                  `gorm:"" json:"settings_snapshot"`
	Reservations      datatypes.JSON                  `gorm:"" json:"reservations"`
	Expenses          datatypes.JSON                  `gorm:"" json:"expenses"`
	CreatedAt         time.Time                       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time                       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Statement) TableName() string { return "statements" }

// EligibleForSend reports whether the statement may enter the outbound set.
func (s Statement) EligibleForSend() bool {
	return s.Status == StatusDraft || s.Status == StatusReady
}

func ListingScopeKey(id snowflake.ID) string { return fmt.Sprintf("listing:%s", id) }
func GroupScopeKey(id snowflake.ID) string   { return fmt.Sprintf("group:%s", id) }

// SettingsSnapshotEntry captures one property's billing settings as they
// stood at generation time, for auditability.
type SettingsSnapshotEntry struct {
	PropertyID           string          `json:"property_id"`
	PMFeePercent         decimal.Decimal `json:"pm_fee_percent"`
	CohostOnAirbnb       bool            `json:"cohost_on_airbnb"`
	AirbnbPassThroughTax bool            `json:"airbnb_pass_through_tax"`
	DisregardTax         bool            `json:"disregard_tax"`
	CleaningPassThrough  bool            `json:"cleaning_pass_through"`
	CleaningFee          decimal.Decimal `json:"cleaning_fee"`
	WaiveCommission      bool            `json:"waive_commission"`
	WaiveCommissionUntil *time.Time      `json:"waive_commission_until,omitempty"`
	CalculationType      string          `json:"calculation_type"`
}

// ReservationLine is one reservation as it appears on a statement. Prorated
// figures drive the payout; the unprorated originals stay alongside.
type ReservationLine struct {
	ReservationID     string          `json:"reservation_id"`
	PropertyID        string          `json:"property_id"`
	ConfirmationCode  string          `json:"confirmation_code,omitempty"`
	CheckIn           string          `json:"check_in"`
	CheckOut          string          `json:"check_out"`
	Source            string          `json:"source"`
	Factor            float64         `json:"factor"`
	NightsInPeriod    int             `json:"nights_in_period"`
	TotalNights       int             `json:"total_nights"`
	Revenue           decimal.Decimal `json:"revenue"`
	RevenueFull       decimal.Decimal `json:"revenue_full"`
	Tax               decimal.Decimal `json:"tax"`
	TaxFull           decimal.Decimal `json:"tax_full"`
	CleaningFee       decimal.Decimal `json:"cleaning_fee"`
	Commission        decimal.Decimal `json:"commission"`
	GrossPayout       decimal.Decimal `json:"gross_payout"`
	CohostOnAirbnb    bool            `json:"cohost_on_airbnb"`
}

// ExpenseLine is one expense or upsell as it appears on a statement.
// Synthetic cleaning pass-through lines carry Synthetic=true.
type ExpenseLine struct {
	ExpenseID   string          `json:"expense_id,omitempty"`
	PropertyID  string          `json:"property_id,omitempty"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category,omitempty"`
	Type        string          `json:"type,omitempty"`
	Description string          `json:"description,omitempty"`
	Upsell      bool            `json:"upsell"`
	Synthetic   bool            `json:"synthetic"`
}
