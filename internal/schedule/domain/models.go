package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	"github.com/hostfolio/payouts/internal/period"
)

// SkipDateLayout is the calendar-date form stored in a schedule's skip list.
const SkipDateLayout = "2006-01-02"

// Schedule drives statement generation for every listing carrying TagName.
// One row per tag.
type Schedule struct {
	ID        snowflake.ID     `json:"id,string" gorm:"primaryKey"`
	TagName   string           `json:"tag_name" gorm:"uniqueIndex:ux_schedule_tag"`
	Frequency period.Frequency `json:"frequency"`

	// DayOfWeek uses 0 for Sunday, matching time.Weekday. Weekly and
	// biweekly schedules only.
	DayOfWeek  int `json:"day_of_week"`
	DayOfMonth int `json:"day_of_month"`

	// BiweeklyAnchor fixes which alternating week a biweekly schedule
	// fires on. Required for biweekly frequencies.
	BiweeklyAnchor *time.Time `json:"biweekly_anchor,omitempty"`

	// TimeOfDay is the firing minute in 24h "15:04" form, Eastern time.
	TimeOfDay string `json:"time_of_day"`

	SkipDates datatypes.JSONSlice[string] `json:"skip_dates"`
	Enabled   bool                        `json:"enabled"`

	LastNotifiedAt  *time.Time `json:"last_notified_at,omitempty"`
	NextScheduledAt *time.Time `json:"next_scheduled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Schedule) TableName() string { return "schedules" }

// SkipsDate reports whether the schedule holds fire on the given calendar day.
func (s Schedule) SkipsDate(day time.Time) bool {
	key := day.Format(SkipDateLayout)
	for _, d := range s.SkipDates {
		if d == key {
			return true
		}
	}
	return false
}
