package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusUnread    Status = "unread"
	StatusRead      Status = "read"
	StatusActioned  Status = "actioned"
	StatusDismissed Status = "dismissed"
)

// Notification is the in-app record of a schedule firing. Exactly one row is
// written per firing, regardless of how statement generation went.
type Notification struct {
	ID         snowflake.ID  `json:"id,string" gorm:"primaryKey"`
	TagName    string        `json:"tag_name" gorm:"index"`
	ScheduleID *snowflake.ID `json:"schedule_id,string,omitempty"`
	Message    string        `json:"message"`
	Status     Status        `json:"status"`

	// ListingCount is how many statements the firing produced or skipped
	// as duplicates.
	ListingCount int `json:"listing_count"`

	// ScheduledFor is the minute the firing was due, Eastern time.
	ScheduledFor time.Time `json:"scheduled_for"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Notification) TableName() string { return "notifications" }
