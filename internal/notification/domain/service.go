package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/hostfolio/payouts/pkg/db/pagination"
)

var ErrNotificationNotFound = errors.New("notification_not_found")

type RecordRequest struct {
	TagName      string
	ScheduleID   *snowflake.ID
	Message      string
	ListingCount int
	ScheduledFor time.Time
}

type ListNotificationsRequest struct {
	pagination.Pagination

	TagName string `form:"tag"`
	Status  Status `form:"status"`
}

type Service interface {
	Record(ctx context.Context, req RecordRequest) (Notification, error)
	List(ctx context.Context, req ListNotificationsRequest) ([]Notification, pagination.PageInfo, error)
	MarkRead(ctx context.Context, id string) error
	Dismiss(ctx context.Context, id string) error
}
