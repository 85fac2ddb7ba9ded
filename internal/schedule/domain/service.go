package domain

import (
	"context"
	"errors"
	"time"

	"github.com/hostfolio/payouts/internal/period"
)

var (
	ErrScheduleNotFound  = errors.New("schedule_not_found")
	ErrScheduleExists    = errors.New("schedule_already_exists")
	ErrInvalidTimeOfDay  = errors.New("invalid_time_of_day")
	ErrInvalidDayOfWeek  = errors.New("invalid_day_of_week")
	ErrInvalidDayOfMonth = errors.New("invalid_day_of_month")
	ErrAnchorRequired    = errors.New("biweekly_anchor_required")
)

type CreateScheduleRequest struct {
	TagName        string           `json:"tag_name" binding:"required"`
	Frequency      period.Frequency `json:"frequency" binding:"required"`
	DayOfWeek      int              `json:"day_of_week"`
	DayOfMonth     int              `json:"day_of_month"`
	BiweeklyAnchor *time.Time       `json:"biweekly_anchor"`
	TimeOfDay      string           `json:"time_of_day" binding:"required"`
	SkipDates      []string         `json:"skip_dates"`
	Enabled        *bool            `json:"enabled"`
}

type UpdateScheduleRequest struct {
	Frequency      *period.Frequency `json:"frequency"`
	DayOfWeek      *int              `json:"day_of_week"`
	DayOfMonth     *int              `json:"day_of_month"`
	BiweeklyAnchor *time.Time        `json:"biweekly_anchor"`
	TimeOfDay      *string           `json:"time_of_day"`
	SkipDates      []string          `json:"skip_dates"`
	Enabled        *bool             `json:"enabled"`
}

type Service interface {
	List(ctx context.Context) ([]Schedule, error)
	ListEnabled(ctx context.Context) ([]Schedule, error)
	GetByTag(ctx context.Context, tag string) (Schedule, error)
	Create(ctx context.Context, req CreateScheduleRequest) (Schedule, error)
	Update(ctx context.Context, tag string, req UpdateScheduleRequest) (Schedule, error)
	Delete(ctx context.Context, tag string) error

	// MarkFired records a completed firing: lastNotifiedAt moves to firedAt
	// and nextScheduledAt to the computed next occurrence. Called whether
	// or not statement generation succeeded.
	MarkFired(ctx context.Context, tag string, firedAt time.Time, nextRun time.Time) error
}
