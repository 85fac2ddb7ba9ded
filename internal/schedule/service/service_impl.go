package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hostfolio/payouts/internal/period"
	scheduledomain "github.com/hostfolio/payouts/internal/schedule/domain"
	"github.com/hostfolio/payouts/pkg/db"
	"github.com/hostfolio/payouts/pkg/db/option"
	"github.com/hostfolio/payouts/pkg/repository"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node

	schedules repository.Repository[scheduledomain.Schedule]
}

func NewService(p ServiceParam) scheduledomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("schedule.service"),
		genID:     p.GenID,
		schedules: repository.ProvideStore[scheduledomain.Schedule](p.DB),
	}
}

func (s *Service) List(ctx context.Context) ([]scheduledomain.Schedule, error) {
	rows, err := s.schedules.Find(ctx, &scheduledomain.Schedule{}, option.WithOrder("tag_name ASC"))
	if err != nil {
		return nil, err
	}
	return deref(rows), nil
}

func (s *Service) ListEnabled(ctx context.Context) ([]scheduledomain.Schedule, error) {
	rows, err := s.schedules.Find(ctx, &scheduledomain.Schedule{Enabled: true}, option.WithOrder("tag_name ASC"))
	if err != nil {
		return nil, err
	}
	return deref(rows), nil
}

func (s *Service) GetByTag(ctx context.Context, tag string) (scheduledomain.Schedule, error) {
	row, err := s.schedules.FindOne(ctx, &scheduledomain.Schedule{TagName: tag})
	if err != nil {
		return scheduledomain.Schedule{}, err
	}
	if row == nil {
		return scheduledomain.Schedule{}, scheduledomain.ErrScheduleNotFound
	}
	return *row, nil
}

func (s *Service) Create(ctx context.Context, req scheduledomain.CreateScheduleRequest) (scheduledomain.Schedule, error) {
	if !req.Frequency.Valid() {
		return scheduledomain.Schedule{}, period.ErrUnknownFrequency
	}

	sched := scheduledomain.Schedule{
		ID:             s.genID.Generate(),
		TagName:        req.TagName,
		Frequency:      req.Frequency,
		DayOfWeek:      req.DayOfWeek,
		DayOfMonth:     req.DayOfMonth,
		BiweeklyAnchor: req.BiweeklyAnchor,
		TimeOfDay:      req.TimeOfDay,
		SkipDates:      datatypes.NewJSONSlice(req.SkipDates),
		Enabled:        true,
	}
	if req.Enabled != nil {
		sched.Enabled = *req.Enabled
	}
	if err := validate(sched); err != nil {
		return scheduledomain.Schedule{}, err
	}

	if err := s.schedules.Create(ctx, &sched); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return scheduledomain.Schedule{}, scheduledomain.ErrScheduleExists
		}
		return scheduledomain.Schedule{}, fmt.Errorf("create schedule: %w", err)
	}

	s.log.Info("schedule.created",
		zap.String("tag", sched.TagName),
		zap.String("frequency", string(sched.Frequency)),
		zap.String("time_of_day", sched.TimeOfDay),
	)
	return sched, nil
}

func (s *Service) Update(ctx context.Context, tag string, req scheduledomain.UpdateScheduleRequest) (scheduledomain.Schedule, error) {
	sched, err := s.GetByTag(ctx, tag)
	if err != nil {
		return scheduledomain.Schedule{}, err
	}

	if req.Frequency != nil {
		if !req.Frequency.Valid() {
			return scheduledomain.Schedule{}, period.ErrUnknownFrequency
		}
		sched.Frequency = *req.Frequency
	}
	if req.DayOfWeek != nil {
		sched.DayOfWeek = *req.DayOfWeek
	}
	if req.DayOfMonth != nil {
		sched.DayOfMonth = *req.DayOfMonth
	}
	if req.BiweeklyAnchor != nil {
		sched.BiweeklyAnchor = req.BiweeklyAnchor
	}
	if req.TimeOfDay != nil {
		sched.TimeOfDay = *req.TimeOfDay
	}
	if req.SkipDates != nil {
		sched.SkipDates = datatypes.NewJSONSlice(req.SkipDates)
	}
	if req.Enabled != nil {
		sched.Enabled = *req.Enabled
	}
	if err := validate(sched); err != nil {
		return scheduledomain.Schedule{}, err
	}

	if err := s.db.WithContext(ctx).Save(&sched).Error; err != nil {
		return scheduledomain.Schedule{}, fmt.Errorf("update schedule: %w", err)
	}
	return sched, nil
}

func (s *Service) Delete(ctx context.Context, tag string) error {
	sched, err := s.GetByTag(ctx, tag)
	if err != nil {
		return err
	}
	return s.schedules.Delete(ctx, sched.ID.String())
}

func (s *Service) MarkFired(ctx context.Context, tag string, firedAt time.Time, nextRun time.Time) error {
	sched, err := s.GetByTag(ctx, tag)
	if err != nil {
		return err
	}
	return s.schedules.Update(ctx, sched.ID.String(), map[string]any{
		"last_notified_at":  firedAt,
		"next_scheduled_at": nextRun,
	})
}

func validate(sched scheduledomain.Schedule) error {
	if _, err := time.Parse("15:04", sched.TimeOfDay); err != nil {
		return scheduledomain.ErrInvalidTimeOfDay
	}
	for _, d := range sched.SkipDates {
		if _, err := time.Parse(scheduledomain.SkipDateLayout, d); err != nil {
			return fmt.Errorf("skip date %q: %w", d, err)
		}
	}
	switch {
	case sched.Frequency == period.FrequencyWeekly || sched.Frequency.IsBiweekly():
		if sched.DayOfWeek < 0 || sched.DayOfWeek > 6 {
			return scheduledomain.ErrInvalidDayOfWeek
		}
		if sched.Frequency.IsBiweekly() && sched.BiweeklyAnchor == nil {
			return scheduledomain.ErrAnchorRequired
		}
	case sched.Frequency == period.FrequencyMonthly:
		if sched.DayOfMonth < 1 || sched.DayOfMonth > 31 {
			return scheduledomain.ErrInvalidDayOfMonth
		}
	}
	return nil
}

func deref(rows []*scheduledomain.Schedule) []scheduledomain.Schedule {
	out := make([]scheduledomain.Schedule, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	return out
}
