package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	notificationdomain "github.com/hostfolio/payouts/internal/notification/domain"
	"github.com/hostfolio/payouts/pkg/db/option"
	"github.com/hostfolio/payouts/pkg/db/pagination"
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

	notifications repository.Repository[notificationdomain.Notification]
}

func NewService(p ServiceParam) notificationdomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("notification.service"),
		genID:         p.GenID,
		notifications: repository.ProvideStore[notificationdomain.Notification](p.DB),
	}
}

func (s *Service) Record(ctx context.Context, req notificationdomain.RecordRequest) (notificationdomain.Notification, error) {
	n := notificationdomain.Notification{
		ID:           s.genID.Generate(),
		TagName:      req.TagName,
		ScheduleID:   req.ScheduleID,
		Message:      req.Message,
		Status:       notificationdomain.StatusUnread,
		ListingCount: req.ListingCount,
		ScheduledFor: req.ScheduledFor,
	}
	if err := s.notifications.Create(ctx, &n); err != nil {
		return notificationdomain.Notification{}, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, req notificationdomain.ListNotificationsRequest) ([]notificationdomain.Notification, pagination.PageInfo, error) {
	page := req.Pagination.Normalize()

	filters := []option.QueryOption{}
	if req.TagName != "" {
		filters = append(filters, option.WithWhere("tag_name = ?", req.TagName))
	}
	if req.Status != "" {
		filters = append(filters, option.WithWhere("status = ?", req.Status))
	}

	var total int64
	countQuery := s.db.WithContext(ctx).Model(&notificationdomain.Notification{})
	for _, f := range filters {
		countQuery = f.Apply(countQuery)
	}
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, pagination.PageInfo{}, err
	}

	opts := append(filters,
		option.WithOrder("created_at DESC"),
		option.WithLimit(page.PageSize),
		option.WithOffset(page.Offset()),
	)
	rows, err := s.notifications.Find(ctx, &notificationdomain.Notification{}, opts...)
	if err != nil {
		return nil, pagination.PageInfo{}, err
	}
	out := make([]notificationdomain.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	return out, pagination.BuildPageInfo(page, total), nil
}

func (s *Service) MarkRead(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, notificationdomain.StatusRead)
}

func (s *Service) Dismiss(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, notificationdomain.StatusDismissed)
}

func (s *Service) setStatus(ctx context.Context, id string, status notificationdomain.Status) error {
	parsed, err := snowflake.ParseString(id)
	if err != nil {
		return notificationdomain.ErrNotificationNotFound
	}
	row, err := s.notifications.FindOne(ctx, &notificationdomain.Notification{ID: parsed})
	if err != nil {
		return err
	}
	if row == nil {
		return notificationdomain.ErrNotificationNotFound
	}
	return s.notifications.Update(ctx, id, map[string]any{"status": status})
}
