package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fixdesk/internal/clock"
	"github.com/smallbiznis/fixdesk/internal/notification/domain"
	"github.com/smallbiznis/fixdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.System()
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("notification.service"),
		genID: p.GenID,
		clock: clk,
		repo:  p.Repo,
	}
}

func (s *Service) Notify(ctx context.Context, req domain.NotifyRequest) (domain.Notification, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return domain.Notification{}, domain.ErrInvalidUserID
	}
	if strings.TrimSpace(req.Message) == "" {
		return domain.Notification{}, domain.ErrInvalidMessage
	}

	priority, err := domain.ParsePriority(string(req.Priority))
	if err != nil {
		return domain.Notification{}, err
	}

	metadata := datatypes.JSONMap{}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	n := domain.Notification{
		ID:        s.genID.Generate(),
		UserID:    userID,
		BookingID: req.BookingID,
		Audience:  req.Audience,
		Type:      defaultString(req.Type, domain.TypeBooking),
		Category:  defaultString(req.Category, domain.CategoryGeneral),
		Priority:  priority,
		Title:     strings.TrimSpace(req.Title),
		Message:   strings.TrimSpace(req.Message),
		Metadata:  metadata,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, s.db, &n); err != nil {
		return domain.Notification{}, err
	}

	s.log.Debug("notification stored",
		zap.String("user_id", userID),
		zap.String("booking_id", req.BookingID.String()),
		zap.String("audience", string(req.Audience)),
		zap.String("category", n.Category),
		zap.String("priority", string(n.Priority)),
	)
	return n, nil
}

func (s *Service) List(ctx context.Context, req domain.ListNotificationRequest) (domain.ListNotificationResponse, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return domain.ListNotificationResponse{}, domain.ErrInvalidUserID
	}

	cursor, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return domain.ListNotificationResponse{}, err
	}
	var beforeID snowflake.ID
	if cursor != nil {
		beforeID, err = snowflake.ParseString(cursor.ID)
		if err != nil {
			return domain.ListNotificationResponse{}, pagination.ErrInvalidPageToken
		}
	}

	var priority domain.Priority
	if strings.TrimSpace(req.Priority) != "" {
		if priority, err = domain.ParsePriority(req.Priority); err != nil {
			return domain.ListNotificationResponse{}, err
		}
	}

	limit := pagination.Pagination{PageSize: req.PageSize}.Limit()
	items, err := s.repo.ListByUser(ctx, s.db, domain.ListFilter{
		UserID:   userID,
		Type:     strings.ToLower(strings.TrimSpace(req.Type)),
		Category: strings.ToLower(strings.TrimSpace(req.Category)),
		Priority: priority,
		BeforeID: beforeID,
		Limit:    limit + 1,
	})
	if err != nil {
		return domain.ListNotificationResponse{}, err
	}

	page, pageInfo := pagination.BuildCursorPageInfo(items, limit, func(n *domain.Notification) pagination.Cursor {
		return pagination.Cursor{ID: n.ID.String()}
	})
	out := make([]domain.Notification, 0, len(page))
	for _, item := range page {
		out = append(out, *item)
	}

	return domain.ListNotificationResponse{PageInfo: pageInfo, Notifications: out}, nil
}

func defaultString(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}
