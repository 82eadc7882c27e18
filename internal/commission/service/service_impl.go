package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fixdesk/internal/clock"
	commissiondomain "github.com/smallbiznis/fixdesk/internal/commission/domain"
	"github.com/smallbiznis/fixdesk/internal/config"
	"github.com/smallbiznis/fixdesk/internal/events"
	obsmetrics "github.com/smallbiznis/fixdesk/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/fixdesk/internal/payment/domain"
	"github.com/smallbiznis/fixdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       commissiondomain.Repository
	PaymentSvc paymentdomain.Service
	Policy     *config.CommissionPolicyHolder `optional:"true"`
	Events     events.Publisher               `optional:"true"`
	ObsMetrics *obsmetrics.Metrics            `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       commissiondomain.Repository
	paymentSvc paymentdomain.Service
	policy     *config.CommissionPolicyHolder
	events     events.Publisher
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) commissiondomain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.System()
	}
	pub := p.Events
	if pub == nil {
		pub = events.NewNoop()
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("commission.service"),
		genID:      p.GenID,
		clock:      clk,
		repo:       p.Repo,
		paymentSvc: p.PaymentSvc,
		policy:     p.Policy,
		events:     pub,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Open(ctx context.Context, req commissiondomain.OpenRequest) (commissiondomain.OpenResult, error) {
	if req.BookingID == 0 {
		return commissiondomain.OpenResult{}, commissiondomain.ErrInvalidBookingID
	}
	providerID := strings.TrimSpace(req.ProviderID)
	if providerID == "" {
		return commissiondomain.OpenResult{}, commissiondomain.ErrInvalidProviderID
	}
	if req.Amount <= 0 {
		return commissiondomain.OpenResult{}, commissiondomain.ErrInvalidAmount
	}

	policy := s.policy.Get()
	now := s.clock.Now()
	method := strings.TrimSpace(req.CollectionMethod)
	if method == "" {
		method = policy.CollectionMethod
	}
	dueDate := req.DueDate
	if dueDate.IsZero() {
		dueDate = now.AddDate(0, 0, policy.DueDays)
	}

	entry := commissiondomain.Collection{
		ID:               s.genID.Generate(),
		BookingID:        req.BookingID,
		ProviderID:       providerID,
		CommissionAmount: req.Amount,
		CollectionMethod: method,
		Status:           commissiondomain.StatusPending,
		DueDate:          dueDate.UTC(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	created, err := s.repo.InsertIfAbsent(ctx, s.db, &entry)
	if err != nil {
		return commissiondomain.OpenResult{}, err
	}

	stored, err := s.repo.FindByBookingID(ctx, s.db, req.BookingID)
	if err != nil {
		return commissiondomain.OpenResult{}, err
	}
	if stored == nil {
		return commissiondomain.OpenResult{}, commissiondomain.ErrNotFound
	}

	if created {
		s.obsMetrics.RecordCommissionOpened(ctx, method)
		s.log.Info("commission opened",
			zap.String("booking_id", req.BookingID.String()),
			zap.String("provider_id", providerID),
			zap.Int64("commission_amount", req.Amount),
			zap.Time("due_date", stored.DueDate),
		)
		s.publish(ctx, events.TypeCommissionOpened, *stored)
	} else {
		s.log.Info("commission already open for booking",
			zap.String("booking_id", req.BookingID.String()),
			zap.String("collection_id", stored.ID.String()),
		)
	}

	return commissiondomain.OpenResult{Collection: *stored, Created: created}, nil
}

func (s *Service) Settle(ctx context.Context, req commissiondomain.SettleRequest) (commissiondomain.Collection, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return commissiondomain.Collection{}, err
	}

	current, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return commissiondomain.Collection{}, err
	}
	if current == nil {
		return commissiondomain.Collection{}, commissiondomain.ErrNotFound
	}
	if current.Status == commissiondomain.StatusCompleted {
		return *current, nil
	}

	now := s.clock.Now()
	settled, err := s.repo.MarkCompleted(ctx, s.db, id, strings.TrimSpace(req.Reference), now)
	if err != nil {
		return commissiondomain.Collection{}, err
	}

	updated, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return commissiondomain.Collection{}, err
	}
	if updated == nil {
		return commissiondomain.Collection{}, commissiondomain.ErrNotFound
	}
	if !settled {
		// Settled concurrently by another caller.
		return *updated, nil
	}

	s.obsMetrics.RecordCommissionSettled(ctx, string(current.Status))
	s.log.Info("commission settled",
		zap.String("collection_id", id.String()),
		zap.String("booking_id", updated.BookingID.String()),
		zap.String("previous_status", string(current.Status)),
	)
	s.publish(ctx, events.TypeCommissionSettled, *updated)

	if err := s.paymentSvc.MarkCommissionSettled(ctx, updated.BookingID); err != nil {
		if errors.Is(err, paymentdomain.ErrNotFound) {
			s.log.Debug("no payment record to flag as settled", zap.String("booking_id", updated.BookingID.String()))
		} else {
			s.log.Warn("failed to flag payment record as settled",
				zap.String("booking_id", updated.BookingID.String()),
				zap.Error(err),
			)
		}
	}

	return *updated, nil
}

// publish is best-effort; the ledger row is the source of truth.
func (s *Service) publish(ctx context.Context, eventType string, entry commissiondomain.Collection) {
	evt := events.NewEvent(eventType, entry.BookingID.String(), s.clock.Now(), map[string]any{
		"collection_id":     entry.ID.String(),
		"provider_id":       entry.ProviderID,
		"commission_amount": entry.CommissionAmount,
		"status":            string(entry.Status),
	})
	if err := s.events.Publish(ctx, evt); err != nil {
		s.log.Warn("failed to publish commission event",
			zap.String("event_type", eventType),
			zap.String("collection_id", entry.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) MarkOverdue(ctx context.Context, now time.Time, limit int) (int64, error) {
	if limit <= 0 {
		limit = 200
	}
	if now.IsZero() {
		now = s.clock.Now()
	}
	count, err := s.repo.MarkOverdue(ctx, s.db, now.UTC(), limit)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.obsMetrics.RecordCommissionsOverdue(ctx, count)
		s.log.Info("commissions marked overdue", zap.Int64("count", count))
	}
	return count, nil
}

func (s *Service) Get(ctx context.Context, rawID string) (commissiondomain.Collection, error) {
	id, err := parseID(rawID)
	if err != nil {
		return commissiondomain.Collection{}, err
	}
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return commissiondomain.Collection{}, err
	}
	if item == nil {
		return commissiondomain.Collection{}, commissiondomain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req commissiondomain.ListCollectionRequest) (commissiondomain.ListCollectionResponse, error) {
	filter := commissiondomain.ListCollectionFilter{
		ProviderID: strings.TrimSpace(req.ProviderID),
	}
	if status := strings.ToLower(strings.TrimSpace(req.Status)); status != "" {
		filter.Status = commissiondomain.Status(status)
		if !filter.Status.Valid() {
			return commissiondomain.ListCollectionResponse{}, commissiondomain.ErrInvalidStatus
		}
	}

	cursor, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return commissiondomain.ListCollectionResponse{}, err
	}
	if cursor != nil {
		beforeID, err := parseID(cursor.ID)
		if err != nil {
			return commissiondomain.ListCollectionResponse{}, pagination.ErrInvalidPageToken
		}
		filter.BeforeID = beforeID
	}

	limit := pagination.Pagination{PageSize: req.PageSize}.Limit()
	items, err := s.repo.List(ctx, s.db, filter, limit+1)
	if err != nil {
		return commissiondomain.ListCollectionResponse{}, err
	}

	page, pageInfo := pagination.BuildCursorPageInfo(items, limit, func(item *commissiondomain.Collection) pagination.Cursor {
		return pagination.Cursor{ID: item.ID.String()}
	})

	collections := make([]commissiondomain.Collection, 0, len(page))
	for _, item := range page {
		if item == nil {
			continue
		}
		collections = append(collections, *item)
	}

	return commissiondomain.ListCollectionResponse{
		PageInfo:    pageInfo,
		Collections: collections,
	}, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, commissiondomain.ErrInvalidID
	}
	return id, nil
}
