package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/smallbiznis/fixdesk/internal/booking/domain"
	"github.com/smallbiznis/fixdesk/internal/clock"
	"github.com/smallbiznis/fixdesk/internal/config"
	paymentdomain "github.com/smallbiznis/fixdesk/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        paymentdomain.Repository
	BookingRepo bookingdomain.Repository
	Policy      *config.CommissionPolicyHolder `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        paymentdomain.Repository
	bookingRepo bookingdomain.Repository
	policy      *config.CommissionPolicyHolder
}

func NewService(p Params) paymentdomain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.System()
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		clock:       clk,
		repo:        p.Repo,
		bookingRepo: p.BookingRepo,
		policy:      p.Policy,
	}
}

func (s *Service) Record(ctx context.Context, req paymentdomain.RecordPaymentRequest) (paymentdomain.Payment, error) {
	bookingID, err := parseID(req.BookingID)
	if err != nil {
		return paymentdomain.Payment{}, err
	}
	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method == "" {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidPaymentMethod
	}

	booking, err := s.bookingRepo.FindByID(ctx, s.db, bookingID)
	if err != nil {
		return paymentdomain.Payment{}, err
	}
	if booking == nil {
		return paymentdomain.Payment{}, paymentdomain.ErrBookingNotFound
	}

	now := s.clock.Now()
	payment := paymentdomain.Payment{
		ID:                  s.genID.Generate(),
		BookingID:           booking.ID,
		PaymentMethod:       method,
		CommissionAmount:    s.policy.Get().CommissionFor(booking.TotalAmount),
		IsCommissionSettled: false,
		GatewayReference:    strings.TrimSpace(req.GatewayReference),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Upsert(ctx, s.db, &payment); err != nil {
		return paymentdomain.Payment{}, err
	}

	stored, err := s.repo.FindByBookingID(ctx, s.db, booking.ID)
	if err != nil {
		return paymentdomain.Payment{}, err
	}
	if stored == nil {
		return paymentdomain.Payment{}, paymentdomain.ErrNotFound
	}

	s.log.Info("payment recorded",
		zap.String("booking_id", booking.ID.String()),
		zap.String("payment_method", stored.PaymentMethod),
		zap.Int64("commission_amount", stored.CommissionAmount),
	)
	return *stored, nil
}

func (s *Service) GetByBookingID(ctx context.Context, bookingID snowflake.ID) (paymentdomain.Payment, error) {
	if bookingID == 0 {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidBookingID
	}
	item, err := s.repo.FindByBookingID(ctx, s.db, bookingID)
	if err != nil {
		return paymentdomain.Payment{}, err
	}
	if item == nil {
		return paymentdomain.Payment{}, paymentdomain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) MarkCommissionTracking(ctx context.Context, bookingID snowflake.ID) error {
	return s.setSettled(ctx, bookingID, false)
}

func (s *Service) MarkCommissionSettled(ctx context.Context, bookingID snowflake.ID) error {
	return s.setSettled(ctx, bookingID, true)
}

func (s *Service) setSettled(ctx context.Context, bookingID snowflake.ID, settled bool) error {
	if bookingID == 0 {
		return paymentdomain.ErrInvalidBookingID
	}
	updated, err := s.repo.SetCommissionSettled(ctx, s.db, bookingID, settled, s.clock.Now())
	if err != nil {
		return err
	}
	if !updated {
		return paymentdomain.ErrNotFound
	}
	return nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, paymentdomain.ErrInvalidBookingID
	}
	return id, nil
}
