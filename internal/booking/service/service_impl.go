package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fixdesk/internal/booking/domain"
	"github.com/smallbiznis/fixdesk/internal/clock"
	commissiondomain "github.com/smallbiznis/fixdesk/internal/commission/domain"
	"github.com/smallbiznis/fixdesk/internal/config"
	"github.com/smallbiznis/fixdesk/internal/events"
	"github.com/smallbiznis/fixdesk/internal/lock"
	notificationdomain "github.com/smallbiznis/fixdesk/internal/notification/domain"
	"github.com/smallbiznis/fixdesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/fixdesk/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/fixdesk/internal/payment/domain"
	"github.com/smallbiznis/fixdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Repo          domain.Repository
	PaymentSvc    paymentdomain.Service
	CommissionSvc commissiondomain.Service
	Notifier      notificationdomain.Dispatcher      `optional:"true"`
	Email         notificationdomain.EmailDispatcher `optional:"true"`
	Events        events.Publisher                   `optional:"true"`
	Locker        lock.BookingLocker                 `optional:"true"`
	ObsMetrics    *obsmetrics.Metrics                `optional:"true"`
	Policy        *config.CommissionPolicyHolder     `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	repo          domain.Repository
	paymentSvc    paymentdomain.Service
	commissionSvc commissiondomain.Service
	notifier      notificationdomain.Dispatcher
	email         notificationdomain.EmailDispatcher
	events        events.Publisher
	locker        lock.BookingLocker
	obsMetrics    *obsmetrics.Metrics
	policy        *config.CommissionPolicyHolder
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.System()
	}
	pub := p.Events
	if pub == nil {
		pub = events.NewNoop()
	}
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("booking.service"),
		genID:         p.GenID,
		clock:         clk,
		repo:          p.Repo,
		paymentSvc:    p.PaymentSvc,
		commissionSvc: p.CommissionSvc,
		notifier:      p.Notifier,
		email:         p.Email,
		events:        pub,
		locker:        p.Locker,
		obsMetrics:    p.ObsMetrics,
		policy:        p.Policy,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateBookingRequest) (domain.Booking, error) {
	booking, err := s.buildBooking(req)
	if err != nil {
		return domain.Booking{}, err
	}

	if err := s.repo.Insert(ctx, s.db, &booking); err != nil {
		return domain.Booking{}, err
	}

	log := logger.WithBooking(logger.WithContext(ctx, s.log), booking.ID.String())
	log.Info("booking created",
		zap.String("status", string(booking.Status)),
		zap.String("location_type", string(booking.LocationType)),
		zap.Int64("total_amount", booking.TotalAmount),
	)
	s.obsMetrics.RecordBookingCreated(ctx, string(booking.LocationType))

	s.runSideEffects(ctx, booking.ID, s.createdSideEffects(booking))
	return booking, nil
}

func (s *Service) buildBooking(req domain.CreateBookingRequest) (domain.Booking, error) {
	required := []struct {
		field string
		value string
	}{
		{"customer_id", req.CustomerID},
		{"provider_id", req.ProviderID},
		{"device_id", req.DeviceID},
		{"service_id", req.ServiceID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return domain.Booking{}, domain.MissingField(r.field)
		}
	}
	if req.AppointmentTime == nil || req.AppointmentTime.IsZero() {
		return domain.Booking{}, domain.MissingField("appointment_time")
	}
	if req.TotalAmount == nil {
		return domain.Booking{}, domain.MissingField("total_amount")
	}
	if *req.TotalAmount <= 0 {
		return domain.Booking{}, domain.NewValidationError("total_amount", "invalid_value", "total_amount must be greater than zero")
	}

	status := domain.StatusPending
	if req.Status != nil {
		parsed, err := domain.ParseStatus("status", *req.Status)
		if err != nil {
			return domain.Booking{}, err
		}
		status = parsed
	}
	paymentStatus := domain.PaymentStatusPending
	if req.PaymentStatus != nil {
		parsed, err := domain.ParsePaymentStatus(*req.PaymentStatus)
		if err != nil {
			return domain.Booking{}, err
		}
		paymentStatus = parsed
	}

	var (
		paymentMethod domain.PaymentMethod
		partQuality   domain.PartQuality
		locationType  domain.LocationType
		serviceMode   domain.ServiceMode
		err           error
	)
	if req.PaymentMethod != nil {
		if paymentMethod, err = domain.ParsePaymentMethod(*req.PaymentMethod); err != nil {
			return domain.Booking{}, err
		}
	}
	if req.PartQuality != nil {
		if partQuality, err = domain.ParsePartQuality(*req.PartQuality); err != nil {
			return domain.Booking{}, err
		}
	}
	if req.LocationType != nil {
		if locationType, err = domain.ParseLocationType(*req.LocationType); err != nil {
			return domain.Booking{}, err
		}
	}
	if req.ServiceMode != nil {
		if serviceMode, err = domain.ParseServiceMode(*req.ServiceMode); err != nil {
			return domain.Booking{}, err
		}
	}

	address := strings.TrimSpace(req.CustomerAddress)
	if locationType == domain.LocationTypeDoorstep && address == "" {
		return domain.Booking{}, domain.MissingField("customer_address")
	}

	issues := make([]domain.SelectedIssue, 0, len(req.SelectedIssues))
	for _, issue := range req.SelectedIssues {
		name := strings.TrimSpace(issue.Name)
		if name == "" {
			return domain.Booking{}, domain.NewValidationError("selected_issues", "invalid_value", "selected issue name cannot be empty")
		}
		issues = append(issues, domain.SelectedIssue{Name: name})
	}

	now := s.clock.Now()
	return domain.Booking{
		ID:               s.genID.Generate(),
		CustomerID:       strings.TrimSpace(req.CustomerID),
		ProviderID:       strings.TrimSpace(req.ProviderID),
		DeviceID:         strings.TrimSpace(req.DeviceID),
		ServiceID:        strings.TrimSpace(req.ServiceID),
		IssueDescription: strings.TrimSpace(req.IssueDescription),
		SelectedIssues:   issues,
		PartQuality:      partQuality,
		TotalAmount:      *req.TotalAmount,
		PaymentStatus:    paymentStatus,
		PaymentMethod:    paymentMethod,
		Status:           status,
		AppointmentTime:  req.AppointmentTime.UTC(),
		LocationType:     locationType,
		ServiceMode:      serviceMode,
		CustomerAddress:  address,
		CustomerEmail:    strings.TrimSpace(req.CustomerEmail),
		ProviderEmail:    strings.TrimSpace(req.ProviderEmail),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (s *Service) Get(ctx context.Context, req domain.GetBookingRequest) (domain.Booking, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.Booking{}, err
	}
	booking, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Booking{}, err
	}
	if booking == nil {
		return domain.Booking{}, domain.ErrNotFound
	}
	return *booking, nil
}

func (s *Service) List(ctx context.Context, req domain.ListBookingRequest) (domain.ListBookingResponse, error) {
	filter := domain.ListBookingFilter{
		CustomerID: strings.TrimSpace(req.CustomerID),
		ProviderID: strings.TrimSpace(req.ProviderID),
	}
	if strings.TrimSpace(req.Status) != "" {
		status, err := domain.ParseStatus("status", req.Status)
		if err != nil {
			return domain.ListBookingResponse{}, err
		}
		filter.Status = status
	}

	cursor, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return domain.ListBookingResponse{}, err
	}
	if cursor != nil {
		beforeID, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return domain.ListBookingResponse{}, pagination.ErrInvalidPageToken
		}
		filter.BeforeID = beforeID
	}

	limit := pagination.Pagination{PageSize: req.PageSize}.Limit()
	items, err := s.repo.List(ctx, s.db, filter, limit+1)
	if err != nil {
		return domain.ListBookingResponse{}, err
	}

	page, pageInfo := pagination.BuildCursorPageInfo(items, limit, func(b *domain.Booking) pagination.Cursor {
		return pagination.Cursor{ID: b.ID.String(), CreatedAt: b.CreatedAt.Format(time.RFC3339)}
	})
	summaries := make([]domain.Summary, 0, len(page))
	for _, b := range page {
		summaries = append(summaries, b.Summary())
	}

	return domain.ListBookingResponse{PageInfo: pageInfo, Bookings: summaries}, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateBookingRequest) (domain.Booking, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.Booking{}, err
	}
	patch, err := parsePatch(req)
	if err != nil {
		return domain.Booking{}, err
	}

	current, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Booking{}, err
	}
	if current == nil {
		return domain.Booking{}, domain.ErrNotFound
	}

	if patch.status != nil && !domain.CanTransition(current.Status, *patch.status) {
		return domain.Booking{}, domain.NewValidationError("status", "invalid_transition",
			"cannot move booking from "+string(current.Status)+" to "+string(*patch.status))
	}

	if patch.paymentMethod != nil && *patch.paymentMethod != current.PaymentMethod {
		completing := patch.status != nil && *patch.status == domain.StatusCompleted
		if current.Status != domain.StatusPending || completing {
			return domain.Booking{}, domain.NewValidationError("payment_method", "locked",
				"payment_method can only change while the booking is pending")
		}
	}

	merged := *current
	patch.apply(&merged)
	if merged.LocationType == domain.LocationTypeDoorstep && strings.TrimSpace(merged.CustomerAddress) == "" {
		return domain.Booking{}, domain.MissingField("customer_address")
	}

	log := logger.WithBooking(logger.WithContext(ctx, s.log), current.ID.String())

	var plan *commissionPlan
	if patch.status != nil && *patch.status == domain.StatusCompleted && current.Status != domain.StatusCompleted {
		if s.locker != nil {
			release, acquired, err := s.locker.AcquireCompletion(ctx, current.ID.String())
			switch {
			case err != nil:
				log.Warn("completion lock unavailable, relying on status compare-and-swap", zap.Error(err))
			case !acquired:
				return domain.Booking{}, domain.ErrConflict
			default:
				defer release()
			}
		}

		outcome := s.resolveCompletion(ctx, log, current, &merged)
		merged.Status = outcome.status
		merged.PaymentStatus = outcome.paymentStatus
		plan = outcome.commission
	}

	merged.UpdatedAt = s.clock.Now()
	updated, err := s.repo.UpdateIfStatus(ctx, s.db, &merged, current.Status)
	if err != nil {
		return domain.Booking{}, err
	}
	if !updated {
		log.Info("booking update lost status race", zap.String("expected_status", string(current.Status)))
		return domain.Booking{}, domain.ErrConflict
	}

	statusChanged := merged.Status != current.Status
	if statusChanged {
		s.obsMetrics.RecordStatusTransition(ctx, string(current.Status), string(merged.Status))
		log.Info("booking status changed",
			zap.String("from", string(current.Status)),
			zap.String("to", string(merged.Status)),
			zap.String("payment_status", string(merged.PaymentStatus)),
		)
	}

	s.runSideEffects(ctx, merged.ID, s.updatedSideEffects(merged, plan, statusChanged))
	return merged, nil
}

type bookingPatch struct {
	status             *domain.Status
	paymentStatus      *domain.PaymentStatus
	paymentMethod      *domain.PaymentMethod
	rating             *float64
	review             *string
	cancellationReason *string
	customerAddress    *string
	appointmentTime    *time.Time
}

// parsePatch validates every present field before anything is read.
func parsePatch(req domain.UpdateBookingRequest) (bookingPatch, error) {
	var patch bookingPatch
	if req.Status != nil {
		status, err := domain.ParseStatus("status", *req.Status)
		if err != nil {
			return bookingPatch{}, err
		}
		patch.status = &status
	}
	if req.PaymentStatus != nil {
		status, err := domain.ParsePaymentStatus(*req.PaymentStatus)
		if err != nil {
			return bookingPatch{}, err
		}
		patch.paymentStatus = &status
	}
	if req.PaymentMethod != nil {
		method, err := domain.ParsePaymentMethod(*req.PaymentMethod)
		if err != nil {
			return bookingPatch{}, err
		}
		patch.paymentMethod = &method
	}
	if req.Rating != nil {
		if err := domain.ValidateRating(*req.Rating); err != nil {
			return bookingPatch{}, err
		}
		rating := *req.Rating
		patch.rating = &rating
	}
	if req.AppointmentTime != nil {
		if req.AppointmentTime.IsZero() {
			return bookingPatch{}, domain.NewValidationError("appointment_time", "invalid_value", "appointment_time cannot be empty")
		}
		at := req.AppointmentTime.UTC()
		patch.appointmentTime = &at
	}
	patch.review = trimmed(req.Review)
	patch.cancellationReason = trimmed(req.CancellationReason)
	patch.customerAddress = trimmed(req.CustomerAddress)
	return patch, nil
}

func (p bookingPatch) apply(b *domain.Booking) {
	if p.status != nil {
		b.Status = *p.status
	}
	if p.paymentStatus != nil {
		b.PaymentStatus = *p.paymentStatus
	}
	if p.paymentMethod != nil {
		b.PaymentMethod = *p.paymentMethod
	}
	if p.rating != nil {
		b.Rating = p.rating
	}
	if p.review != nil {
		b.Review = *p.review
	}
	if p.cancellationReason != nil {
		b.CancellationReason = *p.cancellationReason
	}
	if p.customerAddress != nil {
		b.CustomerAddress = *p.customerAddress
	}
	if p.appointmentTime != nil {
		b.AppointmentTime = *p.appointmentTime
	}
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	return &v
}

func parseID(value string) (snowflake.ID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, domain.ErrInvalidID
	}
	id, err := snowflake.ParseString(value)
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, paymentdomain.ErrNotFound)
}
