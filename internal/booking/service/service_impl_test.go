package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fixdesk/internal/booking/domain"
	bookingrepo "github.com/smallbiznis/fixdesk/internal/booking/repository"
	"github.com/smallbiznis/fixdesk/internal/clock"
	commissiondomain "github.com/smallbiznis/fixdesk/internal/commission/domain"
	commissionrepo "github.com/smallbiznis/fixdesk/internal/commission/repository"
	commissionservice "github.com/smallbiznis/fixdesk/internal/commission/service"
	"github.com/smallbiznis/fixdesk/internal/config"
	"github.com/smallbiznis/fixdesk/internal/events"
	"github.com/smallbiznis/fixdesk/internal/lock"
	notificationdomain "github.com/smallbiznis/fixdesk/internal/notification/domain"
	notificationrepo "github.com/smallbiznis/fixdesk/internal/notification/repository"
	notificationservice "github.com/smallbiznis/fixdesk/internal/notification/service"
	paymentdomain "github.com/smallbiznis/fixdesk/internal/payment/domain"
	paymentrepo "github.com/smallbiznis/fixdesk/internal/payment/repository"
	paymentservice "github.com/smallbiznis/fixdesk/internal/payment/service"
	"github.com/smallbiznis/fixdesk/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var start = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

type recordingEmail struct {
	mu   sync.Mutex
	sent []notificationdomain.EmailMessage
	err  error
}

func (r *recordingEmail) SendEmail(ctx context.Context, msg notificationdomain.EmailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingEmail) templates() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, msg := range r.sent {
		out = append(out, msg.Template)
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(ctx context.Context, evt events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, evt := range r.events {
		out = append(out, evt.Type)
	}
	return out
}

type panickingNotifier struct{}

func (panickingNotifier) Notify(context.Context, notificationdomain.NotifyRequest) (notificationdomain.Notification, error) {
	panic("notification backend exploded")
}

type failingPaymentLookup struct {
	paymentdomain.Service
}

func (failingPaymentLookup) GetByBookingID(context.Context, snowflake.ID) (paymentdomain.Payment, error) {
	return paymentdomain.Payment{}, errors.New("payments table unavailable")
}

type busyLocker struct{}

func (busyLocker) AcquireCompletion(context.Context, string) (func(), bool, error) {
	return func() {}, false, nil
}

type harness struct {
	db            *gorm.DB
	node          *snowflake.Node
	clk           *clock.FakeClock
	repo          domain.Repository
	payments      paymentdomain.Service
	commissions   commissiondomain.Service
	notifications notificationdomain.Service
	email         *recordingEmail
	events        *recordingPublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	db := dbtest.Open(t)
	clk := clock.NewFakeClock(start)
	policy := config.NewStaticCommissionPolicyHolder(config.DefaultCommissionPolicy())
	repo := bookingrepo.Provide()

	payments := paymentservice.NewService(paymentservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		Repo:        paymentrepo.Provide(),
		BookingRepo: repo,
		Policy:      policy,
	})
	commissions := commissionservice.NewService(commissionservice.Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      clk,
		Repo:       commissionrepo.Provide(),
		PaymentSvc: payments,
		Policy:     policy,
	})
	notifications := notificationservice.New(notificationservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  notificationrepo.Provide(),
	})

	return &harness{
		db:            db,
		node:          node,
		clk:           clk,
		repo:          repo,
		payments:      payments,
		commissions:   commissions,
		notifications: notifications,
		email:         &recordingEmail{},
		events:        &recordingPublisher{},
	}
}

func (h *harness) params() Params {
	return Params{
		DB:            h.db,
		Log:           zap.NewNop(),
		GenID:         h.node,
		Clock:         h.clk,
		Repo:          h.repo,
		PaymentSvc:    h.payments,
		CommissionSvc: h.commissions,
		Notifier:      h.notifications,
		Email:         h.email,
		Events:        h.events,
		Policy:        config.NewStaticCommissionPolicyHolder(config.DefaultCommissionPolicy()),
	}
}

func (h *harness) service() domain.Service {
	return New(h.params())
}

func strPtr(v string) *string { return &v }

func int64Ptr(v int64) *int64 { return &v }

func validCreate(amount int64, location string) domain.CreateBookingRequest {
	at := start.Add(48 * time.Hour)
	req := domain.CreateBookingRequest{
		CustomerID:       "cust-1",
		ProviderID:       "prov-1",
		DeviceID:         "iphone-13",
		ServiceID:        "screen-replacement",
		AppointmentTime:  &at,
		TotalAmount:      int64Ptr(amount),
		IssueDescription: "cracked screen",
		SelectedIssues:   []domain.SelectedIssue{{Name: "screen"}},
		LocationType:     strPtr(location),
		CustomerEmail:    "cust@example.com",
		ProviderEmail:    "prov@example.com",
	}
	if location == string(domain.LocationTypeDoorstep) {
		req.CustomerAddress = "12 MG Road"
	}
	return req
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}

func complete(ctx context.Context, svc domain.Service, id snowflake.ID) (domain.Booking, error) {
	return svc.Update(ctx, domain.UpdateBookingRequest{ID: id.String(), Status: strPtr("completed")})
}

func TestCreateAppliesDefaultsWhenAbsent(t *testing.T) {
	h := newHarness(t)
	svc := h.service()
	ctx := context.Background()

	booking, err := svc.Create(ctx, validCreate(1000, "provider_location"))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, booking.Status)
	assert.Equal(t, domain.PaymentStatusPending, booking.PaymentStatus)
	assert.Nil(t, booking.Rating)
	assert.Empty(t, booking.Review)
	assert.Equal(t, start, booking.CreatedAt)
	assert.Equal(t, start, booking.UpdatedAt)

	stored, err := svc.Get(ctx, domain.GetBookingRequest{ID: booking.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), stored.TotalAmount)
	assert.Equal(t, []domain.SelectedIssue{{Name: "screen"}}, []domain.SelectedIssue(stored.SelectedIssues))

	assert.Equal(t, []string{"new_booking", "new_booking"}, h.email.templates())
	assert.Equal(t, []string{events.TypeBookingCreated}, h.events.types())

	feed, err := h.notifications.List(ctx, notificationdomain.ListNotificationRequest{UserID: "prov-1"})
	require.NoError(t, err)
	require.Len(t, feed.Notifications, 1)
	assert.Equal(t, notificationdomain.AudienceProvider, feed.Notifications[0].Audience)
	assert.Equal(t, notificationdomain.TypeBooking, feed.Notifications[0].Type)
	assert.Equal(t, notificationdomain.CategoryBookingStatus, feed.Notifications[0].Category)
	assert.Equal(t, notificationdomain.PriorityNormal, feed.Notifications[0].Priority)
	assert.NotContains(t, feed.Notifications[0].Metadata, "priority")
}

func TestCreateKeepsSuppliedStatusValues(t *testing.T) {
	h := newHarness(t)
	svc := h.service()

	req := validCreate(1000, "provider_location")
	req.Status = strPtr("confirmed")
	req.PaymentStatus = strPtr("completed")
	req.PaymentMethod = strPtr("online")

	booking, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, booking.Status)
	assert.Equal(t, domain.PaymentStatusCompleted, booking.PaymentStatus)
	assert.Equal(t, domain.PaymentMethodOnline, booking.PaymentMethod)
}

func TestCreateMissingFieldIsNamed(t *testing.T) {
	cases := map[string]func(*domain.CreateBookingRequest){
		"customer_id":      func(r *domain.CreateBookingRequest) { r.CustomerID = "" },
		"provider_id":      func(r *domain.CreateBookingRequest) { r.ProviderID = " " },
		"device_id":        func(r *domain.CreateBookingRequest) { r.DeviceID = "" },
		"service_id":       func(r *domain.CreateBookingRequest) { r.ServiceID = "" },
		"appointment_time": func(r *domain.CreateBookingRequest) { r.AppointmentTime = nil },
		"total_amount":     func(r *domain.CreateBookingRequest) { r.TotalAmount = nil },
		"customer_address": func(r *domain.CreateBookingRequest) { r.CustomerAddress = "" },
	}

	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			h := newHarness(t)
			req := validCreate(1000, "doorstep")
			mutate(&req)

			_, err := h.service().Create(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, field, verr.Field)
			assert.Equal(t, "required", verr.Code)
			assert.Equal(t, int64(0), countRows(t, h.db, "bookings"))
			assert.Empty(t, h.events.types())
		})
	}
}

func TestCreateRejectsInvalidValues(t *testing.T) {
	cases := map[string]func(*domain.CreateBookingRequest){
		"total_amount":   func(r *domain.CreateBookingRequest) { r.TotalAmount = int64Ptr(0) },
		"status":         func(r *domain.CreateBookingRequest) { r.Status = strPtr("finished") },
		"payment_status": func(r *domain.CreateBookingRequest) { r.PaymentStatus = strPtr("paid") },
		"payment_method": func(r *domain.CreateBookingRequest) { r.PaymentMethod = strPtr("cheque") },
		"part_quality":   func(r *domain.CreateBookingRequest) { r.PartQuality = strPtr("gold") },
		"location_type":  func(r *domain.CreateBookingRequest) { r.LocationType = strPtr("moon") },
		"service_mode":   func(r *domain.CreateBookingRequest) { r.ServiceMode = strPtr("teleport") },
	}

	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			h := newHarness(t)
			req := validCreate(1000, "provider_location")
			mutate(&req)

			_, err := h.service().Create(context.Background(), req)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, field, verr.Field)
			assert.Equal(t, int64(0), countRows(t, h.db, "bookings"))
		})
	}
}

func TestCompleteInStoreCODOpensCommission(t *testing.T) {
	h := newHarness(t)
	svc := h.service()
	ctx := context.Background()

	booking, err := svc.Create(ctx, validCreate(1000, "provider_location"))
	require.NoError(t, err)
	_, err = h.payments.Record(ctx, paymentdomain.RecordPaymentRequest{BookingID: booking.ID.String(), PaymentMethod: "COD"})
	require.NoError(t, err)

	h.clk.Advance(time.Hour)
	updated, err := complete(ctx, svc, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)
	assert.Equal(t, domain.PaymentStatusCompleted, updated.PaymentStatus)
	assert.Equal(t, start.Add(time.Hour), updated.UpdatedAt)

	ledger, err := h.commissions.List(ctx, commissiondomain.ListCollectionRequest{ProviderID: "prov-1"})
	require.NoError(t, err)
	require.Len(t, ledger.Collections, 1)
	entry := ledger.Collections[0]
	assert.Equal(t, booking.ID, entry.BookingID)
	assert.Equal(t, int64(100), entry.CommissionAmount)
	assert.Equal(t, commissiondomain.StatusPending, entry.Status)
	assert.Equal(t, "upi", entry.CollectionMethod)
	assert.WithinDuration(t, start.Add(time.Hour).AddDate(0, 0, 7), entry.DueDate, time.Second)

	payment, err := h.payments.GetByBookingID(ctx, booking.ID)
	require.NoError(t, err)
	assert.False(t, payment.IsCommissionSettled)

	assert.Contains(t, h.email.templates(), "booking_completed")
	assert.Equal(t, []string{events.TypeBookingCreated, events.TypeBookingStatusChanged}, h.events.types())
}

func TestCompleteInStoreWithoutPaymentRecordUsesRate(t *testing.T) {
	h := newHarness(t)
	svc := h.service()
	ctx := context.Background()

	booking, err := svc.Create(ctx, validCreate(2500, "provider_location"))
	require.NoError(t, err)

	updated, err := complete(ctx, svc, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)

	ledger, err := h.commissions.List(ctx, commissiondomain.ListCollectionRequest{ProviderID: "prov-1"})
	require.NoError(t, err)
	require.Len(t, ledger.Collections, 1)
	assert.Equal(t, int64(250), ledger.Collections[0].CommissionAmount)
}

func TestCompleteTwiceKeepsSingleLedgerEntry(t *testing.T) {
	h := newHarness(t)
	svc := h.service()
	ctx := context.Background()

	booking, err := svc.Create(ctx, validCreate(1000, "provider_location"))
	require.NoError(t, err)
	_, err = h.payments.Record(ctx, paymentdomain.RecordPaymentRequest{BookingID: booking.ID.String(), PaymentMethod: "cash"})
	require.NoError(t, err)

	_, err = complete(ctx, svc, booking.ID)
	require.NoError(t, err)
	again, err := complete(ctx, svc, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, again.Status)

	assert.Equal(t, int64(1), countRows(t, h.db, "commission_collections"))
	assert.Equal(t, []string{events.TypeBookingCreated, events.TypeBookingStatusChanged}, h.events.types())
}

func TestCompleteDoorstepCODWaitsForCollection(t *testing.T) {
	h := newHarness(t)
	svc := h.service()
	ctx := context.Background()

	booking, err := svc.Create(ctx, validCreate(1000, "doorstep"))
	require.NoError(t, err)
	_, err = h.payments.Record(ctx, paymentdomain.RecordPaymentRequest{BookingID: booking.ID.String(), PaymentMethod: "cod"})
	require.NoError(t, err)

	updated, err := complete(ctx, svc, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingCODCollection, updated.Status)
	assert.Equal(t, domain.PaymentStatusPending, updated.PaymentStatus)
	assert.Equal(t, int64(0), countRows(t, h.db, "commission_collections"))

	collected, err := svc.Update(ctx, domain.UpdateBookingRequest{
		ID:            booking.ID.String(),
		Status:        strPtr("completed"),
		PaymentStatus: strPtr("completed"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, collected.Status)
	assert.Equal(t, int64(0), countRows(t, h.db, "commission_collections"))
}

func TestCompleteOnlinePaymentIsHonoured(t *testing.T) {
	h := newHarness(t)
	svc := h.service()
	ctx := context.Background()

	booking, err := svc.Create(ctx, validCreate(1000, "provider_location"))
	require.NoError(t, err)
	_, err = h.payments.Record(ctx, paymentdomain.RecordPaymentRequest{BookingID: booking.ID.String(), PaymentMethod: "razorpay"})
	require.NoError(t, err)

	updated, err := complete(ctx, svc, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)
	assert.Equal(t, domain.PaymentStatusPending, updated.PaymentStatus)
	assert.Equal(t, int64(0), countRows(t, h.db, "commission_collections"))
}

func TestExplicitOnlineMethodOverridesUnpaidHeuristic(t *testing.T) {
	h := newHarness(t)
	svc := h.service()
	ctx := context.Background()

	req := validCreate(1000, "provider_location")
	req.PaymentMethod = strPtr("online")
	booking, err := svc.Create(ctx, req)
	require.NoError(t, err)

	updated, err := complete(ctx, svc, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)
	assert.Equal(t, int64(0), countRows(t, h.db, "commission_collections"))
}

func TestCompletionCannotSwitchPaymentMethodToSkipCommission(t *testing.T) {
	h := newHarness(t)
	svc := h.service()
	ctx := context.Background()

	booking, err := svc.Create(ctx, validCreate(1000, "provider_location"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, domain.UpdateBookingRequest{
		ID:            booking.ID.String(),
		Status:        strPtr("completed"),
		PaymentMethod: strPtr("online"),
	})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "payment_method", verr.Field)
	assert.Equal(t, int64(0), countRows(t, h.db, "commission_collections"))

	updated, err := complete(ctx, svc, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)
	assert.Equal(t, domain.PaymentStatusCompleted, updated.PaymentStatus)
	assert.Equal(t, int64(1), countRows(t, h.db, "commission_collections"))
}

func TestPaymentMethodLockedAfterBookingLeavesPending(t *testing.T) {
	h := newHarness(t)
	svc := h.service()
	ctx := context.Background()

	booking, err := svc.Create(ctx, validCreate(1000, "provider_location"))
	require.NoError(t, err)

	changed, err := svc.Update(ctx, domain.UpdateBookingRequest{ID: booking.ID.String(), PaymentMethod: strPtr("cod")})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentMethodCOD, changed.PaymentMethod)

	_, err = svc.Update(ctx, domain.UpdateBookingRequest{ID: booking.ID.String(), Status: strPtr("in_progress")})
	require.NoError(t, err)

	_, err = svc.Update(ctx, domain.UpdateBookingRequest{ID: booking.ID.String(), PaymentMethod: strPtr("online")})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "locked", verr.Code)

	updated, err := complete(ctx, svc, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)
	assert.Equal(t, int64(1), countRows(t, h.db, "commission_collections"))
}

func TestClientCannotRequestPendingCODCollection(t *testing.T) {
	h := newHarness(t)
	svc := h.service()
	ctx := context.Background()

	booking, err := svc.Create(ctx, validCreate(1000, "provider_location"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, domain.UpdateBookingRequest{ID: booking.ID.String(), Status: strPtr("pending_cod_collection")})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "invalid_transition", verr.Code)

	stored, err := svc.Get(ctx, domain.GetBookingRequest{ID: booking.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
}

func TestPaymentLookupFailureCompletesAsRequested(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	booking, err := h.service().Create(ctx, validCreate(1000, "provider_location"))
	require.NoError(t, err)

	p := h.params()
	p.PaymentSvc = failingPaymentLookup{Service: h.payments}
	svc := New(p)

	updated, err := complete(ctx, svc, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)
	assert.Equal(t, domain.PaymentStatusPending, updated.PaymentStatus)
	assert.Equal(t, int64(0), countRows(t, h.db, "commission_collections"))
}

func TestInvalidUpdateLeavesBookingUnchanged(t *testing.T) {
	h := newHarness(t)
	svc := h.service()
	ctx := context.Background()

	booking, err := svc.Create(ctx, validCreate(1000, "provider_location"))
	require.NoError(t, err)

	rating := 6.0
	cases := map[string]domain.UpdateBookingRequest{
		"status":         {ID: booking.ID.String(), Status: strPtr("done")},
		"payment_status": {ID: booking.ID.String(), PaymentStatus: strPtr("paid")},
		"rating":         {ID: booking.ID.String(), Rating: &rating, Review: strPtr("great")},
	}
	messages := map[string]bool{}
	for field, req := range cases {
		h.clk.Advance(time.Minute)
		_, err := svc.Update(ctx, req)
		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr), field)
		assert.Equal(t, field, verr.Field)
		messages[verr.Message] = true
	}
	assert.Len(t, messages, 3)

	stored, err := svc.Get(ctx, domain.GetBookingRequest{ID: booking.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Empty(t, stored.Review)
	assert.WithinDuration(t, start, stored.UpdatedAt, time.Millisecond)
}

func TestUpdateRejectsBackwardTransition(t *testing.T) {
	h := newHarness(t)
	svc := h.service()
	ctx := context.Background()

	booking, err := svc.Create(ctx, validCreate(1000, "provider_location"))
	require.NoError(t, err)
	_, err = svc.Update(ctx, domain.UpdateBookingRequest{ID: booking.ID.String(), Status: strPtr("in_progress")})
	require.NoError(t, err)

	_, err = svc.Update(ctx, domain.UpdateBookingRequest{ID: booking.ID.String(), Status: strPtr("confirmed")})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "invalid_transition", verr.Code)
}

func TestUpdateRequestErrors(t *testing.T) {
	h := newHarness(t)
	svc := h.service()
	ctx := context.Background()

	_, err := svc.Update(ctx, domain.UpdateBookingRequest{Status: strPtr("confirmed")})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.Update(ctx, domain.UpdateBookingRequest{ID: h.node.Generate().String(), Status: strPtr("confirmed")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSameStatusAppliesFieldsWithoutSideEffects(t *testing.T) {
	h := newHarness(t)
	svc := h.service()
	ctx := context.Background()

	booking, err := svc.Create(ctx, validCreate(1000, "provider_location"))
	require.NoError(t, err)

	rating := 4.5
	updated, err := svc.Update(ctx, domain.UpdateBookingRequest{
		ID:     booking.ID.String(),
		Status: strPtr("pending"),
		Rating: &rating,
		Review: strPtr(" quick fix "),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, updated.Status)
	require.NotNil(t, updated.Rating)
	assert.Equal(t, 4.5, *updated.Rating)
	assert.Equal(t, "quick fix", updated.Review)
	assert.Equal(t, []string{events.TypeBookingCreated}, h.events.types())
}

type staleRepo struct {
	domain.Repository
	stale domain.Booking
}

func (r staleRepo) FindByID(context.Context, *gorm.DB, snowflake.ID) (*domain.Booking, error) {
	b := r.stale
	return &b, nil
}

func TestUpdateConflictsWhenStatusMovedUnderneath(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	booking, err := h.service().Create(ctx, validCreate(1000, "provider_location"))
	require.NoError(t, err)
	require.NoError(t, h.db.Exec("UPDATE bookings SET status = ? WHERE id = ?", "confirmed", booking.ID).Error)

	p := h.params()
	p.Repo = staleRepo{Repository: h.repo, stale: booking}
	_, err = New(p).Update(ctx, domain.UpdateBookingRequest{ID: booking.ID.String(), Status: strPtr("completed")})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, int64(0), countRows(t, h.db, "commission_collections"))
}

func TestCompletionLockHeldElsewhereConflicts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	booking, err := h.service().Create(ctx, validCreate(1000, "provider_location"))
	require.NoError(t, err)

	p := h.params()
	p.Locker = lock.BookingLocker(busyLocker{})
	_, err = complete(ctx, New(p), booking.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	stored, err := h.service().Get(ctx, domain.GetBookingRequest{ID: booking.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
}

func TestSideEffectFailuresDoNotFailUpdate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	p := h.params()
	p.Notifier = panickingNotifier{}
	p.Email = &recordingEmail{err: errors.New("smtp down")}
	svc := New(p)

	booking, err := svc.Create(ctx, validCreate(1000, "provider_location"))
	require.NoError(t, err)

	updated, err := complete(ctx, svc, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)
	assert.Equal(t, int64(1), countRows(t, h.db, "commission_collections"))
	assert.Equal(t, []string{events.TypeBookingCreated, events.TypeBookingStatusChanged}, h.events.types())
}

func TestRunSideEffectsIsolatesEachTask(t *testing.T) {
	h := newHarness(t)
	svc := New(h.params()).(*Service)

	var ran []string
	results := svc.runSideEffects(context.Background(), h.node.Generate(), []sideEffect{
		{name: "first", run: func(context.Context) error { ran = append(ran, "first"); return errors.New("boom") }},
		{name: "second", run: func(context.Context) error { ran = append(ran, "second"); panic("kaboom") }},
		{name: "third", run: func(context.Context) error { ran = append(ran, "third"); return nil }},
	})

	assert.Equal(t, []string{"first", "second", "third"}, ran)
	require.Len(t, results, 3)
	assert.EqualError(t, results[0].err, "boom")
	assert.IsType(t, panicError{}, results[1].err)
	assert.NoError(t, results[2].err)
}

func TestListPagesSummaries(t *testing.T) {
	h := newHarness(t)
	svc := h.service()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, validCreate(int64(100*(i+1)), "provider_location"))
		require.NoError(t, err)
	}

	first, err := svc.List(ctx, domain.ListBookingRequest{CustomerID: "cust-1", PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Bookings, 2)
	assert.True(t, first.HasMore)
	assert.Equal(t, int64(300), first.Bookings[0].TotalAmount)

	second, err := svc.List(ctx, domain.ListBookingRequest{CustomerID: "cust-1", PageSize: 2, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.Bookings, 1)
	assert.Equal(t, int64(100), second.Bookings[0].TotalAmount)
	assert.False(t, second.HasMore)

	_, err = svc.List(ctx, domain.ListBookingRequest{Status: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
