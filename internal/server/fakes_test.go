package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/fixdesk/internal/authorization"
	bookingdomain "github.com/smallbiznis/fixdesk/internal/booking/domain"
	commissiondomain "github.com/smallbiznis/fixdesk/internal/commission/domain"
	"github.com/smallbiznis/fixdesk/internal/config"
	notificationdomain "github.com/smallbiznis/fixdesk/internal/notification/domain"
	"github.com/smallbiznis/fixdesk/internal/observability"
	paymentdomain "github.com/smallbiznis/fixdesk/internal/payment/domain"
	"github.com/smallbiznis/fixdesk/internal/providers/pdf"
	"github.com/smallbiznis/fixdesk/pkg/db/dbtest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBookingService struct {
	bookings  map[snowflake.ID]bookingdomain.Booking
	created   []bookingdomain.CreateBookingRequest
	updated   []bookingdomain.UpdateBookingRequest
	listed    []bookingdomain.ListBookingRequest
	createErr error
	updateErr error
}

func newFakeBookingService(items ...bookingdomain.Booking) *fakeBookingService {
	f := &fakeBookingService{bookings: map[snowflake.ID]bookingdomain.Booking{}}
	for _, item := range items {
		f.bookings[item.ID] = item
	}
	return f
}

func (f *fakeBookingService) Create(ctx context.Context, req bookingdomain.CreateBookingRequest) (bookingdomain.Booking, error) {
	f.created = append(f.created, req)
	if f.createErr != nil {
		return bookingdomain.Booking{}, f.createErr
	}
	return bookingdomain.Booking{
		ID:         snowflake.ID(9001),
		CustomerID: req.CustomerID,
		ProviderID: req.ProviderID,
		Status:     bookingdomain.StatusPending,
	}, nil
}

func (f *fakeBookingService) Get(ctx context.Context, req bookingdomain.GetBookingRequest) (bookingdomain.Booking, error) {
	id, err := snowflake.ParseString(req.ID)
	if err != nil || id == 0 {
		return bookingdomain.Booking{}, bookingdomain.ErrInvalidID
	}
	item, ok := f.bookings[id]
	if !ok {
		return bookingdomain.Booking{}, bookingdomain.ErrNotFound
	}
	return item, nil
}

func (f *fakeBookingService) List(ctx context.Context, req bookingdomain.ListBookingRequest) (bookingdomain.ListBookingResponse, error) {
	f.listed = append(f.listed, req)
	return bookingdomain.ListBookingResponse{Bookings: []bookingdomain.Summary{}}, nil
}

func (f *fakeBookingService) Update(ctx context.Context, req bookingdomain.UpdateBookingRequest) (bookingdomain.Booking, error) {
	f.updated = append(f.updated, req)
	if f.updateErr != nil {
		return bookingdomain.Booking{}, f.updateErr
	}
	item, err := f.Get(ctx, bookingdomain.GetBookingRequest{ID: req.ID})
	if err != nil {
		return bookingdomain.Booking{}, err
	}
	if req.Status != nil {
		item.Status = bookingdomain.Status(*req.Status)
	}
	item.Rating = req.Rating
	return item, nil
}

type fakePaymentService struct {
	recorded []paymentdomain.RecordPaymentRequest
	payments map[snowflake.ID]paymentdomain.Payment
}

func (f *fakePaymentService) Record(ctx context.Context, req paymentdomain.RecordPaymentRequest) (paymentdomain.Payment, error) {
	f.recorded = append(f.recorded, req)
	id, err := snowflake.ParseString(req.BookingID)
	if err != nil {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidBookingID
	}
	if req.PaymentMethod == "" {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidPaymentMethod
	}
	return paymentdomain.Payment{ID: snowflake.ID(77), BookingID: id, PaymentMethod: req.PaymentMethod}, nil
}

func (f *fakePaymentService) GetByBookingID(ctx context.Context, bookingID snowflake.ID) (paymentdomain.Payment, error) {
	item, ok := f.payments[bookingID]
	if !ok {
		return paymentdomain.Payment{}, paymentdomain.ErrNotFound
	}
	return item, nil
}

func (f *fakePaymentService) MarkCommissionTracking(ctx context.Context, bookingID snowflake.ID) error {
	return nil
}

func (f *fakePaymentService) MarkCommissionSettled(ctx context.Context, bookingID snowflake.ID) error {
	return nil
}

type fakeCommissionService struct {
	items   map[string]commissiondomain.Collection
	settled []commissiondomain.SettleRequest
	listed  []commissiondomain.ListCollectionRequest
}

func (f *fakeCommissionService) Open(ctx context.Context, req commissiondomain.OpenRequest) (commissiondomain.OpenResult, error) {
	return commissiondomain.OpenResult{}, nil
}

func (f *fakeCommissionService) Settle(ctx context.Context, req commissiondomain.SettleRequest) (commissiondomain.Collection, error) {
	f.settled = append(f.settled, req)
	item, ok := f.items[req.ID]
	if !ok {
		return commissiondomain.Collection{}, commissiondomain.ErrNotFound
	}
	item.Status = commissiondomain.StatusCompleted
	item.Reference = req.Reference
	return item, nil
}

func (f *fakeCommissionService) MarkOverdue(ctx context.Context, now time.Time, limit int) (int64, error) {
	return 0, nil
}

func (f *fakeCommissionService) Get(ctx context.Context, id string) (commissiondomain.Collection, error) {
	item, ok := f.items[id]
	if !ok {
		return commissiondomain.Collection{}, commissiondomain.ErrNotFound
	}
	return item, nil
}

func (f *fakeCommissionService) List(ctx context.Context, req commissiondomain.ListCollectionRequest) (commissiondomain.ListCollectionResponse, error) {
	f.listed = append(f.listed, req)
	return commissiondomain.ListCollectionResponse{Collections: []commissiondomain.Collection{}}, nil
}

type fakeNotificationService struct {
	listed []notificationdomain.ListNotificationRequest
}

func (f *fakeNotificationService) Notify(ctx context.Context, req notificationdomain.NotifyRequest) (notificationdomain.Notification, error) {
	return notificationdomain.Notification{}, nil
}

func (f *fakeNotificationService) List(ctx context.Context, req notificationdomain.ListNotificationRequest) (notificationdomain.ListNotificationResponse, error) {
	f.listed = append(f.listed, req)
	return notificationdomain.ListNotificationResponse{Notifications: []notificationdomain.Notification{}}, nil
}

type fakePDFProvider struct {
	generated []pdf.CommissionStatement
	err       error
}

func (f *fakePDFProvider) GenerateCommissionStatement(ctx context.Context, data pdf.CommissionStatement) (io.Reader, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.generated = append(f.generated, data)
	return bytes.NewReader([]byte("%PDF-fake")), nil
}

type testServer struct {
	server      *Server
	bookings    *fakeBookingService
	payments    *fakePaymentService
	commissions *fakeCommissionService
	notifier    *fakeNotificationService
	pdf         *fakePDFProvider
}

func newTestServer(t *testing.T, bookings ...bookingdomain.Booking) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	enforcer, err := authorization.NewEnforcer(dbtest.Open(t))
	require.NoError(t, err)

	ts := &testServer{
		bookings:    newFakeBookingService(bookings...),
		payments:    &fakePaymentService{payments: map[snowflake.ID]paymentdomain.Payment{}},
		commissions: &fakeCommissionService{items: map[string]commissiondomain.Collection{}},
		notifier:    &fakeNotificationService{},
		pdf:         &fakePDFProvider{},
	}
	ts.server = NewServer(ServerParams{
		Gin:           NewEngine(observability.Config{Environment: "test"}, nil),
		Cfg:           config.Config{Environment: "test"},
		Log:           zap.NewNop(),
		AuthzSvc:      authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer}),
		BookingSvc:    ts.bookings,
		PaymentSvc:    ts.payments,
		CommissionSvc: ts.commissions,
		NotifySvc:     ts.notifier,
		PDF:           ts.pdf,
	})
	return ts
}

type actorHeaders struct {
	role string
	id   string
}

func (ts *testServer) do(t *testing.T, method, path string, actor *actorHeaders, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch value := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(value))
	default:
		payload, err := json.Marshal(value)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set(HeaderActorRole, actor.role)
		req.Header.Set(HeaderActorID, actor.id)
	}
	rec := httptest.NewRecorder()
	ts.server.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

var (
	customerActor = &actorHeaders{role: authorization.RoleCustomer, id: "cust-1"}
	providerActor = &actorHeaders{role: authorization.RoleProvider, id: "prov-1"}
	adminActor    = &actorHeaders{role: authorization.RoleAdmin, id: "ops-1"}
)

func sampleBooking(id int64) bookingdomain.Booking {
	return bookingdomain.Booking{
		ID:            snowflake.ID(id),
		CustomerID:    "cust-1",
		ProviderID:    "prov-1",
		DeviceID:      "dev-1",
		ServiceID:     "svc-1",
		TotalAmount:   1500,
		Status:        bookingdomain.StatusInProgress,
		PaymentStatus: bookingdomain.PaymentStatusPending,
	}
}
