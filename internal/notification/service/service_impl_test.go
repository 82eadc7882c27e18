package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fixdesk/internal/clock"
	"github.com/smallbiznis/fixdesk/internal/notification/domain"
	"github.com/smallbiznis/fixdesk/internal/notification/repository"
	"github.com/smallbiznis/fixdesk/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupNotificationService(t *testing.T) (domain.Service, *snowflake.Node) {
	t.Helper()

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	svc := New(Params{
		DB:    dbtest.Open(t),
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
	return svc, node
}

func TestNotifyStoresEntry(t *testing.T) {
	svc, node := setupNotificationService(t)
	bookingID := node.Generate()

	title, msg := domain.StatusMessage("confirmed", domain.AudienceCustomer)
	n, err := svc.Notify(context.Background(), domain.NotifyRequest{
		UserID:    "cust-1",
		BookingID: bookingID,
		Audience:  domain.AudienceCustomer,
		Title:     title,
		Message:   msg,
		Metadata:  map[string]any{"status": "confirmed"},
	})
	require.NoError(t, err)
	assert.NotZero(t, n.ID)

	res, err := svc.List(context.Background(), domain.ListNotificationRequest{UserID: "cust-1"})
	require.NoError(t, err)
	require.Len(t, res.Notifications, 1)
	got := res.Notifications[0]
	assert.Equal(t, bookingID, got.BookingID)
	assert.Equal(t, "Booking confirmed", got.Title)
	assert.Equal(t, domain.AudienceCustomer, got.Audience)
	assert.Equal(t, "confirmed", got.Metadata["status"])
	assert.Equal(t, domain.TypeBooking, got.Type)
	assert.Equal(t, domain.CategoryGeneral, got.Category)
	assert.Equal(t, domain.PriorityNormal, got.Priority)
	assert.False(t, res.HasMore)
}

func TestNotifyRejectsMissingFields(t *testing.T) {
	svc, node := setupNotificationService(t)

	_, err := svc.Notify(context.Background(), domain.NotifyRequest{BookingID: node.Generate(), Message: "hi"})
	assert.ErrorIs(t, err, domain.ErrInvalidUserID)

	_, err = svc.Notify(context.Background(), domain.NotifyRequest{UserID: "u", BookingID: node.Generate(), Message: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidMessage)
}

func TestListPagesNewestFirst(t *testing.T) {
	svc, node := setupNotificationService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Notify(ctx, domain.NotifyRequest{
			UserID:    "prov-1",
			BookingID: node.Generate(),
			Audience:  domain.AudienceProvider,
			Title:     "t",
			Message:   "m",
		})
		require.NoError(t, err)
	}
	_, err := svc.Notify(ctx, domain.NotifyRequest{UserID: "someone-else", BookingID: node.Generate(), Message: "m"})
	require.NoError(t, err)

	first, err := svc.List(ctx, domain.ListNotificationRequest{UserID: "prov-1", PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Notifications, 2)
	assert.True(t, first.HasMore)
	assert.Greater(t, first.Notifications[0].ID, first.Notifications[1].ID)

	second, err := svc.List(ctx, domain.ListNotificationRequest{UserID: "prov-1", PageSize: 2, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.Notifications, 1)
	assert.False(t, second.HasMore)
	assert.Less(t, second.Notifications[0].ID, first.Notifications[1].ID)
}

func TestListRejectsBadToken(t *testing.T) {
	svc, _ := setupNotificationService(t)

	_, err := svc.List(context.Background(), domain.ListNotificationRequest{UserID: "u", PageToken: "%%%"})
	assert.Error(t, err)
}

func TestListFiltersByClassification(t *testing.T) {
	svc, node := setupNotificationService(t)
	ctx := context.Background()

	requests := []domain.NotifyRequest{
		{Category: domain.CategoryBookingStatus, Priority: domain.PriorityHigh, Message: "cash due"},
		{Category: domain.CategoryBookingStatus, Priority: domain.PriorityNormal, Message: "confirmed"},
		{Category: "promotion", Message: "ten percent off"},
	}
	for _, req := range requests {
		req.UserID = "cust-1"
		req.BookingID = node.Generate()
		req.Audience = domain.AudienceCustomer
		_, err := svc.Notify(ctx, req)
		require.NoError(t, err)
	}

	high, err := svc.List(ctx, domain.ListNotificationRequest{UserID: "cust-1", Priority: "HIGH"})
	require.NoError(t, err)
	require.Len(t, high.Notifications, 1)
	assert.Equal(t, "cash due", high.Notifications[0].Message)

	status, err := svc.List(ctx, domain.ListNotificationRequest{UserID: "cust-1", Type: "booking", Category: domain.CategoryBookingStatus})
	require.NoError(t, err)
	assert.Len(t, status.Notifications, 2)

	promo, err := svc.List(ctx, domain.ListNotificationRequest{UserID: "cust-1", Category: "promotion"})
	require.NoError(t, err)
	require.Len(t, promo.Notifications, 1)
	assert.Equal(t, domain.PriorityNormal, promo.Notifications[0].Priority)
}

func TestPriorityMustBeKnown(t *testing.T) {
	svc, node := setupNotificationService(t)
	ctx := context.Background()

	_, err := svc.Notify(ctx, domain.NotifyRequest{UserID: "u", BookingID: node.Generate(), Message: "m", Priority: "urgent"})
	assert.ErrorIs(t, err, domain.ErrInvalidPriority)

	_, err = svc.List(ctx, domain.ListNotificationRequest{UserID: "u", Priority: "urgent"})
	assert.ErrorIs(t, err, domain.ErrInvalidPriority)
}
