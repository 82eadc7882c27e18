package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type RecordPaymentRequest struct {
	BookingID        string
	PaymentMethod    string
	GatewayReference string
}

type Service interface {
	Record(ctx context.Context, req RecordPaymentRequest) (Payment, error)
	GetByBookingID(ctx context.Context, bookingID snowflake.ID) (Payment, error)
	// MarkCommissionTracking flags the record as owing an unsettled commission.
	MarkCommissionTracking(ctx context.Context, bookingID snowflake.ID) error
	// MarkCommissionSettled is called only by commission settlement.
	MarkCommissionSettled(ctx context.Context, bookingID snowflake.ID) error
}

var (
	ErrInvalidBookingID     = errors.New("invalid_booking_id")
	ErrInvalidPaymentMethod = errors.New("invalid_payment_method")
	ErrBookingNotFound      = errors.New("booking_not_found")
	ErrNotFound             = errors.New("payment_not_found")
)
