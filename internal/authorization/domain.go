package authorization

import (
	"context"
	"errors"
)

const (
	RoleCustomer = "customer"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
	RoleSystem   = "system"
)

const (
	ObjectBooking      = "booking"
	ObjectPayment      = "payment"
	ObjectCommission   = "commission"
	ObjectNotification = "notification"
)

const (
	ActionBookingCreate = "booking.create"
	ActionBookingView   = "booking.view"
	ActionBookingUpdate = "booking.update"

	ActionPaymentRecord = "payment.record"
	ActionPaymentView   = "payment.view"

	ActionCommissionView   = "commission.view"
	ActionCommissionSettle = "commission.settle"
	ActionCommissionAge    = "commission.age"

	ActionNotificationView = "notification.view"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)

// Actor is the authenticated caller, as asserted by the upstream gateway.
type Actor struct {
	Role string
	ID   string
}

type Service interface {
	Authorize(ctx context.Context, actor Actor, object string, action string) error
}

// KnownRole reports whether role has a policy set.
func KnownRole(role string) bool {
	switch role {
	case RoleCustomer, RoleProvider, RoleAdmin, RoleSystem:
		return true
	default:
		return false
	}
}
