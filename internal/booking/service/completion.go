package service

import (
	"context"

	"github.com/smallbiznis/fixdesk/internal/booking/domain"
	paymentdomain "github.com/smallbiznis/fixdesk/internal/payment/domain"
	"go.uber.org/zap"
)

type commissionPlan struct {
	amount int64
	// trackPayment is set when a payment record exists and must be flagged
	// as owing an unsettled commission.
	trackPayment bool
}

type completionOutcome struct {
	status        domain.Status
	paymentStatus domain.PaymentStatus
	commission    *commissionPlan
}

// resolveCompletion decides what a request to complete the booking really
// means, based on how and where the customer pays.
func (s *Service) resolveCompletion(ctx context.Context, log *zap.Logger, current *domain.Booking, merged *domain.Booking) completionOutcome {
	honour := completionOutcome{status: domain.StatusCompleted, paymentStatus: merged.PaymentStatus}

	record, err := s.paymentSvc.GetByBookingID(ctx, current.ID)
	var payment *paymentdomain.Payment
	switch {
	case err == nil:
		payment = &record
	case isNotFound(err):
	default:
		log.Warn("payment record lookup failed, completing as requested", zap.Error(err))
		return honour
	}

	if !isCashOnDelivery(payment, current) {
		return honour
	}

	switch current.LocationType {
	case domain.LocationTypeProviderLocation:
		amount := s.policy.Get().CommissionFor(current.TotalAmount)
		if payment != nil && payment.CommissionAmount > 0 {
			amount = payment.CommissionAmount
		}
		return completionOutcome{
			status:        domain.StatusCompleted,
			paymentStatus: domain.PaymentStatusCompleted,
			commission:    &commissionPlan{amount: amount, trackPayment: payment != nil},
		}
	case domain.LocationTypeDoorstep:
		if merged.PaymentStatus == domain.PaymentStatusCompleted {
			return honour
		}
		return completionOutcome{status: domain.StatusPendingCODCollection, paymentStatus: merged.PaymentStatus}
	default:
		return honour
	}
}

// isCashOnDelivery prefers the payment record, then the stored payment
// method, then the legacy rule that an unpaid booking is paid in cash. It
// never looks at the incoming patch.
func isCashOnDelivery(payment *paymentdomain.Payment, current *domain.Booking) bool {
	if payment != nil {
		return payment.IsCashOnDelivery()
	}
	if current.PaymentMethod != "" {
		return current.PaymentMethod == domain.PaymentMethodCOD
	}
	return current.PaymentStatus == domain.PaymentStatusPending
}
