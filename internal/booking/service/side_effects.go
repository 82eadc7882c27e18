package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fixdesk/internal/booking/domain"
	commissiondomain "github.com/smallbiznis/fixdesk/internal/commission/domain"
	"github.com/smallbiznis/fixdesk/internal/events"
	notificationdomain "github.com/smallbiznis/fixdesk/internal/notification/domain"
	"github.com/smallbiznis/fixdesk/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	taskCommissionOpen        = "commission.open"
	taskPaymentTrackingMarked = "payment.mark_commission_tracking"
	taskNotifyCustomer        = "notify.customer"
	taskNotifyProvider        = "notify.provider"
	taskEmail                 = "email"
	taskEventPublish          = "event.publish"
)

type sideEffect struct {
	name string
	run  func(ctx context.Context) error
}

type sideEffectResult struct {
	task string
	err  error
}

// runSideEffects executes tasks in order after the booking write. A task
// that fails or panics is logged and counted; it never stops the tasks
// after it and never reaches the caller.
func (s *Service) runSideEffects(ctx context.Context, bookingID snowflake.ID, tasks []sideEffect) []sideEffectResult {
	ctx = context.WithoutCancel(ctx)
	log := logger.WithBooking(logger.WithContext(ctx, s.log), bookingID.String())

	results := make([]sideEffectResult, 0, len(tasks))
	for _, task := range tasks {
		err := runIsolated(ctx, task)
		results = append(results, sideEffectResult{task: task.name, err: err})
		if err == nil {
			continue
		}
		reason := "error"
		if _, ok := err.(panicError); ok {
			reason = "panic"
		}
		s.obsMetrics.RecordSideEffectFailure(ctx, task.name, reason)
		log.Warn("booking side effect failed",
			zap.String("task", task.name),
			zap.String("reason", reason),
			zap.Error(err),
		)
	}
	return results
}

type panicError struct {
	value any
}

func (p panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}

func runIsolated(ctx context.Context, task sideEffect) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{value: r}
		}
	}()
	return task.run(ctx)
}

func (s *Service) createdSideEffects(b domain.Booking) []sideEffect {
	tasks := s.notifyTasks(b, "pending")
	if s.email != nil {
		tasks = append(tasks, sideEffect{name: taskEmail, run: func(ctx context.Context) error {
			return s.sendEmails(ctx, b, "new_booking", b.CustomerEmail, b.ProviderEmail)
		}})
	}
	tasks = append(tasks, s.publishTask(events.TypeBookingCreated, b, map[string]any{
		"status":         string(b.Status),
		"payment_status": string(b.PaymentStatus),
		"total_amount":   b.TotalAmount,
		"customer_id":    b.CustomerID,
		"provider_id":    b.ProviderID,
	}))
	return tasks
}

func (s *Service) updatedSideEffects(b domain.Booking, plan *commissionPlan, statusChanged bool) []sideEffect {
	var tasks []sideEffect
	if plan != nil {
		tasks = append(tasks, sideEffect{name: taskCommissionOpen, run: func(ctx context.Context) error {
			_, err := s.commissionSvc.Open(ctx, commissiondomain.OpenRequest{
				BookingID:  b.ID,
				ProviderID: b.ProviderID,
				Amount:     plan.amount,
			})
			return err
		}})
		if plan.trackPayment {
			tasks = append(tasks, sideEffect{name: taskPaymentTrackingMarked, run: func(ctx context.Context) error {
				return s.paymentSvc.MarkCommissionTracking(ctx, b.ID)
			}})
		}
	}
	if !statusChanged {
		return tasks
	}

	tasks = append(tasks, s.notifyTasks(b, string(b.Status))...)
	if template := emailTemplateFor(b.Status); template != "" && s.email != nil {
		tasks = append(tasks, sideEffect{name: taskEmail, run: func(ctx context.Context) error {
			return s.sendEmails(ctx, b, template, b.CustomerEmail)
		}})
	}
	data := map[string]any{
		"status":         string(b.Status),
		"payment_status": string(b.PaymentStatus),
	}
	if plan != nil {
		data["commission_amount"] = plan.amount
	}
	tasks = append(tasks, s.publishTask(events.TypeBookingStatusChanged, b, data))
	return tasks
}

func (s *Service) notifyTasks(b domain.Booking, status string) []sideEffect {
	if s.notifier == nil {
		return nil
	}
	notify := func(userID string, audience notificationdomain.Audience) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			title, message := notificationdomain.StatusMessage(status, audience)
			_, err := s.notifier.Notify(ctx, notificationdomain.NotifyRequest{
				UserID:    userID,
				BookingID: b.ID,
				Audience:  audience,
				Type:      notificationdomain.TypeBooking,
				Category:  notificationdomain.CategoryBookingStatus,
				Priority:  notificationPriority(status),
				Title:     title,
				Message:   message,
				Metadata: map[string]any{
					"status":     status,
					"booking_id": b.ID.String(),
				},
			})
			return err
		}
	}
	return []sideEffect{
		{name: taskNotifyCustomer, run: notify(b.CustomerID, notificationdomain.AudienceCustomer)},
		{name: taskNotifyProvider, run: notify(b.ProviderID, notificationdomain.AudienceProvider)},
	}
}

func (s *Service) sendEmails(ctx context.Context, b domain.Booking, template string, recipients ...string) error {
	data := map[string]any{
		"booking_id":       b.ID.String(),
		"appointment_time": b.AppointmentTime.Format(time.RFC1123),
		"total_amount":     strconv.FormatInt(b.TotalAmount, 10),
		"status":           string(b.Status),
		"reason":           b.CancellationReason,
	}
	sent := 0
	for _, to := range recipients {
		if to == "" {
			continue
		}
		if err := s.email.SendEmail(ctx, notificationdomain.EmailMessage{To: to, Template: template, Data: data}); err != nil {
			return err
		}
		sent++
	}
	if sent == 0 {
		s.log.Debug("no email recipient on booking", zap.String("booking_id", b.ID.String()))
	}
	return nil
}

func (s *Service) publishTask(eventType string, b domain.Booking, data map[string]any) sideEffect {
	return sideEffect{name: taskEventPublish, run: func(ctx context.Context) error {
		return s.events.Publish(ctx, events.NewEvent(eventType, b.ID.String(), s.clock.Now(), data))
	}}
}

func emailTemplateFor(status domain.Status) string {
	switch status {
	case domain.StatusConfirmed:
		return "booking_confirmed"
	case domain.StatusInProgress:
		return "booking_started"
	case domain.StatusCompleted:
		return "booking_completed"
	case domain.StatusCancelled:
		return "booking_cancelled"
	default:
		return ""
	}
}

func notificationPriority(status string) notificationdomain.Priority {
	switch domain.Status(status) {
	case domain.StatusCancelled, domain.StatusDisputed, domain.StatusPendingCODCollection:
		return notificationdomain.PriorityHigh
	default:
		return notificationdomain.PriorityNormal
	}
}
