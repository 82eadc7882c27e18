package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor Actor, object string, action string) error {
	role := strings.ToLower(strings.TrimSpace(actor.Role))
	id := strings.TrimSpace(actor.ID)
	if !KnownRole(role) || id == "" {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := fmt.Sprintf("%s:%s", role, id)
	roleName := fmt.Sprintf("role:%s", role)
	if err := s.ensureGrouping(subject, roleName); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Info("authorization denied",
			zap.String("subject", subject),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Customers book and follow their own repairs.
		{"role:customer", ObjectBooking, ActionBookingCreate},
		{"role:customer", ObjectBooking, ActionBookingView},
		{"role:customer", ObjectBooking, ActionBookingUpdate},
		{"role:customer", ObjectPayment, ActionPaymentView},
		{"role:customer", ObjectNotification, ActionNotificationView},

		// Providers fulfil bookings; payment records come from the gateway or ops.
		{"role:provider", ObjectBooking, ActionBookingView},
		{"role:provider", ObjectBooking, ActionBookingUpdate},
		{"role:provider", ObjectPayment, ActionPaymentView},
		{"role:provider", ObjectCommission, ActionCommissionView},
		{"role:provider", ObjectNotification, ActionNotificationView},

		{"role:admin", ObjectBooking, ActionBookingCreate},
		{"role:admin", ObjectBooking, ActionBookingView},
		{"role:admin", ObjectBooking, ActionBookingUpdate},
		{"role:admin", ObjectPayment, ActionPaymentRecord},
		{"role:admin", ObjectPayment, ActionPaymentView},
		{"role:admin", ObjectCommission, ActionCommissionView},
		{"role:admin", ObjectCommission, ActionCommissionSettle},
		{"role:admin", ObjectNotification, ActionNotificationView},

		// System covers the gateway callback and scheduled jobs.
		{"role:system", ObjectBooking, ActionBookingView},
		{"role:system", ObjectBooking, ActionBookingUpdate},
		{"role:system", ObjectPayment, ActionPaymentRecord},
		{"role:system", ObjectPayment, ActionPaymentView},
		{"role:system", ObjectCommission, ActionCommissionView},
		{"role:system", ObjectCommission, ActionCommissionSettle},
		{"role:system", ObjectCommission, ActionCommissionAge},
	}

	// Grants removed from earlier releases that may still sit in the policy table.
	revoked := [][]string{
		{"role:provider", ObjectPayment, ActionPaymentRecord},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	for _, policy := range revoked {
		if _, err := enforcer.RemovePolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
