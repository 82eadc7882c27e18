package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/fixdesk/internal/authorization"
	bookingdomain "github.com/smallbiznis/fixdesk/internal/booking/domain"
	commissiondomain "github.com/smallbiznis/fixdesk/internal/commission/domain"
	obscontext "github.com/smallbiznis/fixdesk/internal/observability/context"
	"github.com/smallbiznis/fixdesk/internal/observability/logger"
	"go.uber.org/zap"
)

func (s *Server) authorize(c *gin.Context, object, action string) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return ErrUnauthorized
	}
	if s.authzSvc == nil {
		return ErrForbidden
	}
	if err := s.authzSvc.Authorize(c.Request.Context(), actor, object, action); err != nil {
		logger.FromContext(c.Request.Context()).Debug("request not authorized",
			zap.String("actor_role", actor.Role),
			zap.String("object", object),
			zap.String("action", action),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func actorFromContext(c *gin.Context) (authorization.Actor, bool) {
	if c == nil || c.Request == nil {
		return authorization.Actor{}, false
	}
	role, id := obscontext.ActorFromContext(c.Request.Context())
	if role == "" || id == "" {
		return authorization.Actor{}, false
	}
	return authorization.Actor{Role: role, ID: id}, true
}

// isPrivileged reports whether the actor sees every booking rather than only its own.
func isPrivileged(actor authorization.Actor) bool {
	return actor.Role == authorization.RoleAdmin || actor.Role == authorization.RoleSystem
}

// scopeBookingFilter pins list filters to the caller for customers and providers.
func scopeBookingFilter(actor authorization.Actor, customerID, providerID string) (string, string) {
	switch actor.Role {
	case authorization.RoleCustomer:
		return actor.ID, strings.TrimSpace(providerID)
	case authorization.RoleProvider:
		return strings.TrimSpace(customerID), actor.ID
	default:
		return strings.TrimSpace(customerID), strings.TrimSpace(providerID)
	}
}

// canAccessBooking reports whether the actor is a party to the booking.
func canAccessBooking(actor authorization.Actor, booking bookingdomain.Booking) bool {
	if isPrivileged(actor) {
		return true
	}
	switch actor.Role {
	case authorization.RoleCustomer:
		return booking.CustomerID == actor.ID
	case authorization.RoleProvider:
		return booking.ProviderID == actor.ID
	default:
		return false
	}
}

func canAccessCommission(actor authorization.Actor, item commissiondomain.Collection) bool {
	if isPrivileged(actor) {
		return true
	}
	return actor.Role == authorization.RoleProvider && item.ProviderID == actor.ID
}
