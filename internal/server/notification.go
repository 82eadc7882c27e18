package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	notificationdomain "github.com/smallbiznis/fixdesk/internal/notification/domain"
	"github.com/smallbiznis/fixdesk/pkg/db/pagination"
)

// ListNotifications returns the caller's in-app feed. Admins may read any
// user's feed through user_id.
func (s *Server) ListNotifications(c *gin.Context) {
	var query struct {
		pagination.Pagination
		UserID   string `form:"user_id"`
		Type     string `form:"type"`
		Category string `form:"category"`
		Priority string `form:"priority"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	userID := actor.ID
	if isPrivileged(actor) && strings.TrimSpace(query.UserID) != "" {
		userID = strings.TrimSpace(query.UserID)
	}

	resp, err := s.notifySvc.List(c.Request.Context(), notificationdomain.ListNotificationRequest{
		UserID:    userID,
		Type:      query.Type,
		Category:  query.Category,
		Priority:  query.Priority,
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
