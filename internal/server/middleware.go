package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/fixdesk/internal/observability/context"
)

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

// ActorContext copies the gateway-asserted actor headers onto the request
// context. Requests without them fail later in RequirePermission.
func (s *Server) ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderActorRole)))
		id := strings.TrimSpace(c.GetHeader(HeaderActorID))
		if role != "" || id != "" {
			ctx := obscontext.WithActor(c.Request.Context(), role, id)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// RequirePermission rejects the request unless the actor's role grants action on object.
func (s *Server) RequirePermission(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authorize(c, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
