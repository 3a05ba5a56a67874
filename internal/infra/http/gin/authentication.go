package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"elaview/internal/app/middleware"
	domainuser "elaview/internal/domain/user"
)

const (
	userIDHeader        = "X-User-ID"
	userRoleHeader      = "X-User-Role"
	principalContextKey = "elaview.principal"
)

// IdentityMiddleware trusts the caller identity forwarded by the auth proxy.
// Requests without a usable identity pass through anonymously.
type IdentityMiddleware struct {
	Logger *slog.Logger
}

func (m IdentityMiddleware) Handle(c *gin.Context) {
	id := strings.TrimSpace(c.GetHeader(userIDHeader))
	if id == "" {
		c.Next()
		return
	}
	role, err := domainuser.ParseRole(c.GetHeader(userRoleHeader))
	if err != nil {
		if m.Logger != nil {
			m.Logger.Debug("ignoring identity with unknown role", "user_id", id, "role", c.GetHeader(userRoleHeader))
		}
		c.Next()
		return
	}
	setPrincipal(c, domainuser.Principal{ID: id, Role: role})
	c.Next()
}

func setPrincipal(c *gin.Context, p domainuser.Principal) {
	c.Set(principalContextKey, p)
	c.Set("user_id", p.ID)
	c.Request = c.Request.WithContext(middleware.ContextWithPrincipal(c.Request.Context(), p))
}

func currentPrincipal(c *gin.Context) (domainuser.Principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return domainuser.Principal{}, false
	}
	p, ok := val.(domainuser.Principal)
	return p, ok
}

// requireRole aborts with 401 or 403 unless the caller holds role. An empty
// role only requires an identified caller.
func requireRole(c *gin.Context, role domainuser.Role) (domainuser.Principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return domainuser.Principal{}, false
	}
	if role != "" && p.Role != role {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		return domainuser.Principal{}, false
	}
	return p, true
}
