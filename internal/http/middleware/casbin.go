package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/http/respond"
	"github.com/you/schoolsvc/internal/metrics"
)

// Grant names the permission that can stand in for a failed role check
type Grant struct {
	Resource string
	Action   string
}

// CasbinMW is the role gate: casbin decides whether the user's role may call
// the route; an explicit permission grant can open a route the role cannot.
type CasbinMW struct {
	enforcer domain.CasbinEnforcer
	policy   domain.AccessPolicy
	grants   map[string]Grant
	metrics  *metrics.Metrics
}

// NewCasbinMW creates new casbin middleware wrapper. grants is keyed by
// "METHOD /route/pattern".
func NewCasbinMW(enforcer domain.CasbinEnforcer, policy domain.AccessPolicy, grants map[string]Grant, m *metrics.Metrics) *CasbinMW {
	if grants == nil {
		grants = map[string]Grant{}
	}
	return &CasbinMW{enforcer: enforcer, policy: policy, grants: grants, metrics: m}
}

// GrantKey builds the lookup key of grants
func GrantKey(method, path string) string {
	return method + " " + path
}

// Enforce returns the casbin authorization middleware
func (mw *CasbinMW) Enforce() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			respond.Abort(c, domain.ErrUnauthenticated)
			return
		}

		// Use parameterized path for Casbin matching
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		allowed, err := mw.enforcer.Enforce(user.Role.PolicySubject(), path, method)
		if err != nil {
			respond.Abort(c, fmt.Errorf("enforce role policy: %w", err))
			return
		}
		mw.metrics.Decision("role_gate", allowed)

		if !allowed {
			if g, ok := mw.grants[GrantKey(method, path)]; ok && mw.policy.Authorize(user, g.Resource, g.Action) == nil {
				allowed = true
			}
		}

		if !allowed {
			respond.Abort(c, domain.ErrAccessDenied)
			return
		}

		c.Next()
	})
}

// RequirePermission checks the fine-grained grant list after the role gate
func RequirePermission(policy domain.AccessPolicy, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			respond.Abort(c, domain.ErrUnauthenticated)
			return
		}
		if err := policy.Authorize(user, resource, action); err != nil {
			respond.Abort(c, err)
			return
		}
		c.Next()
	}
}
