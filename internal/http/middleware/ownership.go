package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/casbin/casbin/v2/util"
	"github.com/gin-gonic/gin"
	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/config"
	"github.com/you/schoolsvc/internal/http/respond"
)

// OwnershipMW is the per-record filter layered under the role gate
type OwnershipMW struct {
	policy domain.AccessPolicy
	rules  []config.OwnershipRule
}

// NewOwnershipMW creates the ownership middleware from configured rules
func NewOwnershipMW(policy domain.AccessPolicy, rules []config.OwnershipRule) *OwnershipMW {
	return &OwnershipMW{policy: policy, rules: rules}
}

// Enforce returns the ownership middleware. Routes without a rule pass; a
// rule whose parameter is absent passes and the handler narrows to the
// caller's own records.
func (mw *OwnershipMW) Enforce() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			respond.Abort(c, domain.ErrUnauthenticated)
			return
		}

		route := c.FullPath()
		for _, rule := range mw.rules {
			if !strings.EqualFold(rule.Method, c.Request.Method) || !util.KeyMatch2(route, rule.Path) {
				continue
			}
			raw := extractOwnerRef(c, rule.Source, rule.ParamName)
			if raw == "" {
				continue
			}
			ref, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				respond.Abort(c, fmt.Errorf("%w: %s must be a positive integer", domain.ErrValidation, rule.ParamName))
				return
			}
			if err := mw.policy.CheckOwnership(user, domain.OwnerKind(rule.Owner), uint(ref)); err != nil {
				respond.Abort(c, err)
				return
			}
		}

		c.Next()
	})
}
