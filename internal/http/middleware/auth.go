package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/you/schoolsvc/domain"
)

const (
	userKey   = "user"
	claimsKey = "claims"
)

// AuthMW wraps the token service, denylist and user store for middleware
type AuthMW struct {
	tokenSvc domain.TokenService
	denylist domain.TokenDenylist
	users    domain.UserRepository
}

// NewAuthMW creates new auth middleware wrapper
func NewAuthMW(tokenSvc domain.TokenService, denylist domain.TokenDenylist, users domain.UserRepository) *AuthMW {
	return &AuthMW{
		tokenSvc: tokenSvc,
		denylist: denylist,
		users:    users,
	}
}

// WithJWT returns the JWT middleware function
func (mw *AuthMW) WithJWT() gin.HandlerFunc {
	return AuthMiddleware(mw.tokenSvc, mw.denylist, mw.users)
}

// SetSession attaches the authenticated user and its token claims to c
func SetSession(c *gin.Context, user *domain.User, claims *domain.TokenClaims) {
	c.Set(userKey, user)
	c.Set(claimsKey, claims)
}

// CurrentUser returns the live user resolved by AuthMiddleware
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok && u != nil
}

// CurrentClaims returns the validated token claims
func CurrentClaims(c *gin.Context) (*domain.TokenClaims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*domain.TokenClaims)
	return claims, ok && claims != nil
}
