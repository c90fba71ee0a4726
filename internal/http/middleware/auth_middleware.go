package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/http/respond"
)

// AuthMiddleware verifies the bearer token, rejects revoked tokens and
// resolves the embedded user id to a live record.
func AuthMiddleware(tokenSvc domain.TokenService, denylist domain.TokenDenylist, users domain.UserRepository) gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		// Get Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respond.Abort(c, fmt.Errorf("%w: authorization header required", domain.ErrUnauthenticated))
			return
		}

		// Check Bearer token format
		tokenParts := strings.SplitN(authHeader, " ", 2)
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" || strings.TrimSpace(tokenParts[1]) == "" {
			respond.Abort(c, fmt.Errorf("%w: invalid authorization header format", domain.ErrUnauthenticated))
			return
		}

		claims, err := tokenSvc.ValidateAccessToken(strings.TrimSpace(tokenParts[1]))
		if err != nil {
			if domain.KindOf(err) != domain.KindUnauthenticated {
				err = domain.ErrTokenInvalid
			}
			respond.Abort(c, err)
			return
		}

		ctx := c.Request.Context()
		if denylist != nil {
			revoked, err := denylist.IsRevoked(ctx, claims.TokenID)
			if err != nil {
				respond.Abort(c, fmt.Errorf("check token revocation: %w", err))
				return
			}
			if revoked {
				respond.Abort(c, domain.ErrTokenRevoked)
				return
			}
		}

		// The token is only as good as the account behind it
		user, err := users.FindByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				respond.Abort(c, fmt.Errorf("%w: user no longer exists", domain.ErrUnauthenticated))
				return
			}
			respond.Abort(c, fmt.Errorf("load session user: %w", err))
			return
		}

		SetSession(c, user, claims)
		c.Set("user_id", fmt.Sprintf("%d", user.ID))
		c.Set("user_role", string(user.Role))
		c.Set("token_id", claims.TokenID)

		c.Request = c.Request.WithContext(domain.WithClientContext(ctx, &domain.ClientContext{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}))

		c.Next()
	})
}
