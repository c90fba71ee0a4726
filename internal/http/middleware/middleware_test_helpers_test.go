package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/http/respond"
)

// createTestEnforcer creates a Casbin enforcer with the role-gate model for testing
func createTestEnforcer(t *testing.T, policies ...[]string) *casbin.Enforcer {
	t.Helper()

	modelText := `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`
	m, err := model.NewModelFromString(modelText)
	require.NoError(t, err)
	e, err := casbin.NewEnforcer(m)
	require.NoError(t, err)
	for _, p := range policies {
		_, err := e.AddPolicy(p[0], p[1], p[2])
		require.NoError(t, err)
	}
	return e
}

// withUser installs u as the authenticated user, standing in for AuthMiddleware
func withUser(u *domain.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if u != nil {
			c.Set(userKey, u)
		}
		c.Next()
	}
}

func ok(c *gin.Context) {
	c.JSON(200, gin.H{"status": "success"})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) respond.ErrorBody {
	t.Helper()

	var body respond.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func uintPtr(v uint) *uint { return &v }

func refModelPtr(m domain.ReferenceModel) *domain.ReferenceModel { return &m }
