package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/mocks"
)

func authRouter(svc *mocks.MockAuthService, user *domain.User, claims *domain.TokenClaims) *gin.Engine {
	h := NewAuthHandlers(svc)
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/auth/check-admin", h.CheckAdmin)
	r.POST("/auth/create-admin", h.CreateAdmin)

	protected := r.Group("/auth")
	if user != nil {
		protected.Use(session(user, claims))
	}
	protected.GET("/profile", h.Profile)
	protected.POST("/logout", h.Logout)
	protected.POST("/register-admin", h.RegisterAdmin)
	return r
}

func TestAuthHandlers_Register(t *testing.T) {
	valid := map[string]interface{}{
		"email":     "new@school.test",
		"password":  "secret123",
		"firstName": "New",
		"lastName":  "Student",
	}
	with := func(k string, v interface{}) map[string]interface{} {
		out := map[string]interface{}{}
		for key, val := range valid {
			out[key] = val
		}
		if v == nil {
			delete(out, k)
		} else {
			out[k] = v
		}
		return out
	}

	tests := []struct {
		name           string
		body           interface{}
		setupMocks     func(*mocks.MockAuthService)
		expectedStatus int
		expectedKind   domain.ErrorKind
		validate       func(t *testing.T, got domain.RegisterInput)
	}{
		{
			name:           "defaults to student",
			body:           valid,
			expectedStatus: http.StatusCreated,
			validate: func(t *testing.T, got domain.RegisterInput) {
				assert.Equal(t, domain.RoleStudent, got.Role)
				assert.Equal(t, "new@school.test", got.Email)
			},
		},
		{
			name:           "teacher role passes through",
			body:           with("role", "teacher"),
			expectedStatus: http.StatusCreated,
			validate: func(t *testing.T, got domain.RegisterInput) {
				assert.Equal(t, domain.RoleTeacher, got.Role)
			},
		},
		{
			name:           "missing email",
			body:           with("email", nil),
			expectedStatus: http.StatusBadRequest,
			expectedKind:   domain.KindValidation,
		},
		{
			name:           "unknown role",
			body:           with("role", "root"),
			expectedStatus: http.StatusBadRequest,
			expectedKind:   domain.KindInvalidValue,
		},
		{
			name:           "malformed json",
			body:           `{"email":`,
			expectedStatus: http.StatusBadRequest,
			expectedKind:   domain.KindValidation,
		},
		{
			name: "duplicate email",
			body: valid,
			setupMocks: func(svc *mocks.MockAuthService) {
				svc.RegisterFunc = func(context.Context, domain.RegisterInput) (*domain.User, error) {
					return nil, domain.ErrDuplicateEmail
				}
			},
			expectedStatus: http.StatusBadRequest,
			expectedKind:   domain.KindDuplicateEmail,
		},
		{
			name: "second admin",
			body: with("role", "admin"),
			setupMocks: func(svc *mocks.MockAuthService) {
				svc.RegisterFunc = func(context.Context, domain.RegisterInput) (*domain.User, error) {
					return nil, domain.ErrAdminAlreadyExists
				}
			},
			expectedStatus: http.StatusForbidden,
			expectedKind:   domain.KindAdminAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockAuthService()
			var got domain.RegisterInput
			svc.RegisterFunc = func(_ context.Context, in domain.RegisterInput) (*domain.User, error) {
				got = in
				return &domain.User{ID: 42, Email: in.Email, Role: in.Role}, nil
			}
			if tt.setupMocks != nil {
				tt.setupMocks(svc)
			}

			w := doJSON(authRouter(svc, nil, nil), http.MethodPost, "/auth/register", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedKind != "" {
				assert.Equal(t, tt.expectedKind, decodeErr(t, w).Kind)
				return
			}
			var body struct {
				UserID uint `json:"userId"`
			}
			decodeData(t, w, &body)
			assert.Equal(t, uint(42), body.UserID)
			if tt.validate != nil {
				tt.validate(t, got)
			}
		})
	}
}

func TestAuthHandlers_RegisterReportsFieldNames(t *testing.T) {
	w := doJSON(authRouter(mocks.NewMockAuthService(), nil, nil), http.MethodPost, "/auth/register", map[string]string{
		"email":    "not-an-email",
		"password": "123",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := map[string]string{}
	for _, f := range decodeErr(t, w).Fields {
		fields[f.Field] = f.Rule
	}
	assert.Equal(t, "email", fields["email"])
	assert.Equal(t, "min", fields["password"])
	assert.Equal(t, "required", fields["firstName"])
}

func TestAuthHandlers_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := mocks.NewMockAuthService()
		svc.LoginFunc = func(_ context.Context, email, password string) (*domain.AuthResult, error) {
			return &domain.AuthResult{
				User:        &domain.User{ID: 3, Email: email, PasswordHash: "$2a$10$hash", Role: domain.RoleTeacher},
				AccessToken: "signed.jwt.token",
				ExpiresIn:   3600,
			}, nil
		}

		w := doJSON(authRouter(svc, nil, nil), http.MethodPost, "/auth/login", LoginRequest{Email: "t@school.test", Password: "pw"})

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		decodeData(t, w, &body)
		assert.Equal(t, "signed.jwt.token", body["token"])
		assert.Equal(t, "Bearer", body["tokenType"])
		user := body["user"].(map[string]interface{})
		assert.Equal(t, "teacher", user["role"])
		assert.NotContains(t, w.Body.String(), "$2a$10$hash")
	})

	t.Run("bad credentials", func(t *testing.T) {
		w := doJSON(authRouter(mocks.NewMockAuthService(), nil, nil), http.MethodPost, "/auth/login", LoginRequest{Email: "t@school.test", Password: "pw"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeErr(t, w)
		assert.Equal(t, domain.KindInvalidCredentials, body.Kind)
		assert.Equal(t, domain.ErrInvalidCredentials.Error(), body.Error)
	})
}

func TestAuthHandlers_CheckAndCreateAdmin(t *testing.T) {
	svc := mocks.NewMockAuthService()
	svc.AdminExistsFunc = func(context.Context) (bool, error) { return true, nil }
	svc.CreateAdminFunc = func(context.Context, domain.RegisterInput) (*domain.User, error) {
		return nil, domain.ErrAdminAlreadyExists
	}
	r := authRouter(svc, nil, nil)

	w := doJSON(r, http.MethodGet, "/auth/check-admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var exists struct {
		Exists bool `json:"exists"`
	}
	decodeData(t, w, &exists)
	assert.True(t, exists.Exists)

	w = doJSON(r, http.MethodPost, "/auth/create-admin", map[string]string{
		"email": "a@school.test", "password": "secret123", "firstName": "A", "lastName": "B",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, domain.KindAdminAlreadyExists, decodeErr(t, w).Kind)
}

func TestAuthHandlers_ProfileAndLogout(t *testing.T) {
	user := &domain.User{ID: 5, Email: "s@school.test", Role: domain.RoleStudent}
	claims := &domain.TokenClaims{TokenID: "jti-5", UserID: 5, Role: domain.RoleStudent}

	svc := mocks.NewMockAuthService()
	svc.GetUserProfileFunc = func(_ context.Context, id uint) (*domain.User, error) {
		if id == 5 {
			return user, nil
		}
		return nil, domain.ErrUserNotFound
	}
	var revoked string
	svc.LogoutFunc = func(_ context.Context, c *domain.TokenClaims) error {
		revoked = c.TokenID
		return nil
	}

	r := authRouter(svc, user, claims)

	w := doJSON(r, http.MethodGet, "/auth/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view domain.UserView
	decodeData(t, w, &view)
	assert.Equal(t, uint(5), view.ID)
	assert.Equal(t, domain.RoleStudent, view.Role)

	w = doJSON(r, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jti-5", revoked)

	// without a session the handlers refuse rather than panic
	w = doJSON(authRouter(svc, nil, nil), http.MethodGet, "/auth/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlers_RegisterAdmin(t *testing.T) {
	admin := &domain.User{ID: 1, Role: domain.RoleAdmin}
	svc := mocks.NewMockAuthService()
	var got domain.RegisterInput
	svc.RegisterAdminFunc = func(_ context.Context, in domain.RegisterInput) (*domain.User, error) {
		got = in
		return &domain.User{ID: 2, Email: in.Email, Role: domain.RoleAdmin}, nil
	}

	w := doJSON(authRouter(svc, admin, &domain.TokenClaims{UserID: 1}), http.MethodPost, "/auth/register-admin", map[string]string{
		"email": "second@school.test", "password": "secret123", "firstName": "Sec", "lastName": "Ond",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "second@school.test", got.Email)
}
