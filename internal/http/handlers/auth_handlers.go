package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/http/middleware"
	"github.com/you/schoolsvc/internal/http/respond"
)

// AuthHandlers handles authentication HTTP requests
type AuthHandlers struct {
	authSvc domain.AuthService
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authSvc domain.AuthService) *AuthHandlers {
	return &AuthHandlers{authSvc: authSvc}
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	Email          string                   `json:"email" binding:"required,email"`
	Password       string                   `json:"password" binding:"required,min=6"`
	FirstName      string                   `json:"firstName" binding:"required"`
	LastName       string                   `json:"lastName" binding:"required"`
	Role           domain.Role              `json:"role"`
	ReferenceID    *uint                    `json:"referenceId"`
	ReferenceModel *domain.ReferenceModel   `json:"referenceModel"`
	Permissions    []domain.PermissionGrant `json:"permissions" binding:"omitempty,dive"`
}

func (r RegisterRequest) input() domain.RegisterInput {
	return domain.RegisterInput{
		Email:          r.Email,
		Password:       r.Password,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Role:           r.Role,
		ReferenceID:    r.ReferenceID,
		ReferenceModel: r.ReferenceModel,
		Permissions:    r.Permissions,
	}
}

// LoginRequest represents login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func created(c *gin.Context, user *domain.User) {
	respond.Data(c, http.StatusCreated, gin.H{
		"userId": user.ID,
		"user":   user.Public(),
	})
}

// Register handles open registration. Only the first admin can be created here.
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	if req.Role == "" {
		req.Role = domain.RoleStudent
	}

	user, err := h.authSvc.Register(c.Request.Context(), req.input())
	if err != nil {
		respond.Error(c, err)
		return
	}
	created(c, user)
}

// RegisterAdmin lets an authenticated admin add another admin
func (h *AuthHandlers) RegisterAdmin(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	user, err := h.authSvc.RegisterAdmin(c.Request.Context(), req.input())
	if err != nil {
		respond.Error(c, err)
		return
	}
	created(c, user)
}

// CreateAdmin bootstraps the first admin account
func (h *AuthHandlers) CreateAdmin(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	user, err := h.authSvc.CreateAdmin(c.Request.Context(), req.input())
	if err != nil {
		respond.Error(c, err)
		return
	}
	created(c, user)
}

// CheckAdmin reports whether any admin account exists
func (h *AuthHandlers) CheckAdmin(c *gin.Context) {
	exists, err := h.authSvc.AdminExists(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusOK, gin.H{"exists": exists})
}

// Login handles user login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.Data(c, http.StatusOK, gin.H{
		"token":     result.AccessToken,
		"tokenType": "Bearer",
		"expiresIn": result.ExpiresIn,
		"user":      result.User.Public(),
	})
}

// Profile returns the current user
func (h *AuthHandlers) Profile(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		respond.Error(c, domain.ErrUnauthenticated)
		return
	}

	user, err := h.authSvc.GetUserProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusOK, user.Public())
}

// Logout revokes the presented token
func (h *AuthHandlers) Logout(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		respond.Error(c, domain.ErrUnauthenticated)
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), claims); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusOK, gin.H{"message": "logged out"})
}
