package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/http/respond"
)

// AccessHandlers is the admin surface over user roles, grants and references
type AccessHandlers struct {
	svc domain.AccessControlService
}

func NewAccessHandlers(svc domain.AccessControlService) *AccessHandlers {
	return &AccessHandlers{svc: svc}
}

type roleRequest struct {
	Role domain.Role `json:"role" binding:"required"`
}

type permissionsRequest struct {
	Permissions []domain.PermissionGrant `json:"permissions" binding:"required,dive"`
}

type referenceRequest struct {
	ReferenceID    *uint                  `json:"referenceId"`
	ReferenceModel *domain.ReferenceModel `json:"referenceModel"`
}

func views(users []domain.User) []*domain.UserView {
	out := make([]*domain.UserView, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out
}

func (h *AccessHandlers) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusOK, views(users))
}

func (h *AccessHandlers) GetUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	user, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusOK, user.Public())
}

func (h *AccessHandlers) UpdateRole(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	h.reply(c)(h.svc.UpdateRole(c.Request.Context(), id, req.Role))
}

func (h *AccessHandlers) UpdatePermissions(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	var req permissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	h.reply(c)(h.svc.UpdatePermissions(c.Request.Context(), id, req.Permissions))
}

func (h *AccessHandlers) UpdateReference(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	var req referenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	h.reply(c)(h.svc.UpdateReference(c.Request.Context(), id, req.ReferenceID, req.ReferenceModel))
}

func (h *AccessHandlers) reply(c *gin.Context) func(*domain.User, error) {
	return func(user *domain.User, err error) {
		if err != nil {
			respond.Error(c, err)
			return
		}
		respond.Data(c, http.StatusOK, user.Public())
	}
}
