package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/http/respond"
)

// PolicyHandlers manages the casbin role-gate rules
type PolicyHandlers struct {
	svc domain.PolicyService
}

func NewPolicyHandlers(svc domain.PolicyService) *PolicyHandlers {
	return &PolicyHandlers{svc: svc}
}

// policyRequest names one rule: role may call method on path
type policyRequest struct {
	Role   string `json:"role" binding:"required"`
	Path   string `json:"path" binding:"required"`
	Method string `json:"method" binding:"required"`
}

type policyView struct {
	Subject string `json:"subject"`
	Path    string `json:"path"`
	Method  string `json:"method"`
}

func (h *PolicyHandlers) List(c *gin.Context) {
	policies := h.svc.GetPolicies()
	out := make([]policyView, 0, len(policies))
	for _, p := range policies {
		if len(p) < 3 {
			continue
		}
		out = append(out, policyView{Subject: p[0], Path: p[1], Method: p[2]})
	}
	respond.Data(c, http.StatusOK, out)
}

func (h *PolicyHandlers) Add(c *gin.Context) {
	var r policyRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		respond.BindError(c, err)
		return
	}
	if err := h.svc.AddPolicy(r.Role, r.Path, strings.ToUpper(r.Method)); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PolicyHandlers) Remove(c *gin.Context) {
	var r policyRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		respond.BindError(c, err)
		return
	}
	if err := h.svc.RemovePolicy(r.Role, r.Path, strings.ToUpper(r.Method)); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Check evaluates a role against the gate without a request from that role
func (h *PolicyHandlers) Check(c *gin.Context) {
	role, path, method := c.Query("role"), c.Query("path"), strings.ToUpper(c.Query("method"))
	if role == "" || path == "" || method == "" {
		respond.Error(c, domain.ErrValidation)
		return
	}
	allowed, err := h.svc.CheckPermission(role, path, method)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusOK, gin.H{"allowed": allowed})
}
