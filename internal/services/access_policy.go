package services

import (
	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/metrics"
)

// AccessPolicyImpl implements domain.AccessPolicy
type AccessPolicyImpl struct {
	metrics *metrics.Metrics
}

// NewAccessPolicy creates the policy engine; m may be nil
func NewAccessPolicy(m *metrics.Metrics) *AccessPolicyImpl {
	return &AccessPolicyImpl{metrics: m}
}

// Authorize allows admins unconditionally and everyone else only through an
// explicit grant of action on resource.
func (p *AccessPolicyImpl) Authorize(user *domain.User, resource, action string) error {
	allowed := authorize(user, resource, action)
	p.metrics.Decision("permission", allowed)
	if !allowed {
		return domain.ErrInsufficientPermissions
	}
	return nil
}

func authorize(user *domain.User, resource, action string) bool {
	if user == nil {
		return false
	}
	if user.Role == domain.RoleAdmin {
		return true
	}
	for _, g := range user.Permissions {
		if g.Resource == resource && g.Allows(action) {
			return true
		}
	}
	return false
}

// RequireRole denies with ErrAccessDenied unless the user's role is in allowed
func (p *AccessPolicyImpl) RequireRole(user *domain.User, allowed ...domain.Role) error {
	ok := false
	if user != nil {
		for _, r := range allowed {
			if user.Role == r {
				ok = true
				break
			}
		}
	}
	p.metrics.Decision("role", ok)
	if !ok {
		return domain.ErrAccessDenied
	}
	return nil
}

// CheckOwnership decides whether user may act on a record owned by ownerRef.
// Admins pass, teachers pass for student-owned records, and anyone else must
// carry the matching reference link.
func (p *AccessPolicyImpl) CheckOwnership(user *domain.User, kind domain.OwnerKind, ownerRef uint) error {
	ok := owns(user, kind, ownerRef)
	p.metrics.Decision("ownership", ok)
	if !ok {
		return domain.ErrAccessDenied
	}
	return nil
}

func owns(user *domain.User, kind domain.OwnerKind, ownerRef uint) bool {
	if user == nil {
		return false
	}
	switch {
	case user.Role == domain.RoleAdmin:
		return true
	case user.Role == domain.RoleTeacher && kind == domain.OwnerStudent:
		return true
	}
	if user.ReferenceID == nil || user.ReferenceModel == nil {
		return false
	}
	return *user.ReferenceID == ownerRef && *user.ReferenceModel == domain.ReferenceModelFor(kind)
}

var _ domain.AccessPolicy = (*AccessPolicyImpl)(nil)
