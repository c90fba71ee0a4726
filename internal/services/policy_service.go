package services

import (
	"fmt"
	"strings"

	"github.com/you/schoolsvc/domain"
)

// RouteRule is one role-gate entry: the roles allowed to call method on path
type RouteRule struct {
	Method string
	Path   string
	Roles  []domain.Role
}

// PolicyServiceImpl implements domain.PolicyService using Casbin.
// Roles are stored as their policy subject ("role_teacher").
type PolicyServiceImpl struct {
	enforcer domain.CasbinEnforcer
}

// NewPolicyService creates a new policy service
func NewPolicyService(enforcer domain.CasbinEnforcer) *PolicyServiceImpl {
	return &PolicyServiceImpl{enforcer: enforcer}
}

func subjectFor(role string) (string, error) {
	r, err := domain.ParseRole(strings.TrimPrefix(role, "role_"))
	if err != nil {
		return "", err
	}
	return r.PolicySubject(), nil
}

func validateRule(resource, action string) error {
	if !strings.HasPrefix(resource, "/") {
		return fmt.Errorf("%w: resource must be a route path", domain.ErrInvalidValue)
	}
	if strings.TrimSpace(action) == "" {
		return fmt.Errorf("%w: action", domain.ErrValidation)
	}
	return nil
}

// AddPolicy implements domain.PolicyService
func (p *PolicyServiceImpl) AddPolicy(role, resource, action string) error {
	sub, err := subjectFor(role)
	if err != nil {
		return err
	}
	if err := validateRule(resource, action); err != nil {
		return err
	}
	if _, err := p.enforcer.AddPolicy(sub, resource, action); err != nil {
		return err
	}
	return p.enforcer.SavePolicy()
}

// RemovePolicy implements domain.PolicyService
func (p *PolicyServiceImpl) RemovePolicy(role, resource, action string) error {
	sub, err := subjectFor(role)
	if err != nil {
		return err
	}
	if _, err := p.enforcer.RemovePolicy(sub, resource, action); err != nil {
		return err
	}
	return p.enforcer.SavePolicy()
}

// CheckPermission implements domain.PolicyService
func (p *PolicyServiceImpl) CheckPermission(role, resource, action string) (bool, error) {
	sub, err := subjectFor(role)
	if err != nil {
		return false, err
	}
	return p.enforcer.Enforce(sub, resource, action)
}

// GetPolicies implements domain.PolicyService
func (p *PolicyServiceImpl) GetPolicies() [][]string {
	policies, _ := p.enforcer.GetPolicy()
	return policies
}

// EnsurePolicies seeds the role gate from the route table. Admin gets a single
// wildcard rule; non-admin roles get one rule per route. Existing rules are kept.
func EnsurePolicies(enforcer domain.CasbinEnforcer, prefix string, rules []RouteRule) (int, error) {
	added := 0
	ok, err := enforcer.AddPolicy(domain.RoleAdmin.PolicySubject(), prefix+"/*", ".*")
	if err != nil {
		return 0, fmt.Errorf("seed admin policy: %w", err)
	}
	if ok {
		added++
	}
	for _, rule := range rules {
		for _, role := range rule.Roles {
			if role == domain.RoleAdmin {
				continue
			}
			ok, err := enforcer.AddPolicy(role.PolicySubject(), rule.Path, rule.Method)
			if err != nil {
				return added, fmt.Errorf("seed %s %s for %s: %w", rule.Method, rule.Path, role, err)
			}
			if ok {
				added++
			}
		}
	}
	return added, nil
}

var _ domain.PolicyService = (*PolicyServiceImpl)(nil)
