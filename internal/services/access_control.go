package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/you/schoolsvc/domain"
)

// AccessControlServiceImpl implements domain.AccessControlService
type AccessControlServiceImpl struct {
	userRepo domain.UserRepository
	audit    domain.AuditLogger
	now      func() time.Time
}

// NewAccessControlService creates the admin user-management service
func NewAccessControlService(userRepo domain.UserRepository, audit domain.AuditLogger) *AccessControlServiceImpl {
	if audit == nil {
		audit = domain.NopAuditLogger{}
	}
	return &AccessControlServiceImpl{userRepo: userRepo, audit: audit, now: time.Now}
}

func (s *AccessControlServiceImpl) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.userRepo.List(ctx)
}

func (s *AccessControlServiceImpl) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// UpdateRole changes the role; promoting to admin clears reference and grants
func (s *AccessControlServiceImpl) UpdateRole(ctx context.Context, id uint, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role %q", domain.ErrInvalidValue, role)
	}
	return s.mutate(ctx, id, domain.UserRoleChangedEvent, func(u *domain.User) map[string]interface{} {
		from := u.Role
		u.Role = role
		return map[string]interface{}{"from": string(from), "to": string(role)}
	})
}

// UpdatePermissions replaces the grant list. Grants are ignored on admins.
func (s *AccessControlServiceImpl) UpdatePermissions(ctx context.Context, id uint, grants []domain.PermissionGrant) (*domain.User, error) {
	cleaned := make([]domain.PermissionGrant, 0, len(grants))
	for _, g := range grants {
		res := strings.TrimSpace(g.Resource)
		if res == "" {
			return nil, fmt.Errorf("%w: permission resource", domain.ErrValidation)
		}
		if len(g.Actions) == 0 {
			return nil, fmt.Errorf("%w: permission %q has no actions", domain.ErrValidation, res)
		}
		actions := make([]string, 0, len(g.Actions))
		for _, a := range g.Actions {
			a = strings.TrimSpace(a)
			if a == "" {
				return nil, fmt.Errorf("%w: empty action on %q", domain.ErrValidation, res)
			}
			actions = append(actions, a)
		}
		cleaned = append(cleaned, domain.PermissionGrant{Resource: res, Actions: actions})
	}
	return s.mutate(ctx, id, domain.UserPermissionsChangedEvent, func(u *domain.User) map[string]interface{} {
		u.Permissions = cleaned
		return map[string]interface{}{"grants": len(cleaned)}
	})
}

// UpdateReference links or unlinks the user's domain entity. Both halves
// must be set together or cleared together.
func (s *AccessControlServiceImpl) UpdateReference(ctx context.Context, id uint, refID *uint, refModel *domain.ReferenceModel) (*domain.User, error) {
	if (refID == nil) != (refModel == nil) {
		return nil, fmt.Errorf("%w: referenceId and referenceModel go together", domain.ErrValidation)
	}
	if refModel != nil {
		if _, err := domain.ParseReferenceModel(string(*refModel)); err != nil {
			return nil, err
		}
	}
	return s.mutate(ctx, id, domain.UserReferenceChangedEvent, func(u *domain.User) map[string]interface{} {
		u.ReferenceID = refID
		u.ReferenceModel = refModel
		meta := map[string]interface{}{"linked": refID != nil}
		if refID != nil {
			meta["reference_id"] = *refID
			meta["reference_model"] = string(*refModel)
		}
		return meta
	})
}

func (s *AccessControlServiceImpl) mutate(ctx context.Context, id uint, event domain.AuditEventType, apply func(*domain.User) map[string]interface{}) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	meta := apply(user)
	user.Normalize()
	user.UpdatedAt = s.now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	ev := domain.NewAuditEvent(event, user.ID).WithEmail(user.Email)
	for k, v := range meta {
		ev.WithMetadata(k, v)
	}
	s.audit.LogEvent(ctx, ev)
	return user, nil
}

var _ domain.AccessControlService = (*AccessControlServiceImpl)(nil)
