package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/metrics"
)

const adminBootstrapKey = "admin-bootstrap"

// AuthOptions carries the tunables of AuthServiceImpl
type AuthOptions struct {
	TokenTTL         time.Duration
	BootstrapLockTTL time.Duration
	Metrics          *metrics.Metrics
	Now              func() time.Time
}

// AuthServiceImpl implements domain.AuthService
type AuthServiceImpl struct {
	userRepo    domain.UserRepository
	denylist    domain.TokenDenylist
	lock        domain.BootstrapLock
	passwordSvc domain.PasswordService
	tokenSvc    domain.TokenService
	audit       domain.AuditLogger
	opts        AuthOptions

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new auth service. lock may be nil when only one
// instance runs; the admin count check then runs unguarded.
func NewAuthService(
	userRepo domain.UserRepository,
	denylist domain.TokenDenylist,
	lock domain.BootstrapLock,
	passwordSvc domain.PasswordService,
	tokenSvc domain.TokenService,
	audit domain.AuditLogger,
	opts AuthOptions,
) *AuthServiceImpl {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}
	if opts.BootstrapLockTTL <= 0 {
		opts.BootstrapLockTTL = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if audit == nil {
		audit = domain.NopAuditLogger{}
	}
	return &AuthServiceImpl{
		userRepo:    userRepo,
		denylist:    denylist,
		lock:        lock,
		passwordSvc: passwordSvc,
		tokenSvc:    tokenSvc,
		audit:       audit,
		opts:        opts,
	}
}

// Register implements domain.AuthService for the unauthenticated path.
// Grants and reference links are refused here; only an admin sets them.
func (s *AuthServiceImpl) Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	switch {
	case in.ReferenceID != nil:
		return nil, fmt.Errorf("%w: referenceId is set by an admin", domain.ErrInvalidValue)
	case in.ReferenceModel != nil:
		return nil, fmt.Errorf("%w: referenceModel is set by an admin", domain.ErrInvalidValue)
	case len(in.Permissions) > 0:
		return nil, fmt.Errorf("%w: permissions are granted by an admin", domain.ErrInvalidValue)
	}

	if in.Role == domain.RoleAdmin {
		return s.bootstrapAdmin(ctx, in)
	}
	user, err := s.createUser(ctx, in)
	if err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserRegistrationEvent, user.ID).
		WithEmail(user.Email).
		WithMetadata("role", string(user.Role)))
	return user, nil
}

// RegisterAdmin implements domain.AuthService; the caller is an authenticated admin
func (s *AuthServiceImpl) RegisterAdmin(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	in.Role = domain.RoleAdmin
	user, err := s.createUser(ctx, in)
	if err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.AdminCreatedEvent, user.ID).
		WithEmail(user.Email).
		WithMetadata("path", "register-admin"))
	return user, nil
}

// CreateAdmin implements domain.AuthService; it succeeds only while no admin exists
func (s *AuthServiceImpl) CreateAdmin(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	in.Role = domain.RoleAdmin
	return s.bootstrapAdmin(ctx, in)
}

func (s *AuthServiceImpl) bootstrapAdmin(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, adminBootstrapKey, s.opts.BootstrapLockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire bootstrap lock: %w", err)
		}
		if !acquired {
			return nil, domain.ErrBootstrapBusy
		}
		defer s.lock.Release(context.WithoutCancel(ctx), adminBootstrapKey)
	}

	exists, err := s.AdminExists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrAdminAlreadyExists
	}

	user, err := s.createUser(ctx, in)
	if err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.AdminCreatedEvent, user.ID).
		WithEmail(user.Email).
		WithMetadata("path", "bootstrap"))
	return user, nil
}

func (s *AuthServiceImpl) createUser(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email", domain.ErrValidation)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password", domain.ErrValidation)
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: role %q", domain.ErrInvalidValue, in.Role)
	}

	// Check if user already exists
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	hashedPassword, err := s.passwordSvc.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.opts.Now()
	user := &domain.User{
		Email:          email,
		PasswordHash:   hashedPassword,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Role:           in.Role,
		ReferenceID:    in.ReferenceID,
		ReferenceModel: in.ReferenceModel,
		Permissions:    in.Permissions,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	user.Normalize()

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// AdminExists implements domain.AuthService
func (s *AuthServiceImpl) AdminExists(ctx context.Context) (bool, error) {
	n, err := s.userRepo.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("failed to count admins: %w", err)
	}
	return n > 0, nil
}

// Login implements domain.AuthService. Unknown email and wrong password
// return the same error after the same amount of bcrypt work.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	email = domain.NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		s.passwordSvc.Verify(s.dummy(), password)
		return nil, s.loginFailed(ctx, email, 0)
	}

	if !s.passwordSvc.Verify(user.PasswordHash, password) {
		return nil, s.loginFailed(ctx, email, user.ID)
	}

	accessToken, claims, err := s.tokenSvc.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	s.opts.Metrics.Login("success")
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLoginEvent, user.ID).
		WithEmail(user.Email).
		WithMetadata("role", string(user.Role)))

	return &domain.AuthResult{
		User:        user,
		AccessToken: accessToken,
		ExpiresIn:   claims.ExpiresAt - claims.IssuedAt,
	}, nil
}

func (s *AuthServiceImpl) loginFailed(ctx context.Context, email string, userID uint) error {
	s.opts.Metrics.Login("invalid_credentials")
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent, userID).
		WithEmail(email).
		WithError(domain.ErrInvalidCredentials))
	return domain.ErrInvalidCredentials
}

func (s *AuthServiceImpl) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.passwordSvc.Hash("timing-equaliser-not-a-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

// Logout implements domain.AuthService by denylisting the token id for its remaining lifetime
func (s *AuthServiceImpl) Logout(ctx context.Context, claims *domain.TokenClaims) error {
	if claims == nil || claims.TokenID == "" {
		return domain.ErrTokenMalformed
	}
	if s.denylist != nil {
		if err := s.denylist.Revoke(ctx, claims.TokenID, claims.Remaining(s.opts.Now())); err != nil {
			return fmt.Errorf("failed to revoke token: %w", err)
		}
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLogoutEvent, claims.UserID))
	return nil
}

// GetUserProfile implements domain.AuthService
func (s *AuthServiceImpl) GetUserProfile(ctx context.Context, userID uint) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

var _ domain.AuthService = (*AuthServiceImpl)(nil)
