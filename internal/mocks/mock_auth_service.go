package mocks

import (
	"context"

	"github.com/you/schoolsvc/domain"
)

// MockAuthService implements domain.AuthService interface for testing
type MockAuthService struct {
	RegisterFunc       func(ctx context.Context, in domain.RegisterInput) (*domain.User, error)
	RegisterAdminFunc  func(ctx context.Context, in domain.RegisterInput) (*domain.User, error)
	CreateAdminFunc    func(ctx context.Context, in domain.RegisterInput) (*domain.User, error)
	AdminExistsFunc    func(ctx context.Context) (bool, error)
	LoginFunc          func(ctx context.Context, email, password string) (*domain.AuthResult, error)
	LogoutFunc         func(ctx context.Context, claims *domain.TokenClaims) error
	GetUserProfileFunc func(ctx context.Context, userID uint) (*domain.User, error)
}

// NewMockAuthService creates a new MockAuthService with default behaviors
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

func userFromInput(in domain.RegisterInput) *domain.User {
	return &domain.User{ID: 1, Email: in.Email, FirstName: in.FirstName, LastName: in.LastName, Role: in.Role}
}

func (m *MockAuthService) Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, in)
	}
	return userFromInput(in), nil
}

func (m *MockAuthService) RegisterAdmin(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	if m.RegisterAdminFunc != nil {
		return m.RegisterAdminFunc(ctx, in)
	}
	return userFromInput(in), nil
}

func (m *MockAuthService) CreateAdmin(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	if m.CreateAdminFunc != nil {
		return m.CreateAdminFunc(ctx, in)
	}
	return userFromInput(in), nil
}

func (m *MockAuthService) AdminExists(ctx context.Context) (bool, error) {
	if m.AdminExistsFunc != nil {
		return m.AdminExistsFunc(ctx)
	}
	return false, nil
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, domain.ErrInvalidCredentials
}

func (m *MockAuthService) Logout(ctx context.Context, claims *domain.TokenClaims) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, claims)
	}
	return nil
}

func (m *MockAuthService) GetUserProfile(ctx context.Context, userID uint) (*domain.User, error) {
	if m.GetUserProfileFunc != nil {
		return m.GetUserProfileFunc(ctx, userID)
	}
	return nil, domain.ErrUserNotFound
}

// Compile-time interface compliance verification
var _ domain.AuthService = (*MockAuthService)(nil)
