package mocks

import (
	"fmt"
	"time"

	"github.com/you/schoolsvc/domain"
)

// MockTokenService implements domain.TokenService interface for testing
type MockTokenService struct {
	GenerateAccessTokenFunc func(userID uint, role domain.Role) (string, *domain.TokenClaims, error)
	ValidateAccessTokenFunc func(token string) (*domain.TokenClaims, error)

	issued map[string]*domain.TokenClaims
	seq    int
}

// NewMockTokenService creates a MockTokenService that validates the tokens it issued
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{issued: map[string]*domain.TokenClaims{}}
}

// GenerateAccessToken issues "token_<n>" valid for an hour
func (m *MockTokenService) GenerateAccessToken(userID uint, role domain.Role) (string, *domain.TokenClaims, error) {
	if m.GenerateAccessTokenFunc != nil {
		return m.GenerateAccessTokenFunc(userID, role)
	}
	m.seq++
	now := time.Now()
	claims := &domain.TokenClaims{
		TokenID:   fmt.Sprintf("jti_%d", m.seq),
		UserID:    userID,
		Role:      role,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Hour).Unix(),
	}
	token := fmt.Sprintf("token_%d", m.seq)
	m.issued[token] = claims
	return token, claims, nil
}

// ValidateAccessToken accepts only tokens issued by this mock
func (m *MockTokenService) ValidateAccessToken(token string) (*domain.TokenClaims, error) {
	if m.ValidateAccessTokenFunc != nil {
		return m.ValidateAccessTokenFunc(token)
	}
	claims, ok := m.issued[token]
	if !ok {
		return nil, domain.ErrTokenInvalid
	}
	if time.Unix(claims.ExpiresAt, 0).Before(time.Now()) {
		return nil, domain.ErrTokenExpired
	}
	return claims, nil
}

// Compile-time interface compliance verification
var _ domain.TokenService = (*MockTokenService)(nil)
