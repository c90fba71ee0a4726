package mocks

import (
	"strings"

	"github.com/you/schoolsvc/domain"
)

// MockPasswordService implements domain.PasswordService interface for testing
type MockPasswordService struct {
	HashFunc   func(password string) (string, error)
	VerifyFunc func(hashedPassword, password string) bool

	VerifyCalls int
}

// NewMockPasswordService creates a new MockPasswordService with default behaviors
func NewMockPasswordService() *MockPasswordService {
	return &MockPasswordService{}
}

// Hash defaults to prefixing the password with "hashed_"
func (m *MockPasswordService) Hash(password string) (string, error) {
	if m.HashFunc != nil {
		return m.HashFunc(password)
	}
	return "hashed_" + password, nil
}

// Verify defaults to checking the "hashed_" prefix scheme of Hash
func (m *MockPasswordService) Verify(hashedPassword, password string) bool {
	m.VerifyCalls++
	if m.VerifyFunc != nil {
		return m.VerifyFunc(hashedPassword, password)
	}
	return strings.TrimPrefix(hashedPassword, "hashed_") == password && strings.HasPrefix(hashedPassword, "hashed_")
}

// Compile-time interface compliance verification
var _ domain.PasswordService = (*MockPasswordService)(nil)
