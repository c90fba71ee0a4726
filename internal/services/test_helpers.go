package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/mocks"
)

// memoryUsers wires a MockUserRepository to an in-memory table
type memoryUsers struct {
	mu   sync.Mutex
	rows map[uint]domain.User
	next uint
	*mocks.MockUserRepository
}

func newMemoryUsers(t *testing.T, seed ...domain.User) *memoryUsers {
	t.Helper()

	m := &memoryUsers{rows: map[uint]domain.User{}, MockUserRepository: mocks.NewMockUserRepository()}
	m.CreateFunc = func(_ context.Context, u *domain.User) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		for _, r := range m.rows {
			if r.Email == u.Email {
				return domain.ErrDuplicateEmail
			}
		}
		m.next++
		u.ID = m.next
		m.rows[u.ID] = *u
		return nil
	}
	m.FindByEmailFunc = func(_ context.Context, email string) (*domain.User, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		for _, r := range m.rows {
			if r.Email == email {
				cp := r
				return &cp, nil
			}
		}
		return nil, domain.ErrUserNotFound
	}
	m.FindByIDFunc = func(_ context.Context, id uint) (*domain.User, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		r, ok := m.rows[id]
		if !ok {
			return nil, domain.ErrUserNotFound
		}
		return &r, nil
	}
	m.UpdateFunc = func(_ context.Context, u *domain.User) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.rows[u.ID]; !ok {
			return domain.ErrUserNotFound
		}
		m.rows[u.ID] = *u
		return nil
	}
	m.CountByRoleFunc = func(_ context.Context, role domain.Role) (int64, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		var n int64
		for _, r := range m.rows {
			if r.Role == role {
				n++
			}
		}
		return n, nil
	}

	for i := range seed {
		u := seed[i]
		if err := m.Create(context.Background(), &u); err != nil {
			t.Fatalf("seed user %s: %v", u.Email, err)
		}
	}
	return m
}

type authFixture struct {
	svc      *AuthServiceImpl
	users    *memoryUsers
	denylist *mocks.MockTokenDenylist
	lock     *mocks.MockBootstrapLock
	password *mocks.MockPasswordService
	tokens   *mocks.MockTokenService
	audit    *mocks.MockAuditLogger
	now      time.Time
}

// createAuthServiceForTest creates an AuthService with mock dependencies for testing
func createAuthServiceForTest(t *testing.T, seed ...domain.User) *authFixture {
	t.Helper()

	f := &authFixture{
		users:    newMemoryUsers(t, seed...),
		denylist: mocks.NewMockTokenDenylist(),
		lock:     mocks.NewMockBootstrapLock(),
		password: mocks.NewMockPasswordService(),
		tokens:   mocks.NewMockTokenService(),
		audit:    mocks.NewMockAuditLogger(),
		now:      time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}
	f.svc = NewAuthService(f.users, f.denylist, f.lock, f.password, f.tokens, f.audit, AuthOptions{
		TokenTTL: time.Hour,
		Now:      func() time.Time { return f.now },
	})
	return f
}

// createValidUser creates a valid user entity for testing
func createValidUser(t *testing.T, email string, role domain.Role) domain.User {
	t.Helper()

	return domain.User{
		Email:        email,
		PasswordHash: "hashed_password123",
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
	}
}

func uintPtr(v uint) *uint { return &v }

func refModelPtr(m domain.ReferenceModel) *domain.ReferenceModel { return &m }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}
