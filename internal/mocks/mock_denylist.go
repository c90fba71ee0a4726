package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/you/schoolsvc/domain"
)

// MockTokenDenylist implements domain.TokenDenylist; by default it remembers revoked ids in memory
type MockTokenDenylist struct {
	RevokeFunc    func(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevokedFunc func(ctx context.Context, tokenID string) (bool, error)

	mu      sync.Mutex
	revoked map[string]time.Duration
}

func NewMockTokenDenylist() *MockTokenDenylist {
	return &MockTokenDenylist{revoked: map[string]time.Duration{}}
}

func (m *MockTokenDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, tokenID, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenID] = ttl
	return nil
}

func (m *MockTokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if m.IsRevokedFunc != nil {
		return m.IsRevokedFunc(ctx, tokenID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[tokenID]
	return ok, nil
}

// RevokedTTL returns the ttl a token id was revoked with
func (m *MockTokenDenylist) RevokedTTL(tokenID string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ttl, ok := m.revoked[tokenID]
	return ttl, ok
}

var _ domain.TokenDenylist = (*MockTokenDenylist)(nil)

// MockBootstrapLock implements domain.BootstrapLock with an in-memory key set
type MockBootstrapLock struct {
	AcquireFunc func(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseFunc func(ctx context.Context, key string) error

	mu   sync.Mutex
	held map[string]bool
}

func NewMockBootstrapLock() *MockBootstrapLock {
	return &MockBootstrapLock{held: map[string]bool{}}
}

func (m *MockBootstrapLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, key, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return false, nil
	}
	m.held[key] = true
	return true, nil
}

func (m *MockBootstrapLock) Release(ctx context.Context, key string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	return nil
}

var _ domain.BootstrapLock = (*MockBootstrapLock)(nil)
