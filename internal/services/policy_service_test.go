package services

import (
	"errors"
	"testing"

	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/mocks"
)

// createPolicyServiceForTest creates a PolicyService with mock Casbin enforcer
func createPolicyServiceForTest(t *testing.T) (*PolicyServiceImpl, *mocks.MockCasbinEnforcer) {
	t.Helper()

	enforcer := mocks.NewMockCasbinEnforcer()
	return NewPolicyService(enforcer), enforcer
}

func TestPolicyServiceImpl_AddPolicy(t *testing.T) {
	errStore := errors.New("store unavailable")

	tests := []struct {
		name               string
		role               string
		resource           string
		action             string
		setupMock          func(*mocks.MockCasbinEnforcer)
		expectedError      error
		expectedSubject    string
		expectedSaveCalled bool
	}{
		{
			name:               "successful policy addition",
			role:               "teacher",
			resource:           "/api/groups",
			action:             "GET",
			expectedSubject:    "role_teacher",
			expectedSaveCalled: true,
		},
		{
			name:               "subject form accepted",
			role:               "role_student",
			resource:           "/api/schedules",
			action:             "GET",
			expectedSubject:    "role_student",
			expectedSaveCalled: true,
		},
		{
			name:          "unknown role",
			role:          "user",
			resource:      "/api/groups",
			action:        "GET",
			expectedError: domain.ErrInvalidValue,
		},
		{
			name:          "resource is not a path",
			role:          "teacher",
			resource:      "groups",
			action:        "GET",
			expectedError: domain.ErrInvalidValue,
		},
		{
			name:     "add policy fails",
			role:     "teacher",
			resource: "/api/groups",
			action:   "DELETE",
			setupMock: func(enforcer *mocks.MockCasbinEnforcer) {
				enforcer.AddPolicyFunc = func(params ...interface{}) (bool, error) {
					return false, errStore
				}
			},
			expectedError: errStore,
		},
		{
			name:     "save policy fails",
			role:     "teacher",
			resource: "/api/groups",
			action:   "PUT",
			setupMock: func(enforcer *mocks.MockCasbinEnforcer) {
				enforcer.SavePolicyFunc = func() error { return errStore }
			},
			expectedError:      errStore,
			expectedSaveCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policyService, mockEnforcer := createPolicyServiceForTest(t)
			if tt.setupMock != nil {
				tt.setupMock(mockEnforcer)
			}

			err := policyService.AddPolicy(tt.role, tt.resource, tt.action)

			if tt.expectedError != nil {
				if !errors.Is(err, tt.expectedError) {
					t.Errorf("expected error %v, got %v", tt.expectedError, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if saved := mockEnforcer.SaveCalls > 0; saved != tt.expectedSaveCalled {
				t.Errorf("expected SavePolicy called=%v, got %v", tt.expectedSaveCalled, saved)
			}
			if tt.expectedSubject != "" {
				policies := policyService.GetPolicies()
				if len(policies) != 1 || policies[0][0] != tt.expectedSubject {
					t.Errorf("expected one policy for %s, got %v", tt.expectedSubject, policies)
				}
			}
		})
	}
}

func TestPolicyServiceImpl_RemovePolicy(t *testing.T) {
	policyService, mockEnforcer := createPolicyServiceForTest(t)
	mockEnforcer.SetPolicies([][]string{
		{"role_teacher", "/api/groups", "GET"},
		{"role_student", "/api/schedules", "GET"},
	})

	if err := policyService.RemovePolicy("teacher", "/api/groups", "GET"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	policies := policyService.GetPolicies()
	if len(policies) != 1 || policies[0][0] != "role_student" {
		t.Errorf("unexpected remaining policies %v", policies)
	}
	if mockEnforcer.SaveCalls != 1 {
		t.Errorf("expected SavePolicy once, got %d", mockEnforcer.SaveCalls)
	}

	if err := policyService.RemovePolicy("janitor", "/api/groups", "GET"); !errors.Is(err, domain.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
}

func TestPolicyServiceImpl_CheckPermission(t *testing.T) {
	policyService, mockEnforcer := createPolicyServiceForTest(t)
	mockEnforcer.SetPolicies([][]string{
		{"role_admin", "/api/*", ".*"},
		{"role_teacher", "/api/groups", "GET"},
	})

	tests := []struct {
		role, resource, action string
		expected               bool
	}{
		{"admin", "/api/classrooms", "DELETE", true},
		{"teacher", "/api/groups", "GET", true},
		{"teacher", "/api/groups", "POST", false},
		{"teacher", "/api/classrooms", "GET", false},
		{"student", "/api/groups", "GET", false},
	}
	for _, tt := range tests {
		got, err := policyService.CheckPermission(tt.role, tt.resource, tt.action)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.expected {
			t.Errorf("CheckPermission(%s, %s, %s) = %v, want %v", tt.role, tt.resource, tt.action, got, tt.expected)
		}
	}
}

func TestEnsurePolicies(t *testing.T) {
	enforcer := mocks.NewMockCasbinEnforcer()
	rules := []RouteRule{
		{Method: "GET", Path: "/api/classrooms", Roles: []domain.Role{domain.RoleAdmin}},
		{Method: "GET", Path: "/api/groups", Roles: []domain.Role{domain.RoleAdmin, domain.RoleTeacher}},
		{Method: "GET", Path: "/api/schedules", Roles: []domain.Role{domain.RoleAdmin, domain.RoleTeacher, domain.RoleStudent}},
	}

	added, err := EnsurePolicies(enforcer, "/api", rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// admin wildcard + teacher x2 + student x1
	if added != 4 {
		t.Errorf("expected 4 policies added, got %d", added)
	}

	again, err := EnsurePolicies(enforcer, "/api", rules)
	if err != nil || again != 0 {
		t.Errorf("expected reseeding to add nothing, got %d, %v", again, err)
	}

	if ok, _ := enforcer.Enforce("role_teacher", "/api/classrooms", "GET"); ok {
		t.Error("teacher must not reach admin-only route")
	}
	if ok, _ := enforcer.Enforce("role_admin", "/api/classrooms", "DELETE"); !ok {
		t.Error("admin wildcard must cover every route")
	}
}
