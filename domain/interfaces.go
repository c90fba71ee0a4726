package domain

import (
	"context"
	"time"
)

// UserRepository defines user data access operations
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uint) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user *User) error
	CountByRole(ctx context.Context, role Role) (int64, error)
}

// TokenDenylist records revoked token ids until they would have expired anyway
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// BootstrapLock serialises admin bootstrap across server instances
type BootstrapLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// AuthService defines the session issuer
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*User, error)
	RegisterAdmin(ctx context.Context, in RegisterInput) (*User, error)
	CreateAdmin(ctx context.Context, in RegisterInput) (*User, error)
	AdminExists(ctx context.Context) (bool, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Logout(ctx context.Context, claims *TokenClaims) error
	GetUserProfile(ctx context.Context, userID uint) (*User, error)
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// TokenService defines token operations
type TokenService interface {
	GenerateAccessToken(userID uint, role Role) (string, *TokenClaims, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
}

// NotificationService defines notification operations
type NotificationService interface {
	SendSMS(to, message string) error
	SendEmail(to, subject, body string) error
}

// AccessPolicy is the access policy engine plus the ownership filter
type AccessPolicy interface {
	Authorize(user *User, resource, action string) error
	RequireRole(user *User, allowed ...Role) error
	CheckOwnership(user *User, kind OwnerKind, ownerRef uint) error
}

// PolicyService manages the casbin role-gate policies
type PolicyService interface {
	AddPolicy(role, resource, action string) error
	RemovePolicy(role, resource, action string) error
	CheckPermission(role, resource, action string) (bool, error)
	GetPolicies() [][]string
}

// CasbinEnforcer interface defines the methods we need from Casbin enforcer
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
	SavePolicy() error
}

// AccessControlService is the admin surface over users
type AccessControlService interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id uint) (*User, error)
	UpdateRole(ctx context.Context, id uint, role Role) (*User, error)
	UpdatePermissions(ctx context.Context, id uint, grants []PermissionGrant) (*User, error)
	UpdateReference(ctx context.Context, id uint, refID *uint, refModel *ReferenceModel) (*User, error)
}

// PaymentRepository defines payment cycle persistence
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	FindByID(ctx context.Context, id uint) (*Payment, error)
	FindByCycle(ctx context.Context, studentID, groupID uint, cycleStart time.Time) (*Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]Payment, error)
	Update(ctx context.Context, id uint, upd PaymentUpdate) (*Payment, error)
	Confirm(ctx context.Context, id uint, at time.Time) (*Payment, bool, error)
	ListOverdue(ctx context.Context, now time.Time) ([]Payment, error)
	Totals(ctx context.Context, from, to time.Time) (PaymentTotals, error)
}

// AttendanceRepository defines attendance persistence
type AttendanceRepository interface {
	Create(ctx context.Context, a *Attendance) error
	FindByID(ctx context.Context, id uint) (*Attendance, error)
	Update(ctx context.Context, a *Attendance) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter AttendanceFilter) ([]Attendance, error)
	LessonDates(ctx context.Context, studentID, groupID uint) ([]time.Time, error)
	CountByStatus(ctx context.Context, from, to time.Time) (map[string]int64, error)
}

// GroupRepository reads groups for billing and ownership decisions
type GroupRepository interface {
	FindByID(ctx context.Context, id uint) (*Group, error)
	ListByTeacher(ctx context.Context, teacherID uint) ([]Group, error)
}

// StudentRepository reads students for ledger and reminder decisions
type StudentRepository interface {
	FindByID(ctx context.Context, id uint) (*Student, error)
}

// LedgerService is the payment-cycle ledger
type LedgerService interface {
	RecordAttendance(ctx context.Context, a *Attendance) (*LessonRecord, error)
	CreatePayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, id uint) (*Payment, error)
	ListPayments(ctx context.Context, filter PaymentFilter) ([]Payment, error)
	UpdatePayment(ctx context.Context, id uint, upd PaymentUpdate) (*Payment, error)
	ConfirmPayment(ctx context.Context, id uint) (*Payment, error)
	PaymentStatus(ctx context.Context, studentID uint) ([]PaymentStatus, error)
	Notices(ctx context.Context, studentID uint) ([]PaymentNotice, error)
}
