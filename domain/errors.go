package domain

import "errors"

// Authentication errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateEmail     = errors.New("user with this email already exists")
	ErrAdminAlreadyExists = errors.New("an admin account already exists")
	ErrBootstrapBusy      = errors.New("admin bootstrap already in progress")
)

// Token errors
var (
	ErrTokenInvalid    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token has expired")
	ErrTokenMalformed  = errors.New("malformed token")
	ErrTokenRevoked    = errors.New("token has been revoked")
	ErrUnauthenticated = errors.New("authentication required")
)

// Authorization errors
var (
	ErrAccessDenied            = errors.New("access denied")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)

// Input and resource errors
var (
	ErrValidation       = errors.New("validation failed")
	ErrInvalidValue     = errors.New("invalid value")
	ErrResourceNotFound = errors.New("resource not found")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrStudentNotFound  = errors.New("student not found")
	ErrGroupNotFound    = errors.New("group not found")
	ErrConflict         = errors.New("resource already exists")
	ErrCycleExists      = errors.New("payment cycle already exists")
)

// ErrorKind is the stable machine-readable classification sent to clients
type ErrorKind string

const (
	KindValidation              ErrorKind = "validation_error"
	KindInvalidValue            ErrorKind = "invalid_value"
	KindInvalidCredentials      ErrorKind = "invalid_credentials"
	KindUnauthenticated         ErrorKind = "unauthenticated"
	KindAccessDenied            ErrorKind = "access_denied"
	KindInsufficientPermissions ErrorKind = "insufficient_permissions"
	KindDuplicateEmail          ErrorKind = "duplicate_email"
	KindAdminAlreadyExists      ErrorKind = "admin_already_exists"
	KindNotFound                ErrorKind = "not_found"
	KindConflict                ErrorKind = "conflict"
	KindInternal                ErrorKind = "internal_error"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrInvalidValue, KindInvalidValue},
	{ErrValidation, KindValidation},
	{ErrInvalidCredentials, KindInvalidCredentials},
	{ErrTokenInvalid, KindUnauthenticated},
	{ErrTokenExpired, KindUnauthenticated},
	{ErrTokenMalformed, KindUnauthenticated},
	{ErrTokenRevoked, KindUnauthenticated},
	{ErrUnauthenticated, KindUnauthenticated},
	{ErrInsufficientPermissions, KindInsufficientPermissions},
	{ErrAccessDenied, KindAccessDenied},
	{ErrDuplicateEmail, KindDuplicateEmail},
	{ErrAdminAlreadyExists, KindAdminAlreadyExists},
	{ErrBootstrapBusy, KindConflict},
	{ErrConflict, KindConflict},
	{ErrCycleExists, KindConflict},
	{ErrUserNotFound, KindNotFound},
	{ErrResourceNotFound, KindNotFound},
	{ErrPaymentNotFound, KindNotFound},
	{ErrStudentNotFound, KindNotFound},
	{ErrGroupNotFound, KindNotFound},
}

// KindOf classifies err; anything unrecognised is internal
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
