package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the coarse access class of a user
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Roles lists every valid role
var Roles = []Role{RoleAdmin, RoleTeacher, RoleStudent}

// ParseRole validates a role string at the boundary
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: role %q", ErrInvalidValue, s)
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// PolicySubject is the casbin subject for the role
func (r Role) PolicySubject() string {
	return "role_" + string(r)
}

// UnmarshalJSON rejects unknown roles during decoding
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: role must be a string", ErrInvalidValue)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ReferenceModel names the domain entity a user is linked to
type ReferenceModel string

const (
	ReferenceTeacher ReferenceModel = "Teacher"
	ReferenceStudent ReferenceModel = "Student"
)

// ParseReferenceModel validates a reference model string
func ParseReferenceModel(s string) (ReferenceModel, error) {
	switch ReferenceModel(s) {
	case ReferenceTeacher, ReferenceStudent:
		return ReferenceModel(s), nil
	}
	return "", fmt.Errorf("%w: referenceModel %q", ErrInvalidValue, s)
}

// UnmarshalJSON rejects unknown reference models during decoding
func (m *ReferenceModel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: referenceModel must be a string", ErrInvalidValue)
	}
	parsed, err := ParseReferenceModel(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// OwnerKind identifies whose reference id owns a record
type OwnerKind string

const (
	OwnerStudent OwnerKind = "student"
	OwnerTeacher OwnerKind = "teacher"
)

// ReferenceModelFor maps an owner kind to the reference model a user must carry
func ReferenceModelFor(kind OwnerKind) ReferenceModel {
	if kind == OwnerTeacher {
		return ReferenceTeacher
	}
	return ReferenceStudent
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
