package domain

import "time"

// PermissionGrant allows a non-admin user a set of actions on one resource
type PermissionGrant struct {
	Resource string   `json:"resource" binding:"required"`
	Actions  []string `json:"actions" binding:"required,min=1,dive,required"`
}

// Allows reports whether the grant includes the given action
func (g PermissionGrant) Allows(action string) bool {
	for _, a := range g.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// User represents an identity record
type User struct {
	ID             uint
	Email          string
	PasswordHash   string
	FirstName      string
	LastName       string
	Role           Role
	ReferenceID    *uint
	ReferenceModel *ReferenceModel
	Permissions    []PermissionGrant
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Normalize enforces the admin invariant: admins never carry a reference or grants
func (u *User) Normalize() {
	if u.Role == RoleAdmin {
		u.ReferenceID = nil
		u.ReferenceModel = nil
		u.Permissions = []PermissionGrant{}
	}
	if u.Permissions == nil {
		u.Permissions = []PermissionGrant{}
	}
}

// Public returns the redacted view of the user (no password hash)
func (u *User) Public() *UserView {
	return &UserView{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Role:           u.Role,
		ReferenceID:    u.ReferenceID,
		ReferenceModel: u.ReferenceModel,
		Permissions:    u.Permissions,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// UserView is what clients see of a user
type UserView struct {
	ID             uint              `json:"id"`
	Email          string            `json:"email"`
	FirstName      string            `json:"firstName"`
	LastName       string            `json:"lastName"`
	Role           Role              `json:"role"`
	ReferenceID    *uint             `json:"referenceId"`
	ReferenceModel *ReferenceModel   `json:"referenceModel"`
	Permissions    []PermissionGrant `json:"permissions"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// RegisterInput carries everything needed to create a user
type RegisterInput struct {
	Email          string
	Password       string
	FirstName      string
	LastName       string
	Role           Role
	ReferenceID    *uint
	ReferenceModel *ReferenceModel
	Permissions    []PermissionGrant
}

// AuthResult represents authentication outcome
type AuthResult struct {
	User        *User
	AccessToken string
	ExpiresIn   int64
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	TokenID   string `json:"jti"`
	UserID    uint   `json:"user_id"`
	Role      Role   `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// Remaining returns how long the token stays valid after now
func (c *TokenClaims) Remaining(now time.Time) time.Duration {
	return time.Unix(c.ExpiresAt, 0).Sub(now)
}

// Classroom is a physical room lessons take place in
type Classroom struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex;size:255" binding:"required"`
	Capacity    int       `json:"capacity" binding:"required,min=1"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Teacher is the domain entity a teacher user may reference
type Teacher struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	FirstName string    `json:"firstName" binding:"required"`
	LastName  string    `json:"lastName" binding:"required"`
	Email     string    `json:"email" gorm:"uniqueIndex;size:255" binding:"required,email"`
	Phone     string    `json:"phone"`
	Subjects  []string  `json:"subjects" gorm:"serializer:json"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Student is the domain entity a student user may reference
type Student struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FirstName   string    `json:"firstName" binding:"required"`
	LastName    string    `json:"lastName" binding:"required"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	ParentName  string    `json:"parentName"`
	ParentPhone string    `json:"parentPhone"`
	Balance     float64   `json:"balance"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Group is a class of students taught by one teacher and billed per cycle
type Group struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	Name            string    `json:"name" gorm:"uniqueIndex;size:255" binding:"required"`
	Subject         string    `json:"subject" binding:"required"`
	TeacherID       uint      `json:"teacherId" gorm:"index" binding:"required"`
	StudentIDs      []uint    `json:"studentIds" gorm:"serializer:json"`
	LessonsPerCycle int       `json:"lessonsPerCycle" binding:"min=0"`
	CyclePrice      float64   `json:"cyclePrice" binding:"min=0"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// HasStudent reports whether the student is enrolled in the group
func (g *Group) HasStudent(studentID uint) bool {
	for _, id := range g.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// CycleLength returns the configured lessons per cycle or the fallback
func (g *Group) CycleLength(fallback int) int {
	if g.LessonsPerCycle > 0 {
		return g.LessonsPerCycle
	}
	return fallback
}

// Schedule is a recurring lesson slot
type Schedule struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	GroupID     uint      `json:"groupId" gorm:"index" binding:"required"`
	ClassroomID uint      `json:"classroomId" gorm:"index" binding:"required"`
	StartTime   time.Time `json:"startTime" binding:"required"`
	EndTime     time.Time `json:"endTime" binding:"required,gtfield=StartTime"`
	DayOfWeek   string    `json:"dayOfWeek" binding:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AttendanceStatus is the outcome of one lesson for one student
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

// Attendance records one lesson for one student in one group
type Attendance struct {
	ID         uint             `json:"id" gorm:"primaryKey"`
	StudentID  uint             `json:"studentId" gorm:"index:idx_attendance_student_group"`
	GroupID    uint             `json:"groupId" gorm:"index:idx_attendance_student_group"`
	ScheduleID *uint            `json:"scheduleId"`
	Date       time.Time        `json:"date" gorm:"index"`
	Status     AttendanceStatus `json:"status" gorm:"size:16"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// AttendanceFilter narrows attendance queries; zero values are ignored
type AttendanceFilter struct {
	StudentID uint
	GroupID   uint
	From      *time.Time
	To        *time.Time
}

// DashboardSummary aggregates counts shown on the landing page
type DashboardSummary struct {
	Students   int64            `json:"students"`
	Teachers   int64            `json:"teachers"`
	Groups     int64            `json:"groups"`
	Attendance map[string]int64 `json:"attendance"`
	Payments   PaymentTotals    `json:"payments"`
}

// PaymentTotals sums payment amounts over a period
type PaymentTotals struct {
	Total     float64 `json:"total"`
	Confirmed float64 `json:"confirmed"`
}
