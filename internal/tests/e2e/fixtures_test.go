package e2e

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/you/schoolsvc/domain"
)

const testPassword = "secret123"

var emailSeq atomic.Int64

func nextEmail(prefix string) string {
	return fmt.Sprintf("%s%d@school.test", prefix, emailSeq.Add(1))
}

// Session is a logged-in account
type Session struct {
	User  domain.UserView
	Token string
}

type loginData struct {
	Token     string          `json:"token"`
	TokenType string          `json:"tokenType"`
	ExpiresIn int64           `json:"expiresIn"`
	User      domain.UserView `json:"user"`
}

type createdData struct {
	UserID uint            `json:"userId"`
	User   domain.UserView `json:"user"`
}

// Login signs in and returns the session
func (s *TestSuite) Login(t *testing.T, email, password string) Session {
	t.Helper()
	r := s.API.Expect(http.StatusOK, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	var data loginData
	r.Decode(t, &data)
	require.NotEmpty(t, data.Token)
	return Session{User: data.User, Token: data.Token}
}

// BootstrapAdmin creates the first admin through the public endpoint and logs in
func (s *TestSuite) BootstrapAdmin(t *testing.T) Session {
	t.Helper()
	email := nextEmail("admin")
	s.API.Expect(http.StatusCreated, http.MethodPost, "/api/auth/create-admin", "", map[string]string{
		"email": email, "password": testPassword, "firstName": "Ada", "lastName": "Admin",
	})
	return s.Login(t, email, testPassword)
}

// RegisterUser self-registers with role and logs in
func (s *TestSuite) RegisterUser(t *testing.T, role domain.Role) Session {
	t.Helper()
	email := nextEmail(string(role))
	r := s.API.Expect(http.StatusCreated, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email": email, "password": testPassword, "firstName": "Test", "lastName": "User", "role": role,
	})
	var created createdData
	r.Decode(t, &created)
	require.Equal(t, role, created.User.Role)
	return s.Login(t, email, testPassword)
}

// LinkReference points a user at a student or teacher record
func (s *TestSuite) LinkReference(t *testing.T, admin Session, userID, refID uint, model domain.ReferenceModel) {
	t.Helper()
	s.API.Expect(http.StatusOK, http.MethodPut, fmt.Sprintf("/api/access/users/%d/reference", userID), admin.Token,
		map[string]interface{}{"referenceId": refID, "referenceModel": model})
}

// CreateStudent inserts a student record through the admin API
func (s *TestSuite) CreateStudent(t *testing.T, admin Session, first string) domain.Student {
	t.Helper()
	r := s.API.Expect(http.StatusCreated, http.MethodPost, "/api/students", admin.Token, map[string]interface{}{
		"firstName": first, "lastName": "Pupil", "email": nextEmail("pupil"), "parentPhone": "+15550001111",
	})
	var st domain.Student
	r.Decode(t, &st)
	require.NotZero(t, st.ID)
	return st
}

// CreateTeacher inserts a teacher record through the admin API
func (s *TestSuite) CreateTeacher(t *testing.T, admin Session) domain.Teacher {
	t.Helper()
	r := s.API.Expect(http.StatusCreated, http.MethodPost, "/api/teachers", admin.Token, map[string]interface{}{
		"firstName": "Grace", "lastName": "Hopper", "email": nextEmail("staff"), "subjects": []string{"math"},
	})
	var tc domain.Teacher
	r.Decode(t, &tc)
	return tc
}

// CreateGroup inserts a billed group through the admin API
func (s *TestSuite) CreateGroup(t *testing.T, admin Session, teacherID uint, lessons int, price float64, students ...uint) domain.Group {
	t.Helper()
	r := s.API.Expect(http.StatusCreated, http.MethodPost, "/api/groups", admin.Token, map[string]interface{}{
		"name":            fmt.Sprintf("Group %d", emailSeq.Add(1)),
		"subject":         "math",
		"teacherId":       teacherID,
		"studentIds":      students,
		"lessonsPerCycle": lessons,
		"cyclePrice":      price,
	})
	var g domain.Group
	r.Decode(t, &g)
	return g
}
