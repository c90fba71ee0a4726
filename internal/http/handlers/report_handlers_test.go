package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/services"
)

type fakeReports struct {
	from, to   *time.Time
	attendance domain.AttendanceFilter
	payments   domain.PaymentFilter
	err        error
}

func (f *fakeReports) Dashboard(_ context.Context, from, to *time.Time) (*domain.DashboardSummary, error) {
	f.from, f.to = from, to
	if f.err != nil {
		return nil, f.err
	}
	return &domain.DashboardSummary{Students: 12, Teachers: 3, Groups: 4}, nil
}

func (f *fakeReports) AttendanceReport(_ context.Context, filter domain.AttendanceFilter) ([]services.AttendanceSummary, error) {
	f.attendance = filter
	return []services.AttendanceSummary{{StudentID: 3, GroupID: 5, Present: 2, Total: 2}}, nil
}

func (f *fakeReports) PaymentReport(_ context.Context, filter domain.PaymentFilter) (*services.PaymentReport, error) {
	f.payments = filter
	return &services.PaymentReport{Payments: []domain.Payment{}, Totals: domain.PaymentTotals{Total: 8000, Confirmed: 4000}, Overdue: 1}, nil
}

func reportRouter(rep *fakeReports) *gin.Engine {
	return reportRouterAs(rep, &domain.User{ID: 1, Role: domain.RoleAdmin})
}

func reportRouterAs(rep *fakeReports, user *domain.User) *gin.Engine {
	h := NewReportHandlers(rep, services.NewAccessPolicy(nil))
	r := gin.New()
	r.Use(session(user, &domain.TokenClaims{UserID: user.ID, Role: user.Role}))
	r.GET("/dashboard-summary", h.Dashboard)
	r.GET("/reports/attendance", h.Attendance)
	r.GET("/reports/payments", h.Payments)
	return r
}

func TestReportHandlers(t *testing.T) {
	rep := &fakeReports{}
	r := reportRouter(rep)

	w := doJSON(r, http.MethodGet, "/dashboard-summary?from=2024-01-01&to=2024-01-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary domain.DashboardSummary
	decodeData(t, w, &summary)
	assert.Equal(t, int64(12), summary.Students)
	require.NotNil(t, rep.to)
	assert.Equal(t, 31, rep.to.Day())
	assert.Equal(t, 23, rep.to.Hour(), "a bare to date covers its whole day")

	w = doJSON(r, http.MethodGet, "/reports/attendance?groupId=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(5), rep.attendance.GroupID)

	w = doJSON(r, http.MethodGet, "/reports/payments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pr services.PaymentReport
	decodeData(t, w, &pr)
	assert.Equal(t, 1, pr.Overdue)
	assert.Equal(t, 4000.0, pr.Totals.Confirmed)

	w = doJSON(r, http.MethodGet, "/reports/payments?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlers_InternalErrorIsHidden(t *testing.T) {
	w := doJSON(reportRouter(&fakeReports{err: errors.New("pq: relation \"students\" does not exist")}), http.MethodGet, "/dashboard-summary", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeErr(t, w)
	assert.Equal(t, domain.KindInternal, body.Kind)
	assert.NotContains(t, body.Error, "relation")
}

func TestReportHandlers_PaymentsNarrowedForStudents(t *testing.T) {
	model := domain.ReferenceStudent
	linked := &domain.User{ID: 30, Role: domain.RoleStudent, ReferenceID: uintPtr(3), ReferenceModel: &model}

	rep := &fakeReports{}
	w := doJSON(reportRouterAs(rep, linked), http.MethodGet, "/reports/payments", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, uint(3), rep.payments.StudentID)

	w = doJSON(reportRouterAs(rep, linked), http.MethodGet, "/reports/payments?studentId=4", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, domain.KindAccessDenied, decodeErr(t, w).Kind)

	unlinked := &domain.User{ID: 31, Role: domain.RoleStudent}
	w = doJSON(reportRouterAs(&fakeReports{}, unlinked), http.MethodGet, "/reports/payments", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
