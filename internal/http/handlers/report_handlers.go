package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/http/respond"
	"github.com/you/schoolsvc/internal/services"
)

// Reports is the read-only aggregate source behind the report routes
type Reports interface {
	Dashboard(ctx context.Context, from, to *time.Time) (*domain.DashboardSummary, error)
	AttendanceReport(ctx context.Context, filter domain.AttendanceFilter) ([]services.AttendanceSummary, error)
	PaymentReport(ctx context.Context, filter domain.PaymentFilter) (*services.PaymentReport, error)
}

type ReportHandlers struct {
	reports Reports
	policy  domain.AccessPolicy
}

func NewReportHandlers(reports Reports, policy domain.AccessPolicy) *ReportHandlers {
	return &ReportHandlers{reports: reports, policy: policy}
}

func (h *ReportHandlers) Dashboard(c *gin.Context) {
	from, to, err := queryPeriod(c)
	if err != nil {
		respond.Error(c, err)
		return
	}
	summary, err := h.reports.Dashboard(c.Request.Context(), from, to)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusOK, summary)
}

func (h *ReportHandlers) Attendance(c *gin.Context) {
	filter, err := attendanceFilter(c)
	if err != nil {
		respond.Error(c, err)
		return
	}
	rows, err := h.reports.AttendanceReport(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusOK, rows)
}

func (h *ReportHandlers) Payments(c *gin.Context) {
	filter, err := paymentFilter(c)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if err := ownPayments(c, h.policy, &filter); err != nil {
		respond.Error(c, err)
		return
	}
	report, err := h.reports.PaymentReport(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusOK, report)
}
