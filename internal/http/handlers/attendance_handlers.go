package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/http/middleware"
	"github.com/you/schoolsvc/internal/http/respond"
)

// AttendanceHandlers records lessons and feeds the payment-cycle ledger
type AttendanceHandlers struct {
	ledger     domain.LedgerService
	attendance domain.AttendanceRepository
}

func NewAttendanceHandlers(ledger domain.LedgerService, attendance domain.AttendanceRepository) *AttendanceHandlers {
	return &AttendanceHandlers{ledger: ledger, attendance: attendance}
}

type attendanceRequest struct {
	StudentID  uint                    `json:"studentId" binding:"required"`
	GroupID    uint                    `json:"groupId" binding:"required"`
	ScheduleID *uint                   `json:"scheduleId"`
	Date       string                  `json:"date" binding:"required"`
	Status     domain.AttendanceStatus `json:"status" binding:"omitempty,oneof=present absent late"`
}

func (r attendanceRequest) attendance() (*domain.Attendance, error) {
	date, err := parseDate("date", r.Date)
	if err != nil {
		return nil, err
	}
	return &domain.Attendance{
		StudentID:  r.StudentID,
		GroupID:    r.GroupID,
		ScheduleID: r.ScheduleID,
		Date:       date,
		Status:     r.Status,
	}, nil
}

func attendanceFilter(c *gin.Context) (domain.AttendanceFilter, error) {
	var f domain.AttendanceFilter
	var err error
	if f.StudentID, err = queryID(c, "studentId"); err != nil {
		return f, err
	}
	if f.GroupID, err = queryID(c, "groupId"); err != nil {
		return f, err
	}
	f.From, f.To, err = queryPeriod(c)
	return f, err
}

func (h *AttendanceHandlers) List(c *gin.Context) {
	filter, err := attendanceFilter(c)
	if err != nil {
		respond.Error(c, err)
		return
	}
	rows, err := h.attendance.List(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusOK, rows)
}

// Record stores one lesson. When it completes a billing block the opened
// payment cycle is returned alongside; cyclePending reports a block whose
// cycle could not be opened yet.
func (h *AttendanceHandlers) Record(c *gin.Context) {
	var req attendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	a, err := req.attendance()
	if err != nil {
		respond.Error(c, err)
		return
	}

	rec, err := h.ledger.RecordAttendance(c.Request.Context(), a)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusCreated, rec)
}

// Update corrects the status, date or schedule of a recorded lesson. The
// student and group of a record are fixed.
func (h *AttendanceHandlers) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	var req attendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	upd, err := req.attendance()
	if err != nil {
		respond.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	current, err := h.attendance.FindByID(ctx, id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if current.StudentID != upd.StudentID || current.GroupID != upd.GroupID {
		respond.Error(c, fmt.Errorf("%w: studentId and groupId cannot change", domain.ErrInvalidValue))
		return
	}

	current.Date = upd.Date.UTC().Truncate(24 * time.Hour)
	current.ScheduleID = upd.ScheduleID
	if upd.Status != "" {
		current.Status = upd.Status
	}
	if err := h.attendance.Update(ctx, current); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusOK, current)
}

func (h *AttendanceHandlers) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	if err := h.attendance.Delete(c.Request.Context(), id); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Dates lists the lesson days of a student in a group. Students without a
// studentId query see their own.
func (h *AttendanceHandlers) Dates(c *gin.Context) {
	studentID, err := queryID(c, "studentId")
	if err != nil {
		respond.Error(c, err)
		return
	}
	groupID, err := queryID(c, "groupId")
	if err != nil {
		respond.Error(c, err)
		return
	}
	if studentID == 0 {
		if user, ok := middleware.CurrentUser(c); ok && user.Role == domain.RoleStudent && user.ReferenceID != nil {
			studentID = *user.ReferenceID
		}
	}
	if studentID == 0 || groupID == 0 {
		respond.Error(c, fmt.Errorf("%w: studentId and groupId are required", domain.ErrValidation))
		return
	}

	dates, err := h.attendance.LessonDates(c.Request.Context(), studentID, groupID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.UTC().Format(dateLayout))
	}
	respond.Data(c, http.StatusOK, gin.H{
		"studentId": studentID,
		"groupId":   groupID,
		"dates":     out,
	})
}
