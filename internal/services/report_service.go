package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/you/schoolsvc/domain"
)

// Counter counts rows of one table
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// AttendanceSummary is one row of the attendance report
type AttendanceSummary struct {
	StudentID uint `json:"studentId"`
	GroupID   uint `json:"groupId"`
	Present   int  `json:"present"`
	Absent    int  `json:"absent"`
	Late      int  `json:"late"`
	Total     int  `json:"total"`
}

// PaymentReport lists cycles in a period with their totals
type PaymentReport struct {
	Payments []domain.Payment     `json:"payments"`
	Totals   domain.PaymentTotals `json:"totals"`
	Overdue  int                  `json:"overdue"`
}

// ReportService builds read-only aggregates
type ReportService struct {
	students   Counter
	teachers   Counter
	groups     Counter
	attendance domain.AttendanceRepository
	payments   domain.PaymentRepository
	now        func() time.Time
}

func NewReportService(students, teachers, groups Counter, attendance domain.AttendanceRepository, payments domain.PaymentRepository) *ReportService {
	return &ReportService{
		students:   students,
		teachers:   teachers,
		groups:     groups,
		attendance: attendance,
		payments:   payments,
		now:        time.Now,
	}
}

// period defaults to the current calendar month
func (r *ReportService) period(from, to *time.Time) (time.Time, time.Time) {
	now := r.now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	if from != nil {
		start = *from
	}
	if to != nil {
		end = *to
	}
	return start, end
}

// Dashboard counts entities and summarises attendance and payments for the period
func (r *ReportService) Dashboard(ctx context.Context, from, to *time.Time) (*domain.DashboardSummary, error) {
	start, end := r.period(from, to)
	out := &domain.DashboardSummary{}

	var err error
	if out.Students, err = r.students.Count(ctx); err != nil {
		return nil, fmt.Errorf("count students: %w", err)
	}
	if out.Teachers, err = r.teachers.Count(ctx); err != nil {
		return nil, fmt.Errorf("count teachers: %w", err)
	}
	if out.Groups, err = r.groups.Count(ctx); err != nil {
		return nil, fmt.Errorf("count groups: %w", err)
	}
	if out.Attendance, err = r.attendance.CountByStatus(ctx, start, end); err != nil {
		return nil, fmt.Errorf("count attendance: %w", err)
	}
	if out.Payments, err = r.payments.Totals(ctx, start, end); err != nil {
		return nil, fmt.Errorf("sum payments: %w", err)
	}
	return out, nil
}

// AttendanceReport summarises attendance per student and group
func (r *ReportService) AttendanceReport(ctx context.Context, filter domain.AttendanceFilter) ([]AttendanceSummary, error) {
	rows, err := r.attendance.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	type key struct{ student, group uint }
	acc := map[key]*AttendanceSummary{}
	for _, a := range rows {
		k := key{a.StudentID, a.GroupID}
		s, ok := acc[k]
		if !ok {
			s = &AttendanceSummary{StudentID: a.StudentID, GroupID: a.GroupID}
			acc[k] = s
		}
		s.Total++
		switch a.Status {
		case domain.AttendanceAbsent:
			s.Absent++
		case domain.AttendanceLate:
			s.Late++
		default:
			s.Present++
		}
	}

	out := make([]AttendanceSummary, 0, len(acc))
	for _, s := range acc {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GroupID != out[j].GroupID {
			return out[i].GroupID < out[j].GroupID
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out, nil
}

// PaymentReport lists cycles matching filter with totals over the same set
func (r *ReportService) PaymentReport(ctx context.Context, filter domain.PaymentFilter) (*PaymentReport, error) {
	rows, err := r.payments.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := r.now()
	rep := &PaymentReport{Payments: rows}
	for i := range rows {
		rep.Totals.Total += rows[i].Amount
		if rows[i].Confirmed {
			rep.Totals.Confirmed += rows[i].AmountPaid
		}
		if rows[i].Overdue(now) {
			rep.Overdue++
		}
	}
	return rep, nil
}
