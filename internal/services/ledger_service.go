package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/metrics"
)

// LedgerOptions carries the billing tunables of LedgerServiceImpl
type LedgerOptions struct {
	LessonsPerCycle int
	GracePeriod     time.Duration
	Metrics         *metrics.Metrics
	Log             logrus.FieldLogger
	Now             func() time.Time
}

// LedgerServiceImpl implements domain.LedgerService
type LedgerServiceImpl struct {
	payments   domain.PaymentRepository
	attendance domain.AttendanceRepository
	groups     domain.GroupRepository
	students   domain.StudentRepository
	audit      domain.AuditLogger
	opts       LedgerOptions
}

// NewLedgerService creates the payment-cycle ledger
func NewLedgerService(
	payments domain.PaymentRepository,
	attendance domain.AttendanceRepository,
	groups domain.GroupRepository,
	students domain.StudentRepository,
	audit domain.AuditLogger,
	opts LedgerOptions,
) *LedgerServiceImpl {
	if opts.LessonsPerCycle <= 0 {
		opts.LessonsPerCycle = domain.DefaultLessonsPerCycle
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if audit == nil {
		audit = domain.NopAuditLogger{}
	}
	return &LedgerServiceImpl{
		payments:   payments,
		attendance: attendance,
		groups:     groups,
		students:   students,
		audit:      audit,
		opts:       opts,
	}
}

func lessonDay(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// RecordAttendance stores one lesson and opens a payment cycle once the
// student has a full block of lessons in the group not billed by any earlier
// cycle. A lesson backfilled into an already billed period stays with that
// period and is never billed again.
func (s *LedgerServiceImpl) RecordAttendance(ctx context.Context, a *domain.Attendance) (*domain.LessonRecord, error) {
	if a.StudentID == 0 || a.GroupID == 0 {
		return nil, fmt.Errorf("%w: studentId and groupId are required", domain.ErrValidation)
	}
	if a.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", domain.ErrValidation)
	}
	switch a.Status {
	case "":
		a.Status = domain.AttendancePresent
	case domain.AttendancePresent, domain.AttendanceAbsent, domain.AttendanceLate:
	default:
		return nil, fmt.Errorf("%w: status %q", domain.ErrInvalidValue, a.Status)
	}
	a.Date = lessonDay(a.Date)

	group, err := s.groups.FindByID(ctx, a.GroupID)
	if err != nil {
		return nil, err
	}
	if _, err := s.students.FindByID(ctx, a.StudentID); err != nil {
		return nil, err
	}
	if !group.HasStudent(a.StudentID) {
		return nil, fmt.Errorf("%w: student %d is not enrolled in group %d", domain.ErrInvalidValue, a.StudentID, a.GroupID)
	}

	if err := s.attendance.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to record attendance: %w", err)
	}

	rec := &domain.LessonRecord{Attendance: a}
	opened, err := s.maybeOpenCycle(ctx, a.StudentID, group)
	if err != nil {
		// the lesson is stored; the block stays unbilled until the next lesson retries
		s.opts.Log.WithError(err).WithFields(logrus.Fields{
			"student_id": a.StudentID,
			"group_id":   a.GroupID,
		}).Warn("payment cycle open deferred")
		rec.CyclePending = true
		return rec, nil
	}
	rec.OpenedCycle = opened
	return rec, nil
}

// unbilledLessons returns the lesson days after the latest day any existing
// cycle covers, in date order
func unbilledLessons(dates []time.Time, cycles []domain.Payment) []time.Time {
	var covered time.Time
	for i := range cycles {
		if until := lessonDay(cycles[i].CoveredUntil()); until.After(covered) {
			covered = until
		}
	}
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if d = lessonDay(d); d.After(covered) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (s *LedgerServiceImpl) maybeOpenCycle(ctx context.Context, studentID uint, group *domain.Group) (*domain.Payment, error) {
	dates, err := s.attendance.LessonDates(ctx, studentID, group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count lessons: %w", err)
	}
	cycles, err := s.payments.List(ctx, domain.PaymentFilter{StudentID: studentID, GroupID: group.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to list cycles: %w", err)
	}

	n := group.CycleLength(s.opts.LessonsPerCycle)
	pending := unbilledLessons(dates, cycles)
	if len(pending) < n {
		return nil, nil
	}
	block := pending[:n]
	start := block[0]
	last := block[n-1]

	if _, err := s.payments.FindByCycle(ctx, studentID, group.ID, start); err == nil {
		return nil, nil
	} else if !errors.Is(err, domain.ErrPaymentNotFound) {
		return nil, err
	}

	p := &domain.Payment{
		StudentID:         studentID,
		GroupID:           group.ID,
		CycleStartDate:    start,
		CycleEndDate:      last.Add(s.opts.GracePeriod),
		CycleLessonsCount: n,
		LastLessonDate:    &last,
		Amount:            group.CyclePrice,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		if errors.Is(err, domain.ErrCycleExists) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open payment cycle: %w", err)
	}

	s.opts.Metrics.CycleOpened()
	s.opts.Log.WithFields(logrus.Fields{
		"student_id":  studentID,
		"group_id":    group.ID,
		"payment_id":  p.ID,
		"cycle_start": start.Format("2006-01-02"),
	}).Info("payment cycle opened")
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PaymentCycleOpenedEvent, 0).
		WithMetadata("payment_id", p.ID).
		WithMetadata("student_id", studentID).
		WithMetadata("group_id", group.ID))
	return p, nil
}

// CreatePayment records a cycle entered directly by an admin. It always starts unconfirmed.
func (s *LedgerServiceImpl) CreatePayment(ctx context.Context, p *domain.Payment) error {
	if p.StudentID == 0 || p.GroupID == 0 {
		return fmt.Errorf("%w: studentId and groupId are required", domain.ErrValidation)
	}
	if p.CycleStartDate.IsZero() || p.CycleEndDate.IsZero() {
		return fmt.Errorf("%w: cycle dates are required", domain.ErrValidation)
	}
	if p.CycleEndDate.Before(p.CycleStartDate) {
		return fmt.Errorf("%w: cycle ends before it starts", domain.ErrInvalidValue)
	}
	if p.Amount < 0 || p.AmountPaid < 0 {
		return fmt.Errorf("%w: amounts must not be negative", domain.ErrInvalidValue)
	}
	if _, err := s.students.FindByID(ctx, p.StudentID); err != nil {
		return err
	}
	if _, err := s.groups.FindByID(ctx, p.GroupID); err != nil {
		return err
	}

	p.ID = 0
	p.Confirmed = false
	p.ConfirmedAt = nil
	if p.CycleLessonsCount <= 0 {
		p.CycleLessonsCount = s.opts.LessonsPerCycle
	}
	return s.payments.Create(ctx, p)
}

func (s *LedgerServiceImpl) GetPayment(ctx context.Context, id uint) (*domain.Payment, error) {
	return s.payments.FindByID(ctx, id)
}

func (s *LedgerServiceImpl) ListPayments(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, error) {
	return s.payments.List(ctx, filter)
}

// UpdatePayment edits amount and payment date; confirmation has its own operation
func (s *LedgerServiceImpl) UpdatePayment(ctx context.Context, id uint, upd domain.PaymentUpdate) (*domain.Payment, error) {
	if upd.Amount == nil && upd.PaymentDate == nil {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}
	if upd.Amount != nil && *upd.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", domain.ErrInvalidValue)
	}
	return s.payments.Update(ctx, id, upd)
}

// ConfirmPayment marks the cycle confirmed. Confirming twice returns the
// same row and changes nothing.
func (s *LedgerServiceImpl) ConfirmPayment(ctx context.Context, id uint) (*domain.Payment, error) {
	p, changed, err := s.payments.Confirm(ctx, id, s.opts.Now())
	if err != nil {
		return nil, err
	}
	s.opts.Metrics.Confirmation(changed)
	if changed {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PaymentConfirmedEvent, 0).
			WithMetadata("payment_id", p.ID).
			WithMetadata("student_id", p.StudentID).
			WithMetadata("group_id", p.GroupID).
			WithMetadata("amount_paid", p.AmountPaid))
	}
	return p, nil
}

// PaymentStatus projects the student's cycles at read time
func (s *LedgerServiceImpl) PaymentStatus(ctx context.Context, studentID uint) ([]domain.PaymentStatus, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		return nil, err
	}
	payments, err := s.payments.List(ctx, domain.PaymentFilter{StudentID: studentID})
	if err != nil {
		return nil, err
	}
	return domain.ProjectPaymentStatus(payments, s.opts.Now()), nil
}

// Notices evaluates the advisory payment signals for every group the student
// has lessons or cycles in.
func (s *LedgerServiceImpl) Notices(ctx context.Context, studentID uint) ([]domain.PaymentNotice, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		return nil, err
	}
	payments, err := s.payments.List(ctx, domain.PaymentFilter{StudentID: studentID})
	if err != nil {
		return nil, err
	}
	lessons, err := s.attendance.List(ctx, domain.AttendanceFilter{StudentID: studentID})
	if err != nil {
		return nil, err
	}

	counts := map[uint]int{}
	cycles := map[uint][]domain.Payment{}
	for _, a := range lessons {
		counts[a.GroupID]++
	}
	for _, p := range payments {
		cycles[p.GroupID] = append(cycles[p.GroupID], p)
		if _, ok := counts[p.GroupID]; !ok {
			counts[p.GroupID] = 0
		}
	}

	groupIDs := make([]uint, 0, len(counts))
	for id := range counts {
		groupIDs = append(groupIDs, id)
	}
	sort.Slice(groupIDs, func(i, j int) bool { return groupIDs[i] < groupIDs[j] })

	now := s.opts.Now()
	notices := []domain.PaymentNotice{}
	for _, gid := range groupIDs {
		n := s.opts.LessonsPerCycle
		if g, err := s.groups.FindByID(ctx, gid); err == nil {
			n = g.CycleLength(n)
		} else if !errors.Is(err, domain.ErrGroupNotFound) {
			return nil, err
		}
		notices = append(notices, domain.BuildNotices(studentID, gid, counts[gid], n, cycles[gid], now)...)
	}
	return notices, nil
}

var _ domain.LedgerService = (*LedgerServiceImpl)(nil)
