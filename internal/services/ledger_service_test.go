package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/mocks"
)

type ledgerFixture struct {
	svc        *LedgerServiceImpl
	payments   *mocks.MockPaymentRepository
	attendance *mocks.MockAttendanceRepository
	audit      *mocks.MockAuditLogger
	now        time.Time
}

func createLedgerServiceForTest(t *testing.T, cycle int) *ledgerFixture {
	t.Helper()

	f := &ledgerFixture{
		payments:   mocks.NewMockPaymentRepository(),
		attendance: mocks.NewMockAttendanceRepository(),
		audit:      mocks.NewMockAuditLogger(),
		now:        day("2024-03-01"),
	}
	groups := mocks.NewMockGroupRepository(
		&domain.Group{ID: 1, Name: "A1", TeacherID: 1, StudentIDs: []uint{1, 2}, LessonsPerCycle: cycle, CyclePrice: 4000},
		&domain.Group{ID: 2, Name: "B1", TeacherID: 1, StudentIDs: []uint{2}},
	)
	students := mocks.NewMockStudentRepository(
		&domain.Student{ID: 1, FirstName: "Ann", LastName: "Lee"},
		&domain.Student{ID: 2, FirstName: "Bo", LastName: "Kim"},
	)
	f.svc = NewLedgerService(f.payments, f.attendance, groups, students, f.audit, LedgerOptions{
		LessonsPerCycle: 8,
		GracePeriod:     7 * 24 * time.Hour,
		Now:             func() time.Time { return f.now },
	})
	return f
}

func recordLessons(t *testing.T, f *ledgerFixture, studentID, groupID uint, from time.Time, n int) []*domain.Payment {
	t.Helper()

	var opened []*domain.Payment
	for i := 0; i < n; i++ {
		rec, err := f.svc.RecordAttendance(context.Background(), &domain.Attendance{
			StudentID: studentID,
			GroupID:   groupID,
			Date:      from.AddDate(0, 0, i),
		})
		if err != nil {
			t.Fatalf("lesson %d: %v", i, err)
		}
		if rec.CyclePending {
			t.Fatalf("lesson %d: cycle open deferred", i)
		}
		if rec.OpenedCycle != nil {
			opened = append(opened, rec.OpenedCycle)
		}
	}
	return opened
}

func TestLedgerService_RecordAttendanceOpensCycle(t *testing.T) {
	f := createLedgerServiceForTest(t, 4)

	opened := recordLessons(t, f, 1, 1, day("2024-01-01"), 9)

	if len(opened) != 2 {
		t.Fatalf("expected a cycle after lessons 4 and 8, got %d", len(opened))
	}
	first := opened[0]
	if !first.CycleStartDate.Equal(day("2024-01-01")) {
		t.Errorf("expected first cycle to start on the first lesson, got %s", first.CycleStartDate)
	}
	if !first.CycleEndDate.Equal(day("2024-01-11")) {
		t.Errorf("expected end = last lesson + grace, got %s", first.CycleEndDate)
	}
	if first.Amount != 4000 || first.CycleLessonsCount != 4 || first.Confirmed {
		t.Errorf("unexpected cycle %+v", first)
	}
	if !opened[1].CycleStartDate.Equal(day("2024-01-05")) {
		t.Errorf("expected second block to start on lesson 5, got %s", opened[1].CycleStartDate)
	}

	var cycleEvents int
	for _, typ := range f.audit.Types() {
		if typ == domain.PaymentCycleOpenedEvent {
			cycleEvents++
		}
	}
	if cycleEvents != 2 {
		t.Errorf("expected 2 cycle-opened events, got %d", cycleEvents)
	}
}

func TestLedgerService_RecordAttendanceDefaultCycle(t *testing.T) {
	f := createLedgerServiceForTest(t, 0)

	if opened := recordLessons(t, f, 1, 1, day("2024-01-01"), 7); len(opened) != 0 {
		t.Fatalf("expected no cycle before 8 lessons, got %d", len(opened))
	}
	if opened := recordLessons(t, f, 1, 1, day("2024-02-01"), 1); len(opened) != 1 {
		t.Fatalf("expected cycle at 8th lesson, got %d", len(opened))
	}
}

func TestLedgerService_RecordAttendanceExistingCycleIsKept(t *testing.T) {
	f := createLedgerServiceForTest(t, 2)
	ctx := context.Background()

	manual := &domain.Payment{
		StudentID: 1, GroupID: 1,
		CycleStartDate: day("2024-01-01"), CycleEndDate: day("2024-01-31"), Amount: 100,
	}
	if err := f.svc.CreatePayment(ctx, manual); err != nil {
		t.Fatalf("create payment: %v", err)
	}

	if opened := recordLessons(t, f, 1, 1, day("2024-01-01"), 2); len(opened) != 0 {
		t.Fatalf("expected the existing cycle to be reused, got %d new", len(opened))
	}

	// a concurrent writer that wins the insert is tolerated
	f.payments.CreateFunc = func(context.Context, *domain.Payment) error { return domain.ErrCycleExists }
	if opened := recordLessons(t, f, 1, 1, day("2024-02-01"), 2); len(opened) != 0 {
		t.Fatalf("expected lost race to open nothing, got %d", len(opened))
	}
}

func TestLedgerService_RecordAttendanceBackfillIsNotBilledTwice(t *testing.T) {
	f := createLedgerServiceForTest(t, 8)
	f.now = day("2024-02-01")

	first := recordLessons(t, f, 1, 1, day("2024-01-01"), 8)
	if len(first) != 1 {
		t.Fatalf("expected one cycle for Jan 1-8, got %d", len(first))
	}
	if opened := recordLessons(t, f, 1, 1, day("2024-01-10"), 7); len(opened) != 0 {
		t.Fatalf("expected Jan 10-16 to stay unbilled, got %d", len(opened))
	}

	// a lesson entered late for a day before the first cycle
	if opened := recordLessons(t, f, 1, 1, day("2023-12-31"), 1); len(opened) != 0 {
		t.Fatalf("expected the backfilled lesson to open nothing, got %+v", opened[0])
	}

	cycles, _ := f.svc.ListPayments(context.Background(), domain.PaymentFilter{StudentID: 1, GroupID: 1})
	if len(cycles) != 1 {
		t.Fatalf("expected a single cycle, got %d", len(cycles))
	}

	// the eighth unbilled lesson opens the next block right after Jan 8
	opened := recordLessons(t, f, 1, 1, day("2024-01-17"), 1)
	if len(opened) != 1 {
		t.Fatalf("expected the next cycle, got %d", len(opened))
	}
	if !opened[0].CycleStartDate.Equal(day("2024-01-10")) {
		t.Errorf("expected next cycle to start on Jan 10, got %s", opened[0].CycleStartDate)
	}
	if last := opened[0].LastLessonDate; last == nil || !last.Equal(day("2024-01-17")) {
		t.Errorf("expected next cycle to bill through Jan 17, got %v", last)
	}
}

func TestLedgerService_RecordAttendanceDefersFailedCycle(t *testing.T) {
	f := createLedgerServiceForTest(t, 2)
	ctx := context.Background()

	f.payments.CreateFunc = func(context.Context, *domain.Payment) error { return errors.New("connection reset") }
	recordLessons(t, f, 1, 1, day("2024-01-01"), 1)
	rec, err := f.svc.RecordAttendance(ctx, &domain.Attendance{StudentID: 1, GroupID: 1, Date: day("2024-01-02")})
	if err != nil {
		t.Fatalf("expected the lesson to be kept, got %v", err)
	}
	if !rec.CyclePending || rec.OpenedCycle != nil || rec.Attendance.ID == 0 {
		t.Errorf("unexpected record %+v", rec)
	}

	f.payments.CreateFunc = nil
	opened := recordLessons(t, f, 1, 1, day("2024-01-03"), 1)
	if len(opened) != 1 || !opened[0].CycleStartDate.Equal(day("2024-01-01")) {
		t.Fatalf("expected the deferred Jan 1 cycle on the next lesson, got %+v", opened)
	}
}

func TestLedgerService_RecordAttendanceValidation(t *testing.T) {
	f := createLedgerServiceForTest(t, 8)
	date := day("2024-01-01")

	tests := []struct {
		name          string
		attendance    domain.Attendance
		expectedError error
	}{
		{"missing student", domain.Attendance{GroupID: 1, Date: date}, domain.ErrValidation},
		{"missing date", domain.Attendance{StudentID: 1, GroupID: 1}, domain.ErrValidation},
		{"bad status", domain.Attendance{StudentID: 1, GroupID: 1, Date: date, Status: "sick"}, domain.ErrInvalidValue},
		{"unknown group", domain.Attendance{StudentID: 1, GroupID: 9, Date: date}, domain.ErrGroupNotFound},
		{"unknown student", domain.Attendance{StudentID: 9, GroupID: 1, Date: date}, domain.ErrStudentNotFound},
		{"not enrolled", domain.Attendance{StudentID: 1, GroupID: 2, Date: date}, domain.ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.attendance
			if _, err := f.svc.RecordAttendance(context.Background(), &a); !errors.Is(err, tt.expectedError) {
				t.Errorf("expected %v, got %v", tt.expectedError, err)
			}
		})
	}

	a := domain.Attendance{StudentID: 1, GroupID: 1, Date: date.Add(15 * time.Hour)}
	if _, err := f.svc.RecordAttendance(context.Background(), &a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != domain.AttendancePresent {
		t.Errorf("expected default status present, got %s", a.Status)
	}
	if !a.Date.Equal(date) {
		t.Errorf("expected date truncated to the day, got %s", a.Date)
	}
}

func TestLedgerService_CreatePayment(t *testing.T) {
	f := createLedgerServiceForTest(t, 8)
	ctx := context.Background()

	p := &domain.Payment{
		StudentID: 1, GroupID: 1,
		CycleStartDate: day("2024-01-01"), CycleEndDate: day("2024-01-31"),
		Amount: 4000, Confirmed: true,
	}
	if err := f.svc.CreatePayment(ctx, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Confirmed || p.ConfirmedAt != nil {
		t.Error("direct entry must start unconfirmed")
	}
	if p.CycleLessonsCount != 8 {
		t.Errorf("expected default lesson count, got %d", p.CycleLessonsCount)
	}

	dup := *p
	if err := f.svc.CreatePayment(ctx, &dup); !errors.Is(err, domain.ErrCycleExists) {
		t.Errorf("expected ErrCycleExists, got %v", err)
	}

	backwards := &domain.Payment{StudentID: 1, GroupID: 1, CycleStartDate: day("2024-02-01"), CycleEndDate: day("2024-01-01")}
	if err := f.svc.CreatePayment(ctx, backwards); !errors.Is(err, domain.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
	orphan := &domain.Payment{StudentID: 9, GroupID: 1, CycleStartDate: day("2024-02-01"), CycleEndDate: day("2024-02-28")}
	if err := f.svc.CreatePayment(ctx, orphan); !errors.Is(err, domain.ErrStudentNotFound) {
		t.Errorf("expected ErrStudentNotFound, got %v", err)
	}
}

func TestLedgerService_UpdatePayment(t *testing.T) {
	f := createLedgerServiceForTest(t, 8)
	ctx := context.Background()

	p := &domain.Payment{StudentID: 1, GroupID: 1, CycleStartDate: day("2024-01-01"), CycleEndDate: day("2024-01-31"), Amount: 10}
	if err := f.svc.CreatePayment(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	amount := 25.5
	updated, err := f.svc.UpdatePayment(ctx, p.ID, domain.PaymentUpdate{Amount: &amount})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Amount != 25.5 || updated.Confirmed {
		t.Errorf("unexpected payment %+v", updated)
	}

	if _, err := f.svc.UpdatePayment(ctx, p.ID, domain.PaymentUpdate{}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for empty update, got %v", err)
	}
	negative := -1.0
	if _, err := f.svc.UpdatePayment(ctx, p.ID, domain.PaymentUpdate{Amount: &negative}); !errors.Is(err, domain.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
	if _, err := f.svc.UpdatePayment(ctx, 99, domain.PaymentUpdate{Amount: &amount}); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Errorf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestLedgerService_ConfirmPaymentIsIdempotent(t *testing.T) {
	f := createLedgerServiceForTest(t, 8)
	ctx := context.Background()

	p := &domain.Payment{StudentID: 1, GroupID: 1, CycleStartDate: day("2024-01-01"), CycleEndDate: day("2024-01-31"), Amount: 4000}
	if err := f.svc.CreatePayment(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := f.svc.ConfirmPayment(ctx, p.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !first.Confirmed || first.AmountPaid != 4000 || first.ConfirmedAt == nil {
		t.Fatalf("unexpected confirmed payment %+v", first)
	}

	f.now = f.now.Add(48 * time.Hour)
	second, err := f.svc.ConfirmPayment(ctx, p.ID)
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if !second.Confirmed || second.AmountPaid != first.AmountPaid || !second.ConfirmedAt.Equal(*first.ConfirmedAt) {
		t.Errorf("second confirm changed the row: %+v vs %+v", second, first)
	}

	var confirmed int
	for _, typ := range f.audit.Types() {
		if typ == domain.PaymentConfirmedEvent {
			confirmed++
		}
	}
	if confirmed != 1 {
		t.Errorf("expected one confirmation event, got %d", confirmed)
	}

	if _, err := f.svc.ConfirmPayment(ctx, 404); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Errorf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestLedgerService_PaymentStatus(t *testing.T) {
	f := createLedgerServiceForTest(t, 8)
	ctx := context.Background()

	p := &domain.Payment{StudentID: 1, GroupID: 1, CycleStartDate: day("2024-01-01"), CycleEndDate: day("2024-01-31"), Amount: 4000}
	if err := f.svc.CreatePayment(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	before, err := f.svc.PaymentStatus(ctx, 1)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(before) != 1 || before[0].Confirmed || before[0].State != domain.PaymentPendingConfirmation {
		t.Fatalf("unexpected status before confirm %+v", before)
	}

	if _, err := f.svc.ConfirmPayment(ctx, p.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	after, err := f.svc.PaymentStatus(ctx, 1)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(after) != 1 || !after[0].Confirmed || after[0].AmountPaid != 4000 || after[0].State != domain.PaymentConfirmed {
		t.Errorf("unexpected status after confirm %+v", after)
	}

	if _, err := f.svc.PaymentStatus(ctx, 99); !errors.Is(err, domain.ErrStudentNotFound) {
		t.Errorf("expected ErrStudentNotFound, got %v", err)
	}
}

func TestLedgerService_Notices(t *testing.T) {
	f := createLedgerServiceForTest(t, 4)
	ctx := context.Background()

	// four lessons open a cycle ending 2024-01-11, long before now
	recordLessons(t, f, 1, 1, day("2024-01-01"), 4)

	notices, err := f.svc.Notices(ctx, 1)
	if err != nil {
		t.Fatalf("notices: %v", err)
	}
	if len(notices) != 2 {
		t.Fatalf("expected cycle_due and overdue, got %+v", notices)
	}
	if notices[0].Kind != domain.NoticeCycleDue || notices[1].Kind != domain.NoticeOverdue {
		t.Errorf("unexpected order %s, %s", notices[0].Kind, notices[1].Kind)
	}

	payments, _ := f.svc.ListPayments(ctx, domain.PaymentFilter{StudentID: 1})
	if _, err := f.svc.ConfirmPayment(ctx, payments[0].ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	notices, err = f.svc.Notices(ctx, 1)
	if err != nil {
		t.Fatalf("notices: %v", err)
	}
	if len(notices) != 0 {
		t.Errorf("expected no notices once confirmed, got %+v", notices)
	}

	empty, err := f.svc.Notices(ctx, 2)
	if err != nil || len(empty) != 0 {
		t.Errorf("expected no notices for a student without lessons, got %+v, %v", empty, err)
	}
}
