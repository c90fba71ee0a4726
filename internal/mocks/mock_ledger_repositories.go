package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/you/schoolsvc/domain"
)

// MockPaymentRepository keeps payments in memory unless a Func overrides a method
type MockPaymentRepository struct {
	CreateFunc  func(ctx context.Context, p *domain.Payment) error
	ConfirmFunc func(ctx context.Context, id uint, at time.Time) (*domain.Payment, bool, error)
	ListFunc    func(ctx context.Context, f domain.PaymentFilter) ([]domain.Payment, error)

	mu   sync.Mutex
	rows map[uint]*domain.Payment
	next uint
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{rows: map[uint]*domain.Payment{}}
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.StudentID == p.StudentID && r.GroupID == p.GroupID && r.CycleStartDate.Equal(p.CycleStartDate) {
			return domain.ErrCycleExists
		}
	}
	m.next++
	p.ID = m.next
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepository) FindByID(_ context.Context, id uint) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockPaymentRepository) FindByCycle(_ context.Context, studentID, groupID uint, start time.Time) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.StudentID == studentID && r.GroupID == groupID && r.CycleStartDate.Equal(start) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *MockPaymentRepository) List(ctx context.Context, f domain.PaymentFilter) ([]domain.Payment, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, f)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Payment{}
	for _, r := range m.rows {
		if f.StudentID != 0 && r.StudentID != f.StudentID {
			continue
		}
		if f.GroupID != 0 && r.GroupID != f.GroupID {
			continue
		}
		if f.From != nil && r.CycleStartDate.Before(*f.From) {
			continue
		}
		if f.To != nil && r.CycleStartDate.After(*f.To) {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockPaymentRepository) Update(_ context.Context, id uint, upd domain.PaymentUpdate) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	if upd.Amount != nil {
		r.Amount = *upd.Amount
	}
	if upd.PaymentDate != nil {
		d := *upd.PaymentDate
		r.PaymentDate = &d
	}
	cp := *r
	return &cp, nil
}

func (m *MockPaymentRepository) Confirm(ctx context.Context, id uint, at time.Time) (*domain.Payment, bool, error) {
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, id, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, false, domain.ErrPaymentNotFound
	}
	changed := !r.Confirmed
	if changed {
		r.Confirmed = true
		r.ConfirmedAt = &at
		r.AmountPaid = r.Amount
		if r.PaymentDate == nil {
			r.PaymentDate = &at
		}
	}
	cp := *r
	return &cp, changed, nil
}

func (m *MockPaymentRepository) ListOverdue(_ context.Context, now time.Time) ([]domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Payment{}
	for _, r := range m.rows {
		if r.Overdue(now) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockPaymentRepository) Totals(_ context.Context, from, to time.Time) (domain.PaymentTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var t domain.PaymentTotals
	for _, r := range m.rows {
		if r.CycleStartDate.Before(from) || r.CycleStartDate.After(to) {
			continue
		}
		t.Total += r.Amount
		if r.Confirmed {
			t.Confirmed += r.AmountPaid
		}
	}
	return t, nil
}

var _ domain.PaymentRepository = (*MockPaymentRepository)(nil)

// MockAttendanceRepository keeps attendance in memory
type MockAttendanceRepository struct {
	CreateFunc func(ctx context.Context, a *domain.Attendance) error

	mu   sync.Mutex
	rows map[uint]*domain.Attendance
	next uint
}

func NewMockAttendanceRepository() *MockAttendanceRepository {
	return &MockAttendanceRepository{rows: map[uint]*domain.Attendance{}}
}

func (m *MockAttendanceRepository) Create(ctx context.Context, a *domain.Attendance) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, a)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	a.ID = m.next
	cp := *a
	m.rows[a.ID] = &cp
	return nil
}

func (m *MockAttendanceRepository) FindByID(_ context.Context, id uint) (*domain.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockAttendanceRepository) Update(_ context.Context, a *domain.Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[a.ID]; !ok {
		return domain.ErrResourceNotFound
	}
	cp := *a
	m.rows[a.ID] = &cp
	return nil
}

func (m *MockAttendanceRepository) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return domain.ErrResourceNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *MockAttendanceRepository) sorted() []domain.Attendance {
	out := make([]domain.Attendance, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *MockAttendanceRepository) List(_ context.Context, f domain.AttendanceFilter) ([]domain.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Attendance{}
	for _, r := range m.sorted() {
		if f.StudentID != 0 && r.StudentID != f.StudentID {
			continue
		}
		if f.GroupID != 0 && r.GroupID != f.GroupID {
			continue
		}
		if f.From != nil && r.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && r.Date.After(*f.To) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *MockAttendanceRepository) LessonDates(_ context.Context, studentID, groupID uint) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var dates []time.Time
	for _, r := range m.sorted() {
		if r.StudentID == studentID && r.GroupID == groupID {
			dates = append(dates, r.Date)
		}
	}
	return dates, nil
}

func (m *MockAttendanceRepository) CountByStatus(_ context.Context, from, to time.Time) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int64{}
	for _, r := range m.rows {
		if r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		out[string(r.Status)]++
	}
	return out, nil
}

var _ domain.AttendanceRepository = (*MockAttendanceRepository)(nil)

// MockGroupRepository serves groups from a map
type MockGroupRepository struct {
	Groups map[uint]*domain.Group
}

func NewMockGroupRepository(groups ...*domain.Group) *MockGroupRepository {
	m := &MockGroupRepository{Groups: map[uint]*domain.Group{}}
	for _, g := range groups {
		m.Groups[g.ID] = g
	}
	return m
}

func (m *MockGroupRepository) FindByID(_ context.Context, id uint) (*domain.Group, error) {
	g, ok := m.Groups[id]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *MockGroupRepository) ListByTeacher(_ context.Context, teacherID uint) ([]domain.Group, error) {
	out := []domain.Group{}
	for _, g := range m.Groups {
		if g.TeacherID == teacherID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ domain.GroupRepository = (*MockGroupRepository)(nil)

// MockStudentRepository serves students from a map
type MockStudentRepository struct {
	Students map[uint]*domain.Student
}

func NewMockStudentRepository(students ...*domain.Student) *MockStudentRepository {
	m := &MockStudentRepository{Students: map[uint]*domain.Student{}}
	for _, s := range students {
		m.Students[s.ID] = s
	}
	return m
}

func (m *MockStudentRepository) FindByID(_ context.Context, id uint) (*domain.Student, error) {
	s, ok := m.Students[id]
	if !ok {
		return nil, domain.ErrStudentNotFound
	}
	cp := *s
	return &cp, nil
}

var _ domain.StudentRepository = (*MockStudentRepository)(nil)
