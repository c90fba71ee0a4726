package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/you/schoolsvc/domain"
	"gorm.io/gorm"
)

// AttendanceRepositoryImpl implements domain.AttendanceRepository
type AttendanceRepositoryImpl struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) *AttendanceRepositoryImpl {
	return &AttendanceRepositoryImpl{db: db}
}

func (r *AttendanceRepositoryImpl) Create(ctx context.Context, a *domain.Attendance) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AttendanceRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Attendance, error) {
	var a domain.Attendance
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrResourceNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Update rewrites status, date and schedule of an existing record
func (r *AttendanceRepositoryImpl) Update(ctx context.Context, a *domain.Attendance) error {
	a.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(&domain.Attendance{}).Where("id = ?", a.ID).
		Select("student_id", "group_id", "schedule_id", "date", "status", "updated_at").
		Updates(a)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrResourceNotFound
	}
	return nil
}

func (r *AttendanceRepositoryImpl) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.Attendance{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrResourceNotFound
	}
	return nil
}

func (r *AttendanceRepositoryImpl) List(ctx context.Context, f domain.AttendanceFilter) ([]domain.Attendance, error) {
	q := r.db.WithContext(ctx).Order("date").Order("id")
	if f.StudentID != 0 {
		q = q.Where("student_id = ?", f.StudentID)
	}
	if f.GroupID != 0 {
		q = q.Where("group_id = ?", f.GroupID)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}
	var rows []domain.Attendance
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// LessonDates returns every recorded lesson date of the pair in chronological order
func (r *AttendanceRepositoryImpl) LessonDates(ctx context.Context, studentID, groupID uint) ([]time.Time, error) {
	var dates []time.Time
	err := r.db.WithContext(ctx).Model(&domain.Attendance{}).
		Where("student_id = ? AND group_id = ?", studentID, groupID).
		Order("date").Order("id").
		Pluck("date", &dates).Error
	return dates, err
}

// CountByStatus groups lesson records in [from, to] by status
func (r *AttendanceRepositoryImpl) CountByStatus(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&domain.Attendance{}).
		Select("status, COUNT(*) AS n").
		Where("date >= ? AND date <= ?", from, to).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}
