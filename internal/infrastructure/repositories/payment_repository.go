package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/you/schoolsvc/domain"
	"gorm.io/gorm"
)

// PaymentRepositoryImpl implements domain.PaymentRepository
type PaymentRepositoryImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepositoryImpl {
	return &PaymentRepositoryImpl{db: db}
}

// Create implements domain.PaymentRepository; a second row for the same
// (student, group, cycle start) is rejected with domain.ErrCycleExists.
func (r *PaymentRepositoryImpl) Create(ctx context.Context, p *domain.Payment) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrCycleExists
		}
		return err
	}
	return nil
}

func (r *PaymentRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Payment, error) {
	return findPayment(r.db.WithContext(ctx), "id = ?", id)
}

func (r *PaymentRepositoryImpl) FindByCycle(ctx context.Context, studentID, groupID uint, cycleStart time.Time) (*domain.Payment, error) {
	return findPayment(r.db.WithContext(ctx),
		"student_id = ? AND group_id = ? AND cycle_start_date = ?", studentID, groupID, cycleStart)
}

func findPayment(db *gorm.DB, query string, args ...interface{}) (*domain.Payment, error) {
	var p domain.Payment
	if err := db.Where(query, args...).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepositoryImpl) List(ctx context.Context, f domain.PaymentFilter) ([]domain.Payment, error) {
	q := r.db.WithContext(ctx).Order("group_id").Order("cycle_start_date").Order("id")
	if f.StudentID != 0 {
		q = q.Where("student_id = ?", f.StudentID)
	}
	if f.GroupID != 0 {
		q = q.Where("group_id = ?", f.GroupID)
	}
	if f.From != nil {
		q = q.Where("cycle_start_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("cycle_start_date <= ?", *f.To)
	}
	var rows []domain.Payment
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update changes amount and payment date only; the confirmed flag is owned by Confirm
func (r *PaymentRepositoryImpl) Update(ctx context.Context, id uint, upd domain.PaymentUpdate) (*domain.Payment, error) {
	changes := map[string]interface{}{}
	if upd.Amount != nil {
		changes["amount"] = *upd.Amount
	}
	if upd.PaymentDate != nil {
		changes["payment_date"] = *upd.PaymentDate
	}

	var out *domain.Payment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := findPayment(tx, "id = ?", id)
		if err != nil {
			return err
		}
		if len(changes) > 0 {
			if err := tx.Model(p).Updates(changes).Error; err != nil {
				return err
			}
		}
		out, err = findPayment(tx, "id = ?", id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Confirm flips confirmed to true exactly once. The conditional update makes
// concurrent confirmations of the same id converge: one caller reports
// changed=true, the rest read back the already-confirmed row.
func (r *PaymentRepositoryImpl) Confirm(ctx context.Context, id uint, at time.Time) (*domain.Payment, bool, error) {
	var (
		out     *domain.Payment
		changed bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Payment{}).
			Where("id = ? AND confirmed = ?", id, false).
			Updates(map[string]interface{}{
				"confirmed":    true,
				"confirmed_at": at,
				"amount_paid":  gorm.Expr("amount"),
				"payment_date": gorm.Expr("COALESCE(payment_date, ?)", at),
			})
		if res.Error != nil {
			return res.Error
		}
		changed = res.RowsAffected > 0

		p, err := findPayment(tx, "id = ?", id)
		if err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, changed, nil
}

// ListOverdue returns unconfirmed cycles whose end date is before now
func (r *PaymentRepositoryImpl) ListOverdue(ctx context.Context, now time.Time) ([]domain.Payment, error) {
	var rows []domain.Payment
	err := r.db.WithContext(ctx).
		Where("confirmed = ? AND cycle_end_date < ?", false, now).
		Order("student_id").Order("cycle_end_date").
		Find(&rows).Error
	return rows, err
}

// Totals sums amounts due and confirmed amounts for cycles starting in [from, to]
func (r *PaymentRepositoryImpl) Totals(ctx context.Context, from, to time.Time) (domain.PaymentTotals, error) {
	var t domain.PaymentTotals
	err := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Select("COALESCE(SUM(amount), 0) AS total, COALESCE(SUM(CASE WHEN confirmed THEN amount_paid ELSE 0 END), 0) AS confirmed").
		Where("cycle_start_date >= ? AND cycle_start_date <= ?", from, to).
		Scan(&t).Error
	return t, err
}
