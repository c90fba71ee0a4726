package repositories

import (
	"context"
	"errors"

	"github.com/you/schoolsvc/domain"
	"gorm.io/gorm"
)

// Models lists every table AutoMigrate creates
func Models() []interface{} {
	return []interface{}{
		&DBUser{},
		&domain.Classroom{},
		&domain.Teacher{},
		&domain.Student{},
		&domain.Group{},
		&domain.Schedule{},
		&domain.Attendance{},
		&domain.Payment{},
	}
}

// Store is plain CRUD over one gorm model keyed by a uint "id" column
type Store[T any] struct {
	db *gorm.DB
}

func NewStore[T any](db *gorm.DB) *Store[T] {
	return &Store[T]{db: db}
}

// List returns rows matching the equality filters, ordered by id
func (s *Store[T]) List(ctx context.Context, where map[string]interface{}) ([]T, error) {
	var rows []T
	q := s.db.WithContext(ctx).Order("id")
	if len(where) > 0 {
		q = q.Where(where)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store[T]) Get(ctx context.Context, id uint) (*T, error) {
	row := new(T)
	if err := s.db.WithContext(ctx).First(row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrResourceNotFound
		}
		return nil, err
	}
	return row, nil
}

func (s *Store[T]) Create(ctx context.Context, row *T) error {
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

// Update overwrites every column except id and created_at, then reloads the row
func (s *Store[T]) Update(ctx context.Context, id uint, row *T) (*T, error) {
	res := s.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).
		Select("*").Omit("id", "created_at").Updates(row)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrConflict
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrResourceNotFound
	}
	return s.Get(ctx, id)
}

func (s *Store[T]) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(new(T), "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrResourceNotFound
	}
	return nil
}

func (s *Store[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(new(T)).Count(&n).Error
	return n, err
}
