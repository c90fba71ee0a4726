package repositories

import (
	"context"
	"errors"

	"github.com/you/schoolsvc/domain"
	"gorm.io/gorm"
)

// GroupRepositoryImpl implements domain.GroupRepository
type GroupRepositoryImpl struct {
	*Store[domain.Group]
}

func NewGroupRepository(db *gorm.DB) *GroupRepositoryImpl {
	return &GroupRepositoryImpl{Store: NewStore[domain.Group](db)}
}

// FindByID implements domain.GroupRepository
func (r *GroupRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Group, error) {
	g, err := r.Get(ctx, id)
	if errors.Is(err, domain.ErrResourceNotFound) {
		return nil, domain.ErrGroupNotFound
	}
	return g, err
}

// ListByTeacher implements domain.GroupRepository
func (r *GroupRepositoryImpl) ListByTeacher(ctx context.Context, teacherID uint) ([]domain.Group, error) {
	return r.List(ctx, map[string]interface{}{"teacher_id": teacherID})
}

// StudentRepositoryImpl implements domain.StudentRepository
type StudentRepositoryImpl struct {
	*Store[domain.Student]
}

func NewStudentRepository(db *gorm.DB) *StudentRepositoryImpl {
	return &StudentRepositoryImpl{Store: NewStore[domain.Student](db)}
}

// FindByID implements domain.StudentRepository
func (r *StudentRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Student, error) {
	s, err := r.Get(ctx, id)
	if errors.Is(err, domain.ErrResourceNotFound) {
		return nil, domain.ErrStudentNotFound
	}
	return s, err
}
