package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/you/schoolsvc/domain"
	"gorm.io/gorm"
)

// UserRepositoryImpl implements domain.UserRepository using GORM
type UserRepositoryImpl struct {
	db *gorm.DB
}

// DBUser represents the database model for User (with GORM tags)
type DBUser struct {
	ID             uint                     `gorm:"primaryKey"`
	Email          string                   `gorm:"uniqueIndex;size:255"`
	PasswordHash   string                   `gorm:"column:password"`
	FirstName      string                   `gorm:"size:128"`
	LastName       string                   `gorm:"size:128"`
	Role           string                   `gorm:"index;size:16"`
	ReferenceID    *uint                    `gorm:"index"`
	ReferenceModel *string                  `gorm:"size:16"`
	Permissions    []domain.PermissionGrant `gorm:"serializer:json"`
	CreatedAt      time.Time                `gorm:"index"`
	UpdatedAt      time.Time
}

// TableName returns the table name for GORM
func (DBUser) TableName() string {
	return "users"
}

// BeforeSave keeps the admin invariant on every write path, including raw Save calls
func (u *DBUser) BeforeSave(*gorm.DB) error {
	if u.Role == string(domain.RoleAdmin) {
		u.ReferenceID = nil
		u.ReferenceModel = nil
		u.Permissions = []domain.PermissionGrant{}
	}
	if u.Permissions == nil {
		u.Permissions = []domain.PermissionGrant{}
	}
	return nil
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepositoryImpl {
	return &UserRepositoryImpl{db: db}
}

// Create implements domain.UserRepository
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	dbUser := r.domainToDB(user)
	if err := r.db.WithContext(ctx).Create(dbUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	*user = *r.dbToDomain(dbUser)
	return nil
}

// FindByEmail implements domain.UserRepository
func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", domain.NormalizeEmail(email))
}

// FindByID implements domain.UserRepository
func (r *UserRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepositoryImpl) first(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).Where(query, arg).First(&dbUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// List implements domain.UserRepository
func (r *UserRepositoryImpl) List(ctx context.Context) ([]domain.User, error) {
	var rows []DBUser
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, *r.dbToDomain(&rows[i]))
	}
	return users, nil
}

// Update implements domain.UserRepository
func (r *UserRepositoryImpl) Update(ctx context.Context, user *domain.User) error {
	dbUser := r.domainToDB(user)
	res := r.db.WithContext(ctx).Model(dbUser).Select("*").Omit("id", "created_at").Updates(dbUser)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateEmail
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	*user = *r.dbToDomain(dbUser)
	return nil
}

// CountByRole implements domain.UserRepository
func (r *UserRepositoryImpl) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&DBUser{}).Where("role = ?", string(role)).Count(&n).Error
	return n, err
}

// domainToDB converts domain user to database user
func (r *UserRepositoryImpl) domainToDB(user *domain.User) *DBUser {
	var refModel *string
	if user.ReferenceModel != nil {
		s := string(*user.ReferenceModel)
		refModel = &s
	}
	return &DBUser{
		ID:             user.ID,
		Email:          domain.NormalizeEmail(user.Email),
		PasswordHash:   user.PasswordHash,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Role:           string(user.Role),
		ReferenceID:    user.ReferenceID,
		ReferenceModel: refModel,
		Permissions:    user.Permissions,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}

// dbToDomain converts database user to domain user
func (r *UserRepositoryImpl) dbToDomain(dbUser *DBUser) *domain.User {
	var refModel *domain.ReferenceModel
	if dbUser.ReferenceModel != nil {
		m := domain.ReferenceModel(*dbUser.ReferenceModel)
		refModel = &m
	}
	u := &domain.User{
		ID:             dbUser.ID,
		Email:          dbUser.Email,
		PasswordHash:   dbUser.PasswordHash,
		FirstName:      dbUser.FirstName,
		LastName:       dbUser.LastName,
		Role:           domain.Role(dbUser.Role),
		ReferenceID:    dbUser.ReferenceID,
		ReferenceModel: refModel,
		Permissions:    dbUser.Permissions,
		CreatedAt:      dbUser.CreatedAt,
		UpdatedAt:      dbUser.UpdatedAt,
	}
	u.Normalize()
	return u
}
