package mysql

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/alfredoT7/io2-back/internal/datamodels/user"
)

type userRepo struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) user.Repository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).
		Where("email = ? AND active = ?", strings.ToLower(strings.TrimSpace(email)), true).
		First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, u *user.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepo) Update(ctx context.Context, u *user.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *userRepo) List(ctx context.Context, role string) ([]*user.User, error) {
	var list []*user.User
	query := r.db.WithContext(ctx).Where("active = ?", true)
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if err := query.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
