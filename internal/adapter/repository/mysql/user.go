package mysql

import (
	"context"

	"microfinance-backoffice/internal/domain/user"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(u).Error
	if isDuplicate(err) {
		return user.ErrDuplicate
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) GetByAuthID(ctx context.Context, authID string) (*user.User, error) {
	return r.first(ctx, "auth_id = ?", authID)
}

func (r *UserRepository) first(ctx context.Context, where string, arg any) (*user.User, error) {
	var out user.User
	err := r.db.WithContext(ctx).Preload("Branch").Where(where, arg).First(&out).Error
	if err != nil {
		return nil, notFound(err, user.ErrNotFound)
	}
	return &out, nil
}

func (r *UserRepository) List(ctx context.Context, f user.Filter) ([]user.User, error) {
	q := r.db.WithContext(ctx).Preload("Branch")
	if f.BranchID != "" {
		q = q.Where("branch_id = ?", f.BranchID)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}
	var out []user.User
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *UserRepository) Update(ctx context.Context, id string, p user.Patch) (*user.User, error) {
	if !p.Empty() {
		err := r.db.WithContext(ctx).Model(&user.User{}).Where("id = ?", id).Updates(p.Columns()).Error
		if err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	res := r.db.WithContext(ctx).Model(&user.User{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// mysql reports 0 for an unchanged row, so confirm it exists
		_, err := r.GetByID(ctx, id)
		return err
	}
	return nil
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, authID string) error {
	return r.db.WithContext(ctx).Model(&user.User{}).
		Where("auth_id = ?", authID).
		Update("email_verified", true).Error
}
