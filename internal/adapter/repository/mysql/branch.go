package mysql

import (
	"context"

	"microfinance-backoffice/internal/domain/branch"

	"gorm.io/gorm"
)

type BranchRepository struct{ db *gorm.DB }

func NewBranchRepository(db *gorm.DB) *BranchRepository { return &BranchRepository{db: db} }

func (r *BranchRepository) Create(ctx context.Context, b *branch.Branch) error {
	err := r.db.WithContext(ctx).Create(b).Error
	if isDuplicate(err) {
		return branch.ErrDuplicateCode
	}
	return err
}

func (r *BranchRepository) GetByID(ctx context.Context, id string) (*branch.Branch, error) {
	var out branch.Branch
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, notFound(err, branch.ErrNotFound)
	}
	return &out, nil
}

func (r *BranchRepository) GetByCode(ctx context.Context, code string) (*branch.Branch, error) {
	var out branch.Branch
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&out).Error; err != nil {
		return nil, notFound(err, branch.ErrNotFound)
	}
	return &out, nil
}

func (r *BranchRepository) List(ctx context.Context) ([]branch.Branch, error) {
	var out []branch.Branch
	err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}
