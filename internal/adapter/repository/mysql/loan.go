package mysql

import (
	"context"

	loanDomain "microfinance-backoffice/internal/domain/loan"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, a *loanDomain.Application) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error
}

func (r *LoanRepository) Save(ctx context.Context, a *loanDomain.Application) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(a).Error
}

func (r *LoanRepository) expanded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Customer").
		Preload("LoanProduct").
		Preload("Agent").
		Preload("Branch").
		Preload("Approver")
}

func (r *LoanRepository) GetByID(ctx context.Context, id string) (*loanDomain.Application, error) {
	var out loanDomain.Application
	if err := r.expanded(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, notFound(err, loanDomain.ErrNotFound)
	}
	return &out, nil
}

// GetByIDForUpdate takes a row lock; sqlite drops the clause.
func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id string) (*loanDomain.Application, error) {
	var out loanDomain.Application
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("LoanProduct").
		Where("id = ?", id).
		First(&out).Error
	if err != nil {
		return nil, notFound(err, loanDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *LoanRepository) List(ctx context.Context, f loanDomain.Filter) ([]loanDomain.Application, error) {
	q := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("LoanProduct").
		Preload("Agent").
		Preload("Branch")
	if f.BranchID != "" {
		q = q.Where("branch_id = ?", f.BranchID)
	}
	if f.AgentID != "" {
		q = q.Where("agent_id = ?", f.AgentID)
	}
	if f.CustomerID != "" {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []loanDomain.Application
	err := q.Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

func (r *LoanRepository) ListIncompleteSchedules(ctx context.Context) ([]loanDomain.Application, error) {
	var out []loanDomain.Application
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("LoanProduct").
		Where("status = ? AND schedule_status <> ?", loanDomain.StatusDisbursed, loanDomain.ScheduleGenerated).
		Order("updated_at ASC").
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) CreateProduct(ctx context.Context, p *loanDomain.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *LoanRepository) GetProduct(ctx context.Context, id string) (*loanDomain.Product, error) {
	var out loanDomain.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, notFound(err, loanDomain.ErrProductNotFound)
	}
	return &out, nil
}

func (r *LoanRepository) ListProducts(ctx context.Context) ([]loanDomain.Product, error) {
	var out []loanDomain.Product
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("principal_amount ASC").Find(&out).Error
	return out, err
}
