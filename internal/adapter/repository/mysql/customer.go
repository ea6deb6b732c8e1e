package mysql

import (
	"context"

	"microfinance-backoffice/internal/domain/customer"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerRepository struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) *CustomerRepository { return &CustomerRepository{db: db} }

func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error
}

func (r *CustomerRepository) CreateGuarantors(ctx context.Context, gs []customer.Guarantor) error {
	if len(gs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&gs).Error
}

func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*customer.Customer, error) {
	var out customer.Customer
	err := r.db.WithContext(ctx).
		Preload("Agent").
		Preload("Branch").
		Preload("Guarantors", func(db *gorm.DB) *gorm.DB { return db.Order("type ASC") }).
		Where("id = ?", id).
		First(&out).Error
	if err != nil {
		return nil, notFound(err, customer.ErrNotFound)
	}
	return &out, nil
}

func (r *CustomerRepository) List(ctx context.Context, f customer.Filter) ([]customer.Customer, error) {
	q := r.db.WithContext(ctx).Preload("Agent").Preload("Branch")
	if f.BranchID != "" {
		q = q.Where("branch_id = ?", f.BranchID)
	}
	if f.AgentID != "" {
		q = q.Where("agent_id = ?", f.AgentID)
	}
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}
	var out []customer.Customer
	err := q.Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

func (r *CustomerRepository) Update(ctx context.Context, id string, p customer.Patch) (*customer.Customer, error) {
	if cols := p.Columns(); len(cols) > 0 {
		err := r.db.WithContext(ctx).Model(&customer.Customer{}).Where("id = ?", id).Updates(cols).Error
		if err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

func (r *CustomerRepository) SetActive(ctx context.Context, id string, active bool) error {
	res := r.db.WithContext(ctx).Model(&customer.Customer{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	return nil
}

// Lock takes the customer row lock; sqlite drops the clause and serializes
// writers on its single connection instead.
func (r *CustomerRepository) Lock(ctx context.Context, id string) error {
	var c customer.Customer
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", id).
		First(&c).Error
	return notFound(err, customer.ErrNotFound)
}

func (r *CustomerRepository) ListGuarantors(ctx context.Context, customerID string) ([]customer.Guarantor, error) {
	var out []customer.Guarantor
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).Order("type ASC").Find(&out).Error
	return out, err
}
