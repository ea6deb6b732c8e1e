package customermock

import (
	"context"

	domain "microfinance-backoffice/internal/domain/customer"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn           func(ctx context.Context, c *domain.Customer) error
	CreateGuarantorsFn func(ctx context.Context, gs []domain.Guarantor) error
	GetByIDFn          func(ctx context.Context, id string) (*domain.Customer, error)
	ListFn             func(ctx context.Context, f domain.Filter) ([]domain.Customer, error)
	UpdateFn           func(ctx context.Context, id string, p domain.Patch) (*domain.Customer, error)
	SetActiveFn        func(ctx context.Context, id string, active bool) error
	ListGuarantorsFn   func(ctx context.Context, customerID string) ([]domain.Guarantor, error)
	LockFn             func(ctx context.Context, id string) error
}

func (m *Repo) Lock(ctx context.Context, id string) error {
	if m.LockFn != nil {
		return m.LockFn(ctx, id)
	}
	return nil
}

func (m *Repo) Create(ctx context.Context, c *domain.Customer) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, c)
	}
	return nil
}

func (m *Repo) CreateGuarantors(ctx context.Context, gs []domain.Guarantor) error {
	if m.CreateGuarantorsFn != nil {
		return m.CreateGuarantorsFn(ctx, gs)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) List(ctx context.Context, f domain.Filter) ([]domain.Customer, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, context.Canceled
}

func (m *Repo) Update(ctx context.Context, id string, p domain.Patch) (*domain.Customer, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, p)
	}
	return nil, context.Canceled
}

func (m *Repo) SetActive(ctx context.Context, id string, active bool) error {
	if m.SetActiveFn != nil {
		return m.SetActiveFn(ctx, id, active)
	}
	return nil
}

func (m *Repo) ListGuarantors(ctx context.Context, customerID string) ([]domain.Guarantor, error) {
	if m.ListGuarantorsFn != nil {
		return m.ListGuarantorsFn(ctx, customerID)
	}
	return nil, context.Canceled
}
