package loanmock

import (
	"context"

	domain "microfinance-backoffice/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Writes default to nil, reads to context.Canceled.
type Repo struct {
	CreateFn                  func(ctx context.Context, a *domain.Application) error
	GetByIDFn                 func(ctx context.Context, id string) (*domain.Application, error)
	GetByIDForUpdateFn        func(ctx context.Context, id string) (*domain.Application, error)
	SaveFn                    func(ctx context.Context, a *domain.Application) error
	ListFn                    func(ctx context.Context, f domain.Filter) ([]domain.Application, error)
	ListIncompleteSchedulesFn func(ctx context.Context) ([]domain.Application, error)
	CreateProductFn           func(ctx context.Context, p *domain.Product) error
	GetProductFn              func(ctx context.Context, id string) (*domain.Product, error)
	ListProductsFn            func(ctx context.Context) ([]domain.Product, error)
}

func (m *Repo) Create(ctx context.Context, a *domain.Application) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Application, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, a *domain.Application) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, a)
	}
	return nil
}

func (m *Repo) List(ctx context.Context, f domain.Filter) ([]domain.Application, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, context.Canceled
}

func (m *Repo) ListIncompleteSchedules(ctx context.Context) ([]domain.Application, error) {
	if m.ListIncompleteSchedulesFn != nil {
		return m.ListIncompleteSchedulesFn(ctx)
	}
	return nil, context.Canceled
}

func (m *Repo) CreateProduct(ctx context.Context, p *domain.Product) error {
	if m.CreateProductFn != nil {
		return m.CreateProductFn(ctx, p)
	}
	return nil
}

func (m *Repo) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if m.GetProductFn != nil {
		return m.GetProductFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if m.ListProductsFn != nil {
		return m.ListProductsFn(ctx)
	}
	return nil, context.Canceled
}
