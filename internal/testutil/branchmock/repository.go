package branchmock

import (
	"context"

	domain "microfinance-backoffice/internal/domain/branch"
)

var _ domain.Repository = (*Repo)(nil)

type Repo struct {
	CreateFn    func(ctx context.Context, b *domain.Branch) error
	GetByIDFn   func(ctx context.Context, id string) (*domain.Branch, error)
	GetByCodeFn func(ctx context.Context, code string) (*domain.Branch, error)
	ListFn      func(ctx context.Context) ([]domain.Branch, error)
}

func (m *Repo) Create(ctx context.Context, b *domain.Branch) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, b)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id string) (*domain.Branch, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByCode(ctx context.Context, code string) (*domain.Branch, error) {
	if m.GetByCodeFn != nil {
		return m.GetByCodeFn(ctx, code)
	}
	return nil, context.Canceled
}

func (m *Repo) List(ctx context.Context) ([]domain.Branch, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, context.Canceled
}
