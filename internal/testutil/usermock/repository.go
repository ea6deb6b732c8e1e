package usermock

import (
	"context"

	domain "microfinance-backoffice/internal/domain/user"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn            func(ctx context.Context, u *domain.User) error
	GetByIDFn           func(ctx context.Context, id string) (*domain.User, error)
	GetByAuthIDFn       func(ctx context.Context, authID string) (*domain.User, error)
	ListFn              func(ctx context.Context, f domain.Filter) ([]domain.User, error)
	UpdateFn            func(ctx context.Context, id string, p domain.Patch) (*domain.User, error)
	SetActiveFn         func(ctx context.Context, id string, active bool) error
	MarkEmailVerifiedFn func(ctx context.Context, authID string) error
}

func (m *Repo) Create(ctx context.Context, u *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, u)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByAuthID(ctx context.Context, authID string) (*domain.User, error) {
	if m.GetByAuthIDFn != nil {
		return m.GetByAuthIDFn(ctx, authID)
	}
	return nil, context.Canceled
}

func (m *Repo) List(ctx context.Context, f domain.Filter) ([]domain.User, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, context.Canceled
}

func (m *Repo) Update(ctx context.Context, id string, p domain.Patch) (*domain.User, error) {
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

func (m *Repo) MarkEmailVerified(ctx context.Context, authID string) error {
	if m.MarkEmailVerifiedFn != nil {
		return m.MarkEmailVerifiedFn(ctx, authID)
	}
	return nil
}
