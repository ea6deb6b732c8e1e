package branch

import "context"

type Repository interface {
	Create(ctx context.Context, b *Branch) error
	GetByID(ctx context.Context, id string) (*Branch, error)
	GetByCode(ctx context.Context, code string) (*Branch, error)
	List(ctx context.Context) ([]Branch, error)
}
