package loan

import "context"

type Repository interface {
	Create(ctx context.Context, a *Application) error
	// GetByID expands customer, product, agent, branch and approver.
	GetByID(ctx context.Context, id string) (*Application, error)
	// GetByIDForUpdate locks the row; only meaningful inside a unit of work.
	GetByIDForUpdate(ctx context.Context, id string) (*Application, error)
	// Save persists the application row without touching associations.
	Save(ctx context.Context, a *Application) error
	// List returns newest first.
	List(ctx context.Context, f Filter) ([]Application, error)
	ListIncompleteSchedules(ctx context.Context) ([]Application, error)

	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id string) (*Product, error)
	// ListProducts returns the active catalog ordered by principal.
	ListProducts(ctx context.Context) ([]Product, error)
}
