package customer

import "context"

type Repository interface {
	// Create inserts the customer only; guarantors go through CreateGuarantors.
	Create(ctx context.Context, c *Customer) error
	CreateGuarantors(ctx context.Context, gs []Guarantor) error

	// GetByID expands agent, branch and guarantors.
	GetByID(ctx context.Context, id string) (*Customer, error)
	List(ctx context.Context, f Filter) ([]Customer, error)
	Update(ctx context.Context, id string, p Patch) (*Customer, error)
	SetActive(ctx context.Context, id string, active bool) error

	ListGuarantors(ctx context.Context, customerID string) ([]Guarantor, error)
	// Lock holds the customer row until the surrounding transaction ends.
	Lock(ctx context.Context, id string) error
}
