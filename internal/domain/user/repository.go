package user

import "context"

type Repository interface {
	Create(ctx context.Context, u *User) error
	// GetByID and GetByAuthID expand the branch.
	GetByID(ctx context.Context, id string) (*User, error)
	GetByAuthID(ctx context.Context, authID string) (*User, error)
	List(ctx context.Context, f Filter) ([]User, error)
	Update(ctx context.Context, id string, p Patch) (*User, error)
	SetActive(ctx context.Context, id string, active bool) error
	MarkEmailVerified(ctx context.Context, authID string) error
}
