package identitymock

import (
	"context"

	"microfinance-backoffice/internal/domain/identity"
)

var _ identity.Provider = (*Provider)(nil)

// Provider is a function-backed mock of identity.Provider. Unset functions
// return context.Canceled, except SignOut which succeeds.
type Provider struct {
	SignUpFn             func(ctx context.Context, req identity.SignUpRequest) (*identity.User, error)
	SignInFn             func(ctx context.Context, email, password string) (*identity.Session, error)
	SignOutFn            func(ctx context.Context, token string) error
	GetUserFn            func(ctx context.Context, token string) (*identity.User, *identity.Session, error)
	ResendVerificationFn func(ctx context.Context, email, redirectTo string) error
	ConfirmEmailFn       func(ctx context.Context, token string) (*identity.User, error)
	SubscribeFn          func(ctx context.Context) (<-chan identity.Event, error)
}

func (m *Provider) SignUp(ctx context.Context, req identity.SignUpRequest) (*identity.User, error) {
	if m.SignUpFn != nil {
		return m.SignUpFn(ctx, req)
	}
	return nil, context.Canceled
}

func (m *Provider) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	if m.SignInFn != nil {
		return m.SignInFn(ctx, email, password)
	}
	return nil, context.Canceled
}

func (m *Provider) SignOut(ctx context.Context, token string) error {
	if m.SignOutFn != nil {
		return m.SignOutFn(ctx, token)
	}
	return nil
}

func (m *Provider) GetUser(ctx context.Context, token string) (*identity.User, *identity.Session, error) {
	if m.GetUserFn != nil {
		return m.GetUserFn(ctx, token)
	}
	return nil, nil, context.Canceled
}

func (m *Provider) ResendVerification(ctx context.Context, email, redirectTo string) error {
	if m.ResendVerificationFn != nil {
		return m.ResendVerificationFn(ctx, email, redirectTo)
	}
	return context.Canceled
}

func (m *Provider) ConfirmEmail(ctx context.Context, token string) (*identity.User, error) {
	if m.ConfirmEmailFn != nil {
		return m.ConfirmEmailFn(ctx, token)
	}
	return nil, context.Canceled
}

func (m *Provider) Subscribe(ctx context.Context) (<-chan identity.Event, error) {
	if m.SubscribeFn != nil {
		return m.SubscribeFn(ctx)
	}
	return nil, context.Canceled
}
