package auth

import (
	"context"
	"errors"

	"microfinance-backoffice/internal/domain/identity"
	"microfinance-backoffice/internal/domain/user"
	"microfinance-backoffice/pkg/id"

	"go.uber.org/zap"
)

// Provisioner creates staff profiles from SIGNED_UP events, the way a
// database trigger would on a hosted backend.
type Provisioner struct {
	provider identity.Provider
	users    user.Repository
	log      *zap.Logger
}

func NewProvisioner(provider identity.Provider, users user.Repository, log *zap.Logger) *Provisioner {
	return &Provisioner{provider: provider, users: users, log: log}
}

// Run consumes provider events until ctx is done.
func (p *Provisioner) Run(ctx context.Context) error {
	events, err := p.provider.Subscribe(ctx)
	if err != nil {
		return err
	}
	for ev := range events {
		if ev.Name != identity.EventSignedUp {
			continue
		}
		if _, err := p.Provision(ctx, ev); err != nil {
			p.log.Error("provision profile", zap.String("auth_id", ev.UserID), zap.Error(err))
		}
	}
	return ctx.Err()
}

// ProvisionIdentity creates the profile of an identity whose sign-up event
// was never consumed, from the metadata stored with the identity.
func (p *Provisioner) ProvisionIdentity(ctx context.Context, who identity.User) (*user.User, error) {
	return p.Provision(ctx, identity.Event{
		Name:     identity.EventSignedUp,
		UserID:   who.ID,
		Email:    who.Email,
		Metadata: who.Metadata,
	})
}

// Provision builds and stores the profile described by a sign-up event.
// Replays are harmless: an existing profile is returned unchanged.
func (p *Provisioner) Provision(ctx context.Context, ev identity.Event) (*user.User, error) {
	if existing, err := p.users.GetByAuthID(ctx, ev.UserID); err == nil {
		return existing, nil
	}
	meta := ev.Metadata
	role := user.Role(meta[identity.MetaRole])
	if role == "" {
		role = user.RoleAgent
	}
	var branchID *string
	if b := meta[identity.MetaBranchID]; b != "" {
		branchID = &b
	}
	if err := user.ValidateAssignment(role, branchID); err != nil {
		return nil, err
	}
	var phone *string
	if ph := meta[identity.MetaPhone]; ph != "" {
		phone = &ph
	}

	authID := ev.UserID
	u := &user.User{
		ID:        id.NewID32(),
		AuthID:    &authID,
		Email:     ev.Email,
		FirstName: meta[identity.MetaFirstName],
		LastName:  meta[identity.MetaLastName],
		Phone:     phone,
		Role:      role,
		BranchID:  branchID,
		IsActive:  true,
	}
	if err := p.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrDuplicate) {
			return p.users.GetByAuthID(ctx, ev.UserID)
		}
		return nil, err
	}
	p.log.Info("staff profile provisioned", zap.String("user_id", u.ID), zap.String("role", string(role)))
	return u, nil
}
