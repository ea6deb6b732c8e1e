package auth

import (
	"context"
	"errors"
	"strings"

	"microfinance-backoffice/internal/domain/branch"
	"microfinance-backoffice/internal/domain/identity"
	"microfinance-backoffice/internal/domain/user"

	"go.uber.org/zap"
)

// Caller-facing sign-in failures. The provider's own errors stay wrapped.
var (
	ErrEmailNotConfirmed  = errors.New("your email address has not been confirmed yet; please check your inbox for the confirmation link")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrProfileNotFound    = errors.New("user profile not found; please contact an administrator")
	ErrMissingFields      = errors.New("email, password, first name and last name are required")
)

type Usecase struct {
	provider identity.Provider
	users    user.Repository
	branches branch.Repository
	prov     *Provisioner
	log      *zap.Logger
}

func NewUsecase(provider identity.Provider, users user.Repository, branches branch.Repository, log *zap.Logger) *Usecase {
	return &Usecase{
		provider: provider,
		users:    users,
		branches: branches,
		prov:     NewProvisioner(provider, users, log),
		log:      log,
	}
}

// profileOf loads the profile of who. Sign-up events travel over pub/sub and
// can be lost, so a missing row is provisioned from the identity's stored
// metadata. Metadata that cannot describe a staff member stays not found.
func (u *Usecase) profileOf(ctx context.Context, who identity.User) (*user.User, error) {
	p, err := u.users.GetByAuthID(ctx, who.ID)
	if !errors.Is(err, user.ErrNotFound) {
		return p, err
	}
	p, err = u.prov.ProvisionIdentity(ctx, who)
	switch {
	case errors.Is(err, user.ErrInvalidRole), errors.Is(err, user.ErrBranchRequired), errors.Is(err, user.ErrBranchNotAllowed):
		u.log.Warn("identity without a usable profile", zap.String("auth_id", who.ID), zap.Error(err))
		return nil, user.ErrNotFound
	case err != nil:
		return nil, err
	}
	u.log.Info("profile provisioned on demand", zap.String("auth_id", who.ID))
	return p, nil
}

// CurrentUser resolves the staff profile behind an access token. An
// authenticated identity without a profile resolves to nil.
func (u *Usecase) CurrentUser(ctx context.Context, token string) (*user.User, *identity.Session, error) {
	who, sess, err := u.provider.GetUser(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	p, err := u.profileOf(ctx, *who)
	if errors.Is(err, user.ErrNotFound) {
		return nil, sess, nil
	}
	if err != nil {
		u.log.Error("load profile", zap.String("auth_id", who.ID), zap.Error(err))
		return nil, nil, err
	}
	return p, sess, nil
}

func (u *Usecase) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	s, err := u.provider.SignIn(ctx, email, password)
	switch {
	case errors.Is(err, identity.ErrEmailNotConfirmed):
		return nil, errors.Join(ErrEmailNotConfirmed, err)
	case errors.Is(err, identity.ErrInvalidCredentials):
		return nil, errors.Join(ErrInvalidCredentials, err)
	case err != nil:
		u.log.Error("sign in", zap.Error(err))
		return nil, err
	}

	p, err := u.profileOf(ctx, s.User)
	if err != nil || !p.IsActive {
		// a session without a usable profile never leaves this function
		if outErr := u.provider.SignOut(ctx, s.AccessToken); outErr != nil {
			u.log.Warn("forced sign out", zap.String("auth_id", s.User.ID), zap.Error(outErr))
		}
		switch {
		case errors.Is(err, user.ErrNotFound):
			return nil, ErrProfileNotFound
		case err != nil:
			return nil, err
		}
		return nil, user.ErrInactive
	}
	return &SignInResult{Session: s, Profile: p}, nil
}

// SignUp registers the identity with its profile data as metadata, then
// reads the profile back. Provisioning may lag, so a missing row yields a
// placeholder built from the request.
func (u *Usecase) SignUp(ctx context.Context, in SignUpInput) (*SignUpResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.Email == "" || in.Password == "" || in.FirstName == "" || in.LastName == "" {
		return nil, ErrMissingFields
	}
	if err := user.ValidateAssignment(in.Role, in.BranchID); err != nil {
		return nil, err
	}
	if in.BranchID != nil {
		if _, err := u.branches.GetByID(ctx, *in.BranchID); err != nil {
			return nil, err
		}
	}

	who, err := u.provider.SignUp(ctx, identity.SignUpRequest{
		Email:      in.Email,
		Password:   in.Password,
		RedirectTo: in.RedirectTo,
		Metadata:   in.metadata(),
	})
	if err != nil {
		u.log.Warn("sign up", zap.String("email", in.Email), zap.Error(err))
		return nil, err
	}

	p, err := u.users.GetByAuthID(ctx, who.ID)
	switch {
	case err == nil:
		return &SignUpResult{User: who, Profile: p, Provisioned: true}, nil
	case errors.Is(err, user.ErrNotFound):
		return &SignUpResult{User: who, Profile: placeholder(who, in)}, nil
	default:
		return nil, err
	}
}

func placeholder(who *identity.User, in SignUpInput) *user.User {
	authID := who.ID
	return &user.User{
		AuthID:    &authID,
		Email:     who.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Role:      in.Role,
		BranchID:  in.BranchID,
		IsActive:  true,
	}
}

func (u *Usecase) SignOut(ctx context.Context, token string) error {
	return u.provider.SignOut(ctx, token)
}

// UpdateProfile applies a partial update to the caller's own row.
func (u *Usecase) UpdateProfile(ctx context.Context, current *user.User, p user.Patch) (*user.User, error) {
	if current == nil {
		return nil, ErrProfileNotFound
	}
	if p.Empty() {
		return current, nil
	}
	out, err := u.users.Update(ctx, current.ID, p)
	if err != nil {
		u.log.Error("update profile", zap.String("user_id", current.ID), zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (u *Usecase) ResendVerification(ctx context.Context, email, redirectTo string) error {
	return u.provider.ResendVerification(ctx, email, redirectTo)
}

// ConfirmEmail confirms the identity and flags the profile verified when it
// already exists.
func (u *Usecase) ConfirmEmail(ctx context.Context, token string) (*identity.User, error) {
	who, err := u.provider.ConfirmEmail(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := u.users.MarkEmailVerified(ctx, who.ID); err != nil {
		u.log.Warn("mark email verified", zap.String("auth_id", who.ID), zap.Error(err))
	}
	return who, nil
}
