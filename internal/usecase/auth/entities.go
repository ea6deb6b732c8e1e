package auth

import (
	"microfinance-backoffice/internal/domain/identity"
	"microfinance-backoffice/internal/domain/user"
)

type SignUpInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Phone      *string
	Role       user.Role
	BranchID   *string
	RedirectTo string
}

func (in SignUpInput) metadata() map[string]string {
	m := map[string]string{
		identity.MetaFirstName: in.FirstName,
		identity.MetaLastName:  in.LastName,
		identity.MetaRole:      string(in.Role),
	}
	if in.Phone != nil {
		m[identity.MetaPhone] = *in.Phone
	}
	if in.BranchID != nil {
		m[identity.MetaBranchID] = *in.BranchID
	}
	return m
}

// SignInResult pairs the provider session with the staff profile.
type SignInResult struct {
	Session *identity.Session `json:"session"`
	Profile *user.User        `json:"profile"`
}

// SignUpResult reports whether Profile is the stored row or a placeholder
// built from the request while provisioning catches up.
type SignUpResult struct {
	User        *identity.User `json:"user"`
	Profile     *user.User     `json:"profile"`
	Provisioned bool           `json:"provisioned"`
}
