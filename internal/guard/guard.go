// Package guard holds the route policies as pure functions of a session
// snapshot. Transport adapters turn a Decision into a response.
package guard

import (
	"slices"

	"microfinance-backoffice/internal/domain/user"
	"microfinance-backoffice/internal/session"
)

const LoginPath = "/auth/login"

type Decision struct {
	Allow    bool
	Redirect string
}

var allow = Decision{Allow: true}

// HomeFor is the dashboard a role lands on.
func HomeFor(r user.Role) string {
	switch r {
	case user.RoleAdmin:
		return "/admin"
	case user.RoleSubAdmin:
		return "/subadmin"
	case user.RoleAgent:
		return "/agent"
	}
	return LoginPath
}

// RequireIdentity admits a resolved identity only.
func RequireIdentity(s session.Snapshot) Decision {
	if s.Loading || s.Identity == nil {
		return Decision{Redirect: LoginPath}
	}
	return allow
}

// RequireRoles additionally checks the role; a signed-in identity with the
// wrong role is sent to its own home.
func RequireRoles(s session.Snapshot, roles ...user.Role) Decision {
	if d := RequireIdentity(s); !d.Allow {
		return d
	}
	if !slices.Contains(roles, s.Identity.Role) {
		return Decision{Redirect: HomeFor(s.Identity.Role)}
	}
	return allow
}

// PublicOnly keeps signed-in identities away from landing, login and signup.
func PublicOnly(s session.Snapshot) Decision {
	if !s.Loading && s.Identity != nil {
		return Decision{Redirect: HomeFor(s.Identity.Role)}
	}
	return allow
}
